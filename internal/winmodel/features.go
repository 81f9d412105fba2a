// Package winmodel trains and serves the win-probability classifier: feature
// engineering, categorical encoders, a random forest and its artifact format.
package winmodel

import (
	"math"

	"github.com/iwvelando/pricing-advisor/pkg/mathutil"
)

// Feature column names in model input order.
const (
	ColMarginPct         = "margin_pct"
	ColDiscountDepth     = "discount_depth"
	ColPriceVsCompetitor = "price_vs_competitor"
	ColQuantity          = "quantity"
	ColSegment           = "segment"
	ColChannel           = "channel"
	ColRegion            = "region"
	ColFamily            = "family"
	ColVolumeTier        = "volume_tier"
	ColPricePosition     = "price_position"
)

// FeatureNames is the model input schema.
var FeatureNames = []string{
	ColMarginPct, ColDiscountDepth, ColPriceVsCompetitor, ColQuantity,
	ColSegment, ColChannel, ColRegion, ColFamily, ColVolumeTier, ColPricePosition,
}

// CategoricalColumns are the columns passed through label encoders.
var CategoricalColumns = []string{
	ColSegment, ColChannel, ColRegion, ColFamily, ColVolumeTier, ColPricePosition,
}

// Volume tiers.
const (
	TierSmall  = "Small"
	TierMedium = "Medium"
	TierLarge  = "Large"
	TierXLarge = "XLarge"
)

// Price positions relative to the competitor.
const (
	PositionBelow = "Below"
	PositionMatch = "Match"
	PositionAbove = "Above"
)

// Features is one engineered model input.
type Features struct {
	MarginPct         float64 `json:"margin_pct"`
	DiscountDepth     float64 `json:"discount_depth"`
	PriceVsCompetitor float64 `json:"price_vs_competitor"`
	Quantity          int     `json:"quantity"`
	Segment           string  `json:"segment"`
	Channel           string  `json:"channel"`
	Region            string  `json:"region"`
	Family            string  `json:"family"`
	VolumeTier        string  `json:"volume_tier"`
	PricePosition     string  `json:"price_position"`
}

// Categorical returns the value of a categorical column.
func (f Features) Categorical(column string) string {
	switch column {
	case ColSegment:
		return f.Segment
	case ColChannel:
		return f.Channel
	case ColRegion:
		return f.Region
	case ColFamily:
		return f.Family
	case ColVolumeTier:
		return f.VolumeTier
	case ColPricePosition:
		return f.PricePosition
	}
	return ""
}

// VolumeTier buckets an order quantity.
func VolumeTier(quantity int) string {
	switch {
	case quantity <= 5:
		return TierSmall
	case quantity <= 15:
		return TierMedium
	case quantity <= 30:
		return TierLarge
	default:
		return TierXLarge
	}
}

// PricePosition buckets a price to competitor ratio.
func PricePosition(ratio float64) string {
	switch {
	case ratio < 0.9:
		return PositionBelow
	case ratio <= 1.1:
		return PositionMatch
	default:
		return PositionAbove
	}
}

// MarginPct is (price-cogs)/cogs, or 0 when cogs is not positive.
func MarginPct(price, cogs float64) float64 {
	return mathutil.SafeRatio(price, cogs)
}

// PriceVsCompetitor is price/competitor, or 1 when there is no competitor price.
func PriceVsCompetitor(price, competitor float64) float64 {
	if competitor <= 0 {
		return 1
	}
	return price / competitor
}

// DiscountDepth is the discount from listPrice, floored at 0.
func DiscountDepth(price, listPrice float64) float64 {
	if listPrice <= 0 {
		return 0
	}
	return math.Max(0, (listPrice-price)/listPrice)
}

// Inputs are the raw values a feature vector is derived from.
type Inputs struct {
	Price           float64
	COGS            float64
	Discount        float64
	CompetitorPrice float64
	Quantity        int
	Segment         string
	Channel         string
	Region          string
	Family          string
}

// NewFeatures derives the engineered features. Training and inference share
// this function so the buckets cannot drift apart.
func NewFeatures(in Inputs) Features {
	ratio := PriceVsCompetitor(in.Price, in.CompetitorPrice)
	return Features{
		MarginPct:         finite(MarginPct(in.Price, in.COGS)),
		DiscountDepth:     finite(in.Discount),
		PriceVsCompetitor: finite(ratio),
		Quantity:          in.Quantity,
		Segment:           in.Segment,
		Channel:           in.Channel,
		Region:            in.Region,
		Family:            in.Family,
		VolumeTier:        VolumeTier(in.Quantity),
		PricePosition:     PricePosition(ratio),
	}
}

func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
