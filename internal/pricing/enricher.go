package pricing

import (
	"context"
	"fmt"

	"github.com/iwvelando/pricing-advisor/internal/refdata"
	"github.com/iwvelando/pricing-advisor/pkg/constants"
	"go.uber.org/zap"
)

// Enricher resolves reference data for requests.
type Enricher struct {
	gateway refdata.Gateway
	logger  *zap.Logger
}

// NewEnricher returns an Enricher reading from gateway.
func NewEnricher(logger *zap.Logger, gateway refdata.Gateway) *Enricher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Enricher{gateway: gateway, logger: logger}
}

// Enrich builds the Context for req. Reference misses fall back to defaults;
// only gateway failures and cancellation are returned as errors.
func (e *Enricher) Enrich(ctx context.Context, req Request) (Context, error) {
	enr := Enrichment{
		ProductFamily:   constants.DefaultProductFamily,
		COGS:            constants.DefaultCOGS,
		CustomerSegment: constants.DefaultCustomerSegment,
		Region:          constants.DefaultRegion,
	}

	product, found, err := e.gateway.Product(ctx, req.SKU)
	if err != nil {
		return Context{}, fmt.Errorf("product lookup for %q: %w", req.SKU, err)
	}
	if found {
		enr.ProductID = product.ProductID
		enr.ProductFamily = product.Family

		cost, costFound, err := e.gateway.Cost(ctx, product.ProductID)
		if err != nil {
			return Context{}, fmt.Errorf("cost lookup for %q: %w", product.ProductID, err)
		}
		if costFound {
			enr.COGS = cost.COGS
		} else {
			e.logger.Debug("no cost row, using default cogs",
				zap.String("op", "pricing.Enrich"),
				zap.String("product_id", product.ProductID),
			)
		}
	} else {
		e.logger.Debug("unknown sku, using default product values",
			zap.String("op", "pricing.Enrich"),
			zap.String("sku", req.SKU),
		)
	}

	customer, found, err := e.gateway.Customer(ctx, req.CustomerID)
	if err != nil {
		return Context{}, fmt.Errorf("customer lookup for %q: %w", req.CustomerID, err)
	}
	if found {
		enr.CustomerSegment = customer.Segment
		enr.Industry = customer.Industry
		enr.Region = customer.Region
	} else {
		e.logger.Debug("unknown customer, using default segment",
			zap.String("op", "pricing.Enrich"),
			zap.String("customer_id", req.CustomerID),
		)
	}

	enr.CompetitorPrice = enr.COGS * constants.CompetitorPriceMarkup
	return NewContext(req, enr), nil
}
