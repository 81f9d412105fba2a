package validation

import (
	"fmt"
	"math"
	"strings"

	"github.com/iwvelando/pricing-advisor/internal/pricing"
)

// ValidateRequest rejects requests the pricing pipeline cannot evaluate.
// Returned errors wrap pricing.ErrInvalidRequest.
func ValidateRequest(req pricing.Request) error {
	var problems []string
	if strings.TrimSpace(req.SKU) == "" {
		problems = append(problems, "sku is required")
	}
	if strings.TrimSpace(req.CustomerID) == "" {
		problems = append(problems, "customer_id is required")
	}
	if req.Quantity < 1 {
		problems = append(problems, fmt.Sprintf("quantity must be at least 1, got %d", req.Quantity))
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", pricing.ErrInvalidRequest, strings.Join(problems, "; "))
	}
	return nil
}

// ValidateProposedPrice checks a price supplied for scoring.
func ValidateProposedPrice(price float64) error {
	if math.IsNaN(price) || math.IsInf(price, 0) || price <= 0 {
		return fmt.Errorf("%w: proposed_price must be a positive number, got %v", pricing.ErrInvalidRequest, price)
	}
	return nil
}

// ValidateBatchSize bounds the number of requests in one batch.
func ValidateBatchSize(n, max int) error {
	if n == 0 {
		return fmt.Errorf("%w: batch contains no requests", pricing.ErrInvalidRequest)
	}
	if max > 0 && n > max {
		return fmt.Errorf("%w: batch of %d requests exceeds the limit of %d", pricing.ErrInvalidRequest, n, max)
	}
	return nil
}
