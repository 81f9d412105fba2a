package pricing

import (
	"context"
	"errors"
	"testing"

	"github.com/iwvelando/pricing-advisor/internal/refdata"
)

type failingGateway struct {
	refdata.Gateway
	err error
}

func (f failingGateway) Customer(context.Context, string) (refdata.Customer, bool, error) {
	return refdata.Customer{}, false, f.err
}

func testSnapshot() *refdata.Snapshot {
	return refdata.NewSnapshot(refdata.Tables{
		Products:  []refdata.Product{{ProductID: "P1", SKU: "SKU-1", Family: "Gadgets"}, {ProductID: "P2", SKU: "SKU-2", Family: "Gizmos"}},
		Costs:     []refdata.Cost{{ProductID: "P1", COGS: 50}},
		Customers: []refdata.Customer{{CustomerID: "C1", Segment: "SMB", Region: "Americas", Industry: "Retail"}},
	})
}

func TestEnrichResolvesReferenceRows(t *testing.T) {
	e := NewEnricher(nil, testSnapshot())
	req := Request{SKU: "SKU-1", CustomerID: "C1", Quantity: 7, Country: "US", Channel: "Direct", Currency: "USD"}

	got, err := e.Enrich(context.Background(), req)
	if err != nil {
		t.Fatalf("Enrich() error: %v", err)
	}
	if got.ProductID() != "P1" || got.ProductFamily() != "Gadgets" || got.COGS() != 50 {
		t.Fatalf("unexpected product fields: %+v", got)
	}
	if got.CustomerSegment() != "SMB" || got.Region() != "Americas" || got.Industry() != "Retail" {
		t.Fatalf("unexpected customer fields: %+v", got)
	}
	if got.CompetitorPrice() != 65 {
		t.Fatalf("CompetitorPrice() = %v, want 65", got.CompetitorPrice())
	}
	if got.Request() != req || got.Quantity() != 7 || got.Channel() != "Direct" {
		t.Fatalf("request fields not carried: %+v", got.Request())
	}
}

func TestEnrichDefaults(t *testing.T) {
	tests := []struct {
		name       string
		req        Request
		wantFamily string
		wantCOGS   float64
		wantSeg    string
		wantRegion string
	}{
		{"unknown sku and customer", Request{SKU: "nope", CustomerID: "nobody", Quantity: 1}, "Widgets", 80, "Enterprise", "EMEA"},
		{"product without cost", Request{SKU: "SKU-2", CustomerID: "nobody", Quantity: 1}, "Gizmos", 80, "Enterprise", "EMEA"},
	}
	e := NewEnricher(nil, testSnapshot())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := e.Enrich(context.Background(), tt.req)
			if err != nil {
				t.Fatalf("Enrich() error: %v", err)
			}
			if got.ProductFamily() != tt.wantFamily || got.COGS() != tt.wantCOGS ||
				got.CustomerSegment() != tt.wantSeg || got.Region() != tt.wantRegion {
				t.Fatalf("Enrich() = %+v", got)
			}
			if got.CompetitorPrice() != tt.wantCOGS*1.3 {
				t.Fatalf("CompetitorPrice() = %v, want %v", got.CompetitorPrice(), tt.wantCOGS*1.3)
			}
		})
	}
}

func TestEnrichPropagatesGatewayFailure(t *testing.T) {
	boom := errors.New("disk gone")
	e := NewEnricher(nil, failingGateway{Gateway: testSnapshot(), err: boom})
	if _, err := e.Enrich(context.Background(), Request{SKU: "SKU-1", CustomerID: "C1", Quantity: 1}); !errors.Is(err, boom) {
		t.Fatalf("Enrich() error = %v, want %v", err, boom)
	}
}

func TestEnrichCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewEnricher(nil, testSnapshot()).Enrich(ctx, Request{SKU: "SKU-1"}); !errors.Is(err, context.Canceled) {
		t.Fatalf("Enrich() error = %v, want context.Canceled", err)
	}
}

func TestPolicyBoundsHasBand(t *testing.T) {
	b := PolicyBounds{ApprovalBands: []ApprovalBand{Review, Reject}}
	if b.HasBand(Approved) {
		t.Fatal("HasBand(APPROVED) = true for review/reject only policy")
	}
	if !b.HasBand(Reject) {
		t.Fatal("HasBand(REJECT) = false")
	}
}
