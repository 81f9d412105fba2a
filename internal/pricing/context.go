package pricing

// Enrichment carries the reference values resolved for a request.
type Enrichment struct {
	ProductID       string
	ProductFamily   string
	COGS            float64
	CustomerSegment string
	Region          string
	Industry        string
	CompetitorPrice float64
}

// Context is the immutable enriched view of a request. It is built once by
// the Enricher (or NewContext) and only exposes getters.
type Context struct {
	req Request
	enr Enrichment
}

// NewContext combines a request with already resolved reference values.
// Values are taken as given; defaulting is the Enricher's job.
func NewContext(req Request, enr Enrichment) Context {
	return Context{req: req, enr: enr}
}

// Request returns the request the context was built from.
func (c Context) Request() Request { return c.req }

func (c Context) SKU() string        { return c.req.SKU }
func (c Context) CustomerID() string { return c.req.CustomerID }
func (c Context) Quantity() int      { return c.req.Quantity }
func (c Context) Country() string    { return c.req.Country }
func (c Context) Channel() string    { return c.req.Channel }
func (c Context) Currency() string   { return c.req.Currency }

func (c Context) ProductID() string       { return c.enr.ProductID }
func (c Context) ProductFamily() string   { return c.enr.ProductFamily }
func (c Context) COGS() float64           { return c.enr.COGS }
func (c Context) CustomerSegment() string { return c.enr.CustomerSegment }
func (c Context) Region() string          { return c.enr.Region }
func (c Context) Industry() string        { return c.enr.Industry }
func (c Context) CompetitorPrice() float64 {
	return c.enr.CompetitorPrice
}
