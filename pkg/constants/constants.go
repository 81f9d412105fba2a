// Package constants provides shared constants for the pricing-advisor application.
package constants

// Enrichment defaults applied when reference data lookups miss.
const (
	DefaultProductFamily   = "Widgets"
	DefaultCOGS            = 80.0
	DefaultCustomerSegment = "Enterprise"
	DefaultRegion          = "EMEA"

	// CompetitorPriceMarkup derives the competitor reference price from COGS.
	CompetitorPriceMarkup = 1.3
)

// Policy defaults used when no (region, family) policy row exists.
const (
	DefaultMinMarginPct = 0.10
	DefaultCeilingPct   = 2.0
)

// Search and reporting constants
const (
	// GridSize is the number of candidate prices evaluated per recommendation.
	GridSize = 20

	// CurveSize is the number of points in a win-probability curve.
	CurveSize = 15

	// ViabilityThreshold is the win probability a stretch candidate must exceed.
	ViabilityThreshold = 0.2

	// PricePlaces is the number of decimals reported for prices.
	PricePlaces = 2

	// ProbabilityPlaces is the number of decimals reported for probabilities.
	ProbabilityPlaces = 3

	// ElasticityPlaces is the number of decimals reported for elasticities.
	ElasticityPlaces = 2

	// ListPriceMarkup derives an implied list price from a proposed price.
	ListPriceMarkup = 1.2
)

// Model training defaults
const (
	DefaultTrees         = 100
	DefaultMaxDepth      = 10
	DefaultSeed          = 42
	DefaultTestFraction  = 0.3
	HighConfidenceCutoff = 0.7
)

// Output format constants
const (
	// OutputFormatPretty is the human-readable output format
	OutputFormatPretty = "pretty"

	// OutputFormatJSON is the JSON output format
	OutputFormatJSON = "json"
)

// Configuration file constants
const (
	// DefaultConfigFile is the default configuration file name
	DefaultConfigFile = "config.yaml"

	// ExampleConfigFile is the example configuration file name
	ExampleConfigFile = "config.yaml.example"

	// DefaultServerConfigFile is the default server configuration file name
	DefaultServerConfigFile = "server-config.yaml"

	// DefaultDataDir holds the CSV reference tables.
	DefaultDataDir = "data/sample_csv"

	// DefaultModelPath is where the trained win-rate artifact is written.
	DefaultModelPath = "models/winrate_model.json"

	// EnvPrefix is the prefix for environment overrides.
	EnvPrefix = "PRICING"
)

// Server configuration defaults
const (
	// DefaultServerAddress is the default HTTP listen address
	DefaultServerAddress = ":8080"

	// DefaultMaxUploadSizeBytes is the default maximum request body size (256 KB)
	DefaultMaxUploadSizeBytes int64 = 256 * 1024
)

// Enterprise defaults
const (
	DefaultCacheSize    = 1024
	DefaultCacheTTL     = "1h"
	DefaultBatchWorkers = 8
	MaxBatchRequests    = 1000
)
