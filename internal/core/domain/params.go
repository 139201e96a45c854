package domain

// Default retrieval parameters. The threshold, batch size and scan cap
// are carried as configuration rather than constants so deployments can
// tune them without rebuilding.
const (
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 200
	DefaultMinScore     = 0.3
	DefaultBatchSize    = 100
	DefaultMaxScan      = 1000
	DefaultTopK         = 5
)

// Params holds the tunable retrieval parameters. A zero value is not
// usable; obtain one from DefaultParams and override selectively.
type Params struct {
	// ChunkSize is the maximum chunk length in characters.
	ChunkSize int

	// ChunkOverlap is the maximum number of characters adjacent
	// chunks may share.
	ChunkOverlap int

	// MinScore is the minimum cosine similarity for a search hit.
	MinScore float64

	// BatchSize is how many records the similarity scan reads at once.
	BatchSize int

	// MaxScan caps the total records examined per search. Exceeding it
	// truncates the scan and is reported as degraded coverage.
	MaxScan int

	// TopK is the default result count when the caller passes none.
	TopK int
}

// DefaultParams returns the stock parameter set.
func DefaultParams() Params {
	return Params{
		ChunkSize:    DefaultChunkSize,
		ChunkOverlap: DefaultChunkOverlap,
		MinScore:     DefaultMinScore,
		BatchSize:    DefaultBatchSize,
		MaxScan:      DefaultMaxScan,
		TopK:         DefaultTopK,
	}
}

// Normalize clamps nonsensical values back to defaults so a partially
// filled config file cannot disable the engine.
func (p Params) Normalize() Params {
	if p.ChunkSize <= 0 {
		p.ChunkSize = DefaultChunkSize
	}
	if p.ChunkOverlap < 0 || p.ChunkOverlap >= p.ChunkSize {
		p.ChunkOverlap = p.ChunkSize / 5
	}
	if p.MinScore < 0 || p.MinScore > 1 {
		p.MinScore = DefaultMinScore
	}
	if p.BatchSize <= 0 {
		p.BatchSize = DefaultBatchSize
	}
	if p.MaxScan <= 0 {
		p.MaxScan = DefaultMaxScan
	}
	if p.TopK <= 0 {
		p.TopK = DefaultTopK
	}
	return p
}
