package imagepipe

// Config carries the pipeline tunables. It is constructed once at startup
// and passed into New; there is no package-level state, so two pipelines
// with different budgets can coexist in one process.
type Config struct {
	MaxReceivedBytes int64 // pre-decode ceiling on raw upload bytes
	TargetBytes      int64 // byte budget the encoded result must satisfy
	MaxPixels        int64 // decoded width*height ceiling, checked before full decode
	LongEdges        []int // long-edge caps, preferred first
	Qualities        []int // JPEG quality levels, descending
}

// DefaultConfig returns the production defaults: accept up to 10 MiB,
// recompress to at most 2 MiB, refuse anything that would decode past
// 40 megapixels.
func DefaultConfig() Config {
	return Config{
		MaxReceivedBytes: 10 << 20,
		TargetBytes:      2 << 20,
		MaxPixels:        40_000_000,
		LongEdges:        []int{2048, 1280},
		Qualities:        []int{75, 65, 55, 45},
	}
}

// Pipeline turns untrusted upload bytes into a budget-compliant JPEG.
// All steps are pure; the pipeline never touches the filesystem and is
// safe for concurrent use.
type Pipeline struct {
	cfg Config
}

// New creates a Pipeline with the given configuration.
func New(cfg Config) *Pipeline {
	return &Pipeline{cfg: cfg}
}

// Ingest runs the full chain: validate the declared metadata and size,
// sniff and decode to an upright canonical buffer, then search the
// compression ladder. On success the returned encoding is guaranteed to
// fit cfg.TargetBytes.
func (p *Pipeline) Ingest(data []byte, declaredType, filename string) (*Encoded, error) {
	if err := p.Validate(data, declaredType, filename); err != nil {
		return nil, err
	}
	img, err := p.Decode(data)
	if err != nil {
		return nil, err
	}
	return p.Compress(img)
}
