package dedupe

// Option applies a configuration option to the deduper.
type Option func(*submissionDeduper)

// WithMaxSize bounds how many ids are remembered. Zero or negative keeps
// every id.
func WithMaxSize(maxSize int) Option {
	return func(d *submissionDeduper) {
		d.maxSize = maxSize
	}
}
