package postcodes

import (
	"github.com/hupe1980/postcodes/internal/container"
	"github.com/hupe1980/postcodes/tokenize"
)

type options struct {
	logger           *Logger
	metricsCollector MetricsCollector
	tokenizer        tokenize.Func
	sectionTag       string
	rawSection       bool
	verify           bool
	name             string
	compression      container.Compression
	regionSuffix     string
	lookupParallel   int
}

func defaultOptions() options {
	return options{
		logger:           NoopLogger(),
		metricsCollector: NoopMetricsCollector{},
		tokenizer:        tokenize.Query,
		sectionTag:       SectionTag,
		compression:      container.CompressionZSTD,
		regionSuffix:     RegionSuffix,
		lookupParallel:   8,
	}
}

func applyOptions(opts []Option) options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Option configures an Index, a Catalog or a Builder.
type Option func(*options)

// WithLogger configures structured logging.
// Pass nil to disable logging.
func WithLogger(l *Logger) Option {
	return func(o *options) {
		if l == nil {
			l = NoopLogger()
		}
		o.logger = l
	}
}

// WithMetricsCollector configures a metrics collector for monitoring operations.
// Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &postcodes.BasicMetricsCollector{}
//	idx, _ := postcodes.Open(ctx, blob, postcodes.WithMetricsCollector(metrics))
//	stats := metrics.GetStats()
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithTokenizer replaces the query tokenizer used by Search.
func WithTokenizer(fn tokenize.Func) Option {
	return func(o *options) {
		if fn == nil {
			fn = tokenize.Query
		}
		o.tokenizer = fn
	}
}

// WithSectionTag reads the index from a section other than SectionTag.
func WithSectionTag(tag string) Option {
	return func(o *options) {
		o.sectionTag = tag
	}
}

// WithRawSection treats the whole blob as a bare postcode section instead
// of a container.
func WithRawSection() Option {
	return func(o *options) {
		o.rawSection = true
	}
}

// WithVerify checks the section digest when the index is opened.
func WithVerify(verify bool) Option {
	return func(o *options) {
		o.verify = verify
	}
}

// WithName labels the index in logs.
func WithName(name string) Option {
	return func(o *options) {
		o.name = name
	}
}

// WithCompression sets the container TOC compression used by Builder.
func WithCompression(c Compression) Option {
	return func(o *options) {
		o.compression = c
	}
}

// WithRegionSuffix sets the file suffix Catalog.Regions lists.
func WithRegionSuffix(suffix string) Option {
	return func(o *options) {
		o.regionSuffix = suffix
	}
}

// WithLookupParallelism bounds how many regions Catalog.LookupAll queries
// at once. Values <= 0 mean unbounded.
func WithLookupParallelism(n int) Option {
	return func(o *options) {
		o.lookupParallel = n
	}
}
