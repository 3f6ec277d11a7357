package matchkit

import (
	"log/slog"

	"github.com/subashy6/matchkit/recommend"
	"github.com/subashy6/matchkit/resource"
)

type options struct {
	capacity          int
	dimension         int
	resources         *resource.Controller
	metricsCollector  MetricsCollector
	logger            *Logger
	thresholdStore    ThresholdStore
	snapshotPath      string
	thresholdOptions  []func(*recommend.ThresholdOptions)
	calculatorOptions []func(*recommend.CalculatorOptions)
	recommenderOpts   []func(*recommend.Options)
}

// Option configures Suggester constructor behavior.
type Option func(*options)

// WithCapacity configures the maximum number of indexed fingerprints.
// The capacity is fixed for the suggester's lifetime; inserts beyond it
// fail with ErrIndexFull.
func WithCapacity(capacity int) Option {
	return func(o *options) {
		o.capacity = capacity
	}
}

// WithDimension configures the fingerprint dimensionality.
// Defaults to core.FingerprintDim.
func WithDimension(dim int) Option {
	return func(o *options) {
		o.dimension = dim
	}
}

// WithResources configures the shared resource controller bounding
// search-worker parallelism. Nil means unlimited.
func WithResources(c *resource.Controller) Option {
	return func(o *options) {
		o.resources = c
	}
}

// WithThresholdStore configures a collaborator that persists changed
// thresholds after each feedback batch. Pass nil to keep thresholds
// in-memory only.
func WithThresholdStore(store ThresholdStore) Option {
	return func(o *options) {
		o.thresholdStore = store
	}
}

// WithSnapshotPath configures the file used by Checkpoint to save index
// snapshots.
func WithSnapshotPath(path string) Option {
	return func(o *options) {
		o.snapshotPath = path
	}
}

// WithThresholdOptions forwards configuration to the threshold store
// (default and maximum threshold values).
func WithThresholdOptions(optFns ...func(*recommend.ThresholdOptions)) Option {
	return func(o *options) {
		o.thresholdOptions = append(o.thresholdOptions, optFns...)
	}
}

// WithCalculatorOptions forwards configuration to the threshold update
// rule (target accuracy, step size).
func WithCalculatorOptions(optFns ...func(*recommend.CalculatorOptions)) Option {
	return func(o *options) {
		o.calculatorOptions = append(o.calculatorOptions, optFns...)
	}
}

// WithRecommenderOptions forwards configuration to the recommender
// (minimum confidence floor).
func WithRecommenderOptions(optFns ...func(*recommend.Options)) Option {
	return func(o *options) {
		o.recommenderOpts = append(o.recommenderOpts, optFns...)
	}
}

// WithMetricsCollector configures a metrics collector for monitoring
// operations. Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &matchkit.BasicMetricsCollector{}
//	sg, _ := matchkit.NewSuggester(catalog, assignments, matchkit.WithMetricsCollector(metrics))
//	// ... use sg ...
//	stats := metrics.GetStats()
//	fmt.Printf("Sets: %d, Avg latency: %dns\n", stats.SetCount, stats.SetAvgNanos)
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging for operations.
// Pass nil to disable logging.
//
// Example with JSON logging:
//
//	logger := matchkit.NewJSONLogger(slog.LevelInfo)
//	sg, _ := matchkit.NewSuggester(catalog, assignments, matchkit.WithLogger(logger))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		capacity:         defaultCapacity,
		dimension:        0, // resolved in the constructor
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	if o.metricsCollector == nil {
		o.metricsCollector = NoopMetricsCollector{}
	}
	if o.logger == nil {
		o.logger = NoopLogger()
	}
	return o
}
