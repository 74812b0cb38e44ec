package payload

import "github.com/go-kit/log"

// Option configures a Map or an Array.
type Option func(*options)

type options struct {
	logger     log.Logger
	validation func(*Array) error
	importer   func(*Array, *Values) error
}

func defaultOptions() options {
	return options{logger: log.NewNopLogger()}
}

func applyOptions(opts []Option) options {
	cfg := defaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

// WithLogger sets the logger used for debug output, such as keys skipped by a
// lenient import.
func WithLogger(logger log.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithValidation supplies the Validate implementation of an Array based
// type. Maps ignore it.
func WithValidation(fn func(*Array) error) Option {
	return func(o *options) {
		o.validation = fn
	}
}

// WithImporter supplies the Import implementation of an Array based type.
// It receives the decoded input; ImportBindings is the usual body. Maps
// ignore it.
func WithImporter(fn func(a *Array, input *Values) error) Option {
	return func(o *options) {
		o.importer = fn
	}
}
