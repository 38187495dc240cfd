package memory

// Logger is the structured logger used by the store. core.Logger satisfies it.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

type options struct {
	logger Logger
	token  func() string
}

func defaultOptions() options {
	return options{logger: noopLogger{}}
}

// Option configures a Registry and the stores it creates.
type Option func(*options)

// WithLogger routes store diagnostics to logger.
func WithLogger(logger Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithTokenSource replaces the UUID generator used for string identities.
func WithTokenSource(token func() string) Option {
	return func(o *options) {
		o.token = token
	}
}
