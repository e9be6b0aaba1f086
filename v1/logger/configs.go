package logger

const (
	Debug   = "debug"
	Info    = "info"
	Warning = "warning"
	Error   = "error"
)

// Config selects the log level and the fields attached to every entry.
type Config struct {
	// Level is one of debug, info, warning, error. Anything else means info.
	Level string `koanf:"level"`

	// ServiceName is added to every entry as "service".
	ServiceName string `koanf:"service_name"`

	// EnableTracing adds trace_id and span_id to entries logged through the
	// *WithContext methods when the context carries a span.
	EnableTracing bool `koanf:"enable_tracing"`
}
