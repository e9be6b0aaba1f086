package tracer

// Config defines the tracer settings.
type Config struct {
	// ServiceName is recorded as the service.name resource attribute.
	ServiceName string `koanf:"service_name"`

	// AppEnv is the deployment environment, e.g. "development" or "production".
	AppEnv string `koanf:"app_env"`

	// EnableExport sends spans to an OTLP HTTP collector. The endpoint is taken
	// from the standard OTEL_EXPORTER_OTLP_* environment variables.
	EnableExport bool `koanf:"enable_export"`
}
