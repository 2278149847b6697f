package observability

import (
	"strings"

	"github.com/fulmenhq/gofulmen/logging"
)

var (
	// CLILogger writes human-oriented lines for one-shot commands.
	CLILogger *logging.Logger

	// ServerLogger writes one record per event for the HTTP service.
	ServerLogger *logging.Logger
)

// ServerLogOptions selects how the service logs.
type ServerLogOptions struct {
	Service string
	Level   string
	// Profile "simple" writes console lines for local runs; anything else
	// writes JSON.
	Profile   string
	Namespace string
}

// InitCLILogger installs CLILogger. verbose lowers the level to debug.
func InitCLILogger(serviceName string, verbose bool) error {
	logger, err := logging.NewCLI(serviceName)
	if err != nil {
		return err
	}
	if verbose {
		logger.SetLevel(logging.DEBUG)
	}
	CLILogger = logger
	return nil
}

// InitServerLogger installs ServerLogger on the STRUCTURED profile with the
// correlation middleware, so request IDs reach every record.
func InitServerLogger(opts ServerLogOptions) error {
	format := "json"
	if strings.EqualFold(strings.TrimSpace(opts.Profile), "simple") {
		format = "console"
	}

	static := map[string]any{}
	if opts.Namespace != "" {
		static["namespace"] = opts.Namespace
	}

	logger, err := logging.New(&logging.LoggerConfig{
		Profile:      logging.ProfileStructured,
		DefaultLevel: parseLogLevel(opts.Level),
		Service:      opts.Service,
		Environment:  "production",
		StaticFields: static,
		Middleware: []logging.MiddlewareConfig{
			{Name: "correlation", Enabled: true, Order: 100, Config: map[string]any{}},
		},
		Sinks: []logging.SinkConfig{
			{
				Type:    "console",
				Format:  format,
				Console: &logging.ConsoleSinkConfig{Stream: "stderr"},
			},
		},
		EnableCaller:     true,
		EnableStacktrace: true,
	})
	if err != nil {
		return err
	}
	ServerLogger = logger
	return nil
}

// SetServerLogLevel changes the server logger's level in place. Unknown
// levels fall back to info.
func SetServerLogLevel(level string) {
	if ServerLogger == nil {
		return
	}
	ServerLogger.SetLevel(logging.Severity(parseLogLevel(level)))
}

func parseLogLevel(level string) string {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace":
		return "TRACE"
	case "debug":
		return "DEBUG"
	case "warn", "warning":
		return "WARN"
	case "error":
		return "ERROR"
	default:
		return "INFO"
	}
}
