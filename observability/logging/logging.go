package logging

import (
	"log"
	"log/slog"
	"os"
	"strings"
)

// LevelEnvVar selects the minimum log level; unset or unknown values mean
// info.
const LevelEnvVar = "ESCROWD_LOG_LEVEL"

// Setup configures the default logger to emit structured JSON on stdout and
// returns it. Every line carries the service name, and the environment when
// one is configured; the minimum level comes from ESCROWD_LOG_LEVEL.
func Setup(service, env string) *slog.Logger {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:       parseLevel(os.Getenv(LevelEnvVar)),
		ReplaceAttr: renameKeys,
	})

	attrs := baseAttrs(service, env)
	base := slog.New(handler.WithAttrs(attrs))
	slog.SetDefault(base)
	bridgeStdLog(handler.WithAttrs(attrs))
	return base
}

func parseLevel(raw string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// renameKeys maps slog's default keys onto the field names the log pipeline
// indexes: timestamp, severity, message.
func renameKeys(groups []string, attr slog.Attr) slog.Attr {
	switch attr.Key {
	case slog.TimeKey:
		attr.Key = "timestamp"
	case slog.LevelKey:
		return slog.String("severity", strings.ToUpper(attr.Value.String()))
	case slog.MessageKey:
		attr.Key = "message"
	}
	return attr
}

func baseAttrs(service, env string) []slog.Attr {
	attrs := []slog.Attr{slog.String("service", strings.TrimSpace(service))}
	if env = strings.TrimSpace(env); env != "" {
		attrs = append(attrs, slog.String("env", env))
	}
	return attrs
}

// bridgeStdLog routes the standard library logger through the structured
// handler so dependencies that use log.Printf keep working.
func bridgeStdLog(handler slog.Handler) {
	bridge := slog.NewLogLogger(handler, slog.LevelInfo)
	bridge.SetFlags(0)
	log.SetOutput(bridge.Writer())
	log.SetFlags(0)
	log.SetPrefix("")
}
