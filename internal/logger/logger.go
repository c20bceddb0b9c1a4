package logger

import (
	"strings"

	"github.com/go-chi/httplog"
	"github.com/rs/zerolog"
)

// New builds the service logger shared by the router, services and CLIs.
// format "text" switches to concise console output, anything else is JSON.
func New(service, level, format string) zerolog.Logger {
	level = strings.ToLower(strings.TrimSpace(level))
	switch level {
	case "debug", "info", "warn", "error":
	default:
		level = "info"
	}

	text := strings.EqualFold(format, "text")
	return httplog.NewLogger(service, httplog.Options{
		JSON:     !text,
		Concise:  text,
		LogLevel: level,
	})
}
