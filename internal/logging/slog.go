package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	sdklog "go.opentelemetry.io/otel/sdk/log"
)

// ServiceName is the instrumentation scope used for OTel log records.
const ServiceName = "handpose"

// swapped in tests
var (
	osStdout = os.Stdout
	osPipe   = os.Pipe
)

var levels = map[string]slog.Level{
	"DEBUG": slog.LevelDebug,
	"INFO":  slog.LevelInfo,
	"WARN":  slog.LevelWarn,
	"ERROR": slog.LevelError,
}

// SlogManager owns the process logger and the OTel log provider it bridges to.
type SlogManager struct {
	logger   *slog.Logger
	provider *sdklog.LoggerProvider
}

// NewSlogManager returns a manager whose Logger is slog.Default until Setup.
func NewSlogManager() *SlogManager {
	return &SlogManager{}
}

// parseLevel maps a case-insensitive level name, defaulting to info.
func parseLevel(level string) slog.Level {
	if lvl, ok := levels[strings.ToUpper(level)]; ok {
		return lvl
	}
	return slog.LevelInfo
}

// utcTime renders the record time as RFC3339 in UTC.
func utcTime(_ []string, a slog.Attr) slog.Attr {
	if a.Key != slog.TimeKey {
		return a
	}
	if t, ok := a.Value.Any().(time.Time); ok {
		a.Value = slog.StringValue(t.UTC().Format(time.RFC3339))
	}
	return a
}

// Setup (re)builds the logger. Text records go to w, or stdout when w is nil.
// A non-nil provider adds the otelslog bridge.
func (m *SlogManager) Setup(w io.Writer, level string, provider *sdklog.LoggerProvider) {
	if w == nil {
		w = osStdout
	}
	opts := &slog.HandlerOptions{Level: parseLevel(level), ReplaceAttr: utcTime}

	var bridge slog.Handler
	if provider != nil {
		bridge = otelslog.NewHandler(ServiceName, otelslog.WithLoggerProvider(provider))
	}

	m.provider = provider
	m.logger = slog.New(NewMultiHandler(slog.NewTextHandler(w, opts), bridge))
	m.logger.Info("Logging initialized", "level", level)
}

// Logger returns the configured logger, or slog.Default before Setup.
func (m *SlogManager) Logger() *slog.Logger {
	if m.logger != nil {
		return m.logger
	}
	return slog.Default()
}

// Flush exports pending OTel records. It is a no-op without a provider.
func (m *SlogManager) Flush(ctx context.Context) error {
	if m.provider == nil {
		return nil
	}
	return m.provider.ForceFlush(ctx)
}
