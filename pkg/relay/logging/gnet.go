package logging

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	gnetlogging "github.com/panjf2000/gnet/v2/pkg/logging"
)

// gnetLogger adapts slog to gnet's printf-style logger.
type gnetLogger struct {
	l *slog.Logger
}

// Gnet returns a gnet logger writing through l, tagged component=gnet.
func Gnet(l *slog.Logger) gnetlogging.Logger {
	return gnetLogger{l: l.With("component", "gnet")}
}

func (g gnetLogger) logf(level slog.Level, format string, args []any) {
	ctx := context.Background()
	if !g.l.Enabled(ctx, level) {
		return
	}
	g.l.Log(ctx, level, fmt.Sprintf(format, args...))
}

func (g gnetLogger) Debugf(format string, args ...any) { g.logf(slog.LevelDebug, format, args) }
func (g gnetLogger) Infof(format string, args ...any)  { g.logf(slog.LevelInfo, format, args) }
func (g gnetLogger) Warnf(format string, args ...any)  { g.logf(slog.LevelWarn, format, args) }
func (g gnetLogger) Errorf(format string, args ...any) { g.logf(slog.LevelError, format, args) }

// Fatalf logs at error level and exits, matching gnet's default logger.
func (g gnetLogger) Fatalf(format string, args ...any) {
	g.logf(slog.LevelError, format, args)
	os.Exit(1)
}
