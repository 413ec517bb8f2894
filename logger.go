package mediasoup

import (
	"os"
	"strconv"
	"strings"

	"github.com/go-logr/logr"
	"github.com/go-logr/zerologr"
	"github.com/gobwas/glob"
	"github.com/rs/zerolog"
)

var (
	// DefaultLogLevel applies to scopes not selected by the DEBUG variable.
	DefaultLogLevel = zerolog.InfoLevel

	defaultLogWriter = zerolog.NewConsoleWriter(func(w *zerolog.ConsoleWriter) {
		color, _ := strconv.ParseBool(os.Getenv("DEBUG_COLORS"))
		w.NoColor = !color
		w.TimeFormat = "2006-01-02 15:04:05.999"
	})

	baseLogger = zerolog.New(defaultLogWriter).With().Timestamp().Logger()

	// NewLogger creates the logger of a scope such as "Router" or "Channel".
	// Applications replace it to plug their own sink.
	NewLogger = func(scope string) logr.Logger {
		level := DefaultLogLevel
		if debugEnabled(os.Getenv("DEBUG"), scope) {
			level = zerolog.DebugLevel
		}
		logger := baseLogger.Level(level)

		return zerologr.New(&logger).WithName(scope)
	}
)

func init() {
	zerolog.TimeFieldFormat = "2006-01-02T15:04:05.999Z07:00"
	zerologr.VerbosityFieldName = ""
}

// debugEnabled evaluates a DEBUG expression like "Worker,Router*,-Channel".
// The last matching pattern wins.
func debugEnabled(expr, scope string) bool {
	enabled := false

	for _, part := range strings.Split(expr, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		want := true
		if part[0] == '-' {
			want = false
			part = part[1:]
		}
		g, err := glob.Compile(part)
		if err != nil {
			continue
		}
		if g.Match(scope) {
			enabled = want
		}
	}

	return enabled
}
