package mockup

import (
	"log/slog"
	"sync/atomic"
)

var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	SetLogger(nil)
}

// SetLogger installs the logger shared by the compositor and the service
// packages. A nil logger discards everything, which is the default.
// It may be called at any time, including while composites are running.
//
// The compositor logs per-layer diagnostics at debug level: decoded source
// sizes, ignored opacities, and layers that draw nothing. Services log
// completed generations at info and failed event deliveries at warn.
//
//	mockup.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})))
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = slog.New(slog.DiscardHandler)
	}
	loggerPtr.Store(l)
}

// Logger returns the logger installed by SetLogger.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}
