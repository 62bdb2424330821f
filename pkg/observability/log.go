package observability

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
)

// LogHooks implements every hook interface by writing debug-level
// structured log lines. It is what `globe serve --verbose` registers.
type LogHooks struct {
	logger *log.Logger
}

// NewLogHooks returns hooks writing to logger (log.Default() when nil).
func NewLogHooks(logger *log.Logger) *LogHooks {
	if logger == nil {
		logger = log.Default()
	}
	return &LogHooks{logger: logger.WithPrefix("obs")}
}

// Register installs h for all hook categories.
func (h *LogHooks) Register() {
	SetExportHooks(h)
	SetIntelHooks(h)
	SetCacheHooks(h)
	SetHTTPHooks(h)
}

func (h *LogHooks) OnExportStart(_ context.Context, markers, legendRows int) {
	h.logger.Debug("export start", "markers", markers, "legend", legendRows)
}

func (h *LogHooks) OnExportComplete(_ context.Context, size int, d time.Duration, err error) {
	if err != nil {
		h.logger.Warn("export failed", "duration", d, "err", err)
		return
	}
	h.logger.Debug("export done", "bytes", size, "duration", d)
}

func (h *LogHooks) OnDescribeStart(_ context.Context, source, mode string) {
	h.logger.Debug("describe start", "source", source, "mode", mode)
}

func (h *LogHooks) OnDescribeComplete(_ context.Context, source, mode string, d time.Duration, err error) {
	if err != nil {
		h.logger.Warn("describe failed", "source", source, "mode", mode, "duration", d, "err", err)
		return
	}
	h.logger.Debug("describe done", "source", source, "mode", mode, "duration", d)
}

func (h *LogHooks) OnCacheHit(_ context.Context, key string) {
	h.logger.Debug("cache hit", "key", key)
}

func (h *LogHooks) OnCacheMiss(_ context.Context, key string) {
	h.logger.Debug("cache miss", "key", key)
}

func (h *LogHooks) OnCacheSet(_ context.Context, key string, size int) {
	h.logger.Debug("cache set", "key", key, "bytes", size)
}

func (h *LogHooks) OnRequest(_ context.Context, method, host, path string) {
	h.logger.Debug("http request", "method", method, "host", host, "path", path)
}

func (h *LogHooks) OnResponse(_ context.Context, method, host, path string, status int, d time.Duration) {
	h.logger.Debug("http response", "method", method, "host", host, "path", path, "status", status, "duration", d)
}

func (h *LogHooks) OnError(_ context.Context, method, host, path string, err error) {
	h.logger.Warn("http error", "method", method, "host", host, "path", path, "err", err)
}

var (
	_ ExportHooks = (*LogHooks)(nil)
	_ IntelHooks  = (*LogHooks)(nil)
	_ CacheHooks  = (*LogHooks)(nil)
	_ HTTPHooks   = (*LogHooks)(nil)
)
