package observability

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
)

// LogHooks implements every hook interface by writing debug records to a
// logger, so events show up with --verbose.
type LogHooks struct {
	logger *log.Logger
}

// NewLogHooks returns hooks that log to l.
func NewLogHooks(l *log.Logger) *LogHooks {
	return &LogHooks{logger: l}
}

// Register installs h for every event category.
func (h *LogHooks) Register() {
	SetCheckHooks(h)
	SetCacheHooks(h)
	SetHTTPHooks(h)
}

func (h *LogHooks) OnCheckStart(_ context.Context, requirements int) {
	h.logger.Debug("check started", "requirements", requirements)
}

func (h *LogHooks) OnProjectChecked(_ context.Context, index, name, status string, d time.Duration, err error) {
	if err != nil {
		h.logger.Debug("project checked", "index", index, "name", name, "status", status, "duration", d, "err", err)
		return
	}
	h.logger.Debug("project checked", "index", index, "name", name, "status", status, "duration", d)
}

func (h *LogHooks) OnCheckComplete(_ context.Context, requirements int, d time.Duration, err error) {
	h.logger.Debug("check complete", "requirements", requirements, "duration", d, "err", err)
}

func (h *LogHooks) OnCacheHit(_ context.Context, namespace string) {
	h.logger.Debug("cache hit", "ns", namespace)
}

func (h *LogHooks) OnCacheMiss(_ context.Context, namespace string) {
	h.logger.Debug("cache miss", "ns", namespace)
}

func (h *LogHooks) OnCacheSet(_ context.Context, namespace string, size int) {
	h.logger.Debug("cache set", "ns", namespace, "bytes", size)
}

func (h *LogHooks) OnRequest(_ context.Context, method, host, path string) {
	h.logger.Debug("http request", "method", method, "host", host, "path", path)
}

func (h *LogHooks) OnResponse(_ context.Context, method, host, path string, status int, d time.Duration) {
	h.logger.Debug("http response", "method", method, "host", host, "path", path, "status", status, "duration", d)
}

func (h *LogHooks) OnError(_ context.Context, method, host, path string, err error) {
	h.logger.Debug("http error", "method", method, "host", host, "path", path, "err", err)
}
