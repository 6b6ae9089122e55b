package observability

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
)

// LogHooks implements every hook interface by logging at debug level.
type LogHooks struct {
	logger *log.Logger
}

// NewLogHooks returns hooks that log to logger, or to the default logger
// when logger is nil.
func NewLogHooks(logger *log.Logger) *LogHooks {
	if logger == nil {
		logger = log.Default()
	}
	return &LogHooks{logger: logger.WithPrefix("obs")}
}

// Install registers h for all hook kinds.
func (h *LogHooks) Install() {
	SetPipelineHooks(h)
	SetCacheHooks(h)
	SetHTTPHooks(h)
}

func (h *LogHooks) OnNormalize(_ context.Context, format string, nodeCount int, d time.Duration, err error) {
	if err != nil {
		h.logger.Debug("normalize failed", "format", format, "error", err)
		return
	}
	h.logger.Debug("normalized", "format", format, "nodes", nodeCount, "duration", d)
}

func (h *LogHooks) OnEnrichStart(_ context.Context, n int) {
	h.logger.Debug("enrich start", "elements", n)
}

func (h *LogHooks) OnEnrichComplete(_ context.Context, requested, failed int, d time.Duration) {
	h.logger.Debug("enrich done", "requests", requested, "failed", failed, "duration", d)
}

func (h *LogHooks) OnEnrichStale(_ context.Context, gen, current uint64) {
	h.logger.Debug("enrich stale", "generation", gen, "current", current)
}

func (h *LogHooks) OnTransform(_ context.Context, n int, isDAG bool, d time.Duration) {
	h.logger.Debug("transform", "elements", n, "dag", isDAG, "duration", d)
}

func (h *LogHooks) OnRenderStart(_ context.Context, formats []string) {
	h.logger.Debug("render start", "formats", formats)
}

func (h *LogHooks) OnRenderComplete(_ context.Context, formats []string, d time.Duration, err error) {
	h.logger.Debug("render done", "formats", formats, "duration", d, "error", err)
}

func (h *LogHooks) OnCacheHit(_ context.Context, keyType string) {
	h.logger.Debug("cache hit", "kind", keyType)
}

func (h *LogHooks) OnCacheMiss(_ context.Context, keyType string) {
	h.logger.Debug("cache miss", "kind", keyType)
}

func (h *LogHooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.logger.Debug("cache set", "kind", keyType, "bytes", size)
}

func (h *LogHooks) OnRequest(_ context.Context, method, host, path string) {
	h.logger.Debug("request", "method", method, "host", host, "path", path)
}

func (h *LogHooks) OnResponse(_ context.Context, method, host, path string, status int, d time.Duration) {
	h.logger.Debug("response", "method", method, "path", path, "status", status, "duration", d)
}

func (h *LogHooks) OnError(_ context.Context, method, host, path string, err error) {
	h.logger.Debug("request failed", "method", method, "host", host, "path", path, "error", err)
}

var (
	_ PipelineHooks = (*LogHooks)(nil)
	_ CacheHooks    = (*LogHooks)(nil)
	_ HTTPHooks     = (*LogHooks)(nil)
)
