package observability

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Prometheus implements every hook interface on top of Prometheus
// collectors.
type Prometheus struct {
	compiles        *prometheus.CounterVec
	compileDuration *prometheus.HistogramVec
	compileTokens   *prometheus.GaugeVec
	bufferWrites    *prometheus.CounterVec
	bufferReads     *prometheus.CounterVec
	bufferBytes     *prometheus.GaugeVec
	remoteCommands  *prometheus.CounterVec
	remoteDuration  *prometheus.HistogramVec
	cacheEvents     *prometheus.CounterVec
}

// NewPrometheus creates the collectors and registers them with reg.
// A nil reg leaves the collectors unregistered.
func NewPrometheus(reg prometheus.Registerer) *Prometheus {
	p := &Prometheus{
		compiles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hscompose_compiles_total",
			Help: "Total number of graph compiles",
		}, []string{"mode", "status"}),
		compileDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "hscompose_compile_duration_seconds",
			Help:    "Duration of graph compiles",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
		}, []string{"mode"}),
		compileTokens: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "hscompose_compile_tokens",
			Help: "Token count of the last compile per graph",
		}, []string{"graph", "mode"}),
		bufferWrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hscompose_buffer_writes_total",
			Help: "Total number of command buffer writes",
		}, []string{"backend", "status"}),
		bufferReads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hscompose_buffer_reads_total",
			Help: "Total number of command buffer reads",
		}, []string{"backend", "status"}),
		bufferBytes: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "hscompose_buffer_bytes",
			Help: "Size of the last write per buffer",
		}, []string{"buffer"}),
		remoteCommands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hscompose_remote_commands_total",
			Help: "Total number of commands run on cluster hosts",
		}, []string{"host", "status"}),
		remoteDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name: "hscompose_remote_command_duration_seconds",
			Help: "Duration of commands run on cluster hosts",
		}, []string{"host"}),
		cacheEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hscompose_cache_events_total",
			Help: "Cache hits, misses and sets by key type",
		}, []string{"key_type", "event"}),
	}
	if reg != nil {
		reg.MustRegister(
			p.compiles, p.compileDuration, p.compileTokens,
			p.bufferWrites, p.bufferReads, p.bufferBytes,
			p.remoteCommands, p.remoteDuration, p.cacheEvents,
		)
	}
	return p
}

// Register installs p as the compile, buffer, remote and cache hooks.
func (p *Prometheus) Register() {
	SetCompileHooks(p)
	SetBufferHooks(p)
	SetRemoteHooks(p)
	SetCacheHooks(p)
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func (p *Prometheus) OnCompileStart(context.Context, string, string) {}

func (p *Prometheus) OnCompileComplete(_ context.Context, graph, mode string, tokens int, d time.Duration, err error) {
	p.compiles.WithLabelValues(mode, status(err)).Inc()
	p.compileDuration.WithLabelValues(mode).Observe(d.Seconds())
	if err == nil {
		p.compileTokens.WithLabelValues(graph, mode).Set(float64(tokens))
	}
}

func (p *Prometheus) OnBufferWrite(_ context.Context, backend, name string, size int, err error) {
	p.bufferWrites.WithLabelValues(backend, status(err)).Inc()
	if err == nil {
		p.bufferBytes.WithLabelValues(name).Set(float64(size))
	}
}

func (p *Prometheus) OnBufferRead(_ context.Context, backend, _ string, err error) {
	p.bufferReads.WithLabelValues(backend, status(err)).Inc()
}

func (p *Prometheus) OnCommand(context.Context, string, string) {}

func (p *Prometheus) OnCommandComplete(_ context.Context, host, _ string, d time.Duration, err error) {
	p.remoteCommands.WithLabelValues(host, status(err)).Inc()
	p.remoteDuration.WithLabelValues(host).Observe(d.Seconds())
}

func (p *Prometheus) OnCacheHit(_ context.Context, keyType string) {
	p.cacheEvents.WithLabelValues(keyType, "hit").Inc()
}

func (p *Prometheus) OnCacheMiss(_ context.Context, keyType string) {
	p.cacheEvents.WithLabelValues(keyType, "miss").Inc()
}

func (p *Prometheus) OnCacheSet(_ context.Context, keyType string, _ int) {
	p.cacheEvents.WithLabelValues(keyType, "set").Inc()
}
