// Package observability provides hooks for metrics, tracing, and logging.
//
// This package enables optional instrumentation without adding hard dependencies
// on specific observability backends. Consumers register hooks at startup
// to receive events about compiles, buffer writes, remote commands and the
// remote listing cache.
//
// # Architecture
//
// The package uses a simple hooks pattern:
//   - Define hook interfaces for different event categories
//   - Provide no-op default implementations
//   - Allow registration of custom implementations at startup
//
// Hooks are registered by main, not by libraries, so library packages stay
// free of any metrics backend. [Prometheus] is the bundled implementation.
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    p := observability.NewPrometheus(prometheus.DefaultRegisterer)
//	    observability.SetCompileHooks(p)
//	    observability.SetBufferHooks(p)
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Compile().OnCompileStart(ctx, graphName, "tree")
//	// ... compile ...
//	observability.Compile().OnCompileComplete(ctx, graphName, "tree", len(tokens), duration, err)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Compile Hooks
// =============================================================================

// CompileHooks receives events from the graph compiler.
type CompileHooks interface {
	// OnCompileStart fires before a compile of graph in the given mode
	// ("tree" or "node").
	OnCompileStart(ctx context.Context, graph, mode string)

	// OnCompileComplete fires after a compile, successful or not.
	OnCompileComplete(ctx context.Context, graph, mode string, tokens int, duration time.Duration, err error)
}

// =============================================================================
// Buffer Hooks
// =============================================================================

// BufferHooks receives events from command buffer stores.
type BufferHooks interface {
	// OnBufferWrite records a buffer write.
	OnBufferWrite(ctx context.Context, backend, name string, size int, err error)

	// OnBufferRead records a buffer read.
	OnBufferRead(ctx context.Context, backend, name string, err error)
}

// =============================================================================
// Remote Hooks
// =============================================================================

// RemoteHooks receives events from commands run on cluster presets.
type RemoteHooks interface {
	// OnCommand records a command sent to a host.
	OnCommand(ctx context.Context, host, command string)

	// OnCommandComplete records the outcome of a remote command.
	OnCommandComplete(ctx context.Context, host, command string, duration time.Duration, err error)
}

// =============================================================================
// Cache Hooks
// =============================================================================

// CacheHooks receives events from cache operations.
type CacheHooks interface {
	// OnCacheHit records a cache hit.
	OnCacheHit(ctx context.Context, keyType string)

	// OnCacheMiss records a cache miss.
	OnCacheMiss(ctx context.Context, keyType string)

	// OnCacheSet records a cache write.
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopCompileHooks is a no-op implementation of CompileHooks.
type NoopCompileHooks struct{}

func (NoopCompileHooks) OnCompileStart(context.Context, string, string) {}
func (NoopCompileHooks) OnCompileComplete(context.Context, string, string, int, time.Duration, error) {
}

// NoopBufferHooks is a no-op implementation of BufferHooks.
type NoopBufferHooks struct{}

func (NoopBufferHooks) OnBufferWrite(context.Context, string, string, int, error) {}
func (NoopBufferHooks) OnBufferRead(context.Context, string, string, error)       {}

// NoopRemoteHooks is a no-op implementation of RemoteHooks.
type NoopRemoteHooks struct{}

func (NoopRemoteHooks) OnCommand(context.Context, string, string)                               {}
func (NoopRemoteHooks) OnCommandComplete(context.Context, string, string, time.Duration, error) {}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	compileHooks CompileHooks = NoopCompileHooks{}
	bufferHooks  BufferHooks  = NoopBufferHooks{}
	remoteHooks  RemoteHooks  = NoopRemoteHooks{}
	cacheHooks   CacheHooks   = NoopCacheHooks{}
	hooksMu      sync.RWMutex
)

// SetCompileHooks registers custom compile hooks.
// This should be called once at application startup before any compile.
func SetCompileHooks(h CompileHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		compileHooks = h
	}
}

// SetBufferHooks registers custom buffer hooks.
func SetBufferHooks(h BufferHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		bufferHooks = h
	}
}

// SetRemoteHooks registers custom remote hooks.
func SetRemoteHooks(h RemoteHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		remoteHooks = h
	}
}

// SetCacheHooks registers custom cache hooks.
// This should be called once at application startup before any cache operations.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

// Compile returns the registered compile hooks.
func Compile() CompileHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return compileHooks
}

// Buffer returns the registered buffer hooks.
func Buffer() BufferHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return bufferHooks
}

// Remote returns the registered remote hooks.
func Remote() RemoteHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return remoteHooks
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	compileHooks = NoopCompileHooks{}
	bufferHooks = NoopBufferHooks{}
	remoteHooks = NoopRemoteHooks{}
	cacheHooks = NoopCacheHooks{}
}
