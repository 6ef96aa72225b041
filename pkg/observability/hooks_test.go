package observability

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNoopHooksDoNotPanic(t *testing.T) {
	ctx := context.Background()

	c := NoopCompileHooks{}
	c.OnCompileStart(ctx, "scene", "tree")
	c.OnCompileComplete(ctx, "scene", "tree", 12, time.Millisecond, nil)

	b := NoopBufferHooks{}
	b.OnBufferWrite(ctx, "file", "scene_command_tree.cmd", 64, nil)
	b.OnBufferRead(ctx, "file", "scene_command_tree.cmd", nil)

	r := NoopRemoteHooks{}
	r.OnCommand(ctx, "login.cluster", "ls -p /scratch")
	r.OnCommandComplete(ctx, "login.cluster", "ls -p /scratch", time.Second, nil)

	ch := NoopCacheHooks{}
	ch.OnCacheHit(ctx, "listing")
	ch.OnCacheMiss(ctx, "listing")
	ch.OnCacheSet(ctx, "listing", 1024)
}

func TestGlobalHooksRegistry(t *testing.T) {
	Reset()

	if _, ok := Compile().(NoopCompileHooks); !ok {
		t.Error("Compile() should return NoopCompileHooks by default")
	}
	if _, ok := Buffer().(NoopBufferHooks); !ok {
		t.Error("Buffer() should return NoopBufferHooks by default")
	}
	if _, ok := Remote().(NoopRemoteHooks); !ok {
		t.Error("Remote() should return NoopRemoteHooks by default")
	}
	if _, ok := Cache().(NoopCacheHooks); !ok {
		t.Error("Cache() should return NoopCacheHooks by default")
	}

	customCompile := &testCompileHooks{}
	SetCompileHooks(customCompile)
	if Compile() != customCompile {
		t.Error("SetCompileHooks should set custom hooks")
	}

	customBuffer := &testBufferHooks{}
	SetBufferHooks(customBuffer)
	if Buffer() != customBuffer {
		t.Error("SetBufferHooks should set custom hooks")
	}

	Reset()
	if _, ok := Compile().(NoopCompileHooks); !ok {
		t.Error("Reset() should restore NoopCompileHooks")
	}
}

func TestSetNilHooksIsIgnored(t *testing.T) {
	Reset()

	custom := &testCompileHooks{}
	SetCompileHooks(custom)
	SetCompileHooks(nil)

	if Compile() != custom {
		t.Error("SetCompileHooks(nil) should be ignored")
	}

	Reset()
}

func TestPrometheusHooks(t *testing.T) {
	reg := prometheus.NewRegistry()
	p := NewPrometheus(reg)
	ctx := context.Background()

	p.OnCompileComplete(ctx, "scene", "tree", 14, time.Millisecond, nil)
	p.OnCompileComplete(ctx, "scene", "tree", 0, time.Millisecond, errors.New("no root"))
	p.OnBufferWrite(ctx, "memory", "scene_command_tree.cmd", 80, nil)
	p.OnCacheHit(ctx, "listing")
	p.OnCacheHit(ctx, "listing")

	if got := testutil.ToFloat64(p.compiles.WithLabelValues("tree", "ok")); got != 1 {
		t.Errorf("ok compiles = %v, want 1", got)
	}
	if got := testutil.ToFloat64(p.compiles.WithLabelValues("tree", "error")); got != 1 {
		t.Errorf("failed compiles = %v, want 1", got)
	}
	if got := testutil.ToFloat64(p.compileTokens.WithLabelValues("scene", "tree")); got != 14 {
		t.Errorf("tokens gauge = %v, want 14", got)
	}
	if got := testutil.ToFloat64(p.bufferBytes.WithLabelValues("scene_command_tree.cmd")); got != 80 {
		t.Errorf("buffer bytes = %v, want 80", got)
	}
	if got := testutil.ToFloat64(p.cacheEvents.WithLabelValues("listing", "hit")); got != 2 {
		t.Errorf("cache hits = %v, want 2", got)
	}
}

func TestPrometheusRegister(t *testing.T) {
	defer Reset()
	p := NewPrometheus(nil)
	p.Register()
	if Compile() != CompileHooks(p) || Remote() != RemoteHooks(p) {
		t.Error("Register should install p for every hook category")
	}
}

type testCompileHooks struct{ NoopCompileHooks }
type testBufferHooks struct{ NoopBufferHooks }
