// Package watch recompiles a graph on a timer and on demand.
//
// A [Loop] reloads the graph from its [Source] on every tick and compiles
// it. After a tick the loop sleeps for [Loop.Interval] when the graph had
// something to compile, or [Loop.FallbackInterval] when it did not (no
// active node in node mode, no render target in tree mode). [Loop.Request]
// forces an immediate tick; [WatchFile] wires file changes to it.
//
// Each tick starts from scratch and its buffer write replaces the previous
// one, so a slow tick is simply superseded by the next.
package watch

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/braas-hpc/hscompose/pkg/compile"
	"github.com/braas-hpc/hscompose/pkg/graph"
	"github.com/braas-hpc/hscompose/pkg/node"
)

// DefaultFallbackInterval is used when nothing is compilable.
const DefaultFallbackInterval = time.Second

// Source loads the current graph.
type Source interface {
	Load(ctx context.Context) (*graph.Graph, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context) (*graph.Graph, error)

// Load calls f.
func (f SourceFunc) Load(ctx context.Context) (*graph.Graph, error) { return f(ctx) }

// Loop drives repeated compiles.
type Loop struct {
	Compiler         *compile.Compiler
	Source           Source
	Mode             compile.Mode  // ModeNode (default) or ModeTree
	Interval         time.Duration // 1s / frequency
	FallbackInterval time.Duration
	Logger           *log.Logger

	// OnResult, when set, is called after every tick that compiled.
	OnResult func(*compile.Result, error)

	requests chan struct{}
}

// New creates a loop compiling the graphs loaded from src every interval.
func New(c *compile.Compiler, src Source, interval time.Duration) *Loop {
	return &Loop{
		Compiler:         c,
		Source:           src,
		Mode:             compile.ModeNode,
		Interval:         interval,
		FallbackInterval: DefaultFallbackInterval,
		requests:         make(chan struct{}, 1),
	}
}

// IntervalFromFrequency converts ticks per second to a tick interval.
// Non-positive frequencies yield 0.
func IntervalFromFrequency(hz float64) time.Duration {
	if hz <= 0 {
		return 0
	}
	return time.Duration(float64(time.Second) / hz)
}

func (l *Loop) logger() *log.Logger {
	if l.Logger == nil {
		return log.Default()
	}
	return l.Logger
}

func (l *Loop) fallback() time.Duration {
	if l.FallbackInterval > 0 {
		return l.FallbackInterval
	}
	return DefaultFallbackInterval
}

// Request asks for an immediate tick. It never blocks; requests made while
// one is pending are merged.
func (l *Loop) Request() {
	if l.requests == nil {
		return
	}
	select {
	case l.requests <- struct{}{}:
	default:
	}
}

// Run ticks until ctx is cancelled. The first tick happens immediately.
func (l *Loop) Run(ctx context.Context) error {
	if l.requests == nil {
		l.requests = make(chan struct{}, 1)
	}
	l.logger().Info("watching", "mode", l.Mode, "interval", l.Interval)

	timer := time.NewTimer(0)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		case <-l.requests:
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
		}
		timer.Reset(l.Tick(ctx))
	}
}

// Tick reloads and compiles the graph once and returns the delay before the
// next tick.
func (l *Loop) Tick(ctx context.Context) time.Duration {
	g, err := l.Source.Load(ctx)
	if err != nil {
		l.logger().Warn("load graph", "err", err)
		return l.fallback()
	}
	if !l.compilable(g) {
		l.logger().Debug("nothing to compile", "graph", g.Name(), "mode", l.Mode)
		return l.fallback()
	}

	res, err := l.Compiler.Compile(ctx, g, l.mode(), "")
	if l.OnResult != nil {
		l.OnResult(res, err)
	}
	if l.Interval <= 0 {
		return l.fallback()
	}
	return l.Interval
}

func (l *Loop) mode() compile.Mode {
	if l.Mode == "" {
		return compile.ModeNode
	}
	return l.Mode
}

// compilable reports whether g has a focused node (node mode) or a root
// (tree mode).
func (l *Loop) compilable(g *graph.Graph) bool {
	if l.mode() == compile.ModeTree {
		_, err := compile.FindRoot(g)
		return err == nil
	}
	n, ok := g.Node(g.Active())
	return ok && node.HasFragment(n.Kind)
}
