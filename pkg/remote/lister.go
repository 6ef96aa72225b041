package remote

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/braas-hpc/hscompose/pkg/cache"
	"github.com/braas-hpc/hscompose/pkg/errors"
	"github.com/braas-hpc/hscompose/pkg/observability"
	"github.com/braas-hpc/hscompose/pkg/settings"
)

// Up is the parent-directory entry that heads every listing.
const Up = ".."

// Entry is one line of a remote listing. Directory names keep the trailing
// "/" that ls -p appends.
type Entry struct {
	Name string `json:"name"`
	Dir  bool   `json:"dir"`
}

// Lister lists remote directories through a Runner.
type Lister struct {
	Runner Runner
	Cache  cache.Cache // nil disables caching
	TTL    time.Duration
	Logger *log.Logger
}

// NewLister returns a lister caching results for cache.ListingTTL.
func NewLister(r Runner, c cache.Cache, logger *log.Logger) *Lister {
	if logger == nil {
		logger = log.Default()
	}
	return &Lister{Runner: r, Cache: c, TTL: cache.ListingTTL, Logger: logger}
}

// List returns ".." followed by the directories then the files in dir.
// Only an unusable dir is an error; failed remote commands just leave
// their half of the listing empty.
func (l *Lister) List(ctx context.Context, preset settings.Cluster, dir string) ([]Entry, error) {
	if err := errors.ValidateRemotePath(dir); err != nil {
		return nil, err
	}

	key := cache.ListingKey(preset.Name, dir)
	if entries, ok := l.cached(ctx, key); ok {
		return entries, nil
	}

	var dirs, files []string
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		dirs = l.lines(gctx, preset, listCommand(dir, true))
		return nil
	})
	g.Go(func() error {
		files = l.lines(gctx, preset, listCommand(dir, false))
		return nil
	})
	_ = g.Wait()

	entries := make([]Entry, 0, 1+len(dirs)+len(files))
	entries = append(entries, Entry{Name: Up, Dir: true})
	for _, d := range dirs {
		entries = append(entries, Entry{Name: d, Dir: true})
	}
	for _, f := range files {
		entries = append(entries, Entry{Name: f})
	}

	l.store(ctx, key, entries)
	return entries, nil
}

// Invalidate drops the cached listing of dir.
func (l *Lister) Invalidate(ctx context.Context, preset settings.Cluster, dir string) {
	if l.Cache != nil {
		_ = l.Cache.Delete(ctx, cache.ListingKey(preset.Name, dir))
	}
}

// listCommand builds the ls pipeline. dir has passed ValidateRemotePath,
// so it contains no single quotes and "~" only as a leading home prefix.
func listCommand(dir string, dirs bool) string {
	filter := "grep -v /"
	if dirs {
		filter = "grep -e /"
	}
	return "ls -p " + shellDir(dir) + " | " + filter
}

// shellDir single-quotes dir, leaving a leading "~/" outside the quotes so
// the remote shell expands it.
func shellDir(dir string) string {
	if dir == "~" {
		return "~/"
	}
	if rest, ok := strings.CutPrefix(dir, "~/"); ok {
		if rest == "" {
			return "~/"
		}
		return "~/'" + rest + "'"
	}
	return "'" + dir + "'"
}

func (l *Lister) lines(ctx context.Context, preset settings.Cluster, command string) []string {
	out, err := l.Runner.Run(ctx, preset, command)
	if err != nil {
		l.logger().Debug("listing failed", "cluster", preset.Name, "cmd", command, "err", err)
		return nil
	}
	var lines []string
	for _, line := range strings.Split(out, "\n") {
		if line = strings.TrimRight(line, "\r"); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

func (l *Lister) cached(ctx context.Context, key string) ([]Entry, bool) {
	if l.Cache == nil {
		return nil, false
	}
	hooks := observability.Cache()
	data, ok, err := l.Cache.Get(ctx, key)
	if err != nil || !ok {
		hooks.OnCacheMiss(ctx, cache.KeyType(key))
		return nil, false
	}
	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		hooks.OnCacheMiss(ctx, cache.KeyType(key))
		return nil, false
	}
	hooks.OnCacheHit(ctx, cache.KeyType(key))
	return entries, true
}

func (l *Lister) store(ctx context.Context, key string, entries []Entry) {
	if l.Cache == nil {
		return
	}
	data, err := json.Marshal(entries)
	if err != nil {
		return
	}
	if err := l.Cache.Set(ctx, key, data, l.TTL); err != nil {
		l.logger().Debug("cache listing", "err", err)
		return
	}
	observability.Cache().OnCacheSet(ctx, cache.KeyType(key), len(data))
}

func (l *Lister) logger() *log.Logger {
	if l.Logger == nil {
		return log.Default()
	}
	return l.Logger
}
