package cache

import (
	"context"
	"time"
)

// NullCache disables listing reuse: every remote ls goes to the cluster.
// The CLI installs it for --no-cache and when no cache directory can be
// located.
type NullCache struct{}

func NewNullCache() *NullCache { return &NullCache{} }

// Get reports a miss for every key.
func (NullCache) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }

func (NullCache) Set(context.Context, string, []byte, time.Duration) error { return nil }
func (NullCache) Delete(context.Context, string) error                     { return nil }
func (NullCache) Close() error                                             { return nil }

var _ Cache = NullCache{}
