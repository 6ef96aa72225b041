package buffer

import (
	"context"
	"fmt"
	"time"

	"github.com/braas-hpc/hscompose/pkg/errors"
	"github.com/braas-hpc/hscompose/pkg/observability"
)

// Backend names accepted by Open.
const (
	BackendFile   = "file"
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendMongo  = "mongo"
)

// Config selects and configures a buffer backend.
type Config struct {
	Backend       string `toml:"backend"`
	Dir           string `toml:"dir"`
	RedisAddr     string `toml:"redis_addr"`
	RedisPassword string `toml:"redis_password"`
	RedisDB       int    `toml:"redis_db"`
	MongoURI      string `toml:"mongo_uri"`
	MongoDatabase string `toml:"mongo_database"`
}

// DefaultConfig returns a file-backed configuration using DefaultDir.
func DefaultConfig() Config {
	return Config{
		Backend:       BackendFile,
		RedisAddr:     "localhost:6379",
		MongoURI:      "mongodb://localhost:27017",
		MongoDatabase: "hscompose",
	}
}

// Open creates the store named by cfg.Backend, instrumented with the
// registered buffer hooks. An empty backend means file.
func Open(ctx context.Context, cfg Config) (Store, error) {
	var (
		s   Store
		err error
	)
	backend := cfg.Backend
	switch backend {
	case "", BackendFile:
		backend = BackendFile
		s, err = NewFileStore(cfg.Dir)
	case BackendMemory:
		s = NewMemoryStore()
	case BackendRedis:
		rs := NewRedisStore(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err = rs.Ping(pctx); err != nil {
			rs.Close()
		}
		s = rs
	case BackendMongo:
		s, err = NewMongoStore(ctx, cfg.MongoURI, cfg.MongoDatabase, "")
	default:
		return nil, errors.New(errors.ErrCodeInvalidInput,
			"unknown buffer backend %q (want file, memory, redis or mongo)", cfg.Backend)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeBuffer, err, "open %s buffer store", backend)
	}
	return Instrument(backend, s), nil
}

// Instrument wraps s so reads and writes are reported to
// observability.Buffer() under the given backend label.
func Instrument(backend string, s Store) Store {
	return &instrumented{Store: s, backend: backend}
}

type instrumented struct {
	Store
	backend string
}

func (i *instrumented) Write(ctx context.Context, name string, content []byte) error {
	err := i.Store.Write(ctx, name, content)
	observability.Buffer().OnBufferWrite(ctx, i.backend, name, len(content), err)
	return err
}

func (i *instrumented) Read(ctx context.Context, name string) ([]byte, error) {
	b, err := i.Store.Read(ctx, name)
	observability.Buffer().OnBufferRead(ctx, i.backend, name, err)
	return b, err
}

// Unwrap returns the underlying store.
func (i *instrumented) Unwrap() Store { return i.Store }

// Describe returns a short human-readable location for s, such as the
// directory of a FileStore.
func Describe(s Store) string {
	if u, ok := s.(interface{ Unwrap() Store }); ok {
		s = u.Unwrap()
	}
	switch st := s.(type) {
	case *FileStore:
		return st.Path()
	case *RedisStore:
		return fmt.Sprintf("redis %s", st.client.Options().Addr)
	case *MongoStore:
		return fmt.Sprintf("mongo %s.%s", st.coll.Database().Name(), st.coll.Name())
	case *MemoryStore:
		return "memory"
	}
	return fmt.Sprintf("%T", s)
}
