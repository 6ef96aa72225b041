package watch

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"

	hsio "github.com/braas-hpc/hscompose/pkg/io"

	"github.com/braas-hpc/hscompose/pkg/graph"
)

// FileSource loads a graph document from disk on every call.
type FileSource string

// Load reads the document.
func (p FileSource) Load(context.Context) (*graph.Graph, error) {
	return hsio.ImportFile(string(p))
}

// WatchFile calls notify whenever the file at path is written, created or
// replaced. It watches the parent directory so editors that save by rename
// are seen. It returns when ctx is cancelled.
func WatchFile(ctx context.Context, path string, notify func(), logger *log.Logger) error {
	if logger == nil {
		logger = log.Default()
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				logger.Debug("graph changed", "path", abs, "op", event.Op)
				notify()
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch", "err", err)
		}
	}
}
