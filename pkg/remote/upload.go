package remote

import (
	"bytes"
	"context"
	"time"

	"github.com/bramvdbogaerde/go-scp"
	"github.com/charmbracelet/log"

	"github.com/braas-hpc/hscompose/pkg/errors"
	"github.com/braas-hpc/hscompose/pkg/observability"
	"github.com/braas-hpc/hscompose/pkg/settings"
)

// Uploader copies compiled command buffers to a cluster.
type Uploader struct {
	Runner *SSHRunner
	Logger *log.Logger
}

// NewUploader shares r's connections.
func NewUploader(r *SSHRunner, logger *log.Logger) *Uploader {
	if logger == nil {
		logger = log.Default()
	}
	return &Uploader{Runner: r, Logger: logger}
}

// Push writes content to dir/name on the cluster and returns the remote
// path.
func (u *Uploader) Push(ctx context.Context, preset settings.Cluster, dir, name string, content []byte) (string, error) {
	if dir == "" {
		dir = preset.RemoteDir
	}
	if dir == "" {
		return "", errors.New(errors.ErrCodeInvalidInput, "no remote directory for cluster %q", preset.Name)
	}
	if err := errors.ValidateRemotePath(dir); err != nil {
		return "", err
	}
	target := joinRemote(dir, name)

	hooks := observability.Remote()
	cmd := "scp -t " + target
	hooks.OnCommand(ctx, preset.Host, cmd)
	start := time.Now()
	err := u.copy(ctx, preset, target, content)
	hooks.OnCommandComplete(ctx, preset.Host, cmd, time.Since(start), err)
	if err != nil {
		return "", err
	}
	u.Logger.Info("pushed", "cluster", preset.Name, "path", target, "bytes", len(content))
	return target, nil
}

func (u *Uploader) copy(ctx context.Context, preset settings.Cluster, target string, content []byte) error {
	cl, err := u.Runner.Client(ctx, preset)
	if err != nil {
		return err
	}
	scl, err := scp.NewClientBySSH(cl)
	if err != nil {
		return errors.Wrap(errors.ErrCodeRemote, err, "scp session")
	}
	defer scl.Close()
	if err := scl.CopyPassThru(ctx, bytes.NewReader(content), target, "0644", int64(len(content)), nil); err != nil {
		return errors.Wrap(errors.ErrCodeRemote, err, "copy to %s", target)
	}
	return nil
}
