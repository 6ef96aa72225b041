package remote

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mitchellh/go-homedir"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"

	"github.com/braas-hpc/hscompose/pkg/cache"
	"github.com/braas-hpc/hscompose/pkg/errors"
	"github.com/braas-hpc/hscompose/pkg/observability"
	"github.com/braas-hpc/hscompose/pkg/settings"
)

// Runner runs a shell command on a cluster and returns its stdout.
type Runner interface {
	Run(ctx context.Context, preset settings.Cluster, command string) (string, error)
}

// DefaultDialTimeout bounds the TCP connect and SSH handshake.
const DefaultDialTimeout = 15 * time.Second

var defaultKeys = []string{"~/.ssh/id_ed25519", "~/.ssh/id_ecdsa", "~/.ssh/id_rsa"}

// SSHRunner runs commands over golang.org/x/crypto/ssh.
type SSHRunner struct {
	Logger      *log.Logger
	DialTimeout time.Duration

	mu      sync.Mutex
	clients map[string]*ssh.Client // by preset address and user
}

// NewSSHRunner returns a runner with no open connections.
func NewSSHRunner(logger *log.Logger) *SSHRunner {
	if logger == nil {
		logger = log.Default()
	}
	return &SSHRunner{
		Logger:      logger,
		DialTimeout: DefaultDialTimeout,
		clients:     make(map[string]*ssh.Client),
	}
}

func clientKey(c settings.Cluster) string { return c.User + "@" + c.Address() }

// Client returns the connection for preset c, dialing it on first use.
func (r *SSHRunner) Client(ctx context.Context, c settings.Cluster) (*ssh.Client, error) {
	if c.Host == "" {
		return nil, errors.New(errors.ErrCodeRemote, "cluster %q has no host", c.Name)
	}
	key := clientKey(c)

	r.mu.Lock()
	if cl, ok := r.clients[key]; ok {
		r.mu.Unlock()
		return cl, nil
	}
	r.mu.Unlock()

	var cl *ssh.Client
	err := cache.Backoff{Delay: time.Second}.Do(ctx, func() error {
		var err error
		cl, err = r.dial(c)
		return err
	})
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeRemote, err, "connect to %s", c.Address())
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.clients[key]; ok {
		cl.Close()
		return existing, nil
	}
	r.clients[key] = cl
	r.Logger.Debug("connected", "cluster", c.Name, "addr", c.Address())
	return cl, nil
}

func (r *SSHRunner) dial(c settings.Cluster) (*ssh.Client, error) {
	signer, err := loadSigner(c.KeyFile)
	if err != nil {
		return nil, err
	}
	hostKeys, err := hostKeyCallback(c.KnownHosts)
	if err != nil {
		return nil, err
	}
	user := c.User
	if user == "" {
		user = os.Getenv("USER")
	}
	timeout := r.DialTimeout
	if timeout <= 0 {
		timeout = DefaultDialTimeout
	}
	cfg := &ssh.ClientConfig{
		User:            user,
		Auth:            []ssh.AuthMethod{ssh.PublicKeys(signer)},
		HostKeyCallback: hostKeys,
		Timeout:         timeout,
	}
	cl, err := ssh.Dial("tcp", c.Address(), cfg)
	if err != nil {
		var netErr net.Error
		if stderrors.As(err, &netErr) {
			return nil, cache.Transient(fmt.Errorf("%w: %v", cache.ErrUnreachable, err))
		}
		return nil, err
	}
	return cl, nil
}

func loadSigner(keyFile string) (ssh.Signer, error) {
	candidates := defaultKeys
	if keyFile != "" {
		candidates = []string{keyFile}
	}
	var lastErr error
	for _, p := range candidates {
		path, err := homedir.Expand(p)
		if err != nil {
			return nil, err
		}
		key, err := os.ReadFile(path)
		if err != nil {
			lastErr = err
			continue
		}
		signer, err := ssh.ParsePrivateKey(key)
		if err != nil {
			return nil, fmt.Errorf("parse private key %s: %w", path, err)
		}
		return signer, nil
	}
	return nil, fmt.Errorf("no usable private key: %w", lastErr)
}

func hostKeyCallback(knownHosts string) (ssh.HostKeyCallback, error) {
	if knownHosts == "" {
		knownHosts = filepath.Join("~", ".ssh", "known_hosts")
	}
	path, err := homedir.Expand(knownHosts)
	if err != nil {
		return nil, err
	}
	cb, err := knownhosts.New(path)
	if err != nil {
		return nil, fmt.Errorf("known hosts %s: %w", path, err)
	}
	return cb, nil
}

// Run executes command in a new session and returns its trimmed stdout.
// Cancelling ctx closes the session.
func (r *SSHRunner) Run(ctx context.Context, c settings.Cluster, command string) (string, error) {
	hooks := observability.Remote()
	hooks.OnCommand(ctx, c.Host, command)
	start := time.Now()

	out, err := r.run(ctx, c, command)
	hooks.OnCommandComplete(ctx, c.Host, command, time.Since(start), err)
	return out, err
}

func (r *SSHRunner) run(ctx context.Context, c settings.Cluster, command string) (string, error) {
	cl, err := r.Client(ctx, c)
	if err != nil {
		return "", err
	}
	ses, err := cl.NewSession()
	if err != nil {
		r.drop(c)
		return "", errors.Wrap(errors.ErrCodeRemote, err, "open session on %s", c.Address())
	}
	defer ses.Close()

	var stdout, stderr bytes.Buffer
	ses.Stdout = &stdout
	ses.Stderr = &stderr

	done := make(chan error, 1)
	go func() { done <- ses.Run(command) }()
	select {
	case <-ctx.Done():
		_ = ses.Signal(ssh.SIGTERM)
		return "", ctx.Err()
	case err := <-done:
		if err != nil {
			msg := strings.TrimSpace(stderr.String())
			return stdout.String(), errors.Wrap(errors.ErrCodeRemote, err, "%s: %s", command, msg)
		}
	}
	return stdout.String(), nil
}

func (r *SSHRunner) drop(c settings.Cluster) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cl, ok := r.clients[clientKey(c)]; ok {
		cl.Close()
		delete(r.clients, clientKey(c))
	}
}

// Close closes every open connection.
func (r *SSHRunner) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	var first error
	for k, cl := range r.clients {
		if err := cl.Close(); err != nil && first == nil {
			first = err
		}
		delete(r.clients, k)
	}
	return first
}
