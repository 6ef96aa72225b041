package node

import (
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"github.com/mitchellh/go-homedir"
)

// PathPolicy selects between a node's local and remote path fields.
// In remote mode the remote string is used verbatim; otherwise the local path
// is made absolute. Neither branch checks that the path exists.
type PathPolicy struct {
	// Remote selects the remote path fields.
	Remote bool

	// BaseDir anchors "//"-prefixed and relative local paths, normally the
	// directory of the graph document. Empty means the working directory.
	BaseDir string

	// EscapeDrives rewrites Windows drive prefixes ("C:") as "C$" in
	// compiled commands; HayStack's URI parser treats ':' as a separator.
	EscapeDrives bool
}

// DefaultPathPolicy returns a local-mode policy with drive escaping enabled
// on Windows.
func DefaultPathPolicy() PathPolicy {
	return PathPolicy{EscapeDrives: runtime.GOOS == "windows"}
}

// Resolve returns the path to emit for a (local, remote) field pair.
func (p PathPolicy) Resolve(local, remote string) string {
	if p.Remote {
		return remote
	}
	return p.abs(local)
}

func (p PathPolicy) abs(path string) string {
	if path == "" {
		return ""
	}
	if rel, ok := strings.CutPrefix(path, "//"); ok {
		path = filepath.Join(p.baseDir(), rel)
	}
	if expanded, err := homedir.Expand(path); err == nil {
		path = expanded
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(p.baseDir(), path)
	}
	return filepath.Clean(path)
}

func (p PathPolicy) baseDir() string {
	if p.BaseDir != "" {
		return p.BaseDir
	}
	if wd, err := filepath.Abs("."); err == nil {
		return wd
	}
	return "."
}

var (
	driveAfterCount = regexp.MustCompile(`@([a-zA-Z]):`)
	driveAfterSlash = regexp.MustCompile(`/([a-zA-Z]):`)
)

// EscapeDrive rewrites "@C:" as "@C$" and "/C:" as "/C$" so Windows paths
// survive HayStack's ':'-delimited loader syntax.
func EscapeDrive(s string) string {
	s = driveAfterCount.ReplaceAllString(s, "@$1$$")
	return driveAfterSlash.ReplaceAllString(s, "/$1$$")
}
