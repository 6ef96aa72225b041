package settings

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// PortFile returns the runtime file a running HayStack server may publish
// its port in: $XDG_RUNTIME_DIR/hscompose/port, or the temp dir when
// XDG_RUNTIME_DIR is unset.
func PortFile() string {
	dir := os.Getenv("XDG_RUNTIME_DIR")
	if dir == "" {
		dir = os.TempDir()
	}
	return filepath.Join(dir, appName, "port")
}

// PortOverride reports an externally configured hsBlender port, from
// HAYSTACK_PORT first and then PortFile. Missing or malformed values report
// false; it never fails.
func PortOverride() (int, bool) {
	if p, ok := parsePort(os.Getenv(EnvPort)); ok {
		return p, true
	}
	data, err := os.ReadFile(PortFile())
	if err != nil {
		return 0, false
	}
	return parsePort(string(data))
}

func parsePort(s string) (int, bool) {
	p, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || p <= 0 || p > 65535 {
		return 0, false
	}
	return p, true
}
