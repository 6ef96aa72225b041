package node

import (
	"os"
	"path/filepath"
	"testing"
)

func TestPathPolicyResolve(t *testing.T) {
	base := t.TempDir()
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}

	tests := []struct {
		name   string
		policy PathPolicy
		local  string
		remote string
		want   string
	}{
		{"remote mode uses remote verbatim", PathPolicy{Remote: true}, "/local/a", "/scratch/a", "/scratch/a"},
		{"remote mode keeps empty", PathPolicy{Remote: true}, "/local/a", "", ""},
		{"absolute local", PathPolicy{}, "/data/model.umesh", "/scratch/x", "/data/model.umesh"},
		{"empty local", PathPolicy{BaseDir: base}, "", "/scratch/x", ""},
		{"blend relative", PathPolicy{BaseDir: base}, "//models/a.obj", "", filepath.Join(base, "models", "a.obj")},
		{"plain relative", PathPolicy{BaseDir: base}, "models/a.obj", "", filepath.Join(base, "models", "a.obj")},
		{"home", PathPolicy{}, "~/a.obj", "", filepath.Join(home, "a.obj")},
		{"cleaned", PathPolicy{}, "/data/./x/../model.umesh", "", "/data/model.umesh"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.policy.Resolve(tt.local, tt.remote); got != tt.want {
				t.Errorf("Resolve(%q, %q) = %q, want %q", tt.local, tt.remote, got, tt.want)
			}
		})
	}
}

func TestEscapeDrive(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"raw://4@C:/data/vol.raw:format=float", "raw://4@C$/data/vol.raw:format=float"},
		{"-xf /D:/tf/a.xf", "-xf /D$/tf/a.xf"},
		{"spheres://1@/data/p.p4:format=xyz", "spheres://1@/data/p.p4:format=xyz"},
		{"nvdb:///e:/vol.nvdb", "nvdb:///e$/vol.nvdb"},
	}
	for _, tt := range tests {
		if got := EscapeDrive(tt.in); got != tt.want {
			t.Errorf("EscapeDrive(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
