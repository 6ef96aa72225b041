package compile

import (
	"time"

	"github.com/google/uuid"
)

// Result describes one compile.
type Result struct {
	RunID      uuid.UUID     `json:"run_id"`
	Graph      string        `json:"graph"`
	Mode       Mode          `json:"mode"`
	Root       string        `json:"root"`                 // Node the compile started from
	Buffer     string        `json:"buffer"`               // Buffer name the command was written to
	Executable string        `json:"executable,omitempty"` // Resolved render executable, empty in node mode for non-render nodes
	Command    string        `json:"command"`
	Tokens     []string      `json:"tokens"`
	Visited    []string      `json:"visited"`             // Node IDs in emission order
	Materials  []string      `json:"materials,omitempty"` // Transfer-function material references
	Duration   time.Duration `json:"duration"`
}
