package testutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/adrg/xdg"
)

// Environment holds the directories an isolated test runs with
type Environment struct {
	ConfigHome string
	StateHome  string
}

// Isolate points the XDG config and state homes at temporary directories
// and removes every DOPATCH_* variable for the duration of the test.
func Isolate(t *testing.T) Environment {
	t.Helper()
	root := t.TempDir()
	env := Environment{
		ConfigHome: filepath.Join(root, "config"),
		StateHome:  filepath.Join(root, "state"),
	}

	for _, kv := range os.Environ() {
		key, _, _ := strings.Cut(kv, "=")
		if strings.HasPrefix(key, "DOPATCH_") {
			t.Setenv(key, "")
			if err := os.Unsetenv(key); err != nil {
				t.Fatalf("unset %s: %v", key, err)
			}
		}
	}

	t.Setenv("XDG_CONFIG_HOME", env.ConfigHome)
	t.Setenv("XDG_STATE_HOME", env.StateHome)
	xdg.Reload()
	t.Cleanup(xdg.Reload)
	return env
}
