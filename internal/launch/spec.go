package launch

import (
	"errors"
	"sort"
	"strings"
)

// Spec describes one external program invocation. The supervisor passes it to
// process creation without interpreting it.
type Spec struct {
	// Argv is the executable and its arguments. Must be non-empty.
	Argv []string `json:"argv"`
	// Dir is an optional working directory override.
	Dir string `json:"dir,omitempty"`
	// Env holds optional environment overrides applied on top of the
	// caller's environment.
	Env map[string]string `json:"env,omitempty"`
}

var ErrEmptyCommand = errors.New("launch: empty command")

// Validate checks that the spec names an executable.
func (s Spec) Validate() error {
	if len(s.Argv) == 0 || strings.TrimSpace(s.Argv[0]) == "" {
		return ErrEmptyCommand
	}
	return nil
}

// CommandLine renders the argv for diagnostics.
func (s Spec) CommandLine() string {
	return strings.Join(s.Argv, " ")
}

// Environ merges s.Env over base ("KEY=VALUE" entries, typically os.Environ).
// A nil Env returns nil so process creation inherits the parent environment.
func (s Spec) Environ(base []string) []string {
	if len(s.Env) == 0 {
		return nil
	}
	merged := make(map[string]string, len(base)+len(s.Env))
	for _, kv := range base {
		if i := strings.IndexByte(kv, '='); i >= 0 {
			merged[kv[:i]] = kv[i+1:]
		}
	}
	for k, v := range s.Env {
		merged[k] = v
	}
	keys := make([]string, 0, len(merged))
	for k := range merged {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, k+"="+merged[k])
	}
	return out
}
