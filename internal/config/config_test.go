package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	c, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := c.GetInt("simulator.port", 0); got != 9091 {
		t.Fatalf("default port = %d, want 9091", got)
	}
	if got := c.GetString("environment.name", ""); got != "donkey-mountain-track-v0" {
		t.Fatalf("default env = %q", got)
	}
	if got := c.GetString("training.algo", ""); got != "sac" {
		t.Fatalf("default algo = %q", got)
	}
}

func TestLoadReadsFileOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "simulator:\n  port: 9999\ntraining:\n  algo: tqc\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	c, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := c.GetInt("simulator.port", 0); got != 9999 {
		t.Fatalf("port = %d, want 9999", got)
	}
	if got := c.GetString("training.algo", ""); got != "tqc" {
		t.Fatalf("algo = %q, want tqc", got)
	}
	// Untouched keys keep their defaults.
	if got := c.GetInt("simulator.width", 0); got != 640 {
		t.Fatalf("width = %d, want 640", got)
	}
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte(":\n  - ["), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("malformed yaml accepted")
	}
}

func TestSetNotifiesSubscribers(t *testing.T) {
	c, err := Load(filepath.Join(t.TempDir(), "c.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	var gotKey string
	var gotVal any
	c.OnChange(func(key string, value any) {
		gotKey, gotVal = key, value
	})
	c.Set("training.timesteps", 50000)
	if gotKey != "training.timesteps" || gotVal != 50000 {
		t.Fatalf("subscriber saw %q=%v", gotKey, gotVal)
	}
	if c.GetInt("training.timesteps", 0) != 50000 {
		t.Fatalf("set value not readable")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.yaml")
	c, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	c.Set("simulator.port", 7777)
	if err := c.Save(); err != nil {
		t.Fatalf("save: %v", err)
	}

	again, err := Load(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got := again.GetInt("simulator.port", 0); got != 7777 {
		t.Fatalf("reloaded port = %d, want 7777", got)
	}
}

func TestSectionReturnsMap(t *testing.T) {
	c, err := Load(filepath.Join(t.TempDir(), "c.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	sec := c.Section("simulator")
	if sec["port"] == nil {
		t.Fatalf("simulator section missing port: %v", sec)
	}
	if got := c.Section("no_such_section"); len(got) != 0 {
		t.Fatalf("absent section = %v, want empty", got)
	}
}

func TestValidateFlagsProblems(t *testing.T) {
	c, err := Load(filepath.Join(t.TempDir(), "c.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	c.Set("simulator.port", 99999)
	c.Set("environment.steer_left", 0.5)
	c.Set("environment.steer_right", -0.5)
	c.Set("autoencoder.model_path", "/no/such/ae.pkl")

	problems := strings.Join(c.Validate(), "\n")
	for _, want := range []string{"invalid port", "steer_left", "autoencoder model not found"} {
		if !strings.Contains(problems, want) {
			t.Fatalf("validation missing %q:\n%s", want, problems)
		}
	}
}

func TestValidateCleanConfig(t *testing.T) {
	c, err := Load(filepath.Join(t.TempDir(), "c.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if problems := c.Validate(); len(problems) != 0 {
		t.Fatalf("defaults flagged as invalid: %v", problems)
	}
}
