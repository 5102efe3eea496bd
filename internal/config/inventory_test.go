package config

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/driveops/pitcrew/internal/launch"
)

func testConfig(t *testing.T) *Config {
	t.Helper()
	c, err := Load(filepath.Join(t.TempDir(), "config.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	return c
}

func TestLaunchSpecUnknownName(t *testing.T) {
	c := testConfig(t)
	if _, err := c.LaunchSpec("mystery"); err == nil {
		t.Fatalf("unknown process accepted")
	}
}

func TestLaunchSpecSimulatorNeedsExePath(t *testing.T) {
	c := testConfig(t)
	if _, err := c.LaunchSpec(launch.NameSimulator); err == nil {
		t.Fatalf("simulator without exe_path accepted")
	}
}

func TestLaunchSpecTraining(t *testing.T) {
	c := testConfig(t)
	repo := t.TempDir()
	c.Set("paths.repo_root", repo)

	spec, err := c.LaunchSpec(launch.NameTraining)
	if err != nil {
		t.Fatalf("training spec: %v", err)
	}
	joined := strings.Join(spec.Argv, " ")
	if !strings.Contains(joined, "--algo sac") || !strings.Contains(joined, "--env donkey-mountain-track-v0") {
		t.Fatalf("training argv missing config values: %s", joined)
	}
	if spec.Env["PYTHONPATH"] != repo {
		t.Fatalf("PYTHONPATH = %q, want %q", spec.Env["PYTHONPATH"], repo)
	}
	// Fresh logs dir predicts run 1.
	if spec.Env["RL_ZOO_RUN_ID"] != "donkey-mountain-track-v0_1" {
		t.Fatalf("predicted run id = %q", spec.Env["RL_ZOO_RUN_ID"])
	}
}

func TestLaunchSpecCollectEnablesRecording(t *testing.T) {
	c := testConfig(t)
	repo := t.TempDir()
	script := filepath.Join(repo, "scripts", "manual_drive.py")
	_ = os.MkdirAll(filepath.Dir(script), 0o755)
	if err := os.WriteFile(script, nil, 0o644); err != nil {
		t.Fatalf("write script: %v", err)
	}
	c.Set("paths.repo_root", repo)

	collect, err := c.LaunchSpec(launch.NameCollect)
	if err != nil {
		t.Fatalf("collect spec: %v", err)
	}
	if !slices.Contains(collect.Argv, "--record_dir") {
		t.Fatalf("collect must record: %v", collect.Argv)
	}

	drive, err := c.LaunchSpec(launch.NameDrive)
	if err != nil {
		t.Fatalf("drive spec: %v", err)
	}
	if slices.Contains(drive.Argv, "--record_dir") {
		t.Fatalf("plain drive must not record: %v", drive.Argv)
	}
}

func TestLaunchSpecTensorboard(t *testing.T) {
	c := testConfig(t)
	spec, err := c.LaunchSpec(launch.NameTensorboard)
	if err != nil {
		t.Fatalf("tensorboard spec: %v", err)
	}
	joined := strings.Join(spec.Argv, " ")
	if !strings.Contains(joined, "tensorboard.main") || !strings.Contains(joined, "--logdir /tmp/stable-baselines/") {
		t.Fatalf("tensorboard argv: %s", joined)
	}
}

func TestPredictRunID(t *testing.T) {
	repo := t.TempDir()
	env := "donkey-mountain-track-v0"

	if got := PredictRunID(repo, "sac", env); got != env+"_1" {
		t.Fatalf("empty logs: %q", got)
	}

	for _, n := range []string{env + "_1", env + "_3", "other-env_9"} {
		if err := os.MkdirAll(filepath.Join(repo, "logs", "sac", n), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
	}
	if got := PredictRunID(repo, "sac", env); got != env+"_4" {
		t.Fatalf("next run id = %q, want %s_4", got, env)
	}
}
