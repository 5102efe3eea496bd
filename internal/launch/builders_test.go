package launch

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
)

func TestSimulatorRequiresExecutable(t *testing.T) {
	if _, err := Simulator(SimulatorOptions{}); err == nil {
		t.Fatalf("missing exe path accepted")
	}
	if _, err := Simulator(SimulatorOptions{ExePath: "/no/such/sim"}); err == nil {
		t.Fatalf("nonexistent exe path accepted")
	}
}

func TestSimulatorArgv(t *testing.T) {
	dir := t.TempDir()
	exe := filepath.Join(dir, "donkey_sim")
	if err := os.WriteFile(exe, []byte("#!/bin/sh\n"), 0o755); err != nil {
		t.Fatalf("write exe: %v", err)
	}
	spec, err := Simulator(SimulatorOptions{
		ExePath:   exe,
		Port:      9091,
		Track:     "mountain_track",
		TimeScale: 4,
		Width:     640,
		Height:    480,
	})
	if err != nil {
		t.Fatalf("simulator: %v", err)
	}
	if spec.Dir != dir {
		t.Fatalf("workdir = %q, want exe dir %q", spec.Dir, dir)
	}
	want := []string{
		exe,
		"--port", "9091",
		"--track", "mountain_track",
		"--time_scale", "4",
		"-screen-width", "640",
		"-screen-height", "480",
		"-screen-fullscreen", "0",
	}
	if !slices.Equal(spec.Argv, want) {
		t.Fatalf("argv = %v, want %v", spec.Argv, want)
	}
}

func TestTrainingFallsBackToModuleExecution(t *testing.T) {
	root := t.TempDir() // no scripts/train.py here
	spec, err := Training(TrainingOptions{
		RepoRoot: root,
		Algo:     "sac",
		EnvName:  "donkey-mountain-track-v0",
	})
	if err != nil {
		t.Fatalf("training: %v", err)
	}
	if spec.Argv[0] != "python3" || spec.Argv[1] != "-m" || spec.Argv[2] != "rl_zoo3.train" {
		t.Fatalf("fallback argv = %v", spec.Argv[:3])
	}
}

func TestTrainingPrefersRepoScript(t *testing.T) {
	root := t.TempDir()
	script := filepath.Join(root, "scripts", "train.py")
	if err := os.MkdirAll(filepath.Dir(script), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(script, nil, 0o644); err != nil {
		t.Fatalf("write script: %v", err)
	}
	spec, err := Training(TrainingOptions{RepoRoot: root, Algo: "tqc", EnvName: "env"})
	if err != nil {
		t.Fatalf("training: %v", err)
	}
	if spec.Argv[1] != script {
		t.Fatalf("script not preferred: %v", spec.Argv[:2])
	}
}

func TestTrainingEnvKwargsAndEnvironment(t *testing.T) {
	root := t.TempDir()
	spec, err := Training(TrainingOptions{
		RepoRoot:    root,
		Algo:        "sac",
		EnvName:     "env",
		SteerLeft:   -0.6,
		SteerRight:  0.6,
		ThrottleMax: 0.5,
		AEPath:      "/models/ae.pkl",
		RunID:       "7",
	})
	if err != nil {
		t.Fatalf("training: %v", err)
	}
	joined := strings.Join(spec.Argv, " ")
	for _, want := range []string{
		"--env-kwargs steer_left:-0.6 steer_right:0.6 throttle_min:0 throttle_max:0.5",
	} {
		if !strings.Contains(joined, want) {
			t.Fatalf("argv missing %q: %s", want, joined)
		}
	}
	if spec.Env["PYTHONPATH"] != root || spec.Env["AAE_PATH"] != "/models/ae.pkl" || spec.Env["RL_ZOO_RUN_ID"] != "7" {
		t.Fatalf("environment not exported: %v", spec.Env)
	}
}

func TestTrainingWandBFlags(t *testing.T) {
	root := t.TempDir()
	spec, err := Training(TrainingOptions{
		RepoRoot:     root,
		Algo:         "sac",
		EnvName:      "env",
		WandB:        true,
		WandBEntity:  "team",
		WandBProject: "RL_race16",
	})
	if err != nil {
		t.Fatalf("training: %v", err)
	}
	joined := strings.Join(spec.Argv, " ")
	if !strings.Contains(joined, "--track --wandb-entity team --wandb-project-name RL_race16") {
		t.Fatalf("wandb flags missing: %s", joined)
	}
}

func TestDriveJoystickAxes(t *testing.T) {
	root := t.TempDir()
	script := filepath.Join(root, "scripts", "manual_drive.py")
	_ = os.MkdirAll(filepath.Dir(script), 0o755)
	if err := os.WriteFile(script, nil, 0o644); err != nil {
		t.Fatalf("write script: %v", err)
	}

	spec, err := Drive(DriveOptions{
		RepoRoot:      root,
		EnvName:       "env",
		InputMethod:   "joystick",
		SteeringAxis:  0,
		ThrottleAxis:  1,
		JoystickIndex: 2,
		Host:          "localhost",
		Port:          9091,
	})
	if err != nil {
		t.Fatalf("drive: %v", err)
	}
	joined := strings.Join(spec.Argv, " ")
	if !strings.Contains(joined, "--steering_axis 0 --throttle_axis 1 --joystick_index 2") {
		t.Fatalf("joystick axes missing: %s", joined)
	}

	spec, err = Drive(DriveOptions{RepoRoot: root, EnvName: "env", InputMethod: "keyboard", Host: "h", Port: 1})
	if err != nil {
		t.Fatalf("drive keyboard: %v", err)
	}
	if strings.Contains(strings.Join(spec.Argv, " "), "--steering_axis") {
		t.Fatalf("keyboard input got joystick axes")
	}
}

func TestDriveRecordDirRelativeToRepo(t *testing.T) {
	root := t.TempDir()
	script := filepath.Join(root, "scripts", "manual_drive.py")
	_ = os.MkdirAll(filepath.Dir(script), 0o755)
	_ = os.WriteFile(script, nil, 0o644)

	spec, err := Drive(DriveOptions{
		RepoRoot:    root,
		EnvName:     "env",
		Record:      true,
		RecordDir:   "collected_data",
		InputMethod: "keyboard",
		Host:        "h",
		Port:        1,
	})
	if err != nil {
		t.Fatalf("drive: %v", err)
	}
	want := filepath.Join(root, "collected_data")
	if !slices.Contains(spec.Argv, want) {
		t.Fatalf("record dir not resolved against repo root: %v", spec.Argv)
	}
}

func TestEnjoyCheckpointSelection(t *testing.T) {
	root := t.TempDir()
	spec, err := Enjoy(EnjoyOptions{RepoRoot: root, Algo: "sac", EnvName: "env", CheckpointStep: 30000, LoadBest: true})
	if err != nil {
		t.Fatalf("enjoy: %v", err)
	}
	joined := strings.Join(spec.Argv, " ")
	if !strings.Contains(joined, "--load-checkpoint 30000") {
		t.Fatalf("checkpoint step not selected: %s", joined)
	}
	if strings.Contains(joined, "--load-best") {
		t.Fatalf("checkpoint step must win over load-best: %s", joined)
	}

	spec, err = Enjoy(EnjoyOptions{RepoRoot: root, Algo: "sac", EnvName: "env", LoadBest: true})
	if err != nil {
		t.Fatalf("enjoy: %v", err)
	}
	if !slices.Contains(spec.Argv, "--load-best") {
		t.Fatalf("load-best not selected: %v", spec.Argv)
	}
}

func TestTensorboardDefaultPort(t *testing.T) {
	spec, err := Tensorboard(TensorboardOptions{LogDir: "/tmp/tb"})
	if err != nil {
		t.Fatalf("tensorboard: %v", err)
	}
	joined := strings.Join(spec.Argv, " ")
	if !strings.Contains(joined, "--port 6006") {
		t.Fatalf("default port missing: %s", joined)
	}
	if _, err := Tensorboard(TensorboardOptions{}); err == nil {
		t.Fatalf("missing logdir accepted")
	}
}

func TestInventoryNames(t *testing.T) {
	names := InventoryNames()
	for _, want := range []string{NameSimulator, NameCollect, NameTraining, NameDrive, NameEnjoy, NameAutoencoder, NameTensorboard} {
		if !slices.Contains(names, want) {
			t.Fatalf("inventory missing %q: %v", want, names)
		}
	}
}
