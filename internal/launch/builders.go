package launch

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// Builders below reproduce the panel's command lines for each external
// program. They only assemble argv/workdir/env; the supervisor runs them.

// Canonical process names used by the panel's inventory.
const (
	NameSimulator   = "simulator"
	NameCollect     = "collect"
	NameTraining    = "training"
	NameDrive       = "drive"
	NameEnjoy       = "enjoy"
	NameAutoencoder = "autoencoder"
	NameTensorboard = "tensorboard"
)

// InventoryNames lists every process the panel knows how to launch or track.
func InventoryNames() []string {
	return []string{
		NameSimulator, NameCollect, NameTraining, NameDrive,
		NameEnjoy, NameAutoencoder, NameTensorboard,
	}
}

type SimulatorOptions struct {
	ExePath    string
	Port       int
	Track      string
	TimeScale  float64
	Width      int
	Height     int
	Fullscreen bool
}

// Simulator builds the game-engine simulator invocation. The working
// directory is the executable's own directory, which the simulator requires
// to find its data files.
func Simulator(o SimulatorOptions) (Spec, error) {
	if o.ExePath == "" {
		return Spec{}, errors.New("launch: simulator executable path not configured")
	}
	if _, err := os.Stat(o.ExePath); err != nil {
		return Spec{}, fmt.Errorf("launch: simulator executable: %w", err)
	}
	fullscreen := "0"
	if o.Fullscreen {
		fullscreen = "1"
	}
	return Spec{
		Argv: []string{
			o.ExePath,
			"--port", strconv.Itoa(o.Port),
			"--track", o.Track,
			"--time_scale", formatFloat(o.TimeScale),
			"-screen-width", strconv.Itoa(o.Width),
			"-screen-height", strconv.Itoa(o.Height),
			"-screen-fullscreen", fullscreen,
		},
		Dir: filepath.Dir(o.ExePath),
	}, nil
}

type TrainingOptions struct {
	Python         string
	RepoRoot       string
	Algo           string
	EnvName        string
	Timesteps      int
	SaveFreq       int
	EvalFreq       int
	TensorboardLog string
	SteerLeft      float64
	SteerRight     float64
	ThrottleMin    float64
	ThrottleMax    float64

	Checkpoint       string // resume from this model file when set
	SaveReplayBuffer bool
	WandB            bool
	WandBEntity      string
	WandBProject     string

	AEPath string // autoencoder weights, exported as AAE_PATH
	RunID  string // predicted rl_zoo3 run id, exported for highscore logging
}

// Training builds the RL training job. It prefers the repo's train script and
// falls back to module execution when the script is absent, matching the
// panel's behavior.
func Training(o TrainingOptions) (Spec, error) {
	if o.RepoRoot == "" {
		return Spec{}, errors.New("launch: repo root not configured")
	}
	script := filepath.Join(o.RepoRoot, "scripts", "train.py")
	var argv []string
	if _, err := os.Stat(script); err == nil {
		argv = []string{python(o.Python), script}
	} else {
		argv = []string{python(o.Python), "-m", "rl_zoo3.train"}
	}
	argv = append(argv,
		"--algo", o.Algo,
		"--env", o.EnvName,
		"-n", strconv.Itoa(o.Timesteps),
		"--save-freq", strconv.Itoa(o.SaveFreq),
		"--eval-freq", strconv.Itoa(o.EvalFreq),
		"--tensorboard-log", o.TensorboardLog,
		"--env-kwargs",
		fmt.Sprintf("steer_left:%s", formatFloat(o.SteerLeft)),
		fmt.Sprintf("steer_right:%s", formatFloat(o.SteerRight)),
		fmt.Sprintf("throttle_min:%s", formatFloat(o.ThrottleMin)),
		fmt.Sprintf("throttle_max:%s", formatFloat(o.ThrottleMax)),
	)
	if o.Checkpoint != "" {
		if _, err := os.Stat(o.Checkpoint); err == nil {
			argv = append(argv, "-i", o.Checkpoint)
		}
	}
	if o.SaveReplayBuffer {
		argv = append(argv, "--save-replay-buffer")
	}
	if o.WandB {
		argv = append(argv, "--track")
		if o.WandBEntity != "" {
			argv = append(argv, "--wandb-entity", o.WandBEntity)
		}
		argv = append(argv, "--wandb-project-name", o.WandBProject)
	}

	env := map[string]string{
		"PYTHONPATH":     o.RepoRoot,
		"RL_ZOO_LOG_DIR": filepath.Join(o.RepoRoot, "logs"),
	}
	if o.AEPath != "" {
		env["AAE_PATH"] = o.AEPath
	}
	if o.RunID != "" {
		env["RL_ZOO_RUN_ID"] = o.RunID
	}
	return Spec{Argv: argv, Dir: o.RepoRoot, Env: env}, nil
}

type DriveOptions struct {
	Python   string
	RepoRoot string
	EnvName  string

	Record    bool
	RecordDir string

	InputMethod   string
	SteeringAxis  int
	ThrottleAxis  int
	JoystickIndex int

	Host string
	Port int
}

// Drive builds the manual-drive session. Recording doubles as the panel's
// data-collection path.
func Drive(o DriveOptions) (Spec, error) {
	if o.RepoRoot == "" {
		return Spec{}, errors.New("launch: repo root not configured")
	}
	script := filepath.Join(o.RepoRoot, "scripts", "manual_drive.py")
	if _, err := os.Stat(script); err != nil {
		return Spec{}, fmt.Errorf("launch: manual drive script: %w", err)
	}
	argv := []string{python(o.Python), script, "--env_name", o.EnvName}
	if o.Record {
		dir := o.RecordDir
		if !filepath.IsAbs(dir) {
			dir = filepath.Join(o.RepoRoot, dir)
		}
		argv = append(argv, "--record_dir", dir)
	}
	argv = append(argv, "--input_method", o.InputMethod)
	if o.InputMethod == "joystick" {
		argv = append(argv,
			"--steering_axis", strconv.Itoa(o.SteeringAxis),
			"--throttle_axis", strconv.Itoa(o.ThrottleAxis),
			"--joystick_index", strconv.Itoa(o.JoystickIndex),
		)
	}
	argv = append(argv, "--host", o.Host, "--port", strconv.Itoa(o.Port))
	return Spec{
		Argv: argv,
		Dir:  o.RepoRoot,
		Env:  map[string]string{"PYTHONPATH": o.RepoRoot},
	}, nil
}

type EnjoyOptions struct {
	Python    string
	RepoRoot  string
	Algo      string
	EnvName   string
	ExpID     int
	Timesteps int

	// CheckpointStep selects a specific saved step; LoadBest selects
	// best_model.zip. With neither, the final model is loaded.
	CheckpointStep int
	LoadBest       bool
}

// Enjoy builds the agent-replay job over a recorded experiment.
func Enjoy(o EnjoyOptions) (Spec, error) {
	if o.RepoRoot == "" {
		return Spec{}, errors.New("launch: repo root not configured")
	}
	argv := []string{
		python(o.Python), "-m", "rl_zoo3.enjoy",
		"--algo", o.Algo,
		"--env", o.EnvName,
		"--folder", filepath.Join(o.RepoRoot, "logs"),
		"--exp-id", strconv.Itoa(o.ExpID),
		"-n", strconv.Itoa(o.Timesteps),
	}
	switch {
	case o.CheckpointStep > 0:
		argv = append(argv, "--load-checkpoint", strconv.Itoa(o.CheckpointStep))
	case o.LoadBest:
		argv = append(argv, "--load-best")
	}
	return Spec{
		Argv: argv,
		Dir:  o.RepoRoot,
		Env:  map[string]string{"PYTHONPATH": o.RepoRoot},
	}, nil
}

type AutoencoderOptions struct {
	Python    string
	RepoRoot  string
	Epochs    int
	BatchSize int
	ZSize     int
	ImagesDir string
}

// Autoencoder builds the autoencoder training job over collected images.
func Autoencoder(o AutoencoderOptions) (Spec, error) {
	if o.RepoRoot == "" {
		return Spec{}, errors.New("launch: repo root not configured")
	}
	if o.ImagesDir == "" {
		return Spec{}, errors.New("launch: images directory not configured")
	}
	return Spec{
		Argv: []string{
			python(o.Python), "-m", "ae.train_ae",
			"--n-epochs", strconv.Itoa(o.Epochs),
			"--batch-size", strconv.Itoa(o.BatchSize),
			"--z-size", strconv.Itoa(o.ZSize),
			"-f", o.ImagesDir,
		},
		Dir: o.RepoRoot,
		Env: map[string]string{"PYTHONPATH": o.RepoRoot},
	}, nil
}

type TensorboardOptions struct {
	Python string
	LogDir string
	Port   int
}

// Tensorboard builds the metrics dashboard server.
func Tensorboard(o TensorboardOptions) (Spec, error) {
	if o.LogDir == "" {
		return Spec{}, errors.New("launch: tensorboard logdir not configured")
	}
	port := o.Port
	if port <= 0 {
		port = 6006
	}
	return Spec{
		Argv: []string{
			python(o.Python), "-m", "tensorboard.main",
			"--logdir", o.LogDir,
			"--port", strconv.Itoa(port),
		},
	}, nil
}

func python(p string) string {
	if p == "" {
		return "python3"
	}
	return p
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
