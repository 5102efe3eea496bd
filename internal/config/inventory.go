package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/driveops/pitcrew/internal/launch"
)

// LaunchSpec assembles the launch specification for a named inventory
// process from the current configuration. Unknown names are an error; the
// registry itself accepts any name, but the panel only knows how to build
// commands for its inventory.
func (c *Config) LaunchSpec(name string) (launch.Spec, error) {
	switch name {
	case launch.NameSimulator:
		return launch.Simulator(c.simulatorOptions())
	case launch.NameTraining:
		return launch.Training(c.trainingOptions())
	case launch.NameDrive, launch.NameCollect:
		// Data collection is the drive session with recording enabled.
		o := c.driveOptions()
		if name == launch.NameCollect {
			o.Record = true
		}
		return launch.Drive(o)
	case launch.NameEnjoy:
		return launch.Enjoy(c.enjoyOptions())
	case launch.NameAutoencoder:
		return launch.Autoencoder(c.autoencoderOptions())
	case launch.NameTensorboard:
		return launch.Tensorboard(c.tensorboardOptions())
	default:
		return launch.Spec{}, fmt.Errorf("config: unknown process %q", name)
	}
}

func (c *Config) simulatorOptions() launch.SimulatorOptions {
	return launch.SimulatorOptions{
		ExePath:    c.GetString("simulator.exe_path", ""),
		Port:       c.GetInt("simulator.port", 9091),
		Track:      c.GetString("simulator.level", "mountain_track"),
		TimeScale:  c.GetFloat("simulator.time_scale", 4.0),
		Width:      c.GetInt("simulator.width", 640),
		Height:     c.GetInt("simulator.height", 480),
		Fullscreen: c.GetBool("simulator.fullscreen", false),
	}
}

func (c *Config) trainingOptions() launch.TrainingOptions {
	repo := c.repoRoot()
	algo := c.GetString("training.algo", "sac")
	envName := c.GetString("environment.name", "donkey-mountain-track-v0")
	return launch.TrainingOptions{
		Python:           c.GetString("paths.python", "python3"),
		RepoRoot:         repo,
		Algo:             algo,
		EnvName:          envName,
		Timesteps:        c.GetInt("training.timesteps", 100000),
		SaveFreq:         c.GetInt("training.save_freq", 10000),
		EvalFreq:         c.GetInt("training.eval_freq", 5000),
		TensorboardLog:   c.GetString("training.tensorboard_log", "/tmp/stable-baselines/"),
		SteerLeft:        c.GetFloat("environment.steer_left", -0.6),
		SteerRight:       c.GetFloat("environment.steer_right", 0.6),
		ThrottleMin:      c.GetFloat("environment.throttle_min", 0.0),
		ThrottleMax:      c.GetFloat("environment.throttle_max", 0.6),
		Checkpoint:       c.GetString("training.checkpoint", ""),
		SaveReplayBuffer: c.GetBool("training.save_replay_buffer", false),
		WandB:            c.GetBool("wandb.enabled", false),
		WandBEntity:      c.GetString("wandb.entity", ""),
		WandBProject:     c.GetString("wandb.project", "RL_race16"),
		AEPath:           c.GetString("autoencoder.model_path", ""),
		RunID:            PredictRunID(repo, algo, envName),
	}
}

func (c *Config) driveOptions() launch.DriveOptions {
	return launch.DriveOptions{
		Python:        c.GetString("paths.python", "python3"),
		RepoRoot:      c.repoRoot(),
		EnvName:       c.GetString("environment.name", "donkey-mountain-track-v0"),
		Record:        c.GetBool("data_collection.record", false),
		RecordDir:     c.GetString("data_collection.output_dir", "./collected_data/"),
		InputMethod:   c.GetString("manual_drive.input_method", "keyboard"),
		SteeringAxis:  c.GetInt("manual_drive.steering_axis", 0),
		ThrottleAxis:  c.GetInt("manual_drive.throttle_axis", 1),
		JoystickIndex: c.GetInt("manual_drive.joystick_index", 0),
		Host:          c.GetString("simulator.host", "127.0.0.1"),
		Port:          c.GetInt("simulator.port", 9091),
	}
}

func (c *Config) enjoyOptions() launch.EnjoyOptions {
	return launch.EnjoyOptions{
		Python:         c.GetString("paths.python", "python3"),
		RepoRoot:       c.repoRoot(),
		Algo:           c.GetString("training.algo", "sac"),
		EnvName:        c.GetString("environment.name", "donkey-mountain-track-v0"),
		ExpID:          c.GetInt("enjoy.exp_id", 0),
		Timesteps:      c.GetInt("enjoy.timesteps", 5000),
		CheckpointStep: c.GetInt("enjoy.checkpoint_step", 0),
		LoadBest:       c.GetBool("enjoy.load_best", false),
	}
}

func (c *Config) autoencoderOptions() launch.AutoencoderOptions {
	out := c.GetString("data_collection.output_dir", "./collected_data/")
	return launch.AutoencoderOptions{
		Python:    c.GetString("paths.python", "python3"),
		RepoRoot:  c.repoRoot(),
		Epochs:    c.GetInt("autoencoder.epochs", 100),
		BatchSize: c.GetInt("autoencoder.batch_size", 64),
		ZSize:     c.GetInt("autoencoder.z_size", 32),
		ImagesDir: filepath.Join(out, "images"),
	}
}

func (c *Config) tensorboardOptions() launch.TensorboardOptions {
	return launch.TensorboardOptions{
		Python: c.GetString("paths.python", "python3"),
		LogDir: c.GetString("training.tensorboard_log", "/tmp/stable-baselines/"),
		Port:   c.GetInt("monitor.tensorboard_port", 6006),
	}
}

func (c *Config) repoRoot() string {
	root := c.GetString("paths.repo_root", ".")
	if abs, err := filepath.Abs(root); err == nil {
		return abs
	}
	return root
}

// PredictRunID guesses the run folder name the training job will create
// (env_name_N with the next free N under logs/<algo>), so highscore rows can
// be attributed to the run before the trainer prints anything.
func PredictRunID(repoRoot, algo, envName string) string {
	logPath := filepath.Join(repoRoot, "logs", algo)
	entries, err := os.ReadDir(logPath)
	if err != nil {
		return fmt.Sprintf("%s_1", envName)
	}
	maxID := 0
	for _, e := range entries {
		name := e.Name()
		if !strings.HasPrefix(name, envName) || !strings.Contains(name, "_") {
			continue
		}
		last := name[strings.LastIndexByte(name, '_')+1:]
		if n, err := strconv.Atoi(last); err == nil && n > maxID {
			maxID = n
		}
	}
	return fmt.Sprintf("%s_%d", envName, maxID+1)
}
