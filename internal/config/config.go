// Package config manages the panel's YAML configuration: dot-path access,
// round-trip save, defaults, and validation of the experiment inventory.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/viper"
)

// Config wraps a viper instance bound to one YAML file. Keys are addressed by
// dot-separated paths ("simulator.port"). Safe for concurrent use.
type Config struct {
	mu   sync.RWMutex
	v    *viper.Viper
	path string
	subs []func(key string, value any)
}

// Load reads the YAML file at path. A missing file is not an error; the
// returned Config then carries only defaults and can be saved later.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	setDefaults(v)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !os.IsNotExist(err) {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	}
	return &Config{v: v, path: path}, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("simulator.exe_path", "")
	v.SetDefault("simulator.host", "localhost")
	v.SetDefault("simulator.port", 9091)
	v.SetDefault("simulator.level", "mountain_track")
	v.SetDefault("simulator.width", 640)
	v.SetDefault("simulator.height", 480)
	v.SetDefault("simulator.fullscreen", false)
	v.SetDefault("simulator.time_scale", 4.0)

	v.SetDefault("environment.name", "donkey-mountain-track-v0")
	v.SetDefault("environment.steer_left", -0.6)
	v.SetDefault("environment.steer_right", 0.6)
	v.SetDefault("environment.throttle_min", 0.0)
	v.SetDefault("environment.throttle_max", 0.6)

	v.SetDefault("training.algo", "sac")
	v.SetDefault("training.timesteps", 100000)
	v.SetDefault("training.save_freq", 10000)
	v.SetDefault("training.eval_freq", 5000)
	v.SetDefault("training.tensorboard_log", "/tmp/stable-baselines/")
	v.SetDefault("training.hyperparams_file", "")
	v.SetDefault("training.checkpoint", "")
	v.SetDefault("training.save_replay_buffer", false)

	v.SetDefault("autoencoder.model_path", "")
	v.SetDefault("autoencoder.z_size", 32)
	v.SetDefault("autoencoder.epochs", 100)
	v.SetDefault("autoencoder.batch_size", 64)

	v.SetDefault("data_collection.output_dir", "./collected_data/")

	v.SetDefault("manual_drive.input_method", "keyboard")
	v.SetDefault("manual_drive.steering_axis", 0)
	v.SetDefault("manual_drive.throttle_axis", 1)
	v.SetDefault("manual_drive.joystick_index", 0)

	v.SetDefault("wandb.enabled", false)
	v.SetDefault("wandb.entity", "")
	v.SetDefault("wandb.project", "RL_race16")

	v.SetDefault("paths.repo_root", ".")
	v.SetDefault("paths.python", "python3")
	v.SetDefault("paths.logs_dir", "./logs/")
	v.SetDefault("paths.models_dir", "./logs/")

	v.SetDefault("server.listen", "127.0.0.1:8080")
	v.SetDefault("server.base_path", "/api")

	v.SetDefault("history.dsn", "")

	v.SetDefault("log.dir", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.color", true)
}

// Path returns the backing file path.
func (c *Config) Path() string { return c.path }

// Get returns the value at the dot-separated key path, or def when unset.
func (c *Config) Get(key string, def any) any {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.v.IsSet(key) {
		return def
	}
	return c.v.Get(key)
}

func (c *Config) GetString(key, def string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.v.IsSet(key) {
		return def
	}
	return c.v.GetString(key)
}

func (c *Config) GetInt(key string, def int) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.v.IsSet(key) {
		return def
	}
	return c.v.GetInt(key)
}

func (c *Config) GetFloat(key string, def float64) float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.v.IsSet(key) {
		return def
	}
	return c.v.GetFloat64(key)
}

func (c *Config) GetBool(key string, def bool) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.v.IsSet(key) {
		return def
	}
	return c.v.GetBool(key)
}

// Set assigns value at the key path and notifies change subscribers.
func (c *Config) Set(key string, value any) {
	c.mu.Lock()
	c.v.Set(key, value)
	subs := append([]func(string, any){}, c.subs...)
	c.mu.Unlock()
	for _, fn := range subs {
		fn(key, value)
	}
}

// Section returns one top-level section as a map; empty map when absent.
func (c *Config) Section(name string) map[string]any {
	c.mu.RLock()
	defer c.mu.RUnlock()
	m := c.v.GetStringMap(name)
	if m == nil {
		return map[string]any{}
	}
	return m
}

// OnChange registers fn to run after every Set.
func (c *Config) OnChange(fn func(key string, value any)) {
	c.mu.Lock()
	c.subs = append(c.subs, fn)
	c.mu.Unlock()
}

// Save writes the current configuration back to its file.
func (c *Config) Save() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if dir := filepath.Dir(c.path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return err
		}
	}
	return c.v.WriteConfigAs(c.path)
}

// Validate returns human-readable problems with the current values, mirroring
// the checks the panel applies before launching anything.
func (c *Config) Validate() []string {
	var errs []string
	if p := c.GetString("autoencoder.model_path", ""); p != "" {
		if fi, err := os.Stat(p); err != nil || fi.IsDir() {
			errs = append(errs, fmt.Sprintf("autoencoder model not found: %s", p))
		}
	}
	if p := c.GetString("training.hyperparams_file", ""); p != "" {
		if fi, err := os.Stat(p); err != nil || fi.IsDir() {
			errs = append(errs, fmt.Sprintf("hyperparams file not found: %s", p))
		}
	}
	if port := c.GetInt("simulator.port", 9091); port < 1 || port > 65535 {
		errs = append(errs, fmt.Sprintf("invalid port number: %d", port))
	}
	left := c.GetFloat("environment.steer_left", -0.6)
	right := c.GetFloat("environment.steer_right", 0.6)
	if left >= right {
		errs = append(errs, "steer_left must be less than steer_right")
	}
	return errs
}
