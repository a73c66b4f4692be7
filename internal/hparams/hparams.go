// Package hparams loads and validates experiment sheets: the flat YAML
// documents of hyperparameters consumed by an external training program. The
// layout follows the TD3 sheet: six top-level sections of scalar leaves.
package hparams

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is a complete experiment sheet.
type Config struct {
	Env          EnvConfig          `yaml:"env"`
	Collector    CollectorConfig    `yaml:"collector"`
	ReplayBuffer ReplayBufferConfig `yaml:"replay_buffer"`
	Optim        OptimConfig        `yaml:"optim"`
	Network      NetworkConfig      `yaml:"network"`
	Logger       LoggerConfig       `yaml:"logger"`
}

// EnvConfig names the simulation environment.
type EnvConfig struct {
	Name            string `yaml:"name"`
	Task            string `yaml:"task"`
	Library         string `yaml:"library"`
	MaxEpisodeSteps int    `yaml:"max_episode_steps"`
	Seed            int    `yaml:"seed"`
}

// CollectorConfig shapes the data collection loop.
type CollectorConfig struct {
	TotalFrames      int    `yaml:"total_frames"`
	InitRandomFrames int    `yaml:"init_random_frames"`
	FramesPerBatch   int    `yaml:"frames_per_batch"`
	ResetAtEachIter  bool   `yaml:"reset_at_each_iter"`
	Device           string `yaml:"device"`
	EnvPerCollector  int    `yaml:"env_per_collector"`
	NumWorkers       int    `yaml:"num_workers"`
}

// ReplayBufferConfig shapes the transition store.
type ReplayBufferConfig struct {
	Size        int    `yaml:"size"`
	Prioritized bool   `yaml:"prb"`
	ScratchDir  string `yaml:"scratch_dir"`
}

// OptimConfig holds the optimizer and update-rule hyperparameters.
type OptimConfig struct {
	UTDRatio           float64 `yaml:"utd_ratio"`
	Gamma              float64 `yaml:"gamma"`
	LossFunction       string  `yaml:"loss_function"`
	LR                 float64 `yaml:"lr"`
	WeightDecay        float64 `yaml:"weight_decay"`
	BatchSize          int     `yaml:"batch_size"`
	TargetUpdatePolyak float64 `yaml:"target_update_polyak"`
	PolicyUpdateDelay  int     `yaml:"policy_update_delay"`
	PolicyNoise        float64 `yaml:"policy_noise"`
	NoiseClip          float64 `yaml:"noise_clip"`
}

// NetworkConfig shapes the actor and critic networks.
type NetworkConfig struct {
	HiddenSizes []int  `yaml:"hidden_sizes"`
	Activation  string `yaml:"activation"`
	Device      string `yaml:"device"`
}

// LoggerConfig selects the experiment tracking backend.
type LoggerConfig struct {
	Backend  string `yaml:"backend"`
	Mode     string `yaml:"mode"`
	ExpName  string `yaml:"exp_name"`
	EvalIter int    `yaml:"eval_iter"`
	Video    bool   `yaml:"video"`
}

// Default returns a sheet populated with the stock TD3 hyperparameters.
// Loading overlays the file's values on top of these.
func Default() Config {
	return Config{
		Env: EnvConfig{
			Name:            "HalfCheetah-v4",
			Library:         "gym",
			MaxEpisodeSteps: 1000,
			Seed:            42,
		},
		Collector: CollectorConfig{
			TotalFrames:      1_000_000,
			InitRandomFrames: 25_000,
			FramesPerBatch:   1000,
			Device:           "cpu",
			EnvPerCollector:  1,
			NumWorkers:       1,
		},
		ReplayBuffer: ReplayBufferConfig{
			Size: 1_000_000,
		},
		Optim: OptimConfig{
			UTDRatio:           1.0,
			Gamma:              0.99,
			LossFunction:       "l2",
			LR:                 3.0e-4,
			BatchSize:          256,
			TargetUpdatePolyak: 0.995,
			PolicyUpdateDelay:  2,
			PolicyNoise:        0.2,
			NoiseClip:          0.5,
		},
		Network: NetworkConfig{
			HiddenSizes: []int{256, 256},
			Activation:  "relu",
		},
		Logger: LoggerConfig{
			Backend:  "wandb",
			Mode:     "online",
			ExpName:  "td3",
			EvalIter: 25_000,
		},
	}
}

// Load reads an experiment sheet from disk.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading experiment sheet '%s': %w", path, err)
	}
	cfg, err := Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("experiment sheet '%s': %w", path, err)
	}
	return cfg, nil
}

// Parse decodes an experiment sheet, overlaying the document on the defaults.
// Unknown keys are rejected so a typoed hyperparameter cannot silently fall
// back to its default.
func Parse(raw []byte) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the cross-field constraints a training run depends on.
// All violations are collected and reported together.
func (c *Config) Validate() error {
	var errs []string
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Sprintf(format, args...))
		}
	}

	check(c.Env.Name != "", "env.name must not be empty")
	check(c.Collector.TotalFrames > 0, "collector.total_frames must be positive, got %d", c.Collector.TotalFrames)
	check(c.Collector.FramesPerBatch > 0, "collector.frames_per_batch must be positive, got %d", c.Collector.FramesPerBatch)
	check(c.Collector.InitRandomFrames >= 0, "collector.init_random_frames must not be negative, got %d", c.Collector.InitRandomFrames)
	check(c.Collector.EnvPerCollector > 0, "collector.env_per_collector must be positive, got %d", c.Collector.EnvPerCollector)
	check(c.ReplayBuffer.Size > 0, "replay_buffer.size must be positive, got %d", c.ReplayBuffer.Size)
	check(c.Optim.LR > 0, "optim.lr must be positive, got %g", c.Optim.LR)
	check(c.Optim.BatchSize > 0, "optim.batch_size must be positive, got %d", c.Optim.BatchSize)
	check(c.Optim.BatchSize <= c.ReplayBuffer.Size, "optim.batch_size (%d) must not exceed replay_buffer.size (%d)", c.Optim.BatchSize, c.ReplayBuffer.Size)
	check(c.Optim.PolicyUpdateDelay >= 1, "optim.policy_update_delay must be at least 1, got %d", c.Optim.PolicyUpdateDelay)
	check(c.Optim.Gamma > 0 && c.Optim.Gamma <= 1, "optim.gamma must be in (0, 1], got %g", c.Optim.Gamma)
	check(c.Optim.TargetUpdatePolyak > 0 && c.Optim.TargetUpdatePolyak < 1, "optim.target_update_polyak must be in (0, 1), got %g", c.Optim.TargetUpdatePolyak)
	check(len(c.Network.HiddenSizes) > 0, "network.hidden_sizes must not be empty")
	for i, size := range c.Network.HiddenSizes {
		check(size > 0, "network.hidden_sizes[%d] must be positive, got %d", i, size)
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid experiment sheet:\n- %s", strings.Join(errs, "\n- "))
	}
	return nil
}
