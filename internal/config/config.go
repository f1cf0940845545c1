package config

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/gridflow/internal/grid"
	"github.com/san-kum/gridflow/internal/powerflow"
)

const (
	DefaultTolerance      = 1e-5
	DefaultMaxIters       = 1000
	DefaultBackend        = "sparse"
	DefaultLimiter        = "step"
	DefaultMaxVoltageStep = 0.1
	DefaultMaxQStep       = 0.5
	DefaultDataDir        = ".gridflow"
)

type Config struct {
	Case    string       `yaml:"case"`
	BaseMVA float64      `yaml:"base_mva"`
	Solver  SolverConfig `yaml:"solver"`
	DataDir string       `yaml:"data_dir"`
}

type SolverConfig struct {
	Tolerance      float64 `yaml:"tolerance"`
	MaxIters       int     `yaml:"max_iters"`
	EnableLimiting bool    `yaml:"enable_limiting"`
	FlatStart      bool    `yaml:"flat_start"`
	Backend        string  `yaml:"backend"`
	Limiter        string  `yaml:"limiter"`
	MaxVoltageStep float64 `yaml:"max_voltage_step"`
	MaxQStep       float64 `yaml:"max_q_step"`
}

func DefaultConfig() *Config {
	return &Config{
		BaseMVA: grid.DefaultBaseMVA,
		Solver: SolverConfig{
			Tolerance:      DefaultTolerance,
			MaxIters:       DefaultMaxIters,
			Backend:        DefaultBackend,
			Limiter:        DefaultLimiter,
			MaxVoltageStep: DefaultMaxVoltageStep,
			MaxQStep:       DefaultMaxQStep,
		},
		DataDir: DefaultDataDir,
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// PowerFlow returns the driver settings.
func (c *Config) PowerFlow() powerflow.Config {
	return powerflow.Config{
		Tolerance:      c.Solver.Tolerance,
		MaxIters:       c.Solver.MaxIters,
		EnableLimiting: c.Solver.EnableLimiting,
		FlatStart:      c.Solver.FlatStart,
	}
}

func (c *Config) Base() grid.Base {
	return grid.Base{MVA: c.BaseMVA}
}

func (c *Config) LimiterParams() map[string]float64 {
	return map[string]float64{
		"max_voltage_step": c.Solver.MaxVoltageStep,
		"max_q_step":       c.Solver.MaxQStep,
	}
}
