package config

var Presets = map[string]*SolverConfig{
	"reference": {
		Tolerance: 1e-5, MaxIters: 1000, Backend: "sparse",
	},
	"flat": {
		Tolerance: 1e-5, MaxIters: 1000, FlatStart: true, Backend: "sparse",
	},
	"robust": {
		Tolerance: 1e-5, MaxIters: 200, FlatStart: true, EnableLimiting: true, Backend: "sparse",
		Limiter: "step", MaxVoltageStep: 0.05, MaxQStep: 0.2,
	},
	"strict": {
		Tolerance: 1e-9, MaxIters: 100, Backend: "sparse",
	},
	"dense": {
		Tolerance: 1e-5, MaxIters: 1000, Backend: "dense",
	},
}

func GetPreset(name string) *SolverConfig {
	p, ok := Presets[name]
	if !ok {
		return nil
	}
	return p
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	return names
}

// Apply copies the preset onto c, keeping c's limiter settings when the
// preset leaves them unset.
func (p *SolverConfig) Apply(c *Config) {
	next := *p
	if next.Limiter == "" {
		next.Limiter = c.Solver.Limiter
	}
	if next.MaxVoltageStep == 0 {
		next.MaxVoltageStep = c.Solver.MaxVoltageStep
	}
	if next.MaxQStep == 0 {
		next.MaxQStep = c.Solver.MaxQStep
	}
	c.Solver = next
}
