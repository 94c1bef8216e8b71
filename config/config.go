// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all simulation configuration parameters.
type Config struct {
	Screen    ScreenConfig    `yaml:"screen"`
	World     WorldConfig     `yaml:"world"`
	Particles ParticlesConfig `yaml:"particles"`
	Physics   PhysicsConfig   `yaml:"physics"`
	Matrix    MatrixConfig    `yaml:"matrix"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Stream    StreamConfig    `yaml:"stream"`
	Viewer    ViewerConfig    `yaml:"viewer"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// ScreenConfig holds display settings.
type ScreenConfig struct {
	Width     int `yaml:"width"`
	Height    int `yaml:"height"`
	TargetFPS int `yaml:"target_fps"`
}

// WorldConfig holds the simulation domain dimensions.
// The domain is the cube [-size/2, size/2]^3 centered at the origin.
type WorldConfig struct {
	Size float64 `yaml:"size"`
}

// ParticlesConfig holds population parameters.
type ParticlesConfig struct {
	Count int `yaml:"count"`
	Types int `yaml:"types"`
}

// PhysicsConfig holds the force and integration parameters.
type PhysicsConfig struct {
	EffectRadius     float64   `yaml:"effect_radius"`      // interaction cutoff; also the grid cell size
	ForceScale       float64   `yaml:"force_scale"`        // global multiplier on net force
	Beta             float64   `yaml:"beta"`               // normalized distance below which force is purely repulsive
	FrictionHalfTime float64   `yaml:"friction_half_time"` // damping; decay = 0.5^(1/half_time)
	DT               float64   `yaml:"dt"`                 // seconds per tick
	Gravity          []float64 `yaml:"gravity"`            // constant acceleration [x, y, z]; empty = none
	SolidWalls       bool      `yaml:"solid_walls"`        // true = reflect at the boundary instead of wrapping
}

// MatrixConfig optionally pins the attraction matrix. Empty rows mean a
// random matrix is generated per run from the seed.
type MatrixConfig struct {
	Rows [][]float64 `yaml:"rows"`
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	StatsWindow         float64 `yaml:"stats_window"`
	PerfCollectorWindow int     `yaml:"perf_collector_window"`
}

// StreamConfig holds the websocket snapshot feed settings.
type StreamConfig struct {
	Addr string `yaml:"addr"` // listen address, e.g. ":8080"; empty = disabled
}

// ViewerConfig holds 3D viewer settings.
type ViewerConfig struct {
	ParticleRadius float64 `yaml:"particle_radius"`
	ShowGrid       bool    `yaml:"show_grid"`
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	DT32       float32   // Physics.DT as float32
	WorldSize  float32   // World.Size as float32
	Gravity    []float32 // Physics.Gravity as float32, always length 3
	FlatMatrix []float32 // Matrix.Rows flattened row-major; nil if unset
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults
// if path is empty. Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load loads configuration from a YAML file, merging with embedded
// defaults, then validates it. If path is empty, only embedded defaults
// are used.
func Load(path string) (*Config, error) {
	// Start with embedded defaults
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	// Load user config if provided
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	cfg.computeDerived()

	return cfg, nil
}

// Validate checks the configuration contracts the core relies on. A
// violation here is a caller bug; main treats it as fatal rather than
// clamping, since a bad world/radius ratio silently corrupts the
// neighbor search.
func (c *Config) Validate() error {
	if c.Physics.EffectRadius <= 0 {
		return fmt.Errorf("physics.effect_radius must be positive, got %v", c.Physics.EffectRadius)
	}
	if c.World.Size < 2*c.Physics.EffectRadius {
		return fmt.Errorf("world.size (%v) must be at least twice physics.effect_radius (%v)", c.World.Size, c.Physics.EffectRadius)
	}
	if c.Particles.Count < 0 {
		return fmt.Errorf("particles.count must be non-negative, got %d", c.Particles.Count)
	}
	if c.Particles.Types < 1 {
		return fmt.Errorf("particles.types must be at least 1, got %d", c.Particles.Types)
	}
	if c.Physics.Beta <= 0 || c.Physics.Beta >= 1 {
		return fmt.Errorf("physics.beta must be in (0, 1), got %v", c.Physics.Beta)
	}
	if c.Physics.FrictionHalfTime <= 0 {
		return fmt.Errorf("physics.friction_half_time must be positive, got %v", c.Physics.FrictionHalfTime)
	}
	if c.Physics.DT <= 0 {
		return fmt.Errorf("physics.dt must be positive, got %v", c.Physics.DT)
	}
	if n := len(c.Physics.Gravity); n != 0 && n != 3 {
		return fmt.Errorf("physics.gravity must have 3 components, got %d", n)
	}
	if rows := c.Matrix.Rows; len(rows) != 0 {
		if len(rows) != c.Particles.Types {
			return fmt.Errorf("matrix.rows has %d rows, want %d (particles.types)", len(rows), c.Particles.Types)
		}
		for i, row := range rows {
			if len(row) != c.Particles.Types {
				return fmt.Errorf("matrix.rows[%d] has %d entries, want %d", i, len(row), c.Particles.Types)
			}
		}
	}
	return nil
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	c.Derived.DT32 = float32(c.Physics.DT)
	c.Derived.WorldSize = float32(c.World.Size)

	c.Derived.Gravity = make([]float32, 3)
	for i, g := range c.Physics.Gravity {
		c.Derived.Gravity[i] = float32(g)
	}

	if len(c.Matrix.Rows) > 0 {
		flat := make([]float32, 0, c.Particles.Types*c.Particles.Types)
		for _, row := range c.Matrix.Rows {
			for _, v := range row {
				flat = append(flat, float32(v))
			}
		}
		c.Derived.FlatMatrix = flat
	} else {
		c.Derived.FlatMatrix = nil
	}
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
