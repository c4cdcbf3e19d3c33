package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultGravity      = 1000.0
	DefaultIterations   = 20
	DefaultStepHz       = 60
	DefaultMaxSpeed     = 6000.0
	DefaultFPS          = 60
	DefaultRestitution  = 0.2
	DefaultFriction     = 0.5
	DefaultAirFriction  = 0.05
	DefaultDensity      = 0.002
	DefaultChamferRatio = 0.1
	DefaultMaxTilt      = 0.05
	DefaultForceRadius  = 500.0
	DefaultImpulse      = 13000.0
	DefaultArmDelay     = 50 * time.Millisecond
	DefaultMinSize      = 5.0
	DefaultThickness    = 1000.0
	DefaultTransition   = time.Second
	DefaultPageSize     = 16
)

// DefaultColliderSelector picks individual visible text, icon and rule
// elements while skipping the layout wrappers around them.
const DefaultColliderSelector = `nav h1, nav button, nav span,
footer p,
.rounded-\[2rem\]:not(.aspect-\[4\/3\]),
main h1, main h2, main h3, main h4, main p, main span,
main svg, main button, main a,
main li,
div[class*="border-b-2"],
div[class*="h-[1px]"],
div[class*="h-[2px]"]`

// DefaultDissipatorSelector picks the large media blocks that fade out
// instead of tumbling.
const DefaultDissipatorSelector = `main img, .aspect-\[4\/3\]`

type Config struct {
	Physics    PhysicsConfig    `yaml:"physics"`
	Material   MaterialConfig   `yaml:"material"`
	Force      ForceConfig      `yaml:"force"`
	Classifier ClassifierConfig `yaml:"classifier"`
	Teardown   TeardownConfig   `yaml:"teardown"`
	Server     ServerConfig     `yaml:"server"`
	Browser    BrowserConfig    `yaml:"browser"`
}

type PhysicsConfig struct {
	Gravity    float64 `yaml:"gravity"`
	Iterations int     `yaml:"iterations"`
	StepHz     int     `yaml:"step_hz"`
	FPS        int     `yaml:"fps"`
	// MaxSpeed caps the speed a pointer impulse can give a body, in px/s.
	MaxSpeed float64 `yaml:"max_speed"`
	// Thickness of the static floor and walls; they sit just outside the page.
	Thickness float64 `yaml:"boundary_thickness"`
}

// MaterialConfig holds the constants shared by every collider body.
// AirFriction is the fraction of velocity lost per 60Hz step.
type MaterialConfig struct {
	Restitution  float64 `yaml:"restitution"`
	Friction     float64 `yaml:"friction"`
	AirFriction  float64 `yaml:"air_friction"`
	Density      float64 `yaml:"density"`
	ChamferRatio float64 `yaml:"chamfer_ratio"`
	MaxTilt      float64 `yaml:"max_tilt"`
}

type ForceConfig struct {
	Radius    float64       `yaml:"radius"`
	Magnitude float64       `yaml:"magnitude"`
	ArmDelay  time.Duration `yaml:"arm_delay"`
}

type ClassifierConfig struct {
	ColliderSelector   string  `yaml:"collider_selector"`
	DissipatorSelector string  `yaml:"dissipator_selector"`
	MinSize            float64 `yaml:"min_size"`
}

type TeardownConfig struct {
	// Transition is both the CSS transition length and the restore delay.
	Transition time.Duration `yaml:"transition"`
	Easing     string        `yaml:"easing"`
}

type ServerConfig struct {
	Addr      string `yaml:"addr"`
	DBPath    string `yaml:"db_path"`
	UploadDir string `yaml:"upload_dir"`
	PublicURL string `yaml:"public_url"`
	StaticDir string `yaml:"static_dir"`
	PageSize  int    `yaml:"page_size"`
}

type BrowserConfig struct {
	RemoteURL string `yaml:"remote_url"`
	Headless  bool   `yaml:"headless"`
	Stealth   bool   `yaml:"stealth"`
}

func DefaultConfig() *Config {
	return &Config{
		Physics: PhysicsConfig{
			Gravity:    DefaultGravity,
			Iterations: DefaultIterations,
			StepHz:     DefaultStepHz,
			FPS:        DefaultFPS,
			MaxSpeed:   DefaultMaxSpeed,
			Thickness:  DefaultThickness,
		},
		Material: MaterialConfig{
			Restitution:  DefaultRestitution,
			Friction:     DefaultFriction,
			AirFriction:  DefaultAirFriction,
			Density:      DefaultDensity,
			ChamferRatio: DefaultChamferRatio,
			MaxTilt:      DefaultMaxTilt,
		},
		Force: ForceConfig{
			Radius:    DefaultForceRadius,
			Magnitude: DefaultImpulse,
			ArmDelay:  DefaultArmDelay,
		},
		Classifier: ClassifierConfig{
			ColliderSelector:   DefaultColliderSelector,
			DissipatorSelector: DefaultDissipatorSelector,
			MinSize:            DefaultMinSize,
		},
		Teardown: TeardownConfig{
			Transition: DefaultTransition,
			Easing:     "cubic-bezier(0.19, 1, 0.22, 1)",
		},
		Server: ServerConfig{
			Addr:      ":8080",
			DBPath:    ".folio/folio.db",
			UploadDir: ".folio/uploads",
			PublicURL: "/uploads",
			PageSize:  DefaultPageSize,
		},
		Browser: BrowserConfig{
			Headless: false,
		},
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
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
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

func (c *Config) Validate() error {
	if c.Physics.Iterations <= 0 {
		return fmt.Errorf("iterations must be positive, got %d", c.Physics.Iterations)
	}
	if c.Physics.StepHz <= 0 {
		return fmt.Errorf("step_hz must be positive, got %d", c.Physics.StepHz)
	}
	if c.Physics.FPS <= 0 {
		return fmt.Errorf("fps must be positive, got %d", c.Physics.FPS)
	}
	if c.Physics.MaxSpeed <= 0 {
		return fmt.Errorf("max_speed must be positive, got %f", c.Physics.MaxSpeed)
	}
	if c.Material.Density <= 0 {
		return fmt.Errorf("density must be positive, got %f", c.Material.Density)
	}
	if c.Material.AirFriction < 0 || c.Material.AirFriction >= 1 {
		return fmt.Errorf("air_friction must be in [0, 1), got %f", c.Material.AirFriction)
	}
	if c.Material.ChamferRatio < 0 || c.Material.ChamferRatio >= 0.5 {
		return fmt.Errorf("chamfer_ratio must be in [0, 0.5), got %f", c.Material.ChamferRatio)
	}
	if c.Force.Radius <= 0 {
		return fmt.Errorf("force radius must be positive, got %f", c.Force.Radius)
	}
	if c.Teardown.Transition <= 0 {
		return fmt.Errorf("teardown transition must be positive, got %s", c.Teardown.Transition)
	}
	if c.Classifier.ColliderSelector == "" {
		return fmt.Errorf("collider selector must not be empty")
	}
	return nil
}

// StepDt is the fixed simulation timestep in seconds.
func (c *Config) StepDt() float64 {
	return 1.0 / float64(c.Physics.StepHz)
}

// WithPreset returns a copy of c with the named material preset applied.
func (c *Config) WithPreset(name string) (*Config, error) {
	m := GetPreset(name)
	if m == nil {
		return nil, fmt.Errorf("unknown preset %q", name)
	}
	cp := *c
	cp.Material = *m
	return &cp, nil
}
