package engine

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/spaghettifunk/showroom/engine/core"
	"github.com/spaghettifunk/showroom/engine/renderer"
	"github.com/spaghettifunk/showroom/engine/renderer/components"
	"github.com/spaghettifunk/showroom/engine/scene"
	"github.com/spaghettifunk/showroom/engine/systems"
)

var (
	ErrInvalidWindowSize = errors.New("window width and height must be greater than 0")
	ErrInvalidCamera     = errors.New("camera needs 0 < fov < 180 and 0 < near < far")
	ErrInvalidRotation   = errors.New("rotation needs exactly 3 components")
	ErrInvalidShadowType = errors.New("shadow type must be one of basic, pcf, pcf_soft")
)

type WindowConfig struct {
	// The application name used in windowing, if applicable.
	Name string `toml:"name"`
	// Window starting position, if applicable.
	X uint32 `toml:"x"`
	Y uint32 `toml:"y"`
	// Window starting size.
	Width  uint32 `toml:"width"`
	Height uint32 `toml:"height"`
}

type CameraConfig struct {
	FOV      float32    `toml:"fov"`
	Near     float32    `toml:"near"`
	Far      float32    `toml:"far"`
	Position [3]float32 `toml:"position"`
}

type ShadowConfig struct {
	Enabled bool `toml:"enabled"`
	// basic, pcf or pcf_soft
	Type string `toml:"type"`
}

type BloomConfig struct {
	Enabled   bool    `toml:"enabled"`
	Strength  float32 `toml:"strength"`
	Radius    float32 `toml:"radius"`
	Threshold float32 `toml:"threshold"`
}

type PostprocessingConfig struct {
	Bloom BloomConfig `toml:"bloom"`
	SMAA  bool        `toml:"smaa"`
}

type LightConfig struct {
	Position [3]float32 `toml:"position"`
	// Defaults to scene.DefaultLightIntensity.
	Intensity *float32 `toml:"intensity"`
}

type EnvironmentConfig struct {
	Path string `toml:"path"`
	// Show also uses the environment map as the background.
	Show bool `toml:"show"`
}

type ObjectConfig struct {
	Path string `toml:"path"`
	// Scale defaults to 1 and Shadow to true.
	Scale  *float64 `toml:"scale"`
	Shadow *bool    `toml:"shadow"`
	// Degrees around x, y and z. Omit to keep the asset's orientation.
	Rotation []float64 `toml:"rotation"`
}

/**
 * @brief Everything a showroom run needs, usually read from a TOML scene
 * manifest. Keys missing from the manifest keep the values of
 * DefaultApplicationConfig.
 */
type ApplicationConfig struct {
	Window   WindowConfig `toml:"window"`
	LogLevel string       `toml:"log_level"`
	// Headless renders without a window, through the headless backend.
	Headless bool `toml:"headless"`
	// FrameLimit stops the run after that many frames. 0 means no limit.
	FrameLimit uint64 `toml:"frame_limit"`
	// ExitWhenLoaded stops the run once every load has settled.
	ExitWhenLoaded     bool    `toml:"exit_when_loaded"`
	AssetsDir          string  `toml:"assets_dir"`
	MaxConcurrentLoads int     `toml:"max_concurrent_loads"`
	PixelRatio         float32 `toml:"pixel_ratio"`

	Camera         CameraConfig         `toml:"camera"`
	Shadows        ShadowConfig         `toml:"shadows"`
	Postprocessing PostprocessingConfig `toml:"postprocessing"`
	Lights         []LightConfig        `toml:"lights"`
	Environment    EnvironmentConfig    `toml:"environment"`
	Objects        []ObjectConfig       `toml:"objects"`
}

func DefaultApplicationConfig() *ApplicationConfig {
	return &ApplicationConfig{
		Window: WindowConfig{
			Name:   "Showroom",
			X:      100,
			Y:      100,
			Width:  1280,
			Height: 720,
		},
		LogLevel:   "info",
		AssetsDir:  "assets",
		PixelRatio: 1,
		Camera: CameraConfig{
			FOV:      components.DefaultFOV,
			Near:     components.DefaultNear,
			Far:      components.DefaultFar,
			Position: [3]float32{0, 0, 5},
		},
		Shadows: ShadowConfig{
			Enabled: true,
			Type:    "pcf_soft",
		},
		Postprocessing: PostprocessingConfig{
			Bloom: BloomConfig{
				Enabled:   true,
				Strength:  0.25,
				Radius:    0.25,
				Threshold: 0.25,
			},
			SMAA: true,
		},
	}
}

// LoadApplicationConfig reads a TOML manifest on top of the defaults.
// Relative asset paths and the assets dir are taken relative to the
// manifest's directory. Unknown keys are an error.
func LoadApplicationConfig(path string) (*ApplicationConfig, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	config := DefaultApplicationConfig()
	dec := toml.NewDecoder(f).DisallowUnknownFields()
	if err := dec.Decode(config); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return nil, fmt.Errorf("%s: %s", path, strict.String())
		}
		var decodeErr *toml.DecodeError
		if errors.As(err, &decodeErr) {
			row, col := decodeErr.Position()
			return nil, fmt.Errorf("%s:%d:%d: %w", path, row, col, err)
		}
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	if dir := filepath.Dir(path); dir != "." && config.AssetsDir != "" && !filepath.IsAbs(config.AssetsDir) {
		config.AssetsDir = filepath.Join(dir, config.AssetsDir)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return config, nil
}

func (c *ApplicationConfig) Validate() error {
	if c.Window.Width == 0 || c.Window.Height == 0 {
		return ErrInvalidWindowSize
	}
	if c.Camera.FOV <= 0 || c.Camera.FOV >= 180 || c.Camera.Near <= 0 || c.Camera.Far <= c.Camera.Near {
		return ErrInvalidCamera
	}
	if _, err := c.ShadowMapType(); err != nil {
		return err
	}
	if _, err := core.ParseLogLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log_level: %w", err)
	}
	if c.PixelRatio <= 0 {
		return fmt.Errorf("pixel_ratio must be > 0, got %v", c.PixelRatio)
	}
	if c.MaxConcurrentLoads < 0 {
		return fmt.Errorf("max_concurrent_loads must be >= 0, got %d", c.MaxConcurrentLoads)
	}
	if _, err := c.LoadSpecs(); err != nil {
		return err
	}
	return nil
}

func (c *ApplicationConfig) ShadowMapType() (renderer.ShadowMapType, error) {
	switch strings.ToLower(c.Shadows.Type) {
	case "basic":
		return renderer.ShadowMapBasic, nil
	case "pcf":
		return renderer.ShadowMapPCF, nil
	case "", "pcf_soft":
		return renderer.ShadowMapPCFSoft, nil
	}
	return 0, fmt.Errorf("%w, got %q", ErrInvalidShadowType, c.Shadows.Type)
}

// LoadSpecs turns the [[objects]] entries into load specs, in manifest order.
func (c *ApplicationConfig) LoadSpecs() ([]systems.LoadSpec, error) {
	specs := make([]systems.LoadSpec, 0, len(c.Objects))
	for i, o := range c.Objects {
		spec := systems.NewLoadSpec(o.Path)
		spec.CastsShadow = o.Shadow == nil || *o.Shadow
		if o.Scale != nil {
			spec.ScaleFactor = *o.Scale
		}
		if o.Rotation != nil {
			if len(o.Rotation) != 3 {
				return nil, fmt.Errorf("objects[%d]: %w", i, ErrInvalidRotation)
			}
			spec.RotationDegrees = &systems.Rotation{X: o.Rotation[0], Y: o.Rotation[1], Z: o.Rotation[2]}
		}
		if err := spec.Validate(); err != nil {
			return nil, fmt.Errorf("objects[%d]: %w", i, err)
		}
		specs = append(specs, spec)
	}
	return specs, nil
}

// LightIntensity falls back to the default intensity when none was given.
func (l LightConfig) LightIntensity() float32 {
	if l.Intensity == nil {
		return scene.DefaultLightIntensity
	}
	return *l.Intensity
}
