// Application configuration: defaults, TOML file and command line flags
package config

import (
	"errors"
	"flag"
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"

	"invisibility-cloak/internal/cloak"
)

// Config is the complete application configuration
type Config struct {
	Debug     bool            `toml:"debug"`
	Camera    CameraConfig    `toml:"camera"`
	Effect    EffectConfig    `toml:"effect"`
	Recording RecordingConfig `toml:"recording"`
	Tuning    TuningConfig    `toml:"tuning"`
	Plate     PlateConfig     `toml:"plate"`
}

type CameraConfig struct {
	Device string  `toml:"device"`
	Width  int     `toml:"width"`
	Height int     `toml:"height"`
	FPS    float64 `toml:"fps"`
	Mirror bool    `toml:"mirror"`
}

type EffectConfig struct {
	Color           string  `toml:"color"`
	SampleCount     int     `toml:"sample_count"`
	CountdownFrames int     `toml:"countdown_frames"`
	FramesPerCount  int     `toml:"frames_per_count"`
	MinRegionArea   float64 `toml:"min_region_area"`
	MorphKernel     int     `toml:"morph_kernel"`
	BlurKernel      int     `toml:"blur_kernel"`
}

type RecordingConfig struct {
	Dir   string  `toml:"dir"`
	FPS   float64 `toml:"fps"`
	Codec string  `toml:"codec"`
}

type TuningConfig struct {
	Path string `toml:"path"`
}

// PlateConfig names optional plate images: Load is installed at start-up,
// Save receives every captured plate
type PlateConfig struct {
	Load string `toml:"load"`
	Save string `toml:"save"`
}

// Default returns the built-in configuration
func Default() Config {
	est := cloak.DefaultEstimatorConfig()
	return Config{
		Camera: CameraConfig{
			Device: "0",
			Width:  1280,
			Height: 720,
			FPS:    30,
			Mirror: true,
		},
		Effect: EffectConfig{
			Color:           "red",
			SampleCount:     est.SampleCount,
			CountdownFrames: est.CountdownFrames,
			FramesPerCount:  est.FramesPerCount,
			MinRegionArea:   cloak.DefaultMinRegionArea,
			MorphKernel:     3,
			BlurKernel:      est.BlurKernel,
		},
		Recording: RecordingConfig{
			Dir:   ".",
			FPS:   30,
			Codec: "mp4v",
		},
		Tuning: TuningConfig{
			Path: "custom_hsv.json",
		},
	}
}

// LoadFile decodes a TOML file over c. Keys absent from the file keep their
// current value; unknown keys are an error.
func (c *Config) LoadFile(path string) error {
	md, err := toml.DecodeFile(path, c)
	if err != nil {
		return fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return fmt.Errorf("unknown config keys in %s: %s", path, strings.Join(keys, ", "))
	}
	return nil
}

// Parse builds the configuration from defaults, the file named by -config
// and the remaining flags. Flags given on the command line win over the file.
func Parse(name string, args []string) (Config, error) {
	cfg := Default()

	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	configPath := fs.String("config", "", "Path to a TOML configuration file")
	cfg.bind(fs)

	if err := fs.Parse(args); err != nil {
		return cfg, err
	}
	if *configPath != "" {
		if err := cfg.LoadFile(*configPath); err != nil {
			return cfg, err
		}
		// flags are bound to the fields, parsing again reapplies them over the file
		if err := fs.Parse(args); err != nil {
			return cfg, err
		}
	}

	return cfg, cfg.Validate()
}

func (c *Config) bind(fs *flag.FlagSet) {
	fs.BoolVar(&c.Debug, "debug", c.Debug, "Enable debug mode with verbose logging")

	fs.StringVar(&c.Camera.Device, "camera", c.Camera.Device, "Camera index or video file")
	fs.IntVar(&c.Camera.Width, "width", c.Camera.Width, "Requested frame width")
	fs.IntVar(&c.Camera.Height, "height", c.Camera.Height, "Requested frame height")
	fs.Float64Var(&c.Camera.FPS, "fps", c.Camera.FPS, "Requested camera frame rate")
	fs.BoolVar(&c.Camera.Mirror, "mirror", c.Camera.Mirror, "Flip frames horizontally")

	fs.StringVar(&c.Effect.Color, "color", c.Effect.Color, "Initial color preset (red, blue, green, yellow, custom)")
	fs.IntVar(&c.Effect.SampleCount, "samples", c.Effect.SampleCount, "Frames averaged into the background plate")
	fs.IntVar(&c.Effect.CountdownFrames, "countdown", c.Effect.CountdownFrames, "Frames shown before background sampling")
	fs.Float64Var(&c.Effect.MinRegionArea, "min-area", c.Effect.MinRegionArea, "Smallest mask region kept, in pixels")

	fs.StringVar(&c.Recording.Dir, "record-dir", c.Recording.Dir, "Directory for recorded videos")
	fs.Float64Var(&c.Recording.FPS, "record-fps", c.Recording.FPS, "Frame rate of recorded videos")

	fs.StringVar(&c.Tuning.Path, "tuning", c.Tuning.Path, "HSV tuning file")

	fs.StringVar(&c.Plate.Load, "plate", c.Plate.Load, "Background plate image to load at start-up")
	fs.StringVar(&c.Plate.Save, "save-plate", c.Plate.Save, "Write every captured plate to this image")
}

// Validate checks value ranges
func (c Config) Validate() error {
	var errs []error

	if c.Camera.Device == "" {
		errs = append(errs, errors.New("camera device is required"))
	}
	if c.Camera.Width < 0 || c.Camera.Height < 0 || c.Camera.FPS < 0 {
		errs = append(errs, fmt.Errorf("camera size and fps must not be negative"))
	}
	if c.Effect.Color == "" {
		errs = append(errs, errors.New("color preset is required"))
	}
	if c.Effect.SampleCount < 1 {
		errs = append(errs, fmt.Errorf("sample_count must be positive, got %d", c.Effect.SampleCount))
	}
	if c.Effect.CountdownFrames < 0 {
		errs = append(errs, fmt.Errorf("countdown_frames must not be negative, got %d", c.Effect.CountdownFrames))
	}
	if c.Effect.FramesPerCount < 1 {
		errs = append(errs, fmt.Errorf("frames_per_count must be positive, got %d", c.Effect.FramesPerCount))
	}
	if c.Effect.MinRegionArea < 0 {
		errs = append(errs, fmt.Errorf("min_region_area must not be negative, got %g", c.Effect.MinRegionArea))
	}
	if c.Effect.MorphKernel < 1 || c.Effect.MorphKernel%2 == 0 {
		errs = append(errs, fmt.Errorf("morph_kernel must be a positive odd number, got %d", c.Effect.MorphKernel))
	}
	if c.Effect.BlurKernel < 1 || c.Effect.BlurKernel%2 == 0 {
		errs = append(errs, fmt.Errorf("blur_kernel must be a positive odd number, got %d", c.Effect.BlurKernel))
	}
	if c.Recording.FPS <= 0 {
		errs = append(errs, fmt.Errorf("recording fps must be positive, got %g", c.Recording.FPS))
	}
	if len(c.Recording.Codec) != 4 {
		errs = append(errs, fmt.Errorf("recording codec must be a fourcc, got %q", c.Recording.Codec))
	}
	if !strings.HasSuffix(strings.ToLower(c.Tuning.Path), ".json") {
		errs = append(errs, fmt.Errorf("tuning path must be a .json file, got %q", c.Tuning.Path))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return nil
}

// EstimatorConfig returns the background capture settings
func (c Config) EstimatorConfig() cloak.EstimatorConfig {
	return cloak.EstimatorConfig{
		SampleCount:     c.Effect.SampleCount,
		CountdownFrames: c.Effect.CountdownFrames,
		FramesPerCount:  c.Effect.FramesPerCount,
		BlurKernel:      c.Effect.BlurKernel,
	}
}
