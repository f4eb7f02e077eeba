package specfit

import (
	"errors"
	"fmt"

	"github.com/spf13/viper"
)

// ErrInvalidConfig is wrapped by all configuration validation errors.
var ErrInvalidConfig = errors.New("specfit: invalid config")

// Config bundles the numeric parameters of the decomposition. The zero
// value is not usable, start from DefaultConfig.
type Config struct {
	// MaxComponents caps the number of Gaussians fitted per spectrum.
	MaxComponents int `mapstructure:"max_components" json:"max_components"`

	// InitialWidth is the starting guess for the width of a new
	// component, in channels.
	InitialWidth float64 `mapstructure:"initial_width" json:"initial_width"`

	// MinWidth and MaxWidth bound accepted component widths in channels.
	// Components refined outside the bounds are discarded.
	MinWidth float64 `mapstructure:"min_width" json:"min_width"`
	MaxWidth float64 `mapstructure:"max_width" json:"max_width"`

	// SNRThreshold stops the search once the largest residual peak drops
	// below this multiple of the noise estimate.
	SNRThreshold float64 `mapstructure:"snr_threshold" json:"snr_threshold"`

	// MinImprovement is the relative objective improvement a new
	// component must deliver to be kept.
	MinImprovement float64 `mapstructure:"min_improvement" json:"min_improvement"`

	// MaxIterations and GradientTolerance control the gradient descent
	// refinement of each candidate decomposition.
	MaxIterations     int     `mapstructure:"max_iterations" json:"max_iterations"`
	GradientTolerance float64 `mapstructure:"gradient_tolerance" json:"gradient_tolerance"`

	// GlatMin masks the galactic plane: spectra with |glat| below this
	// many degrees are skipped. Zero disables the mask.
	GlatMin float64 `mapstructure:"glat_min" json:"glat_min"`
}

// DefaultConfig returns the parameters used for the published full-sky
// decomposition runs.
func DefaultConfig() Config {
	return Config{
		MaxComponents:     10,
		InitialWidth:      4.0,
		MinWidth:          0.8,
		MaxWidth:          120.0,
		SNRThreshold:      3.0,
		MinImprovement:    1e-3,
		MaxIterations:     200,
		GradientTolerance: 1e-6,
		GlatMin:           0.0,
	}
}

// Validate checks the parameter ranges.
func (c Config) Validate() error {
	if c.MaxComponents <= 0 {
		return fmt.Errorf("%w: max_components must be positive, got %d", ErrInvalidConfig, c.MaxComponents)
	}
	if c.InitialWidth <= 0 {
		return fmt.Errorf("%w: initial_width must be positive, got %g", ErrInvalidConfig, c.InitialWidth)
	}
	if c.MinWidth <= 0 || c.MaxWidth <= c.MinWidth {
		return fmt.Errorf("%w: need 0 < min_width < max_width, got [%g, %g]", ErrInvalidConfig, c.MinWidth, c.MaxWidth)
	}
	if c.InitialWidth < c.MinWidth || c.InitialWidth > c.MaxWidth {
		return fmt.Errorf("%w: initial_width %g outside [%g, %g]", ErrInvalidConfig, c.InitialWidth, c.MinWidth, c.MaxWidth)
	}
	if c.SNRThreshold <= 0 {
		return fmt.Errorf("%w: snr_threshold must be positive, got %g", ErrInvalidConfig, c.SNRThreshold)
	}
	if c.MinImprovement < 0 || c.MinImprovement >= 1 {
		return fmt.Errorf("%w: min_improvement must be in [0, 1), got %g", ErrInvalidConfig, c.MinImprovement)
	}
	if c.MaxIterations <= 0 {
		return fmt.Errorf("%w: max_iterations must be positive, got %d", ErrInvalidConfig, c.MaxIterations)
	}
	if c.GradientTolerance <= 0 {
		return fmt.Errorf("%w: gradient_tolerance must be positive, got %g", ErrInvalidConfig, c.GradientTolerance)
	}
	if c.GlatMin < 0 || c.GlatMin >= 90 {
		return fmt.Errorf("%w: glat_min must be in [0, 90), got %g", ErrInvalidConfig, c.GlatMin)
	}
	return nil
}

// LoadConfig reads fit parameters from a JSON, YAML or TOML file, filling
// unset keys from DefaultConfig. Parameters may sit at the top level or
// under a "fit_parameters" section. An empty path returns the defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetDefault("max_components", cfg.MaxComponents)
	v.SetDefault("initial_width", cfg.InitialWidth)
	v.SetDefault("min_width", cfg.MinWidth)
	v.SetDefault("max_width", cfg.MaxWidth)
	v.SetDefault("snr_threshold", cfg.SNRThreshold)
	v.SetDefault("min_improvement", cfg.MinImprovement)
	v.SetDefault("max_iterations", cfg.MaxIterations)
	v.SetDefault("gradient_tolerance", cfg.GradientTolerance)
	v.SetDefault("glat_min", cfg.GlatMin)

	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	if sub := v.Sub("fit_parameters"); sub != nil {
		for key, val := range sub.AllSettings() {
			v.Set(key, val)
		}
	}
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
