package orrery

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// ToneMappingMethod selects the HDR to LDR operator.
type ToneMappingMethod uint8

const (
	ToneMapDisabled           ToneMappingMethod = iota // exposure and gamma only
	ToneMapReinhard                                    // x / (1 + x)
	ToneMapHable                                       // filmic curve
	ToneMapHableLuminanceOnly                          // filmic curve on luminance, hue preserved
)

var toneMappingNames = [...]string{
	ToneMapDisabled:           "disabled",
	ToneMapReinhard:           "reinhard",
	ToneMapHable:              "hable",
	ToneMapHableLuminanceOnly: "hableLuminanceOnly",
}

func (m ToneMappingMethod) String() string {
	if int(m) < len(toneMappingNames) {
		return toneMappingNames[m]
	}
	return "unknown"
}

// UnmarshalYAML accepts the method name, case-insensitively.
func (m *ToneMappingMethod) UnmarshalYAML(value *yaml.Node) error {
	var name string
	if err := value.Decode(&name); err != nil {
		return err
	}
	for i, n := range toneMappingNames {
		if strings.EqualFold(n, strings.TrimSpace(name)) {
			*m = ToneMappingMethod(i)
			return nil
		}
	}
	return fmt.Errorf("unknown tone mapping method %q", name)
}

// MarshalYAML writes the method name.
func (m ToneMappingMethod) MarshalYAML() (any, error) {
	return m.String(), nil
}

// ToneMappingConfig configures the tone mapping pass.
type ToneMappingConfig struct {
	Enabled    bool              `yaml:"enabled"`
	Method     ToneMappingMethod `yaml:"method"`
	Exposure   float64           `yaml:"exposure"`
	WhitePoint float64           `yaml:"whitePoint"`
}

// RendererConfig holds scene and render-pass settings. Zero-valued numeric
// fields fall back to their defaults.
type RendererConfig struct {
	// MaxPortalRecursion bounds how many portal levels below the active
	// portal are traversed each frame.
	MaxPortalRecursion int `yaml:"maxPortalRecursion"`

	// DebugSortOrder logs the draw order of every portal every
	// DebugSortOrderFrameFrequency frames.
	DebugSortOrder               bool `yaml:"debugSortOrder"`
	DebugSortOrderFrameFrequency int  `yaml:"debugSortOrderFrameFrequency"`

	ShadowsEnabled   bool `yaml:"shadowsEnabled"`
	MaxShadowMapSize int  `yaml:"maxShadowMapSize"`
	MinShadowMapSize int  `yaml:"minShadowMapSize"`

	HDREnabled  bool              `yaml:"hdrEnabled"`
	ToneMapping ToneMappingConfig `yaml:"toneMapping"`
}

const (
	defaultMaxPortalRecursion    = 5
	defaultDebugSortOrderFreq    = 60
	defaultMaxShadowMapSize      = 2048
	defaultMinShadowMapSize      = 128
	defaultToneMappingExposure   = 1.0
	defaultToneMappingWhitePoint = 11.2
)

// DefaultRendererConfig returns the default settings: shadows and HDR on,
// Hable tone mapping.
func DefaultRendererConfig() RendererConfig {
	return RendererConfig{
		MaxPortalRecursion:           defaultMaxPortalRecursion,
		DebugSortOrderFrameFrequency: defaultDebugSortOrderFreq,
		ShadowsEnabled:               true,
		MaxShadowMapSize:             defaultMaxShadowMapSize,
		MinShadowMapSize:             defaultMinShadowMapSize,
		HDREnabled:                   true,
		ToneMapping: ToneMappingConfig{
			Enabled:    true,
			Method:     ToneMapHable,
			Exposure:   defaultToneMappingExposure,
			WhitePoint: defaultToneMappingWhitePoint,
		},
	}
}

// withDefaults replaces zero-valued numeric fields with defaults.
func (c RendererConfig) withDefaults() RendererConfig {
	if c.MaxPortalRecursion <= 0 {
		c.MaxPortalRecursion = defaultMaxPortalRecursion
	}
	if c.DebugSortOrderFrameFrequency <= 0 {
		c.DebugSortOrderFrameFrequency = defaultDebugSortOrderFreq
	}
	if c.MaxShadowMapSize <= 0 {
		c.MaxShadowMapSize = defaultMaxShadowMapSize
	}
	if c.MinShadowMapSize <= 0 {
		c.MinShadowMapSize = defaultMinShadowMapSize
	}
	if c.MinShadowMapSize > c.MaxShadowMapSize {
		c.MinShadowMapSize = c.MaxShadowMapSize
	}
	if c.ToneMapping.Exposure <= 0 {
		c.ToneMapping.Exposure = defaultToneMappingExposure
	}
	if c.ToneMapping.WhitePoint <= 0 {
		c.ToneMapping.WhitePoint = defaultToneMappingWhitePoint
	}
	return c
}

// LoadRendererConfig parses a YAML document on top of the defaults. Keys
// absent from the document keep their default values.
func LoadRendererConfig(data []byte) (RendererConfig, error) {
	cfg := DefaultRendererConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return RendererConfig{}, fmt.Errorf("parse renderer config: %w", err)
	}
	return cfg.withDefaults(), nil
}

// LoadRendererConfigFile reads and parses a YAML config file.
func LoadRendererConfigFile(path string) (RendererConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return RendererConfig{}, fmt.Errorf("read renderer config: %w", err)
	}
	return LoadRendererConfig(data)
}
