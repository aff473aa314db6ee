// Package config loads the tracker's tuning parameters from JSON.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// DefaultConfigPath is the path to the canonical tuning defaults file.
// This is the single source of truth for all default tuning values.
const DefaultConfigPath = "config/tuning.defaults.json"

// TuningConfig represents the root configuration for tuning parameters.
// All fields are optional; fields omitted from the JSON fall back to the
// same defaults the interactive trackbars start from.
type TuningConfig struct {
	// Threshold bounds (inclusive). Hue uses the halved OpenCV scale
	// [0,179]; saturation and value use [0,255].
	HueMin *int `json:"hue_min,omitempty"`
	HueMax *int `json:"hue_max,omitempty"`
	SatMin *int `json:"sat_min,omitempty"`
	SatMax *int `json:"sat_max,omitempty"`
	ValMin *int `json:"val_min,omitempty"`
	ValMax *int `json:"val_max,omitempty"`

	// Capture params
	DeviceIndex   *int `json:"device_index,omitempty"`
	CaptureWidth  *int `json:"capture_width,omitempty"`
	CaptureHeight *int `json:"capture_height,omitempty"`

	// Loop params
	FrameInterval *string `json:"frame_interval,omitempty"` // duration string like "5ms"

	// Compositor params
	BlurKernel    *int  `json:"blur_kernel,omitempty"`
	MorphKernel   *int  `json:"morph_kernel,omitempty"`
	UseSaturation *bool `json:"use_saturation,omitempty"`
}

// Helper functions to create pointers
func ptrBool(v bool) *bool       { return &v }
func ptrString(v string) *string { return &v }
func ptrInt(v int) *int          { return &v }

// EmptyTuningConfig returns a TuningConfig with all fields set to nil.
// Use LoadTuningConfig to load actual values from a file.
func EmptyTuningConfig() *TuningConfig {
	return &TuningConfig{}
}

// LoadTuningConfig loads a TuningConfig from a JSON file.
// The file is validated to ensure it has a .json extension and is under
// the max file size. Fields omitted from the JSON file retain their
// default values, so partial configs are safe.
func LoadTuningConfig(path string) (*TuningConfig, error) {
	// Validate the config file path.
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	// Check file size for safety (max 1MB)
	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Parse JSON into empty config. The Get* methods provide fallback
	// defaults for any fields not specified in the JSON.
	cfg := EmptyTuningConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	// Validate the configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// MustLoadDefaultConfig loads the canonical tuning defaults from
// DefaultConfigPath. It searches for the file in the current directory
// and common parent directories. Panics if the file cannot be loaded,
// intended for test setup.
func MustLoadDefaultConfig() *TuningConfig {
	// Try paths from current dir up to repo root
	candidates := []string{
		DefaultConfigPath,
		"../../" + DefaultConfigPath,    // from internal/config/
		"../../../" + DefaultConfigPath, // from cmd/tools/
	}
	for _, path := range candidates {
		if cfg, err := LoadTuningConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks that the configuration values are valid. An inverted
// threshold window (min above max) is allowed; it simply matches
// nothing.
func (c *TuningConfig) Validate() error {
	hueChecks := []struct {
		name  string
		value *int
	}{
		{"hue_min", c.HueMin},
		{"hue_max", c.HueMax},
	}
	for _, chk := range hueChecks {
		if chk.value != nil && (*chk.value < 0 || *chk.value > 179) {
			return fmt.Errorf("%s must be between 0 and 179, got %d", chk.name, *chk.value)
		}
	}

	byteChecks := []struct {
		name  string
		value *int
	}{
		{"sat_min", c.SatMin},
		{"sat_max", c.SatMax},
		{"val_min", c.ValMin},
		{"val_max", c.ValMax},
	}
	for _, chk := range byteChecks {
		if chk.value != nil && (*chk.value < 0 || *chk.value > 255) {
			return fmt.Errorf("%s must be between 0 and 255, got %d", chk.name, *chk.value)
		}
	}

	if c.DeviceIndex != nil && *c.DeviceIndex < 0 {
		return fmt.Errorf("device_index must be non-negative, got %d", *c.DeviceIndex)
	}
	if c.CaptureWidth != nil && *c.CaptureWidth <= 0 {
		return fmt.Errorf("capture_width must be positive, got %d", *c.CaptureWidth)
	}
	if c.CaptureHeight != nil && *c.CaptureHeight <= 0 {
		return fmt.Errorf("capture_height must be positive, got %d", *c.CaptureHeight)
	}

	// Validate FrameInterval can be parsed if set
	if c.FrameInterval != nil && *c.FrameInterval != "" {
		if _, err := time.ParseDuration(*c.FrameInterval); err != nil {
			return fmt.Errorf("invalid frame_interval '%s': %w", *c.FrameInterval, err)
		}
	}

	kernelChecks := []struct {
		name  string
		value *int
	}{
		{"blur_kernel", c.BlurKernel},
		{"morph_kernel", c.MorphKernel},
	}
	for _, chk := range kernelChecks {
		if chk.value != nil && (*chk.value < 1 || *chk.value%2 == 0) {
			return fmt.Errorf("%s must be a positive odd number, got %d", chk.name, *chk.value)
		}
	}

	return nil
}

// GetHueMin returns the hue_min value or the default.
func (c *TuningConfig) GetHueMin() int {
	if c.HueMin == nil {
		return 51 // default
	}
	return *c.HueMin
}

// GetHueMax returns the hue_max value or the default.
func (c *TuningConfig) GetHueMax() int {
	if c.HueMax == nil {
		return 62 // default
	}
	return *c.HueMax
}

// GetSatMin returns the sat_min value or the default.
func (c *TuningConfig) GetSatMin() int {
	if c.SatMin == nil {
		return 12 // default
	}
	return *c.SatMin
}

// GetSatMax returns the sat_max value or the default.
func (c *TuningConfig) GetSatMax() int {
	if c.SatMax == nil {
		return 43 // default
	}
	return *c.SatMax
}

// GetValMin returns the val_min value or the default.
func (c *TuningConfig) GetValMin() int {
	if c.ValMin == nil {
		return 250 // default
	}
	return *c.ValMin
}

// GetValMax returns the val_max value or the default.
func (c *TuningConfig) GetValMax() int {
	if c.ValMax == nil {
		return 255 // default
	}
	return *c.ValMax
}

// GetDeviceIndex returns the device_index value or the default.
func (c *TuningConfig) GetDeviceIndex() int {
	if c.DeviceIndex == nil {
		return 0 // default: first webcam
	}
	return *c.DeviceIndex
}

// GetCaptureWidth returns the capture_width value or the default.
func (c *TuningConfig) GetCaptureWidth() int {
	if c.CaptureWidth == nil {
		return 600 // default
	}
	return *c.CaptureWidth
}

// GetCaptureHeight returns the capture_height value or the default.
func (c *TuningConfig) GetCaptureHeight() int {
	if c.CaptureHeight == nil {
		return 450 // default
	}
	return *c.CaptureHeight
}

// GetFrameInterval parses and returns the FrameInterval as a
// time.Duration.
func (c *TuningConfig) GetFrameInterval() time.Duration {
	if c.FrameInterval == nil || *c.FrameInterval == "" {
		return 5 * time.Millisecond // default
	}
	d, err := time.ParseDuration(*c.FrameInterval)
	if err != nil {
		return 5 * time.Millisecond // default on parse error
	}
	return d
}

// GetBlurKernel returns the blur_kernel value or the default.
func (c *TuningConfig) GetBlurKernel() int {
	if c.BlurKernel == nil {
		return 55 // default
	}
	return *c.BlurKernel
}

// GetMorphKernel returns the morph_kernel value or the default.
func (c *TuningConfig) GetMorphKernel() int {
	if c.MorphKernel == nil {
		return 5 // default
	}
	return *c.MorphKernel
}

// GetUseSaturation returns the use_saturation value or the default.
func (c *TuningConfig) GetUseSaturation() bool {
	if c.UseSaturation == nil {
		return false // default: saturation mask computed but not composited
	}
	return *c.UseSaturation
}
