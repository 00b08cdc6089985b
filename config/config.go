// Package config holds the tunable knobs for the narrow-phase and solver
// pipeline, plus the Observer hook non-convergence and other soft failures
// are reported through (spec.md section 6's enumerated configuration list).
package config

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// Config carries every enumerated knob from spec.md section 6. Set directly
// as exported fields, mirroring the reference engine's World configuration
// style (Gravity, Substeps, Workers set by the caller, no parser required).
type Config struct {
	// LaneWidth must equal simdmath.LaneWidth; kept as a field (not derived)
	// so a loaded Config can be validated against the build it's running
	// under, per spec.md section 6 (`lane_width: W ∈ {4, 8}`).
	LaneWidth int `yaml:"lane_width"`

	// VelocityIterationCount is the number of solver velocity iterations
	// per step (spec.md 4.7), typical 4-8.
	VelocityIterationCount int `yaml:"velocity_iteration_count"`

	// FallbackBatchThreshold is the batch-count above which a body's
	// remaining constraints overflow into the Jacobi-style fallback batch
	// (spec.md 4.7).
	FallbackBatchThreshold int `yaml:"fallback_batch_threshold"`

	// DepthRefinerMaxIterations caps depth refiner iterations (spec.md 4.3).
	DepthRefinerMaxIterations int `yaml:"depth_refiner_max_iterations"`

	// ConvergenceThreshold is the depth refiner's early-termination epsilon
	// (spec.md 4.3 step 7), non-negative.
	ConvergenceThreshold float64 `yaml:"convergence_threshold"`

	// MinimumDepthThreshold is the floor below which depth refinement stops
	// improving a separated pair further (spec.md 4.3 step 11), typically
	// slightly negative.
	MinimumDepthThreshold float64 `yaml:"minimum_depth_threshold"`
}

// Default returns the reference set of knobs named in spec.md section 6:
// lane width 4 (this module's LaneWidth), 4 velocity iterations, a
// depth-refiner cap of 50 with a tight convergence threshold, and a
// minimum depth threshold that lets the refiner keep sharpening a
// separated pair down to a shallow negative depth before giving up.
func Default() Config {
	return Config{
		LaneWidth:                 4,
		VelocityIterationCount:    4,
		FallbackBatchThreshold:    4,
		DepthRefinerMaxIterations: 50,
		ConvergenceThreshold:      1e-4,
		MinimumDepthThreshold:     -0.05,
	}
}

// Validate reports the precondition violations spec.md section 7 calls
// out explicitly rather than leaving them to panic deep in a kernel.
func (c Config) Validate() error {
	if c.LaneWidth != 4 && c.LaneWidth != 8 {
		return fmt.Errorf("config: lane_width must be 4 or 8, got %d", c.LaneWidth)
	}
	if c.VelocityIterationCount < 1 {
		return fmt.Errorf("config: velocity_iteration_count must be >= 1, got %d", c.VelocityIterationCount)
	}
	if c.FallbackBatchThreshold < 1 {
		return fmt.Errorf("config: fallback_batch_threshold must be >= 1, got %d", c.FallbackBatchThreshold)
	}
	if c.DepthRefinerMaxIterations < 1 {
		return fmt.Errorf("config: depth_refiner_max_iterations must be >= 1, got %d", c.DepthRefinerMaxIterations)
	}
	if c.ConvergenceThreshold < 0 {
		return fmt.Errorf("config: convergence_threshold must be non-negative, got %v", c.ConvergenceThreshold)
	}
	return nil
}

// LoadConfig parses YAML into a Config, defaulting any zero-valued field
// the YAML document omits to Default()'s value. Additive to the
// struct-literal path above, not a replacement for it.
func LoadConfig(r io.Reader) (Config, error) {
	cfg := Default()
	decoder := yaml.NewDecoder(r)
	if err := decoder.Decode(&cfg); err != nil && err != io.EOF {
		return Config{}, fmt.Errorf("config: decoding yaml: %w", err)
	}
	return cfg, nil
}
