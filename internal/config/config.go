package config

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

// DefaultConfigPath is the path to the canonical dataset defaults file.
const DefaultConfigPath = "config/dataset.defaults.json"

// Layer set names accepted by LayerSet.
const (
	LayersVisualFunctionCore = "visual-function-core"
	LayersWayneState         = "wayne-state"
)

// Divisibility policies for source images whose dimensions are not a
// multiple of the configured multiplicity.
const (
	PolicyCrop = "crop"
	PolicySkip = "skip"
	PolicyFail = "fail"
)

// Config holds the tunables shared by the parsers, the normaliser and the
// dataset tools. Every field is optional: the Get* methods fall back to the
// defaults in config/dataset.defaults.json when a field is absent.
type Config struct {
	// Network input granularity
	Multiplicity *int `json:"multiplicity,omitempty" yaml:"multiplicity,omitempty"`

	// Layer-annotation JSON
	MinWidth        *int                `json:"min_width,omitempty" yaml:"min_width,omitempty"`
	LayerNames      map[string][]string `json:"layer_names,omitempty" yaml:"layer_names,omitempty"`
	LabelmeLayerSet *string             `json:"labelme_layer_set,omitempty" yaml:"labelme_layer_set,omitempty"`

	// Visual-core CSV crops and sampling
	VisualCoreLeftStart   *int `json:"visual_core_left_start,omitempty" yaml:"visual_core_left_start,omitempty"`
	VisualCoreLeftEnd     *int `json:"visual_core_left_end,omitempty" yaml:"visual_core_left_end,omitempty"`
	VisualCoreRightStart  *int `json:"visual_core_right_start,omitempty" yaml:"visual_core_right_start,omitempty"`
	VisualCoreRightEnd    *int `json:"visual_core_right_end,omitempty" yaml:"visual_core_right_end,omitempty"`
	VisualCoreSamples     *int `json:"visual_core_samples,omitempty" yaml:"visual_core_samples,omitempty"`
	VisualCoreFirstSample *int `json:"visual_core_first_sample,omitempty" yaml:"visual_core_first_sample,omitempty"`
	VisualCoreSpacing     *int `json:"visual_core_spacing,omitempty" yaml:"visual_core_spacing,omitempty"`

	// Dense mask and divisibility handling
	DivisibilityPolicy *string `json:"divisibility_policy,omitempty" yaml:"divisibility_policy,omitempty"`
	RGBMasks           *bool   `json:"rgb_masks,omitempty" yaml:"rgb_masks,omitempty"`

	// Dataset tools
	TrimMargin          *int     `json:"trim_margin,omitempty" yaml:"trim_margin,omitempty"`
	TrimMultiplicity    *int     `json:"trim_multiplicity,omitempty" yaml:"trim_multiplicity,omitempty"`
	ExpectedClasses     *int     `json:"expected_classes,omitempty" yaml:"expected_classes,omitempty"`
	PartitionTest       *float64 `json:"partition_test,omitempty" yaml:"partition_test,omitempty"`
	PartitionTrain      *float64 `json:"partition_train,omitempty" yaml:"partition_train,omitempty"`
	PartitionValidation *float64 `json:"partition_validation,omitempty" yaml:"partition_validation,omitempty"`
	ExportSpacing       *int     `json:"export_spacing,omitempty" yaml:"export_spacing,omitempty"`

	// Primitive sizes used by the rasteriser
	LineWidth   *float64 `json:"line_width,omitempty" yaml:"line_width,omitempty"`
	PointRadius *float64 `json:"point_radius,omitempty" yaml:"point_radius,omitempty"`
}

func ptrInt(v int) *int             { return &v }
func ptrFloat64(v float64) *float64 { return &v }
func ptrString(v string) *string    { return &v }
func ptrBool(v bool) *bool          { return &v }

// Empty returns a Config with every field unset.
func Empty() *Config {
	return &Config{}
}

// Defaults returns a Config with every field populated from the built-in
// defaults. It matches config/dataset.defaults.json.
func Defaults() *Config {
	return &Config{
		Multiplicity:          ptrInt(16),
		MinWidth:              ptrInt(780),
		LayerNames:            defaultLayerNames(),
		LabelmeLayerSet:       ptrString(LayersWayneState),
		VisualCoreLeftStart:   ptrInt(53),
		VisualCoreLeftEnd:     ptrInt(245),
		VisualCoreRightStart:  ptrInt(753),
		VisualCoreRightEnd:    ptrInt(945),
		VisualCoreSamples:     ptrInt(20),
		VisualCoreFirstSample: ptrInt(1),
		VisualCoreSpacing:     ptrInt(10),
		DivisibilityPolicy:    ptrString(PolicyCrop),
		RGBMasks:              ptrBool(false),
		TrimMargin:            ptrInt(10),
		TrimMultiplicity:      ptrInt(32),
		ExpectedClasses:       ptrInt(7),
		PartitionTest:         ptrFloat64(0.3),
		PartitionTrain:        ptrFloat64(0.56),
		PartitionValidation:   ptrFloat64(0.14),
		ExportSpacing:         ptrInt(20),
		LineWidth:             ptrFloat64(10),
		PointRadius:           ptrFloat64(5),
	}
}

func defaultLayerNames() map[string][]string {
	return map[string][]string{
		LayersVisualFunctionCore: {"ILM", "RPE", "BM"},
		LayersWayneState:         {"ILM", "RNFL_GCL", "IPL_INL", "INL_OPL", "ISOS", "RPE"},
	}
}

// Load reads a Config from a JSON or YAML file and validates it.
// Fields omitted from the file keep their defaults through the getters.
func Load(path string) (*Config, error) {
	cleanPath := filepath.Clean(path)
	ext := filepath.Ext(cleanPath)
	if ext != ".json" && ext != ".yaml" && ext != ".yml" {
		return nil, fmt.Errorf("config file must have .json, .yaml or .yml extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Empty()
	if ext == ".json" {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config JSON: %w", err)
		}
	} else {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config YAML: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// MustLoadDefault loads DefaultConfigPath from the current directory or one
// of its parents. Panics if the file cannot be found; intended for tests.
func MustLoadDefault() *Config {
	candidates := []string{
		DefaultConfigPath,
		"../" + DefaultConfigPath,
		"../../" + DefaultConfigPath,
		"../../../" + DefaultConfigPath,
	}
	for _, path := range candidates {
		if cfg, err := Load(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks that set values are usable.
func (c *Config) Validate() error {
	if c.Multiplicity != nil && *c.Multiplicity <= 0 {
		return fmt.Errorf("multiplicity must be positive, got %d", *c.Multiplicity)
	}
	if c.MinWidth != nil && *c.MinWidth < 0 {
		return fmt.Errorf("min_width must be non-negative, got %d", *c.MinWidth)
	}
	if c.DivisibilityPolicy != nil {
		switch *c.DivisibilityPolicy {
		case PolicyCrop, PolicySkip, PolicyFail:
		default:
			return fmt.Errorf("divisibility_policy must be one of crop, skip, fail; got %q", *c.DivisibilityPolicy)
		}
	}
	left0, left1 := c.GetVisualCoreLeft()
	if left1 <= left0 {
		return fmt.Errorf("visual core left crop must be non-empty, got [%d, %d)", left0, left1)
	}
	right0, right1 := c.GetVisualCoreRight()
	if right1 <= right0 {
		return fmt.Errorf("visual core right crop must be non-empty, got [%d, %d)", right0, right1)
	}
	if left1-left0 != right1-right0 {
		return fmt.Errorf("visual core crops must have equal widths, got %d and %d", left1-left0, right1-right0)
	}
	if c.VisualCoreSamples != nil && *c.VisualCoreSamples < 2 {
		return fmt.Errorf("visual_core_samples must be at least 2, got %d", *c.VisualCoreSamples)
	}
	if c.VisualCoreSpacing != nil && *c.VisualCoreSpacing <= 0 {
		return fmt.Errorf("visual_core_spacing must be positive, got %d", *c.VisualCoreSpacing)
	}
	for name, layers := range c.LayerNames {
		if len(layers) == 0 {
			return fmt.Errorf("layer set %q is empty", name)
		}
	}
	if _, err := c.LayerSet(c.GetLabelmeLayerSet()); err != nil {
		return fmt.Errorf("labelme_layer_set: %w", err)
	}
	if c.TrimMultiplicity != nil && *c.TrimMultiplicity <= 0 {
		return fmt.Errorf("trim_multiplicity must be positive, got %d", *c.TrimMultiplicity)
	}
	if c.ExpectedClasses != nil && *c.ExpectedClasses < 2 {
		return fmt.Errorf("expected_classes must be at least 2, got %d", *c.ExpectedClasses)
	}
	for name, v := range map[string]*float64{
		"partition_test":       c.PartitionTest,
		"partition_train":      c.PartitionTrain,
		"partition_validation": c.PartitionValidation,
	} {
		if v != nil && (*v < 0 || *v > 1) {
			return fmt.Errorf("%s must be between 0 and 1, got %f", name, *v)
		}
	}
	test, train, val := c.GetPartitions()
	if sum := test + train + val; math.Abs(sum-1) > 1e-9 {
		return fmt.Errorf("partitions must add up to 1, got %g", sum)
	}
	if c.ExportSpacing != nil && *c.ExportSpacing <= 0 {
		return fmt.Errorf("export_spacing must be positive, got %d", *c.ExportSpacing)
	}
	if c.LineWidth != nil && *c.LineWidth <= 0 {
		return fmt.Errorf("line_width must be positive, got %f", *c.LineWidth)
	}
	if c.PointRadius != nil && *c.PointRadius <= 0 {
		return fmt.Errorf("point_radius must be positive, got %f", *c.PointRadius)
	}
	return nil
}

// GetMultiplicity returns the required divisor for mask width and height.
func (c *Config) GetMultiplicity() int {
	if c.Multiplicity == nil {
		return 16
	}
	return *c.Multiplicity
}

// GetMinWidth returns the minimum usable span for layer-annotation files.
func (c *Config) GetMinWidth() int {
	if c.MinWidth == nil {
		return 780
	}
	return *c.MinWidth
}

// GetVisualCoreLeft returns the [start, end) columns of the left crop.
func (c *Config) GetVisualCoreLeft() (int, int) {
	start, end := 53, 245
	if c.VisualCoreLeftStart != nil {
		start = *c.VisualCoreLeftStart
	}
	if c.VisualCoreLeftEnd != nil {
		end = *c.VisualCoreLeftEnd
	}
	return start, end
}

// GetVisualCoreRight returns the [start, end) columns of the right crop.
func (c *Config) GetVisualCoreRight() (int, int) {
	start, end := 753, 945
	if c.VisualCoreRightStart != nil {
		start = *c.VisualCoreRightStart
	}
	if c.VisualCoreRightEnd != nil {
		end = *c.VisualCoreRightEnd
	}
	return start, end
}

// GetVisualCoreSamples returns the number of values per visual-core row.
func (c *Config) GetVisualCoreSamples() int {
	if c.VisualCoreSamples == nil {
		return 20
	}
	return *c.VisualCoreSamples
}

// GetVisualCoreFirstSample returns the crop-relative x of the first sample.
func (c *Config) GetVisualCoreFirstSample() int {
	if c.VisualCoreFirstSample == nil {
		return 1
	}
	return *c.VisualCoreFirstSample
}

// GetVisualCoreSpacing returns the distance in pixels between samples.
func (c *Config) GetVisualCoreSpacing() int {
	if c.VisualCoreSpacing == nil {
		return 10
	}
	return *c.VisualCoreSpacing
}

// LayerSet returns the layer names registered under name. Sets in the file
// are looked up first, then the built-in sets.
func (c *Config) LayerSet(name string) ([]string, error) {
	layers, ok := c.LayerNames[name]
	if !ok {
		layers, ok = defaultLayerNames()[name]
	}
	if !ok {
		seen := map[string]bool{}
		var known []string
		for _, sets := range []map[string][]string{c.LayerNames, defaultLayerNames()} {
			for k := range sets {
				if !seen[k] {
					seen[k] = true
					known = append(known, k)
				}
			}
		}
		sort.Strings(known)
		return nil, fmt.Errorf("unknown layer set %q (known: %v)", name, known)
	}
	out := make([]string, len(layers))
	copy(out, layers)
	return out, nil
}

// LayerSetForBoundaries returns the layer names of the set with exactly n
// layers, preferring the built-in sets for 3 and 6 boundaries.
func (c *Config) LayerSetForBoundaries(n int) ([]string, error) {
	switch n {
	case 3:
		return c.LayerSet(LayersVisualFunctionCore)
	case 6:
		return c.LayerSet(LayersWayneState)
	}
	return nil, fmt.Errorf("unrecognized number of layers: %d", n)
}

// GetLabelmeLayerSet names the layer set expected in layer-annotation JSON.
func (c *Config) GetLabelmeLayerSet() string {
	if c.LabelmeLayerSet == nil || *c.LabelmeLayerSet == "" {
		return LayersWayneState
	}
	return *c.LabelmeLayerSet
}

// GetDivisibilityPolicy returns crop, skip or fail.
func (c *Config) GetDivisibilityPolicy() string {
	if c.DivisibilityPolicy == nil || *c.DivisibilityPolicy == "" {
		return PolicyCrop
	}
	return *c.DivisibilityPolicy
}

// GetRGBMasks reports whether dense-mask images are kept as RGB.
func (c *Config) GetRGBMasks() bool {
	if c.RGBMasks == nil {
		return false
	}
	return *c.RGBMasks
}

// GetTrimMargin returns the rows kept above and below the outer layers.
func (c *Config) GetTrimMargin() int {
	if c.TrimMargin == nil {
		return 10
	}
	return *c.TrimMargin
}

// GetTrimMultiplicity returns the height divisor used by the layer trim.
func (c *Config) GetTrimMultiplicity() int {
	if c.TrimMultiplicity == nil {
		return 32
	}
	return *c.TrimMultiplicity
}

// GetExpectedClasses returns the class count used by the order check.
func (c *Config) GetExpectedClasses() int {
	if c.ExpectedClasses == nil {
		return 7
	}
	return *c.ExpectedClasses
}

// GetPartitions returns the test, training and validation fractions.
func (c *Config) GetPartitions() (test, train, validation float64) {
	test, train, validation = 0.3, 0.56, 0.14
	if c.PartitionTest != nil {
		test = *c.PartitionTest
	}
	if c.PartitionTrain != nil {
		train = *c.PartitionTrain
	}
	if c.PartitionValidation != nil {
		validation = *c.PartitionValidation
	}
	return test, train, validation
}

// GetExportSpacing returns the column spacing of exported linestrips.
func (c *Config) GetExportSpacing() int {
	if c.ExportSpacing == nil {
		return 20
	}
	return *c.ExportSpacing
}

// GetLineWidth returns the stroke width for line primitives.
func (c *Config) GetLineWidth() float64 {
	if c.LineWidth == nil {
		return 10
	}
	return *c.LineWidth
}

// GetPointRadius returns the disc radius for point primitives.
func (c *Config) GetPointRadius() float64 {
	if c.PointRadius == nil {
		return 5
	}
	return *c.PointRadius
}
