package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestEmptyConfigGetters(t *testing.T) {
	cfg := Empty()

	if got := cfg.GetMultiplicity(); got != 16 {
		t.Errorf("GetMultiplicity() = %d, want 16", got)
	}
	if got := cfg.GetMinWidth(); got != 780 {
		t.Errorf("GetMinWidth() = %d, want 780", got)
	}
	if s, e := cfg.GetVisualCoreLeft(); s != 53 || e != 245 {
		t.Errorf("GetVisualCoreLeft() = (%d, %d), want (53, 245)", s, e)
	}
	if s, e := cfg.GetVisualCoreRight(); s != 753 || e != 945 {
		t.Errorf("GetVisualCoreRight() = (%d, %d), want (753, 945)", s, e)
	}
	if got := cfg.GetDivisibilityPolicy(); got != PolicyCrop {
		t.Errorf("GetDivisibilityPolicy() = %q, want %q", got, PolicyCrop)
	}
	if cfg.GetRGBMasks() {
		t.Error("GetRGBMasks() = true, want false")
	}
	test, train, val := cfg.GetPartitions()
	if test != 0.3 || train != 0.56 || val != 0.14 {
		t.Errorf("GetPartitions() = (%v, %v, %v)", test, train, val)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("empty config should validate: %v", err)
	}
}

func TestDefaultsMatchDefaultsFile(t *testing.T) {
	fromFile := MustLoadDefault()
	builtin := Defaults()

	if fromFile.GetMultiplicity() != builtin.GetMultiplicity() {
		t.Errorf("multiplicity: file %d, builtin %d", fromFile.GetMultiplicity(), builtin.GetMultiplicity())
	}
	if fromFile.GetMinWidth() != builtin.GetMinWidth() {
		t.Errorf("min_width: file %d, builtin %d", fromFile.GetMinWidth(), builtin.GetMinWidth())
	}
	if fromFile.GetLabelmeLayerSet() != builtin.GetLabelmeLayerSet() {
		t.Errorf("labelme_layer_set: file %q, builtin %q", fromFile.GetLabelmeLayerSet(), builtin.GetLabelmeLayerSet())
	}
	if fromFile.GetTrimMultiplicity() != builtin.GetTrimMultiplicity() {
		t.Errorf("trim_multiplicity: file %d, builtin %d", fromFile.GetTrimMultiplicity(), builtin.GetTrimMultiplicity())
	}
	for _, set := range []string{LayersVisualFunctionCore, LayersWayneState} {
		a, err := fromFile.LayerSet(set)
		if err != nil {
			t.Fatalf("LayerSet(%q) from file: %v", set, err)
		}
		b, _ := builtin.LayerSet(set)
		if strings.Join(a, ",") != strings.Join(b, ",") {
			t.Errorf("layer set %q: file %v, builtin %v", set, a, b)
		}
	}
}

func TestLoadJSON(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "dataset.json")
	body := `{
  "multiplicity": 32,
  "min_width": 640,
  "divisibility_policy": "skip",
  "layer_names": {"custom": ["A", "B"]}
}`
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.GetMultiplicity() != 32 {
		t.Errorf("GetMultiplicity() = %d, want 32", cfg.GetMultiplicity())
	}
	if cfg.GetMinWidth() != 640 {
		t.Errorf("GetMinWidth() = %d, want 640", cfg.GetMinWidth())
	}
	if cfg.GetDivisibilityPolicy() != PolicySkip {
		t.Errorf("GetDivisibilityPolicy() = %q, want skip", cfg.GetDivisibilityPolicy())
	}
	layers, err := cfg.LayerSet("custom")
	if err != nil || len(layers) != 2 {
		t.Errorf("LayerSet(custom) = %v, %v", layers, err)
	}
	// Unset fields keep defaults.
	if cfg.GetVisualCoreSamples() != 20 {
		t.Errorf("GetVisualCoreSamples() = %d, want 20", cfg.GetVisualCoreSamples())
	}
}

func TestLoadYAML(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "dataset.yaml")
	body := "multiplicity: 8\nrgb_masks: true\nexport_spacing: 5\n"
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.GetMultiplicity() != 8 {
		t.Errorf("GetMultiplicity() = %d, want 8", cfg.GetMultiplicity())
	}
	if !cfg.GetRGBMasks() {
		t.Error("GetRGBMasks() = false, want true")
	}
	if cfg.GetExportSpacing() != 5 {
		t.Errorf("GetExportSpacing() = %d, want 5", cfg.GetExportSpacing())
	}
}

func TestLoadRejects(t *testing.T) {
	tmpDir := t.TempDir()

	tests := []struct {
		name    string
		file    string
		body    string
		wantErr string
	}{
		{"bad extension", "cfg.txt", "{}", "extension"},
		{"bad json", "cfg.json", "{", "parse config JSON"},
		{"zero multiplicity", "cfg.json", `{"multiplicity": 0}`, "multiplicity must be positive"},
		{"unknown policy", "cfg.json", `{"divisibility_policy": "pad"}`, "divisibility_policy"},
		{"uneven crops", "cfg.json", `{"visual_core_right_end": 900}`, "equal widths"},
		{"partitions", "cfg.json", `{"partition_test": 0.5}`, "add up to 1"},
		{"empty layer set", "cfg.json", `{"layer_names": {"x": []}}`, "is empty"},
		{"unknown labelme set", "cfg.json", `{"labelme_layer_set": "nope"}`, "labelme_layer_set"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(tmpDir, tt.file)
			if err := os.WriteFile(path, []byte(tt.body), 0644); err != nil {
				t.Fatalf("failed to write config: %v", err)
			}
			_, err := Load(path)
			if err == nil {
				t.Fatalf("expected error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLayerSetForBoundaries(t *testing.T) {
	cfg := Empty()

	three, err := cfg.LayerSetForBoundaries(3)
	if err != nil || len(three) != 3 {
		t.Errorf("LayerSetForBoundaries(3) = %v, %v", three, err)
	}
	six, err := cfg.LayerSetForBoundaries(6)
	if err != nil || len(six) != 6 {
		t.Errorf("LayerSetForBoundaries(6) = %v, %v", six, err)
	}
	if _, err := cfg.LayerSetForBoundaries(4); err == nil {
		t.Error("expected error for 4 boundaries")
	}
	if _, err := cfg.LayerSet("nope"); err == nil {
		t.Error("expected error for unknown layer set")
	}
}

func TestLayerSetReturnsCopy(t *testing.T) {
	cfg := Defaults()
	a, _ := cfg.LayerSet(LayersWayneState)
	a[0] = "changed"
	b, _ := cfg.LayerSet(LayersWayneState)
	if b[0] == "changed" {
		t.Error("LayerSet should return a copy")
	}
}
