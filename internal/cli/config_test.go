package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"

	"github.com/openappraisal/appraisal-engine/internal/appraisal"
)

func TestLoadEngineConfigDefaultsWithoutFile(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	cfg, err := loadEngineConfig()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	want := appraisal.DefaultConfig()
	if cfg.MinComparables != want.MinComparables || cfg.NetAdjustmentCap != want.NetAdjustmentCap {
		t.Fatalf("expected defaults, got %+v", cfg)
	}
}

func TestLoadEngineConfigOverlaysFile(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("min_comparables: 5\nselect_max: 4\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	viper.SetConfigFile(path)
	if err := viper.ReadInConfig(); err != nil {
		t.Fatalf("read config: %v", err)
	}

	cfg, err := loadEngineConfig()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.MinComparables != 5 || cfg.SelectMax != 4 {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
	// Untouched fields keep their defaults.
	if cfg.NetAdjustmentCap != appraisal.DefaultConfig().NetAdjustmentCap {
		t.Fatalf("unset field lost its default: %+v", cfg)
	}
}
