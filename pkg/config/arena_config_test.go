package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultArenaConfigValid(t *testing.T) {
	if err := DefaultArenaConfig().Validate(); err != nil {
		t.Fatalf("default arena should be valid: %v", err)
	}
}

func TestLoadArenaConfig(t *testing.T) {
	tests := []struct {
		name          string
		yamlContent   string
		wantErr       string
		wantPlatforms int
		wantGravity   float64
	}{
		{
			name:          "platforms replace defaults",
			yamlContent:   "gravity: 300\nplatforms:\n  - {minX: 0, minY: 0, maxX: 10, maxY: 5}\n",
			wantPlatforms: 1,
			wantGravity:   300,
		},
		{
			name:          "no platforms",
			yamlContent:   "groundY: -10\n",
			wantPlatforms: 0,
			wantGravity:   600,
		},
		{
			name:        "empty platform",
			yamlContent: "platforms:\n  - {minX: 5, minY: 0, maxX: 5, maxY: 5}\n",
			wantErr:     "platform 0",
		},
		{
			name:        "inverted bounds",
			yamlContent: "minX: 10\nmaxX: -10\n",
			wantErr:     "minX",
		},
		{
			name:        "negative gravity",
			yamlContent: "gravity: -1\n",
			wantErr:     "gravity",
		},
		{
			name:        "broken yaml",
			yamlContent: "platforms: [",
			wantErr:     "parse",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "arena.yaml")
			if err := os.WriteFile(path, []byte(tt.yamlContent), 0o644); err != nil {
				t.Fatal(err)
			}

			cfg, err := LoadArenaConfig(path)
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("LoadArenaConfig() error = %v, want containing %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("LoadArenaConfig() error: %v", err)
			}
			if len(cfg.Platforms) != tt.wantPlatforms {
				t.Errorf("platforms = %d, want %d", len(cfg.Platforms), tt.wantPlatforms)
			}
			if cfg.Gravity != tt.wantGravity {
				t.Errorf("gravity = %v, want %v", cfg.Gravity, tt.wantGravity)
			}
		})
	}
}

func TestLoadArenaConfigMissingFile(t *testing.T) {
	if _, err := LoadArenaConfig(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("missing file should be an error")
	}
}

// TestShippedArena data/arena.yaml 应能通过校验
func TestShippedArena(t *testing.T) {
	cfg, err := LoadArenaConfig("../../data/arena.yaml")
	if err != nil {
		t.Fatalf("shipped arena: %v", err)
	}
	if len(cfg.Platforms) != 2 {
		t.Errorf("shipped arena platforms = %d, want 2", len(cfg.Platforms))
	}
}
