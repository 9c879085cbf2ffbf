// Kursor - Hybrid Event and Course Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kursor

package recommend

import "testing"

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("DefaultConfig().Validate() error = %v", err)
	}
	if cfg.DefaultLimit != 5 || cfg.MaxLimit != 50 || cfg.HybridWeight != 0.7 {
		t.Errorf("DefaultConfig() = %+v", cfg)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"valid", Config{DefaultLimit: 5, MaxLimit: 50, HybridWeight: 0.7}, false},
		{"weight zero is valid", Config{DefaultLimit: 5, MaxLimit: 50, HybridWeight: 0}, false},
		{"weight one is valid", Config{DefaultLimit: 5, MaxLimit: 50, HybridWeight: 1}, false},
		{"weight below range", Config{DefaultLimit: 5, MaxLimit: 50, HybridWeight: -0.1}, true},
		{"weight above range", Config{DefaultLimit: 5, MaxLimit: 50, HybridWeight: 1.1}, true},
		{"zero default limit", Config{DefaultLimit: 0, MaxLimit: 50, HybridWeight: 0.5}, true},
		{"max below default", Config{DefaultLimit: 10, MaxLimit: 5, HybridWeight: 0.5}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfigClone(t *testing.T) {
	orig := DefaultConfig()
	clone := orig.Clone()
	clone.HybridWeight = 0.1
	if orig.HybridWeight == 0.1 {
		t.Error("Clone() shares state with the original")
	}
}
