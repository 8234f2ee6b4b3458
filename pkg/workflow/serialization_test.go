package workflow

import "testing"

func TestParseImage(t *testing.T) {
	tests := []struct {
		input   string
		name    string
		fqn     string
		tag     string
		wantErr bool
	}{
		{"ghcr.io/acme/runner:v1", "default", "ghcr.io/acme/runner", "v1", false},
		{"gpu=ghcr.io/acme/runner-gpu:v1", "gpu", "ghcr.io/acme/runner-gpu", "v1", false},
		{"noTag", "", "", "", true},
		{"trailing:", "", "", "", true},
		{"=ref:v1", "", "", "", true},
	}

	for _, tt := range tests {
		img, err := ParseImage(tt.input)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseImage(%q): expected error, got %+v", tt.input, img)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseImage(%q): %v", tt.input, err)
			continue
		}
		if img.Name != tt.name || img.FQN != tt.fqn || img.Tag != tt.tag {
			t.Errorf("ParseImage(%q) = %+v", tt.input, img)
		}
	}
}

func TestValidateImages(t *testing.T) {
	// No values: baseline default image.
	cfg, err := ValidateImages(nil)
	if err != nil {
		t.Fatalf("ValidateImages(nil): %v", err)
	}
	if cfg.Default.Ref() != DefaultImage {
		t.Errorf("default image = %q, want %q", cfg.Default.Ref(), DefaultImage)
	}

	// Named alternate plus explicit default.
	cfg, err = ValidateImages([]string{"ghcr.io/acme/runner:v2", "gpu=ghcr.io/acme/gpu:v2"})
	if err != nil {
		t.Fatalf("ValidateImages: %v", err)
	}
	if cfg.Default.FQN != "ghcr.io/acme/runner" {
		t.Errorf("default FQN = %q", cfg.Default.FQN)
	}
	if len(cfg.Others) != 1 || cfg.Others[0].Name != "gpu" {
		t.Errorf("others = %+v", cfg.Others)
	}

	// Only named images: default falls back to the baseline.
	cfg, err = ValidateImages([]string{"gpu=ghcr.io/acme/gpu:v2"})
	if err != nil {
		t.Fatalf("ValidateImages: %v", err)
	}
	if cfg.Default.Ref() != DefaultImage {
		t.Errorf("default image = %q, want baseline", cfg.Default.Ref())
	}

	// Duplicate names are rejected.
	if _, err := ValidateImages([]string{"a:v1", "a:v2"}); err == nil {
		t.Error("duplicate default images accepted")
	}
}
