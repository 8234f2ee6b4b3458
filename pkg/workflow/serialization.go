package workflow

import (
	"fmt"
	"strings"
)

// DefaultImage is the baseline container image used when no -i flag is given.
const DefaultImage = "ghcr.io/me/flowctl:latest"

// Image is a validated container image reference.
type Image struct {
	Name string `json:"name"` // logical name, "default" for the primary image
	FQN  string `json:"fqn"`  // fully qualified repository name
	Tag  string `json:"tag"`
}

// Ref returns the image reference as "fqn:tag".
func (i Image) Ref() string {
	return i.FQN + ":" + i.Tag
}

// ImageConfig holds the default image plus any named alternates.
type ImageConfig struct {
	Default Image   `json:"default"`
	Others  []Image `json:"others,omitempty"`
}

// ParseImage normalizes a single -i value. Accepted forms:
//
//	fqn:tag            (named "default")
//	name=fqn:tag
//
// The tag is required so registrations are reproducible.
func ParseImage(s string) (Image, error) {
	name := "default"
	ref := s
	if before, after, found := strings.Cut(s, "="); found {
		if before == "" || after == "" {
			return Image{}, &ValidationError{Message: fmt.Sprintf("invalid image %q, expected name=fqn:tag", s)}
		}
		name, ref = before, after
	}

	idx := strings.LastIndex(ref, ":")
	if idx <= 0 || idx == len(ref)-1 {
		return Image{}, &ValidationError{Message: fmt.Sprintf("invalid image %q, expected fqn:tag", s)}
	}
	return Image{Name: name, FQN: ref[:idx], Tag: ref[idx+1:]}, nil
}

// ValidateImages parses the repeatable -i values into an ImageConfig.
// Exactly one image may claim the "default" name; duplicates of any name
// are rejected.
func ValidateImages(values []string) (ImageConfig, error) {
	if len(values) == 0 {
		values = []string{DefaultImage}
	}

	var cfg ImageConfig
	seen := make(map[string]bool, len(values))
	for _, v := range values {
		img, err := ParseImage(v)
		if err != nil {
			return ImageConfig{}, err
		}
		if seen[img.Name] {
			return ImageConfig{}, &ValidationError{Message: fmt.Sprintf("duplicate image name %q", img.Name)}
		}
		seen[img.Name] = true
		if img.Name == "default" {
			cfg.Default = img
		} else {
			cfg.Others = append(cfg.Others, img)
		}
	}

	if cfg.Default.FQN == "" {
		def, err := ParseImage(DefaultImage)
		if err != nil {
			return ImageConfig{}, err
		}
		cfg.Default = def
	}
	return cfg, nil
}

// FastSettings configures script-mode distribution: where the code archive
// lands inside the image and the internal address it is fetched from.
type FastSettings struct {
	Enabled              bool   `json:"enabled"`
	DestinationDir       string `json:"destination_dir"`
	DistributionLocation string `json:"distribution_location"`
}

// SerializationSettings is passed explicitly to the loader and to
// registration. There is no ambient settings context.
type SerializationSettings struct {
	Images ImageConfig  `json:"images"`
	Fast   FastSettings `json:"fast"`
}
