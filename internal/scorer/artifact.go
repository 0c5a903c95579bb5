package scorer

import (
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/priyamvad/credflow/internal/features"
)

// FeatureWeight binds one named feature to its trained coefficient. Order in
// the artifact file is the training column order.
type FeatureWeight struct {
	Name   string  `yaml:"name"`
	Weight float64 `yaml:"weight"`
}

// Artifact is a frozen logistic scoring model exported at training time.
// It is immutable after load; hot-swaps replace the whole value.
type Artifact struct {
	Version   string          `yaml:"version"`
	Kind      string          `yaml:"kind"`
	Intercept float64         `yaml:"intercept"`
	Features  []FeatureWeight `yaml:"features"`
}

// ParseArtifact decodes and validates an artifact document.
func ParseArtifact(data []byte) (*Artifact, error) {
	var a Artifact
	if err := yaml.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("parse artifact: %w", err)
	}
	if err := a.validate(); err != nil {
		return nil, err
	}
	return &a, nil
}

// LoadArtifact reads and parses an artifact file.
func LoadArtifact(path string) (*Artifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read artifact %s: %w", path, err)
	}
	return ParseArtifact(data)
}

func (a *Artifact) validate() error {
	if a.Version == "" {
		return fmt.Errorf("artifact: version is required")
	}
	if a.Kind != "logistic" {
		return fmt.Errorf("artifact: unsupported kind %q", a.Kind)
	}
	if len(a.Features) == 0 {
		return fmt.Errorf("artifact: features must not be empty")
	}
	seen := make(map[string]struct{}, len(a.Features))
	for _, f := range a.Features {
		if f.Name == "" {
			return fmt.Errorf("artifact: feature with empty name")
		}
		if _, dup := seen[f.Name]; dup {
			return fmt.Errorf("artifact: duplicate feature %q", f.Name)
		}
		seen[f.Name] = struct{}{}
	}
	return nil
}

// Columns returns the training column order.
func (a *Artifact) Columns() []string {
	out := make([]string, len(a.Features))
	for i, f := range a.Features {
		out[i] = f.Name
	}
	return out
}

// Score reorders the vector to the training column order and evaluates the
// logistic model. Fields the artifact expects but the vector lacks produce a
// *SchemaError; the result is always in (0, 1).
func (a *Artifact) Score(v *features.Vector) (float64, error) {
	z := a.Intercept
	var missing []string
	for _, f := range a.Features {
		x, ok := v.Get(f.Name)
		if !ok {
			missing = append(missing, f.Name)
			continue
		}
		z += f.Weight * x
	}
	if len(missing) > 0 {
		return 0, &SchemaError{Missing: missing}
	}
	return 1.0 / (1.0 + math.Exp(-z)), nil
}
