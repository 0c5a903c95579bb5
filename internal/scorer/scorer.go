// Package scorer loads and serves the frozen risk-scoring artifact: an
// opaque, versioned pure function from a feature vector to a probability of
// default in [0,1].
package scorer

import (
	"context"
	"errors"
	"fmt"

	"github.com/priyamvad/credflow/internal/features"
)

// ErrUnavailable is returned while no valid scoring artifact is loaded. The
// engine keeps running in degraded mode and issues Error decisions.
var ErrUnavailable = errors.New("scoring artifact not loaded")

// SchemaError reports a feature vector that cannot be reordered to the
// artifact's training column order.
type SchemaError struct {
	Missing []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("feature schema mismatch: missing columns %v", e.Missing)
}

// Scorer is the external risk-scoring contract consumed by the waterfall.
type Scorer interface {
	// Score returns the probability of default for a feature vector.
	Score(ctx context.Context, v *features.Vector) (float64, error)
}
