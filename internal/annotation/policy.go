package annotation

import (
	"errors"
	"fmt"

	"github.com/banshee-data/oct.dataset/internal/config"
	"github.com/banshee-data/oct.dataset/internal/monitoring"
	"github.com/banshee-data/oct.dataset/internal/normalize"
)

// divisibilityCrop applies the configured divisibility policy to a
// width x height source. Under skip the error wraps ErrSkip; under fail it
// is fatal.
func (p parserBase) divisibilityCrop(path string, width, height int) (normalize.Crop, error) {
	m := p.cfg.GetMultiplicity()
	policy := p.cfg.GetDivisibilityPolicy()
	c, err := normalize.ApplyPolicy(width, height, m, policy)
	switch {
	case err == nil:
		if !c.IsIdentity() {
			monitoring.Infof("%s: %dx%d not a multiple of %d, cropping to %s", path, width, height, m, c)
		}
		return c, nil
	case errors.Is(err, normalize.ErrNotDivisible) && policy == config.PolicySkip:
		return normalize.Crop{}, skipf("%s: %v", path, err)
	default:
		return normalize.Crop{}, fmt.Errorf("%s: %w", path, err)
	}
}
