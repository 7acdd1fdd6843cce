// Package normalize rescales raw scan intensities into [0, 1] so that
// caller-supplied thresholds are comparable across scans acquired with
// different intensity scales.
package normalize

import (
	"errors"
	"fmt"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"mrivolviz/pkg/volume"
)

// ErrDegenerateRange is returned when the intensity range selected by a
// strategy collapses to a single value. Normalization is undefined in
// that case and must fail rather than emit NaN or Inf voxels.
var ErrDegenerateRange = errors.New("degenerate intensity range")

// Strategy selects how the reference range for rescaling is chosen.
type Strategy int

const (
	// MinMax maps the volume's full observed range onto [0, 1].
	MinMax Strategy = iota

	// PercentileClip clips intensities to a low/high percentile window
	// before rescaling. Raw scans often carry extreme outliers from
	// scanner artifacts that would compress the useful dynamic range
	// under MinMax, so this is the preferred default.
	PercentileClip
)

// Default percentile bounds for PercentileClip.
const (
	DefaultLowPercentile  = 1.0
	DefaultHighPercentile = 99.0
)

// ParseStrategy maps a config/CLI name to a Strategy.
func ParseStrategy(name string) (Strategy, error) {
	switch name {
	case "minmax":
		return MinMax, nil
	case "percentile", "percentile-clip":
		return PercentileClip, nil
	default:
		return 0, fmt.Errorf("unknown normalization strategy %q (must be minmax or percentile)", name)
	}
}

// String returns the config/CLI name of the strategy.
func (s Strategy) String() string {
	switch s {
	case MinMax:
		return "minmax"
	case PercentileClip:
		return "percentile"
	default:
		return fmt.Sprintf("Strategy(%d)", int(s))
	}
}

// Normalize rescales vol into [0, 1] using the given strategy with
// default parameters. The result is a fresh volume; the input is never
// modified or aliased.
func Normalize(vol *volume.Volume, strategy Strategy) (*volume.Volume, error) {
	switch strategy {
	case MinMax:
		return MinMaxNormalize(vol)
	case PercentileClip:
		return PercentileClipNormalize(vol, DefaultLowPercentile, DefaultHighPercentile)
	default:
		return nil, fmt.Errorf("unknown normalization strategy %v", strategy)
	}
}

// MinMaxNormalize maps [min, max] of the volume linearly onto [0, 1],
// so the minimum-valued voxel maps to exactly 0 and the maximum-valued
// voxel to exactly 1. Fails with ErrDegenerateRange on a flat volume.
func MinMaxNormalize(vol *volume.Volume) (*volume.Volume, error) {
	lo := floats.Min(vol.Data)
	hi := floats.Max(vol.Data)
	return rescale(vol, lo, hi)
}

// PercentileClipNormalize clips intensities to the [loPct, hiPct]
// percentile window of the volume's intensity distribution, then maps
// the window linearly onto [0, 1]. Fails with ErrDegenerateRange when
// the two percentile values coincide.
func PercentileClipNormalize(vol *volume.Volume, loPct, hiPct float64) (*volume.Volume, error) {
	if loPct < 0 || hiPct > 100 || loPct >= hiPct {
		return nil, fmt.Errorf("invalid percentile bounds (%g, %g)", loPct, hiPct)
	}

	// stat.Quantile requires sorted input; sort a copy so the caller's
	// volume stays untouched.
	sorted := make([]float64, len(vol.Data))
	copy(sorted, vol.Data)
	sort.Float64s(sorted)

	lo := stat.Quantile(loPct/100, stat.Empirical, sorted, nil)
	hi := stat.Quantile(hiPct/100, stat.Empirical, sorted, nil)
	return rescale(vol, lo, hi)
}

// rescale clips vol to [lo, hi] and maps that window onto [0, 1].
func rescale(vol *volume.Volume, lo, hi float64) (*volume.Volume, error) {
	if hi == lo {
		return nil, fmt.Errorf("%w: all reference intensities equal %g", ErrDegenerateRange, lo)
	}

	out := vol.Clone()
	span := hi - lo
	for i, v := range out.Data {
		switch {
		case v <= lo:
			out.Data[i] = 0
		case v >= hi:
			out.Data[i] = 1
		default:
			out.Data[i] = (v - lo) / span
		}
	}
	return out, nil
}
