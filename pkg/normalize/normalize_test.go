package normalize

import (
	"errors"
	"math"
	"testing"

	"mrivolviz/pkg/volume"
)

func testVolume(t *testing.T, values []float64, nx, ny, nz int) *volume.Volume {
	t.Helper()
	vol, err := volume.FromData(values, nx, ny, nz)
	if err != nil {
		t.Fatalf("Failed to build test volume: %v", err)
	}
	return vol
}

// TestMinMaxNormalize verifies the [0,1] mapping and its endpoints
func TestMinMaxNormalize(t *testing.T) {
	data := make([]float64, 4*4*4)
	for i := range data {
		data[i] = 100 + float64(i)*10
	}
	vol := testVolume(t, data, 4, 4, 4)

	norm, err := MinMaxNormalize(vol)
	if err != nil {
		t.Fatalf("MinMaxNormalize failed: %v", err)
	}

	if norm.Data[0] != 0 {
		t.Errorf("Minimum voxel must map to exactly 0, got %f", norm.Data[0])
	}
	if norm.Data[len(norm.Data)-1] != 1 {
		t.Errorf("Maximum voxel must map to exactly 1, got %f", norm.Data[len(norm.Data)-1])
	}
	for i, v := range norm.Data {
		if v < 0 || v > 1 {
			t.Fatalf("Voxel %d outside [0,1]: %f", i, v)
		}
	}

	// Linearity spot check: the midpoint of the input range maps to 0.5
	mid := len(data) / 2
	want := float64(mid) / float64(len(data)-1)
	if math.Abs(norm.Data[mid]-want) > 1e-12 {
		t.Errorf("Expected %f at midpoint, got %f", want, norm.Data[mid])
	}
}

// TestMinMaxNormalizeDoesNotMutateInput verifies the source volume survives
func TestMinMaxNormalizeDoesNotMutateInput(t *testing.T) {
	data := []float64{5, 10, 15, 20, 25, 30, 35, 40}
	vol := testVolume(t, data, 2, 2, 2)

	norm, err := MinMaxNormalize(vol)
	if err != nil {
		t.Fatalf("MinMaxNormalize failed: %v", err)
	}

	if vol.Data[0] != 5 || vol.Data[7] != 40 {
		t.Errorf("Input volume was mutated: %v", vol.Data)
	}
	if &norm.Data[0] == &vol.Data[0] {
		t.Error("Normalized volume aliases the input data")
	}
}

// TestMinMaxNormalizeDegenerate verifies the flat-volume failure mode
func TestMinMaxNormalizeDegenerate(t *testing.T) {
	data := make([]float64, 27)
	for i := range data {
		data[i] = 42
	}
	vol := testVolume(t, data, 3, 3, 3)

	_, err := MinMaxNormalize(vol)
	if !errors.Is(err, ErrDegenerateRange) {
		t.Errorf("Expected ErrDegenerateRange for flat volume, got %v", err)
	}
}

// TestPercentileClipNormalize verifies outlier clipping
func TestPercentileClipNormalize(t *testing.T) {
	// 1000 voxels in [0, 999] plus two extreme scanner artifacts
	data := make([]float64, 10*10*10)
	for i := range data {
		data[i] = float64(i)
	}
	data[0] = -1e9
	data[1] = 1e9
	vol := testVolume(t, data, 10, 10, 10)

	norm, err := PercentileClipNormalize(vol, 1, 99)
	if err != nil {
		t.Fatalf("PercentileClipNormalize failed: %v", err)
	}

	for i, v := range norm.Data {
		if v < 0 || v > 1 {
			t.Fatalf("Voxel %d outside [0,1]: %f", i, v)
		}
	}

	// The artifacts clip to the window edges rather than stretching the range
	if norm.Data[0] != 0 {
		t.Errorf("Low outlier must clip to 0, got %f", norm.Data[0])
	}
	if norm.Data[1] != 1 {
		t.Errorf("High outlier must clip to 1, got %f", norm.Data[1])
	}

	// A mid-range voxel keeps a usable position in the window; under
	// min-max the artifacts would have squashed it to ~0.5 exactly
	midIdx := 500
	if norm.Data[midIdx] < 0.4 || norm.Data[midIdx] > 0.6 {
		t.Errorf("Mid voxel landed at %f, expected near 0.5", norm.Data[midIdx])
	}
}

// TestPercentileClipDegenerate verifies failure when the window collapses
func TestPercentileClipDegenerate(t *testing.T) {
	data := make([]float64, 1000)
	for i := range data {
		data[i] = 7 // flat bulk; p1 == p99
	}
	data[0] = 0
	data[999] = 100
	vol := testVolume(t, data, 10, 10, 10)

	_, err := PercentileClipNormalize(vol, 1, 99)
	if !errors.Is(err, ErrDegenerateRange) {
		t.Errorf("Expected ErrDegenerateRange, got %v", err)
	}
}

// TestPercentileClipBadBounds verifies bound validation
func TestPercentileClipBadBounds(t *testing.T) {
	vol := testVolume(t, []float64{1, 2, 3, 4, 5, 6, 7, 8}, 2, 2, 2)

	for _, bounds := range [][2]float64{{-1, 99}, {1, 101}, {50, 50}, {99, 1}} {
		if _, err := PercentileClipNormalize(vol, bounds[0], bounds[1]); err == nil {
			t.Errorf("Expected error for bounds (%g, %g), got nil", bounds[0], bounds[1])
		}
	}
}

// TestNormalizeStrategyDispatch verifies the strategy entry point
func TestNormalizeStrategyDispatch(t *testing.T) {
	vol := testVolume(t, []float64{0, 1, 2, 3, 4, 5, 6, 7}, 2, 2, 2)

	for _, strat := range []Strategy{MinMax, PercentileClip} {
		norm, err := Normalize(vol, strat)
		if err != nil {
			t.Fatalf("Normalize(%v) failed: %v", strat, err)
		}
		for i, v := range norm.Data {
			if v < 0 || v > 1 {
				t.Errorf("Strategy %v: voxel %d outside [0,1]: %f", strat, i, v)
			}
		}
	}

	if _, err := Normalize(vol, Strategy(99)); err == nil {
		t.Error("Expected error for unknown strategy, got nil")
	}
}

// TestParseStrategy verifies config/CLI name mapping
func TestParseStrategy(t *testing.T) {
	cases := map[string]Strategy{
		"minmax":          MinMax,
		"percentile":      PercentileClip,
		"percentile-clip": PercentileClip,
	}
	for name, want := range cases {
		got, err := ParseStrategy(name)
		if err != nil {
			t.Errorf("ParseStrategy(%q) failed: %v", name, err)
		}
		if got != want {
			t.Errorf("ParseStrategy(%q) = %v, expected %v", name, got, want)
		}
	}

	if _, err := ParseStrategy("zscore"); err == nil {
		t.Error("Expected error for unknown strategy name, got nil")
	}
}
