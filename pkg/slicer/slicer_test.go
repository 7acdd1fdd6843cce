package slicer

import (
	"errors"
	"testing"

	"mrivolviz/pkg/volume"
)

// gradient builds a volume where every voxel encodes its coordinates,
// so slice orientation mistakes are visible in the values
func gradient(t *testing.T, nx, ny, nz int) *volume.Volume {
	t.Helper()
	vol, err := volume.New(nx, ny, nz)
	if err != nil {
		t.Fatalf("Failed to build test volume: %v", err)
	}
	for z := 0; z < nz; z++ {
		for y := 0; y < ny; y++ {
			for x := 0; x < nx; x++ {
				vol.Set(x, y, z, float64(x)*0.01+float64(y)*0.001+float64(z)*0.0001)
			}
		}
	}
	return vol
}

// TestExtractSliceShapes verifies slice and mask shapes for every axis
func TestExtractSliceShapes(t *testing.T) {
	vol := gradient(t, 5, 6, 7)

	cases := []struct {
		axis       Axis
		rows, cols int
	}{
		{AxisX, 6, 7}, // rows=y, cols=z
		{AxisY, 7, 5}, // rows=z, cols=x
		{AxisZ, 6, 5}, // rows=y, cols=x
	}
	for _, c := range cases {
		s, m, err := ExtractSlice(vol, c.axis, 2, 0.5)
		if err != nil {
			t.Fatalf("ExtractSlice(%s, 2) failed: %v", c.axis, err)
		}
		if s.Rows != c.rows || s.Cols != c.cols {
			t.Errorf("%s slice: expected %dx%d, got %dx%d", c.axis, c.rows, c.cols, s.Rows, s.Cols)
		}
		if m.Rows != s.Rows || m.Cols != s.Cols {
			t.Errorf("%s mask shape %dx%d differs from slice %dx%d",
				c.axis, m.Rows, m.Cols, s.Rows, s.Cols)
		}
		if len(s.Data) != s.Rows*s.Cols || len(m.Data) != len(s.Data) {
			t.Errorf("%s slice/mask data lengths inconsistent", c.axis)
		}
	}
}

// TestExtractSliceValues verifies the orientation convention per axis
func TestExtractSliceValues(t *testing.T) {
	vol := gradient(t, 5, 6, 7)

	// X slice at x=3: (row=y, col=z)
	s, _, err := ExtractSlice(vol, AxisX, 3, 0.5)
	if err != nil {
		t.Fatalf("ExtractSlice(x, 3) failed: %v", err)
	}
	for y := 0; y < 6; y++ {
		for z := 0; z < 7; z++ {
			if got, want := s.At(y, z), vol.At(3, y, z); got != want {
				t.Fatalf("X slice at (%d,%d): expected %f, got %f", y, z, want, got)
			}
		}
	}

	// Y slice at y=1: (row=z, col=x)
	s, _, err = ExtractSlice(vol, AxisY, 1, 0.5)
	if err != nil {
		t.Fatalf("ExtractSlice(y, 1) failed: %v", err)
	}
	for z := 0; z < 7; z++ {
		for x := 0; x < 5; x++ {
			if got, want := s.At(z, x), vol.At(x, 1, z); got != want {
				t.Fatalf("Y slice at (%d,%d): expected %f, got %f", z, x, want, got)
			}
		}
	}

	// Z slice at z=4: (row=y, col=x)
	s, _, err = ExtractSlice(vol, AxisZ, 4, 0.5)
	if err != nil {
		t.Fatalf("ExtractSlice(z, 4) failed: %v", err)
	}
	for y := 0; y < 6; y++ {
		for x := 0; x < 5; x++ {
			if got, want := s.At(y, x), vol.At(x, y, 4); got != want {
				t.Fatalf("Z slice at (%d,%d): expected %f, got %f", y, x, want, got)
			}
		}
	}
}

// TestOverlayMask verifies the mask marks exactly the above-threshold cells
func TestOverlayMask(t *testing.T) {
	vol := gradient(t, 4, 4, 4)
	vol.Set(1, 2, 3, 0.95)
	vol.Set(3, 0, 3, 0.99)

	s, m, err := ExtractSlice(vol, AxisZ, 3, 0.9)
	if err != nil {
		t.Fatalf("ExtractSlice failed: %v", err)
	}

	for r := 0; r < m.Rows; r++ {
		for c := 0; c < m.Cols; c++ {
			want := s.At(r, c) > 0.9
			if m.At(r, c) != want {
				t.Errorf("Mask at (%d,%d) = %v, expected %v (value %f)", r, c, m.At(r, c), want, s.At(r, c))
			}
		}
	}

	// The two planted voxels land at (row=y, col=x)
	if !m.At(2, 1) || !m.At(0, 3) {
		t.Error("Planted high-intensity voxels missing from the mask")
	}
}

// TestExtractSliceIndexOutOfRange verifies rejection instead of clamping
func TestExtractSliceIndexOutOfRange(t *testing.T) {
	vol := gradient(t, 4, 4, 4)

	cases := []struct {
		axis  Axis
		index int
	}{
		{AxisX, 100},
		{AxisX, 4},
		{AxisX, -1},
		{AxisY, 4},
		{AxisZ, 4},
	}
	for _, c := range cases {
		_, _, err := ExtractSlice(vol, c.axis, c.index, 0.5)
		if !errors.Is(err, ErrIndexOutOfRange) {
			t.Errorf("ExtractSlice(%s, %d): expected ErrIndexOutOfRange, got %v", c.axis, c.index, err)
		}
	}
}

// TestParseAxis verifies axis name mapping
func TestParseAxis(t *testing.T) {
	cases := map[string]Axis{
		"x": AxisX, "X": AxisX,
		"y": AxisY, "Y": AxisY,
		"z": AxisZ, "Z": AxisZ,
	}
	for name, want := range cases {
		got, err := ParseAxis(name)
		if err != nil {
			t.Errorf("ParseAxis(%q) failed: %v", name, err)
		}
		if got != want {
			t.Errorf("ParseAxis(%q) = %v, expected %v", name, got, want)
		}
	}

	if _, err := ParseAxis("w"); err == nil {
		t.Error("Expected error for invalid axis name, got nil")
	}
}
