// Package slicer extracts 2D planar cross-sections from a normalized
// volume and the boolean overlay marking its high-intensity region, for
// multi-panel slice display.
package slicer

import (
	"errors"
	"fmt"

	"mrivolviz/pkg/volume"
)

// ErrIndexOutOfRange is returned when the slice index does not fall
// inside the volume along the chosen axis. Out-of-range indices are
// rejected, never clamped.
var ErrIndexOutOfRange = errors.New("slice index out of range")

// Axis selects the principal axis a slice is taken perpendicular to.
type Axis int

const (
	AxisX Axis = iota
	AxisY
	AxisZ
)

// ParseAxis maps a config/CLI axis name to an Axis.
func ParseAxis(name string) (Axis, error) {
	switch name {
	case "x", "X":
		return AxisX, nil
	case "y", "Y":
		return AxisY, nil
	case "z", "Z":
		return AxisZ, nil
	default:
		return 0, fmt.Errorf("invalid axis %q (must be x, y, or z)", name)
	}
}

func (a Axis) String() string {
	switch a {
	case AxisX:
		return "x"
	case AxisY:
		return "y"
	case AxisZ:
		return "z"
	default:
		return fmt.Sprintf("Axis(%d)", int(a))
	}
}

// Slice is a 2D cross-section of a volume in (row, col) order.
type Slice struct {
	Data []float64
	Rows int
	Cols int
}

// At returns the value at (row, col). Bounds are not checked.
func (s *Slice) At(r, c int) float64 {
	return s.Data[r*s.Cols+c]
}

// Mask is a boolean overlay with the same shape and orientation as the
// slice it was derived from.
type Mask struct {
	Data []bool
	Rows int
	Cols int
}

// At returns the mask bit at (row, col). Bounds are not checked.
func (m *Mask) At(r, c int) bool {
	return m.Data[r*m.Cols+c]
}

// ExtractSlice takes the cross-section of vol perpendicular to axis at
// the given index, together with the overlay mask that is true where
// the value exceeds regionThreshold. Slice and mask always share shape
// and orientation.
//
// Orientation convention, fixed across axes so the three views compose
// consistently:
//
//	X: rows = y, cols = z
//	Y: rows = z, cols = x
//	Z: rows = y, cols = x
func ExtractSlice(vol *volume.Volume, axis Axis, index int, regionThreshold float64) (*Slice, *Mask, error) {
	if index < 0 || index >= axisLen(vol, axis) {
		return nil, nil, fmt.Errorf("%w: index %d on %s axis of length %d",
			ErrIndexOutOfRange, index, axis, axisLen(vol, axis))
	}

	var s *Slice
	switch axis {
	case AxisX:
		s = &Slice{Rows: vol.Ny, Cols: vol.Nz, Data: make([]float64, vol.Ny*vol.Nz)}
		for y := 0; y < vol.Ny; y++ {
			for z := 0; z < vol.Nz; z++ {
				s.Data[y*s.Cols+z] = vol.At(index, y, z)
			}
		}
	case AxisY:
		s = &Slice{Rows: vol.Nz, Cols: vol.Nx, Data: make([]float64, vol.Nz*vol.Nx)}
		for z := 0; z < vol.Nz; z++ {
			for x := 0; x < vol.Nx; x++ {
				s.Data[z*s.Cols+x] = vol.At(x, index, z)
			}
		}
	case AxisZ:
		s = &Slice{Rows: vol.Ny, Cols: vol.Nx, Data: make([]float64, vol.Ny*vol.Nx)}
		for y := 0; y < vol.Ny; y++ {
			for x := 0; x < vol.Nx; x++ {
				s.Data[y*s.Cols+x] = vol.At(x, y, index)
			}
		}
	default:
		return nil, nil, fmt.Errorf("invalid axis %v", axis)
	}

	m := &Mask{Rows: s.Rows, Cols: s.Cols, Data: make([]bool, len(s.Data))}
	for i, v := range s.Data {
		m.Data[i] = v > regionThreshold
	}
	return s, m, nil
}

func axisLen(vol *volume.Volume, axis Axis) int {
	switch axis {
	case AxisX:
		return vol.Nx
	case AxisY:
		return vol.Ny
	case AxisZ:
		return vol.Nz
	default:
		return 0
	}
}
