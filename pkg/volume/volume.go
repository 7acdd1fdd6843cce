// Package volume provides the in-memory representation of a 3D scan
// volume and the NIfTI-1 loader that produces it. All downstream
// pipeline stages (normalization, classification, slicing) operate on
// the Volume type defined here and never read files themselves.
package volume

import (
	"fmt"
)

// Volume represents a 3D intensity volume as a 1D array in scan order:
// x varies fastest, then y, then z, so the voxel at (x, y, z) lives at
// Data[(z*Ny+y)*Nx+x]. This matches the on-disk ordering of NIfTI data.
type Volume struct {
	// Data is the voxel intensities in scan order.
	Data []float64

	// Nx, Ny, Nz are the dimensions of the volume in voxels.
	Nx, Ny, Nz int
}

// New allocates a zero-filled volume with the given dimensions.
func New(nx, ny, nz int) (*Volume, error) {
	if nx <= 0 || ny <= 0 || nz <= 0 {
		return nil, fmt.Errorf("volume dimensions must be positive, got %dx%dx%d", nx, ny, nz)
	}
	return &Volume{
		Data: make([]float64, nx*ny*nz),
		Nx:   nx,
		Ny:   ny,
		Nz:   nz,
	}, nil
}

// FromData wraps an existing intensity array. The array length must
// match the product of the dimensions; the data is not copied.
func FromData(data []float64, nx, ny, nz int) (*Volume, error) {
	if nx <= 0 || ny <= 0 || nz <= 0 {
		return nil, fmt.Errorf("volume dimensions must be positive, got %dx%dx%d", nx, ny, nz)
	}
	if len(data) != nx*ny*nz {
		return nil, fmt.Errorf("data length %d does not match dimensions %dx%dx%d", len(data), nx, ny, nz)
	}
	return &Volume{Data: data, Nx: nx, Ny: ny, Nz: nz}, nil
}

// Len returns the total number of voxels.
func (v *Volume) Len() int {
	return v.Nx * v.Ny * v.Nz
}

// Index returns the position of voxel (x, y, z) in Data.
// Bounds are not checked.
func (v *Volume) Index(x, y, z int) int {
	return (z*v.Ny+y)*v.Nx + x
}

// At returns the intensity at voxel (x, y, z). Bounds are not checked.
func (v *Volume) At(x, y, z int) float64 {
	return v.Data[(z*v.Ny+y)*v.Nx+x]
}

// Set stores an intensity at voxel (x, y, z). Bounds are not checked.
func (v *Volume) Set(x, y, z int, value float64) {
	v.Data[(z*v.Ny+y)*v.Nx+x] = value
}

// Clone returns a deep copy with freshly allocated data. Pipeline
// stages that produce a transformed volume use this so the caller's
// input is never aliased.
func (v *Volume) Clone() *Volume {
	data := make([]float64, len(v.Data))
	copy(data, v.Data)
	return &Volume{Data: data, Nx: v.Nx, Ny: v.Ny, Nz: v.Nz}
}
