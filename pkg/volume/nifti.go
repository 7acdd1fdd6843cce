package volume

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"
)

// ErrFormat indicates a file that is not a readable single-file NIfTI-1
// volume. I/O failures are returned as-is, not wrapped in ErrFormat.
var ErrFormat = errors.New("invalid NIfTI file")

// niftiHeaderSize is the fixed NIfTI-1 header length in bytes.
const niftiHeaderSize = 348

// niftiHeader mirrors the on-disk NIfTI-1 header layout. Field order
// and sizes must not change; the struct is decoded directly with
// encoding/binary.
type niftiHeader struct {
	SizeofHdr     int32
	DataTypeName  [10]byte
	DBName        [18]byte
	Extents       int32
	SessionError  int16
	Regular       byte
	DimInfo       byte
	Dim           [8]int16
	IntentP1      float32
	IntentP2      float32
	IntentP3      float32
	IntentCode    int16
	Datatype      int16
	Bitpix        int16
	SliceStart    int16
	Pixdim        [8]float32
	VoxOffset     float32
	SclSlope      float32
	SclInter      float32
	SliceEnd      int16
	SliceCode     byte
	XyztUnits     byte
	CalMax        float32
	CalMin        float32
	SliceDuration float32
	Toffset       float32
	Glmax         int32
	Glmin         int32
	Descrip       [80]byte
	AuxFile       [24]byte
	QformCode     int16
	SformCode     int16
	QuaternB      float32
	QuaternC      float32
	QuaternD      float32
	QoffsetX      float32
	QoffsetY      float32
	QoffsetZ      float32
	SrowX         [4]float32
	SrowY         [4]float32
	SrowZ         [4]float32
	IntentName    [16]byte
	Magic         [4]byte
}

// NIfTI-1 datatype codes for the voxel formats the loader accepts.
const (
	dtUint8   = 2
	dtInt16   = 4
	dtInt32   = 8
	dtFloat32 = 16
	dtFloat64 = 64
	dtInt8    = 256
	dtUint16  = 512
	dtUint32  = 768
)

// LoadNIfTI reads a single-file NIfTI-1 volume (.nii or .nii.gz) and
// returns it as a float64 Volume. Integer and float32 voxel data are
// converted, and the header's scl_slope/scl_inter scaling is applied,
// so intensities come out the same way nibabel reports them.
func LoadNIfTI(path string) (*Volume, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(strings.ToLower(path), ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("%w: bad gzip stream: %v", ErrFormat, err)
		}
		defer gz.Close()
		r = gz
	}

	return ReadNIfTI(r)
}

// ReadNIfTI decodes an uncompressed NIfTI-1 stream.
func ReadNIfTI(r io.Reader) (*Volume, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if len(raw) < niftiHeaderSize {
		return nil, fmt.Errorf("%w: file shorter than header (%d bytes)", ErrFormat, len(raw))
	}

	// The header stores its own size; it doubles as the endianness probe.
	order, err := detectByteOrder(raw)
	if err != nil {
		return nil, err
	}

	var hdr niftiHeader
	if err := binary.Read(bytes.NewReader(raw[:niftiHeaderSize]), order, &hdr); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFormat, err)
	}

	if string(hdr.Magic[:3]) == "ni1" {
		return nil, fmt.Errorf("%w: two-file (.hdr/.img) NIfTI pairs are not supported", ErrFormat)
	}
	if string(hdr.Magic[:3]) != "n+1" {
		return nil, fmt.Errorf("%w: bad magic %q", ErrFormat, hdr.Magic[:3])
	}

	nx, ny, nz, err := volumeDims(hdr.Dim)
	if err != nil {
		return nil, err
	}

	offset := int(hdr.VoxOffset)
	if offset < niftiHeaderSize || offset > len(raw) {
		return nil, fmt.Errorf("%w: vox_offset %d out of range", ErrFormat, offset)
	}

	data, err := decodeVoxels(raw[offset:], order, hdr.Datatype, nx*ny*nz)
	if err != nil {
		return nil, err
	}

	applyScaling(data, float64(hdr.SclSlope), float64(hdr.SclInter))

	return FromData(data, nx, ny, nz)
}

func detectByteOrder(raw []byte) (binary.ByteOrder, error) {
	if binary.LittleEndian.Uint32(raw[:4]) == niftiHeaderSize {
		return binary.LittleEndian, nil
	}
	if binary.BigEndian.Uint32(raw[:4]) == niftiHeaderSize {
		return binary.BigEndian, nil
	}
	return nil, fmt.Errorf("%w: sizeof_hdr is not %d in either byte order", ErrFormat, niftiHeaderSize)
}

// volumeDims extracts the spatial dimensions. Trailing dimensions of
// size 1 are tolerated, but a real fourth dimension (a time series) is
// rejected.
func volumeDims(dim [8]int16) (nx, ny, nz int, err error) {
	ndim := int(dim[0])
	if ndim < 3 || ndim > 7 {
		return 0, 0, 0, fmt.Errorf("%w: expected a 3D volume, got dim[0]=%d", ErrFormat, ndim)
	}
	for i := 4; i <= ndim; i++ {
		if dim[i] > 1 {
			return 0, 0, 0, fmt.Errorf("%w: %dD volumes are not supported (dim[%d]=%d)", ErrFormat, ndim, i, dim[i])
		}
	}
	nx, ny, nz = int(dim[1]), int(dim[2]), int(dim[3])
	if nx <= 0 || ny <= 0 || nz <= 0 {
		return 0, 0, 0, fmt.Errorf("%w: non-positive dimensions %dx%dx%d", ErrFormat, nx, ny, nz)
	}
	return nx, ny, nz, nil
}

func decodeVoxels(raw []byte, order binary.ByteOrder, datatype int16, n int) ([]float64, error) {
	size, ok := voxelSize(datatype)
	if !ok {
		return nil, fmt.Errorf("%w: unsupported datatype code %d", ErrFormat, datatype)
	}
	if len(raw) < n*size {
		return nil, fmt.Errorf("%w: voxel data truncated: need %d bytes, have %d", ErrFormat, n*size, len(raw))
	}

	data := make([]float64, n)
	switch datatype {
	case dtUint8:
		for i := 0; i < n; i++ {
			data[i] = float64(raw[i])
		}
	case dtInt8:
		for i := 0; i < n; i++ {
			data[i] = float64(int8(raw[i]))
		}
	case dtInt16:
		for i := 0; i < n; i++ {
			data[i] = float64(int16(order.Uint16(raw[i*2:])))
		}
	case dtUint16:
		for i := 0; i < n; i++ {
			data[i] = float64(order.Uint16(raw[i*2:]))
		}
	case dtInt32:
		for i := 0; i < n; i++ {
			data[i] = float64(int32(order.Uint32(raw[i*4:])))
		}
	case dtUint32:
		for i := 0; i < n; i++ {
			data[i] = float64(order.Uint32(raw[i*4:]))
		}
	case dtFloat32:
		for i := 0; i < n; i++ {
			data[i] = float64(math.Float32frombits(order.Uint32(raw[i*4:])))
		}
	case dtFloat64:
		for i := 0; i < n; i++ {
			data[i] = math.Float64frombits(order.Uint64(raw[i*8:]))
		}
	}
	return data, nil
}

func voxelSize(datatype int16) (int, bool) {
	switch datatype {
	case dtUint8, dtInt8:
		return 1, true
	case dtInt16, dtUint16:
		return 2, true
	case dtInt32, dtUint32, dtFloat32:
		return 4, true
	case dtFloat64:
		return 8, true
	}
	return 0, false
}

// applyScaling applies the header's affine intensity scaling. A slope
// of zero means "no scaling stored" per the NIfTI-1 standard.
func applyScaling(data []float64, slope, inter float64) {
	if slope == 0 || (slope == 1 && inter == 0) {
		return
	}
	for i := range data {
		data[i] = data[i]*slope + inter
	}
}
