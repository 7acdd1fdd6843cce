package render

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"mrivolviz/pkg/classify"
)

// WritePLY writes a point set as a binary little-endian PLY point
// cloud, with the normalized intensity as a per-vertex property so
// viewers can color-map it.
func WritePLY(w io.Writer, ps classify.PointSet) error {
	bw := bufio.NewWriter(w)

	_, err := fmt.Fprintf(bw, "ply\n"+
		"format binary_little_endian 1.0\n"+
		"element vertex %d\n"+
		"property float x\n"+
		"property float y\n"+
		"property float z\n"+
		"property float intensity\n"+
		"end_header\n", len(ps))
	if err != nil {
		return err
	}

	buf := make([]float32, 4)
	for _, p := range ps {
		buf[0] = float32(p.X)
		buf[1] = float32(p.Y)
		buf[2] = float32(p.Z)
		buf[3] = float32(p.Intensity)
		if err := binary.Write(bw, binary.LittleEndian, buf); err != nil {
			return err
		}
	}

	return bw.Flush()
}

// SavePLY writes a point set to a PLY file on disk.
func SavePLY(ps classify.PointSet, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	return WritePLY(file, ps)
}
