// Package classify partitions a normalized volume into background,
// tissue and high-intensity region classes, extracts the non-background
// voxels as point clouds, and down-samples them to a renderable
// density.
package classify

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"golang.org/x/exp/rand"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat/sampleuv"

	"mrivolviz/pkg/volume"
)

// Validation failures reported before any extraction work starts.
var (
	ErrInvalidThreshold   = errors.New("invalid thresholds")
	ErrInvalidSampleRatio = errors.New("invalid sample ratio")
)

// Class identifies the intensity band a voxel falls into. Every voxel
// belongs to exactly one class.
type Class int

const (
	// Background covers values at or below the tissue threshold.
	Background Class = iota

	// Tissue covers the intermediate band, general anatomical material.
	Tissue

	// Region covers values above the region threshold, the
	// high-intensity band of interest (e.g. a suspected abnormality).
	Region
)

// Thresholds delimit the three intensity bands on a normalized volume.
// Valid thresholds satisfy 0 <= Tissue < Region <= 1.
type Thresholds struct {
	Tissue float64
	Region float64
}

// Validate reports ErrInvalidThreshold unless 0 <= Tissue < Region <= 1.
func (t Thresholds) Validate() error {
	if t.Tissue < 0 || t.Region > 1 || t.Tissue >= t.Region {
		return fmt.Errorf("%w: need 0 <= tissue (%g) < region (%g) <= 1", ErrInvalidThreshold, t.Tissue, t.Region)
	}
	return nil
}

// Classify assigns the class of a single normalized intensity value.
func (t Thresholds) Classify(value float64) Class {
	switch {
	case value > t.Region:
		return Region
	case value > t.Tissue:
		return Tissue
	default:
		return Background
	}
}

// Point is one voxel of a point cloud: its grid coordinates and its
// normalized intensity.
type Point struct {
	X, Y, Z   int
	Intensity float64
}

// PointSet is an ordered sequence of points of a single class, in scan
// order (x fastest, then y, then z) before and after sampling.
type PointSet []Point

// Result holds the extracted point clouds of the two non-background
// classes. An empty Region means no voxel exceeded the region
// threshold; callers should suppress rendering it, not treat it as an
// error.
type Result struct {
	Tissue PointSet
	Region PointSet
}

// DefaultFloorCount is the minimum number of points sampling keeps per
// class (when the class has that many), so sparse classes stay visible.
const DefaultFloorCount = 100

// DefaultRegionBoost is the factor applied to the sample ratio for the
// region class. The region is typically far smaller than the tissue
// class and is rendered at higher relative fidelity.
const DefaultRegionBoost = 2.0

// Options control sampling density, randomness and scan parallelism.
type Options struct {
	// SampleRatio is the fraction of each class's points kept by
	// sampling, in (0, 1]. The kept count per class is
	// min(population, max(floor, round(population*ratio))).
	SampleRatio float64

	// FloorCount overrides DefaultFloorCount when positive.
	FloorCount int

	// RegionBoost overrides DefaultRegionBoost when positive. The
	// boosted ratio may exceed 1, in which case the region class is
	// kept whole.
	RegionBoost float64

	// Seed seeds the sampling source when Src is nil. A fixed seed
	// makes the sampled output reproducible.
	Seed uint64

	// Src, when non-nil, supplies the randomness for sampling.
	Src rand.Source

	// Workers sets the number of chunks the voxel scan is split into.
	// Values below 2 select the serial scan. The scan order of the
	// resulting point sets is identical either way.
	Workers int
}

func (o Options) floor() int {
	if o.FloorCount > 0 {
		return o.FloorCount
	}
	return DefaultFloorCount
}

func (o Options) boost() float64 {
	if o.RegionBoost > 0 {
		return o.RegionBoost
	}
	return DefaultRegionBoost
}

func (o Options) source() rand.Source {
	if o.Src != nil {
		return o.Src
	}
	return rand.NewSource(o.Seed)
}

// ClassifyAndSample extracts the tissue and region point clouds of vol
// and down-samples each class independently. All validation happens up
// front; the input volume is only read.
func ClassifyAndSample(vol *volume.Volume, thr Thresholds, opts Options) (*Result, error) {
	if err := thr.Validate(); err != nil {
		return nil, err
	}
	if opts.SampleRatio <= 0 || opts.SampleRatio > 1 {
		return nil, fmt.Errorf("%w: ratio %g outside (0, 1]", ErrInvalidSampleRatio, opts.SampleRatio)
	}

	tissue, region := extract(vol, thr, opts.Workers)

	src := opts.source()
	tissue = Sample(tissue, opts.SampleRatio, opts.floor(), src)
	region = Sample(region, opts.boost()*opts.SampleRatio, opts.floor(), src)

	return &Result{Tissue: tissue, Region: region}, nil
}

// extract collects the tissue and region voxels in scan order. With
// more than one worker the volume is split into contiguous z-ranges
// scanned concurrently and concatenated back in z order, so the result
// does not depend on the worker count.
func extract(vol *volume.Volume, thr Thresholds, workers int) (tissue, region PointSet) {
	if workers > vol.Nz {
		workers = vol.Nz
	}
	if workers < 2 {
		return scanRange(vol, thr, 0, vol.Nz)
	}

	tissueParts := make([]PointSet, workers)
	regionParts := make([]PointSet, workers)

	var g errgroup.Group
	for w := 0; w < workers; w++ {
		w := w
		g.Go(func() error {
			z0 := w * vol.Nz / workers
			z1 := (w + 1) * vol.Nz / workers
			tissueParts[w], regionParts[w] = scanRange(vol, thr, z0, z1)
			return nil
		})
	}
	// Workers never fail; Wait only synchronizes.
	_ = g.Wait()

	for w := 0; w < workers; w++ {
		tissue = append(tissue, tissueParts[w]...)
		region = append(region, regionParts[w]...)
	}
	return tissue, region
}

func scanRange(vol *volume.Volume, thr Thresholds, z0, z1 int) (tissue, region PointSet) {
	for z := z0; z < z1; z++ {
		for y := 0; y < vol.Ny; y++ {
			row := vol.Data[(z*vol.Ny+y)*vol.Nx:]
			for x := 0; x < vol.Nx; x++ {
				v := row[x]
				switch thr.Classify(v) {
				case Tissue:
					tissue = append(tissue, Point{X: x, Y: y, Z: z, Intensity: v})
				case Region:
					region = append(region, Point{X: x, Y: y, Z: z, Intensity: v})
				}
			}
		}
	}
	return tissue, region
}

// Sample keeps min(len(ps), max(floor, round(len(ps)*ratio))) points of
// ps, chosen uniformly without replacement from src. When the target
// count reaches the population the set is returned unchanged; sampling
// never duplicates points. The kept points stay in their original
// order.
func Sample(ps PointSet, ratio float64, floor int, src rand.Source) PointSet {
	target := int(math.Round(float64(len(ps)) * ratio))
	if target < floor {
		target = floor
	}
	if target >= len(ps) {
		return ps
	}

	idxs := make([]int, target)
	sampleuv.WithoutReplacement(idxs, len(ps), src)
	sort.Ints(idxs)

	out := make(PointSet, target)
	for i, idx := range idxs {
		out[i] = ps[idx]
	}
	return out
}
