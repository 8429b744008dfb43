package grid

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// Errors returned by grid constructors and accessors.
var (
	ErrShape  = errors.New("grid: invalid shape")
	ErrEmpty  = errors.New("grid: no valid samples")
	ErrRagged = errors.New("grid: rows have different lengths")
)

// Image is a row-major 2D array with an optional mask.
//
// X is the column index and Y the row index. A true Mask entry excludes the
// sample from fitting and from all statistics.
type Image struct {
	Rows int
	Cols int
	Data []float64
	Mask []bool
}

// NewImage returns a zero-filled rows x cols image.
func NewImage(rows, cols int) (*Image, error) {
	if rows <= 0 || cols <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrShape, rows, cols)
	}

	return &Image{Rows: rows, Cols: cols, Data: make([]float64, rows*cols)}, nil
}

// ImageFromRows copies a slice of equally long rows into a new image.
func ImageFromRows(rows [][]float64) (*Image, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, fmt.Errorf("%w: empty input", ErrShape)
	}

	img, err := NewImage(len(rows), len(rows[0]))
	if err != nil {
		return nil, err
	}

	for y, row := range rows {
		if len(row) != img.Cols {
			return nil, fmt.Errorf("%w: row %d has %d values, want %d", ErrRagged, y, len(row), img.Cols)
		}

		copy(img.Data[y*img.Cols:], row)
	}

	return img, nil
}

// At returns the value at column x, row y.
func (im *Image) At(x, y int) float64 {
	return im.Data[y*im.Cols+x]
}

// Set stores v at column x, row y.
func (im *Image) Set(x, y int, v float64) {
	im.Data[y*im.Cols+x] = v
}

// SetMasked marks (or unmarks) the sample at column x, row y.
func (im *Image) SetMasked(x, y int, masked bool) {
	if im.Mask == nil {
		if !masked {
			return
		}

		im.Mask = make([]bool, len(im.Data))
	}

	im.Mask[y*im.Cols+x] = masked
}

// Masked reports whether flat index i is excluded.
func (im *Image) Masked(i int) bool {
	return im.Mask != nil && im.Mask[i]
}

// Valid returns the number of unmasked samples.
func (im *Image) Valid() int {
	if im.Mask == nil {
		return len(im.Data)
	}

	n := 0
	for _, m := range im.Mask {
		if !m {
			n++
		}
	}

	return n
}

// Compressed returns the unmasked values in row-major order.
func (im *Image) Compressed() []float64 {
	out := make([]float64, 0, im.Valid())
	for i, v := range im.Data {
		if !im.Masked(i) {
			out = append(out, v)
		}
	}

	return out
}

// Clone returns a deep copy.
func (im *Image) Clone() *Image {
	out := &Image{Rows: im.Rows, Cols: im.Cols, Data: append([]float64(nil), im.Data...)}
	if im.Mask != nil {
		out.Mask = append([]bool(nil), im.Mask...)
	}

	return out
}

// Validate checks the shape invariants.
func (im *Image) Validate() error {
	if im == nil || im.Rows <= 0 || im.Cols <= 0 {
		return fmt.Errorf("%w: empty image", ErrShape)
	}

	if len(im.Data) != im.Rows*im.Cols {
		return fmt.Errorf("%w: %d values for %dx%d", ErrShape, len(im.Data), im.Rows, im.Cols)
	}

	if im.Mask != nil && len(im.Mask) != len(im.Data) {
		return fmt.Errorf("%w: mask has %d entries, want %d", ErrShape, len(im.Mask), len(im.Data))
	}

	return nil
}

// Max returns the largest unmasked value and its position.
func (im *Image) Max() (v float64, x, y int) {
	return im.extremum(func(a, b float64) bool { return a > b })
}

// Min returns the smallest unmasked value and its position.
func (im *Image) Min() (v float64, x, y int) {
	return im.extremum(func(a, b float64) bool { return a < b })
}

func (im *Image) extremum(better func(a, b float64) bool) (float64, int, int) {
	best := math.NaN()
	pos := -1

	for i, v := range im.Data {
		if im.Masked(i) || math.IsNaN(v) {
			continue
		}

		if pos < 0 || better(v, best) {
			best = v
			pos = i
		}
	}

	if pos < 0 {
		return math.NaN(), -1, -1
	}

	return best, pos % im.Cols, pos / im.Cols
}

// Sum returns the sum of the unmasked values.
func (im *Image) Sum() float64 {
	var s float64
	for i, v := range im.Data {
		if !im.Masked(i) {
			s += v
		}
	}

	return s
}

// Median returns the median of the unmasked values, or NaN when none remain.
func (im *Image) Median() float64 {
	return Median(im.Compressed())
}

// Median returns the median of values without modifying them.
// NaN samples are ignored; an empty input yields NaN.
func Median(values []float64) float64 {
	sorted := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			sorted = append(sorted, v)
		}
	}

	n := len(sorted)
	if n == 0 {
		return math.NaN()
	}

	sort.Float64s(sorted)

	if n%2 == 1 {
		return sorted[n/2]
	}

	return 0.5 * (sorted[n/2-1] + sorted[n/2])
}
