package grid

import "fmt"

// Cube is a 3D array stored with the last index varying fastest:
// Data[(i*N1+j)*N2+k].
type Cube struct {
	N0, N1, N2 int
	Data       []float64
}

// NewCube returns a zero-filled cube.
func NewCube(n0, n1, n2 int) (*Cube, error) {
	if n0 <= 0 || n1 <= 0 || n2 <= 0 {
		return nil, fmt.Errorf("%w: %dx%dx%d", ErrShape, n0, n1, n2)
	}

	return &Cube{N0: n0, N1: n1, N2: n2, Data: make([]float64, n0*n1*n2)}, nil
}

// At returns the value at (i, j, k).
func (c *Cube) At(i, j, k int) float64 {
	return c.Data[(i*c.N1+j)*c.N2+k]
}

// Set stores v at (i, j, k).
func (c *Cube) Set(i, j, k int, v float64) {
	c.Data[(i*c.N1+j)*c.N2+k] = v
}

// Validate checks the shape invariants.
func (c *Cube) Validate() error {
	if c == nil || c.N0 <= 0 || c.N1 <= 0 || c.N2 <= 0 {
		return fmt.Errorf("%w: empty cube", ErrShape)
	}

	if len(c.Data) != c.N0*c.N1*c.N2 {
		return fmt.Errorf("%w: %d values for %dx%dx%d", ErrShape, len(c.Data), c.N0, c.N1, c.N2)
	}

	return nil
}

// Len returns the extent along axis (0, 1 or 2), or 0 for other axes.
func (c *Cube) Len(axis int) int {
	switch axis {
	case 0:
		return c.N0
	case 1:
		return c.N1
	case 2:
		return c.N2
	default:
		return 0
	}
}

// SpatialShape returns the (rows, cols) of the plane orthogonal to axis,
// keeping the remaining axes in their original order.
func (c *Cube) SpatialShape(axis int) (rows, cols int, err error) {
	switch axis {
	case 0:
		return c.N1, c.N2, nil
	case 1:
		return c.N0, c.N2, nil
	case 2:
		return c.N0, c.N1, nil
	default:
		return 0, 0, fmt.Errorf("%w: axis %d", ErrShape, axis)
	}
}

// Spectrum copies the 1D slice along axis at spatial position (row, col)
// of the orthogonal plane into dst, growing it when needed.
func (c *Cube) Spectrum(dst []float64, axis, row, col int) []float64 {
	n := c.Len(axis)
	dst = EnsureLen(dst, n)

	for s := range n {
		switch axis {
		case 0:
			dst[s] = c.At(s, row, col)
		case 1:
			dst[s] = c.At(row, s, col)
		default:
			dst[s] = c.At(row, col, s)
		}
	}

	return dst
}
