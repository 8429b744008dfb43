package commands

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/cwbudde/algo-peakfit/grid"
)

var errNoData = errors.New("no data rows")

// openInput opens path, or stdin for "" and "-".
func openInput(path string, stdin io.Reader) (io.ReadCloser, error) {
	if path == "" || path == "-" {
		return io.NopCloser(stdin), nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}

	return f, nil
}

func newCSVReader(r io.Reader) *csv.Reader {
	cr := csv.NewReader(r)
	cr.Comment = '#'
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	return cr
}

// readImageCSV reads one image row per record. Empty cells are masked.
func readImageCSV(r io.Reader) (*grid.Image, error) {
	records, err := newCSVReader(r).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}

	if len(records) == 0 {
		return nil, fmt.Errorf("read image: %w", errNoData)
	}

	rows := make([][]float64, len(records))

	var masked [][2]int

	for y, rec := range records {
		rows[y] = make([]float64, len(rec))

		for x, cell := range rec {
			cell = strings.TrimSpace(cell)
			if cell == "" {
				rows[y][x] = math.NaN()
				masked = append(masked, [2]int{x, y})

				continue
			}

			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return nil, fmt.Errorf("read image: row %d col %d: %w", y+1, x+1, err)
			}

			rows[y][x] = v
		}
	}

	img, err := grid.ImageFromRows(rows)
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}

	for _, m := range masked {
		img.SetMasked(m[0], m[1], true)
	}

	return img, nil
}

// readSpectrumCSV reads a y column or x,y columns. A first record that does
// not parse is taken as a header.
func readSpectrumCSV(r io.Reader) (x, y []float64, err error) {
	records, err := newCSVReader(r).ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("read spectrum: %w", err)
	}

	withX := false

	for i, rec := range records {
		vals, perr := parseRecord(rec)
		if perr != nil {
			if i == 0 {
				continue
			}

			return nil, nil, fmt.Errorf("read spectrum: line %d: %w", i+1, perr)
		}

		if len(y) == 0 {
			withX = len(vals) > 1
		}

		switch {
		case withX && len(vals) >= 2:
			x = append(x, vals[0])
			y = append(y, vals[1])
		case !withX && len(vals) >= 1:
			y = append(y, vals[0])
		default:
			return nil, nil, fmt.Errorf("read spectrum: line %d: got %d columns", i+1, len(vals))
		}
	}

	if len(y) == 0 {
		return nil, nil, fmt.Errorf("read spectrum: %w", errNoData)
	}

	return x, y, nil
}

func parseRecord(rec []string) ([]float64, error) {
	vals := make([]float64, len(rec))
	for i, cell := range rec {
		v, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
		if err != nil {
			return nil, err
		}

		vals[i] = v
	}

	return vals, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// writeImageCSV writes img row by row; masked cells are left empty.
func writeImageCSV(w io.Writer, img *grid.Image) error {
	cw := csv.NewWriter(w)
	rec := make([]string, img.Cols)

	for y := range img.Rows {
		for x := range img.Cols {
			if img.Masked(y*img.Cols + x) {
				rec[x] = ""
			} else {
				rec[x] = formatFloat(img.At(x, y))
			}
		}

		if err := cw.Write(rec); err != nil {
			return err
		}
	}

	cw.Flush()

	return cw.Error()
}

func writeSpectrumCSV(w io.Writer, x, y []float64) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"x", "y"}); err != nil {
		return err
	}

	for i := range y {
		if err := cw.Write([]string{formatFloat(x[i]), formatFloat(y[i])}); err != nil {
			return err
		}
	}

	cw.Flush()

	return cw.Error()
}

// writeFile creates path and hands it to write.
func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	if err := write(f); err != nil {
		_ = f.Close()
		return err
	}

	return f.Close()
}
