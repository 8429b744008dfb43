package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/cwbudde/algo-peakfit/shape"
)

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()

	cmd := newRootCommand("test")

	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(context.Background())

	return out.String(), err
}

func mustRun(t *testing.T, stdin string, args ...string) string {
	t.Helper()

	out, err := run(t, stdin, args...)
	require.NoError(t, err, "peakfit %s", strings.Join(args, " "))

	return out
}

func decodeJSON(t *testing.T, s string) report {
	t.Helper()

	var r report
	require.NoError(t, json.Unmarshal([]byte(s), &r))

	return r
}

func requireValues(t *testing.T, r report, names []string, want []float64, delta float64) {
	t.Helper()

	require.Len(t, r.Params, len(want))

	for i, p := range r.Params {
		assert.Equal(t, names[i], p.Name)
		assert.InDelta(t, want[i], p.Value, delta, p.Name)
	}
}

func TestProfiles(t *testing.T) {
	out := mustRun(t, "", "profiles")

	for _, name := range shape.Names() {
		assert.Contains(t, out, name)
	}

	assert.Contains(t, out, "2.3548")
	assert.Regexp(t, `airy\s+yes`, out)
	assert.Regexp(t, `sech\s+-`, out)
}

func TestFit2DCircular(t *testing.T) {
	path := filepath.Join(t.TempDir(), "star.csv")
	mustRun(t, "", "synth", "image", "--params", "0,2,30,34,4,4,0", "--out", path)

	r := decodeJSON(t, mustRun(t, "", "fit2d", "--circle", "-o", "json", path))

	assert.Equal(t, "fit2d", r.Command)
	assert.Equal(t, "gaussian", r.Profile)
	assert.NotEmpty(t, r.Status)
	assert.Equal(t, 64*64-5, r.Dof)
	requireValues(t, r,
		[]string{"HEIGHT", "AMPLITUDE", "XSHIFT", "YSHIFT", "XWIDTH"},
		[]float64{0, 2, 30, 34, 4}, 1e-4)
}

func TestFit2DModelOut(t *testing.T) {
	dir := t.TempDir()
	modelPath := filepath.Join(dir, "model.csv")

	img := mustRun(t, "", "synth", "image", "--rows", "32", "--cols", "40", "--params", "0,1,20,16,3,3,0")
	out := mustRun(t, img, "fit2d", "--circle", "--model-out", modelPath)

	assert.Contains(t, out, "XWIDTH")
	assert.Contains(t, out, "status:")

	data, err := os.ReadFile(modelPath)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 32)
	assert.Len(t, strings.Split(lines[0], ","), 40)
}

func TestFit1DYAML(t *testing.T) {
	spec := mustRun(t, "", "synth", "spectrum", "--lines", "3,42,5", "--height", "1")
	out := mustRun(t, spec, "fit1d", "-o", "yaml")

	var r report
	require.NoError(t, yaml.Unmarshal([]byte(out), &r))
	assert.Equal(t, "gaussian", r.Profile)

	requireValues(t, r,
		[]string{"HEIGHT", "AMPLITUDE", "SHIFT", "WIDTH"},
		[]float64{1, 3, 42, 5}, 1e-4)
}

func TestFit1DNegativeLorentzian(t *testing.T) {
	spec := mustRun(t, "", "synth", "spectrum", "-p", "lorentzian", "--lines=-2,30,3", "--height", "5",
		"--x0", "10", "--dx", "0.5")
	r := decodeJSON(t, mustRun(t, spec, "fit1d", "-p", "lorentzian", "--moments", "negative", "-o", "json"))

	requireValues(t, r,
		[]string{"HEIGHT", "AMPLITUDE", "SHIFT", "WIDTH"},
		[]float64{5, -2, 30, 3}, 1e-4)
	assert.Equal(t, "lorentzian", r.Profile)
}

func TestMulti(t *testing.T) {
	spec := mustRun(t, "", "synth", "spectrum", "-n", "200", "--lines", "3,60,4,2,140,4")
	r := decodeJSON(t, mustRun(t, spec, "multi", "--npeak", "2", "--initial", "2.5,58,5,1.5,142,5", "-o", "json"))
	assert.Equal(t, "gaussian", r.Profile)

	requireValues(t, r,
		[]string{"AMPLITUDE0", "SHIFT0", "WIDTH0", "AMPLITUDE1", "SHIFT1", "WIDTH1"},
		[]float64{3, 60, 4, 2, 140, 4}, 1e-4)
}

func TestBeamFundamental(t *testing.T) {
	img := mustRun(t, "", "synth", "beam", "--params", "0,0,32,30,10,10,0")
	r := decodeJSON(t, mustRun(t, img, "beam", "--circle", "-o", "json"))

	assert.Equal(t, "laguerre-gauss", r.Profile)
	requireValues(t, r,
		[]string{"HEIGHT", "XSHIFT", "YSHIFT", "XWIDTH", "AMP0_0"},
		[]float64{0, 32, 30, 10, 1}, 1e-4)
}

func TestConfigFile(t *testing.T) {
	dir := t.TempDir()
	imgPath := filepath.Join(dir, "star.csv")
	cfgPath := filepath.Join(dir, "fit.yaml")

	mustRun(t, "", "synth", "image", "--params", "0,1,32,32,5,5,0", "--out", imgPath)

	t.Setenv("PEAKFIT_FORMAT", "json")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`
profile: gaussian
circle: true
vheight: false
output: ${PEAKFIT_FORMAT}
limits:
  - index: 3
    lower: 0
    upper: 10
solver:
  max_iter: 100
`), 0o600))

	r := decodeJSON(t, mustRun(t, "", "fit2d", "--config", cfgPath, imgPath))
	requireValues(t, r,
		[]string{"AMPLITUDE", "XSHIFT", "YSHIFT", "XWIDTH"},
		[]float64{1, 32, 32, 5}, 1e-4)

	// Flags override the file.
	out := mustRun(t, "", "fit2d", "--config", cfgPath, "-o", "text", imgPath)
	assert.Contains(t, out, "Parameter")
}

func TestConfigInvalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "output", body: "output: xml\n"},
		{name: "moments", body: "moments: sideways\n"},
		{name: "negative sigma", body: "sigma: -1\n"},
		{name: "negative index", body: "fixed: [-1]\n"},
		{name: "crossed limits", body: "limits:\n  - index: 1\n    lower: 2\n    upper: 1\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "fit.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.body), 0o600))

			_, err := loadConfig(path)
			require.ErrorIs(t, err, errConfig)
		})
	}

	t.Run("unknown field", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "fit.yaml")
		require.NoError(t, os.WriteFile(path, []byte("profil: gaussian\n"), 0o600))

		_, err := loadConfig(path)
		require.Error(t, err)
	})

	t.Run("empty file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "fit.yaml")
		require.NoError(t, os.WriteFile(path, nil, 0o600))

		cfg, err := loadConfig(path)
		require.NoError(t, err)
		assert.Empty(t, cfg.Profile)
	})
}

func TestCommandErrors(t *testing.T) {
	spec := "0\n1\n3\n1\n0\n"

	_, err := run(t, spec, "fit1d", "-p", "nope")
	require.ErrorIs(t, err, shape.ErrUnknownProfile)

	_, err = run(t, spec, "fit1d", "-o", "xml")
	require.ErrorIs(t, err, errConfig)

	_, err = run(t, "", "fit2d", filepath.Join(t.TempDir(), "missing.csv"))
	require.ErrorIs(t, err, os.ErrNotExist)

	_, err = run(t, "1,2\n3,x\n", "fit2d")
	require.Error(t, err)

	_, err = run(t, "", "synth", "image", "--params", "1,2,3")
	require.Error(t, err)
}

func TestReadImageCSV(t *testing.T) {
	img, err := readImageCSV(strings.NewReader("# comment\n1,2\n3,\n"))
	require.NoError(t, err)

	assert.Equal(t, 2, img.Rows)
	assert.Equal(t, 2, img.Cols)
	assert.Equal(t, 3, img.Valid())
	assert.True(t, img.Masked(3))
	assert.Equal(t, 3.0, img.At(0, 1))

	_, err = readImageCSV(strings.NewReader("1,2\n3\n"))
	require.Error(t, err)

	_, err = readImageCSV(strings.NewReader(""))
	require.ErrorIs(t, err, errNoData)
}

func TestReadSpectrumCSV(t *testing.T) {
	x, y, err := readSpectrumCSV(strings.NewReader("x,y\n0,1\n0.5,2\n"))
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0.5}, x)
	assert.Equal(t, []float64{1, 2}, y)

	x, y, err = readSpectrumCSV(strings.NewReader("5\n6\n7\n"))
	require.NoError(t, err)
	assert.Nil(t, x)
	assert.Equal(t, []float64{5, 6, 7}, y)

	_, _, err = readSpectrumCSV(strings.NewReader("y\n"))
	require.ErrorIs(t, err, errNoData)

	_, _, err = readSpectrumCSV(strings.NewReader("1,2\n3\n"))
	require.Error(t, err)
}

func TestFWHM(t *testing.T) {
	assert.InDelta(t, 2.3548, fwhm(shape.Gaussian), 1e-3)
}
