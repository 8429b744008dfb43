package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"text/tabwriter"

	"gopkg.in/yaml.v3"

	"github.com/cwbudde/algo-peakfit/mpfit"
	"github.com/cwbudde/algo-peakfit/stats/residual"
)

// report is the serialized outcome of a fit. Non-finite numbers become
// null in JSON.
type report struct {
	Command     string          `json:"command" yaml:"command"`
	Profile     string          `json:"profile,omitempty" yaml:"profile,omitempty"`
	Params      []paramReport   `json:"params" yaml:"params"`
	Chi2        float64         `json:"chi2" yaml:"chi2"`
	Chi2Reduced *float64        `json:"chi2_reduced" yaml:"chi2_reduced"`
	Dof         int             `json:"dof" yaml:"dof"`
	Status      string          `json:"status" yaml:"status"`
	Niter       int             `json:"niter" yaml:"niter"`
	Residuals   residualSummary `json:"residuals" yaml:"residuals"`
}

type paramReport struct {
	Name  string   `json:"name" yaml:"name"`
	Value float64  `json:"value" yaml:"value"`
	Error *float64 `json:"error" yaml:"error"`
}

type residualSummary struct {
	Mean float64 `json:"mean" yaml:"mean"`
	RMS  float64 `json:"rms" yaml:"rms"`
	Peak float64 `json:"peak" yaml:"peak"`
}

type fitSummary struct {
	names          []string
	values, errors []float64
	chi2, chi2r    float64
	dof, niter     int
	status         mpfit.Status
	residuals      residual.Stats
}

func newReport(command, profile string, s fitSummary) report {
	r := report{
		Command:     command,
		Profile:     profile,
		Params:      make([]paramReport, len(s.values)),
		Chi2:        s.chi2,
		Chi2Reduced: finite(s.chi2r),
		Dof:         s.dof,
		Status:      s.status.String(),
		Niter:       s.niter,
		Residuals: residualSummary{
			Mean: s.residuals.Mean,
			RMS:  s.residuals.RMS,
			Peak: s.residuals.Peak,
		},
	}

	for i, v := range s.values {
		p := paramReport{Value: v}
		if i < len(s.names) {
			p.Name = s.names[i]
		}

		if i < len(s.errors) {
			p.Error = finite(s.errors[i])
		}

		r.Params[i] = p
	}

	return r
}

func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}

	return &v
}

func writeReport(w io.Writer, format string, r report) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")

		return enc.Encode(r)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)

		if err := enc.Encode(r); err != nil {
			return err
		}

		return enc.Close()
	case "text", "":
		return writeText(w, r)
	default:
		return fmt.Errorf("%w: output format %q", errConfig, format)
	}
}

func writeText(w io.Writer, r report) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	fmt.Fprintf(tw, "Parameter\tValue\tError\n")
	fmt.Fprintf(tw, "---------\t-----\t-----\n")

	for _, p := range r.Params {
		e := "-"
		if p.Error != nil {
			e = fmt.Sprintf("%.6g", *p.Error)
		}

		fmt.Fprintf(tw, "%s\t%.6g\t%s\n", p.Name, p.Value, e)
	}

	if err := tw.Flush(); err != nil {
		return err
	}

	chi2r := "nan"
	if r.Chi2Reduced != nil {
		chi2r = fmt.Sprintf("%.6g", *r.Chi2Reduced)
	}

	_, err := fmt.Fprintf(w, "\nchi2 %.6g  reduced %s  dof %d  iterations %d\nstatus: %s\n",
		r.Chi2, chi2r, r.Dof, r.Niter, r.Status)

	return err
}
