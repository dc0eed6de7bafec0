package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/iwvelando/brrrr-analyzer/internal/brrrr"
	"github.com/iwvelando/brrrr-analyzer/internal/extraction"
	"github.com/iwvelando/brrrr-analyzer/internal/heloc"
	"github.com/iwvelando/brrrr-analyzer/internal/optimizer"
	"github.com/iwvelando/brrrr-analyzer/internal/sensitivity"
	"github.com/iwvelando/brrrr-analyzer/internal/timeline"
	"github.com/iwvelando/brrrr-analyzer/pkg/datetime"
	"github.com/iwvelando/brrrr-analyzer/pkg/mortgage"
	"github.com/iwvelando/brrrr-analyzer/pkg/optimization"
	"github.com/iwvelando/brrrr-analyzer/pkg/testutil"
	"github.com/iwvelando/brrrr-analyzer/pkg/transfertax"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

// execute runs the command line with a configuration file that does not
// exist, so every value is a default.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetIn(strings.NewReader(""))
	cmd.SetArgs(append([]string{"--config", filepath.Join(t.TempDir(), "missing.yaml"), "--log-level", "error"}, args...))
	err := cmd.Execute()
	return out.String(), err
}

// writeFile writes v to name in a temporary directory, as YAML for a .yaml
// name and JSON otherwise.
func writeFile(t *testing.T, name string, v any) string {
	t.Helper()
	var (
		data []byte
		err  error
	)
	if strings.HasSuffix(name, ".yaml") {
		data, err = yaml.Marshal(v)
	} else {
		data, err = json.Marshal(v)
	}
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func decodeOutput[T any](t *testing.T, out string) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal([]byte(out), &v), out)
	return v
}

func TestRootCommandHasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range newRootCmd().Commands() {
		names[c.Name()] = true
	}
	for _, name := range []string{"analyze", "quick", "heloc", "transfer-tax", "sensitivity", "timeline", "optimize", "schedule", "extract", "rules", "serve"} {
		assert.True(t, names[name], "expected subcommand %q not found", name)
	}
}

func TestAnalyze(t *testing.T) {
	tests := []struct {
		name string
		file string
	}{
		{"JSON", "triplex.json"},
		{"YAML", "triplex.yaml"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, tt.file, testutil.Triplex())
			out, err := execute(t, "analyze", "-o", "json", path)
			require.NoError(t, err)

			result := decodeOutput[brrrr.Result](t, out)
			assert.True(t, result.Validation.IsValid)
			assert.Equal(t, 520000.0, result.Refinance.NewLoanAmount)
			assert.InDelta(t, 1160.16, result.KPIs.MonthlyCashflow, 0.001)
		})
	}
}

func TestAnalyzeOutputFormats(t *testing.T) {
	path := writeFile(t, "triplex.json", testutil.Triplex())

	csv, err := execute(t, "analyze", "--output-format", "csv", path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(csv, "section,label,value\n"))
	assert.Contains(t, csv, "Indicators,Monthly cashflow,1160.16\n")

	pretty, err := execute(t, "analyze", path)
	require.NoError(t, err)
	assert.Contains(t, pretty, "--- Indicators ---\n")
	assert.Contains(t, pretty, "$1,160.16")
}

func TestAnalyzeFromConfiguredFormat(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("output:\n  format: csv\n"), 0o644))
	path := writeFile(t, "triplex.json", testutil.Triplex())

	out, err := execute(t, "--config", configPath, "analyze", path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "section,label,value\n"))
}

func TestAnalyzeFailInvalid(t *testing.T) {
	in := testutil.Triplex()
	in.RefinanceLTVPercent = testutil.Ptr(90.0)
	path := writeFile(t, "triplex.json", in)

	out, err := execute(t, "analyze", "-o", "json", path)
	require.NoError(t, err)
	assert.False(t, decodeOutput[brrrr.Result](t, out).Validation.IsValid)

	_, err = execute(t, "analyze", "-o", "json", "--fail-invalid", path)
	assert.True(t, errors.Is(err, ErrInvalidDeal))
}

func TestAnalyzeErrors(t *testing.T) {
	dir := t.TempDir()
	malformed := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(malformed, []byte(`{"purchasePrice": "cheap"}`), 0o644))

	tests := []struct {
		name string
		args []string
	}{
		{"Missing file", []string{"analyze", filepath.Join(dir, "nope.json")}},
		{"Malformed file", []string{"analyze", malformed}},
		{"Empty stdin", []string{"analyze", "-"}},
		{"No argument", []string{"analyze"}},
		{"Bad output format", []string{"analyze", "-o", "xml", malformed}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, tt.args...)
			assert.Error(t, err)
		})
	}
}

func TestQuick(t *testing.T) {
	out, err := execute(t, "quick", "-o", "csv", "--price", "300000", "--renovation", "20000", "--rent", "3500", "--arv", "500000")
	require.NoError(t, err)
	assert.Contains(t, out, "Quick metrics,Total investment,91000.00\n")
	assert.Contains(t, out, "Quick metrics,Cash-on-cash,inf\n")

	_, err = execute(t, "quick", "--price", "300000")
	assert.Error(t, err)
}

func TestHeloc(t *testing.T) {
	out, err := execute(t, "heloc", "-o", "json", "--value", "500000", "--mortgage", "250000")
	require.NoError(t, err)

	result := decodeOutput[heloc.Result](t, out)
	assert.Equal(t, 75000.0, result.AvailableEquityAtRotating)
	assert.Equal(t, 150000.0, result.AvailableEquityAtTotal)
	assert.True(t, result.CanAccessRotating)
}

func TestTransferTax(t *testing.T) {
	tests := []struct {
		name         string
		args         []string
		municipality transfertax.Municipality
	}{
		{"Explicit municipality", []string{"--municipality", "montreal"}, transfertax.Montreal},
		{"Postal code", []string{"--postal-code", "H7N 1A1"}, transfertax.Laval},
		{"Default municipality", nil, transfertax.Montreal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"transfer-tax", "-o", "json", "--price", "500000"}, tt.args...)
			out, err := execute(t, args...)
			require.NoError(t, err)

			b := decodeOutput[transfertax.Breakdown](t, out)
			assert.Equal(t, tt.municipality, b.Municipality)
			assert.Equal(t, transfertax.Calculate(500000, tt.municipality), b.TotalTax)
		})
	}

	_, err := execute(t, "transfer-tax", "--price", "500000", "--municipality", "toronto")
	assert.Error(t, err)
	_, err = execute(t, "transfer-tax", "--price", "-1")
	assert.Error(t, err)
}

func TestSchedule(t *testing.T) {
	out, err := execute(t, "schedule", "-o", "json", "--principal", "400000", "--rate", "0.05", "--years", "25", "--months", "12")
	require.NoError(t, err)

	payments := decodeOutput[[]mortgage.Payment](t, out)
	require.Len(t, payments, 12)
	assert.InDelta(t, 2326.42, payments[0].Payment, 0.01)
	assert.Equal(t, 12, payments[11].Month)

	_, err = execute(t, "schedule", "--principal", "400000", "--rate", "0.05", "--years", "0")
	assert.True(t, errors.Is(err, mortgage.ErrInvalidMortgageParameters))
}

func TestSensitivity(t *testing.T) {
	path := writeFile(t, "triplex.json", testutil.Triplex())

	out, err := execute(t, "sensitivity", "-o", "json", path,
		"--var1", "interestRate", "--values1", "0.04,0.05,0.06",
		"--var2", "rent", "--values2", "4000,4500,5000")
	require.NoError(t, err)

	m := decodeOutput[sensitivity.Matrix](t, out)
	require.Len(t, m.Cashflow, 3)
	assert.InDelta(t, 1160.16, m.Cashflow[1][1], 0.001)

	_, err = execute(t, "sensitivity", path, "--var1", "rent", "--values1", "1", "--var2", "rent", "--values2", "2")
	assert.True(t, errors.Is(err, sensitivity.ErrInvalidAxis))
}

func TestTimeline(t *testing.T) {
	path := writeFile(t, "triplex.yaml", testutil.Triplex())

	out, err := execute(t, "timeline", "-o", "json", path)
	require.NoError(t, err)

	tl := decodeOutput[timeline.Timeline](t, out)
	assert.Equal(t, 60, tl.HorizonMonths)
	assert.Len(t, tl.Cashflow, 61)
	require.NotNil(t, tl.BreakEvenMonth)
	assert.Equal(t, 57, *tl.BreakEvenMonth)

	_, err = execute(t, "timeline", "--horizon", "1000", path)
	assert.True(t, errors.Is(err, timeline.ErrInvalidHorizon))

	out, err = execute(t, "timeline", "-o", "csv", "--horizon", "12", "--start", "2026-01", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Timeline,Start,2026-01\n")
	assert.Contains(t, out, "12,2027-01,")

	_, err = execute(t, "timeline", "--start", "Jan 2026", path)
	assert.True(t, errors.Is(err, datetime.ErrInvalidMonth))
}

func TestOptimize(t *testing.T) {
	path := writeFile(t, "triplex.json", testutil.Triplex())

	out, err := execute(t, "optimize", "-o", "json", path, "--variable", "rent", "--min", "4500", "--max", "6000")
	require.NoError(t, err)

	summary := decodeOutput[optimization.Summary](t, out)
	assert.True(t, summary.Converged)
	assert.Equal(t, 4500.0, summary.Value)
	assert.InDelta(t, 1160.16, summary.MetricValue, 0.001)

	_, err = execute(t, "optimize", path, "--variable", "rent", "--metric", "irr", "--max", "6000")
	assert.True(t, errors.Is(err, optimizer.ErrInvalidRequest))
	_, err = execute(t, "optimize", path)
	assert.Error(t, err, "--max is required")
}

func TestExtract(t *testing.T) {
	in := extractInput{
		Data: extraction.ExtractedPropertyData{
			AskingPrice:    testutil.Ptr(500000.0),
			Units:          testutil.Ptr(3),
			MonthlyRents:   []float64{1500, 1500, 1500},
			MunicipalTaxes: testutil.Ptr(4200.0),
			PostalCode:     "H2X 1Y4",
			Confidence:     90,
			Source:         extraction.SourceCentris,
		},
	}

	t.Run("incomplete", func(t *testing.T) {
		out, err := execute(t, "extract", "-o", "json", "--analyze", writeFile(t, "listing.json", in))
		require.NoError(t, err)

		mapping := decodeOutput[extraction.Mapping](t, out)
		assert.Equal(t, []string{"afterRepairValue"}, mapping.Missing)
		require.NotNil(t, mapping.Municipality)
		assert.Equal(t, transfertax.Montreal, *mapping.Municipality)
	})

	t.Run("analyzed", func(t *testing.T) {
		complete := in
		complete.Overrides.AfterRepairValue = testutil.Ptr(650000.0)
		out, err := execute(t, "extract", "-o", "json", "--analyze", writeFile(t, "listing.json", complete))
		require.NoError(t, err)

		result := decodeOutput[brrrr.Result](t, out)
		assert.Equal(t, 500000.0, result.Acquisition.PurchasePrice)
		assert.Equal(t, transfertax.Montreal, result.Inputs.Municipality)
	})
}

func TestRules(t *testing.T) {
	out, err := execute(t, "rules", "-o", "json")
	require.NoError(t, err)

	r := decodeOutput[rulesOutput](t, out)
	assert.Equal(t, 0.0525, r.Rules.StressTestFloor)
	assert.Equal(t, 0.65, r.Rules.HelocRotatingMaxLTV)
	assert.Equal(t, r.Rules.Version(), r.Version)
}

func TestInvalidConfiguration(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("logging:\n  level: loud\n"), 0o644))

	_, err := execute(t, "--config", configPath, "rules")
	assert.Error(t, err)
}
