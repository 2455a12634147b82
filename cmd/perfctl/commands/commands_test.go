package commands

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/cmlabs-hris/hris-performance-go/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePeriodArgs(t *testing.T) {
	year, month, err := parsePeriodArgs([]string{"2024", "12"}, 12)
	require.NoError(t, err)
	assert.Equal(t, 2024, year)
	assert.Equal(t, 12, month)

	_, _, err = parsePeriodArgs([]string{"2024", "5"}, 4)
	assert.Error(t, err)
	_, _, err = parsePeriodArgs([]string{"24x", "1"}, 4)
	assert.Error(t, err)
}

func TestDateRange(t *testing.T) {
	t.Cleanup(func() { dateFrom, dateTo = "", "" })

	dateFrom, dateTo = "2024-01-01", "2024-01-31"
	r, err := dateRange()
	require.NoError(t, err)
	assert.True(t, r.IsBounded())

	dateFrom, dateTo = "2024-02-01", "2024-01-01"
	_, err = dateRange()
	assert.Error(t, err)

	dateFrom, dateTo = "01/02/2024", ""
	_, err = dateRange()
	assert.Error(t, err)
}

func TestResolveClusters(t *testing.T) {
	cfg := &config.Config{Analytics: config.AnalyticsConfig{DefaultClusters: 3}}
	assert.Equal(t, 3, resolveClusters(0, cfg))
	assert.Equal(t, 5, resolveClusters(5, cfg))
}

func TestWriteList(t *testing.T) {
	var buf bytes.Buffer
	writeList(&buf, "Strengths", []string{"Punctual"})
	assert.Equal(t, "\nStrengths\n---------\n  - Punctual\n", buf.String())

	buf.Reset()
	writeList(&buf, "Empty", nil)
	assert.Empty(t, buf.String())
}

func TestLoadEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "perf.env")
	require.NoError(t, os.WriteFile(path, []byte("PERFCTL_TEST_VALUE=from-file\n"), 0o600))
	t.Setenv("PERFCTL_TEST_VALUE", "before")

	require.NoError(t, loadEnvFile(path))
	assert.Equal(t, "from-file", os.Getenv("PERFCTL_TEST_VALUE"))

	assert.Error(t, loadEnvFile(filepath.Join(t.TempDir(), "missing.env")))
}

func TestCommandsRegistered(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"fit", "predict", "explain", "monthly", "quarterly", "reset"} {
		assert.True(t, names[want], want)
	}
}

func TestArgsValidation(t *testing.T) {
	rootCmd.SetArgs([]string{"monthly", "2024"})
	rootCmd.SetOut(&bytes.Buffer{})
	rootCmd.SetErr(&bytes.Buffer{})
	t.Cleanup(func() { rootCmd.SetArgs(nil) })

	assert.Error(t, rootCmd.Execute())
}
