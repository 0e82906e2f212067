package cmd

import (
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/theirongolddev/homecalc/internal/model"
	"github.com/theirongolddev/homecalc/internal/pipeline"
	"github.com/theirongolddev/homecalc/internal/rates"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// offlineEnv points config and data at temp dirs, seeds a rate snapshot
// and keeps the commands off the network and away from saved state.
func offlineEnv(t *testing.T) {
	t.Helper()
	dataHome := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("XDG_DATA_HOME", dataHome)
	t.Setenv("HOMECALC_REDIS_ADDR", "")
	t.Setenv("HOMECALC_LOG_LEVEL", "error")

	prevOffline, prevQuiet, prevNoSave := flagOffline, flagQuiet, flagNoSave
	flagOffline, flagQuiet, flagNoSave = true, true, true
	t.Cleanup(func() {
		flagOffline, flagQuiet, flagNoSave = prevOffline, prevQuiet, prevNoSave
	})

	now := time.Now()
	observed := now.AddDate(0, 0, -2).Format("2006-01-02")
	payload := rates.NewPayload(map[model.SeriesID]model.RateObservation{
		model.Series30YFixed: {Date: observed, Rate: 6.125},
		model.Series15YFixed: {Date: observed, Rate: 5.5},
	}, now)
	require.NoError(t, pipeline.WriteSnapshot(filepath.Join(dataHome, "homecalc", "rates.json"), payload))
}

// captureStdout returns what fn printed to stdout.
func captureStdout(t *testing.T, fn func() error) string {
	t.Helper()
	r, w, err := os.Pipe()
	require.NoError(t, err)

	orig := os.Stdout
	os.Stdout = w
	done := make(chan []byte)
	go func() {
		out, _ := io.ReadAll(r)
		done <- out
	}()

	runErr := fn()
	os.Stdout = orig
	require.NoError(t, w.Close())
	out := <-done
	require.NoError(t, runErr)
	return string(out)
}

func setFlags(t *testing.T, c *cobra.Command, flags map[string]string) {
	t.Helper()
	for k, v := range flags {
		require.NoError(t, c.Flags().Set(k, v))
	}
}

func TestRunAffordRendersFromSnapshot(t *testing.T) {
	offlineEnv(t)
	c := newAffordTestCmd(t, map[string]string{
		"income": "95000",
		"down":   "20000",
	})

	out := captureStdout(t, func() error { return runAfford(c, nil) })
	assert.Contains(t, out, "HOME AFFORDABILITY")
	assert.Contains(t, out, "Estimated Price")
	assert.Contains(t, out, "6.13%", "eighth-point rate from the snapshot")
	assert.Contains(t, out, "Health:")
	assert.NotContains(t, out, "Market rates unavailable")
}

func TestRunAffordWithoutIncomeShowsHint(t *testing.T) {
	offlineEnv(t)
	c := newAffordTestCmd(t, nil)

	out := captureStdout(t, func() error { return runAfford(c, nil) })
	assert.Contains(t, out, "No income entered yet.")
	assert.NotContains(t, out, "HOME AFFORDABILITY")
}

func TestRunRefiRendersVerdictAndTimeline(t *testing.T) {
	offlineEnv(t)
	c := &cobra.Command{Use: "refi"}
	addRefiFlags(c)
	setFlags(t, c, map[string]string{
		"balance":      "320000",
		"current-rate": "7.1",
		"new-rate":     "6.125",
		"closing":      "6500",
		"mode":         "manual",
	})

	out := captureStdout(t, func() error { return runRefi(c, nil) })
	assert.Contains(t, out, "REFINANCE")
	assert.Contains(t, out, "6.13% (manual)")
	assert.Contains(t, out, "Break-even")
	assert.Contains(t, out, "Verdict:")
	assert.Contains(t, out, "Savings Timeline")
}

func TestRunCompareMarksSelectedLoan(t *testing.T) {
	offlineEnv(t)
	c := newAffordTestCmd(t, map[string]string{
		"income": "95000",
		"down":   "20000",
		"loan":   "conventional-15",
	})

	out := captureStdout(t, func() error { return runCompare(c, nil) })
	assert.Contains(t, out, "LOAN OPTIONS")
	assert.Contains(t, out, "* Conventional 15-year fixed")
	assert.Contains(t, out, "Conventional 30-year fixed")
	assert.Contains(t, out, "5.50%")
}

func TestRunAffordRejectsUnknownLoan(t *testing.T) {
	offlineEnv(t)
	c := newAffordTestCmd(t, map[string]string{"loan": "balloon-7"})
	assert.Error(t, runAfford(c, nil))
}
