package optimizer

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssep-lab/ssep-search/search"
)

func sampleRecord(n int) TrialRecord {
	return TrialRecord{
		Number:       n,
		State:        TrialComplete,
		Params:       search.ParameterSet{VoltageKV: 25.5, GapM: 0.0012, Phi: 1.1, Stages: 2},
		Metrics:      search.Metrics{ThrustDensity: 3.25, CurrentDensity: 0.5, Power: 100},
		GeometryPath: "runs/abc.pcd",
	}
}

func TestTrialLog_HeaderWrittenOnce(t *testing.T) {
	// GIVEN a fresh log path
	path := filepath.Join(t.TempDir(), "latest", TrialLogFileName)

	// WHEN two log instances append rows to it
	require.NoError(t, NewTrialLog(path).Append(sampleRecord(0)))
	require.NoError(t, NewTrialLog(path).Append(sampleRecord(1)))

	// THEN there is one header and one row per trial
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "trial,gap,phi,stages,V_kV,thrust_density,current_density,power,pcd_path", lines[0])
	assert.Equal(t, "0,0.0012,1.1,2,25.5,3.25,0.5,100,runs/abc.pcd", lines[1])
}

func TestLoadTrialLog_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), TrialLogFileName)
	log := NewTrialLog(path)
	require.NoError(t, log.Append(sampleRecord(0)))
	require.NoError(t, log.Append(sampleRecord(4)))

	recs, err := LoadTrialLog(path)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, 4, recs[1].Number)
	assert.Equal(t, sampleRecord(4).Params, recs[1].Params)
	assert.Equal(t, sampleRecord(4).Metrics, recs[1].Metrics)
	assert.Equal(t, "runs/abc.pcd", recs[1].GeometryPath)
}

func TestLoadTrialLog_Missing(t *testing.T) {
	recs, err := LoadTrialLog(filepath.Join(t.TempDir(), "nope.csv"))
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestLoadTrialLog_BadRow(t *testing.T) {
	path := filepath.Join(t.TempDir(), TrialLogFileName)
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(trialLogColumns, ",")+"\nx,1,1,1,1,1,1,1,p\n"), 0o644))
	_, err := LoadTrialLog(path)
	assert.Error(t, err)
}
