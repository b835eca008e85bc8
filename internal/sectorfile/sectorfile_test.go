package sectorfile

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `[INFO]
ENOR Norway
[AIRPORT]
ENGM 118.300 N060.11.37.000 E011.05.02.000 D
[RUNWAY]
; Gardermoen
01L 19R 014 194 N060.10.31.780 E011.04.23.240 N060.12.33.780 E011.05.28.230 ENGM Gardermoen
01R 19L 014 194 N060.10.04.000 E011.06.37.000 N060.12.10.000 E011.07.45.000 ENGM Gardermoen
10 28 100 280 N058.52.40.000 E005.36.51.000 N058.52.43.000 E005.38.35.000 ENZV Sola
18 36 183 003 N058.54.03.000 E005.38.04.000 N058.52.20.000 E005.38.02.000 ENZV Sola
17 35 170 350 ENMH
09 27
ENXX dummy
08 26 080 260 N070.00.00.000 E020.00.00.000 N070.00.01.000 E020.00.01.000 ENHV Honningsvag

[SID]
01L 19R 014 194 N060.10.31.780 E011.04.23.240 N060.12.33.780 E011.05.28.230 ENZZ
`

func TestRead(t *testing.T) {
	airports, err := Read(strings.NewReader(sample), []string{"enhv"})
	require.NoError(t, err)

	icaos := make([]string, 0, len(airports))
	for _, a := range airports.Sorted() {
		icaos = append(icaos, a.ICAO)
	}
	assert.Equal(t, []string{"ENGM", "ENMH", "ENZV"}, icaos)

	engm := airports["ENGM"]
	require.Len(t, engm.Runways, 2)
	assert.Equal(t, "01L/19R", engm.Runways[0].String())
	assert.Equal(t, 194, engm.Runways[0].Directions[1].Heading)

	zv := airports["ENZV"]
	require.Len(t, zv.Runways, 2)
	assert.Equal(t, 3, zv.Runways[1].Directions[1].Heading)

	mh := airports["ENMH"]
	require.Len(t, mh.Runways, 1)
	assert.Equal(t, "17/35", mh.Runways[0].String())
}

func TestRead_Latin1(t *testing.T) {
	text := "[RUNWAY]\n; Bod\xf8\n07 25 074 254 N067.16.00.000 E014.21.00.000 N067.17.00.000 E014.23.00.000 ENBO Bod\xf8\n"
	airports, err := Read(bytes.NewReader([]byte(text)), nil)
	require.NoError(t, err)
	require.Contains(t, airports, "ENBO")
	assert.Len(t, airports["ENBO"].Runways, 1)

	decoded, err := decodeText([]byte("Bod\xf8"))
	require.NoError(t, err)
	assert.Equal(t, "Bodø", decoded)
}

func TestRead_Errors(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{name: "bad heading", text: "[RUNWAY]\n01 19 abc 194 ENGM\n"},
		{name: "duplicate runway", text: "[RUNWAY]\n01 19 014 194 ENGM\n01 19 014 194 ENGM\n"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Read(strings.NewReader(tc.text), nil)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "line ")
		})
	}
}

func TestRead_NoRunwaySection(t *testing.T) {
	airports, err := Read(strings.NewReader("[INFO]\nnothing here\n"), nil)
	require.NoError(t, err)
	assert.Empty(t, airports)
}

func touch(t *testing.T, path string, mod time.Time) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o600))
	require.NoError(t, os.Chtimes(path, mod, mod))
}

func TestDiscover(t *testing.T) {
	dir := t.TempDir()
	other := t.TempDir()
	now := time.Now()

	touch(t, filepath.Join(dir, "ENOR-Norway-NC-DEV_20230403191923-230301-0004.sct"), now)
	touch(t, filepath.Join(other, "ENOR-Norway-NC_20250612121259-241301-0006.sct"), now.Add(-48*time.Hour))
	touch(t, filepath.Join(dir, "ESAA-Sweden_20260101000000.sct"), now)
	touch(t, filepath.Join(dir, "ENOR-Norway-NC_20260101000000.ese"), now)

	path, err := Discover(filepath.Join(dir, "missing"), dir, other)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(other, "ENOR-Norway-NC_20250612121259-241301-0006.sct"), path)
}

func TestDiscover_ModTimeFallback(t *testing.T) {
	dir := t.TempDir()
	old := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	touch(t, filepath.Join(dir, "ENOR-old.sct"), old)
	touch(t, filepath.Join(dir, "ENOR-new.sct"), old.Add(time.Hour))

	path, err := Discover(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "ENOR-new.sct"), path)
}

func TestDiscover_NotFound(t *testing.T) {
	_, err := Discover(t.TempDir())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRunwayFilePath(t *testing.T) {
	assert.Equal(t, "/es/ENOR-Norway.rwy", RunwayFilePath("/es/ENOR-Norway.sct"))
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ENOR.sct")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o600))

	airports, err := Load(path, nil)
	require.NoError(t, err)
	assert.Len(t, airports, 4)

	_, err = Load(filepath.Join(t.TempDir(), "missing.sct"), nil)
	assert.Error(t, err)
}
