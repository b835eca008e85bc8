// Package sectorfile reads runway geometry from the [RUNWAY] section of a
// sector file and finds the newest sector file on disk.
package sectorfile

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"

	"github.com/meltinglava/ENOR-Vatsim-Runway-Selector/internal/domain"
)

const (
	runwaySection = "[RUNWAY]"
	filePrefix    = "ENOR"
	fileExt       = ".sct"
)

// ErrNotFound is returned by Discover when no sector file exists in any of
// the searched folders.
var ErrNotFound = errors.New("no sector file found")

// fileStampRe matches the build time embedded in sector file names, e.g.
// ENOR-Norway-NC_20250612121259-241301-0006.sct.
var fileStampRe = regexp.MustCompile(`\d{14}`)

// Load reads the sector file at path. Stations listed in ignore are skipped.
func Load(path string, ignore []string) (domain.Airports, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open sector file: %w", err)
	}
	defer f.Close()

	airports, err := Read(f, ignore)
	if err != nil {
		return nil, fmt.Errorf("read sector file %s: %w", filepath.Base(path), err)
	}
	return airports, nil
}

// Read parses the [RUNWAY] section. Each line holds two runway idents, their
// headings, the threshold coordinates and the ICAO code of the airport.
func Read(r io.Reader, ignore []string) (domain.Airports, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	text, err := decodeText(raw)
	if err != nil {
		return nil, err
	}

	ignored := make(map[string]bool, len(ignore))
	for _, icao := range ignore {
		ignored[strings.ToUpper(icao)] = true
	}

	airports := domain.Airports{}
	inSection := false
	scanner := bufio.NewScanner(strings.NewReader(text))
	for lineNo := 1; scanner.Scan(); lineNo++ {
		line := strings.TrimSpace(scanner.Text())
		if !inSection {
			inSection = line == runwaySection
			continue
		}
		if line == "" || strings.HasPrefix(line, "[") {
			break
		}
		if strings.HasPrefix(line, ";") {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) < 5 {
			continue
		}
		icao := fields[4]
		if len(fields) >= 9 {
			icao = fields[8]
		}
		if ignored[icao] {
			continue
		}

		rwy, err := parseRunway(fields)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		if err := airports.Get(icao).AddRunway(rwy); err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return airports, nil
}

func parseRunway(fields []string) (domain.Runway, error) {
	first, err := strconv.Atoi(fields[2])
	if err != nil {
		return domain.Runway{}, fmt.Errorf("parse heading of %s: %w", fields[0], err)
	}
	second, err := strconv.Atoi(fields[3])
	if err != nil {
		return domain.Runway{}, fmt.Errorf("parse heading of %s: %w", fields[1], err)
	}
	return domain.NewRunway(
		domain.NewRunwayDirection(fields[0], first),
		domain.NewRunwayDirection(fields[1], second),
	), nil
}

// decodeText returns raw as UTF-8, falling back to ISO-8859-1 for older
// sector files.
func decodeText(raw []byte) (string, error) {
	if utf8.Valid(raw) {
		return string(raw), nil
	}
	decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(raw)
	if err != nil {
		return "", fmt.Errorf("decode sector file: %w", err)
	}
	return string(decoded), nil
}

// Discover returns the newest ENOR*.sct file directly inside any of dirs.
// Newest is decided by the time stamp in the file name, or the modification
// time when the name carries none. Missing folders are skipped.
func Discover(dirs ...string) (string, error) {
	var (
		newest     string
		newestTime time.Time
	)
	for _, dir := range dirs {
		entries, err := os.ReadDir(dir)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("list %s: %w", dir, err)
		}
		for _, e := range entries {
			name := e.Name()
			if e.IsDir() || !strings.HasPrefix(name, filePrefix) || filepath.Ext(name) != fileExt {
				continue
			}
			path := filepath.Join(dir, name)
			stamp := fileTime(path)
			if newest == "" || stamp.After(newestTime) {
				newest, newestTime = path, stamp
			}
		}
	}
	if newest == "" {
		return "", ErrNotFound
	}
	return newest, nil
}

func fileTime(path string) time.Time {
	stem := strings.TrimSuffix(filepath.Base(path), fileExt)
	if m := fileStampRe.FindString(stem); m != "" {
		if t, err := time.Parse("20060102150405", m); err == nil {
			return t
		}
	}
	info, err := os.Stat(path)
	if err != nil {
		return time.Time{}
	}
	return info.ModTime().UTC()
}

// RunwayFilePath returns the .rwy file that belongs to the sector file.
func RunwayFilePath(sectorFile string) string {
	return strings.TrimSuffix(sectorFile, filepath.Ext(sectorFile)) + ".rwy"
}
