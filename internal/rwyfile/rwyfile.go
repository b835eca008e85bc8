// Package rwyfile writes runway assignments in the .rwy format read by the
// controller client:
//
//	ACTIVE_AIRPORT:ENGM:1
//	ACTIVE_RUNWAY:ENGM:01L:1
//	ACTIVE_RUNWAY:ENGM:01R:0
//
// The ACTIVE_AIRPORT lines at the top of an existing file are kept.
package rwyfile

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/meltinglava/ENOR-Vatsim-Runway-Selector/internal/domain"
)

const airportPrefix = "ACTIVE_AIRPORT:"

// ReadHeader returns the ACTIVE_AIRPORT lines at the start of r.
func ReadHeader(r io.Reader) ([]string, error) {
	var header []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if !strings.HasPrefix(line, airportPrefix) {
			break
		}
		header = append(header, line)
	}
	return header, scanner.Err()
}

// Write writes header followed by one ACTIVE_RUNWAY record per runway end and
// direction flag.
func Write(w io.Writer, header []string, assignments []domain.Assignment) error {
	bw := bufio.NewWriter(w)
	for _, line := range header {
		if _, err := fmt.Fprintln(bw, line); err != nil {
			return err
		}
	}
	for _, a := range assignments {
		for _, rec := range a.Records() {
			if _, err := fmt.Fprintln(bw, rec); err != nil {
				return err
			}
		}
	}
	return bw.Flush()
}

// Update replaces the runway records in the file at path. A missing file is
// created with no header. The new content is written to a temporary file
// in the same folder and renamed over the old one.
func Update(path string, assignments []domain.Assignment) error {
	header, err := readHeaderFile(path)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create runway file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := Write(tmp, header, assignments); err != nil {
		tmp.Close()
		return fmt.Errorf("write runway file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write runway file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace runway file: %w", err)
	}
	return nil
}

func readHeaderFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open runway file: %w", err)
	}
	defer f.Close()

	header, err := ReadHeader(f)
	if err != nil {
		return nil, fmt.Errorf("read runway file: %w", err)
	}
	return header, nil
}
