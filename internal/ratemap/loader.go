// internal/ratemap/loader.go
package ratemap

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
)

// ScalePerSite is multiplied by the profile length to rescale raw rates, so
// the total mutation budget grows with the simulated region.
const ScalePerSite = 0.00002

// ErrMalformedRateFile marks rate-map content that cannot be used.
var ErrMalformedRateFile = errors.New("malformed rate file")

// MalformedError pinpoints the offending line (0 when the file as a whole is bad).
type MalformedError struct {
	Path string
	Line int
	Msg  string
}

func (e *MalformedError) Error() string {
	if e.Line == 0 {
		return fmt.Sprintf("%s: %s: %s", e.Path, ErrMalformedRateFile, e.Msg)
	}
	return fmt.Sprintf("%s:%d %s: %s", e.Path, e.Line, ErrMalformedRateFile, e.Msg)
}

func (e *MalformedError) Unwrap() error { return ErrMalformedRateFile }

// Profile is the absolute per-site mutation rate over sites 0..N-1.
type Profile struct {
	Rates []float64
}

// Len is the number of sites, which also fixes the simulated region length.
func (p Profile) Len() int { return len(p.Rates) }

// Positions returns the N+1 site boundaries 0, 1, ..., N.
func (p Profile) Positions() []float64 {
	pos := make([]float64, len(p.Rates)+1)
	for i := range pos {
		pos[i] = float64(i)
	}
	return pos
}

// Total is the summed per-site rate.
func (p Profile) Total() float64 {
	var t float64
	for _, r := range p.Rates {
		t += r
	}
	return t
}

// Load reads one non-negative float per line from path and rescales it.
func Load(path string) (Profile, error) {
	fh, err := os.Open(path)
	if err != nil {
		return Profile{}, fmt.Errorf("open rate map: %w", err)
	}
	defer fh.Close()
	return Parse(fh, path)
}

// Parse is Load over an arbitrary reader; name is used in error messages.
// A single trailing newline is allowed, any other blank line is an error.
func Parse(r io.Reader, name string) (Profile, error) {
	var raw []float64
	sc := bufio.NewScanner(r)
	ln := 0
	for sc.Scan() {
		ln++
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			return Profile{}, &MalformedError{Path: name, Line: ln, Msg: "empty line"}
		}
		v, err := strconv.ParseFloat(line, 64)
		if err != nil {
			return Profile{}, &MalformedError{Path: name, Line: ln, Msg: fmt.Sprintf("not a number: %q", line)}
		}
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return Profile{}, &MalformedError{Path: name, Line: ln, Msg: fmt.Sprintf("rate %v must be finite and >= 0", v)}
		}
		raw = append(raw, v)
	}
	if err := sc.Err(); err != nil {
		return Profile{}, fmt.Errorf("read rate map %s: %w", name, err)
	}
	if len(raw) == 0 {
		return Profile{}, &MalformedError{Path: name, Msg: "no rates"}
	}
	return Scale(raw), nil
}

// Scale multiplies raw by ScalePerSite*len(raw).
func Scale(raw []float64) Profile {
	f := ScalePerSite * float64(len(raw))
	rates := make([]float64, len(raw))
	for i, v := range raw {
		rates[i] = v * f
	}
	return Profile{Rates: rates}
}
