// Package stats aggregates timing records: mean and spread per backend and
// phase, and the speedup of each backend against a baseline.
package stats

import (
	"encoding/csv"
	"io"
	"math"
	"sort"
	"strconv"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/stat"

	"github.com/born-ml/xpbench/backend"
)

// Baseline is the backend speedups are computed against.
var Baseline = backend.ReferenceCPU.String()

// Sample is one parsed timing record.
type Sample struct {
	Seconds float64
	Backend string
	Phase   string
}

// Group summarizes all samples of one (backend, phase) pair.
type Group struct {
	Backend string
	Phase   string
	Runs    int
	Mean    float64
	StdDev  float64

	// Speedup is baseline mean / Mean for the same phase, NaN when the
	// baseline has no samples for that phase.
	Speedup float64
}

// ReadSamples parses "<seconds>,<backend>,<phase>" lines. Blank lines are
// skipped; anything else malformed is an error naming the line.
func ReadSamples(r io.Reader) ([]Sample, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = 3
	cr.TrimLeadingSpace = true

	var samples []Sample
	for {
		fields, err := cr.Read()
		if err == io.EOF {
			return samples, nil
		}
		if err != nil {
			return nil, errors.Wrap(err, "read records")
		}
		line, _ := cr.FieldPos(0)

		seconds, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			return nil, errors.Wrapf(err, "line %d: elapsed seconds", line)
		}
		if seconds < 0 || math.IsNaN(seconds) {
			return nil, errors.Errorf("line %d: negative elapsed time %v", line, seconds)
		}
		samples = append(samples, Sample{
			Seconds: seconds,
			Backend: canonicalBackend(fields[1]),
			Phase:   fields[2],
		})
	}
}

// canonicalBackend folds known backend names to their record spelling.
// Unknown names are kept as written.
func canonicalBackend(name string) string {
	if k, err := backend.Parse(name); err == nil {
		return k.String()
	}
	return name
}

type key struct{ backend, phase string }

// Summarize groups samples by backend and phase, sorted by phase then backend.
func Summarize(samples []Sample) []Group {
	byKey := map[key][]float64{}
	for _, s := range samples {
		k := key{s.Backend, s.Phase}
		byKey[k] = append(byKey[k], s.Seconds)
	}

	groups := make([]Group, 0, len(byKey))
	for k, xs := range byKey {
		g := Group{Backend: k.backend, Phase: k.phase, Runs: len(xs), Mean: stat.Mean(xs, nil)}
		if len(xs) > 1 {
			g.StdDev = stat.StdDev(xs, nil)
		}
		groups = append(groups, g)
	}

	baseline := map[string]float64{}
	for _, g := range groups {
		if g.Backend == Baseline {
			baseline[g.Phase] = g.Mean
		}
	}
	for i := range groups {
		g := &groups[i]
		g.Speedup = math.NaN()
		if base, ok := baseline[g.Phase]; ok && g.Mean > 0 {
			g.Speedup = base / g.Mean
		}
	}

	sort.Slice(groups, func(i, j int) bool {
		if groups[i].Phase != groups[j].Phase {
			return groups[i].Phase < groups[j].Phase
		}
		return groups[i].Backend < groups[j].Backend
	})
	return groups
}

// Write prints groups as CSV with a header row. Missing speedups are empty.
func Write(w io.Writer, groups []Group) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"phase", "backend", "runs", "mean_seconds", "std_seconds", "speedup"}); err != nil {
		return errors.Wrap(err, "write summary")
	}
	for _, g := range groups {
		speedup := ""
		if !math.IsNaN(g.Speedup) {
			speedup = strconv.FormatFloat(g.Speedup, 'f', 3, 64)
		}
		row := []string{
			g.Phase,
			g.Backend,
			strconv.Itoa(g.Runs),
			strconv.FormatFloat(g.Mean, 'g', 6, 64),
			strconv.FormatFloat(g.StdDev, 'g', 6, 64),
			speedup,
		}
		if err := cw.Write(row); err != nil {
			return errors.Wrap(err, "write summary")
		}
	}
	cw.Flush()
	return errors.Wrap(cw.Error(), "write summary")
}
