// internal/app/report.go
package app

import (
	"encoding/json"
	"io"
	"slices"

	"finsim/internal/pipeline"
	"finsim/internal/stats"
)

// Summary is the --json view of one run.
type Summary struct {
	RunID             string           `json:"run_id"`
	State             pipeline.State   `json:"state"`
	Trace             []pipeline.State `json:"trace"`
	RecombinationRate float64          `json:"recombination_rate"`
	RateMap           string           `json:"rate_map"`
	Sites             int              `json:"sites"`
	Record            *stats.Record    `json:"record,omitempty"`
	Outputs           pipeline.Paths   `json:"outputs"`
	Published         []string         `json:"published,omitempty"`
	Error             string           `json:"error,omitempty"`
}

func summarize(cfg pipeline.Config, res pipeline.Result, err error) Summary {
	s := Summary{
		RunID:             res.RunID.String(),
		State:             res.State,
		Trace:             res.Trace,
		RecombinationRate: cfg.RecombinationRate,
		RateMap:           cfg.RateMap,
		Sites:             res.Sites,
		Outputs:           cfg.Paths,
	}
	if slices.Contains(res.Trace, pipeline.StateStatsComputed) {
		rec := res.Record
		s.Record = &rec
	}
	for _, p := range res.Published {
		s.Published = append(s.Published, p.Key)
	}
	if err != nil {
		s.Error = err.Error()
	}
	return s
}

// encodePretty writes v as indented JSON to w.
func encodePretty(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
