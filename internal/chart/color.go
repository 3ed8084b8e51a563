package chart

import (
	"strconv"

	"github.com/timmy/bqlens/internal/domain"
)

// Stage colors, one per timing bucket, picked by whichever average dominates.
const (
	WaitColor    = "#f4b400"
	ReadColor    = "#4285f4"
	ComputeColor = "#0f9d58"
	WriteColor   = "#db4437"

	// DefaultColor is used for stages without wait timing data, ghost nodes
	// included.
	DefaultColor = "#9e9e9e"
)

// StageColor picks a display color for a stage from the timing bucket with
// the largest average duration. Stages with a zero or absent wait average get
// the default color.
func StageColor(s *domain.Stage) string {
	wait := parseMs(s.WaitMsAvg)
	if wait == 0 {
		return DefaultColor
	}

	color := WaitColor
	max := wait
	if read := parseMs(s.ReadMsAvg); read > max {
		max = read
		color = ReadColor
	}
	if compute := parseMs(s.ComputeMsAvg); compute > max {
		max = compute
		color = ComputeColor
	}
	if write := parseMs(s.WriteMsAvg); write > max {
		color = WriteColor
	}
	return color
}

// Colors derives the color of every real stage in a plan, keyed by stage id.
func Colors(nodes []*domain.Stage) map[string]string {
	out := make(map[string]string, len(nodes))
	for _, n := range nodes {
		if n.IsExternal {
			continue
		}
		out[n.ID] = StageColor(n)
	}
	return out
}

func parseMs(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}
