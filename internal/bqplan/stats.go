package bqplan

import (
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/timmy/bqlens/internal/domain"
)

// en formats numbers with English grouping ("12,345"), matching what the
// dashboard shows in timing summaries.
var en = message.NewPrinter(language.English)

// StageStats holds display statistics derived from a stage's raw timing
// fields. Values are computed once per plan and never written back into the
// decoded stage.
type StageStats struct {
	DurationMs   float64   `json:"duration_ms"`
	StartPercent float64   `json:"start_percent"`
	EndPercent   float64   `json:"end_percent"`
	Start        time.Time `json:"start"`
	End          time.Time `json:"end"`

	// Human-readable "avg: X max: Y" summaries per timing bucket.
	Wait    string `json:"wait"`
	Read    string `json:"read"`
	Compute string `json:"compute"`
	Write   string `json:"write"`
}

// Stats derives display statistics for every stage with complete timing data,
// keyed by stage identifier. A stage missing any of the four timestamps is
// skipped silently: ghost nodes and stages that never ran have no timing
// fields, and that is incomplete data rather than an error. An empty map is
// returned when the job-level timestamps themselves are not numeric. A job
// with a zero-length run (startTime == endTime) keeps percentages at zero so
// the stats stay finite and JSON-serializable.
func (p *Plan) Stats() map[string]*StageStats {
	out := make(map[string]*StageStats)
	if p.Job == nil || p.Job.Statistics == nil {
		return out
	}

	jobStart, err := strconv.ParseFloat(p.Job.Statistics.StartTime, 64)
	if err != nil {
		return out
	}
	jobEnd, err := strconv.ParseFloat(p.Job.Statistics.EndTime, 64)
	if err != nil {
		return out
	}
	jobSpan := jobEnd - jobStart

	for _, n := range p.nodes {
		if n.IsExternal {
			continue
		}
		start, err := strconv.ParseFloat(n.StartMs, 64)
		if err != nil {
			continue
		}
		end, err := strconv.ParseFloat(n.EndMs, 64)
		if err != nil {
			continue
		}

		st := &StageStats{
			DurationMs: end - start,
			Start:      msToTime(start),
			End:        msToTime(end),
			Wait:       avgMax(n.WaitMsAvg, n.WaitMsMax),
			Read:       avgMax(n.ReadMsAvg, n.ReadMsMax),
			Compute:    avgMax(n.ComputeMsAvg, n.ComputeMsMax),
			Write:      avgMax(n.WriteMsAvg, n.WriteMsMax),
		}
		if jobSpan > 0 {
			st.StartPercent = 100 * (start - jobStart) / jobSpan
			st.EndPercent = 100 * (end - jobStart) / jobSpan
		}
		out[n.ID] = st
	}
	return out
}

// detailFields is the stable field order of the stage detail block.
var detailFields = []struct {
	label string
	value func(*domain.Stage) string
}{
	{"id", func(s *domain.Stage) string { return s.ID }},
	{"name", func(s *domain.Stage) string { return s.Name }},
	{"status", func(s *domain.Stage) string { return s.Status }},
	{"startMs", func(s *domain.Stage) string { return s.StartMs }},
	{"endMs", func(s *domain.Stage) string { return s.EndMs }},
	{"waitMsAvg", func(s *domain.Stage) string { return s.WaitMsAvg }},
	{"waitMsMax", func(s *domain.Stage) string { return s.WaitMsMax }},
	{"readMsAvg", func(s *domain.Stage) string { return s.ReadMsAvg }},
	{"readMsMax", func(s *domain.Stage) string { return s.ReadMsMax }},
	{"computeMsAvg", func(s *domain.Stage) string { return s.ComputeMsAvg }},
	{"computeMsMax", func(s *domain.Stage) string { return s.ComputeMsMax }},
	{"writeMsAvg", func(s *domain.Stage) string { return s.WriteMsAvg }},
	{"writeMsMax", func(s *domain.Stage) string { return s.WriteMsMax }},
	{"recordsRead", func(s *domain.Stage) string { return s.RecordsRead }},
	{"recordsWritten", func(s *domain.Stage) string { return s.RecordsWritten }},
	{"shuffleOutputBytesSpilled", func(s *domain.Stage) string { return s.ShuffleOutputBytesSpilled }},
}

// Describe returns a key/value text block for one stage with a stable field
// order, suitable for a detail pane. The empty string is returned for unknown
// identifiers.
func (p *Plan) Describe(id string) string {
	n := p.Node(id)
	if n == nil {
		return ""
	}
	var b strings.Builder
	for _, f := range detailFields {
		b.WriteString(f.label)
		b.WriteString(": ")
		b.WriteString(f.value(n))
		b.WriteByte('\n')
	}
	return b.String()
}

// avgMax renders an "avg: X max: Y" summary with en-locale number grouping.
func avgMax(avg, max string) string {
	return en.Sprintf("avg: %v max: %v", grouped(avg), grouped(max))
}

func grouped(ms string) interface{} {
	v, err := strconv.ParseFloat(ms, 64)
	if err != nil {
		return 0
	}
	return number.Decimal(v)
}

func msToTime(ms float64) time.Time {
	return time.UnixMilli(int64(ms)).UTC()
}
