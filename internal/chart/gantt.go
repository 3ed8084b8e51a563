// Package chart projects a reconstructed query plan into the tabular rows a
// Gantt chart consumes. The chart itself is an external collaborator behind
// the Renderer interface; only the row shape is defined here.
package chart

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/timmy/bqlens/internal/bqplan"
)

// GanttRow is the tabular projection of one plan stage:
// (id, name, start, end, nil duration, 100 percent complete, nil dependencies).
// Duration and dependencies are fixed placeholders the chart computes itself.
type GanttRow struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Start           time.Time `json:"start"`
	End             time.Time `json:"end"`
	DurationMs      *int64    `json:"duration_ms"`
	PercentComplete float64   `json:"percent_complete"`
	Dependencies    *string   `json:"dependencies"`
}

// Handle is an opaque reference to a rendered chart, passed back on selection.
type Handle interface{}

// SelectionHandler receives chart selection events together with the rows the
// chart was rendered from.
type SelectionHandler func(h Handle, rows []GanttRow)

// Renderer draws a set of Gantt rows. Implementations wrap whatever charting
// dependency the frontend uses.
type Renderer interface {
	Render(rows []GanttRow) (Handle, error)
}

// Rows projects a plan's stages into Gantt rows. External ghost nodes carry
// no timing data and are excluded; every other node appears exactly once, in
// node order. Stages without derived stats keep zero start/end instants.
func Rows(p *bqplan.Plan, stats map[string]*bqplan.StageStats) []GanttRow {
	var rows []GanttRow
	for _, n := range p.Nodes() {
		if n.IsExternal {
			continue
		}
		row := GanttRow{ID: n.ID, Name: n.Name, PercentComplete: 100}
		if st := stats[n.ID]; st != nil {
			row.Start = st.Start
			row.End = st.End
		}
		rows = append(rows, row)
	}
	return rows
}

// JSONRenderer is the default Renderer: it writes the row table as a JSON
// document for a browser-side chart to draw. Out is the render target; a
// missing target is reported to the sink and aborts the render.
type JSONRenderer struct {
	Out      io.Writer
	OnSelect SelectionHandler
	Sink     bqplan.DiagnosticSink
}

// Render writes the rows to the render target and returns the row set as the
// chart handle.
func (r *JSONRenderer) Render(rows []GanttRow) (Handle, error) {
	if r.Out == nil {
		if r.Sink != nil {
			r.Sink.Errorf("chart render target is not set, cannot draw timing chart")
		}
		return nil, fmt.Errorf("chart: render target is not set")
	}
	if err := json.NewEncoder(r.Out).Encode(rows); err != nil {
		return nil, fmt.Errorf("chart: encode rows: %w", err)
	}
	return rows, nil
}

// Select forwards a selection event to the configured handler, if any.
func (r *JSONRenderer) Select(h Handle, rows []GanttRow) {
	if r.OnSelect != nil {
		r.OnSelect(h, rows)
	}
}

var _ Renderer = (*JSONRenderer)(nil)
