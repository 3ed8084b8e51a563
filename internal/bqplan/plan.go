// Package bqplan reconstructs the execution graph of a BigQuery job from its
// raw job-statistics document. The builder validates the document, adopts the
// query-plan stages as graph nodes, synthesizes ghost nodes for reads of
// external tables, and connects everything with directed edges in a single
// synchronous pass.
package bqplan

import (
	"strings"

	"github.com/timmy/bqlens/internal/domain"
)

const (
	// kindPrefix is the provider prefix every job document must carry
	// ("bigquery#job" in practice).
	kindPrefix = "bigquery"

	// internalTablePrefix marks temp/internal table references that are not
	// meaningful read sources.
	internalTablePrefix = "__"

	readStepKind = "READ"
	fromMarker   = "FROM "
)

// DiagnosticSink receives human-readable diagnostics from plan construction.
// *logger.Logger satisfies it.
type DiagnosticSink interface {
	Debugf(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

// Edge connects a source stage to the stage consuming its output. Label is
// the consuming stage's name. Edges are derived during construction and never
// mutated afterwards.
type Edge struct {
	From  string `json:"from"`
	To    string `json:"to"`
	Label string `json:"label"`
}

// Plan is the reconstructed execution graph of a single job. A plan is either
// valid or invalid, decided once during construction; an invalid plan keeps
// empty node and edge sets and is still safe to use.
type Plan struct {
	Job *domain.JobDocument

	nodes []*domain.Stage
	edges []Edge
	valid bool
	sink  DiagnosticSink
}

// New builds a plan from a job document. Malformed input never produces an
// error: the returned plan is marked invalid and the reason goes to the sink.
func New(job *domain.JobDocument, sink DiagnosticSink) *Plan {
	p := &Plan{Job: job, sink: sink}

	if job == nil || job.Kind == "" {
		sink.Warnf("job document has no kind field, ignoring")
		return p
	}
	if !strings.HasPrefix(job.Kind, kindPrefix) {
		sink.Warnf("document kind %q is not a %s document, ignoring", job.Kind, kindPrefix)
		return p
	}
	if job.Statistics == nil || job.Statistics.Query == nil || job.Statistics.Query.QueryPlan == nil {
		sink.Warnf("job %s has no query plan", job.ID)
		return p
	}

	p.valid = true
	p.nodes = append(p.nodes, job.Statistics.Query.QueryPlan...)
	p.connect()
	sink.Debugf("plan for job %s: %d nodes, %d edges", job.ID, len(p.nodes), len(p.edges))
	return p
}

// IsValid reports whether the document passed all construction checks.
func (p *Plan) IsValid() bool {
	return p.valid
}

// Nodes returns every node of the plan, real stages first in document order,
// then ghost nodes in synthesis order.
func (p *Plan) Nodes() []*domain.Stage {
	return p.nodes
}

// Edges returns the plan's edges in deterministic construction order.
func (p *Plan) Edges() []Edge {
	return p.edges
}

// Node returns the stage with the given identifier, or nil if the plan has no
// such node.
func (p *Plan) Node(id string) *domain.Stage {
	for _, n := range p.nodes {
		if n.ID == id {
			return n
		}
	}
	return nil
}

// Steps returns the raw step list of a stage; nil for ghost nodes and unknown
// identifiers.
func (p *Plan) Steps(id string) []*domain.QueryStep {
	n := p.Node(id)
	if n == nil {
		return nil
	}
	return n.Steps
}

// connect resolves every read source of every stage, synthesizing a ghost
// node before the edge that references it. Nodes are walked in document
// order, so edge order is deterministic.
func (p *Plan) connect() {
	real := len(p.nodes)
	for i := 0; i < real; i++ {
		node := p.nodes[i]
		for _, src := range p.readSources(node) {
			from := p.Node(src)
			if from == nil {
				from = &domain.Stage{ID: src, Name: src, IsExternal: true}
				p.nodes = append(p.nodes, from)
				p.sink.Debugf("stage %s reads external source %s", node.ID, src)
			}
			p.edges = append(p.edges, Edge{From: from.ID, To: node.ID, Label: node.Name})
		}
	}
}

// readSources extracts the identifiers a stage reads from: the first
// "FROM <id>" substep of each READ step, plus everything listed in
// inputStages. Internal __-prefixed table references are discarded, and a
// source referenced more than once by the same stage yields one entry.
// Ghost nodes have no steps and read from nothing.
func (p *Plan) readSources(node *domain.Stage) []string {
	if node.IsExternal {
		return nil
	}

	var sources []string
	seen := make(map[string]bool)
	add := func(id string) {
		if id == "" || seen[id] {
			return
		}
		seen[id] = true
		sources = append(sources, id)
	}

	for _, step := range node.Steps {
		if step == nil || step.Kind != readStepKind {
			continue
		}
		for _, sub := range step.Substeps {
			if !strings.HasPrefix(sub, fromMarker) {
				continue
			}
			fields := strings.Fields(sub)
			if len(fields) >= 2 && !strings.HasPrefix(fields[1], internalTablePrefix) {
				add(fields[1])
			}
			break
		}
	}

	for _, id := range node.InputStages {
		add(id)
	}

	return sources
}
