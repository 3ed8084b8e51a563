package bqplan

import (
	"fmt"
	"testing"

	"github.com/timmy/bqlens/internal/domain"
)

// testSink records diagnostics for assertions.
type testSink struct {
	warnings []string
	errors   []string
	debugs   []string
}

func (s *testSink) Debugf(format string, args ...interface{}) {
	s.debugs = append(s.debugs, fmt.Sprintf(format, args...))
}

func (s *testSink) Warnf(format string, args ...interface{}) {
	s.warnings = append(s.warnings, fmt.Sprintf(format, args...))
}

func (s *testSink) Errorf(format string, args ...interface{}) {
	s.errors = append(s.errors, fmt.Sprintf(format, args...))
}

func readStep(from string) *domain.QueryStep {
	return &domain.QueryStep{Kind: "READ", Substeps: []string{"field1", "FROM " + from}}
}

func jobDoc(stages ...*domain.Stage) *domain.JobDocument {
	return &domain.JobDocument{
		Kind: "bigquery#job",
		ID:   "proj:US.job_1",
		Statistics: &domain.JobStatistics{
			StartTime: "0",
			EndTime:   "10000",
			Query:     &domain.QueryStatistics{QueryPlan: stages},
		},
	}
}

func TestNewMissingKind(t *testing.T) {
	sink := &testSink{}
	p := New(&domain.JobDocument{ID: "j1"}, sink)

	if p.IsValid() {
		t.Error("plan with no kind should be invalid")
	}
	if len(p.Nodes()) != 0 || len(p.Edges()) != 0 {
		t.Errorf("invalid plan should be empty, got %d nodes %d edges", len(p.Nodes()), len(p.Edges()))
	}
	if len(sink.warnings) != 1 {
		t.Errorf("expected 1 warning, got %v", sink.warnings)
	}
}

func TestNewNilDocument(t *testing.T) {
	sink := &testSink{}
	p := New(nil, sink)
	if p.IsValid() {
		t.Error("nil document should yield an invalid plan")
	}
}

func TestNewWrongKind(t *testing.T) {
	sink := &testSink{}
	p := New(&domain.JobDocument{Kind: "dataflow#job", ID: "j1"}, sink)

	if p.IsValid() {
		t.Error("non-bigquery kind should be invalid")
	}
	if len(sink.warnings) != 1 {
		t.Fatalf("expected 1 warning, got %v", sink.warnings)
	}
}

func TestNewMissingQueryPlan(t *testing.T) {
	tests := []struct {
		name string
		doc  *domain.JobDocument
	}{
		{"no statistics", &domain.JobDocument{Kind: "bigquery#job", ID: "j1"}},
		{"no query block", &domain.JobDocument{
			Kind: "bigquery#job", ID: "j1",
			Statistics: &domain.JobStatistics{StartTime: "0", EndTime: "1"},
		}},
		{"no plan array", &domain.JobDocument{
			Kind: "bigquery#job", ID: "j1",
			Statistics: &domain.JobStatistics{Query: &domain.QueryStatistics{}},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sink := &testSink{}
			p := New(tt.doc, sink)
			if p.IsValid() {
				t.Error("plan should be invalid")
			}
			if len(sink.warnings) != 1 {
				t.Errorf("expected 1 warning, got %v", sink.warnings)
			}
		})
	}
}

func TestNewValid(t *testing.T) {
	sink := &testSink{}
	p := New(jobDoc(&domain.Stage{ID: "0", Name: "S00: Input"}), sink)

	if !p.IsValid() {
		t.Fatal("well-formed document should be valid")
	}
	if len(p.Nodes()) != 1 {
		t.Errorf("expected 1 node, got %d", len(p.Nodes()))
	}
	if len(sink.warnings) != 0 {
		t.Errorf("unexpected warnings: %v", sink.warnings)
	}
}

func TestGhostNodeSynthesis(t *testing.T) {
	doc := jobDoc(
		&domain.Stage{ID: "0", Name: "S00: Input", Steps: []*domain.QueryStep{
			readStep("project.dataset.events"),
		}},
		&domain.Stage{ID: "1", Name: "S01: Join", Steps: []*domain.QueryStep{
			readStep("project.dataset.users"),
		}, InputStages: []string{"0"}},
	)
	p := New(doc, &testSink{})

	// 2 real stages + 2 distinct external references.
	if len(p.Nodes()) != 4 {
		t.Fatalf("expected 4 nodes, got %d", len(p.Nodes()))
	}

	ghosts := 0
	for _, n := range p.Nodes() {
		if !n.IsExternal {
			continue
		}
		ghosts++
		if n.ID != n.Name {
			t.Errorf("ghost id %q should equal name %q", n.ID, n.Name)
		}
		if len(n.Steps) != 0 {
			t.Errorf("ghost %s should have no steps", n.ID)
		}
	}
	if ghosts != 2 {
		t.Errorf("expected 2 ghost nodes, got %d", ghosts)
	}
}

func TestEdgeEndpointsResolve(t *testing.T) {
	doc := jobDoc(
		&domain.Stage{ID: "0", Name: "S00: Input", Steps: []*domain.QueryStep{
			readStep("project.dataset.events"),
		}},
		&domain.Stage{ID: "1", Name: "S01: Output", InputStages: []string{"0"}},
	)
	p := New(doc, &testSink{})

	if len(p.Edges()) != 2 {
		t.Fatalf("expected 2 edges, got %d", len(p.Edges()))
	}
	for _, e := range p.Edges() {
		if p.Node(e.From) == nil {
			t.Errorf("edge from %q references unknown node", e.From)
		}
		to := p.Node(e.To)
		if to == nil {
			t.Fatalf("edge to %q references unknown node", e.To)
		}
		if e.Label != to.Name {
			t.Errorf("edge label %q should be consuming stage name %q", e.Label, to.Name)
		}
	}
}

func TestInternalTableReferencesIgnored(t *testing.T) {
	doc := jobDoc(
		&domain.Stage{ID: "0", Name: "S00: Repartition", Steps: []*domain.QueryStep{
			readStep("__stage00_output"),
		}},
	)
	p := New(doc, &testSink{})

	if len(p.Nodes()) != 1 {
		t.Errorf("__ reference must not synthesize a ghost, got %d nodes", len(p.Nodes()))
	}
	if len(p.Edges()) != 0 {
		t.Errorf("__ reference must not create an edge, got %d", len(p.Edges()))
	}
}

func TestDuplicateReferenceYieldsOneEdge(t *testing.T) {
	// Stage 1 references stage 0 both via a read step and inputStages.
	doc := jobDoc(
		&domain.Stage{ID: "0", Name: "S00: Input"},
		&domain.Stage{ID: "1", Name: "S01: Aggregate", Steps: []*domain.QueryStep{
			readStep("0"),
		}, InputStages: []string{"0"}},
	)
	p := New(doc, &testSink{})

	if len(p.Edges()) != 1 {
		t.Errorf("expected 1 edge for duplicate reference, got %d", len(p.Edges()))
	}
}

func TestFirstFromSubstepWins(t *testing.T) {
	doc := jobDoc(
		&domain.Stage{ID: "0", Name: "S00: Input", Steps: []*domain.QueryStep{
			{Kind: "READ", Substeps: []string{"FROM first.table", "FROM second.table"}},
		}},
	)
	p := New(doc, &testSink{})

	if len(p.Edges()) != 1 {
		t.Fatalf("expected 1 edge, got %d", len(p.Edges()))
	}
	if p.Edges()[0].From != "first.table" {
		t.Errorf("expected first FROM substep to win, got %q", p.Edges()[0].From)
	}
}

func TestNonReadStepsYieldNoSources(t *testing.T) {
	doc := jobDoc(
		&domain.Stage{ID: "0", Name: "S00: Compute", Steps: []*domain.QueryStep{
			{Kind: "COMPUTE", Substeps: []string{"FROM project.dataset.events"}},
		}},
	)
	p := New(doc, &testSink{})

	if len(p.Edges()) != 0 {
		t.Errorf("COMPUTE step must not produce reads, got %d edges", len(p.Edges()))
	}
}

func TestDeterministicEdgeOrder(t *testing.T) {
	doc := jobDoc(
		&domain.Stage{ID: "0", Name: "S00: A", Steps: []*domain.QueryStep{
			readStep("t.one"),
			readStep("t.two"),
		}},
		&domain.Stage{ID: "1", Name: "S01: B", InputStages: []string{"0"}},
	)
	p := New(doc, &testSink{})

	want := []Edge{
		{From: "t.one", To: "0", Label: "S00: A"},
		{From: "t.two", To: "0", Label: "S00: A"},
		{From: "0", To: "1", Label: "S01: B"},
	}
	got := p.Edges()
	if len(got) != len(want) {
		t.Fatalf("expected %d edges, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("edge %d: got %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestNodeLookupStable(t *testing.T) {
	doc := jobDoc(
		&domain.Stage{ID: "0", Name: "S00: Input", Steps: []*domain.QueryStep{
			readStep("t.events"),
		}},
	)
	p := New(doc, &testSink{})

	first := p.Node("t.events")
	second := p.Node("t.events")
	if first == nil || first != second {
		t.Error("repeated lookups must return the same node reference")
	}
	if p.Node("no-such-stage") != nil {
		t.Error("unknown identifier must return nil")
	}
}

func TestSteps(t *testing.T) {
	doc := jobDoc(
		&domain.Stage{ID: "0", Name: "S00: Input", Steps: []*domain.QueryStep{
			readStep("t.events"),
		}},
	)
	p := New(doc, &testSink{})

	if got := p.Steps("0"); len(got) != 1 {
		t.Errorf("expected 1 step, got %d", len(got))
	}
	if got := p.Steps("t.events"); got != nil {
		t.Errorf("ghost node should have nil steps, got %v", got)
	}
	if got := p.Steps("missing"); got != nil {
		t.Errorf("unknown stage should have nil steps, got %v", got)
	}
}
