package agent

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"actuation/internal/actions"
	"actuation/internal/actuator"
	protoio "actuation/internal/io"
)

type scriptedSource struct {
	decisions []Decision
	requests  []DecisionRequest
}

func (s *scriptedSource) Decide(_ context.Context, req DecisionRequest) (Decision, error) {
	req.Mask = append([]bool(nil), req.Mask...)
	s.requests = append(s.requests, req)
	if len(s.decisions) == 0 {
		return Decision{}, nil
	}
	d := s.decisions[0]
	s.decisions = s.decisions[1:]
	return d, nil
}

type failingSource struct{ err error }

func (s failingSource) Decide(context.Context, DecisionRequest) (Decision, error) {
	return Decision{}, s.err
}

func newTestManager(t *testing.T, units ...protoio.Actuator) *actuator.Manager {
	t.Helper()
	m := actuator.NewManager()
	for _, u := range units {
		if err := m.Add(u); err != nil {
			t.Fatalf("add %s: %v", u.Name(), err)
		}
	}
	return m
}

func TestCortexTickDeliversDecision(t *testing.T) {
	arm := protoio.NewVectorActuator("arm", actions.MakeContinuous(2))
	gripper := protoio.NewVectorActuator("gripper", actions.Spec{NumContinuousActions: 1, BranchSizes: []int{3, 2}})
	m := newTestManager(t, gripper, arm)

	source := &scriptedSource{decisions: []Decision{{
		Continuous: []float32{0.5, -0.5, 0.25},
		Discrete:   []int32{2, 1},
	}}}
	c, err := NewCortex("agent-1", m, source)
	if err != nil {
		t.Fatalf("new cortex: %v", err)
	}

	if _, err := c.Tick(context.Background()); err != nil {
		t.Fatalf("tick: %v", err)
	}
	if c.Step() != 1 {
		t.Fatalf("unexpected step: %d", c.Step())
	}

	if got := arm.Last().PackActions(nil); len(got) != 2 || got[0] != 0.5 || got[1] != -0.5 {
		t.Fatalf("unexpected arm actions: %v", got)
	}
	if got := gripper.Last().PackActions(nil); len(got) != 3 || got[0] != 0.25 || got[1] != 2 || got[2] != 1 {
		t.Fatalf("unexpected gripper actions: %v", got)
	}

	req := source.requests[0]
	if req.AgentID != "agent-1" || req.Step != 0 {
		t.Fatalf("unexpected request: %+v", req)
	}
	if req.Spec.NumContinuousActions != 3 || len(req.Spec.BranchSizes) != 2 {
		t.Fatalf("unexpected combined spec: %+v", req.Spec)
	}
	if len(req.Mask) != 0 {
		t.Fatalf("expected no mask, got %v", req.Mask)
	}
}

func TestCortexPassesMaskToSource(t *testing.T) {
	picker := protoio.NewVectorActuator("picker", actions.MakeDiscrete(3))
	if err := picker.DisallowChoices(0, 1); err != nil {
		t.Fatalf("disallow: %v", err)
	}
	source := &scriptedSource{}
	c, err := NewCortex("agent-1", newTestManager(t, picker), source)
	if err != nil {
		t.Fatalf("new cortex: %v", err)
	}
	if _, err := c.Tick(context.Background()); err != nil {
		t.Fatalf("tick: %v", err)
	}
	mask := source.requests[0].Mask
	if len(mask) != 3 || mask[0] || !mask[1] || mask[2] {
		t.Fatalf("unexpected mask: %v", mask)
	}
}

func TestCortexRejectsMismatchedDecision(t *testing.T) {
	arm := protoio.NewVectorActuator("arm", actions.MakeContinuous(2))
	source := &scriptedSource{decisions: []Decision{{Continuous: []float32{1, 2, 3}}}}
	c, err := NewCortex("agent-1", newTestManager(t, arm), source)
	if err != nil {
		t.Fatalf("new cortex: %v", err)
	}
	if _, err := c.Tick(context.Background()); !errors.Is(err, actuator.ErrActionSizeMismatch) {
		t.Fatalf("expected ErrActionSizeMismatch, got: %v", err)
	}
	if arm.Received() != 0 || c.Step() != 0 {
		t.Fatalf("expected no execution after rejected decision")
	}
}

func TestCortexSourceError(t *testing.T) {
	boom := errors.New("boom")
	c, err := NewCortex("agent-1", newTestManager(t), failingSource{err: boom})
	if err != nil {
		t.Fatalf("new cortex: %v", err)
	}
	if _, err := c.Tick(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("expected source error, got: %v", err)
	}
}

func TestCortexEndEpisodeResets(t *testing.T) {
	arm := protoio.NewVectorActuator("arm", actions.MakeContinuous(1))
	source := &scriptedSource{decisions: []Decision{{Continuous: []float32{0.75}}}}
	c, err := NewCortex("agent-1", newTestManager(t, arm), source)
	if err != nil {
		t.Fatalf("new cortex: %v", err)
	}
	if _, err := c.Run(context.Background(), 2); err != nil {
		t.Fatalf("run: %v", err)
	}
	if arm.Received() != 2 {
		t.Fatalf("unexpected received count: %d", arm.Received())
	}

	c.EndEpisode()
	if c.Step() != 0 || arm.Received() != 0 {
		t.Fatalf("expected reset after episode end")
	}
	if got := c.Manager().StoredActions().PackActions(nil); got[0] != 0 {
		t.Fatalf("expected zeroed store, got %v", got)
	}
}

func TestNewCortexValidation(t *testing.T) {
	m := actuator.NewManager()
	if _, err := NewCortex("", m, &scriptedSource{}); err == nil {
		t.Fatal("expected id validation")
	}
	if _, err := NewCortex("a", nil, &scriptedSource{}); err == nil {
		t.Fatal("expected manager validation")
	}
	if _, err := NewCortex("a", m, nil); err == nil {
		t.Fatal("expected source validation")
	}
}

func TestCortexTickRecordsSpans(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	arm := protoio.NewVectorActuator("arm", actions.MakeContinuous(1))
	source := &scriptedSource{decisions: []Decision{{Continuous: []float32{1}}, {Continuous: []float32{1, 2}}}}
	c, err := NewCortex("agent-1", newTestManager(t, arm), source, func(o *CortexOptions) {
		o.TracerProvider = provider
	})
	if err != nil {
		t.Fatalf("new cortex: %v", err)
	}

	if _, err := c.Tick(context.Background()); err != nil {
		t.Fatalf("tick: %v", err)
	}
	if _, err := c.Tick(context.Background()); err == nil {
		t.Fatal("expected second tick to fail")
	}

	spans := recorder.Ended()
	if len(spans) != 2 {
		t.Fatalf("expected 2 spans, got %d", len(spans))
	}
	if spans[0].Name() != "agent.tick" || spans[0].Status().Code == codes.Error {
		t.Fatalf("unexpected first span: %s %v", spans[0].Name(), spans[0].Status())
	}
	if spans[1].Status().Code != codes.Error {
		t.Fatalf("expected error status on failed tick, got %v", spans[1].Status())
	}
}
