package agent

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"actuation/internal/actions"
	"actuation/internal/actuator"
)

const tracerName = "actuation/agent"

// DecisionRequest is what a decision source sees for one step.
type DecisionRequest struct {
	AgentID string
	Step    int
	Spec    actions.Spec
	// Mask is the flat discrete action mask, or nil when nothing is masked.
	// It aliases manager storage and is only valid during Decide.
	Mask []bool
}

// Decision is a flat action vector matching the combined spec.
type Decision struct {
	Continuous []float32
	Discrete   []int32
}

// DecisionSource produces actions for every actuator of an agent at once.
type DecisionSource interface {
	Decide(ctx context.Context, req DecisionRequest) (Decision, error)
}

type CortexOptions struct {
	TracerProvider trace.TracerProvider
}

// Cortex drives one agent's actuator manager through decision steps.
type Cortex struct {
	id      string
	manager *actuator.Manager
	source  DecisionSource
	tracer  trace.Tracer

	spec      actions.Spec
	specReady bool
	step      int
}

func NewCortex(id string, manager *actuator.Manager, source DecisionSource, optFns ...func(o *CortexOptions)) (*Cortex, error) {
	if id == "" {
		return nil, fmt.Errorf("agent id is required")
	}
	if manager == nil {
		return nil, fmt.Errorf("actuator manager is required")
	}
	if source == nil {
		return nil, fmt.Errorf("decision source is required")
	}
	opts := CortexOptions{TracerProvider: otel.GetTracerProvider()}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Cortex{
		id:      id,
		manager: manager,
		source:  source,
		tracer:  opts.TracerProvider.Tracer(tracerName),
	}, nil
}

func (c *Cortex) ID() string {
	return c.id
}

// Step is the number of completed ticks since the last episode end.
func (c *Cortex) Step() int {
	return c.step
}

func (c *Cortex) Manager() *actuator.Manager {
	return c.manager
}

// Tick runs one decision step: mask collection, decision, action update and
// execution.
func (c *Cortex) Tick(ctx context.Context) (decision Decision, err error) {
	ctx, span := c.tracer.Start(ctx, "agent.tick", trace.WithAttributes(
		attribute.String("agent.id", c.id),
		attribute.Int("agent.step", c.step),
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	if err := ctx.Err(); err != nil {
		return Decision{}, err
	}
	if err := c.manager.WriteActionMask(); err != nil {
		return Decision{}, fmt.Errorf("write action mask: %w", err)
	}
	if !c.specReady {
		// The manager is finalized by now, so its order and shape are fixed.
		c.spec = c.manager.CombinedSpec()
		c.specReady = true
	}

	req := DecisionRequest{AgentID: c.id, Step: c.step, Spec: c.spec}
	mask := c.manager.DiscreteActionMask()
	if mask.HasMask() {
		req.Mask = mask.Mask()
	}
	span.SetAttributes(
		attribute.Int("actions.total", c.manager.TotalNumberOfActions()),
		attribute.Bool("actions.masked", req.Mask != nil),
	)

	decision, err = c.source.Decide(ctx, req)
	if err != nil {
		return Decision{}, fmt.Errorf("decide: %w", err)
	}
	if err := c.manager.UpdateActions(decision.Continuous, decision.Discrete); err != nil {
		return Decision{}, fmt.Errorf("update actions: %w", err)
	}
	if err := c.manager.ExecuteActions(ctx); err != nil {
		return Decision{}, fmt.Errorf("execute actions: %w", err)
	}
	c.step++
	return decision, nil
}

// EndEpisode clears stored actions and actuator state.
func (c *Cortex) EndEpisode() {
	c.manager.ResetData()
	c.step = 0
}

// Run ticks until steps complete, ctx ends or a tick fails.
func (c *Cortex) Run(ctx context.Context, steps int) ([]Decision, error) {
	if steps < 0 {
		return nil, errors.New("steps must be >= 0")
	}
	out := make([]Decision, 0, steps)
	for i := 0; i < steps; i++ {
		d, err := c.Tick(ctx)
		if err != nil {
			return out, err
		}
		out = append(out, Decision{
			Continuous: append([]float32(nil), d.Continuous...),
			Discrete:   append([]int32(nil), d.Discrete...),
		})
	}
	return out, nil
}
