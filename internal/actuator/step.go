package actuator

import (
	"context"
	"fmt"

	"actuation/internal/actions"
	protoio "actuation/internal/io"
)

// UpdateActions copies an externally produced action vector into the shared
// stores. A nil or empty source zeroes the matching store. Both sources are
// checked before either store is written.
func (m *Manager) UpdateActions(continuous []float32, discrete []int32) error {
	if err := m.ensureFinalized(); err != nil {
		return err
	}
	if len(continuous) > 0 && len(continuous) != len(m.storedContinuous) {
		return fmt.Errorf("%w: continuous got=%d want=%d", ErrActionSizeMismatch, len(continuous), len(m.storedContinuous))
	}
	if len(discrete) > 0 && len(discrete) != len(m.storedDiscrete) {
		return fmt.Errorf("%w: discrete got=%d want=%d", ErrActionSizeMismatch, len(discrete), len(m.storedDiscrete))
	}

	if len(continuous) == 0 {
		clear(m.storedContinuous)
	} else {
		copy(m.storedContinuous, continuous)
	}
	if len(discrete) == 0 {
		clear(m.storedDiscrete)
	} else {
		copy(m.storedDiscrete, discrete)
	}
	return nil
}

// WriteActionMask resets the mask and lets every actuator, in layout order,
// disallow choices on its own branches.
func (m *Manager) WriteActionMask() error {
	if err := m.ensureFinalized(); err != nil {
		return err
	}
	m.discreteActionMask.ResetMask()
	for i, a := range m.actuators {
		if err := m.discreteActionMask.SetCurrentUnit(i); err != nil {
			return err
		}
		if err := a.WriteDiscreteActionMask(m.discreteActionMask); err != nil {
			return fmt.Errorf("actuator %s: write mask: %w", a.Name(), err)
		}
	}
	return nil
}

// ExecuteActions hands every actuator its view of the shared stores.
func (m *Manager) ExecuteActions(ctx context.Context) error {
	if err := m.ensureFinalized(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	for i, a := range m.actuators {
		buffers, err := m.buffersFor(m.layout[i])
		if err != nil {
			return fmt.Errorf("actuator %s: %w", a.Name(), err)
		}
		if err := a.OnActionReceived(ctx, buffers); err != nil {
			return fmt.Errorf("actuator %s: %w", a.Name(), err)
		}
	}
	return nil
}

func (m *Manager) buffersFor(l UnitLayout) (actions.Buffers, error) {
	out := actions.EmptyBuffers()
	if l.ContinuousLength > 0 {
		seg, err := actions.NewSegment(m.storedContinuous, l.ContinuousOffset, l.ContinuousLength)
		if err != nil {
			return actions.Buffers{}, err
		}
		out.Continuous = seg
	}
	if l.DiscreteLength > 0 {
		seg, err := actions.NewSegment(m.storedDiscrete, l.DiscreteOffset, l.DiscreteLength)
		if err != nil {
			return actions.Buffers{}, err
		}
		out.Discrete = seg
	}
	return out, nil
}

// ResetData zeroes the shared stores and resets every actuator. It does
// nothing before finalization.
func (m *Manager) ResetData() {
	if !m.finalized {
		return
	}
	clear(m.storedContinuous)
	clear(m.storedDiscrete)
	for _, a := range m.actuators {
		a.ResetData()
	}
}

// ApplyHeuristic lets every actuator that provides a heuristic fill its own
// part of out, which must be sized for the manager's totals. Other actuators'
// parts are zeroed.
func (m *Manager) ApplyHeuristic(out actions.Buffers) error {
	if err := m.ensureFinalized(); err != nil {
		return err
	}
	if out.Continuous.Len() != m.numContinuousActions || out.Discrete.Len() != m.numDiscreteBranches {
		return fmt.Errorf("%w: heuristic buffers continuous=%d discrete=%d want continuous=%d discrete=%d",
			ErrActionSizeMismatch, out.Continuous.Len(), out.Discrete.Len(), m.numContinuousActions, m.numDiscreteBranches)
	}
	for i, a := range m.actuators {
		l := m.layout[i]
		continuous, err := out.Continuous.Sub(l.ContinuousOffset, l.ContinuousLength)
		if err != nil {
			return fmt.Errorf("actuator %s: %w", a.Name(), err)
		}
		discrete, err := out.Discrete.Sub(l.DiscreteOffset, l.DiscreteLength)
		if err != nil {
			return fmt.Errorf("actuator %s: %w", a.Name(), err)
		}
		view := actions.Buffers{Continuous: continuous, Discrete: discrete}
		view.Clear()
		if h, ok := a.(protoio.HeuristicProvider); ok {
			h.Heuristic(view)
		}
	}
	return nil
}
