package io

import (
	"context"

	"actuation/internal/actions"
)

// Actuator is one independent source of a portion of an agent's actions. The
// name and action spec must not change once the actuator is added to a
// manager.
type Actuator interface {
	Name() string
	ActionSpec() actions.Spec
	// OnActionReceived consumes this step's actions. The buffers alias shared
	// storage and must not be retained after the call returns.
	OnActionReceived(ctx context.Context, buffers actions.Buffers) error
	// WriteDiscreteActionMask marks disallowed choices using branch indices
	// local to this actuator.
	WriteDiscreteActionMask(mask actions.MaskWriter) error
	ResetData()
}

// HeuristicProvider is an optional actuator capability used when actions come
// from scripted or manual control instead of a policy.
type HeuristicProvider interface {
	Heuristic(out actions.Buffers)
}

// SnapshotActuator is an optional actuator capability used to inspect the
// most recently received actions.
type SnapshotActuator interface {
	Last() actions.Buffers
}
