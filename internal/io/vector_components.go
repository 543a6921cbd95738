package io

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"actuation/internal/actions"
)

const (
	ContinuousActuatorKind = "continuous"
	DiscreteActuatorKind   = "discrete"
	HybridActuatorKind     = "hybrid"
	NullActuatorKind       = "null"
)

var ErrShapeMismatch = errors.New("action shape does not match actuator kind")

// VectorActuator records the actions it receives. It can disallow a fixed set
// of discrete choices every step and replay a fixed heuristic.
type VectorActuator struct {
	name string
	spec actions.Spec

	mu             sync.RWMutex
	lastContinuous []float32
	lastDiscrete   []int32
	received       int
	masked         map[int][]int

	heuristicContinuous []float32
	heuristicDiscrete   []int32
}

func NewVectorActuator(name string, spec actions.Spec) *VectorActuator {
	return &VectorActuator{
		name:           name,
		spec:           spec.Clone(),
		lastContinuous: make([]float32, spec.NumContinuousActions),
		lastDiscrete:   make([]int32, spec.NumDiscreteBranches()),
		masked:         make(map[int][]int),
	}
}

func (a *VectorActuator) Name() string {
	return a.name
}

func (a *VectorActuator) ActionSpec() actions.Spec {
	return a.spec
}

func (a *VectorActuator) OnActionReceived(_ context.Context, buffers actions.Buffers) error {
	if buffers.Continuous.Len() != a.spec.NumContinuousActions || buffers.Discrete.Len() != a.spec.NumDiscreteBranches() {
		return fmt.Errorf("%w: %s got continuous=%d discrete=%d", ErrShapeMismatch, a.name, buffers.Continuous.Len(), buffers.Discrete.Len())
	}
	a.mu.Lock()
	buffers.Continuous.CopyTo(a.lastContinuous)
	buffers.Discrete.CopyTo(a.lastDiscrete)
	a.received++
	a.mu.Unlock()
	return nil
}

// DisallowChoices masks the given choices of branch on every step until
// cleared with AllowAll.
func (a *VectorActuator) DisallowChoices(branch int, choices ...int) error {
	if branch < 0 || branch >= len(a.spec.BranchSizes) {
		return fmt.Errorf("%w: %s has no branch %d", actions.ErrMaskIndexOutOfRange, a.name, branch)
	}
	for _, c := range choices {
		if c < 0 || c >= a.spec.BranchSizes[branch] {
			return fmt.Errorf("%w: %s branch %d has no choice %d", actions.ErrMaskIndexOutOfRange, a.name, branch, c)
		}
	}
	a.mu.Lock()
	a.masked[branch] = append(a.masked[branch], choices...)
	a.mu.Unlock()
	return nil
}

func (a *VectorActuator) AllowAll() {
	a.mu.Lock()
	a.masked = make(map[int][]int)
	a.mu.Unlock()
}

func (a *VectorActuator) WriteDiscreteActionMask(mask actions.MaskWriter) error {
	a.mu.RLock()
	defer a.mu.RUnlock()

	branches := make([]int, 0, len(a.masked))
	for b := range a.masked {
		branches = append(branches, b)
	}
	sort.Ints(branches)
	for _, b := range branches {
		if err := mask.WriteMask(b, a.masked[b]...); err != nil {
			return err
		}
	}
	return nil
}

func (a *VectorActuator) ResetData() {
	a.mu.Lock()
	clear(a.lastContinuous)
	clear(a.lastDiscrete)
	a.received = 0
	a.mu.Unlock()
}

// SetHeuristic fixes the actions Heuristic writes. Missing values stay zero.
func (a *VectorActuator) SetHeuristic(continuous []float32, discrete []int32) {
	a.mu.Lock()
	a.heuristicContinuous = append([]float32(nil), continuous...)
	a.heuristicDiscrete = append([]int32(nil), discrete...)
	a.mu.Unlock()
}

func (a *VectorActuator) Heuristic(out actions.Buffers) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	out.Clear()
	for i := 0; i < out.Continuous.Len() && i < len(a.heuristicContinuous); i++ {
		out.Continuous.Set(i, a.heuristicContinuous[i])
	}
	for i := 0; i < out.Discrete.Len() && i < len(a.heuristicDiscrete); i++ {
		out.Discrete.Set(i, a.heuristicDiscrete[i])
	}
}

func (a *VectorActuator) Last() actions.Buffers {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return actions.NewBuffers(
		append([]float32(nil), a.lastContinuous...),
		append([]int32(nil), a.lastDiscrete...),
	)
}

// Received is the number of OnActionReceived calls since the last reset.
func (a *VectorActuator) Received() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.received
}

func init() {
	initializeDefaultComponents()
}

func initializeDefaultComponents() {
	defaults := []ActuatorSpec{
		{
			Kind:        ContinuousActuatorKind,
			Description: "continuous scalars only",
			Factory: func(name string, spec actions.Spec) (Actuator, error) {
				if spec.NumDiscreteBranches() > 0 || spec.NumContinuousActions == 0 {
					return nil, fmt.Errorf("%w: %s wants continuous actions only", ErrShapeMismatch, name)
				}
				return NewVectorActuator(name, spec), nil
			},
		},
		{
			Kind:        DiscreteActuatorKind,
			Description: "discrete branches only",
			Factory: func(name string, spec actions.Spec) (Actuator, error) {
				if spec.NumContinuousActions > 0 || spec.NumDiscreteBranches() == 0 {
					return nil, fmt.Errorf("%w: %s wants discrete branches only", ErrShapeMismatch, name)
				}
				return NewVectorActuator(name, spec), nil
			},
		},
		{
			Kind:        HybridActuatorKind,
			Description: "continuous scalars and discrete branches",
			Factory: func(name string, spec actions.Spec) (Actuator, error) {
				return NewVectorActuator(name, spec), nil
			},
		},
		{
			Kind:        NullActuatorKind,
			Description: "declares no actions",
			Factory: func(name string, spec actions.Spec) (Actuator, error) {
				if spec.Kind() != actions.KindNone {
					return nil, fmt.Errorf("%w: %s declares no actions", ErrShapeMismatch, name)
				}
				return NewVectorActuator(name, spec), nil
			},
		},
	}

	for _, spec := range defaults {
		spec.SchemaVersion = SupportedSchemaVersion
		spec.CodecVersion = SupportedCodecVersion
		if err := RegisterActuatorWithSpec(spec); err != nil {
			panic(err)
		}
	}
}
