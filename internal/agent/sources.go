package agent

import (
	"context"
	"math/rand"

	"actuation/internal/actions"
	"actuation/internal/actuator"
)

// RandomSource samples continuous actions uniformly from [-1, 1] and picks
// discrete choices uniformly among those not masked. A branch with every
// choice masked falls back to choice 0.
type RandomSource struct {
	rng *rand.Rand

	continuous []float32
	discrete   []int32
	allowed    []int
}

func NewRandomSource(seed int64) *RandomSource {
	return &RandomSource{rng: rand.New(rand.NewSource(seed))}
}

func (s *RandomSource) Decide(_ context.Context, req DecisionRequest) (Decision, error) {
	s.continuous = resize(s.continuous, req.Spec.NumContinuousActions)
	s.discrete = resize(s.discrete, req.Spec.NumDiscreteBranches())

	for i := range s.continuous {
		s.continuous[i] = float32(s.rng.Float64()*2 - 1)
	}

	flat := 0
	for b, size := range req.Spec.BranchSizes {
		s.allowed = s.allowed[:0]
		for choice := 0; choice < size; choice++ {
			if req.Mask == nil || !req.Mask[flat+choice] {
				s.allowed = append(s.allowed, choice)
			}
		}
		if len(s.allowed) == 0 {
			s.discrete[b] = 0
		} else {
			s.discrete[b] = int32(s.allowed[s.rng.Intn(len(s.allowed))])
		}
		flat += size
	}
	return Decision{Continuous: s.continuous, Discrete: s.discrete}, nil
}

// HeuristicSource asks the manager's heuristic-capable actuators for their
// actions. Actuators without a heuristic receive zeros.
type HeuristicSource struct {
	manager *actuator.Manager

	continuous []float32
	discrete   []int32
}

func NewHeuristicSource(manager *actuator.Manager) *HeuristicSource {
	return &HeuristicSource{manager: manager}
}

func (s *HeuristicSource) Decide(_ context.Context, req DecisionRequest) (Decision, error) {
	s.continuous = resize(s.continuous, req.Spec.NumContinuousActions)
	s.discrete = resize(s.discrete, req.Spec.NumDiscreteBranches())
	if err := s.manager.ApplyHeuristic(actions.NewBuffers(s.continuous, s.discrete)); err != nil {
		return Decision{}, err
	}
	return Decision{Continuous: s.continuous, Discrete: s.discrete}, nil
}

func resize[T any](buf []T, n int) []T {
	if cap(buf) < n {
		return make([]T, n)
	}
	return buf[:n]
}
