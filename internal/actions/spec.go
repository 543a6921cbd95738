package actions

import (
	"errors"
	"fmt"
)

var ErrInvalidSpec = errors.New("invalid action spec")

// Kind classifies an action space for cross-actuator compatibility checks.
type Kind int

const (
	KindNone Kind = iota
	KindContinuous
	// KindDiscrete covers purely discrete and hybrid spaces.
	KindDiscrete
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindContinuous:
		return "continuous"
	case KindDiscrete:
		return "discrete"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Spec is the action-space shape an actuator declares: a number of continuous
// scalars plus an ordered list of discrete branches with their cardinalities.
type Spec struct {
	NumContinuousActions int   `json:"num_continuous_actions"`
	BranchSizes          []int `json:"branch_sizes,omitempty"`
}

func MakeContinuous(n int) Spec {
	return Spec{NumContinuousActions: n}
}

func MakeDiscrete(branchSizes ...int) Spec {
	return Spec{BranchSizes: append([]int(nil), branchSizes...)}
}

// Combine concatenates specs in order: continuous counts add up and branch
// lists are appended.
func Combine(specs ...Spec) Spec {
	var out Spec
	for _, s := range specs {
		out.NumContinuousActions += s.NumContinuousActions
		out.BranchSizes = append(out.BranchSizes, s.BranchSizes...)
	}
	return out
}

func (s Spec) NumDiscreteBranches() int {
	return len(s.BranchSizes)
}

func (s Spec) SumOfDiscreteBranchSizes() int {
	sum := 0
	for _, size := range s.BranchSizes {
		sum += size
	}
	return sum
}

func (s Spec) Kind() Kind {
	switch {
	case len(s.BranchSizes) > 0:
		return KindDiscrete
	case s.NumContinuousActions > 0:
		return KindContinuous
	default:
		return KindNone
	}
}

func (s Spec) Validate() error {
	if s.NumContinuousActions < 0 {
		return fmt.Errorf("%w: negative continuous action count %d", ErrInvalidSpec, s.NumContinuousActions)
	}
	for i, size := range s.BranchSizes {
		if size <= 0 {
			return fmt.Errorf("%w: branch %d has size %d", ErrInvalidSpec, i, size)
		}
	}
	return nil
}

// Clone returns a spec that shares no memory with s.
func (s Spec) Clone() Spec {
	return Spec{
		NumContinuousActions: s.NumContinuousActions,
		BranchSizes:          append([]int(nil), s.BranchSizes...),
	}
}
