// Package actuator composes independent actuators into one flat action layout
// and drives them through the per-step protocol.
//
// A Manager is built in two phases. While composing, actuators are added,
// inserted, replaced or removed and the manager keeps running totals of their
// action shapes. Finalize (or the first step call) freezes the collection,
// sorts it by actuator name, and allocates the shared continuous and discrete
// stores plus the discrete action mask. From then on every decision step is
//
//	WriteActionMask -> UpdateActions -> ExecuteActions [-> ResetData]
//
// A Manager is not safe for concurrent use.
package actuator

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"actuation/internal/actions"
	protoio "actuation/internal/io"
	"actuation/internal/logging"
)

var (
	ErrFinalized          = errors.New("actuator manager is finalized")
	ErrAlreadyFinalized   = errors.New("actuator manager already finalized")
	ErrNilActuator        = errors.New("actuator is nil")
	ErrIndexOutOfRange    = errors.New("actuator index out of range")
	ErrDuplicateName      = errors.New("duplicate actuator name")
	ErrMixedActionKinds   = errors.New("actuators declare incompatible action kinds")
	ErrActionSizeMismatch = errors.New("action vector size mismatch")
)

// Options configures a Manager.
type Options struct {
	Logger logging.Logger
	// SkipValidation disables the action-kind check at finalization. Name
	// uniqueness is always enforced.
	SkipValidation bool
	// AllowHybridActions permits purely continuous actuators next to actuators
	// with discrete branches.
	AllowHybridActions bool
	// Capacity preallocates room for this many actuators.
	Capacity int
}

// DefaultOptions are applied before any option func.
var DefaultOptions = Options{
	Logger:             logging.NoOpLogger{},
	AllowHybridActions: true,
}

// UnitLayout is where one actuator's actions live in the shared stores.
type UnitLayout struct {
	Name             string `json:"name"`
	ContinuousOffset int    `json:"continuous_offset"`
	ContinuousLength int    `json:"continuous_length"`
	// DiscreteOffset is also the actuator's first global branch index, since
	// the discrete store holds one choice per branch.
	DiscreteOffset int   `json:"discrete_offset"`
	DiscreteLength int   `json:"discrete_length"`
	MaskOffset     int   `json:"mask_offset"`
	BranchSizes    []int `json:"branch_sizes,omitempty"`
}

var (
	emptyContinuousStore = []float32{}
	emptyDiscreteStore   = []int32{}
)

type Manager struct {
	opts   Options
	logger logging.Logger

	actuators []protoio.Actuator

	numContinuousActions     int
	numDiscreteBranches      int
	sumOfDiscreteBranchSizes int
	totalNumberOfActions     int

	finalized          bool
	storedContinuous   []float32
	storedDiscrete     []int32
	discreteActionMask *actions.DiscreteActionMask
	layout             []UnitLayout
}

func NewManager(optFns ...func(o *Options)) *Manager {
	opts := DefaultOptions
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}
	return &Manager{
		opts:      opts,
		logger:    opts.Logger,
		actuators: make([]protoio.Actuator, 0, max(opts.Capacity, 0)),
	}
}

func (m *Manager) Finalized() bool {
	return m.finalized
}

// Finalize validates the actuator set, fixes the layout and allocates the
// shared stores. It may be called once; the step methods call it lazily.
func (m *Manager) Finalize() error {
	if m.finalized {
		return ErrAlreadyFinalized
	}
	return m.readyActuatorsForExecution(m.actuators, m.numContinuousActions, m.sumOfDiscreteBranchSizes, m.numDiscreteBranches)
}

func (m *Manager) ensureFinalized() error {
	if m.finalized {
		return nil
	}
	return m.readyActuatorsForExecution(m.actuators, m.numContinuousActions, m.sumOfDiscreteBranchSizes, m.numDiscreteBranches)
}

func (m *Manager) readyActuatorsForExecution(units []protoio.Actuator, numContinuousActions, sumOfDiscreteBranches, numDiscreteBranches int) error {
	if err := m.validateActuators(units); err != nil {
		return err
	}

	sorted := slices.Clone(units)
	slices.SortStableFunc(sorted, func(a, b protoio.Actuator) int {
		return strings.Compare(a.Name(), b.Name())
	})

	continuous := emptyContinuousStore
	if numContinuousActions > 0 {
		continuous = make([]float32, numContinuousActions)
	}
	discrete := emptyDiscreteStore
	if numDiscreteBranches > 0 {
		discrete = make([]int32, numDiscreteBranches)
	}

	layout := make([]UnitLayout, 0, len(sorted))
	branchSizes := make([][]int, 0, len(sorted))
	continuousOffset, discreteOffset, maskOffset := 0, 0, 0
	for _, a := range sorted {
		spec := a.ActionSpec()
		l := UnitLayout{
			Name:             a.Name(),
			ContinuousOffset: continuousOffset,
			ContinuousLength: spec.NumContinuousActions,
			DiscreteOffset:   discreteOffset,
			DiscreteLength:   spec.NumDiscreteBranches(),
			MaskOffset:       maskOffset,
			BranchSizes:      slices.Clone(spec.BranchSizes),
		}
		layout = append(layout, l)
		branchSizes = append(branchSizes, l.BranchSizes)
		continuousOffset += l.ContinuousLength
		discreteOffset += l.DiscreteLength
		maskOffset += spec.SumOfDiscreteBranchSizes()
	}
	if continuousOffset != numContinuousActions || discreteOffset != numDiscreteBranches || maskOffset != sumOfDiscreteBranches {
		// An actuator changed its spec after it was added.
		return fmt.Errorf("%w: layout continuous=%d discrete=%d mask=%d, totals continuous=%d discrete=%d mask=%d",
			ErrActionSizeMismatch, continuousOffset, discreteOffset, maskOffset,
			numContinuousActions, numDiscreteBranches, sumOfDiscreteBranches)
	}

	m.actuators = sorted
	m.storedContinuous = continuous
	m.storedDiscrete = discrete
	m.discreteActionMask = actions.NewDiscreteActionMask(branchSizes)
	m.layout = layout
	m.finalized = true

	m.logger.Info("actuator manager finalized",
		"actuators", len(sorted),
		"continuous_actions", numContinuousActions,
		"discrete_branches", numDiscreteBranches,
		"discrete_branch_sizes", sumOfDiscreteBranches,
	)
	return nil
}

func (m *Manager) validateActuators(units []protoio.Actuator) error {
	seen := make(map[string]struct{}, len(units))
	for _, a := range units {
		name := a.Name()
		if _, dup := seen[name]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicateName, name)
		}
		seen[name] = struct{}{}
	}

	if m.opts.SkipValidation || m.opts.AllowHybridActions {
		return nil
	}
	var (
		want     actions.Kind
		wantName string
	)
	for _, a := range units {
		kind := a.ActionSpec().Kind()
		if kind == actions.KindNone {
			continue
		}
		if want == actions.KindNone {
			want, wantName = kind, a.Name()
			continue
		}
		if kind != want {
			return fmt.Errorf("%w: %s is %s but %s is %s", ErrMixedActionKinds, a.Name(), kind, wantName, want)
		}
	}
	return nil
}

func (m *Manager) NumContinuousActions() int {
	return m.numContinuousActions
}

func (m *Manager) NumDiscreteBranches() int {
	return m.numDiscreteBranches
}

func (m *Manager) SumOfDiscreteBranchSizes() int {
	return m.sumOfDiscreteBranchSizes
}

func (m *Manager) TotalNumberOfActions() int {
	return m.totalNumberOfActions
}

// CombinedSpec is the action spec of all actuators in their current order.
func (m *Manager) CombinedSpec() actions.Spec {
	specs := make([]actions.Spec, 0, len(m.actuators))
	for _, a := range m.actuators {
		specs = append(specs, a.ActionSpec())
	}
	return actions.Combine(specs...)
}

// Layout returns a copy of the finalized per-actuator layout, or nil before
// finalization.
func (m *Manager) Layout() []UnitLayout {
	if !m.finalized {
		return nil
	}
	out := make([]UnitLayout, len(m.layout))
	for i, l := range m.layout {
		l.BranchSizes = slices.Clone(l.BranchSizes)
		out[i] = l
	}
	return out
}

// DiscreteActionMask returns the shared mask, or nil before finalization.
func (m *Manager) DiscreteActionMask() *actions.DiscreteActionMask {
	return m.discreteActionMask
}

// StoredActions views the whole continuous and discrete stores.
func (m *Manager) StoredActions() actions.Buffers {
	if !m.finalized {
		return actions.EmptyBuffers()
	}
	return actions.NewBuffers(m.storedContinuous, m.storedDiscrete)
}
