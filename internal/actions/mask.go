package actions

import (
	"errors"
	"fmt"
)

var ErrMaskIndexOutOfRange = errors.New("mask index out of range")

// MaskWriter is handed to an actuator while it populates its own discrete
// branches. Branch and action indices are local to that actuator.
type MaskWriter interface {
	WriteMask(branch int, actionIndices ...int) error
}

type unitBranches struct {
	start int
	sizes []int
}

// DiscreteActionMask is a flat record of disallowed discrete choices across
// every actuator of a manager. A cursor set with SetCurrentBranchOffset
// translates actuator-local branch indices to flat positions.
type DiscreteActionMask struct {
	units []unitBranches
	// byStart maps a unit's first global branch index to its position in units.
	// Only units with at least one branch are present.
	byStart map[int]int
	// startingActionIndices[b] is the flat index of branch b's first choice.
	startingActionIndices []int
	numBranches           int

	mask        []bool
	maskedCount int

	currentBranchOffset int
	activeSizes         []int
}

// NewDiscreteActionMask allocates a mask for units whose branch sizes are given
// in finalized order.
func NewDiscreteActionMask(unitBranchSizes [][]int) *DiscreteActionMask {
	m := &DiscreteActionMask{
		units:   make([]unitBranches, 0, len(unitBranchSizes)),
		byStart: make(map[int]int, len(unitBranchSizes)),
	}

	flat := 0
	for i, sizes := range unitBranchSizes {
		unit := unitBranches{start: m.numBranches, sizes: append([]int(nil), sizes...)}
		if len(sizes) > 0 {
			m.byStart[unit.start] = i
		}
		for _, size := range sizes {
			m.startingActionIndices = append(m.startingActionIndices, flat)
			flat += size
		}
		m.numBranches += len(sizes)
		m.units = append(m.units, unit)
	}
	m.startingActionIndices = append(m.startingActionIndices, flat)
	m.mask = make([]bool, flat)
	m.bindCursor(0)
	return m
}

// UnitBranchOffset returns the global branch index at which unit i starts.
func (m *DiscreteActionMask) UnitBranchOffset(i int) int {
	return m.units[i].start
}

func (m *DiscreteActionMask) NumBranches() int {
	return m.numBranches
}

// Len is the number of flat mask entries, the sum of all branch sizes.
func (m *DiscreteActionMask) Len() int {
	return len(m.mask)
}

func (m *DiscreteActionMask) CurrentBranchOffset() int {
	return m.currentBranchOffset
}

// SetCurrentBranchOffset moves the cursor to the unit whose branches start at
// the given global branch index. When no unit with branches starts there, no
// branch is writable until the cursor moves again.
func (m *DiscreteActionMask) SetCurrentBranchOffset(branchOffset int) error {
	if branchOffset < 0 || branchOffset > m.numBranches {
		return fmt.Errorf("%w: branch offset %d not in [0, %d]", ErrMaskIndexOutOfRange, branchOffset, m.numBranches)
	}
	m.bindCursor(branchOffset)
	return nil
}

// SetCurrentUnit moves the cursor to unit i and restricts writes to that
// unit's own branches, including units that declare none.
func (m *DiscreteActionMask) SetCurrentUnit(i int) error {
	if i < 0 || i >= len(m.units) {
		return fmt.Errorf("%w: unit %d not in [0, %d)", ErrMaskIndexOutOfRange, i, len(m.units))
	}
	m.currentBranchOffset = m.units[i].start
	m.activeSizes = m.units[i].sizes
	return nil
}

func (m *DiscreteActionMask) UnitCount() int {
	return len(m.units)
}

func (m *DiscreteActionMask) bindCursor(branchOffset int) {
	m.currentBranchOffset = branchOffset
	m.activeSizes = nil
	if i, ok := m.byStart[branchOffset]; ok {
		m.activeSizes = m.units[i].sizes
	}
}

// WriteMask marks the given choices of the active unit's branch as disallowed.
// All indices are checked before any entry is written.
func (m *DiscreteActionMask) WriteMask(branch int, actionIndices ...int) error {
	if branch < 0 || branch >= len(m.activeSizes) {
		return fmt.Errorf("%w: branch %d, active unit has %d branches", ErrMaskIndexOutOfRange, branch, len(m.activeSizes))
	}
	size := m.activeSizes[branch]
	for _, action := range actionIndices {
		if action < 0 || action >= size {
			return fmt.Errorf("%w: action %d, branch %d has size %d", ErrMaskIndexOutOfRange, action, branch, size)
		}
	}

	start := m.startingActionIndices[m.currentBranchOffset+branch]
	for _, action := range actionIndices {
		if !m.mask[start+action] {
			m.mask[start+action] = true
			m.maskedCount++
		}
	}
	return nil
}

// IsMasked reports whether a choice of the active unit is disallowed.
func (m *DiscreteActionMask) IsMasked(branch, action int) (bool, error) {
	if branch < 0 || branch >= len(m.activeSizes) {
		return false, fmt.Errorf("%w: branch %d, active unit has %d branches", ErrMaskIndexOutOfRange, branch, len(m.activeSizes))
	}
	if action < 0 || action >= m.activeSizes[branch] {
		return false, fmt.Errorf("%w: action %d, branch %d has size %d", ErrMaskIndexOutOfRange, action, branch, m.activeSizes[branch])
	}
	return m.mask[m.startingActionIndices[m.currentBranchOffset+branch]+action], nil
}

// BranchMask returns the mask entries of global branch b. The returned slice
// aliases the mask and must not be modified.
func (m *DiscreteActionMask) BranchMask(b int) ([]bool, error) {
	if b < 0 || b >= m.numBranches {
		return nil, fmt.Errorf("%w: branch %d not in [0, %d)", ErrMaskIndexOutOfRange, b, m.numBranches)
	}
	return m.mask[m.startingActionIndices[b]:m.startingActionIndices[b+1]], nil
}

// Mask returns the flat mask. The returned slice aliases internal storage, is
// overwritten every step and must not be modified.
func (m *DiscreteActionMask) Mask() []bool {
	return m.mask
}

func (m *DiscreteActionMask) HasMask() bool {
	return m.maskedCount > 0
}

func (m *DiscreteActionMask) ResetMask() {
	clear(m.mask)
	m.maskedCount = 0
	m.bindCursor(0)
}
