package actuator

import (
	"fmt"
	"iter"
	"reflect"
	"slices"

	protoio "actuation/internal/io"
)

func (m *Manager) Len() int {
	return len(m.actuators)
}

// At returns the actuator at position i. After finalization positions follow
// name order.
func (m *Manager) At(i int) (protoio.Actuator, error) {
	if i < 0 || i >= len(m.actuators) {
		return nil, fmt.Errorf("%w: %d not in [0, %d)", ErrIndexOutOfRange, i, len(m.actuators))
	}
	return m.actuators[i], nil
}

func (m *Manager) All() iter.Seq2[int, protoio.Actuator] {
	return func(yield func(int, protoio.Actuator) bool) {
		for i, a := range m.actuators {
			if !yield(i, a) {
				return
			}
		}
	}
}

// IndexOf returns the position of a, or -1. Actuators are compared by
// identity; values of a type that is not comparable with == match an entry of
// the same type and name.
func (m *Manager) IndexOf(a protoio.Actuator) int {
	if a == nil {
		return -1
	}
	for i, x := range m.actuators {
		if sameActuator(x, a) {
			return i
		}
	}
	return -1
}

// IndexOfName returns the position of the first actuator called name, or -1.
func (m *Manager) IndexOfName(name string) int {
	return slices.IndexFunc(m.actuators, func(a protoio.Actuator) bool {
		return a.Name() == name
	})
}

func (m *Manager) Contains(a protoio.Actuator) bool {
	return m.IndexOf(a) >= 0
}

func (m *Manager) Add(a protoio.Actuator) error {
	if err := m.checkMutable("add", a); err != nil {
		return err
	}
	m.actuators = append(m.actuators, a)
	m.addTotals(a, 1)
	return nil
}

func (m *Manager) Insert(i int, a protoio.Actuator) error {
	if err := m.checkMutable("insert", a); err != nil {
		return err
	}
	if i < 0 || i > len(m.actuators) {
		return fmt.Errorf("%w: insert at %d not in [0, %d]", ErrIndexOutOfRange, i, len(m.actuators))
	}
	m.actuators = slices.Insert(m.actuators, i, a)
	m.addTotals(a, 1)
	return nil
}

// Set replaces the actuator at position i.
func (m *Manager) Set(i int, a protoio.Actuator) error {
	if err := m.checkMutable("replace", a); err != nil {
		return err
	}
	if i < 0 || i >= len(m.actuators) {
		return fmt.Errorf("%w: replace at %d not in [0, %d)", ErrIndexOutOfRange, i, len(m.actuators))
	}
	m.addTotals(m.actuators[i], -1)
	m.actuators[i] = a
	m.addTotals(a, 1)
	return nil
}

func (m *Manager) RemoveAt(i int) error {
	if err := m.checkFinalized("remove"); err != nil {
		return err
	}
	if i < 0 || i >= len(m.actuators) {
		return fmt.Errorf("%w: remove at %d not in [0, %d)", ErrIndexOutOfRange, i, len(m.actuators))
	}
	m.addTotals(m.actuators[i], -1)
	m.actuators = slices.Delete(m.actuators, i, i+1)
	return nil
}

// Remove deletes a from the collection and reports whether it was present.
// Matching follows IndexOf.
func (m *Manager) Remove(a protoio.Actuator) (bool, error) {
	if err := m.checkFinalized("remove"); err != nil {
		return false, err
	}
	i := m.IndexOf(a)
	if i < 0 {
		return false, nil
	}
	return true, m.RemoveAt(i)
}

func (m *Manager) Clear() error {
	if err := m.checkFinalized("clear"); err != nil {
		return err
	}
	clear(m.actuators)
	m.actuators = m.actuators[:0]
	m.numContinuousActions = 0
	m.numDiscreteBranches = 0
	m.sumOfDiscreteBranchSizes = 0
	m.totalNumberOfActions = 0
	return nil
}

func (m *Manager) checkFinalized(op string) error {
	if m.finalized {
		m.logger.Warn("rejected actuator mutation after finalization", "op", op)
		return fmt.Errorf("%w: cannot %s actuators", ErrFinalized, op)
	}
	return nil
}

func (m *Manager) checkMutable(op string, a protoio.Actuator) error {
	if err := m.checkFinalized(op); err != nil {
		return err
	}
	if a == nil {
		return ErrNilActuator
	}
	if err := a.ActionSpec().Validate(); err != nil {
		return fmt.Errorf("actuator %s: %w", a.Name(), err)
	}
	return nil
}

func (m *Manager) addTotals(a protoio.Actuator, sign int) {
	spec := a.ActionSpec()
	m.numContinuousActions += sign * spec.NumContinuousActions
	m.numDiscreteBranches += sign * spec.NumDiscreteBranches()
	m.sumOfDiscreteBranchSizes += sign * spec.SumOfDiscreteBranchSizes()
	m.totalNumberOfActions = m.numContinuousActions + m.numDiscreteBranches
}

func sameActuator(a, b protoio.Actuator) bool {
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb {
		return false
	}
	if !ta.Comparable() {
		return a.Name() == b.Name()
	}
	return a == b
}
