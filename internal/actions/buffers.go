package actions

// Buffers is what one actuator receives for one decision step.
type Buffers struct {
	Continuous Segment[float32]
	Discrete   Segment[int32]
}

func EmptyBuffers() Buffers {
	return Buffers{
		Continuous: EmptySegment[float32](),
		Discrete:   EmptySegment[int32](),
	}
}

// NewBuffers wraps two flat slices. Nil slices map to the empty segments.
func NewBuffers(continuous []float32, discrete []int32) Buffers {
	return Buffers{
		Continuous: FromSlice(continuous),
		Discrete:   FromSlice(discrete),
	}
}

// AllocateBuffers returns fresh, zeroed buffers sized for spec.
func AllocateBuffers(spec Spec) Buffers {
	var continuous []float32
	if spec.NumContinuousActions > 0 {
		continuous = make([]float32, spec.NumContinuousActions)
	}
	var discrete []int32
	if n := spec.NumDiscreteBranches(); n > 0 {
		discrete = make([]int32, n)
	}
	return NewBuffers(continuous, discrete)
}

func (b Buffers) IsEmpty() bool {
	return b.Continuous.IsEmpty() && b.Discrete.IsEmpty()
}

func (b Buffers) Clear() {
	b.Continuous.Clear()
	b.Discrete.Clear()
}

// PackActions appends continuous values followed by the discrete choices,
// converted to float32, to dst.
func (b Buffers) PackActions(dst []float32) []float32 {
	for v := range b.Continuous.Values() {
		dst = append(dst, v)
	}
	for v := range b.Discrete.Values() {
		dst = append(dst, float32(v))
	}
	return dst
}

// Equal compares both segments by identity.
func (b Buffers) Equal(other Buffers) bool {
	return b.Continuous.Equal(other.Continuous) && b.Discrete.Equal(other.Discrete)
}
