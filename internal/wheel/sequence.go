package wheel

// DefaultRepetitions is how many copies of a field's natural cycle are laid
// out end to end. The middle copy is where values are centred; the outer
// copies are scroll headroom.
const (
	DefaultRepetitions = 5
	MinRepetitions     = 3
)

// BuildSequence concatenates the natural cycle reps times. Every natural
// value appears exactly reps times, in the same relative order per block.
func BuildSequence(natural []string, reps int) []string {
	if reps < MinRepetitions {
		reps = MinRepetitions
	}
	out := make([]string, 0, len(natural)*reps)
	for i := 0; i < reps; i++ {
		out = append(out, natural...)
	}
	return out
}

// NormalizeRepetitions maps 0 to DefaultRepetitions and raises anything below
// MinRepetitions.
func NormalizeRepetitions(reps int) int {
	if reps == 0 {
		return DefaultRepetitions
	}
	if reps < MinRepetitions {
		return MinRepetitions
	}
	return reps
}
