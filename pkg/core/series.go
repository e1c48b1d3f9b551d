package core

import "golang.org/x/exp/constraints"

// Series is an ordered run of per-bar values. Rules address it from the most
// recent bar backwards and detect crossings between indicator lines with the
// predicates below.
type Series[T constraints.Ordered] []T

// Last returns the value position bars back from the end: position 0 is the
// current bar, position 1 the bar before it
func (s Series[T]) Last(position int) T {
	return s[len(s)-1-position]
}

// Crossover reports whether the series moved above ref on the current bar
func (s Series[T]) Crossover(ref Series[T]) bool {
	return s.Last(0) > ref.Last(0) && s.Last(1) <= ref.Last(1)
}

// Crossunder reports whether the series moved below ref on the current bar
func (s Series[T]) Crossunder(ref Series[T]) bool {
	return s.Last(0) <= ref.Last(0) && s.Last(1) > ref.Last(1)
}
