package async

// Source is an eager sequence that answers both questions without ever
// suspending. HasNext must not advance the sequence.
type Source[T any] interface {
	// HasNext reports whether Next would return an element.
	HasNext() (bool, error)
	// Next returns the next element and advances. Past the end it returns
	// ErrExhausted.
	Next() (T, error)
}

// SliceSource traverses a slice.
type SliceSource[T any] struct {
	items []T
	pos   int
}

// FromSlice returns a Source over items. The slice is not copied.
func FromSlice[T any](items []T) *SliceSource[T] {
	return &SliceSource[T]{items: items}
}

// HasNext reports whether elements remain.
func (s *SliceSource[T]) HasNext() (bool, error) {
	return s.pos < len(s.items), nil
}

// Next returns the next element, or ErrExhausted past the end.
func (s *SliceSource[T]) Next() (T, error) {
	if s.pos >= len(s.items) {
		var zero T
		return zero, ErrExhausted
	}
	v := s.items[s.pos]
	s.pos++
	return v, nil
}

// Size returns the total number of elements.
func (s *SliceSource[T]) Size() int { return len(s.items) }

// FuncSource adapts a generator function into a Source. The generator
// returns (value, true, nil) for each element and (zero, false, nil) at the
// end. FuncSource looks one element ahead so HasNext stays idempotent.
type FuncSource[T any] struct {
	next    func() (T, bool, error)
	peeked  bool
	val     T
	ok      bool
	err     error
	stopped bool
}

// FromFunc returns a Source over the values produced by next. Once next
// reports the end or an error it is not called again.
func FromFunc[T any](next func() (T, bool, error)) *FuncSource[T] {
	return &FuncSource[T]{next: next}
}

func (s *FuncSource[T]) peek() {
	if s.peeked {
		return
	}
	s.peeked = true
	if s.stopped {
		s.ok = false
		return
	}
	s.val, s.ok, s.err = s.next()
	if !s.ok || s.err != nil {
		s.stopped = true
	}
}

// HasNext pulls at most one element ahead and reports whether it exists.
// An error from the generator is returned by every later call.
func (s *FuncSource[T]) HasNext() (bool, error) {
	s.peek()
	if s.err != nil {
		return false, s.err
	}
	return s.ok, nil
}

// Next returns the looked-ahead element.
func (s *FuncSource[T]) Next() (T, error) {
	s.peek()
	var zero T
	if s.err != nil {
		return zero, s.err
	}
	if !s.ok {
		return zero, ErrExhausted
	}
	v := s.val
	s.val = zero
	s.peeked = false
	return v, nil
}
