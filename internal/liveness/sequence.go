package liveness

import "github.com/saturnino-fabrica-de-software/ponto/internal/provider"

// ring keeps the most recent values up to its capacity.
type ring[T any] struct {
	items []T
	start int
	size  int
}

func newRing[T any](capacity int) *ring[T] {
	return &ring[T]{items: make([]T, capacity)}
}

func (r *ring[T]) push(v T) {
	if r.size < len(r.items) {
		r.items[(r.start+r.size)%len(r.items)] = v
		r.size++
		return
	}
	r.items[r.start] = v
	r.start = (r.start + 1) % len(r.items)
}

func (r *ring[T]) last() (T, bool) {
	var zero T
	if r.size == 0 {
		return zero, false
	}
	return r.items[(r.start+r.size-1)%len(r.items)], true
}

func (r *ring[T]) len() int {
	return r.size
}

type frame struct {
	index int
	data  []byte
}

// sequence is the state of a single verification run.
type sequence struct {
	frames    *ring[frame]
	boxes     *ring[provider.BoundingBox]
	processed int
	state     State
	signal    Signal
}

func newSequence(capacity int) *sequence {
	return &sequence{
		frames: newRing[frame](capacity),
		boxes:  newRing[provider.BoundingBox](capacity),
		state:  StateCollecting,
	}
}

func (s *sequence) push(index int, data []byte, box provider.BoundingBox) {
	s.frames.push(frame{index: index, data: data})
	s.boxes.push(box)
	s.processed++
}

func (s *sequence) live(signal Signal) {
	s.state = StateLive
	s.signal = signal
}

func (s *sequence) result() Result {
	r := Result{
		State:        s.state,
		ForwardIndex: -1,
		Processed:    s.processed,
		Signal:       s.signal,
	}
	if f, ok := s.frames.last(); ok {
		r.ForwardIndex = f.index
		r.Forward = f.data
	}
	return r
}
