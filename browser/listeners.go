package browser

// listenerSet tracks listener funcs by id together with the elements each
// one was attached to, so funcs can be released once no element uses them.
type listenerSet[E, F any] struct {
	next    int
	entries map[int]*listenerEntry[E, F]
}

type listenerEntry[E, F any] struct {
	fn  F
	els []E
}

func newListenerSet[E, F any]() *listenerSet[E, F] {
	return &listenerSet[E, F]{entries: make(map[int]*listenerEntry[E, F])}
}

// add stores fn for els and returns its id. Ids are never reused.
func (s *listenerSet[E, F]) add(fn F, els []E) int {
	s.next++
	s.entries[s.next] = &listenerEntry[E, F]{fn: fn, els: els}
	return s.next
}

func (s *listenerSet[E, F]) lookup(id int) (F, bool) {
	e, ok := s.entries[id]
	if !ok {
		var zero F
		return zero, false
	}
	return e.fn, true
}

// sweep drops elements for which bound reports false and releases every
// func left without elements.
func (s *listenerSet[E, F]) sweep(bound func(el E, id int) bool, release func(F)) {
	for id, e := range s.entries {
		live := e.els[:0]
		for _, el := range e.els {
			if bound(el, id) {
				live = append(live, el)
			}
		}
		e.els = live
		if len(live) == 0 {
			release(e.fn)
			delete(s.entries, id)
		}
	}
}

func (s *listenerSet[E, F]) len() int { return len(s.entries) }
