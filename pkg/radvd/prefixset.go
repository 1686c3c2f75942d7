package radvd

// PrefixSet is an insertion-ordered set of prefixes. It is not safe for
// concurrent use; the Supervisor serialises access.
type PrefixSet struct {
	order []Prefix
	index map[Prefix]struct{}
}

func NewPrefixSet(prefixes ...Prefix) *PrefixSet {
	s := &PrefixSet{index: make(map[Prefix]struct{})}
	for _, p := range prefixes {
		s.Add(p)
	}
	return s
}

// Add appends p and reports whether the set changed.
func (s *PrefixSet) Add(p Prefix) bool {
	if _, ok := s.index[p]; ok {
		return false
	}
	s.index[p] = struct{}{}
	s.order = append(s.order, p)
	return true
}

// Remove deletes p, keeping the relative order of the rest.
func (s *PrefixSet) Remove(p Prefix) bool {
	if _, ok := s.index[p]; !ok {
		return false
	}
	delete(s.index, p)
	for i, q := range s.order {
		if q == p {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return true
}

func (s *PrefixSet) Contains(p Prefix) bool {
	_, ok := s.index[p]
	return ok
}

func (s *PrefixSet) Len() int { return len(s.order) }

// List returns a copy in insertion order.
func (s *PrefixSet) List() []Prefix {
	return append([]Prefix(nil), s.order...)
}

func (s *PrefixSet) Strings() []string {
	out := make([]string, len(s.order))
	for i, p := range s.order {
		out[i] = p.String()
	}
	return out
}
