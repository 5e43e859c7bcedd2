package generator

import (
	"regexp"
	"sort"
	"strconv"
)

// ValuePool holds the values already committed within one plan generation.
// A pool is created per generation call and mutated in place by the allocator.
type ValuePool struct {
	values map[int]struct{}
}

// NewValuePool returns an empty pool.
func NewValuePool() *ValuePool {
	return &ValuePool{values: make(map[int]struct{})}
}

// NewValuePoolFrom seeds a pool with every deposit value of the given players.
func NewValuePoolFrom(players []*Player) *ValuePool {
	pool := NewValuePool()
	for _, p := range players {
		for _, d := range p.Deposits {
			pool.Add(d.Value)
		}
	}
	return pool
}

// Has reports whether v was already allocated.
func (p *ValuePool) Has(v int) bool {
	_, ok := p.values[v]
	return ok
}

// Add records v as allocated.
func (p *ValuePool) Add(v int) {
	p.values[v] = struct{}{}
}

// Len returns the number of distinct allocated values.
func (p *ValuePool) Len() int {
	return len(p.values)
}

// HistoryRecord is one past transaction as supplied by the history store.
type HistoryRecord struct {
	Value int         `json:"value" db:"value"`
	Kind  DepositKind `json:"type" db:"kind"`
}

// AvoidSet is the read-only set of values drawn from history and operator input.
// A nil *AvoidSet is valid and empty.
type AvoidSet struct {
	values map[int]struct{}
}

// NewAvoidSet unions history values with the integers found in the manual text.
func NewAvoidSet(history []HistoryRecord, manual string) *AvoidSet {
	set := &AvoidSet{values: make(map[int]struct{}, len(history))}
	for _, h := range history {
		set.values[h.Value] = struct{}{}
	}
	for _, v := range ParseAvoidValues(manual) {
		set.values[v] = struct{}{}
	}
	return set
}

// AvoidSetOf builds a set from plain values.
func AvoidSetOf(values ...int) *AvoidSet {
	set := &AvoidSet{values: make(map[int]struct{}, len(values))}
	for _, v := range values {
		set.values[v] = struct{}{}
	}
	return set
}

// Has reports whether v must be avoided.
func (s *AvoidSet) Has(v int) bool {
	if s == nil {
		return false
	}
	_, ok := s.values[v]
	return ok
}

// Len returns the number of avoided values.
func (s *AvoidSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.values)
}

// Values returns the avoided values in ascending order.
func (s *AvoidSet) Values() []int {
	if s == nil {
		return nil
	}
	out := make([]int, 0, len(s.values))
	for v := range s.values {
		out = append(out, v)
	}
	sort.Ints(out)
	return out
}

var integerPattern = regexp.MustCompile(`\d+`)

// ParseAvoidValues extracts every integer greater than zero from free text,
// in order of appearance. Separators are irrelevant: "20, 35;40 e 55" yields 20 35 40 55.
func ParseAvoidValues(text string) []int {
	matches := integerPattern.FindAllString(text, -1)
	values := make([]int, 0, len(matches))
	for _, m := range matches {
		v, err := strconv.Atoi(m)
		if err != nil || v <= 0 {
			continue
		}
		values = append(values, v)
	}
	return values
}
