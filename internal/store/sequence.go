package store

import (
	"strconv"
	"strings"
	"sync"

	"baedal/internal/core"
)

// Id prefixes per entry class.
const (
	IncomePrefix  = "s"
	ExpensePrefix = "z"
)

// Prefix returns the id prefix of an entry class.
func Prefix(t core.EntryType) string {
	if t == core.Expense {
		return ExpensePrefix
	}
	return IncomePrefix
}

// SequenceAllocator hands out monotonically increasing ids per entry class.
type SequenceAllocator struct {
	mu   sync.Mutex
	last map[string]int
}

func NewSequenceAllocator() *SequenceAllocator {
	return &SequenceAllocator{last: make(map[string]int)}
}

// Recover sets every counter to the highest suffix found among the entries.
// Gaps left by deletions are never reused.
func (a *SequenceAllocator) Recover(entries []core.Entry) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.last = make(map[string]int)
	for _, e := range entries {
		a.observe(e.ID)
	}
}

// Observe raises the counter of id's prefix to id's suffix if it is higher.
func (a *SequenceAllocator) Observe(id string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.observe(id)
}

func (a *SequenceAllocator) observe(id string) {
	prefix, n, ok := ParseID(id)
	if !ok {
		return
	}
	if n > a.last[prefix] {
		a.last[prefix] = n
	}
}

// Next allocates the next id for an entry class.
func (a *SequenceAllocator) Next(t core.EntryType) string {
	a.mu.Lock()
	defer a.mu.Unlock()
	prefix := Prefix(t)
	a.last[prefix]++
	return prefix + strconv.Itoa(a.last[prefix])
}

// Last returns the most recently allocated sequence number of an entry class.
func (a *SequenceAllocator) Last(t core.EntryType) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.last[Prefix(t)]
}

// Reset drops both counters to zero.
func (a *SequenceAllocator) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.last = make(map[string]int)
}

// ParseID splits "s12" into ("s", 12). Ids with an unknown prefix or a
// suffix that is not all ASCII digits are rejected.
func ParseID(id string) (string, int, bool) {
	for _, prefix := range []string{IncomePrefix, ExpensePrefix} {
		rest, found := strings.CutPrefix(id, prefix)
		if !found || rest == "" {
			continue
		}
		if strings.IndexFunc(rest, func(r rune) bool { return r < '0' || r > '9' }) >= 0 {
			return "", 0, false
		}
		n, err := strconv.Atoi(rest)
		if err != nil {
			return "", 0, false
		}
		return prefix, n, true
	}
	return "", 0, false
}
