package validate

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// The package keeps one process-wide rule registry. Rule files register
// themselves from init; the CLI resolves selections out of it.
var (
	mu       sync.RWMutex
	registry = map[string]Rule{}
)

// BlockingRuleIDs is the subset of rules the packaging flow runs before
// building an archive. A failure here aborts packaging.
var BlockingRuleIDs = []string{
	"metadata-exists",
	"name-present",
	"qgis-minimum-version",
}

// Register adds a rule under its ID. Two rules claiming the same ID is a
// programming error, caught at init time.
func Register(r Rule) {
	mu.Lock()
	defer mu.Unlock()
	if _, dup := registry[r.ID()]; dup {
		panic("validate: duplicate rule id " + r.ID())
	}
	registry[r.ID()] = r
}

// List returns every registered rule, sorted by ID.
func List() []Rule {
	mu.RLock()
	defer mu.RUnlock()
	return sortedLocked()
}

func sortedLocked() []Rule {
	rules := make([]Rule, 0, len(registry))
	for _, r := range registry {
		rules = append(rules, r)
	}
	sort.Slice(rules, func(i, j int) bool {
		return rules[i].ID() < rules[j].ID()
	})
	return rules
}

// Resolve selects rules by a comma-separated ID list. Empty selects all.
func Resolve(selector string) ([]Rule, error) {
	mu.RLock()
	defer mu.RUnlock()

	if strings.TrimSpace(selector) == "" {
		return sortedLocked(), nil
	}

	ids := strings.Split(selector, ",")
	selected := make([]Rule, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		r, ok := registry[id]
		if !ok {
			return nil, fmt.Errorf("rule not found: %s", id)
		}
		selected = append(selected, r)
	}
	return selected, nil
}
