package postgres

import (
	"sort"
	"testing"
	"time"
)

func TestULIDGeneratorProducesSortableIDs(t *testing.T) {
	gen := NewULIDGenerator()

	ids := make([]string, 0, 100)
	seen := make(map[string]bool, 100)

	for i := 0; i < 100; i++ {
		id := gen.Generate()
		if len(id) != 26 {
			t.Fatalf("unexpected ulid length %d for %q", len(id), id)
		}
		if seen[id] {
			t.Fatalf("duplicate id %q", id)
		}
		seen[id] = true
		ids = append(ids, id)

		if i%10 == 9 {
			time.Sleep(2 * time.Millisecond)
		}
	}

	// IDs generated later must never sort before IDs generated earlier,
	// otherwise id-descending listings stop being reverse chronological.
	if !sort.StringsAreSorted(ids) {
		t.Error("ids are not lexicographically ordered by generation time")
	}
}
