package ordering

import (
	"reflect"
	"testing"
)

func members(orders ...int) []Member {
	out := make([]Member, len(orders))
	for i, o := range orders {
		out[i] = Member{ID: int64(i + 1), SortOrder: o}
	}
	return out
}

func intPtr(v int) *int { return &v }

func TestResolveInsertAt(t *testing.T) {
	siblings := members(0, 1, 2, 3)

	tests := []struct {
		name      string
		siblings  []Member
		placement Placement
		want      int
	}{
		{
			name:      "before reference",
			siblings:  siblings,
			placement: Placement{RefID: 2, Direction: Before},
			want:      1,
		},
		{
			name:      "after reference",
			siblings:  siblings,
			placement: Placement{RefID: 2, Direction: After},
			want:      2,
		},
		{
			name:      "before first",
			siblings:  siblings,
			placement: Placement{RefID: 1, Direction: Before},
			want:      0,
		},
		{
			name:      "after last",
			siblings:  siblings,
			placement: Placement{RefID: 4, Direction: After},
			want:      4,
		},
		{
			name:      "unknown reference falls back to append",
			siblings:  siblings,
			placement: Placement{RefID: 99, Direction: Before},
			want:      4,
		},
		{
			name:      "reference without direction falls back to append",
			siblings:  siblings,
			placement: Placement{RefID: 2},
			want:      4,
		},
		{
			name:      "reference wins over absolute",
			siblings:  siblings,
			placement: Placement{RefID: 3, Direction: Before, Absolute: intPtr(0)},
			want:      2,
		},
		{
			name:      "absolute index",
			siblings:  siblings,
			placement: Placement{Absolute: intPtr(1)},
			want:      1,
		},
		{
			name:      "absolute clamped high",
			siblings:  siblings,
			placement: Placement{Absolute: intPtr(42)},
			want:      4,
		},
		{
			name:      "absolute clamped low",
			siblings:  siblings,
			placement: Placement{Absolute: intPtr(-5)},
			want:      0,
		},
		{
			name:      "empty placement appends",
			siblings:  siblings,
			placement: Placement{},
			want:      4,
		},
		{
			name:      "empty group",
			siblings:  nil,
			placement: Placement{RefID: 1, Direction: After},
			want:      0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ResolveInsertAt(tt.siblings, tt.placement)
			if got != tt.want {
				t.Errorf("ResolveInsertAt() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestRenumberForInsert(t *testing.T) {
	tests := []struct {
		name     string
		siblings []Member
		insertAt int
		want     []Member
	}{
		{
			name:     "insert at front shifts everyone",
			siblings: members(0, 1, 2),
			insertAt: 0,
			want: []Member{
				{ID: 1, SortOrder: 1},
				{ID: 2, SortOrder: 2},
				{ID: 3, SortOrder: 3},
			},
		},
		{
			name:     "insert in middle shifts the tail",
			siblings: members(0, 1, 2),
			insertAt: 1,
			want: []Member{
				{ID: 2, SortOrder: 2},
				{ID: 3, SortOrder: 3},
			},
		},
		{
			name:     "append changes nothing",
			siblings: members(0, 1, 2),
			insertAt: 3,
			want:     nil,
		},
		{
			name:     "gapped group is compacted in passing",
			siblings: members(0, 2, 5),
			insertAt: 3,
			want: []Member{
				{ID: 2, SortOrder: 1},
				{ID: 3, SortOrder: 2},
			},
		},
		{
			name:     "empty group",
			siblings: nil,
			insertAt: 0,
			want:     nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RenumberForInsert(tt.siblings, tt.insertAt)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("RenumberForInsert() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRenumberForInsertKeepsGroupContiguous(t *testing.T) {
	siblings := members(0, 1, 2, 3, 4)

	for insertAt := 0; insertAt <= len(siblings); insertAt++ {
		// apply the plan, then slot in the new member
		orders := map[int64]int{}
		for _, s := range siblings {
			orders[s.ID] = s.SortOrder
		}
		for _, c := range RenumberForInsert(siblings, insertAt) {
			orders[c.ID] = c.SortOrder
		}
		orders[100] = insertAt

		seen := make([]bool, len(orders))
		for _, o := range orders {
			if o < 0 || o >= len(orders) || seen[o] {
				t.Fatalf("insertAt=%d: sort orders not a permutation of 0..%d: %v", insertAt, len(orders)-1, orders)
			}
			seen[o] = true
		}
	}
}

func TestMoveBand(t *testing.T) {
	tests := []struct {
		name     string
		oldOrder int
		insertAt int
		wantBand Band
		wantOK   bool
	}{
		{
			name:     "move toward front shifts band right",
			oldOrder: 4,
			insertAt: 1,
			wantBand: Band{Lo: 1, Hi: 3, Delta: 1},
			wantOK:   true,
		},
		{
			name:     "move toward back shifts band left",
			oldOrder: 1,
			insertAt: 4,
			wantBand: Band{Lo: 2, Hi: 4, Delta: -1},
			wantOK:   true,
		},
		{
			name:     "adjacent swap forward",
			oldOrder: 2,
			insertAt: 3,
			wantBand: Band{Lo: 3, Hi: 3, Delta: -1},
			wantOK:   true,
		},
		{
			name:     "adjacent swap backward",
			oldOrder: 3,
			insertAt: 2,
			wantBand: Band{Lo: 2, Hi: 2, Delta: 1},
			wantOK:   true,
		},
		{
			name:     "same position is a no-op",
			oldOrder: 2,
			insertAt: 2,
			wantOK:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			band, ok := MoveBand(tt.oldOrder, tt.insertAt)
			if ok != tt.wantOK {
				t.Fatalf("MoveBand() ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && band != tt.wantBand {
				t.Errorf("MoveBand() = %+v, want %+v", band, tt.wantBand)
			}
		})
	}
}

// A move leaves members outside the band untouched and the whole group
// contiguous once the moving member takes insertAt.
func TestMoveBandPreservesContiguity(t *testing.T) {
	const n = 6

	for oldOrder := 0; oldOrder < n; oldOrder++ {
		for insertAt := 0; insertAt < n; insertAt++ {
			orders := make([]int, n)
			for i := range orders {
				orders[i] = i
			}

			band, ok := MoveBand(oldOrder, insertAt)
			if !ok {
				continue
			}
			for i := range orders {
				if i == oldOrder {
					continue
				}
				if orders[i] >= band.Lo && orders[i] <= band.Hi {
					orders[i] += band.Delta
				}
			}
			orders[oldOrder] = insertAt

			seen := make([]bool, n)
			for _, o := range orders {
				if o < 0 || o >= n || seen[o] {
					t.Fatalf("old=%d insertAt=%d: not a permutation: %v", oldOrder, insertAt, orders)
				}
				seen[o] = true
			}
		}
	}
}

func TestExclude(t *testing.T) {
	siblings := members(0, 1, 2)

	got := Exclude(siblings, 2)
	want := []Member{
		{ID: 1, SortOrder: 0},
		{ID: 3, SortOrder: 2},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Exclude() = %v, want %v", got, want)
	}

	if got := Exclude(siblings, 99); !reflect.DeepEqual(got, siblings) {
		t.Errorf("Exclude() with unknown id = %v, want unchanged", got)
	}
}

func TestIsContiguous(t *testing.T) {
	if !IsContiguous(members(0, 1, 2)) {
		t.Error("IsContiguous() = false for 0,1,2")
	}
	if IsContiguous(members(0, 2, 3)) {
		t.Error("IsContiguous() = true for 0,2,3")
	}
	if !IsContiguous(nil) {
		t.Error("IsContiguous() = false for empty group")
	}
}

func TestDirectionValid(t *testing.T) {
	if !Before.Valid() || !After.Valid() {
		t.Error("known directions reported invalid")
	}
	if Direction("sideways").Valid() || Direction("").Valid() {
		t.Error("unknown direction reported valid")
	}
}
