package spatial

import (
	"fmt"
	"slices"
	"sort"
	"testing"

	"pgregory.net/rapid"
)

func TestSkipListOrdering(t *testing.T) {
	sl := NewSkipList()
	sl.Insert("carol", 50)
	sl.Insert("alice", 100)
	sl.Insert("bob", 50)
	sl.Insert("dave", -10)

	want := []RankEntry{{"alice", 100}, {"bob", 50}, {"carol", 50}, {"dave", -10}}
	if got := sl.Top(10); !slices.Equal(got, want) {
		t.Errorf("Top = %v, want %v", got, want)
	}
	if got := sl.Top(2); len(got) != 2 || got[1].Key != "bob" {
		t.Errorf("Top(2) = %v", got)
	}
	if sl.Top(0) != nil {
		t.Error("Top(0) should be empty")
	}
	if sl.Rank("carol") != 3 || sl.Rank("nobody") != 0 {
		t.Errorf("ranks: carol=%d nobody=%d", sl.Rank("carol"), sl.Rank("nobody"))
	}
}

func TestSkipListUpdateAndRemove(t *testing.T) {
	sl := NewSkipList()
	sl.Insert("a", 1)
	sl.Insert("b", 2)
	sl.Insert("a", 3)

	if sl.Len() != 2 || sl.Rank("a") != 1 {
		t.Fatalf("after update: len %d, rank %d", sl.Len(), sl.Rank("a"))
	}
	if s, ok := sl.Score("a"); !ok || s != 3 {
		t.Errorf("Score(a) = %v, %v", s, ok)
	}

	if !sl.Remove("a") || sl.Remove("a") {
		t.Error("Remove should succeed once")
	}
	if got := sl.Top(5); len(got) != 1 || got[0].Key != "b" {
		t.Errorf("after remove: %v", got)
	}
}

func TestSkipListMatchesSort(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		sl := NewSkipList()
		ref := make(map[string]float64)

		ops := rapid.IntRange(1, 200).Draw(t, "ops")
		for range ops {
			key := fmt.Sprintf("k%d", rapid.IntRange(0, 30).Draw(t, "key"))
			if rapid.IntRange(0, 4).Draw(t, "op") == 0 {
				sl.Remove(key)
				delete(ref, key)
				continue
			}
			score := float64(rapid.IntRange(-20, 20).Draw(t, "score"))
			sl.Insert(key, score)
			ref[key] = score
		}

		want := make([]RankEntry, 0, len(ref))
		for k, s := range ref {
			want = append(want, RankEntry{k, s})
		}
		sort.Slice(want, func(i, j int) bool { return before(want[i], want[j]) })

		if got := sl.Top(len(ref) + 1); !slices.Equal(got, want) {
			t.Fatalf("Top = %v, want %v", got, want)
		}
		for i, e := range want {
			if r := sl.Rank(e.Key); r != i+1 {
				t.Fatalf("Rank(%s) = %d, want %d", e.Key, r, i+1)
			}
		}
	})
}
