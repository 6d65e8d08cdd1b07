package spatial

import (
	"math/rand"
	"sync"
)

const (
	maxLevel         = 16
	levelProbability = 0.25
)

// RankEntry is one scored key in a SkipList.
type RankEntry struct {
	Key   string
	Score float64
}

type skipNode struct {
	entry RankEntry
	next  []*skipNode
}

// SkipList keeps keys ordered by score (highest first, ties by key) so the
// top of the table can be read without sorting the whole population.
// Pugh (1990); Redis sorted sets use the same layout.
type SkipList struct {
	mu     sync.RWMutex
	head   *skipNode
	level  int
	scores map[string]float64
	rng    *rand.Rand
}

// NewSkipList creates an empty list. The level generator uses its own seed so
// rankings never touch the simulation's random streams.
func NewSkipList() *SkipList {
	return &SkipList{
		head:   &skipNode{next: make([]*skipNode, maxLevel)},
		level:  1,
		scores: make(map[string]float64),
		rng:    rand.New(rand.NewSource(0x5eed)),
	}
}

// before reports whether a sorts ahead of b.
func before(a, b RankEntry) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	return a.Key < b.Key
}

func (sl *SkipList) randomLevel() int {
	level := 1
	for level < maxLevel && sl.rng.Float64() < levelProbability {
		level++
	}
	return level
}

// Insert adds key or moves it to its new score.
func (sl *SkipList) Insert(key string, score float64) {
	sl.mu.Lock()
	defer sl.mu.Unlock()

	if old, ok := sl.scores[key]; ok {
		if old == score {
			return
		}
		sl.remove(RankEntry{Key: key, Score: old})
	}

	entry := RankEntry{Key: key, Score: score}
	var update [maxLevel]*skipNode
	x := sl.head
	for i := sl.level - 1; i >= 0; i-- {
		for x.next[i] != nil && before(x.next[i].entry, entry) {
			x = x.next[i]
		}
		update[i] = x
	}

	lvl := sl.randomLevel()
	if lvl > sl.level {
		for i := sl.level; i < lvl; i++ {
			update[i] = sl.head
		}
		sl.level = lvl
	}

	node := &skipNode{entry: entry, next: make([]*skipNode, lvl)}
	for i := 0; i < lvl; i++ {
		node.next[i] = update[i].next[i]
		update[i].next[i] = node
	}
	sl.scores[key] = score
}

// Remove deletes key. It reports whether the key was present.
func (sl *SkipList) Remove(key string) bool {
	sl.mu.Lock()
	defer sl.mu.Unlock()

	score, ok := sl.scores[key]
	if !ok {
		return false
	}
	sl.remove(RankEntry{Key: key, Score: score})
	return true
}

func (sl *SkipList) remove(entry RankEntry) {
	var update [maxLevel]*skipNode
	x := sl.head
	for i := sl.level - 1; i >= 0; i-- {
		for x.next[i] != nil && before(x.next[i].entry, entry) {
			x = x.next[i]
		}
		update[i] = x
	}

	target := x.next[0]
	if target == nil || target.entry.Key != entry.Key {
		return
	}
	for i := 0; i < len(target.next); i++ {
		if update[i].next[i] == target {
			update[i].next[i] = target.next[i]
		}
	}
	for sl.level > 1 && sl.head.next[sl.level-1] == nil {
		sl.level--
	}
	delete(sl.scores, entry.Key)
}

// Rank returns the 1-based position of key, or 0 if absent.
func (sl *SkipList) Rank(key string) int {
	sl.mu.RLock()
	defer sl.mu.RUnlock()

	if _, ok := sl.scores[key]; !ok {
		return 0
	}
	rank := 1
	for x := sl.head.next[0]; x != nil; x = x.next[0] {
		if x.entry.Key == key {
			return rank
		}
		rank++
	}
	return 0
}

// Top returns up to n entries from the head of the list.
func (sl *SkipList) Top(n int) []RankEntry {
	sl.mu.RLock()
	defer sl.mu.RUnlock()

	if n <= 0 {
		return nil
	}
	out := make([]RankEntry, 0, min(n, len(sl.scores)))
	for x := sl.head.next[0]; x != nil && len(out) < n; x = x.next[0] {
		out = append(out, x.entry)
	}
	return out
}

// Score returns the stored score for key.
func (sl *SkipList) Score(key string) (float64, bool) {
	sl.mu.RLock()
	defer sl.mu.RUnlock()
	s, ok := sl.scores[key]
	return s, ok
}

// Len is the number of keys.
func (sl *SkipList) Len() int {
	sl.mu.RLock()
	defer sl.mu.RUnlock()
	return len(sl.scores)
}
