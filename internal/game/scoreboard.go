package game

import (
	"sync"

	"pistol-arena/internal/game/spatial"
)

// Scoreboard ranks clients by Score.Points using a skip list, so the top of
// the table is O(log n + k) to read while scores change every tick.
type Scoreboard struct {
	mu      sync.RWMutex
	list    *spatial.SkipList
	entries map[ClientID]ScoreEntry
}

// ScoreEntry is one scoreboard row.
type ScoreEntry struct {
	Rank       int      `json:"rank"`
	ClientID   ClientID `json:"clientId"`
	Name       string   `json:"name"`
	Kills      int      `json:"kills"`
	Deaths     int      `json:"deaths"`
	Killstreak int      `json:"killstreak"`
	Points     float64  `json:"points"`
}

func NewScoreboard() *Scoreboard {
	return &Scoreboard{
		list:    spatial.NewSkipList(),
		entries: make(map[ClientID]ScoreEntry),
	}
}

// Update records the client's current score.
func (sb *Scoreboard) Update(id ClientID, name string, s Score) {
	sb.mu.Lock()
	defer sb.mu.Unlock()

	sb.entries[id] = ScoreEntry{
		ClientID:   id,
		Name:       name,
		Kills:      s.Kills,
		Deaths:     s.Deaths,
		Killstreak: s.Killstreak,
		Points:     s.Points(),
	}
	sb.list.Insert(string(id), s.Points())
}

// Remove drops a client.
func (sb *Scoreboard) Remove(id ClientID) {
	sb.mu.Lock()
	defer sb.mu.Unlock()
	delete(sb.entries, id)
	sb.list.Remove(string(id))
}

// Top returns the best n rows, ranked from 1.
func (sb *Scoreboard) Top(n int) []ScoreEntry {
	sb.mu.RLock()
	defer sb.mu.RUnlock()

	ranked := sb.list.Top(n)
	out := make([]ScoreEntry, 0, len(ranked))
	for i, r := range ranked {
		e := sb.entries[ClientID(r.Key)]
		e.Rank = i + 1
		out = append(out, e)
	}
	return out
}

// Rank is the client's 1-based position, or 0 when unknown.
func (sb *Scoreboard) Rank(id ClientID) int {
	return sb.list.Rank(string(id))
}

func (sb *Scoreboard) Len() int { return sb.list.Len() }
