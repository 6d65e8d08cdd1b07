package game

// Score is the per-pawn tally. Counters only ever grow.
type Score struct {
	Kills      int `json:"kills"`
	Deaths     int `json:"deaths"`
	Killstreak int `json:"killstreak"`
}

// KillGet credits amount kills to the streak as well.
func (s *Score) KillGet(amount int) {
	if amount < 0 {
		return
	}
	s.Kills += amount
	s.Killstreak += amount
}

// GotKilled records amount deaths. The streak is left alone.
func (s *Score) GotKilled(amount int) {
	if amount < 0 {
		return
	}
	s.Deaths += amount
}

// Points is the scoreboard ranking value.
func (s Score) Points() float64 {
	return float64(s.Kills)*100 - float64(s.Deaths)*10
}
