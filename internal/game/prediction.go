package game

// PredictionScope turns off client prediction for messages sent while it is
// open. End restores whatever was in effect before.
type PredictionScope struct {
	world *World
	prev  bool
	done  bool
}

// PredictionOff opens a scope. Always pair it with End, usually via defer.
func (w *World) PredictionOff() *PredictionScope {
	s := &PredictionScope{world: w, prev: w.prediction}
	w.prediction = false
	return s
}

func (s *PredictionScope) End() {
	if s.done {
		return
	}
	s.done = true
	s.world.prediction = s.prev
}

// Predicting reports whether messages are currently marked as predicted.
func (w *World) Predicting() bool { return w.prediction }
