package game

// Button is a named input action.
type Button string

const (
	InputAttack1 Button = "attack1"
	InputAttack2 Button = "attack2"
	InputJump    Button = "jump"
	InputUse     Button = "use"
)

// InputState is the latest input a client sent.
type InputState struct {
	ViewAngles Angles
	buttons    map[Button]bool
}

// Down reports whether b is held.
func (in *InputState) Down(b Button) bool { return in.buttons[b] }

// Press marks b held.
func (in *InputState) Press(b Button) {
	if in.buttons == nil {
		in.buttons = make(map[Button]bool)
	}
	in.buttons[b] = true
}

// Release marks b up.
func (in *InputState) Release(b Button) { delete(in.buttons, b) }

// SetButtons replaces the held set.
func (in *InputState) SetButtons(held []Button) {
	clear(in.buttons)
	for _, b := range held {
		in.Press(b)
	}
}

// Held lists the held buttons.
func (in *InputState) Held() []Button {
	out := make([]Button, 0, len(in.buttons))
	for b := range in.buttons {
		out = append(out, b)
	}
	return out
}
