package voice

import "strings"

// Message is one server update in a live session.
type Message struct {
	InputText    string // transcription of the user's speech
	OutputText   string // transcription of the model's speech
	Audio        []byte // PCM16 at OutputSampleRate
	TurnComplete bool
	Interrupted  bool
}

// Turn pairs what the user said with what the model answered.
type Turn struct {
	User  string `json:"user"`
	Model string `json:"model"`

	closed bool
}

// Transcript accumulates turns from session messages.
type Transcript struct {
	Turns []Turn `json:"turns"`
}

// Apply folds a message into the transcript. User text extends the open
// turn or starts a new one once the previous turn closed. Model text
// extends the last turn and is dropped when there is none. A completed
// turn closes the last turn.
func (t *Transcript) Apply(msg Message) {
	if msg.InputText != "" {
		if n := len(t.Turns); n > 0 && !t.Turns[n-1].closed && t.Turns[n-1].Model == "" {
			t.Turns[n-1].User += msg.InputText
		} else {
			t.Turns = append(t.Turns, Turn{User: msg.InputText})
		}
	}
	if msg.OutputText != "" && len(t.Turns) > 0 {
		t.Turns[len(t.Turns)-1].Model += msg.OutputText
	}
	if msg.TurnComplete && len(t.Turns) > 0 {
		t.Turns[len(t.Turns)-1].closed = true
	}
}

// Clone returns an independent copy.
func (t Transcript) Clone() Transcript {
	return Transcript{Turns: append([]Turn(nil), t.Turns...)}
}

// String renders the transcript as alternating "Tú:" and "Asesor:" lines.
func (t Transcript) String() string {
	var b strings.Builder
	for _, turn := range t.Turns {
		if u := strings.TrimSpace(turn.User); u != "" {
			b.WriteString("Tú: " + u + "\n")
		}
		if m := strings.TrimSpace(turn.Model); m != "" {
			b.WriteString("Asesor: " + m + "\n")
		}
	}
	return b.String()
}
