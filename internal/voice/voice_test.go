package voice

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"testing/iotest"
	"time"
)

func TestTranscriptApply(t *testing.T) {
	var tr Transcript

	tr.Apply(Message{OutputText: "hola"}) // no turn yet
	if len(tr.Turns) != 0 {
		t.Fatalf("model text before any turn should be dropped, got %+v", tr.Turns)
	}

	tr.Apply(Message{InputText: "¿Cuánto "})
	tr.Apply(Message{InputText: "me queda?"})
	tr.Apply(Message{OutputText: "Te quedan "})
	tr.Apply(Message{OutputText: "17,9 millones.", TurnComplete: true})
	tr.Apply(Message{InputText: "Gracias"})
	tr.Apply(Message{OutputText: "De nada."})

	want := []Turn{
		{User: "¿Cuánto me queda?", Model: "Te quedan 17,9 millones.", closed: true},
		{User: "Gracias", Model: "De nada."},
	}
	if len(tr.Turns) != len(want) {
		t.Fatalf("turns = %+v, want %+v", tr.Turns, want)
	}
	for i := range want {
		if tr.Turns[i] != want[i] {
			t.Errorf("turn %d = %+v, want %+v", i, tr.Turns[i], want[i])
		}
	}

	if got := tr.String(); got != "Tú: ¿Cuánto me queda?\nAsesor: Te quedan 17,9 millones.\nTú: Gracias\nAsesor: De nada.\n" {
		t.Errorf("String = %q", got)
	}
}

func TestPCMConversion(t *testing.T) {
	pcm := FloatToPCM16([]float32{0, 1, -1, 0.5, 2})
	got := PCM16ToFloat(pcm)
	want := []float32{0, 32767.0 / 32768, -1, 0.5, 32767.0 / 32768}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("sample %d = %v, want %v", i, got[i], want[i])
		}
	}
	if n := len(PCM16ToFloat([]byte{1, 2, 3})); n != 1 {
		t.Errorf("odd byte not ignored: %d samples", n)
	}
}

func TestDuration(t *testing.T) {
	if got := Duration(FrameBytes, InputSampleRate); got != 256*time.Millisecond {
		t.Errorf("Duration(frame) = %v, want 256ms", got)
	}
	if got := Duration(48000, OutputSampleRate); got != time.Second {
		t.Errorf("Duration(1s at 24k) = %v", got)
	}
}

type fakeSession struct {
	mu     sync.Mutex
	sent   int
	frames int

	replyAfter int
	replies    []Message
	msgs       chan Message
	closed     chan struct{}
	once       sync.Once
}

func newFakeSession(replyAfter int, replies ...Message) *fakeSession {
	return &fakeSession{
		replyAfter: replyAfter,
		replies:    replies,
		msgs:       make(chan Message, len(replies)),
		closed:     make(chan struct{}),
	}
}

func (f *fakeSession) SendAudio(pcm []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	before := f.sent
	f.sent += len(pcm)
	f.frames++
	if before < f.replyAfter && f.sent >= f.replyAfter {
		for _, m := range f.replies {
			f.msgs <- m
		}
	}
	return nil
}

func (f *fakeSession) Receive() (Message, error) {
	select {
	case m := <-f.msgs:
		return m, nil
	case <-f.closed:
		return Message{}, io.EOF
	}
}

func (f *fakeSession) Close() error {
	f.once.Do(func() { close(f.closed) })
	return nil
}

type fakeDialer struct {
	sess        *fakeSession
	err         error
	instruction string
}

func (d *fakeDialer) Dial(_ context.Context, instruction string) (Session, error) {
	d.instruction = instruction
	if d.err != nil {
		return nil, d.err
	}
	return d.sess, nil
}

func TestAssistantRun(t *testing.T) {
	input := bytes.Repeat([]byte{1, 0}, FrameSamples*2+100)
	input = append(input, 7) // dangling half sample

	sess := newFakeSession(len(input)-1,
		Message{InputText: "¿Cómo vamos?"},
		Message{OutputText: "Bien.", Audio: []byte{1, 2, 3, 4}},
		Message{Audio: []byte{5, 6}, TurnComplete: true},
	)
	dialer := &fakeDialer{sess: sess}

	var mu sync.Mutex
	seen := map[State]bool{}
	a := NewAssistant(dialer, nil)
	a.ReplyTimeout = time.Second
	a.Observe = func(u Update) {
		mu.Lock()
		seen[u.State] = true
		mu.Unlock()
	}

	var out bytes.Buffer
	tr, err := a.Run(context.Background(), "instrucción", bytes.NewReader(input), &out)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if dialer.instruction != "instrucción" {
		t.Errorf("instruction = %q", dialer.instruction)
	}
	if sess.sent != len(input)-1 || sess.frames != 3 {
		t.Errorf("sent %d bytes in %d frames, want %d in 3", sess.sent, sess.frames, len(input)-1)
	}
	if !bytes.Equal(out.Bytes(), []byte{1, 2, 3, 4, 5, 6}) {
		t.Errorf("reply audio = %v", out.Bytes())
	}
	if len(tr.Turns) != 1 || tr.Turns[0].User != "¿Cómo vamos?" || tr.Turns[0].Model != "Bien." {
		t.Errorf("transcript = %+v", tr.Turns)
	}
	if a.State() != StateIdle {
		t.Errorf("final state = %s, want idle", a.State())
	}
	for _, s := range []State{StateConnecting, StateListening, StateSpeaking, StateIdle} {
		if !seen[s] {
			t.Errorf("state %s never observed", s)
		}
	}
}

func TestAssistantDialError(t *testing.T) {
	boom := errors.New("sin conexión")
	a := NewAssistant(&fakeDialer{err: boom}, nil)

	_, err := a.Run(context.Background(), "", bytes.NewReader(nil), io.Discard)
	if !errors.Is(err, boom) {
		t.Fatalf("Run err = %v, want %v", err, boom)
	}
	if a.State() != StateError {
		t.Errorf("state = %s, want error", a.State())
	}
}

func TestAssistantReplyTimeout(t *testing.T) {
	sess := newFakeSession(1 << 30) // never replies
	a := NewAssistant(&fakeDialer{sess: sess}, nil)
	a.ReplyTimeout = 20 * time.Millisecond

	done := make(chan error, 1)
	go func() {
		_, err := a.Run(context.Background(), "", bytes.NewReader(make([]byte, 10)), io.Discard)
		done <- err
	}()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after reply timeout")
	}
}

func TestAssistantCancelWithStalledInput(t *testing.T) {
	sess := newFakeSession(1 << 30)
	a := NewAssistant(&fakeDialer{sess: sess}, nil)

	// Nothing is ever written, so every read blocks.
	pr, pw := io.Pipe()
	defer func() { _ = pw.Close() }()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := a.Run(ctx, "", pr, io.Discard)
		done <- err
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("Run still blocked after ctx cancel")
	}
	if a.State() != StateIdle {
		t.Errorf("state = %s, want idle", a.State())
	}
}

func TestAssistantInputError(t *testing.T) {
	sess := newFakeSession(1 << 30)
	a := NewAssistant(&fakeDialer{sess: sess}, nil)

	boom := errors.New("mic desconectado")
	_, err := a.Run(context.Background(), "", iotest.ErrReader(boom), io.Discard)
	if !errors.Is(err, boom) {
		t.Fatalf("Run err = %v, want %v", err, boom)
	}
	if a.State() != StateError {
		t.Errorf("state = %s, want error", a.State())
	}
}
