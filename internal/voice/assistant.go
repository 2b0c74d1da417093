package voice

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// State is the lifecycle of a voice session.
type State int

const (
	StateIdle State = iota
	StateConnecting
	StateListening
	StateSpeaking
	StateError
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "conectando"
	case StateListening:
		return "escuchando"
	case StateSpeaking:
		return "hablando"
	case StateError:
		return "error"
	default:
		return "inactivo"
	}
}

// Session is an open bidirectional audio session.
type Session interface {
	SendAudio(pcm []byte) error
	// Receive blocks for the next server message. It returns an error once
	// the session is closed.
	Receive() (Message, error)
	Close() error
}

// Dialer opens sessions primed with a system instruction.
type Dialer interface {
	Dial(ctx context.Context, instruction string) (Session, error)
}

// Update is reported to observers whenever state or transcript changes.
type Update struct {
	State      State
	Transcript Transcript
}

// Assistant drives one voice conversation at a time.
type Assistant struct {
	dialer Dialer
	logger *slog.Logger

	// ReplyTimeout bounds the wait for the model after input ends.
	ReplyTimeout time.Duration
	// Pace sends input in real time instead of as fast as it can be read.
	Pace bool
	// Observe, when set, receives every update.
	Observe func(Update)

	mu         sync.Mutex
	state      State
	transcript Transcript
}

// NewAssistant creates an assistant using dialer. A nil logger discards logs.
func NewAssistant(dialer Dialer, logger *slog.Logger) *Assistant {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Assistant{dialer: dialer, logger: logger, ReplyTimeout: 15 * time.Second}
}

// State returns the current session state.
func (a *Assistant) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// Transcript returns a copy of the transcript so far.
func (a *Assistant) Transcript() Transcript {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.transcript.Clone()
}

func (a *Assistant) update(fn func()) {
	a.mu.Lock()
	fn()
	u := Update{State: a.state, Transcript: a.transcript.Clone()}
	a.mu.Unlock()

	if a.Observe != nil {
		a.Observe(u)
	}
}

func (a *Assistant) setState(s State) {
	a.update(func() { a.state = s })
}

// Run streams PCM16 16 kHz audio from in to the advisor and writes its
// PCM16 24 kHz replies to out. It returns once input is exhausted and the
// model has finished its turn, when ReplyTimeout elapses after input ends,
// or when ctx is cancelled.
func (a *Assistant) Run(ctx context.Context, instruction string, in io.Reader, out io.Writer) (Transcript, error) {
	a.update(func() {
		a.state = StateConnecting
		a.transcript = Transcript{}
	})

	sess, err := a.dialer.Dial(ctx, instruction)
	if err != nil {
		a.setState(StateError)
		return Transcript{}, fmt.Errorf("connecting voice session: %w", err)
	}
	a.setState(StateListening)
	a.logger.Info("voice session open")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)
	inputDone := make(chan struct{})

	// A blocked Receive only returns once the session is closed.
	closed := make(chan struct{})
	go func() {
		<-gctx.Done()
		if err := sess.Close(); err != nil {
			a.logger.Warn("closing voice session", "err", err)
		}
		close(closed)
	}()

	// The pump stays outside the group: a read blocked on a stalled input
	// must not hold Run open after cancellation.
	inputErr := make(chan error, 1)
	go func() {
		defer close(inputDone)
		if err := a.pumpInput(gctx, sess, in); err != nil {
			inputErr <- err
			cancel()
		}
	}()

	g.Go(func() error {
		for {
			msg, err := sess.Receive()
			if err != nil {
				if gctx.Err() != nil || errors.Is(err, io.EOF) {
					cancel()
					return nil
				}
				return fmt.Errorf("receiving: %w", err)
			}
			if err := a.handle(msg, out); err != nil {
				return err
			}
			if msg.TurnComplete {
				select {
				case <-inputDone:
					cancel()
					return nil
				default:
				}
			}
		}
	})

	g.Go(func() error {
		select {
		case <-inputDone:
		case <-gctx.Done():
			return nil
		}
		timer := time.NewTimer(a.ReplyTimeout)
		defer timer.Stop()
		select {
		case <-timer.C:
			a.logger.Info("no reply before timeout, ending voice session")
			cancel()
		case <-gctx.Done():
		}
		return nil
	})

	err = g.Wait()
	cancel()
	<-closed
	select {
	case ierr := <-inputErr:
		if err == nil {
			err = ierr
		}
	default:
	}

	if err != nil {
		a.setState(StateError)
		return a.Transcript(), err
	}
	a.setState(StateIdle)
	a.logger.Info("voice session closed")
	return a.Transcript(), nil
}

func (a *Assistant) handle(msg Message, out io.Writer) error {
	if len(msg.Audio) > 0 {
		if _, err := out.Write(msg.Audio); err != nil {
			return fmt.Errorf("writing reply audio: %w", err)
		}
	}

	a.update(func() {
		a.transcript.Apply(msg)
		switch {
		case msg.Interrupted, msg.TurnComplete:
			a.state = StateListening
		case len(msg.Audio) > 0:
			a.state = StateSpeaking
		}
	})
	return nil
}

func (a *Assistant) pumpInput(ctx context.Context, sess Session, in io.Reader) error {
	buf := make([]byte, FrameBytes)
	frame := Duration(FrameBytes, InputSampleRate)

	for {
		n, err := io.ReadFull(in, buf)
		n -= n % 2
		if n > 0 {
			if serr := sess.SendAudio(append([]byte(nil), buf[:n]...)); serr != nil {
				if ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("sending audio: %w", serr)
			}
		}
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("reading audio: %w", err)
		}

		if a.Pace {
			select {
			case <-time.After(frame):
			case <-ctx.Done():
				return nil
			}
		} else if ctx.Err() != nil {
			return nil
		}
	}
}
