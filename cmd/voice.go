package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/evbudget/internal/advisor"
	"github.com/theirongolddev/evbudget/internal/config"
	"github.com/theirongolddev/evbudget/internal/voice"
)

var (
	flagVoiceIn       string
	flagVoiceOut      string
	flagVoicePace     bool
	flagVoiceTimeout  time.Duration
	flagVoiceJSON     bool
	flagVoiceVoice    string
	flagVoiceModelArg string
)

var voiceCmd = &cobra.Command{
	Use:   "voice",
	Short: "Talk to the advisor (PCM16 audio on stdin/stdout)",
	Long: "Streams 16 kHz mono PCM16 from --in (default stdin) to a live advisor session\n" +
		"and writes its 24 kHz PCM16 replies to --out (default stdout).\n\n" +
		"  arecord -f S16_LE -r 16000 -c 1 | evbudget voice | aplay -f S16_LE -r 24000 -c 1",
	RunE: runVoice,
}

func init() {
	voiceCmd.Flags().StringVar(&flagVoiceIn, "in", "-", "Input PCM file (- for stdin)")
	voiceCmd.Flags().StringVar(&flagVoiceOut, "out", "-", "Output PCM file (- for stdout)")
	voiceCmd.Flags().BoolVar(&flagVoicePace, "pace", false, "Send input in real time (for recorded files)")
	voiceCmd.Flags().DurationVar(&flagVoiceTimeout, "reply-timeout", 15*time.Second, "Wait for the reply after input ends")
	voiceCmd.Flags().BoolVar(&flagVoiceJSON, "json", false, "Print the transcript as JSON on stderr")
	voiceCmd.Flags().StringVar(&flagVoiceVoice, "voice", "", "Prebuilt voice name (default from config)")
	voiceCmd.Flags().StringVar(&flagVoiceModelArg, "model", "", "Live model (default from config)")
	rootCmd.AddCommand(voiceCmd)
}

func runVoice(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	st, err := loadState(cfg)
	if err != nil {
		return err
	}

	key := config.VoiceAPIKey(cfg)
	if key == "" {
		return errors.New("no Gemini API key configured for voice (set GEMINI_API_KEY or voice.api_key)")
	}

	dialer := voice.GeminiDialer{
		APIKey:    key,
		Model:     firstNonEmpty(flagVoiceModelArg, cfg.Voice.Model),
		VoiceName: firstNonEmpty(flagVoiceVoice, cfg.Voice.VoiceName),
	}

	in, closeIn, err := openVoiceInput(flagVoiceIn)
	if err != nil {
		return err
	}
	defer closeIn()

	out, closeOut, err := openVoiceOutput(flagVoiceOut)
	if err != nil {
		return err
	}
	defer closeOut()

	logger := newLogger()
	asst := voice.NewAssistant(dialer, logger)
	asst.Pace = flagVoicePace
	asst.ReplyTimeout = flagVoiceTimeout

	last := voice.StateIdle
	asst.Observe = func(u voice.Update) {
		if u.State != last {
			logger.Info("voice session", "state", u.State.String())
			last = u.State
		}
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	transcript, err := asst.Run(ctx, advisor.VoiceInstruction(st.Snapshot()), in, out)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	if flagVoiceJSON {
		enc := json.NewEncoder(os.Stderr)
		enc.SetIndent("", "  ")
		return enc.Encode(transcript)
	}
	if !flagQuiet {
		fmt.Fprint(os.Stderr, "\n"+transcript.String())
	}
	return nil
}

func openVoiceInput(path string) (io.Reader, func(), error) {
	if path == "-" || path == "" {
		return os.Stdin, func() {}, nil
	}
	f, err := os.Open(path) //nolint:gosec // user-chosen audio file
	if err != nil {
		return nil, nil, fmt.Errorf("opening audio input: %w", err)
	}
	return f, func() { _ = f.Close() }, nil
}

func openVoiceOutput(path string) (io.Writer, func(), error) {
	if path == "-" || path == "" {
		return os.Stdout, func() {}, nil
	}
	f, err := os.Create(path) //nolint:gosec // user-chosen audio file
	if err != nil {
		return nil, nil, fmt.Errorf("creating audio output: %w", err)
	}
	return f, func() { _ = f.Close() }, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
