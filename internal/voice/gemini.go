package voice

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// GeminiDialer opens live audio sessions on the Gemini API.
type GeminiDialer struct {
	APIKey    string
	Model     string
	VoiceName string
}

// Dial connects a live session that answers in audio and transcribes both
// sides of the conversation.
func (d GeminiDialer) Dial(ctx context.Context, instruction string) (Session, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  d.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}

	cfg := &genai.LiveConnectConfig{
		ResponseModalities: []genai.Modality{genai.ModalityAudio},
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{Text: instruction}},
		},
		InputAudioTranscription:  &genai.AudioTranscriptionConfig{},
		OutputAudioTranscription: &genai.AudioTranscriptionConfig{},
		SpeechConfig: &genai.SpeechConfig{
			VoiceConfig: &genai.VoiceConfig{
				PrebuiltVoiceConfig: &genai.PrebuiltVoiceConfig{VoiceName: d.VoiceName},
			},
		},
	}

	sess, err := client.Live.Connect(ctx, d.Model, cfg)
	if err != nil {
		return nil, fmt.Errorf("connecting live session: %w", err)
	}
	return &geminiSession{sess: sess}, nil
}

type geminiSession struct {
	sess *genai.Session
}

func (s *geminiSession) SendAudio(pcm []byte) error {
	return s.sess.SendRealtimeInput(genai.LiveRealtimeInput{
		Audio: &genai.Blob{MIMEType: InputMIMEType, Data: pcm},
	})
}

func (s *geminiSession) Receive() (Message, error) {
	resp, err := s.sess.Receive()
	if err != nil {
		return Message{}, err
	}
	return fromServer(resp), nil
}

func (s *geminiSession) Close() error {
	return s.sess.Close()
}

func fromServer(resp *genai.LiveServerMessage) Message {
	var msg Message
	sc := resp.ServerContent
	if sc == nil {
		return msg
	}
	if sc.InputTranscription != nil {
		msg.InputText = sc.InputTranscription.Text
	}
	if sc.OutputTranscription != nil {
		msg.OutputText = sc.OutputTranscription.Text
	}
	if sc.ModelTurn != nil {
		for _, p := range sc.ModelTurn.Parts {
			if p != nil && p.InlineData != nil {
				msg.Audio = append(msg.Audio, p.InlineData.Data...)
			}
		}
	}
	msg.TurnComplete = sc.TurnComplete
	msg.Interrupted = sc.Interrupted
	return msg
}
