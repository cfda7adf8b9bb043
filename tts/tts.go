// Package tts synthesizes spoken audio for assistant replies using the
// Gemini TTS API. Voice responses are optional: when no GEMINI_API_KEY is
// configured the service degrades to text-only replies.
package tts

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

const (
	DefaultModel = "gemini-2.5-flash-preview-tts"
	DefaultVoice = "Kore"
)

// Audio is one synthesized reply. The API returns raw PCM (audio/L16); the
// client wraps it for playback.
type Audio struct {
	Data     []byte
	MimeType string
}

// Synthesizer converts reply text to speech.
type Synthesizer struct {
	client *genai.Client
	Model  string
	Voice  string
}

// New creates a Synthesizer with the default model and voice.
func New(ctx context.Context, apiKey string) (*Synthesizer, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create TTS client: %w", err)
	}

	return &Synthesizer{
		client: client,
		Model:  DefaultModel,
		Voice:  DefaultVoice,
	}, nil
}

// Synthesize generates speech for the given text.
func (s *Synthesizer) Synthesize(ctx context.Context, text string) (*Audio, error) {
	config := &genai.GenerateContentConfig{
		ResponseModalities: []string{"AUDIO"},
		SpeechConfig: &genai.SpeechConfig{
			VoiceConfig: &genai.VoiceConfig{
				PrebuiltVoiceConfig: &genai.PrebuiltVoiceConfig{
					VoiceName: s.Voice,
				},
			},
		},
	}

	resp, err := s.client.Models.GenerateContent(ctx, s.Model, genai.Text(text), config)
	if err != nil {
		return nil, fmt.Errorf("TTS request failed: %w", err)
	}

	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if part.InlineData != nil && len(part.InlineData.Data) > 0 {
				return &Audio{
					Data:     part.InlineData.Data,
					MimeType: part.InlineData.MIMEType,
				}, nil
			}
		}
	}

	return nil, fmt.Errorf("TTS response contained no audio data")
}
