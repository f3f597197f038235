package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/jwebster45206/gatebound/pkg/apperr"
	"github.com/jwebster45206/gatebound/pkg/prompts"
	"github.com/jwebster45206/gatebound/pkg/textfilter"
)

// Guarded wraps the providers so callers never see a provider error. Each
// call runs under its own timeout; failures, timeouts and malformed replies
// become fallback values and are logged. A nil provider always falls back.
type Guarded struct {
	Dialogue DialogueProvider
	Image    ImageProvider
	Voice    VoiceProvider
	Speech   SpeechToTextProvider

	timeout time.Duration
	filter  *textfilter.Filter
	logger  *slog.Logger
}

func NewGuarded(timeout time.Duration, logger *slog.Logger) *Guarded {
	return &Guarded{timeout: timeout, logger: logger}
}

// WithOpenAI routes every capability through one OpenAI service.
func (g *Guarded) WithOpenAI(o *OpenAIService) *Guarded {
	g.Dialogue, g.Image, g.Voice, g.Speech = o, o, o, o
	return g
}

// WithFilter softens provider replies. A nil filter leaves them untouched.
func (g *Guarded) WithFilter(f *textfilter.Filter) *Guarded {
	g.filter = f
	return g
}

func (g *Guarded) fail(capability string, err error) {
	g.logger.Warn("Provider call failed, using fallback",
		"capability", capability,
		"code", apperr.CodeProviderFailure,
		"error", err)
}

func (g *Guarded) bounded(ctx context.Context) (context.Context, context.CancelFunc) {
	if g.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, g.timeout)
}

// Respond never fails. Fallback replies carry no delta and Fallback=true.
func (g *Guarded) Respond(ctx context.Context, req DialogueRequest) *DialogueReply {
	fallback := &DialogueReply{
		Text:       prompts.FallbackReply(req.Companion),
		Expression: "neutral",
		Fallback:   true,
	}
	if g.Dialogue == nil {
		return fallback
	}
	ctx, cancel := g.bounded(ctx)
	defer cancel()

	reply, err := g.Dialogue.Respond(ctx, req)
	if err == nil && (reply == nil || reply.Text == "") {
		err = apperr.New(apperr.CodeProviderFailure, "empty dialogue reply")
	}
	if err != nil {
		g.fail("dialogue", err)
		return fallback
	}
	if g.filter.Contains(reply.Text) {
		g.logger.Debug("Softened dialogue reply", "companion", req.Companion)
		reply.Text = g.filter.Clean(reply.Text)
	}
	return reply
}

// Generate returns an empty URL on failure.
func (g *Guarded) Generate(ctx context.Context, d ImageDescriptor) string {
	if g.Image == nil {
		return ""
	}
	ctx, cancel := g.bounded(ctx)
	defer cancel()

	url, err := g.Image.Generate(ctx, d)
	if err != nil {
		g.fail("image", err)
		return ""
	}
	return url
}

// Synthesize returns nil audio on failure.
func (g *Guarded) Synthesize(ctx context.Context, text, speakerID string) []byte {
	if g.Voice == nil || text == "" {
		return nil
	}
	ctx, cancel := g.bounded(ctx)
	defer cancel()

	audio, err := g.Voice.Synthesize(ctx, text, speakerID)
	if err != nil {
		g.fail("voice", err)
		return nil
	}
	return audio
}

// Transcribe returns an empty transcript on failure.
func (g *Guarded) Transcribe(ctx context.Context, audio []byte) string {
	if g.Speech == nil || len(audio) == 0 {
		return ""
	}
	ctx, cancel := g.bounded(ctx)
	defer cancel()

	text, err := g.Speech.Transcribe(ctx, audio)
	if err != nil {
		g.fail("speech_to_text", err)
		return ""
	}
	return text
}
