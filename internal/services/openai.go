package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"

	"github.com/jwebster45206/gatebound/pkg/prompts"
	"github.com/jwebster45206/gatebound/pkg/state"
)

// OpenAIConfig selects models and limits for the OpenAI adapters.
type OpenAIConfig struct {
	APIKey          string
	BaseURL         string // Optional, for compatible gateways
	DialogueModel   string
	ImageModel      string
	VoiceModel      string
	TranscribeModel string
	RequestsPerSec  float64
}

// OpenAIService implements every provider interface on the OpenAI API.
// All calls share one rate limiter.
type OpenAIService struct {
	client  *openai.Client
	cfg     OpenAIConfig
	limiter *rate.Limiter
	logger  *slog.Logger
}

var (
	_ DialogueProvider     = (*OpenAIService)(nil)
	_ ImageProvider        = (*OpenAIService)(nil)
	_ VoiceProvider        = (*OpenAIService)(nil)
	_ SpeechToTextProvider = (*OpenAIService)(nil)
)

func NewOpenAIService(cfg OpenAIConfig, logger *slog.Logger) *OpenAIService {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	rps := cfg.RequestsPerSec
	if rps <= 0 {
		rps = 2
	}
	return &OpenAIService{
		client:  openai.NewClientWithConfig(clientCfg),
		cfg:     cfg,
		limiter: rate.NewLimiter(rate.Limit(rps), max(1, int(rps))),
		logger:  logger,
	}
}

func (o *OpenAIService) wait(ctx context.Context) error {
	if err := o.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit: %w", err)
	}
	return nil
}

// dialogueJSON is the JSON object the dialogue model is asked to return.
type dialogueJSON struct {
	Reply      string `json:"reply"`
	Expression string `json:"expression"`
	state.DialogueDelta
}

func (o *OpenAIService) Respond(ctx context.Context, req DialogueRequest) (*DialogueReply, error) {
	messages, err := prompts.New().
		WithGameState(req.State).
		WithCompanion(req.Companion).
		WithPlayer(req.Player).
		WithGuidance(req.Guidance).
		WithContext(req.Context).
		WithUserMessage(req.Message).
		Build()
	if err != nil {
		return nil, err
	}

	msgs := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		msgs = append(msgs, openai.ChatCompletionMessage{Role: m.Role, Content: m.Content})
	}

	if err := o.wait(ctx); err != nil {
		return nil, err
	}
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       o.cfg.DialogueModel,
		Messages:    msgs,
		Temperature: 0.8,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no choices returned from API")
	}
	return parseDialogue(resp.Choices[0].Message.Content)
}

// parseDialogue decodes the model's JSON reply. Empty replies are malformed.
func parseDialogue(content string) (*DialogueReply, error) {
	var out dialogueJSON
	if err := json.Unmarshal([]byte(strings.TrimSpace(content)), &out); err != nil {
		return nil, fmt.Errorf("malformed dialogue reply: %w", err)
	}
	if strings.TrimSpace(out.Reply) == "" {
		return nil, fmt.Errorf("malformed dialogue reply: empty text")
	}
	reply := &DialogueReply{
		Text:       strings.TrimSpace(out.Reply),
		Expression: prompts.NormalizeExpression(out.Expression),
	}
	if !out.DialogueDelta.IsEmpty() {
		delta := out.DialogueDelta
		reply.Delta = &delta
	}
	return reply, nil
}

func (o *OpenAIService) Generate(ctx context.Context, d ImageDescriptor) (string, error) {
	if err := o.wait(ctx); err != nil {
		return "", err
	}
	resp, err := o.client.CreateImage(ctx, openai.ImageRequest{
		Prompt:         prompts.ScenePrompt(d.Location, d.Narration, d.TimeOfDay, d.Companion, d.Expression),
		Model:          o.cfg.ImageModel,
		N:              1,
		Size:           openai.CreateImageSize1024x1024,
		ResponseFormat: openai.CreateImageResponseFormatURL,
	})
	if err != nil {
		return "", fmt.Errorf("create image: %w", err)
	}
	if len(resp.Data) == 0 || resp.Data[0].URL == "" {
		return "", fmt.Errorf("no image returned from API")
	}
	return resp.Data[0].URL, nil
}

// speakerVoices maps speaker ids to synthesis voices.
var speakerVoices = map[string]openai.SpeechVoice{
	"companion": openai.VoiceNova,
	"narrator":  openai.VoiceOnyx,
	"system":    openai.VoiceAlloy,
}

func (o *OpenAIService) Synthesize(ctx context.Context, text, speakerID string) ([]byte, error) {
	voice, ok := speakerVoices[speakerID]
	if !ok {
		voice = openai.VoiceAlloy
	}
	if err := o.wait(ctx); err != nil {
		return nil, err
	}
	resp, err := o.client.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model:          openai.SpeechModel(o.cfg.VoiceModel),
		Input:          text,
		Voice:          voice,
		ResponseFormat: openai.SpeechResponseFormatMp3,
	})
	if err != nil {
		return nil, fmt.Errorf("create speech: %w", err)
	}
	defer resp.Close()
	audio, err := io.ReadAll(resp)
	if err != nil {
		return nil, fmt.Errorf("read speech: %w", err)
	}
	if len(audio) == 0 {
		return nil, fmt.Errorf("empty audio returned from API")
	}
	return audio, nil
}

func (o *OpenAIService) Transcribe(ctx context.Context, audio []byte) (string, error) {
	if len(audio) == 0 {
		return "", fmt.Errorf("no audio provided")
	}
	if err := o.wait(ctx); err != nil {
		return "", err
	}
	resp, err := o.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    o.cfg.TranscribeModel,
		FilePath: "speech.webm",
		Reader:   bytes.NewReader(audio),
	})
	if err != nil {
		return "", fmt.Errorf("transcribe: %w", err)
	}
	return strings.TrimSpace(resp.Text), nil
}
