package services

import (
	"context"
	"sync"
)

// MockDialogue is a mock implementation of DialogueProvider for testing
type MockDialogue struct {
	RespondFunc func(ctx context.Context, req DialogueRequest) (*DialogueReply, error)

	mu    sync.Mutex
	Calls []DialogueRequest
}

func (m *MockDialogue) Respond(ctx context.Context, req DialogueRequest) (*DialogueReply, error) {
	m.mu.Lock()
	m.Calls = append(m.Calls, req)
	m.mu.Unlock()
	if m.RespondFunc != nil {
		return m.RespondFunc(ctx, req)
	}
	return &DialogueReply{Text: "I'm right here.", Expression: "smile"}, nil
}

// CallCount returns the number of Respond calls.
func (m *MockDialogue) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}

// MockImage is a mock implementation of ImageProvider for testing
type MockImage struct {
	GenerateFunc func(ctx context.Context, d ImageDescriptor) (string, error)

	mu    sync.Mutex
	Calls []ImageDescriptor
}

func (m *MockImage) Generate(ctx context.Context, d ImageDescriptor) (string, error) {
	m.mu.Lock()
	m.Calls = append(m.Calls, d)
	m.mu.Unlock()
	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, d)
	}
	return "https://images.test/" + d.Scene + ".png", nil
}

func (m *MockImage) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}

// MockVoice is a mock implementation of VoiceProvider for testing
type MockVoice struct {
	SynthesizeFunc func(ctx context.Context, text, speakerID string) ([]byte, error)

	mu    sync.Mutex
	Calls []string
}

func (m *MockVoice) Synthesize(ctx context.Context, text, speakerID string) ([]byte, error) {
	m.mu.Lock()
	m.Calls = append(m.Calls, speakerID+":"+text)
	m.mu.Unlock()
	if m.SynthesizeFunc != nil {
		return m.SynthesizeFunc(ctx, text, speakerID)
	}
	return []byte("ID3-mock-audio"), nil
}

func (m *MockVoice) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}

// MockSpeech is a mock implementation of SpeechToTextProvider for testing
type MockSpeech struct {
	TranscribeFunc func(ctx context.Context, audio []byte) (string, error)

	mu    sync.Mutex
	calls int
}

func (m *MockSpeech) Transcribe(ctx context.Context, audio []byte) (string, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	if m.TranscribeFunc != nil {
		return m.TranscribeFunc(ctx, audio)
	}
	return "hello there", nil
}

func (m *MockSpeech) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}
