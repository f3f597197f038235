package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChatRequest_Validate(t *testing.T) {
	assert.Error(t, (&ChatRequest{Message: "   "}).Validate())
	assert.NoError(t, (&ChatRequest{Message: "hi"}).Validate())
}

func TestTail(t *testing.T) {
	history := []ChatMessage{{Content: "a"}, {Content: "b"}, {Content: "c"}}

	assert.Len(t, Tail(history, 2), 2)
	assert.Equal(t, "b", Tail(history, 2)[0].Content)
	assert.Len(t, Tail(history, 10), 3)
	assert.Len(t, Tail(history, 0), 3)
}
