package service

import (
	"context"
	"io"
	"strings"
	"testing"

	"rag-chat-be/internal/dto"
	"rag-chat-be/internal/pkg/serverutils"
	"rag-chat-be/pkg/llm"
	"rag-chat-be/pkg/rag/prompt"
	"rag-chat-be/pkg/rag/stream"
	"rag-chat-be/pkg/store"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLLM struct {
	lastMessages []llm.Message
	lastOptions  []llm.Option
	response     string
	streamBody   string
}

func (f *fakeLLM) Chat(ctx context.Context, history []llm.Message, opts ...llm.Option) (string, error) {
	f.lastMessages = history
	f.lastOptions = opts
	return f.response, nil
}

func (f *fakeLLM) ChatStream(ctx context.Context, history []llm.Message, opts ...llm.Option) (*llm.UpstreamStream, error) {
	f.lastMessages = history
	f.lastOptions = opts
	return llm.NewUpstreamStream(io.NopCloser(strings.NewReader(f.streamBody))), nil
}

type fakeRetriever struct {
	results []store.RetrievedResult
	queries []string
}

func (f *fakeRetriever) Retrieve(ctx context.Context, query string, filter map[string]string) []store.RetrievedResult {
	f.queries = append(f.queries, query)
	return f.results
}

func newTestChatService(provider *fakeLLM, retriever *fakeRetriever) IChatService {
	return NewChatService(provider, retriever, prompt.NewAssembler(), stream.NewBridge(nil), nil)
}

func userMessage(content string) dto.ChatMessage {
	return dto.ChatMessage{Role: "user", Content: content}
}

func TestValidateMessages(t *testing.T) {
	tests := []struct {
		name     string
		messages []dto.ChatMessage
		wantErr  bool
	}{
		{"empty conversation", nil, true},
		{"missing content", []dto.ChatMessage{{Role: "user"}}, true},
		{"missing role", []dto.ChatMessage{{Content: "hi"}}, true},
		{"unknown role", []dto.ChatMessage{{Role: "tool", Content: "hi"}}, true},
		{"valid", []dto.ChatMessage{userMessage("hi")}, false},
		{"valid multi", []dto.ChatMessage{
			{Role: "system", Content: "persona"},
			userMessage("hi"),
			{Role: "assistant", Content: "hello"},
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateMessages(tt.messages)
			if tt.wantErr {
				var validationErr *serverutils.ValidationError
				assert.ErrorAs(t, err, &validationErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestExtractLastUserMessage(t *testing.T) {
	query, err := extractLastUserMessage([]dto.ChatMessage{
		userMessage("first"),
		{Role: "assistant", Content: "reply"},
		userMessage("second"),
	})
	require.NoError(t, err)
	assert.Equal(t, "second", query)

	_, err = extractLastUserMessage([]dto.ChatMessage{{Role: "assistant", Content: "reply"}})
	var validationErr *serverutils.ValidationError
	assert.ErrorAs(t, err, &validationErr)
}

func TestChatInjectsDefaultSystemMessage(t *testing.T) {
	provider := &fakeLLM{response: "hello"}
	svc := newTestChatService(provider, &fakeRetriever{})

	res, err := svc.Chat(context.Background(), &dto.ChatRequest{Messages: []dto.ChatMessage{userMessage("hi")}})

	require.NoError(t, err)
	assert.Equal(t, "hello", res.Response)
	require.Len(t, provider.lastMessages, 2)
	assert.Equal(t, llm.RoleSystem, provider.lastMessages[0].Role)
	assert.Equal(t, "hi", provider.lastMessages[1].Content)
}

func TestChatAppliesConfiguredOptions(t *testing.T) {
	provider := &fakeLLM{response: "ok"}
	svc := NewChatService(
		provider,
		&fakeRetriever{},
		prompt.NewAssembler(),
		stream.NewBridge(nil),
		nil,
		llm.WithTemperature(0.2),
	)

	_, err := svc.Chat(context.Background(), &dto.ChatRequest{Messages: []dto.ChatMessage{userMessage("hi")}})
	require.NoError(t, err)

	var opts llm.Options
	for _, opt := range provider.lastOptions {
		opt(&opts)
	}
	assert.Equal(t, 0.2, opts.Temperature)
}

func TestChatRejectsInvalidConversation(t *testing.T) {
	svc := newTestChatService(&fakeLLM{}, &fakeRetriever{})

	_, err := svc.Chat(context.Background(), &dto.ChatRequest{})

	var validationErr *serverutils.ValidationError
	assert.ErrorAs(t, err, &validationErr)
}

func TestRagChatUsesLastUserQueryAndReturnsSources(t *testing.T) {
	retriever := &fakeRetriever{results: []store.RetrievedResult{{
		ChunkId:    uuid.New(),
		DocumentId: uuid.New(),
		Content:    "Go is a language",
		Score:      0.9,
		Backend:    store.BackendVector,
		Metadata:   map[string]string{"title": "Go Guide", "source": "guide.md"},
	}}}
	provider := &fakeLLM{response: "Go is a language."}
	svc := newTestChatService(provider, retriever)

	res, err := svc.RagChat(context.Background(), &dto.ChatRequest{Messages: []dto.ChatMessage{
		userMessage("what is go?"),
		{Role: "assistant", Content: "a question about Go"},
		userMessage("tell me more"),
	}})

	require.NoError(t, err)
	assert.Equal(t, []string{"tell me more"}, retriever.queries)
	require.Len(t, res.Sources, 1)
	assert.Equal(t, "Go Guide", res.Sources[0].Title)

	// Context is injected as the second system message.
	require.GreaterOrEqual(t, len(provider.lastMessages), 2)
	assert.Equal(t, llm.RoleSystem, provider.lastMessages[1].Role)
	assert.Contains(t, provider.lastMessages[1].Content, "Document[1]: Go is a language")
}

func TestRagChatEmptyRetrievalStillAnswers(t *testing.T) {
	provider := &fakeLLM{response: "I could not find an answer."}
	svc := newTestChatService(provider, &fakeRetriever{})

	res, err := svc.RagChat(context.Background(), &dto.ChatRequest{Messages: []dto.ChatMessage{userMessage("anything?")}})

	require.NoError(t, err)
	assert.Empty(t, res.Sources)
	// The model is told nothing was found instead of being handed no context.
	require.GreaterOrEqual(t, len(provider.lastMessages), 2)
	assert.Contains(t, provider.lastMessages[1].Content, "could not find an answer")
}

func TestRagChatStreamEmptyRetrievalStillEmitsSources(t *testing.T) {
	provider := &fakeLLM{streamBody: strings.Join([]string{
		`data: {"choices":[{"delta":{"content":"nothing found"}}]}`,
		`data: [DONE]`,
	}, "\n")}
	svc := newTestChatService(provider, &fakeRetriever{})

	ch, err := svc.RagChatStream(context.Background(), &dto.ChatRequest{Messages: []dto.ChatMessage{userMessage("anything?")}})
	require.NoError(t, err)

	var events []stream.Event
	for event := range ch {
		events = append(events, event)
	}

	// Citations were requested, so the empty list is still announced.
	require.Len(t, events, 3)
	assert.Equal(t, stream.EventSources, events[1].Type)
	assert.Empty(t, events[1].Sources)
	assert.Equal(t, stream.EventDone, events[2].Type)
}

func TestRagChatStreamEmitsSourcesAndDone(t *testing.T) {
	retriever := &fakeRetriever{results: []store.RetrievedResult{{
		ChunkId:    uuid.New(),
		DocumentId: uuid.New(),
		Content:    "chunk",
		Score:      0.7,
		Backend:    store.BackendVector,
		Metadata:   map[string]string{"title": "Doc"},
	}}}
	provider := &fakeLLM{streamBody: strings.Join([]string{
		`data: {"choices":[{"delta":{"content":"Hel"}}]}`,
		`data: {"choices":[{"delta":{"content":"lo"}}]}`,
		`data: [DONE]`,
	}, "\n")}
	svc := newTestChatService(provider, retriever)

	ch, err := svc.RagChatStream(context.Background(), &dto.ChatRequest{Messages: []dto.ChatMessage{userMessage("hi")}})
	require.NoError(t, err)

	var events []stream.Event
	for event := range ch {
		events = append(events, event)
	}

	require.Len(t, events, 4)
	assert.Equal(t, stream.EventContent, events[0].Type)
	assert.Equal(t, stream.EventSources, events[2].Type)
	assert.Equal(t, "Doc", events[2].Sources[0].Title)
	assert.Equal(t, stream.EventDone, events[3].Type)
}
