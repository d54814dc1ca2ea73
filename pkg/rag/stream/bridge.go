package stream

import (
	"bufio"
	"context"
	"encoding/json"
	"strings"

	"rag-chat-be/internal/pkg/logger"
	"rag-chat-be/pkg/llm"
	"rag-chat-be/pkg/store"
)

// doneSentinel terminates SSE-style upstreams.
const doneSentinel = "[DONE]"

// maxRecordSize bounds a single upstream record. Content deltas are small;
// this guards against a misbehaving upstream flooding one line.
const maxRecordSize = 1024 * 1024

type state int

const (
	stateIdle state = iota
	stateStreaming
	stateCompleting
	stateFailing
	stateTerminated
)

// upstreamRecord covers both OpenAI chat chunks and Ollama ndjson records.
type upstreamRecord struct {
	Content string          `json:"content"`
	Done    bool            `json:"done"`
	Error   json.RawMessage `json:"error"`
	Message *struct {
		Content string `json:"content"`
	} `json:"message"`
	Choices []struct {
		Delta *struct {
			Content string `json:"content"`
		} `json:"delta"`
		Message *struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason *string `json:"finish_reason"`
	} `json:"choices"`
}

func (r *upstreamRecord) content() string {
	if len(r.Choices) > 0 {
		if r.Choices[0].Delta != nil && r.Choices[0].Delta.Content != "" {
			return r.Choices[0].Delta.Content
		}
		if r.Choices[0].Message != nil && r.Choices[0].Message.Content != "" {
			return r.Choices[0].Message.Content
		}
	}
	if r.Message != nil && r.Message.Content != "" {
		return r.Message.Content
	}
	return r.Content
}

func (r *upstreamRecord) failed() bool {
	return len(r.Error) > 0 && string(r.Error) != "null"
}

func (r *upstreamRecord) finished() bool {
	if r.Done {
		return true
	}
	for _, c := range r.Choices {
		if c.FinishReason != nil && *c.FinishReason != "" {
			return true
		}
	}
	return false
}

// Bridge converts one upstream token stream into a channel of downstream
// events. Single producer, single consumer; the channel is unbuffered so
// the bridge never reads ahead of the consumer by more than one record.
type Bridge struct {
	logger logger.ILogger
}

func NewBridge(log logger.ILogger) *Bridge {
	if log == nil {
		log = logger.NopLogger{}
	}
	return &Bridge{logger: log}
}

// Run consumes the upstream until it ends, fails, or ctx is cancelled.
// A non-nil sources slice means the caller wants citations: it is emitted
// once before Done on normal completion, even when empty, so consumers can
// tell "no documents found" apart from "citations not requested". The
// returned channel is closed after the single Done event.
func (b *Bridge) Run(ctx context.Context, upstream *llm.UpstreamStream, sources []store.Source) <-chan Event {
	out := make(chan Event)
	go b.run(ctx, upstream, sources, out)
	return out
}

func (b *Bridge) run(ctx context.Context, upstream *llm.UpstreamStream, sources []store.Source, out chan Event) {
	defer close(out)
	defer upstream.Close()

	current := stateIdle
	var failure string

	scanner := bufio.NewScanner(upstream.Body)
	scanner.Buffer(make([]byte, 64*1024), maxRecordSize)

	current = stateStreaming
	for current == stateStreaming {
		if ctx.Err() != nil {
			current = stateTerminated
			break
		}
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				b.logger.Error("stream", "Upstream read failed", map[string]interface{}{
					"error": err.Error(),
				})
				failure = "generation backend connection lost"
				current = stateFailing
			} else {
				current = stateCompleting
			}
			break
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		line = strings.TrimPrefix(strings.TrimPrefix(line, "data: "), "data:")
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if line == doneSentinel {
			current = stateCompleting
			break
		}

		var record upstreamRecord
		if err := json.Unmarshal([]byte(line), &record); err != nil {
			// Not JSON. Forward the text so no upstream output is lost.
			if !b.emit(ctx, out, Event{Type: EventContent, Content: line, Raw: true}) {
				current = stateTerminated
			}
			continue
		}

		if record.failed() {
			b.logger.Error("stream", "Upstream reported an error", map[string]interface{}{
				"error": string(record.Error),
			})
			failure = "generation failed"
			current = stateFailing
			break
		}

		if content := record.content(); content != "" {
			if !b.emit(ctx, out, Event{Type: EventContent, Content: content}) {
				current = stateTerminated
				break
			}
		}

		if record.finished() {
			current = stateCompleting
		}
	}

	switch current {
	case stateCompleting:
		if sources != nil {
			if !b.emit(ctx, out, Event{Type: EventSources, Sources: sources}) {
				break
			}
		}
	case stateFailing:
		b.emit(ctx, out, Event{Type: EventError, Err: failure})
	}

	// Consumers must drain the channel until it closes, so this send
	// cannot be lost even after cancellation.
	out <- Event{Type: EventDone}
}

// emit delivers one event unless the consumer is gone.
func (b *Bridge) emit(ctx context.Context, out chan Event, event Event) bool {
	select {
	case out <- event:
		return true
	case <-ctx.Done():
		return false
	}
}
