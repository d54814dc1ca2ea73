package controller

import (
	"bufio"
	"encoding/json"
	"fmt"

	"rag-chat-be/pkg/store"
)

// The stream is wire-compatible with the OpenAI chat completion chunk
// format, with auxiliary payloads carried on named SSE events.

type sseChunkDelta struct {
	Content string `json:"content"`
}

type sseChunkChoice struct {
	Index        int           `json:"index"`
	Delta        sseChunkDelta `json:"delta"`
	FinishReason *string       `json:"finish_reason"`
}

type sseChunk struct {
	Id      string           `json:"id"`
	Object  string           `json:"object"`
	Created int64            `json:"created"`
	Model   string           `json:"model"`
	Choices []sseChunkChoice `json:"choices"`
}

func writeContentEvent(w *bufio.Writer, id, model string, created int64, content string) error {
	chunk := sseChunk{
		Id:      id,
		Object:  "chat.completion.chunk",
		Created: created,
		Model:   model,
		Choices: []sseChunkChoice{{Delta: sseChunkDelta{Content: content}}},
	}
	payload, err := json.Marshal(chunk)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "data: %s\n\n", payload)
	return err
}

func writeSourcesEvent(w *bufio.Writer, sources []store.Source) error {
	payload, err := json.Marshal(sources)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: sources\ndata: %s\n\n", payload)
	return err
}

func writeErrorEvent(w *bufio.Writer, message string) error {
	payload, err := json.Marshal(map[string]string{"message": message})
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: error\ndata: %s\n\n", payload)
	return err
}

func writeDoneEvent(w *bufio.Writer) error {
	_, err := fmt.Fprint(w, "data: [DONE]\n\n")
	return err
}
