package chunker

import (
	"fmt"
	"strings"
	"testing"

	"rag-chat-be/pkg/store"

	"github.com/google/uuid"
)

func TestNewRejectsBadConfig(t *testing.T) {
	tests := []struct {
		name      string
		chunkSize int
		overlap   int
		wantErr   bool
	}{
		{"valid defaults", 1000, 200, false},
		{"zero overlap", 100, 0, false},
		{"zero chunk size", 0, 0, true},
		{"negative chunk size", -5, 0, true},
		{"negative overlap", 100, -1, true},
		{"overlap equals chunk size", 100, 100, true},
		{"overlap exceeds chunk size", 100, 150, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.chunkSize, tt.overlap)
			if (err != nil) != tt.wantErr {
				t.Errorf("New(%d, %d) error = %v, wantErr %v", tt.chunkSize, tt.overlap, err, tt.wantErr)
			}
		})
	}
}

func TestSplitTextEdgeCases(t *testing.T) {
	c, err := New(100, 20)
	if err != nil {
		t.Fatal(err)
	}

	if got := c.SplitText(""); len(got) != 0 {
		t.Errorf("empty content: got %d chunks, want 0", len(got))
	}

	short := "A short sentence."
	got := c.SplitText(short)
	if len(got) != 1 || got[0] != short {
		t.Errorf("short content: got %v, want exactly the input", got)
	}
}

func TestSplitTextPrefersSentenceBoundary(t *testing.T) {
	c, err := New(50, 10)
	if err != nil {
		t.Fatal(err)
	}

	// The period sits inside the look-back window of the first boundary, so
	// the first chunk must end just past it.
	content := strings.Repeat("a", 40) + "." + strings.Repeat("b", 60)
	chunks := c.SplitText(content)

	if len(chunks) < 2 {
		t.Fatalf("got %d chunks, want at least 2", len(chunks))
	}
	if !strings.HasSuffix(chunks[0], ".") {
		t.Errorf("first chunk %q does not end at the sentence boundary", chunks[0])
	}
	if len([]rune(chunks[0])) != 41 {
		t.Errorf("first chunk length = %d, want 41", len([]rune(chunks[0])))
	}
}

func TestSplitTextNoBoundaryInWindow(t *testing.T) {
	c, err := New(50, 10)
	if err != nil {
		t.Fatal(err)
	}

	// No terminator anywhere: every chunk except the last is cut exactly at
	// the size boundary.
	content := strings.Repeat("x", 120)
	chunks := c.SplitText(content)

	for i, ch := range chunks[:len(chunks)-1] {
		if len([]rune(ch)) != 50 {
			t.Errorf("chunk %d length = %d, want 50", i, len([]rune(ch)))
		}
	}
}

func TestSplitTextSizeAndOverlapProperties(t *testing.T) {
	c, err := New(80, 15)
	if err != nil {
		t.Fatal(err)
	}

	var filler strings.Builder
	for i := 0; i < 12; i++ {
		fmt.Fprintf(&filler, "segment %02d without terminators ", i)
	}
	content := "Go is expressive, concise, clean, and efficient. Its concurrency mechanisms make it easy to write programs. " +
		"Go编译快速，同时拥有垃圾回收和运行时反射。它是一个快速的静态类型编译语言！感觉却像动态类型解释型语言。" +
		filler.String()
	chunks := c.SplitText(content)

	if len(chunks) < 3 {
		t.Fatalf("got %d chunks, want several", len(chunks))
	}

	runes := []rune(content)
	covered := 0
	prevStart := -1
	for i, ch := range chunks {
		cr := []rune(ch)
		if len(cr) > 80 {
			t.Errorf("chunk %d length = %d, exceeds chunk size", i, len(cr))
		}
		// Each chunk starts after the previous chunk's start and at or
		// before the previous chunk's end: strictly advancing, no gaps.
		found := -1
		for s := prevStart + 1; s+len(cr) <= len(runes); s++ {
			if string(runes[s:s+len(cr)]) == ch {
				found = s
				break
			}
		}
		if found == -1 {
			t.Fatalf("chunk %d is not a substring of the content after rune %d", i, prevStart)
		}
		if found > covered {
			t.Errorf("gap before chunk %d: starts at %d, coverage ended at %d", i, found, covered)
		}
		if found+len(cr) > covered {
			covered = found + len(cr)
		}
		prevStart = found
	}
	if covered != len(runes) {
		t.Errorf("chunks cover %d runes, content has %d", covered, len(runes))
	}
}

func TestSplitTextMixedLanguageExample(t *testing.T) {
	c, err := New(100, 20)
	if err != nil {
		t.Fatal(err)
	}

	// 260 mixed runes with sentence periods placed right at the size
	// boundaries: expect exactly three chunks of 100/100/100 runes with a
	// 20-rune overlap between neighbours.
	cycle := []rune("天气很好we like Go语言和检索系统")
	runes := make([]rune, 260)
	for i := range runes {
		runes[i] = cycle[i%len(cycle)]
	}
	runes[99] = '。'
	runes[179] = '。'
	content := string(runes)

	chunks := c.SplitText(content)
	if len(chunks) != 3 {
		t.Fatalf("got %d chunks, want 3", len(chunks))
	}
	for i, ch := range chunks {
		if n := len([]rune(ch)); n > 100 {
			t.Errorf("chunk %d length = %d, want <= 100", i, n)
		}
	}

	// The second chunk must begin inside the last 20 runes of the first.
	first := []rune(chunks[0])
	tail := string(first[len(first)-20:])
	if !strings.HasPrefix(chunks[1], tail) {
		t.Errorf("second chunk %q... does not start with first chunk's 20-rune tail %q", string([]rune(chunks[1])[:20]), tail)
	}
}

func TestSplitStampsDocumentAndOrder(t *testing.T) {
	c, err := New(30, 5)
	if err != nil {
		t.Fatal(err)
	}

	doc := store.Document{
		Id:       uuid.New(),
		Title:    "note",
		Content:  strings.Repeat("alpha beta gamma. ", 10),
		Metadata: map[string]string{"title": "note"},
	}
	chunks := c.Split(doc)

	if len(chunks) == 0 {
		t.Fatal("expected chunks")
	}
	for i, ch := range chunks {
		if ch.DocumentId != doc.Id {
			t.Errorf("chunk %d document id = %s, want %s", i, ch.DocumentId, doc.Id)
		}
		if ch.Index != i {
			t.Errorf("chunk %d index = %d", i, ch.Index)
		}
		if ch.Metadata["title"] != "note" {
			t.Errorf("chunk %d did not inherit document metadata", i)
		}
	}
}
