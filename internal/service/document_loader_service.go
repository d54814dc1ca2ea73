package service

import (
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"rag-chat-be/internal/pkg/serverutils"
)

type IDocumentLoaderService interface {
	Load(fileName string, data []byte) (title string, content string, err error)
}

type documentLoaderService struct{}

func NewDocumentLoaderService() IDocumentLoaderService {
	return &documentLoaderService{}
}

var loadableExtensions = map[string]bool{
	".txt":      true,
	".md":       true,
	".markdown": true,
}

// Load extracts plain text from an uploaded file. Only text formats are
// accepted; binary uploads are rejected before they reach the index.
func (s *documentLoaderService) Load(fileName string, data []byte) (string, string, error) {
	ext := strings.ToLower(filepath.Ext(fileName))
	if !loadableExtensions[ext] {
		return "", "", serverutils.NewValidationError(fmt.Sprintf("unsupported file type '%s'", ext))
	}

	// Strip UTF-8 BOM if present.
	data = []byte(strings.TrimPrefix(string(data), "\ufeff"))
	if !utf8.Valid(data) {
		return "", "", serverutils.NewValidationError("file content is not valid UTF-8 text")
	}

	content := strings.TrimSpace(string(data))
	if content == "" {
		return "", "", serverutils.NewValidationError("file contains no text")
	}

	title := strings.TrimSuffix(filepath.Base(fileName), ext)
	return title, content, nil
}
