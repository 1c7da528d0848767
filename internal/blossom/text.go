package blossom

import (
	"context"
	"os"

	"github.com/sakura-stack/sakura-tree/internal/items"
	"github.com/sakura-stack/sakura-tree/internal/value"
)

// TextWriteBlossom writes text to a file, replacing its content.
type TextWriteBlossom struct {
	filePath string
	text     string
}

// NewTextWriteFactory returns a factory for text/write blossoms.
func NewTextWriteFactory() Factory {
	return func() Blossom { return &TextWriteBlossom{} }
}

func (b *TextWriteBlossom) RequiredKeys() Schema {
	return Schema{
		"file_path": true,
		"text":      true,
	}
}

func (b *TextWriteBlossom) HasOutput() bool { return false }

func (b *TextWriteBlossom) Init(ctx context.Context, item *items.Blossom) {
	b.filePath, _ = inputString(item, "file_path")
	b.text, _ = inputString(item, "text")
	if b.filePath == "" {
		failInit(item, "file_path is empty")
		return
	}
	item.Success = true
}

func (b *TextWriteBlossom) PreCheck(ctx context.Context, item *items.Blossom) {
	// Skip when the file already holds exactly the desired content.
	data, err := os.ReadFile(b.filePath)
	if err == nil && string(data) == b.text {
		item.Skip = true
	}
	item.Success = true
}

func (b *TextWriteBlossom) Run(ctx context.Context, item *items.Blossom) {
	if err := os.WriteFile(b.filePath, []byte(b.text), 0644); err != nil {
		item.Success = false
		item.Message = "failed to write file " + b.filePath + ": " + err.Error()
		return
	}
	item.Success = true
}

func (b *TextWriteBlossom) PostCheck(ctx context.Context, item *items.Blossom) {
	data, err := os.ReadFile(b.filePath)
	if err != nil || string(data) != b.text {
		item.Success = false
		item.Message = "written file does not hold the expected content"
		return
	}
	item.Success = true
}

func (b *TextWriteBlossom) Close(ctx context.Context, item *items.Blossom) {
	item.Success = true
}

// TextAppendBlossom appends text to an existing file.
type TextAppendBlossom struct {
	filePath string
	text     string
}

// NewTextAppendFactory returns a factory for text/append blossoms.
func NewTextAppendFactory() Factory {
	return func() Blossom { return &TextAppendBlossom{} }
}

func (b *TextAppendBlossom) RequiredKeys() Schema {
	return Schema{
		"file_path": true,
		"text":      true,
	}
}

func (b *TextAppendBlossom) HasOutput() bool { return false }

func (b *TextAppendBlossom) Init(ctx context.Context, item *items.Blossom) {
	b.filePath, _ = inputString(item, "file_path")
	b.text, _ = inputString(item, "text")
	if b.filePath == "" {
		failInit(item, "file_path is empty")
		return
	}
	item.Success = true
}

func (b *TextAppendBlossom) PreCheck(ctx context.Context, item *items.Blossom) {
	if _, err := os.Stat(b.filePath); err != nil {
		item.Success = false
		item.Message = "path " + b.filePath + " does not exist"
		return
	}
	item.Success = true
}

func (b *TextAppendBlossom) Run(ctx context.Context, item *items.Blossom) {
	f, err := os.OpenFile(b.filePath, os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		item.Success = false
		item.Message = "failed to open file " + b.filePath + ": " + err.Error()
		return
	}
	defer f.Close()

	if _, err := f.WriteString(b.text); err != nil {
		item.Success = false
		item.Message = "failed to append to file " + b.filePath + ": " + err.Error()
		return
	}
	item.Success = true
}

func (b *TextAppendBlossom) PostCheck(ctx context.Context, item *items.Blossom) {
	item.Success = true
}

func (b *TextAppendBlossom) Close(ctx context.Context, item *items.Blossom) {
	item.Success = true
}

// TextReadBlossom reads a file; the content becomes the blossom
// output.
type TextReadBlossom struct {
	filePath string
}

// NewTextReadFactory returns a factory for text/read blossoms.
func NewTextReadFactory() Factory {
	return func() Blossom { return &TextReadBlossom{} }
}

func (b *TextReadBlossom) RequiredKeys() Schema {
	return Schema{"file_path": true}
}

func (b *TextReadBlossom) HasOutput() bool { return true }

func (b *TextReadBlossom) Init(ctx context.Context, item *items.Blossom) {
	b.filePath, _ = inputString(item, "file_path")
	if b.filePath == "" {
		failInit(item, "file_path is empty")
		return
	}
	item.Success = true
}

func (b *TextReadBlossom) PreCheck(ctx context.Context, item *items.Blossom) {
	info, err := os.Stat(b.filePath)
	if err != nil {
		item.Success = false
		item.Message = "path " + b.filePath + " does not exist"
		return
	}
	if info.IsDir() {
		item.Success = false
		item.Message = "path " + b.filePath + " is a directory"
		return
	}
	item.Success = true
}

func (b *TextReadBlossom) Run(ctx context.Context, item *items.Blossom) {
	data, err := os.ReadFile(b.filePath)
	if err != nil {
		item.Success = false
		item.Message = "failed to read file " + b.filePath + ": " + err.Error()
		return
	}
	item.Output = value.String(string(data))
	item.Success = true
}

func (b *TextReadBlossom) PostCheck(ctx context.Context, item *items.Blossom) {
	item.Success = true
}

func (b *TextReadBlossom) Close(ctx context.Context, item *items.Blossom) {
	item.Success = true
}
