package blossom

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/sakura-stack/sakura-tree/internal/items"
)

// PathCopyBlossom copies a file to a destination path.
type PathCopyBlossom struct {
	sourcePath string
	destPath   string
}

// NewPathCopyFactory returns a factory for path/copy blossoms.
func NewPathCopyFactory() Factory {
	return func() Blossom { return &PathCopyBlossom{} }
}

func (b *PathCopyBlossom) RequiredKeys() Schema {
	return Schema{
		"source_path": true,
		"dest_path":   true,
	}
}

func (b *PathCopyBlossom) HasOutput() bool { return false }

func (b *PathCopyBlossom) Init(ctx context.Context, item *items.Blossom) {
	b.sourcePath, _ = inputString(item, "source_path")
	b.destPath, _ = inputString(item, "dest_path")
	if b.sourcePath == "" || b.destPath == "" {
		failInit(item, "source_path and dest_path must be set")
		return
	}
	item.Success = true
}

func (b *PathCopyBlossom) PreCheck(ctx context.Context, item *items.Blossom) {
	src, err := os.Stat(b.sourcePath)
	if err != nil {
		item.Success = false
		item.Message = "source-path " + b.sourcePath + " does not exist"
		return
	}

	// Skip when the destination already matches the source size.
	if dst, err := os.Stat(b.destPath); err == nil && dst.Size() == src.Size() {
		item.Skip = true
	}
	item.Success = true
}

func (b *PathCopyBlossom) Run(ctx context.Context, item *items.Blossom) {
	src, err := os.Open(b.sourcePath)
	if err != nil {
		item.Success = false
		item.Message = "failed to open source: " + err.Error()
		return
	}
	defer src.Close()

	if err := os.MkdirAll(filepath.Dir(b.destPath), 0755); err != nil {
		item.Success = false
		item.Message = "failed to create destination directory: " + err.Error()
		return
	}

	dst, err := os.Create(b.destPath)
	if err != nil {
		item.Success = false
		item.Message = "failed to create destination: " + err.Error()
		return
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		item.Success = false
		item.Message = "copy failed: " + err.Error()
		return
	}
	item.Success = true
}

func (b *PathCopyBlossom) PostCheck(ctx context.Context, item *items.Blossom) {
	if _, err := os.Stat(b.destPath); err != nil {
		item.Success = false
		item.Message = "destination " + b.destPath + " missing after copy"
		return
	}
	item.Success = true
}

func (b *PathCopyBlossom) Close(ctx context.Context, item *items.Blossom) {
	item.Success = true
}

// PathRenameBlossom renames (moves) a path.
type PathRenameBlossom struct {
	sourcePath string
	destPath   string
}

// NewPathRenameFactory returns a factory for path/rename blossoms.
func NewPathRenameFactory() Factory {
	return func() Blossom { return &PathRenameBlossom{} }
}

func (b *PathRenameBlossom) RequiredKeys() Schema {
	return Schema{
		"source_path": true,
		"dest_path":   true,
	}
}

func (b *PathRenameBlossom) HasOutput() bool { return false }

func (b *PathRenameBlossom) Init(ctx context.Context, item *items.Blossom) {
	b.sourcePath, _ = inputString(item, "source_path")
	b.destPath, _ = inputString(item, "dest_path")
	if b.sourcePath == "" || b.destPath == "" {
		failInit(item, "source_path and dest_path must be set")
		return
	}
	item.Success = true
}

func (b *PathRenameBlossom) PreCheck(ctx context.Context, item *items.Blossom) {
	if _, err := os.Stat(b.destPath); err == nil {
		if _, err := os.Stat(b.sourcePath); err != nil {
			// Already moved.
			item.Skip = true
			item.Success = true
			return
		}
	}
	if _, err := os.Stat(b.sourcePath); err != nil {
		item.Success = false
		item.Message = "source-path " + b.sourcePath + " does not exist"
		return
	}
	item.Success = true
}

func (b *PathRenameBlossom) Run(ctx context.Context, item *items.Blossom) {
	if err := os.Rename(b.sourcePath, b.destPath); err != nil {
		item.Success = false
		item.Message = "rename failed: " + err.Error()
		return
	}
	item.Success = true
}

func (b *PathRenameBlossom) PostCheck(ctx context.Context, item *items.Blossom) {
	if _, err := os.Stat(b.destPath); err != nil {
		item.Success = false
		item.Message = "destination " + b.destPath + " missing after rename"
		return
	}
	item.Success = true
}

func (b *PathRenameBlossom) Close(ctx context.Context, item *items.Blossom) {
	item.Success = true
}
