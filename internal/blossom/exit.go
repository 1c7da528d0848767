package blossom

import (
	"context"
	"strconv"

	"github.com/sakura-stack/sakura-tree/internal/items"
	"github.com/sakura-stack/sakura-tree/internal/value"
)

// ExitBlossom ends with a given status, recorded as its exec state.
// Status 0 (the default) succeeds and the run continues. A non-zero
// status fails the blossom, which propagates to the root the way any
// blossom failure does.
type ExitBlossom struct {
	status int
}

// NewExitFactory returns a factory for special/exit blossoms.
func NewExitFactory() Factory {
	return func() Blossom { return &ExitBlossom{} }
}

func (b *ExitBlossom) RequiredKeys() Schema {
	return Schema{"status": false}
}

func (b *ExitBlossom) HasOutput() bool { return false }

func (b *ExitBlossom) Init(ctx context.Context, item *items.Blossom) {
	v, ok := inputValue(item, "status")
	if !ok || v.IsNull() {
		b.status = 0
		item.Success = true
		return
	}

	switch v.Kind() {
	case value.KindInt:
		b.status = int(v.Int())
	case value.KindString:
		n, err := strconv.Atoi(v.Str())
		if err != nil {
			failInit(item, "status must be an integer")
			return
		}
		b.status = n
	default:
		failInit(item, "status must be an integer")
		return
	}
	item.Success = true
}

func (b *ExitBlossom) PreCheck(ctx context.Context, item *items.Blossom) {
	item.Success = true
}

func (b *ExitBlossom) Run(ctx context.Context, item *items.Blossom) {
	item.ExecState = b.status
	if b.status != 0 {
		item.Success = false
		item.Message = "exit requested with status " + strconv.Itoa(b.status)
		return
	}
	item.Success = true
}

func (b *ExitBlossom) PostCheck(ctx context.Context, item *items.Blossom) {
	item.Success = true
}

func (b *ExitBlossom) Close(ctx context.Context, item *items.Blossom) {
	item.Success = true
}
