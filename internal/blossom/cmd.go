package blossom

import (
	"context"

	"github.com/sakura-stack/sakura-tree/internal/executor"
	"github.com/sakura-stack/sakura-tree/internal/items"
	"github.com/sakura-stack/sakura-tree/internal/value"
)

// CmdBlossom runs a shell command. Its output value is the combined
// process output; the exit code lands in the item's exec state.
type CmdBlossom struct {
	runner executor.ShellRunner

	command      string
	ignoreErrors bool
}

// NewCmdFactory returns a factory producing cmd blossoms bound to the
// given runner.
func NewCmdFactory(runner executor.ShellRunner) Factory {
	return func() Blossom { return &CmdBlossom{runner: runner} }
}

func (b *CmdBlossom) RequiredKeys() Schema {
	return Schema{
		"command":       true,
		"ignore_errors": false,
	}
}

func (b *CmdBlossom) HasOutput() bool { return true }

func (b *CmdBlossom) Init(ctx context.Context, item *items.Blossom) {
	cmd, ok := inputString(item, "command")
	if !ok || cmd == "" {
		failInit(item, "command is empty")
		return
	}
	b.command = cmd

	ignore, present, ok := inputBool(item, "ignore_errors")
	if !ok {
		failInit(item, "ignore_errors was set, but is not a bool-value")
		return
	}
	if present {
		b.ignoreErrors = ignore
	}
	item.Success = true
}

func (b *CmdBlossom) PreCheck(ctx context.Context, item *items.Blossom) {
	item.Success = true
}

func (b *CmdBlossom) Run(ctx context.Context, item *items.Blossom) {
	res, err := b.runner.Run(ctx, b.command)
	if err != nil {
		item.Success = false
		item.Message = err.Error()
		return
	}

	item.ExecState = res.ExitCode
	item.Message = res.Output
	item.Output = value.String(res.Output)
	item.Success = res.Success || b.ignoreErrors
}

func (b *CmdBlossom) PostCheck(ctx context.Context, item *items.Blossom) {
	item.Success = true
}

func (b *CmdBlossom) Close(ctx context.Context, item *items.Blossom) {
	item.Success = true
}
