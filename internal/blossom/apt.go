package blossom

import (
	"context"
	"strings"

	"github.com/sakura-stack/sakura-tree/internal/executor"
	"github.com/sakura-stack/sakura-tree/internal/items"
	"github.com/sakura-stack/sakura-tree/internal/value"
)

// AptUpdateBlossom refreshes the apt package index.
type AptUpdateBlossom struct {
	runner executor.ShellRunner
}

// NewAptUpdateFactory returns a factory for apt/update blossoms.
func NewAptUpdateFactory(runner executor.ShellRunner) Factory {
	return func() Blossom { return &AptUpdateBlossom{runner: runner} }
}

func (b *AptUpdateBlossom) RequiredKeys() Schema { return Schema{} }
func (b *AptUpdateBlossom) HasOutput() bool      { return false }

func (b *AptUpdateBlossom) Init(ctx context.Context, item *items.Blossom) {
	item.Success = true
}

func (b *AptUpdateBlossom) PreCheck(ctx context.Context, item *items.Blossom) {
	item.Success = true
}

func (b *AptUpdateBlossom) Run(ctx context.Context, item *items.Blossom) {
	runAptCommand(ctx, b.runner, "apt-get update", item)
}

func (b *AptUpdateBlossom) PostCheck(ctx context.Context, item *items.Blossom) {
	item.Success = true
}

func (b *AptUpdateBlossom) Close(ctx context.Context, item *items.Blossom) {
	item.Success = true
}

// AptUpgradeBlossom upgrades all installed packages.
type AptUpgradeBlossom struct {
	runner executor.ShellRunner
}

// NewAptUpgradeFactory returns a factory for apt/upgrade blossoms.
func NewAptUpgradeFactory(runner executor.ShellRunner) Factory {
	return func() Blossom { return &AptUpgradeBlossom{runner: runner} }
}

func (b *AptUpgradeBlossom) RequiredKeys() Schema { return Schema{} }
func (b *AptUpgradeBlossom) HasOutput() bool      { return false }

func (b *AptUpgradeBlossom) Init(ctx context.Context, item *items.Blossom) {
	item.Success = true
}

func (b *AptUpgradeBlossom) PreCheck(ctx context.Context, item *items.Blossom) {
	item.Success = true
}

func (b *AptUpgradeBlossom) Run(ctx context.Context, item *items.Blossom) {
	runAptCommand(ctx, b.runner, "DEBIAN_FRONTEND=noninteractive apt-get -y upgrade", item)
}

func (b *AptUpgradeBlossom) PostCheck(ctx context.Context, item *items.Blossom) {
	item.Success = true
}

func (b *AptUpgradeBlossom) Close(ctx context.Context, item *items.Blossom) {
	item.Success = true
}

// AptInstallBlossom installs one or more packages. Already-installed
// packages are filtered out in the pre-check; when nothing remains the
// blossom skips.
type AptInstallBlossom struct {
	runner   executor.ShellRunner
	packages []string
}

// NewAptInstallFactory returns a factory for apt/install blossoms.
func NewAptInstallFactory(runner executor.ShellRunner) Factory {
	return func() Blossom { return &AptInstallBlossom{runner: runner} }
}

func (b *AptInstallBlossom) RequiredKeys() Schema {
	return Schema{"packages": true}
}

func (b *AptInstallBlossom) HasOutput() bool { return false }

func (b *AptInstallBlossom) Init(ctx context.Context, item *items.Blossom) {
	v, ok := inputValue(item, "packages")
	if !ok {
		failInit(item, "packages is not set")
		return
	}

	switch v.Kind() {
	case value.KindString:
		if v.Str() == "" {
			failInit(item, "packages is empty")
			return
		}
		b.packages = []string{v.Str()}
	case value.KindArray:
		for _, e := range v.Items() {
			b.packages = append(b.packages, e.String())
		}
		if len(b.packages) == 0 {
			failInit(item, "packages is empty")
			return
		}
	default:
		failInit(item, "packages must be a string or an array of strings")
		return
	}
	item.Success = true
}

func (b *AptInstallBlossom) PreCheck(ctx context.Context, item *items.Blossom) {
	var missing []string
	for _, pkg := range b.packages {
		res, err := b.runner.Run(ctx, "dpkg -s "+pkg)
		if err != nil || !res.Success {
			missing = append(missing, pkg)
		}
	}

	if len(missing) == 0 {
		item.Skip = true
	}
	b.packages = missing
	item.Success = true
}

func (b *AptInstallBlossom) Run(ctx context.Context, item *items.Blossom) {
	cmd := "DEBIAN_FRONTEND=noninteractive apt-get -y install " + strings.Join(b.packages, " ")
	runAptCommand(ctx, b.runner, cmd, item)
}

func (b *AptInstallBlossom) PostCheck(ctx context.Context, item *items.Blossom) {
	for _, pkg := range b.packages {
		res, err := b.runner.Run(ctx, "dpkg -s "+pkg)
		if err != nil || !res.Success {
			item.Success = false
			item.Message = "package " + pkg + " is not installed after install"
			return
		}
	}
	item.Success = true
}

func (b *AptInstallBlossom) Close(ctx context.Context, item *items.Blossom) {
	item.Success = true
}

// runAptCommand executes an apt command and maps the result onto the
// item.
func runAptCommand(ctx context.Context, runner executor.ShellRunner, cmd string, item *items.Blossom) {
	res, err := runner.Run(ctx, cmd)
	if err != nil {
		item.Success = false
		item.Message = err.Error()
		return
	}
	item.ExecState = res.ExitCode
	item.Message = res.Output
	item.Success = res.Success
}
