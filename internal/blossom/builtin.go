package blossom

import "github.com/sakura-stack/sakura-tree/internal/executor"

// DefaultRegistry returns a registry pre-populated with the built-in
// blossoms, all shell-based ones bound to the given runner.
func DefaultRegistry(runner executor.ShellRunner) *Registry {
	r := NewRegistry()

	r.Register("special", "cmd", NewCmdFactory(runner))
	r.Register("special", "exit", NewExitFactory())

	r.Register("text", "write", NewTextWriteFactory())
	r.Register("text", "append", NewTextAppendFactory())
	r.Register("text", "read", NewTextReadFactory())

	r.Register("path", "copy", NewPathCopyFactory())
	r.Register("path", "rename", NewPathRenameFactory())

	r.Register("apt", "update", NewAptUpdateFactory(runner))
	r.Register("apt", "upgrade", NewAptUpgradeFactory(runner))
	r.Register("apt", "install", NewAptInstallFactory(runner))

	return r
}
