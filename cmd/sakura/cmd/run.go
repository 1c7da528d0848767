package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sakura-stack/sakura-tree/internal/blossom"
	"github.com/sakura-stack/sakura-tree/internal/config"
	"github.com/sakura-stack/sakura-tree/internal/converter"
	"github.com/sakura-stack/sakura-tree/internal/executor"
	"github.com/sakura-stack/sakura-tree/internal/items"
	"github.com/sakura-stack/sakura-tree/internal/logging"
	"github.com/sakura-stack/sakura-tree/internal/runtime"
	"github.com/sakura-stack/sakura-tree/internal/trees"
	"github.com/sakura-stack/sakura-tree/internal/validator"
	"github.com/sakura-stack/sakura-tree/internal/value"
)

var runVars []string

var runCmd = &cobra.Command{
	Use:   "run <tree-file>",
	Short: "Execute a task tree",
	Long: `Execute a task tree file. The tree is compiled, validated and then
processed on the worker pool. Initial values can be supplied with
--var name=value; they seed the root namespace.`,
	Args: cobra.ExactArgs(1),
	RunE: runRun,
}

func init() {
	runCmd.Flags().StringArrayVar(&runVars, "var", nil, "initial values (format: name=value)")
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	dir, err := getWorkDir()
	if err != nil {
		return err
	}

	cfg, err := config.LoadFromDir(dir)
	if err != nil {
		return err
	}
	if verbose {
		cfg.Logging.Level = config.LogLevelDebug
	}

	logger, closer, err := logging.NewFromConfig(cfg, dir)
	if err != nil {
		return err
	}
	if closer != nil {
		defer closer.Close()
	}

	tree, err := loadTree(dir, args[0])
	if err != nil {
		return err
	}

	registry := blossom.DefaultRegistry(executor.NewShellExecutor())
	if errs := validator.New(registry).Validate(tree); len(errs) > 0 {
		for _, verr := range errs {
			fmt.Fprintf(os.Stderr, "  - %v\n", verr)
		}
		return fmt.Errorf("validation failed with %d error(s)", len(errs))
	}

	handler, err := trees.NewHandler(cfg.TreeDir(dir))
	if err != nil {
		return err
	}

	engine := runtime.NewEngine(runtime.Config{
		Registry: registry,
		Trees:    handler,
		Workers:  cfg.Engine.Workers,
		Logger:   logger,
		Output:   os.Stdout,
	})

	initial, err := parseVars(runVars)
	if err != nil {
		return err
	}

	_, ok := engine.Run(context.Background(), tree, initial)
	if !ok {
		return fmt.Errorf("tree execution failed")
	}

	logger.Info("tree execution complete", slog.String("tree", args[0]))
	return nil
}

// loadTree reads and compiles a tree file.
func loadTree(dir, path string) (items.Item, error) {
	if !filepath.IsAbs(path) {
		path = filepath.Join(dir, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading tree file: %w", err)
	}

	raw, err := converter.ParseYAML(data)
	if err != nil {
		return nil, err
	}
	return converter.ConvertTree(raw)
}

// parseVars converts name=value pairs into an initial namespace.
func parseVars(pairs []string) (value.Namespace, error) {
	ns := value.NewNamespace()
	for _, pair := range pairs {
		name, val, found := strings.Cut(pair, "=")
		if !found || name == "" {
			return nil, fmt.Errorf("invalid --var %q (expected name=value)", pair)
		}
		ns[name] = value.String(val)
	}
	return ns, nil
}
