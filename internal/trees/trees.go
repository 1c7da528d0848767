// Package trees resolves subtree names to compiled trees. Tree
// documents live as YAML files in a directory; compiled results are
// kept in an LRU cache so repeated subtree calls do not re-parse.
package trees

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/sakura-stack/sakura-tree/internal/converter"
	sakuraerr "github.com/sakura-stack/sakura-tree/internal/errors"
	"github.com/sakura-stack/sakura-tree/internal/items"
)

// cacheSize bounds the number of compiled trees kept in memory.
const cacheSize = 128

// Handler loads and serves compiled trees by name or path.
type Handler struct {
	dir   string
	cache *lru.Cache[string, items.Item]
}

// NewHandler creates a handler rooted at dir.
func NewHandler(dir string) (*Handler, error) {
	cache, err := lru.New[string, items.Item](cacheSize)
	if err != nil {
		return nil, err
	}
	return &Handler{dir: dir, cache: cache}, nil
}

// GetTree returns the compiled tree for nameOrPath. A bare name is
// looked up as <dir>/<name>.yaml; an explicit path is loaded as-is.
// The returned item is the shared template; callers must deep-copy
// before execution.
func (h *Handler) GetTree(nameOrPath string) (items.Item, error) {
	path := h.resolvePath(nameOrPath)

	if tree, ok := h.cache.Get(path); ok {
		return tree, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, sakuraerr.SubtreeNotFound(nameOrPath)
		}
		return nil, fmt.Errorf("reading tree file %s: %w", path, err)
	}

	raw, err := converter.ParseYAML(data)
	if err != nil {
		return nil, fmt.Errorf("tree %s: %w", nameOrPath, err)
	}
	tree, err := converter.ConvertTree(raw)
	if err != nil {
		return nil, fmt.Errorf("tree %s: %w", nameOrPath, err)
	}

	h.cache.Add(path, tree)
	return tree, nil
}

// resolvePath maps a name to a file path under the tree directory.
func (h *Handler) resolvePath(nameOrPath string) string {
	if filepath.IsAbs(nameOrPath) || strings.ContainsRune(nameOrPath, os.PathSeparator) {
		return nameOrPath
	}
	name := nameOrPath
	if filepath.Ext(name) == "" {
		name += ".yaml"
	}
	return filepath.Join(h.dir, name)
}
