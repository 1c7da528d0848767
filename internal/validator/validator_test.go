package validator

import (
	"testing"

	"github.com/sakura-stack/sakura-tree/internal/blossom"
	sakuraerr "github.com/sakura-stack/sakura-tree/internal/errors"
	"github.com/sakura-stack/sakura-tree/internal/executor"
	"github.com/sakura-stack/sakura-tree/internal/items"
	"github.com/sakura-stack/sakura-tree/internal/value"
)

func newValidator() *Validator {
	return New(blossom.DefaultRegistry(executor.NewShellExecutor()))
}

func cmdBlossom(command string) *items.Blossom {
	values := value.NewItemMap()
	values.Set("command", value.Literal(value.String(command)))
	return &items.Blossom{
		ItemValues: values,
		GroupType:  "special",
		Type:       "cmd",
	}
}

func TestValidateOK(t *testing.T) {
	tree := &items.Tree{
		ID:         "root",
		Children:   []items.Item{cmdBlossom("echo a")},
		ItemValues: value.NewItemMap(),
	}

	if errs := newValidator().Validate(tree); len(errs) != 0 {
		t.Errorf("expected clean validation, got %v", errs)
	}
}

func TestValidateUnknownBlossom(t *testing.T) {
	b := &items.Blossom{
		ItemValues: value.NewItemMap(),
		GroupType:  "special",
		Type:       "nonexistent",
	}

	errs := newValidator().Validate(b)
	if len(errs) != 1 || !sakuraerr.HasCode(errs[0], sakuraerr.CodeValidateUnknownBlossom) {
		t.Errorf("expected unknown-blossom error, got %v", errs)
	}
}

func TestValidateMissingRequiredKey(t *testing.T) {
	b := &items.Blossom{
		ItemValues: value.NewItemMap(),
		GroupType:  "special",
		Type:       "cmd",
	}

	errs := newValidator().Validate(b)
	if len(errs) != 1 || !sakuraerr.HasCode(errs[0], sakuraerr.CodeValidateMissingKey) {
		t.Errorf("expected missing-key error, got %v", errs)
	}
}

func TestValidateOutputMismatch(t *testing.T) {
	values := value.NewItemMap()
	values.Set("file_path", value.Literal(value.String("/tmp/a")))
	values.Set("text", value.Literal(value.String("x")))
	out := value.Identifier("result")
	out.Role = value.RoleOutput
	values.Set("result", out)

	// text/write declares no output.
	b := &items.Blossom{ItemValues: values, GroupType: "text", Type: "write"}

	errs := newValidator().Validate(b)
	if len(errs) != 1 || !sakuraerr.HasCode(errs[0], sakuraerr.CodeValidateOutputMismatch) {
		t.Errorf("expected output-mismatch error, got %v", errs)
	}
}

func TestValidateUninitializedSentinel(t *testing.T) {
	b := cmdBlossom("{{}}")

	errs := newValidator().Validate(b)
	if len(errs) != 1 || !sakuraerr.HasCode(errs[0], sakuraerr.CodeValidateUnresolved) {
		t.Errorf("expected unresolved error, got %v", errs)
	}
}

func TestValidateRecursesIntoComposites(t *testing.T) {
	bad := &items.Blossom{
		ItemValues: value.NewItemMap(),
		GroupType:  "special",
		Type:       "nonexistent",
	}
	tree := &items.Tree{
		ID: "root",
		Children: []items.Item{
			&items.Parallel{
				Children: []items.Item{
					&items.Sequential{Children: []items.Item{bad}, ItemValues: value.NewItemMap()},
				},
				ItemValues: value.NewItemMap(),
			},
		},
		ItemValues: value.NewItemMap(),
	}

	if errs := newValidator().Validate(tree); len(errs) != 1 {
		t.Errorf("expected nested blossom error to surface, got %v", errs)
	}
}

func TestValidateGroupInheritsGroupType(t *testing.T) {
	inner := cmdBlossom("echo a")
	inner.GroupType = ""
	group := &items.BlossomGroup{
		ID:         "grp",
		GroupType:  "special",
		Blossoms:   []*items.Blossom{inner},
		ItemValues: value.NewItemMap(),
	}

	if errs := newValidator().Validate(group); len(errs) != 0 {
		t.Errorf("expected group type inheritance, got %v", errs)
	}
}
