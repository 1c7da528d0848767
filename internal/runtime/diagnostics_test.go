package runtime

import (
	"bytes"
	"strings"
	"sync"
	"testing"

	"github.com/sakura-stack/sakura-tree/internal/items"
	"github.com/sakura-stack/sakura-tree/internal/value"
)

func TestFormatBlossomOutputChanged(t *testing.T) {
	b := &items.Blossom{
		ItemValues:    value.NewItemMap(),
		NameHierarchy: []string{"TREE: root", "BLOSSOM: say-hello"},
		ResultState:   items.StateChanged,
		Message:       "hello",
	}

	out := FormatBlossomOutput(b)

	if !strings.Contains(out, "CHANGED\n") {
		t.Errorf("missing result label:\n%s", out)
	}
	if !strings.Contains(out, "TREE: root\n") {
		t.Errorf("missing hierarchy root:\n%s", out)
	}
	if !strings.Contains(out, "   BLOSSOM: say-hello\n") {
		t.Errorf("hierarchy not indented per level:\n%s", out)
	}
	if !strings.Contains(out, "hello\n") {
		t.Errorf("missing message:\n%s", out)
	}
}

func TestFormatBlossomOutputExecErrorCode(t *testing.T) {
	b := &items.Blossom{
		ItemValues:  value.NewItemMap(),
		ResultState: items.StateErrorExec,
		ExecState:   127,
	}

	out := FormatBlossomOutput(b)
	if !strings.Contains(out, "ERROR in exec-state with error-code 127") {
		t.Errorf("missing error code in label:\n%s", out)
	}
}

func TestPrinterSerializesWholeRecords(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.PrintBlossom(&items.Blossom{
				ItemValues:  value.NewItemMap(),
				ResultState: items.StateSkipped,
			})
		}()
	}
	wg.Wait()

	// Every record starts with the separator; interleaved writes
	// would break the pairing.
	if n := strings.Count(buf.String(), "+++++++++++++++++++++++++++++++++++++++++++++++++\n"); n != 8 {
		t.Errorf("expected 8 record headers, got %d", n)
	}
	if n := strings.Count(buf.String(), "SKIPPED\n"); n != 8 {
		t.Errorf("expected 8 SKIPPED labels, got %d", n)
	}
}
