package runtime

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/sakura-stack/sakura-tree/internal/items"
)

// Printer serializes diagnostic records onto a sink. Whole records are
// written under a single mutex so parallel workers never interleave.
type Printer struct {
	mu sync.Mutex
	w  io.Writer
}

// NewPrinter returns a printer writing to w, defaulting to stdout.
func NewPrinter(w io.Writer) *Printer {
	if w == nil {
		w = os.Stdout
	}
	return &Printer{w: w}
}

// PrintBlossom emits one record summarizing a blossom completion.
func (p *Printer) PrintBlossom(item *items.Blossom) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprint(p.w, FormatBlossomOutput(item))
}

// FormatBlossomOutput renders the plain-text record for a completed
// blossom: separator, result label, indented hierarchy path, optional
// message, separator.
func FormatBlossomOutput(item *items.Blossom) string {
	var b strings.Builder

	b.WriteString("+++++++++++++++++++++++++++++++++++++++++++++++++\n")

	label := item.ResultState.String()
	if item.ResultState == items.StateErrorExec && item.ExecState != 0 {
		label = fmt.Sprintf("%s with error-code %d", label, item.ExecState)
	}
	b.WriteString(label + "\n")

	for i, name := range item.NameHierarchy {
		b.WriteString(strings.Repeat("   ", i))
		b.WriteString(name + "\n")
	}

	if item.Message != "" {
		b.WriteString("\n")
		b.WriteString(item.Message + "\n")
	}

	b.WriteString("-------------------------------------------------\n\n")
	return b.String()
}
