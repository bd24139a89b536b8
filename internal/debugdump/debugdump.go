// Package debugdump prints runtime structures for inspection.
package debugdump

import (
	"fmt"
	"io"
	"log"

	"github.com/davecgh/go-spew/spew"
)

var config *spew.ConfigState

func init() {
	config = spew.NewDefaultConfig()
	config.DisableCapacities = true
	config.DisablePointerAddresses = true
	config.SortKeys = true
}

// Dump prints a to stdout.
func Dump(a ...interface{}) {
	fmt.Println(config.Sdump(a...))
}

// SDump returns the dump as a string.
func SDump(a ...interface{}) string {
	return config.Sdump(a...)
}

// Fdump writes the dump to w. maxDepth limits nesting; 0 means unlimited.
func Fdump(w io.Writer, maxDepth int, a ...interface{}) {
	c := *config
	c.MaxDepth = maxDepth
	c.Fdump(w, a...)
}

// LogDump writes the dump through l, or the standard logger when l is nil.
func LogDump(l *log.Logger, a ...interface{}) {
	if l == nil {
		l = log.Default()
	}
	l.Println(config.Sdump(a...))
}
