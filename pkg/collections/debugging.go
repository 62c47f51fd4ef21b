package collections

import (
	"github.com/davecgh/go-spew/spew"
)

var debugConfig = spew.ConfigState{
	Indent:                  "  ",
	DisablePointerAddresses: true,
	DisableCapacities:       true,
	SortKeys:                true,
}

// Dump renders values for debug logging.
func Dump(values ...any) string {
	return debugConfig.Sdump(values...)
}
