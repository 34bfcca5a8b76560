//go:build !gomonitor_cachelinesize_32 && !gomonitor_cachelinesize_64 && !gomonitor_cachelinesize_128 && !gomonitor_cachelinesize_256

package opt

import (
	"unsafe"

	"golang.org/x/sys/cpu"
)

// CacheLineSize_ is used to pad hot atomic fields apart so independent
// cache lines don't ping-pong between cores. Computed automatically via
// `golang.org/x/sys/cpu`. A `gomonitor_cachelinesize_*` build tag excludes
// this file, and no other file in the package defines CacheLineSize_, so
// under such a tag the constant is undefined.
const CacheLineSize_ = unsafe.Sizeof(cpu.CacheLinePad{})
