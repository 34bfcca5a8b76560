//go:build gomonitor_enable_padding

package opt

import (
	"unsafe"
)

// PadWord_ represents a padded pointer-sized atomic word.
// Padding is force-enabled via the gomonitor_enable_padding build tag.
// Use: go build -tags=gomonitor_enable_padding
type PadWord_ struct {
	W uintptr // word value, accessed atomically by the embedder
	_ [(CacheLineSize_ - unsafe.Sizeof(struct {
		W uintptr
	}{})%CacheLineSize_) % CacheLineSize_]byte
}
