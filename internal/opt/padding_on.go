//go:build !(amd64 || 386 || arm || mips || mipsle || wasm) && !gomonitor_disable_padding && !gomonitor_enable_padding

package opt

import (
	"unsafe"
)

// PadWord_ wraps a single pointer-sized atomic word (a lock word, an on-deck
// slot, ...) so two of them can be embedded next to each other without
// sharing a cache line. Padding is automatically enabled for architectures
// that are NOT:
//   - amd64 (x86_64): hardware prefetch/coherence often makes padding less critical
//   - 32-bit architectures (386, arm, mips, mipsle, wasm): smaller cache lines/memory constraints
//
// Enabled for: arm64, s390x, ppc64, ppc64le, riscv64, loong64, mips64, mips64le, etc.
type PadWord_ struct {
	W uintptr // word value, accessed atomically by the embedder
	_ [(CacheLineSize_ - unsafe.Sizeof(struct {
		W uintptr
	}{})%CacheLineSize_) % CacheLineSize_]byte
}
