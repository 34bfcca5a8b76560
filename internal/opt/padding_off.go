//go:build (amd64 || 386 || arm || mips || mipsle || wasm) && !gomonitor_disable_padding && !gomonitor_enable_padding

package opt

// PadWord_ wraps a single pointer-sized atomic word (a lock word, an on-deck
// slot, ...) so two of them can be embedded next to each other without
// sharing a cache line. Padding is disabled by default for:
//   - amd64
//   - 32-bit architectures (386, arm, mips, mipsle, wasm)
type PadWord_ struct {
	W uintptr // word value, accessed atomically by the embedder
}
