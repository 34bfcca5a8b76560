//go:build gomonitor_disable_padding

package opt

// PadWord_ represents an unpadded pointer-sized atomic word.
// Padding is force-disabled via the gomonitor_disable_padding build tag.
// Use: go build -tags=gomonitor_disable_padding
type PadWord_ struct {
	W uintptr // word value, accessed atomically by the embedder
}
