//go:build race

package opt

// Race_ reports whether the race detector is enabled.
// Debug-only precondition checks in the primitives are gated on it,
// so misuse surfaces under `go test -race` without taxing normal builds.
const Race_ = true
