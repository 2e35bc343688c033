//go:build llama

package llm

// cgo link directives for the in-process llama adapter.
// - rpath of $ORIGIN so the loader finds libllama.so and libggml*.so next
//   to the built binary (./bin).
// - -L${SRCDIR}/../../bin so the linker finds libllama.so at link time.
/*
#cgo LDFLAGS: -Wl,-rpath,'$ORIGIN' -L${SRCDIR}/../../bin -lllama
*/
import "C"
