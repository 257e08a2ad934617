//go:build (js && wasm) || wasip1

package evaluator

// init sets WebAssembly-specific defaults for all Evaluators created in this
// process.
//
// On js/wasm the JavaScript runtime is single-threaded: goroutines are
// multiplexed cooperatively on the same OS thread, so fanning CheckMany out
// to workers only adds scheduling overhead. wasip1 has no thread support in
// the Go runtime either.
func init() {
	defaultConcurrency = false
}
