// Package wasi implements host.Bridge for guests compiled with
// GOOS=wasip1 GOARCH=wasm and run by a WasmEdge-style host that exports the
// flow functions in the "env" module.
//
// The host also gives guests sockets through the WasmEdge socket extension;
// HTTPClient returns a client that dials through it.
package wasi
