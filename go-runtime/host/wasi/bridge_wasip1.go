//go:build wasip1

package wasi

import (
	"net/http"
	"unsafe"

	"github.com/stealthrocket/net/wasip1"

	"github.com/DarumaDocker/schedule-flows/go-runtime/host"
)

// Identities are copied into a buffer of this fixed size.
const identitySize = 100

//go:wasmimport env is_listening
func isListening() int32

//go:wasmimport env get_flows_user
func getFlowsUser(p unsafe.Pointer) int32

//go:wasmimport env get_flow_id
func getFlowID(p unsafe.Pointer) int32

//go:wasmimport env get_event_body_length
func getEventBodyLength() int32

//go:wasmimport env get_event_body
func getEventBody(p unsafe.Pointer) int32

//go:wasmimport env get_event_query_length
func getEventQueryLength() int32

//go:wasmimport env get_event_query
func getEventQuery(p unsafe.Pointer) int32

//go:wasmimport env set_output
func setOutput(p unsafe.Pointer, l int32)

//go:wasmimport env set_error_log
func setErrorLog(p unsafe.Pointer, l int32)

//go:wasmimport env set_flows
func setFlows(p unsafe.Pointer, l int32)

var _ host.Bridge = Bridge{}

// Bridge talks to the wasm host. It is stateless; every call goes to the host.
type Bridge struct{}

func (Bridge) OwnerID() []byte      { return identity(getFlowsUser) }
func (Bridge) TaskID() []byte       { return identity(getFlowID) }
func (Bridge) ExecutionMode() int32 { return isListening() }

func (Bridge) EventBodyLength() int32          { return getEventBodyLength() }
func (Bridge) FillEventBody(buf []byte) int32  { return getEventBody(pointer(buf)) }
func (Bridge) EventQueryLength() int32         { return getEventQueryLength() }
func (Bridge) FillEventQuery(buf []byte) int32 { return getEventQuery(pointer(buf)) }

func (Bridge) EmitSuccess(msg []byte) { setOutput(pointer(msg), int32(len(msg))) }   //nolint:gosec
func (Bridge) EmitError(msg []byte)   { setErrorLog(pointer(msg), int32(len(msg))) } //nolint:gosec
func (Bridge) EmitFlows(msg []byte)   { setFlows(pointer(msg), int32(len(msg))) }    //nolint:gosec

// HTTPClient returns a client whose connections go through the host's socket
// extension.
func HTTPClient() *http.Client {
	return &http.Client{Transport: &http.Transport{DialContext: wasip1.DialContext}}
}

func identity(get func(p unsafe.Pointer) int32) []byte {
	buf := make([]byte, identitySize)
	n := get(pointer(buf))
	switch {
	case n < 0:
		return nil
	case n > identitySize:
		n = identitySize
	}
	return buf[:n]
}

func pointer(b []byte) unsafe.Pointer {
	return unsafe.Pointer(unsafe.SliceData(b))
}
