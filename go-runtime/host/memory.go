package host

import (
	"github.com/alecthomas/types/optional"
)

var _ Bridge = (*Memory)(nil)

// Memory is a Bridge backed by plain values, used by the local harness and in
// tests.
//
// The Length and Count overrides let callers simulate a host that breaks the
// two-call protocol.
type Memory struct {
	Owner []byte
	Task  []byte
	Mode  int32

	Body        []byte
	BodyLength  optional.Option[int32]
	BodyCount   optional.Option[int32]
	Query       []byte
	QueryLength optional.Option[int32]
	QueryCount  optional.Option[int32]

	// Number of times each buffer was probed.
	BodyReads  int
	QueryReads int

	Output [][]byte
	Errors [][]byte
	Flows  [][]byte
}

func (m *Memory) OwnerID() []byte      { return m.Owner }
func (m *Memory) TaskID() []byte       { return m.Task }
func (m *Memory) ExecutionMode() int32 { return m.Mode }

func (m *Memory) EventBodyLength() int32 {
	m.BodyReads++
	return m.BodyLength.Default(int32(len(m.Body))) //nolint:gosec
}

func (m *Memory) FillEventBody(buf []byte) int32 {
	n := copy(buf, m.Body)
	return m.BodyCount.Default(int32(n)) //nolint:gosec
}

func (m *Memory) EventQueryLength() int32 {
	m.QueryReads++
	return m.QueryLength.Default(int32(len(m.Query))) //nolint:gosec
}

func (m *Memory) FillEventQuery(buf []byte) int32 {
	n := copy(buf, m.Query)
	return m.QueryCount.Default(int32(n)) //nolint:gosec
}

func (m *Memory) EmitSuccess(msg []byte) { m.Output = append(m.Output, clone(msg)) }
func (m *Memory) EmitError(msg []byte)   { m.Errors = append(m.Errors, clone(msg)) }
func (m *Memory) EmitFlows(msg []byte)   { m.Flows = append(m.Flows, clone(msg)) }

func clone(b []byte) []byte {
	return append([]byte{}, b...)
}
