// Package host is the boundary between a guest task and the runtime hosting
// it.
//
// The runtime provides identity, the execution mode flag, variable-length
// event buffers and three one-way output sinks. Everything here is read fresh
// on every invocation; nothing is cached.
package host

import (
	"errors"
	"fmt"
	"unicode/utf8"
)

var (
	// ErrIntegrity is returned when the host writes a different number of
	// bytes than it announced.
	ErrIntegrity = errors.New("host buffer integrity fault")
	// ErrMissingTaskID is returned when the host has no task identifier.
	ErrMissingTaskID = errors.New("failed to get task id")
	// ErrInvalidIdentity is returned when an identity field is not valid UTF-8.
	ErrInvalidIdentity = errors.New("identity is not valid UTF-8")
)

// Bridge is the set of capabilities the hosting runtime provides to a guest.
//
// Buffer transfers use a two-call protocol: the Length call announces how many
// bytes the host will write, and the Fill call writes them into a buffer of
// exactly that size, returning the number of bytes written. Use ReadBuffer
// rather than calling these pairs directly.
type Bridge interface {
	// OwnerID returns the account identifier of the task owner.
	OwnerID() []byte
	// TaskID returns the identifier of the running task.
	TaskID() []byte
	// ExecutionMode is nonzero when the guest is being deployed.
	ExecutionMode() int32

	EventBodyLength() int32
	FillEventBody(buf []byte) int32
	EventQueryLength() int32
	FillEventQuery(buf []byte) int32

	// EmitSuccess writes a human-readable message to the task output.
	EmitSuccess(msg []byte)
	// EmitError writes diagnostic output to the task error log.
	EmitError(diagnostic []byte)
	// EmitFlows reports the flows bound to an event lookup.
	EmitFlows(flows []byte)
}

// Mode of the current invocation.
type Mode int

const (
	// Registering is the deploy-time invocation that registers a schedule.
	Registering Mode = iota
	// Triggered is an invocation caused by the scheduler firing.
	Triggered
)

func (m Mode) String() string {
	switch m {
	case Registering:
		return "registering"
	case Triggered:
		return "triggered"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ResolveMode decides which phase the current invocation is in.
func ResolveMode(b Bridge) Mode {
	if b.ExecutionMode() != 0 {
		return Registering
	}
	return Triggered
}

// ReadBuffer transfers a variable-length value from the host.
//
// The returned slice has exactly the probed length. Any disagreement between
// the probe and the fill count is an ErrIntegrity and no bytes are returned.
func ReadBuffer(probe func() int32, fill func(buf []byte) int32) ([]byte, error) {
	length := probe()
	if length < 0 {
		return nil, fmt.Errorf("%w: host announced a negative length %d", ErrIntegrity, length)
	}
	buf := make([]byte, length)
	if count := fill(buf); count != length {
		return nil, fmt.Errorf("%w: host announced %d bytes but wrote %d", ErrIntegrity, length, count)
	}
	return buf, nil
}

// EventBody reads the body of the event that triggered this invocation.
func EventBody(b Bridge) ([]byte, error) {
	body, err := ReadBuffer(b.EventBodyLength, b.FillEventBody)
	if err != nil {
		return nil, fmt.Errorf("event body: %w", err)
	}
	return body, nil
}

// EventQuery reads the query of the event that triggered this invocation.
func EventQuery(b Bridge) ([]byte, error) {
	query, err := ReadBuffer(b.EventQueryLength, b.FillEventQuery)
	if err != nil {
		return nil, fmt.Errorf("event query: %w", err)
	}
	return query, nil
}

// Identity returns the owner and task identifiers of the running task.
//
// An empty owner is tolerated; an empty task is not.
func Identity(b Bridge) (owner string, task string, err error) {
	ownerID := b.OwnerID()
	if !utf8.Valid(ownerID) {
		return "", "", fmt.Errorf("owner id: %w", ErrInvalidIdentity)
	}
	taskID := b.TaskID()
	if len(taskID) == 0 {
		return "", "", ErrMissingTaskID
	}
	if !utf8.Valid(taskID) {
		return "", "", fmt.Errorf("task id: %w", ErrInvalidIdentity)
	}
	return string(ownerID), string(taskID), nil
}
