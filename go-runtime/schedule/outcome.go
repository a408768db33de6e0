package schedule

import (
	"github.com/DarumaDocker/schedule-flows/go-runtime/host"
)

// Outcome of a registration attempt.
//
//sumtype:decl
type Outcome interface {
	outcome()
}

// Success is a 2xx response from the scheduler.
type Success struct {
	Message string
}

func (Success) outcome() {}

// Failure is any other response. Diagnostic is the raw response body.
type Failure struct {
	Diagnostic []byte
}

func (Failure) outcome() {}

// Deliver routes an outcome to exactly one of the bridge's output sinks.
func Deliver(b host.Bridge, o Outcome) {
	switch o := o.(type) {
	case Success:
		b.EmitSuccess([]byte(o.Message))
	case Failure:
		b.EmitError(o.Diagnostic)
	}
}
