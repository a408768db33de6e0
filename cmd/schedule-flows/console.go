package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/tidwall/pretty"

	"github.com/DarumaDocker/schedule-flows/go-runtime/host"
)

var errRejected = errors.New("the scheduler reported an error")

// console prints what a guest wrote to the host.
type console struct {
	out    io.Writer
	err    io.Writer
	colour bool
}

// report prints every message the guest emitted. It fails if any of them were
// errors.
func (c *console) report(bridge *host.Memory) error {
	for _, msg := range bridge.Output {
		fmt.Fprintf(c.out, "%s\n", msg)
	}
	for _, flows := range bridge.Flows {
		c.json(flows)
	}
	for _, msg := range bridge.Errors {
		fmt.Fprintf(c.err, "%s\n", msg)
	}
	if len(bridge.Errors) > 0 {
		return errRejected
	}
	return nil
}

func (c *console) json(data []byte) {
	formatted := pretty.Pretty(data)
	if c.colour {
		formatted = pretty.Color(formatted, nil)
	}
	_, _ = c.out.Write(formatted) //nolint:errcheck
}
