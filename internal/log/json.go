package log

import (
	"encoding/json"
	"fmt"
	"io"
)

var _ Sink = (*jsonSink)(nil)

type jsonEntry struct {
	Entry
	Error string `json:"error,omitempty"`
}

func newJSONSink(w io.Writer) *jsonSink {
	return &jsonSink{
		enc: json.NewEncoder(w),
	}
}

type jsonSink struct {
	enc *json.Encoder
}

func (j *jsonSink) Log(entry Entry) error {
	jentry := jsonEntry{Entry: entry}
	if entry.Error != nil {
		jentry.Error = entry.Error.Error()
	}
	if err := j.enc.Encode(jentry); err != nil {
		return fmt.Errorf("failed to encode log entry: %w", err)
	}
	return nil
}
