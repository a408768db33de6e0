package model

import (
	"strings"
	"testing"

	"github.com/alecthomas/assert/v2"
)

func TestEventKey(t *testing.T) {
	key := NewEventKey()
	assert.True(t, strings.HasPrefix(key.String(), "evt-"), "expected prefix evt- for %q", key.String())
	assert.Equal(t, 8, len(key.Suffix))

	parsed, err := ParseEventKey(key.String())
	assert.NoError(t, err)
	assert.Equal(t, key, parsed)

	value, err := key.Value()
	assert.NoError(t, err)
	var scanned EventKey
	assert.NoError(t, scanned.Scan(value))
	assert.Equal(t, key, scanned)
}

func TestScheduleKeyIsUnique(t *testing.T) {
	a := NewScheduleKey()
	b := NewScheduleKey()
	assert.NotEqual(t, a.String(), b.String())
	assert.True(t, strings.HasPrefix(a.String(), "sch-"))
}

func TestParseKeyErrors(t *testing.T) {
	for _, test := range []struct {
		input string
		err   string
	}{
		{input: "sch-abc", err: `expected prefix "evt" for key "sch-abc"`},
		{input: "evt", err: `expected a suffix for key "evt"`},
		{input: "evt-1", err: `expected a suffix of 8 bytes for key "evt-1", not 1`},
	} {
		t.Run(test.input, func(t *testing.T) {
			_, err := ParseEventKey(test.input)
			assert.EqualError(t, err, test.err)
		})
	}
}

func TestDeterministicKeys(t *testing.T) {
	original := randRead
	t.Cleanup(func() { randRead = original })
	randRead = func(b []byte) (int, error) {
		for i := range b {
			b[i] = 1
		}
		return len(b), nil
	}
	assert.Equal(t, NewEventKey().String(), NewEventKey().String())
}
