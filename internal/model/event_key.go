package model

import "errors"

// EventKey is the lookup key ("l_key") the scheduler hands back for a
// registered schedule. Guests use it to find which task a trigger belongs to.
type EventKey = KeyType[EventPayload, *EventPayload]

func NewEventKey() EventKey { return newKey[EventPayload]() }

func ParseEventKey(key string) (EventKey, error) { return parseKey[EventPayload](key) }

type EventPayload struct{}

var _ KeyPayload = (*EventPayload)(nil)

func (e *EventPayload) Kind() string   { return "evt" }
func (e *EventPayload) String() string { return "" }
func (e *EventPayload) Parse(parts []string) error {
	if len(parts) != 0 {
		return errors.New("expected no payload")
	}
	return nil
}
func (e *EventPayload) RandomBytes() int { return 8 }
