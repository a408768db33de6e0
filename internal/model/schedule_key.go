package model

import "errors"

// ScheduleKey identifies one registration of a cron expression for a task.
// Re-registering a task always produces a new ScheduleKey.
type ScheduleKey = KeyType[SchedulePayload, *SchedulePayload]

func NewScheduleKey() ScheduleKey { return newKey[SchedulePayload]() }

func ParseScheduleKey(key string) (ScheduleKey, error) { return parseKey[SchedulePayload](key) }

type SchedulePayload struct{}

var _ KeyPayload = (*SchedulePayload)(nil)

func (s *SchedulePayload) Kind() string   { return "sch" }
func (s *SchedulePayload) String() string { return "" }
func (s *SchedulePayload) Parse(parts []string) error {
	if len(parts) != 0 {
		return errors.New("expected no payload")
	}
	return nil
}
func (s *SchedulePayload) RandomBytes() int { return 10 }
