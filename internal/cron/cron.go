// Package cron parses and checks the cron expressions accepted by the
// scheduler service.
//
// Only the syntax is handled here; the scheduler service owns evaluation.
// Supported features:
//   - * for all values
//   - ranges with - (eg 1-5)
//   - steps with / (eg 1-5/2)
//   - lists with , (eg 1,2,3)
package cron

import (
	"errors"
	"fmt"
)

type componentType int

const (
	minute componentType = iota
	hour
	dayOfMonth
	month
	dayOfWeek
)

var componentBounds = []struct {
	name     string
	min, max int
}{
	minute:     {"minute", 0, 59},
	hour:       {"hour", 0, 23},
	dayOfMonth: {"day of month", 1, 31},
	month:      {"month", 1, 12},
	dayOfWeek:  {"day of week", 0, 7},
}

// ErrNotExact is returned by ValidateExact when the minute or hour field is a
// wildcard, range, step or list.
var ErrNotExact = errors.New("expected only one exact hour and one exact minute")

// Parse a five field cron expression and check every value is in range.
func Parse(text string) (Pattern, error) {
	pattern, err := parser.ParseString("", text)
	if err != nil {
		return Pattern{}, fmt.Errorf("invalid cron expression %q: %w", text, err)
	}
	if len(pattern.Components) != len(componentBounds) {
		return Pattern{}, fmt.Errorf("invalid cron expression %q: expected %d components, got %d", text, len(componentBounds), len(pattern.Components))
	}
	for idx, component := range pattern.Components {
		if err := validateComponent(component, componentType(idx)); err != nil {
			return Pattern{}, fmt.Errorf("invalid cron expression %q: %w", text, err)
		}
	}
	return *pattern, nil
}

// ValidateExact parses text and additionally requires the minute and hour
// fields to each name a single value.
func ValidateExact(text string) (Pattern, error) {
	pattern, err := Parse(text)
	if err != nil {
		return Pattern{}, err
	}
	if _, ok := pattern.Components[minute].Exact(); !ok {
		return Pattern{}, fmt.Errorf("%q: %w", text, ErrNotExact)
	}
	if _, ok := pattern.Components[hour].Exact(); !ok {
		return Pattern{}, fmt.Errorf("%q: %w", text, ErrNotExact)
	}
	return pattern, nil
}

func validateComponent(component Component, t componentType) error {
	bounds := componentBounds[t]
	for _, step := range component.List {
		if step.Step != nil && *step.Step == 0 {
			return fmt.Errorf("%s step must be greater than zero", bounds.name)
		}
		if step.ValueRange.IsFullRange {
			continue
		}
		start := *step.ValueRange.Start
		if start < bounds.min || start > bounds.max {
			return fmt.Errorf("%s value %d out of range %d-%d", bounds.name, start, bounds.min, bounds.max)
		}
		if step.ValueRange.End == nil {
			continue
		}
		end := *step.ValueRange.End
		if end < bounds.min || end > bounds.max {
			return fmt.Errorf("%s value %d out of range %d-%d", bounds.name, end, bounds.min, bounds.max)
		}
		if end < start {
			return fmt.Errorf("%s range %d-%d is reversed", bounds.name, start, end)
		}
	}
	return nil
}
