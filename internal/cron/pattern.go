package cron

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

var (
	lex = lexer.MustSimple([]lexer.SimpleRule{
		{Name: "Whitespace", Pattern: `\s+`},
		{Name: "Number", Pattern: `[0-9]+`},
		{Name: "Punct", Pattern: `[*/,\-]`},
	})

	parser = participle.MustBuild[Pattern](
		participle.Lexer(lex),
		participle.Elide("Whitespace"),
	)
)

// Pattern is a parsed five field crontab expression: minute, hour, day of
// month, month and day of week.
type Pattern struct {
	Components []Component `parser:"@@*"`
}

func (p Pattern) String() string {
	parts := make([]string, 0, len(p.Components))
	for _, component := range p.Components {
		parts = append(parts, component.String())
	}
	return strings.Join(parts, " ")
}

type Component struct {
	List []Step `parser:"(@@ (',' @@)*)"`
}

func (c Component) String() string {
	parts := make([]string, 0, len(c.List))
	for _, step := range c.List {
		parts = append(parts, step.String())
	}
	return strings.Join(parts, ",")
}

// Exact returns the single value of a component that names exactly one value.
func (c Component) Exact() (int, bool) {
	if len(c.List) != 1 {
		return 0, false
	}
	step := c.List[0]
	if step.Step != nil || step.ValueRange.IsFullRange || step.ValueRange.End != nil || step.ValueRange.Start == nil {
		return 0, false
	}
	return *step.ValueRange.Start, true
}

type Step struct {
	ValueRange ValueRange `parser:"@@"`
	Step       *int       `parser:"('/' @Number)?"`
}

func (s *Step) String() string {
	if s.Step != nil {
		return fmt.Sprintf("%s/%d", s.ValueRange.String(), *s.Step)
	}
	return s.ValueRange.String()
}

type ValueRange struct {
	IsFullRange bool `parser:"(@'*'"`
	Start       *int `parser:"| @Number"`
	End         *int `parser:"('-' @Number)?)"`
}

func (r *ValueRange) String() string {
	if r.IsFullRange {
		return "*"
	}
	if r.End != nil {
		return fmt.Sprintf("%d-%d", *r.Start, *r.End)
	}
	return strconv.Itoa(*r.Start)
}
