package pattern

import (
	"fmt"
	"time"
)

// TimeBlock is a half-open [Start, End) interval on a clock day. Blocks are
// compared on minutes since midnight so that two slots touching at a shared
// boundary (one ends 09:00, the next starts 09:00) do not overlap.
type TimeBlock struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// NewTimeBlock builds a block from "15:04" clock strings.
func NewTimeBlock(start, end string) (TimeBlock, error) {
	s, err := time.Parse("15:04", start)
	if err != nil {
		return TimeBlock{}, fmt.Errorf("parse start %q: %w", start, err)
	}
	e, err := time.Parse("15:04", end)
	if err != nil {
		return TimeBlock{}, fmt.Errorf("parse end %q: %w", end, err)
	}
	if !e.After(s) {
		return TimeBlock{}, fmt.Errorf("end %q not after start %q", end, start)
	}
	return TimeBlock{Start: s, End: e}, nil
}

// Minutes returns the block length in minutes.
func (t TimeBlock) Minutes() int {
	return int(t.End.Sub(t.Start) / time.Minute)
}

// Contains reports whether the instant falls inside the block. The end is
// exclusive.
func (t TimeBlock) Contains(at time.Time) bool {
	m := minuteOfDay(at)
	return m >= minuteOfDay(t.Start) && m < minuteOfDay(t.End)
}

// OverlapsBlock reports whether two blocks share any instant.
func (t TimeBlock) OverlapsBlock(o TimeBlock) bool {
	return minuteOfDay(t.Start) < minuteOfDay(o.End) && minuteOfDay(o.Start) < minuteOfDay(t.End)
}

// GapMinutes returns the minutes between the end of t and the start of o, or
// zero when they touch or overlap.
func (t TimeBlock) GapMinutes(o TimeBlock) int {
	gap := minuteOfDay(o.Start) - minuteOfDay(t.End)
	if gap < 0 {
		return 0
	}
	return gap
}

// FirstHalfBlock returns the opening half of the block.
func (t TimeBlock) FirstHalfBlock() TimeBlock {
	mid := t.Start.Add(t.End.Sub(t.Start) / 2)
	return TimeBlock{Start: t.Start, End: mid}
}

// SecondHalfBlock returns the closing half of the block.
func (t TimeBlock) SecondHalfBlock() TimeBlock {
	mid := t.Start.Add(t.End.Sub(t.Start) / 2)
	return TimeBlock{Start: mid, End: t.End}
}

func minuteOfDay(at time.Time) int {
	return at.Hour()*60 + at.Minute()
}
