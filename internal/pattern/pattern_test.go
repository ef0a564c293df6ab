package pattern

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOverlaps(t *testing.T) {
	tests := []struct {
		name string
		a, b UsagePattern
		want bool
	}{
		{"always vs always", Always, Always, true},
		{"always vs odd", Always, OddDays, true},
		{"always vs first half", Always, FirstHalf, true},
		{"odd vs even", OddDays, EvenDays, false},
		{"even vs odd", EvenDays, OddDays, false},
		{"odd vs odd", OddDays, OddDays, true},
		{"even vs even", EvenDays, EvenDays, true},
		{"odd vs alternating", OddDays, AlternatingDays, true},
		{"alternating vs even", AlternatingDays, EvenDays, true},
		{"first half vs second half", FirstHalf, SecondHalf, false},
		{"second half vs first half", SecondHalf, FirstHalf, false},
		{"first half vs first half", FirstHalf, FirstHalf, true},
		{"second half vs second half", SecondHalf, SecondHalf, true},
		{"first half vs odd", FirstHalf, OddDays, false},
		{"even vs second half", EvenDays, SecondHalf, false},
		{"second half vs alternating", SecondHalf, AlternatingDays, false},
		{"rotation vs rotation", WeeklyRotation, WeeklyRotation, true},
		{"rotation vs odd", WeeklyRotation, OddDays, true},
		{"rotation vs first half", WeeklyRotation, FirstHalf, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Overlaps(tt.a, tt.b))
			assert.Equal(t, tt.want, Overlaps(tt.b, tt.a), "overlap must be symmetric")
			assert.Equal(t, !tt.want, Disjoint(tt.a, tt.b))
		})
	}
}

func TestUsagePatternClassification(t *testing.T) {
	for _, p := range UsagePatterns {
		assert.True(t, p.Valid(), string(p))
		assert.NotEqual(t, p.DayBased(), p.TimeBased(), "pattern %s must be exactly one of day or time based", p)
	}

	assert.False(t, UsagePattern("SOMETIMES").Valid())
	assert.False(t, UsagePattern("").Valid())

	assert.True(t, FirstHalf.TimeBased())
	assert.True(t, SecondHalf.TimeBased())
	assert.True(t, Always.DayBased())
	assert.True(t, WeeklyRotation.DayBased())
}

func TestAssignmentTypeValid(t *testing.T) {
	for _, at := range AssignmentTypes {
		assert.True(t, at.Valid(), string(at))
	}
	assert.False(t, AssignmentType("TERTIARY").Valid())
	assert.Equal(t, "Primary Room", TypePrimary.DisplayName())
	assert.Equal(t, "Rotating Room", TypeRotating.DisplayName())
}

func TestNewTimeBlock(t *testing.T) {
	blk, err := NewTimeBlock("08:00", "08:50")
	require.NoError(t, err)
	assert.Equal(t, 50, blk.Minutes())

	_, err = NewTimeBlock("09:00", "09:00")
	assert.Error(t, err)

	_, err = NewTimeBlock("ten", "11:00")
	assert.Error(t, err)
}

func TestTimeBlockContains(t *testing.T) {
	blk, err := NewTimeBlock("08:00", "08:50")
	require.NoError(t, err)

	at := func(clock string) time.Time {
		ts, perr := time.Parse("15:04", clock)
		require.NoError(t, perr)
		return ts
	}

	assert.True(t, blk.Contains(at("08:00")))
	assert.True(t, blk.Contains(at("08:49")))
	assert.False(t, blk.Contains(at("08:50")), "end is exclusive")
	assert.False(t, blk.Contains(at("07:59")))
}

func TestTimeBlockOverlapsAndGap(t *testing.T) {
	first, err := NewTimeBlock("08:00", "08:50")
	require.NoError(t, err)
	second, err := NewTimeBlock("08:50", "09:40")
	require.NoError(t, err)
	late, err := NewTimeBlock("09:45", "10:35")
	require.NoError(t, err)

	assert.False(t, first.OverlapsBlock(second), "shared boundary is not an overlap")
	assert.True(t, first.OverlapsBlock(first))
	assert.Equal(t, 0, first.GapMinutes(second))
	assert.Equal(t, 5, second.GapMinutes(late))
}

func TestTimeBlockHalves(t *testing.T) {
	blk, err := NewTimeBlock("08:00", "09:00")
	require.NoError(t, err)

	firstHalf := blk.FirstHalfBlock()
	secondHalf := blk.SecondHalfBlock()

	assert.Equal(t, 30, firstHalf.Minutes())
	assert.Equal(t, 30, secondHalf.Minutes())
	assert.False(t, firstHalf.OverlapsBlock(secondHalf))
	assert.Equal(t, firstHalf.End, secondHalf.Start)
}
