package beat

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAccentsInFourFourWithEighths(t *testing.T) {
	t.Parallel()

	// beatsPerBar=4, subdivision=2: a bar is 8 ticks, tick 0 starts bar 1,
	// tick 8 starts bar 2.
	for tick := uint64(0); tick < 32; tick++ {
		p := PositionAt(tick, 4, 2, true)
		wantAccent := tick%8 == 0
		require.Equal(t, wantAccent, p.Accented, "tick %d", tick)
		require.Equal(t, tick%2 == 0, p.SubDownbeat, "tick %d", tick)
		require.Equal(t, wantAccent, p.BarDownbeat, "tick %d", tick)
	}
}

func TestAccentFlagOffSuppressesAllAccents(t *testing.T) {
	t.Parallel()

	for tick := uint64(0); tick < 64; tick++ {
		p := PositionAt(tick, 4, 4, false)
		require.False(t, p.Accented, "tick %d", tick)
	}
}

func TestPositionCounting(t *testing.T) {
	t.Parallel()

	cases := []struct {
		tick        uint64
		beatsPerBar int
		subdivision int
		wantSub     int
		wantBeat    int
	}{
		{0, 4, 2, 0, 0},
		{1, 4, 2, 1, 0},
		{2, 4, 2, 0, 1},
		{7, 4, 2, 1, 3},
		{8, 4, 2, 0, 0},
		{5, 3, 1, 0, 2},
		{11, 3, 3, 2, 0},
		{13, 5, 4, 1, 3},
	}
	for _, tc := range cases {
		p := PositionAt(tc.tick, tc.beatsPerBar, tc.subdivision, true)
		require.Equal(t, tc.wantSub, p.Sub, "tick %d sub", tc.tick)
		require.Equal(t, tc.wantBeat, p.Beat, "tick %d beat", tc.tick)
	}
}

func TestDegenerateMeterIsTreatedAsOne(t *testing.T) {
	t.Parallel()

	p := PositionAt(5, 0, 0, true)
	require.Equal(t, 0, p.Sub)
	require.Equal(t, 0, p.Beat)
	require.True(t, p.Accented)
}

func TestDeterminism(t *testing.T) {
	t.Parallel()

	a := PositionAt(123456, 7, 3, true)
	b := PositionAt(123456, 7, 3, true)
	require.Equal(t, a, b)
}
