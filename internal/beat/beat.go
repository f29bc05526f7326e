// Package beat maps a monotonically increasing tick counter onto
// bar-relative positions for a given meter and subdivision.
package beat

// Position describes where a tick falls within the current bar.
type Position struct {
	Sub         int // 0..subdivision-1 within the beat
	Beat        int // 0..beatsPerBar-1 within the bar
	SubDownbeat bool
	BarDownbeat bool
	Accented    bool
}

// PositionAt classifies tick for the given meter. Integer arithmetic only, so
// identical inputs always produce identical outputs. Out-of-range meter values
// are treated as their nearest valid value.
func PositionAt(tick uint64, beatsPerBar, subdivision int, accentDownbeat bool) Position {
	if beatsPerBar < 1 {
		beatsPerBar = 1
	}
	if subdivision < 1 {
		subdivision = 1
	}
	sub := int(tick % uint64(subdivision))
	bt := int((tick / uint64(subdivision)) % uint64(beatsPerBar))
	p := Position{
		Sub:         sub,
		Beat:        bt,
		SubDownbeat: sub == 0,
	}
	p.BarDownbeat = p.SubDownbeat && bt == 0
	p.Accented = accentDownbeat && p.BarDownbeat
	return p
}
