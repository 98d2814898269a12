package ai

// Chase returns the move that takes defender i straight toward the attacker.
func Chase(snap Snapshot, i int) Direction {
	return snap.Defender(i).NextDir(snap.Attacker().Location(), true)
}

// Flee returns the move that takes defender i away from the attacker.
func Flee(snap Snapshot, i int) Direction {
	return snap.Defender(i).NextDir(snap.Attacker().Location(), false)
}

// NearPowerPill reports whether the attacker is closer than threshold (by path)
// to its closest remaining power pill. Always false once no pills remain.
func NearPowerPill(snap Snapshot, threshold int) bool {
	pills := snap.PowerPills()
	if len(pills) == 0 {
		return false
	}
	att := snap.Attacker()
	closest, ok := att.ClosestOf(pills)
	if !ok {
		return false
	}
	d := att.Location().PathDistance(closest)
	return d >= 0 && d < threshold
}

// PatrolIndex returns the index into the power-pill list that defender i
// patrols when n pills remain.
//
//	n == 1  -> 0
//	n == 2  -> i-2
//	n >= 3  -> i-1
func PatrolIndex(i, n int) (int, bool) {
	var idx int
	switch {
	case n <= 0:
		return 0, false
	case n == 1:
		idx = 0
	case n == 2:
		idx = i - 2
	default:
		idx = i - 1
	}
	if idx < 0 || idx >= n {
		return 0, false
	}
	return idx, true
}

// PatrolTarget returns the power pill defender i patrols.
func PatrolTarget(pills []Node, i int) (Node, bool) {
	idx, ok := PatrolIndex(i, len(pills))
	if !ok {
		return nil, false
	}
	return pills[idx], true
}

// Patrol returns the move toward defender i's patrol pill.
func Patrol(snap Snapshot, i int) (Direction, bool) {
	target, ok := PatrolTarget(snap.PowerPills(), i)
	if !ok {
		return 0, false
	}
	return snap.Defender(i).NextDir(target, true), true
}

// flankDirection is the extra sideways step applied to a prediction when the
// attacker faces one of the fast-approach directions.
func flankDirection(facing Direction) (Direction, bool) {
	switch facing {
	case Up:
		return Right, true
	case Right:
		return Left, true
	}
	return 0, false
}

// PredictTarget walks steps neighbours ahead of the attacker along its facing,
// then applies the flank step for Up and Right. The prediction is unavailable
// as soon as any step has no neighbour.
func PredictTarget(att Attacker, steps int) (Node, bool) {
	loc := att.Location()
	if loc == nil {
		return nil, false
	}
	facing := att.Direction()
	for k := 0; k < steps; k++ {
		next, ok := loc.Neighbor(facing)
		if !ok {
			return nil, false
		}
		loc = next
	}
	if flank, ok := flankDirection(facing); ok {
		next, ok := loc.Neighbor(flank)
		if !ok {
			return nil, false
		}
		loc = next
	}
	return loc, true
}

// Intercept returns the move toward the predicted attacker position.
func Intercept(snap Snapshot, i, steps int) (Direction, bool) {
	target, ok := PredictTarget(snap.Attacker(), steps)
	if !ok {
		return 0, false
	}
	return snap.Defender(i).NextDir(target, true), true
}

// FarFromAttacker reports whether defender i is more than limit path steps
// away from the attacker.
func FarFromAttacker(snap Snapshot, i, limit int) bool {
	return snap.Defender(i).Location().PathDistance(snap.Attacker().Location()) > limit
}
