// services/schedule.go
package services

// Emission is the pure reward-schedule triple. NextEmission is the only
// transition; the ledger service persists the result inside its transaction.
type Emission struct {
	TotalMinted      uint64
	CurrentReward    uint64
	HalvingThreshold uint64
}

// NextEmission applies one reward event and returns the tokens issued for it
// together with the post-event state. The reward captured is the one current
// *before* any halving the event itself triggers.
//
// When the cumulative mint reaches the halving threshold the per-guess
// reward halves (floored at 1, so emission never stops) and the counter
// carries the excess past the boundary forward into the new epoch, so no
// minted tokens are dropped across a halving.
func NextEmission(state Emission) (reward uint64, next Emission) {
	reward = state.CurrentReward
	next = state
	next.TotalMinted += reward
	if next.TotalMinted >= next.HalvingThreshold {
		next.CurrentReward = next.CurrentReward / 2
		if next.CurrentReward == 0 {
			next.CurrentReward = 1
		}
		next.TotalMinted -= next.HalvingThreshold
	}
	return reward, next
}
