package pick

// TurnResult is the outcome of advancing the clock past a committed pick.
type TurnResult struct {
	// NextPosition is the 1-based seat now on the clock, nil once the draft
	// is complete.
	NextPosition *int
	// DraftCompleted reports whether every pick has been made.
	DraftCompleted bool
}

// NextTurn computes the seat on the clock after pick currentPickNumber has
// been committed, in snake order: odd rounds run 1..N, even rounds N..1.
func NextTurn(currentPickNumber, numParticipants, numRounds int) TurnResult {
	totalPicks := numParticipants * numRounds
	nextPickNumber := currentPickNumber + 1

	if nextPickNumber > totalPicks {
		return TurnResult{DraftCompleted: true}
	}

	nextRound := (nextPickNumber + numParticipants - 1) / numParticipants
	nextPickInRound := (nextPickNumber - 1) % numParticipants // 0-based

	var pos int
	if nextRound%2 == 1 {
		pos = nextPickInRound + 1
	} else {
		pos = numParticipants - nextPickInRound
	}
	return TurnResult{NextPosition: &pos}
}
