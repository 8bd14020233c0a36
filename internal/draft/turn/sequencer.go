// Package turn computes snake draft ordering. Everything here is a pure
// function of the pick number and the draft's seat geometry, so callers can
// derive "whose turn is it" without a precomputed order table.
package turn

import "github.com/galadraft/galadraft/internal/models"

// Direction is the seat iteration direction within one round.
type Direction string

const (
	DirectionForward Direction = "FORWARD"
	DirectionReverse Direction = "REVERSE"
)

// Turn locates one pick in the snake order.
type Turn struct {
	PickNumber  int       `json:"pick_number"`
	RoundNumber int       `json:"round_number"`
	SeatNumber  int       `json:"seat_number"`
	Direction   Direction `json:"direction"`
}

// At returns the turn for a 1-based pickNumber in a draft with seatCount
// seats. Odd rounds run seats 1..N, even rounds N..1; a final partial round
// under FULL_POOL takes the leading seats of that round's direction, which
// falls out of the same arithmetic.
func At(pickNumber, seatCount int) Turn {
	round := (pickNumber-1)/seatCount + 1
	idx := (pickNumber - 1) % seatCount

	t := Turn{
		PickNumber:  pickNumber,
		RoundNumber: round,
	}
	if round%2 == 1 {
		t.Direction = DirectionForward
		t.SeatNumber = idx + 1
	} else {
		t.Direction = DirectionReverse
		t.SeatNumber = seatCount - idx
	}
	return t
}

// TotalPicks computes the pick count for a draft. Under FULL_POOL any
// remainder beyond the even seatCount*picksPerSeat split extends the draft
// by one partial round; under UNDRAFTED the leftovers stay unpicked.
func TotalPicks(seatCount, picksPerSeat, poolSize int, remainder models.RemainderStrategy) int {
	total := seatCount * picksPerSeat
	if remainder == models.RemainderFullPool && poolSize > total {
		total = poolSize
	}
	return total
}

// Rounds returns the number of rounds (final one possibly partial) needed
// for totalPicks picks across seatCount seats.
func Rounds(totalPicks, seatCount int) int {
	return (totalPicks + seatCount - 1) / seatCount
}
