package model

type Slot string

const (
	SlotA Slot = "a"
	SlotB Slot = "b"
)

// Players holds the two seats of a game, keyed by player id.
type Players struct {
	A string `json:"a"`
	B string `json:"b"`
}

func (p Players) SlotOf(playerID string) (Slot, bool) {
	switch {
	case playerID == "":
		return "", false
	case p.A == playerID:
		return SlotA, true
	case p.B == playerID:
		return SlotB, true
	}
	return "", false
}

func (p Players) Full() bool {
	return p.A != "" && p.B != ""
}

// Opponent returns the other seated player, or "" if the seat is open.
func (p Players) Opponent(playerID string) string {
	switch playerID {
	case p.A:
		return p.B
	case p.B:
		return p.A
	}
	return ""
}

// Team is the side a seat plays: a moves the checkers, b the officers.
func (s Slot) Team() Team {
	switch s {
	case SlotA:
		return CheckerTeam
	case SlotB:
		return OfficerTeam
	}
	return NoTeam
}
