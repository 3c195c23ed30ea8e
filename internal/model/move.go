package model

type Move struct {
	From Position `json:"from"`
	To   Position `json:"to"`
}

func (m Move) String() string {
	return m.From.String() + "->" + m.To.String()
}

// Ply records a move that was applied to a game.
type Ply struct {
	Move
	Piece    Piece     `json:"piece"`
	Player   string    `json:"player"`
	Captured *Position `json:"captured,omitempty"`
}
