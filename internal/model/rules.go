package model

// IsLegal reports whether m is a legal move on b. It never mutates b.
func IsLegal(b Board, m Move) bool {
	if !m.From.InBounds() || !m.To.InBounds() {
		return false
	}
	if m.From == m.To {
		return false
	}
	piece := b.At(m.From)
	switch {
	case piece == Empty:
		return false
	case piece == Checker:
		return isValidCheckerMove(&b, m)
	default:
		return isValidOfficerMove(&b, piece, m)
	}
}

// ApplyMove returns the board after m. The caller must check IsLegal first;
// an illegal move yields an unspecified board.
func ApplyMove(b Board, m Move) Board {
	if sq, ok := CapturedSquare(b, m); ok {
		b.Set(sq, Empty)
	}
	b.Set(m.To, b.At(m.From))
	b.Set(m.From, Empty)
	return b
}

// CapturedSquare returns the square a checker jump or sideways capture
// removes. Officers capture by landing, so they never report one.
func CapturedSquare(b Board, m Move) (Position, bool) {
	if b.At(m.From) != Checker {
		return Position{}, false
	}
	dr, dc := m.To.Row-m.From.Row, m.To.Col-m.From.Col
	if abs(dr) != 2 && abs(dc) != 2 {
		return Position{}, false
	}
	return Position{Row: m.From.Row + sign(dr), Col: m.From.Col + sign(dc)}, true
}

// LegalMoves lists every legal destination for the piece on from.
func LegalMoves(b Board, from Position) []Position {
	moves := []Position{}
	if b.At(from) == Empty {
		return moves
	}
	for row := 0; row < BoardSize; row++ {
		for col := 0; col < BoardSize; col++ {
			to := Position{Row: row, Col: col}
			if IsLegal(b, Move{From: from, To: to}) {
				moves = append(moves, to)
			}
		}
	}
	return moves
}

// Checkers only move toward row 0.
func isValidCheckerMove(b *Board, m Move) bool {
	dr, dc := m.To.Row-m.From.Row, m.To.Col-m.From.Col
	if dr > 0 {
		return false
	}
	target := b.At(m.To)

	switch {
	case dr == -1 && abs(dc) == 1:
		return target == Empty
	case dr == -2 && (dc == -2 || dc == 0 || dc == 2):
		mid := Position{Row: m.From.Row + dr/2, Col: m.From.Col + dc/2}
		return b.At(mid).IsOfficer() && target == Empty
	case dr == 0 && abs(dc) == 2:
		mid := Position{Row: m.From.Row, Col: m.From.Col + sign(dc)}
		return b.At(mid).IsOfficer() && target == Empty
	}
	return false
}

func isValidOfficerMove(b *Board, piece Piece, m Move) bool {
	if SameTeam(piece, b.At(m.To)) {
		return false
	}
	switch piece {
	case Rook:
		return isValidRookMove(b, m)
	case Knight:
		return isValidKnightMove(m)
	case Bishop:
		return isValidBishopMove(b, m)
	case Queen:
		return isValidRookMove(b, m) || isValidBishopMove(b, m)
	case King:
		return abs(m.To.Row-m.From.Row) <= 1 && abs(m.To.Col-m.From.Col) <= 1
	case Pawn:
		return isValidPawnMove(b, m)
	}
	return false
}

func isValidRookMove(b *Board, m Move) bool {
	return (m.From.Row == m.To.Row || m.From.Col == m.To.Col) && isPathClear(b, m)
}

func isValidBishopMove(b *Board, m Move) bool {
	return abs(m.To.Row-m.From.Row) == abs(m.To.Col-m.From.Col) && isPathClear(b, m)
}

func isValidKnightMove(m Move) bool {
	dr, dc := abs(m.To.Row-m.From.Row), abs(m.To.Col-m.From.Col)
	return (dr == 2 && dc == 1) || (dr == 1 && dc == 2)
}

// Pawns advance toward row 7, opposite to checkers.
func isValidPawnMove(b *Board, m Move) bool {
	if m.To.Row-m.From.Row != 1 {
		return false
	}
	dc := abs(m.To.Col - m.From.Col)
	target := b.At(m.To)
	return (dc == 0 && target == Empty) || (dc == 1 && target != Empty)
}

// isPathClear walks the squares strictly between from and to. Only
// meaningful for rank, file and diagonal lines.
func isPathClear(b *Board, m Move) bool {
	rowStep, colStep := sign(m.To.Row-m.From.Row), sign(m.To.Col-m.From.Col)
	pos := Position{Row: m.From.Row + rowStep, Col: m.From.Col + colStep}
	for pos != m.To {
		if !pos.InBounds() || b.At(pos) != Empty {
			return false
		}
		pos = Position{Row: pos.Row + rowStep, Col: pos.Col + colStep}
	}
	return true
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

func sign(x int) int {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	}
	return 0
}
