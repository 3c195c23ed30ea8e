package model

import (
	"fmt"
	"strings"
)

const BoardSize = 8

type Piece uint8

const (
	Empty Piece = iota
	Checker
	Rook
	Knight
	Bishop
	Queen
	King
	Pawn
)

// Team groups pieces that never capture each other.
type Team uint8

const (
	NoTeam Team = iota
	CheckerTeam
	OfficerTeam
)

var pieceSymbols = map[Piece]string{
	Checker: "●",
	Rook:    "♜",
	Knight:  "♞",
	Bishop:  "♝",
	Queen:   "♛",
	King:    "♚",
	Pawn:    "♟",
}

var symbolPieces = func() map[string]Piece {
	m := make(map[string]Piece, len(pieceSymbols))
	for p, s := range pieceSymbols {
		m[s] = p
	}
	return m
}()

func (p Piece) Team() Team {
	switch p {
	case Empty:
		return NoTeam
	case Checker:
		return CheckerTeam
	default:
		return OfficerTeam
	}
}

func (p Piece) IsOfficer() bool {
	return p.Team() == OfficerTeam
}

// Symbol returns the wire token for the piece, or "" for Empty.
func (p Piece) Symbol() string {
	return pieceSymbols[p]
}

func (p Piece) String() string {
	switch p {
	case Empty:
		return "empty"
	case Checker:
		return "checker"
	case Rook:
		return "rook"
	case Knight:
		return "knight"
	case Bishop:
		return "bishop"
	case Queen:
		return "queen"
	case King:
		return "king"
	case Pawn:
		return "pawn"
	}
	return fmt.Sprintf("piece(%d)", uint8(p))
}

func (p Piece) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *Piece) UnmarshalText(text []byte) error {
	for candidate := Empty; candidate <= Pawn; candidate++ {
		if candidate.String() == string(text) {
			*p = candidate
			return nil
		}
	}
	return fmt.Errorf("%w %q", ErrUnknownPiece, string(text))
}

// SameTeam reports whether a and b belong to the same team. Empty is never
// on a team with anything.
func SameTeam(a, b Piece) bool {
	return a != Empty && b != Empty && a.Team() == b.Team()
}

type Position struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

func (p Position) InBounds() bool {
	return p.Row >= 0 && p.Row < BoardSize && p.Col >= 0 && p.Col < BoardSize
}

func (p Position) String() string {
	return fmt.Sprintf("(%d,%d)", p.Row, p.Col)
}

// Board is row-major: row 0 is the officers' back rank, row 7 the checkers'.
type Board [BoardSize][BoardSize]Piece

var officerBackRank = [BoardSize]Piece{Rook, Knight, Bishop, Queen, King, Bishop, Knight, Rook}

func InitialLayout() Board {
	var b Board
	for col := 0; col < BoardSize; col++ {
		b[0][col] = officerBackRank[col]
		b[1][col] = Pawn
		b[7][col] = Checker
	}
	for col := 0; col < BoardSize; col += 2 {
		b[5][col] = Checker
	}
	for col := 1; col < BoardSize; col += 2 {
		b[6][col] = Checker
	}
	return b
}

// At returns the piece at p, or Empty when p is off the board.
func (b *Board) At(p Position) Piece {
	if !p.InBounds() {
		return Empty
	}
	return b[p.Row][p.Col]
}

func (b *Board) Set(p Position, piece Piece) {
	b[p.Row][p.Col] = piece
}

func (b Board) String() string {
	var sb strings.Builder
	sb.WriteString("  0 1 2 3 4 5 6 7\n")
	for row := 0; row < BoardSize; row++ {
		fmt.Fprintf(&sb, "%d", row)
		for col := 0; col < BoardSize; col++ {
			sb.WriteByte(' ')
			if b[row][col] == Empty {
				sb.WriteByte('.')
			} else {
				sb.WriteString(b[row][col].Symbol())
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
