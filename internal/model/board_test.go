package model

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestInitialLayout(t *testing.T) {
	b := InitialLayout()

	wantBackRank := []Piece{Rook, Knight, Bishop, Queen, King, Bishop, Knight, Rook}
	for col, want := range wantBackRank {
		if got := b[0][col]; got != want {
			t.Errorf("row 0 col %d: expected %s, got %s", col, want, got)
		}
		if got := b[0][col]; got != b[0][BoardSize-1-col] && col != 3 && col != 4 {
			t.Errorf("back rank not mirrored at col %d", col)
		}
	}

	for col := 0; col < BoardSize; col++ {
		if b[1][col] != Pawn {
			t.Errorf("row 1 col %d: expected pawn, got %s", col, b[1][col])
		}
		if b[7][col] != Checker {
			t.Errorf("row 7 col %d: expected checker, got %s", col, b[7][col])
		}
		wantRow5, wantRow6 := Empty, Checker
		if col%2 == 0 {
			wantRow5, wantRow6 = Checker, Empty
		}
		if b[5][col] != wantRow5 {
			t.Errorf("row 5 col %d: expected %s, got %s", col, wantRow5, b[5][col])
		}
		if b[6][col] != wantRow6 {
			t.Errorf("row 6 col %d: expected %s, got %s", col, wantRow6, b[6][col])
		}
		for row := 2; row <= 4; row++ {
			if b[row][col] != Empty {
				t.Errorf("(%d,%d): expected empty, got %s", row, col, b[row][col])
			}
		}
	}

	if b != InitialLayout() {
		t.Error("InitialLayout is not deterministic")
	}
}

func TestPieceTeam(t *testing.T) {
	tests := []struct {
		piece Piece
		team  Team
	}{
		{Empty, NoTeam},
		{Checker, CheckerTeam},
		{Rook, OfficerTeam},
		{Knight, OfficerTeam},
		{Bishop, OfficerTeam},
		{Queen, OfficerTeam},
		{King, OfficerTeam},
		{Pawn, OfficerTeam},
	}
	for _, tt := range tests {
		t.Run(tt.piece.String(), func(t *testing.T) {
			if got := tt.piece.Team(); got != tt.team {
				t.Errorf("expected team %d, got %d", tt.team, got)
			}
		})
	}
}

func TestSameTeam(t *testing.T) {
	tests := []struct {
		name string
		a, b Piece
		want bool
	}{
		{"checkers", Checker, Checker, true},
		{"officers of different kinds", Rook, Pawn, true},
		{"same officer kind", Queen, Queen, true},
		{"checker and officer", Checker, King, false},
		{"officer and checker", Knight, Checker, false},
		{"empty and checker", Empty, Checker, false},
		{"officer and empty", Bishop, Empty, false},
		{"empty and empty", Empty, Empty, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SameTeam(tt.a, tt.b); got != tt.want {
				t.Errorf("SameTeam(%s, %s) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestPieceTextRoundTrip(t *testing.T) {
	for p := Empty; p <= Pawn; p++ {
		text, err := p.MarshalText()
		if err != nil {
			t.Fatalf("marshal %d: %v", p, err)
		}
		var got Piece
		if err := got.UnmarshalText(text); err != nil {
			t.Fatalf("unmarshal %q: %v", text, err)
		}
		if got != p {
			t.Errorf("expected %s, got %s", p, got)
		}
	}

	var p Piece
	if err := p.UnmarshalText([]byte("dragon")); err == nil {
		t.Error("expected error for unknown piece name")
	}
}

func TestPlyJSON(t *testing.T) {
	ply := Ply{
		Move:   Move{From: Position{Row: 6, Col: 1}, To: Position{Row: 4, Col: 3}},
		Piece:  Checker,
		Player: "alice",
	}
	data, err := json.Marshal(ply)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(data), `"piece":"checker"`) {
		t.Errorf("expected piece name in JSON, got %s", data)
	}
	if !strings.Contains(string(data), `"from":{"row":6,"col":1}`) {
		t.Errorf("expected flattened move in JSON, got %s", data)
	}
}

func TestBoardString(t *testing.T) {
	lines := strings.Split(strings.TrimRight(InitialLayout().String(), "\n"), "\n")
	if len(lines) != BoardSize+1 {
		t.Fatalf("expected %d lines, got %d", BoardSize+1, len(lines))
	}
	if lines[1] != "0 ♜ ♞ ♝ ♛ ♚ ♝ ♞ ♜" {
		t.Errorf("unexpected back rank line %q", lines[1])
	}
	if lines[3] != "2 . . . . . . . ." {
		t.Errorf("unexpected empty line %q", lines[3])
	}
}
