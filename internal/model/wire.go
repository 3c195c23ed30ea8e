package model

import (
	"encoding/json"
	"errors"
	"fmt"
)

// EmptyToken marks an empty square in the wire grid. The synchronized
// document cannot tell a missing array element from a hole, so empty squares
// are sent as this token instead of null.
const EmptyToken = "_"

var (
	ErrMalformedBoard = errors.New("board must be 8 rows of 8 cells")
	ErrUnknownPiece   = errors.New("unknown piece token")
)

// WireGrid is the array-of-arrays board stored in the game document.
type WireGrid [][]string

func Encode(b Board) WireGrid {
	grid := make(WireGrid, BoardSize)
	for row := range grid {
		grid[row] = make([]string, BoardSize)
		for col := range grid[row] {
			if b[row][col] == Empty {
				grid[row][col] = EmptyToken
			} else {
				grid[row][col] = b[row][col].Symbol()
			}
		}
	}
	return grid
}

func Decode(grid WireGrid) (Board, error) {
	var b Board
	if len(grid) != BoardSize {
		return b, fmt.Errorf("%w: got %d rows", ErrMalformedBoard, len(grid))
	}
	for row, cells := range grid {
		if len(cells) != BoardSize {
			return b, fmt.Errorf("%w: row %d has %d cells", ErrMalformedBoard, row, len(cells))
		}
		for col, token := range cells {
			if token == EmptyToken || token == "" {
				continue
			}
			piece, ok := symbolPieces[token]
			if !ok {
				return b, fmt.Errorf("%w %q at (%d,%d)", ErrUnknownPiece, token, row, col)
			}
			b[row][col] = piece
		}
	}
	return b, nil
}

// DecodeJSON decodes a raw document value. Anything that is not an array of
// string arrays is reported as ErrMalformedBoard.
func DecodeJSON(data []byte) (Board, error) {
	var grid WireGrid
	if err := json.Unmarshal(data, &grid); err != nil {
		return Board{}, fmt.Errorf("%w: %v", ErrMalformedBoard, err)
	}
	return Decode(grid)
}

func (b Board) MarshalJSON() ([]byte, error) {
	return json.Marshal(Encode(b))
}

func (b *Board) UnmarshalJSON(data []byte) error {
	decoded, err := DecodeJSON(data)
	if err != nil {
		return err
	}
	*b = decoded
	return nil
}
