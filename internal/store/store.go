// Package store keeps the synchronized document of each game: the encoded
// board, whose turn it is and the two player seats.
//
// The board is kept as the raw wire grid so that whatever was written by a
// client comes back unchanged. Deciding what to do with a grid that no longer
// decodes is left to the caller.
package store

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/benbeisheim/deckmate-backend/internal/model"
)

var ErrNotFound = errors.New("game document not found")

// Store defines the interface for persisting game documents
type Store interface {
	// Save writes the document, replacing any previous revision
	Save(rec Record) error

	// Load retrieves a document by game ID
	Load(id string) (Record, error)

	// Delete removes a document
	Delete(id string) error

	// ListAll returns the IDs of all stored documents
	ListAll() ([]string, error)

	// Exists checks if a document exists
	Exists(id string) bool
}

// Record is the stored form of one game.
type Record struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	CreatedAt   time.Time       `json:"createdAt"`
	Board       json.RawMessage `json:"board"`
	CurrentTurn string          `json:"currentTurn"`
	Players     model.Players   `json:"players"`
	MoveCount   int             `json:"moveCount"`
	LastMove    *model.Ply      `json:"lastMove,omitempty"`
}
