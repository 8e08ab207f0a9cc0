package tictactoe

import (
	"encoding/json"
	"fmt"
)

const BoardSize = 9

// Symbol is a mark placed on the board. The zero value is an empty cell.
type Symbol string

const (
	PlayerX Symbol = "X"
	PlayerO Symbol = "O"

	EmptyCell Symbol = ""
)

// IsPlayer reports whether s is X or O.
func (s Symbol) IsPlayer() bool {
	return s == PlayerX || s == PlayerO
}

// Opponent returns the other player's symbol.
func (s Symbol) Opponent() Symbol {
	if s == PlayerX {
		return PlayerO
	}
	return PlayerX
}

// MarshalJSON encodes the empty symbol as null.
func (s Symbol) MarshalJSON() ([]byte, error) {
	if s == EmptyCell {
		return []byte("null"), nil
	}

	return json.Marshal(string(s))
}

// Board is a row-major 3x3 grid.
type Board [BoardSize]Symbol

// IsFull reports whether no empty cell is left.
func (that Board) IsFull() bool {
	for _, cell := range that {
		if cell == EmptyCell {
			return false
		}
	}

	return true
}

// EmptyCells returns the indices of all empty cells in ascending order.
func (that Board) EmptyCells() []int {
	cells := make([]int, 0, BoardSize)
	for i, cell := range that {
		if cell == EmptyCell {
			cells = append(cells, i)
		}
	}

	return cells
}

// MarshalJSON encodes empty cells as null, matching what browser clients expect.
func (that Board) MarshalJSON() ([]byte, error) {
	cells := make([]*string, BoardSize)
	for i, cell := range that {
		if cell == EmptyCell {
			continue
		}

		mark := string(cell)
		cells[i] = &mark
	}

	return json.Marshal(cells)
}

func (that *Board) UnmarshalJSON(data []byte) error {
	var cells []*string
	if err := json.Unmarshal(data, &cells); err != nil {
		return fmt.Errorf("failed to unmarshal board: %w", err)
	}

	if len(cells) != BoardSize {
		return fmt.Errorf("%w: board has %d cells", ErrInvalidBoard, len(cells))
	}

	for i, cell := range cells {
		that[i] = EmptyCell
		if cell != nil {
			that[i] = Symbol(*cell)
		}
	}

	return nil
}
