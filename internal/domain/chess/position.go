package chess

import "fmt"

// Position is a square addressed by 1-based row (rank) and column (file).
type Position struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

func Pos(row, col int) Position { return Position{Row: row, Col: col} }

// InBounds reports whether both coordinates lie in [1,8].
func (p Position) InBounds() bool {
	return p.Row >= 1 && p.Row <= 8 && p.Col >= 1 && p.Col <= 8
}

// Offset returns the position shifted by (dr, dc). The result may be off board.
func (p Position) Offset(dr, dc int) Position {
	return Position{Row: p.Row + dr, Col: p.Col + dc}
}

// String renders algebraic notation ("e4"). Off-board positions render as "(r,c)".
func (p Position) String() string {
	if !p.InBounds() {
		return fmt.Sprintf("(%d,%d)", p.Row, p.Col)
	}
	return string([]byte{byte('a' + p.Col - 1), byte('0' + p.Row)})
}

// ParseSquare parses algebraic notation such as "e4".
func ParseSquare(s string) (Position, error) {
	if len(s) != 2 || s[0] < 'a' || s[0] > 'h' || s[1] < '1' || s[1] > '8' {
		return Position{}, fmt.Errorf("invalid square %q", s)
	}
	return Position{Row: int(s[1] - '0'), Col: int(s[0]-'a') + 1}, nil
}

// MustSquare is ParseSquare for literals; it panics on malformed input.
func MustSquare(s string) Position {
	p, err := ParseSquare(s)
	if err != nil {
		panic(err)
	}
	return p
}
