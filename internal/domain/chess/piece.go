package chess

import (
	"errors"
	"fmt"
	"strings"
)

// Color identifies a side.
type Color uint8

const (
	White Color = iota + 1
	Black
)

// Colors lists both sides in reporting order.
var Colors = [2]Color{White, Black}

// Opponent returns the other side.
func (c Color) Opponent() Color {
	if c == White {
		return Black
	}
	return White
}

func (c Color) String() string {
	switch c {
	case White:
		return "WHITE"
	case Black:
		return "BLACK"
	default:
		return ""
	}
}

func (c Color) MarshalText() ([]byte, error) {
	if c != White && c != Black {
		return nil, fmt.Errorf("invalid color %d", c)
	}
	return []byte(c.String()), nil
}

func (c *Color) UnmarshalText(b []byte) error {
	v, err := ParseColor(string(b))
	if err != nil {
		return err
	}
	*c = v
	return nil
}

var ErrInvalidColor = errors.New("invalid color")

// ParseColor accepts WHITE/BLACK in any case.
func ParseColor(s string) (Color, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "WHITE":
		return White, nil
	case "BLACK":
		return Black, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidColor, s)
	}
}

// PieceType is the kind of a piece. The zero value means "no piece".
type PieceType uint8

const (
	NoPieceType PieceType = iota
	King
	Queen
	Rook
	Bishop
	Knight
	Pawn
)

// PromotionTypes are the pieces a pawn may become on the back rank.
var PromotionTypes = [4]PieceType{Queen, Rook, Bishop, Knight}

var pieceTypeNames = [...]string{"", "KING", "QUEEN", "ROOK", "BISHOP", "KNIGHT", "PAWN"}

func (t PieceType) String() string {
	if int(t) >= len(pieceTypeNames) {
		return ""
	}
	return pieceTypeNames[t]
}

func (t PieceType) MarshalText() ([]byte, error) {
	if t == NoPieceType || int(t) >= len(pieceTypeNames) {
		return nil, fmt.Errorf("invalid piece type %d", t)
	}
	return []byte(t.String()), nil
}

func (t *PieceType) UnmarshalText(b []byte) error {
	s := strings.ToUpper(strings.TrimSpace(string(b)))
	for i, name := range pieceTypeNames {
		if i > 0 && name == s {
			*t = PieceType(i)
			return nil
		}
	}
	return fmt.Errorf("invalid piece type %q", string(b))
}

// Piece is an immutable (color, type) pair.
type Piece struct {
	Color Color     `json:"pieceColor"`
	Type  PieceType `json:"type"`
}

func NewPiece(c Color, t PieceType) Piece { return Piece{Color: c, Type: t} }

// IsZero reports whether p represents an empty square.
func (p Piece) IsZero() bool { return p.Type == NoPieceType }

func (p Piece) String() string {
	if p.IsZero() {
		return "."
	}
	return strings.ToLower(p.Color.String()) + " " + strings.ToLower(p.Type.String())
}
