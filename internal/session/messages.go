package session

import (
	"encoding/json"
	"fmt"

	"github.com/randomtoy/live-chess/internal/domain/chess"
	"github.com/randomtoy/live-chess/internal/domain/game"
)

// CommandType is the kind of an inbound command.
type CommandType string

const (
	Connect  CommandType = "CONNECT"
	MakeMove CommandType = "MAKE_MOVE"
	Leave    CommandType = "LEAVE"
	Resign   CommandType = "RESIGN"
)

// Command is one inbound frame from a client.
type Command struct {
	CommandType CommandType `json:"commandType"`
	AuthToken   string      `json:"authToken"`
	GameID      int         `json:"gameID"`
	Move        *chess.Move `json:"move,omitempty"`
}

// DecodeCommand parses a JSON command. Unknown command types are rejected
// here so the manager only sees the four supported kinds.
func DecodeCommand(data []byte) (Command, error) {
	var cmd Command
	if err := json.Unmarshal(data, &cmd); err != nil {
		return Command{}, reject(reasonMalformed, fmt.Errorf("%w: %v", ErrMalformedCommand, err))
	}
	switch cmd.CommandType {
	case Connect, MakeMove, Leave, Resign:
		return cmd, nil
	default:
		return Command{}, reject(reasonUnknownCommand, ErrUnknownCommand)
	}
}

// MessageType is the kind of an outbound message.
type MessageType string

const (
	TypeLoadGame     MessageType = "LOAD_GAME"
	TypeNotification MessageType = "NOTIFICATION"
	TypeError        MessageType = "ERROR"
)

// GameView is the full client-visible state of a game. Board rows run from
// row 1 to row 8; empty squares are null.
type GameView struct {
	GameID        int                `json:"gameID"`
	WhiteUsername string             `json:"whiteUsername,omitempty"`
	BlackUsername string             `json:"blackUsername,omitempty"`
	Board         [8][8]*chess.Piece `json:"board"`
	TeamTurn      chess.Color        `json:"teamTurn"`
	Playable      bool               `json:"playable"`
	FEN           string             `json:"fen"`
}

// ServerMessage is one outbound frame.
type ServerMessage struct {
	ServerMessageType MessageType `json:"serverMessageType"`
	Game              *GameView   `json:"game,omitempty"`
	Message           string      `json:"message,omitempty"`
	ErrorMessage      string      `json:"errorMessage,omitempty"`
}

func LoadGameMessage(g *game.Game) ServerMessage {
	return ServerMessage{
		ServerMessageType: TypeLoadGame,
		Game: &GameView{
			GameID:        g.ID,
			WhiteUsername: g.WhiteUsername,
			BlackUsername: g.BlackUsername,
			Board:         g.Match.Board().Rows(),
			TeamTurn:      g.Match.Turn(),
			Playable:      g.Match.Playable(),
			FEN:           g.FEN(),
		},
	}
}

func NotificationMessage(text string) ServerMessage {
	return ServerMessage{ServerMessageType: TypeNotification, Message: text}
}

func ErrorMessage(text string) ServerMessage {
	return ServerMessage{ServerMessageType: TypeError, ErrorMessage: text}
}
