package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/randomtoy/live-chess/internal/domain/chess"
	"github.com/randomtoy/live-chess/internal/domain/game"
	"github.com/randomtoy/live-chess/internal/ports"
	"github.com/randomtoy/live-chess/internal/usecase"
)

// gameSummaryJSON is one entry of the game list.
type gameSummaryJSON struct {
	GameID        int     `json:"gameID"`
	GameName      string  `json:"gameName"`
	WhiteUsername *string `json:"whiteUsername"`
	BlackUsername *string `json:"blackUsername"`
}

// gameJSON is the detailed wire representation of domain/game.Game.
type gameJSON struct {
	gameSummaryJSON
	FEN          string      `json:"fen"`
	TeamTurn     chess.Color `json:"teamTurn"`
	Playable     bool        `json:"playable"`
	StateVersion int         `json:"stateVersion"`
	CreatedAt    time.Time   `json:"createdAt"`
	UpdatedAt    time.Time   `json:"updatedAt"`
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func toSummaryJSON(g *game.Game) gameSummaryJSON {
	return gameSummaryJSON{
		GameID:        g.ID,
		GameName:      g.Name,
		WhiteUsername: optional(g.WhiteUsername),
		BlackUsername: optional(g.BlackUsername),
	}
}

func toGameJSON(g *game.Game) gameJSON {
	return gameJSON{
		gameSummaryJSON: toSummaryJSON(g),
		FEN:             g.FEN(),
		TeamTurn:        g.Match.Turn(),
		Playable:        g.Match.Playable(),
		StateVersion:    g.StateVersion,
		CreatedAt:       g.CreatedAt,
		UpdatedAt:       g.UpdatedAt,
	}
}

type authJSON struct {
	Username  string `json:"username"`
	AuthToken string `json:"authToken"`
}

// Handlers holds all usecase dependencies.
type Handlers struct {
	accounts *usecase.Accounts
	games    *usecase.Games
	admin    *usecase.Admin
}

func NewHandlers(accounts *usecase.Accounts, games *usecase.Games, admin *usecase.Admin) *Handlers {
	return &Handlers{accounts: accounts, games: games, admin: admin}
}

func token(c echo.Context) string {
	return c.Request().Header.Get(echo.HeaderAuthorization)
}

func gameID(c echo.Context) (int, error) {
	id, err := strconv.Atoi(c.Param("game_id"))
	if err != nil || id <= 0 {
		return 0, ports.ErrNotFound
	}
	return id, nil
}

func (h *Handlers) handleHealthz(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]bool{"ok": true})
}

func (h *Handlers) handleRegister(c echo.Context) error {
	var body struct {
		Username string `json:"username"`
		Password string `json:"password"`
		Email    string `json:"email"`
	}
	if err := c.Bind(&body); err != nil {
		return writeErr(c, err)
	}
	auth, err := h.accounts.Register(c.Request().Context(), c.RealIP(), body.Username, body.Password, body.Email)
	if err != nil {
		return writeErr(c, err)
	}
	return c.JSON(http.StatusOK, authJSON{Username: auth.Username, AuthToken: auth.Token})
}

func (h *Handlers) handleLogin(c echo.Context) error {
	var body struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := c.Bind(&body); err != nil {
		return writeErr(c, err)
	}
	auth, err := h.accounts.Login(c.Request().Context(), c.RealIP(), body.Username, body.Password)
	if err != nil {
		return writeErr(c, err)
	}
	return c.JSON(http.StatusOK, authJSON{Username: auth.Username, AuthToken: auth.Token})
}

func (h *Handlers) handleLogout(c echo.Context) error {
	if err := h.accounts.Logout(c.Request().Context(), c.RealIP(), token(c)); err != nil {
		return writeErr(c, err)
	}
	return c.JSON(http.StatusOK, struct{}{})
}

func (h *Handlers) handleListGames(c echo.Context) error {
	games, err := h.games.List(c.Request().Context(), c.RealIP(), token(c))
	if err != nil {
		return writeErr(c, err)
	}
	out := make([]gameSummaryJSON, len(games))
	for i, g := range games {
		out[i] = toSummaryJSON(g)
	}
	c.Response().Header().Set("Cache-Control", "no-store")
	return c.JSON(http.StatusOK, map[string]any{"games": out})
}

func (h *Handlers) handleCreateGame(c echo.Context) error {
	var body struct {
		GameName string `json:"gameName"`
	}
	if err := c.Bind(&body); err != nil {
		return writeErr(c, err)
	}
	g, err := h.games.Create(c.Request().Context(), c.RealIP(), token(c), body.GameName)
	if err != nil {
		return writeErr(c, err)
	}
	return c.JSON(http.StatusOK, map[string]int{"gameID": g.ID})
}

func (h *Handlers) handleGetGame(c echo.Context) error {
	id, err := gameID(c)
	if err != nil {
		return writeErr(c, err)
	}
	g, err := h.games.Get(c.Request().Context(), c.RealIP(), token(c), id)
	if err != nil {
		return writeErr(c, err)
	}
	c.Response().Header().Set("Cache-Control", "no-store")
	return c.JSON(http.StatusOK, toGameJSON(g))
}

func (h *Handlers) handleJoinGame(c echo.Context) error {
	id, err := gameID(c)
	if err != nil {
		return writeErr(c, err)
	}
	var body struct {
		PlayerColor string `json:"playerColor"`
	}
	if err := c.Bind(&body); err != nil {
		return writeErr(c, err)
	}
	color, err := chess.ParseColor(body.PlayerColor)
	if err != nil {
		return writeErr(c, usecase.ErrBadRequest)
	}
	if err := h.games.Join(c.Request().Context(), c.RealIP(), token(c), id, color); err != nil {
		return writeErr(c, err)
	}
	return c.JSON(http.StatusOK, struct{}{})
}

func (h *Handlers) handleClear(c echo.Context) error {
	if err := h.admin.Clear(c.Request().Context(), c.RealIP()); err != nil {
		return writeErr(c, err)
	}
	return c.JSON(http.StatusOK, struct{}{})
}
