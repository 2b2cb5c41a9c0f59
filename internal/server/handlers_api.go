package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/skip2/go-qrcode"

	"music-round/internal/logging"
	"music-round/internal/trivia"
)

type createGameRequest struct {
	Name            string `json:"name" binding:"required,name"`
	Mode            string `json:"mode" binding:"omitempty,oneof=standard daily battle_royale"`
	RoundCount      *int   `json:"round_count"`
	SecondsPerRound *int   `json:"seconds_per_round"`
	HintsPerPlayer  *int   `json:"hints_per_player"`
	Playlist        string `json:"playlist" binding:"omitempty,playlist"`
}

type joinRequest struct {
	Name string `json:"name" binding:"required,name"`
}

type playerRequest struct {
	PlayerID string `json:"player_id" binding:"required"`
}

type readyRequest struct {
	PlayerID string `json:"player_id" binding:"required"`
	Ready    *bool  `json:"ready"`
}

type answerRequest struct {
	PlayerID string `json:"player_id" binding:"required"`
	Artist   string `json:"artist" binding:"omitempty,guess"`
	Title    string `json:"title" binding:"omitempty,guess"`
}

var (
	nameMessages = bindMessages{
		"Name": {
			"required": "name is required",
			"name":     "name must be 1-20 letters, numbers or punctuation",
		},
	}
	createGameMessages = bindMessages{
		"Name":     nameMessages["Name"],
		"Mode":     {"oneof": "unknown game mode"},
		"Playlist": {"playlist": "playlist contains unsupported characters"},
	}
	playerMessages = bindMessages{
		"PlayerID": {"required": "player_id is required"},
	}
	answerMessages = bindMessages{
		"PlayerID": playerMessages["PlayerID"],
		"Artist":   {"guess": "artist must be 120 characters or fewer"},
		"Title":    {"guess": "title must be 120 characters or fewer"},
	}
)

func (s *Server) handleCreateGame(c *gin.Context) {
	var req createGameRequest
	if !bindJSON(c, &req, createGameMessages, "invalid game request") {
		return
	}
	playlist := req.Playlist
	if playlist == "" {
		playlist = s.cfg.DefaultPlaylist
	}
	game, host, err := s.engine.CreateGame(c.Request.Context(), trivia.CreateGameRequest{
		HostName: req.Name,
		Mode:     trivia.Mode(req.Mode),
		Settings: trivia.SettingsInput{
			RoundCount:      req.RoundCount,
			SecondsPerRound: req.SecondsPerRound,
			HintsPerPlayer:  req.HintsPerPlayer,
			PlaylistTag:     playlist,
		},
	})
	if err != nil {
		s.writeEngineError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"game_id":       game.ID,
		"join_code":     game.JoinCode,
		"mode":          game.Mode,
		"player_id":     host.ID,
		"session_token": host.SessionToken,
	})
}

func (s *Server) handleGetGame(c *gin.Context) {
	snap, err := s.engine.Snapshot(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.writeEngineError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

// handleJoinGame accepts either a join code or a game id in the path.
func (s *Server) handleJoinGame(c *gin.Context) {
	var req joinRequest
	if !bindJSON(c, &req, nameMessages, "invalid join request") {
		return
	}
	game, player, err := s.engine.JoinGame(c.Request.Context(), c.Param("id"), req.Name)
	if err != nil {
		s.writeEngineError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"game_id":       game.ID,
		"player_id":     player.ID,
		"session_token": player.SessionToken,
	})
}

func (s *Server) handleReady(c *gin.Context) {
	var req readyRequest
	if !bindJSON(c, &req, playerMessages, "invalid ready request") {
		return
	}
	ready := true
	if req.Ready != nil {
		ready = *req.Ready
	}
	player, err := s.engine.SetReady(c.Request.Context(), c.Param("id"), req.PlayerID, ready)
	if err != nil {
		s.writeEngineError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"player": player})
}

func (s *Server) handleStartGame(c *gin.Context) {
	var req playerRequest
	if !bindJSON(c, &req, playerMessages, "invalid start request") {
		return
	}
	game, err := s.engine.StartGame(c.Request.Context(), c.Param("id"), req.PlayerID)
	if err != nil {
		s.writeEngineError(c, err)
		return
	}
	logging.FromContext(c.Request.Context()).Infow("game started via api", "game_id", game.ID)
	c.JSON(http.StatusOK, gin.H{"game": game})
}

func (s *Server) handleSubmitAnswer(c *gin.Context) {
	var req answerRequest
	if !bindJSON(c, &req, answerMessages, "invalid answer") {
		return
	}
	result, err := s.engine.Submit(c.Request.Context(), c.Param("id"), req.PlayerID, req.Artist, req.Title)
	if err != nil {
		s.writeEngineError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) handleUseHint(c *gin.Context) {
	var req playerRequest
	if !bindJSON(c, &req, playerMessages, "invalid hint request") {
		return
	}
	result, err := s.engine.UseHint(c.Request.Context(), c.Param("id"), req.PlayerID)
	if err != nil {
		s.writeEngineError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) handleJoinQRCode(c *gin.Context) {
	snap, err := s.engine.Snapshot(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.writeEngineError(c, err)
		return
	}
	png, err := qrcode.Encode(s.joinURL(snap.Game.JoinCode), qrcode.Medium, 256)
	if err != nil {
		s.writeEngineError(c, err)
		return
	}
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "image/png", png)
}

func (s *Server) joinURL(code string) string {
	return strings.TrimRight(s.cfg.PublicBaseURL, "/") + "/?code=" + code
}
