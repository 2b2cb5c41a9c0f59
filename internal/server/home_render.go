package server

import (
	"github.com/a-h/templ"
	"github.com/gin-gonic/gin"

	"music-round/internal/web"
)

var homeModes = []web.ModeOption{
	{Value: "standard", Label: "Standard", Description: "Everyone hears the same clips and races for points."},
	{Value: "daily", Label: "Daily challenge", Description: "Five songs, the same for everyone today. Solo only."},
	{Value: "battle_royale", Label: "Battle royale", Description: "Three lives each. A wrong answer knocks you out."},
}

func (s *Server) handleHome(c *gin.Context) {
	page := web.HomePage{
		Modes:         homeModes,
		PublicBaseURL: s.cfg.PublicBaseURL,
	}
	templ.Handler(web.Home(page)).ServeHTTP(c.Writer, c.Request)
}
