package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// Handler serves the daemon's HTTP API.
type Handler struct {
	Hub  *Hub
	HTTP *http.Client
	Log  zerolog.Logger
}

// GetState is the startup full-state fetch: the latest value of every
// collection the hub has seen, in one response. Collections never published
// are simply absent and the client falls back to its defaults.
func (h *Handler) GetState(c *gin.Context) {
	c.JSON(http.StatusOK, h.Hub.Latest())
}

// Healthz reports liveness.
func (h *Handler) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "clients": h.Hub.clientCount()})
}

// Routes mounts the API on a gin engine.
func (h *Handler) Routes(r *gin.Engine) {
	r.GET("/healthz", h.Healthz)
	r.GET("/ws", h.Hub.ServeWS)

	api := r.Group("/api")
	{
		api.GET("/state", h.GetState)
		api.POST("/google/sync-sheets", h.SyncSheets)
		api.GET("/github/repos", h.GithubRepos)
	}
}

// CORS allows the browser build of the app to talk to the daemon from any
// origin.
func CORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
