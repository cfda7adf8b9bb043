// Package server exposes the chat service over HTTP and WebSocket.
package server

import (
	"encoding/base64"
	"log"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/safespace-ai/safespace/models"
	"github.com/safespace-ai/safespace/sessions"
	"github.com/safespace-ai/safespace/stores"
	"github.com/safespace-ai/safespace/tts"
)

const errNotConfigured = "Server not configured. Please set GROQ_API_KEY in your environment and restart."

// Options wires the server to its collaborators.
type Options struct {
	// Agent is nil when the LLM credential is missing; chat routes then
	// return a configuration error instead of crashing.
	Agent    sessions.AgentInterface
	Registry *sessions.Registry
	Store    stores.MessageStore
	// Synth enables voice responses; nil disables them.
	Synth *tts.Synthesizer
}

// Server hosts the chat UI and API.
type Server struct {
	Router   *gin.Engine
	opts     Options
	logger   *log.Logger
	upgrader websocket.Upgrader
}

// New builds the router and registers all routes.
func New(opts Options) *Server {
	s := &Server{
		Router: gin.Default(),
		opts:   opts,
		logger: log.New(os.Stdout, "[SERVER] ", log.LstdFlags),
		upgrader: websocket.Upgrader{
			// The chat UI is served from this same process.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}

	s.Router.GET("/", s.index)

	api := s.Router.Group("/api/v1")
	api.POST("/session", s.startSession)
	api.DELETE("/session/:sessionID", s.clearSession)
	api.POST("/chat/:sessionID", s.ask)
	api.GET("/chat/:sessionID/history", s.history)

	s.Router.GET("/ws/chat/:sessionID", s.chatWebSocket)

	return s
}

// Run starts the HTTP server.
func (s *Server) Run(addr string) error {
	return s.Router.Run(addr)
}

func (s *Server) index(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", indexHTML)
}

func (s *Server) startSession(c *gin.Context) {
	var req models.StartSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	profile, greeting, err := s.opts.Registry.Start(req.Name, req.Phone)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, models.StartSessionResponse{
		SessionID: profile.ID,
		Greeting:  greeting,
	})
}

func (s *Server) clearSession(c *gin.Context) {
	sessionID := c.Param("sessionID")
	if err := s.opts.Registry.Clear(sessionID); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) ask(c *gin.Context) {
	sessionID := c.Param("sessionID")

	profile, ok := s.opts.Registry.Lookup(sessionID)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown session; start a session first"})
		return
	}

	var req models.AskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if s.opts.Agent == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": errNotConfigured})
		return
	}

	session := sessions.NewChatSession(profile, s.opts.Agent, s.opts.Store)
	responseText, toolCalled, err := session.RunInteraction(req.Message)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	responseMode := req.ResponseMode
	if responseMode == "" {
		responseMode = "chat"
	}

	resp := models.AskResponse{
		Response:     responseText,
		ToolCalled:   toolCalled,
		ResponseMode: responseMode,
	}

	if responseMode == "voice" {
		if s.opts.Synth == nil {
			s.logger.Printf("Voice response requested but TTS is not configured; returning text only")
			resp.ResponseMode = "chat"
		} else if responseText != "" {
			audio, err := s.opts.Synth.Synthesize(c.Request.Context(), responseText)
			if err != nil {
				s.logger.Printf("TTS synthesis failed: %v; returning text only", err)
				resp.ResponseMode = "chat"
			} else {
				resp.Audio = base64.StdEncoding.EncodeToString(audio.Data)
				resp.AudioMimeType = audio.MimeType
			}
		}
	}

	c.JSON(http.StatusOK, resp)
}

func (s *Server) history(c *gin.Context) {
	sessionID := c.Param("sessionID")

	profile, ok := s.opts.Registry.Lookup(sessionID)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown session"})
		return
	}

	session := sessions.NewChatSession(profile, s.opts.Agent, s.opts.Store)
	history, err := session.GetChatHistory()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"history": history})
}

// wsInbound is a single client message on the chat WebSocket.
type wsInbound struct {
	Message string `json:"message"`
}

func (s *Server) chatWebSocket(c *gin.Context) {
	sessionID := c.Param("sessionID")

	profile, ok := s.opts.Registry.Lookup(sessionID)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown session"})
		return
	}

	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.Printf("WebSocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	agentSession := sessions.NewAgentSession(profile, conn, s.opts.Agent, s.opts.Store)

	for {
		var inbound wsInbound
		if err := conn.ReadJSON(&inbound); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Printf("WebSocket read error: %v", err)
			}
			return
		}
		if inbound.Message == "" {
			continue
		}

		if s.opts.Agent == nil {
			agentSession.Writer.WriteError(errNotConfigured)
			continue
		}

		if err := agentSession.RunInteraction(inbound.Message); err != nil {
			s.logger.Printf("WebSocket interaction error: %v", err)
			if agentErr, ok := err.(*sessions.AgentError); ok && agentErr.Fatal {
				return
			}
		}
	}
}
