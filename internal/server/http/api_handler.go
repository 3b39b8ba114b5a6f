package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"tradingagents/internal/logging"
	"tradingagents/internal/server/app"
	"tradingagents/internal/server/ports"
)

// APIHandler serves the analysis session REST endpoints.
type APIHandler struct {
	coordinator *app.Coordinator
	logger      logging.Logger
}

// NewAPIHandler creates the REST handler.
func NewAPIHandler(coordinator *app.Coordinator) *APIHandler {
	return &APIHandler{
		coordinator: coordinator,
		logger:      logging.NewComponentLogger("APIHandler"),
	}
}

// HandleRoot reports that the API is up.
func (h *APIHandler) HandleRoot(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "TradingAgents API is running"})
}

// HandleHealth is the health check endpoint.
func (h *APIHandler) HandleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

// HandleStartAnalysis creates a new analysis session and returns its id
// before any heavy work begins.
func (h *APIHandler) HandleStartAnalysis(c *gin.Context) {
	var req ports.AnalysisRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sessionID, err := h.coordinator.StartAnalysis(c.Request.Context(), req)
	if err != nil {
		h.logger.Error("Failed to start analysis for %s: %v", req.Ticker, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to start analysis"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"session_id": sessionID,
		"status":     "started",
	})
}

// HandleGetAnalysis returns the full session snapshot.
func (h *APIHandler) HandleGetAnalysis(c *gin.Context) {
	session, err := h.coordinator.GetSession(c.Request.Context(), c.Param("session_id"))
	if err != nil {
		h.respondSessionError(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

// HandleGetReports returns the derived reports view: report texts plus the
// outputs of every agent that produced one.
func (h *APIHandler) HandleGetReports(c *gin.Context) {
	session, err := h.coordinator.GetSession(c.Request.Context(), c.Param("session_id"))
	if err != nil {
		h.respondSessionError(c, err)
		return
	}

	agentOutputs := make(map[string]string)
	for agent, status := range session.AgentStatuses {
		if status.Output != "" {
			agentOutputs[agent] = status.Output
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"session_id":    session.SessionID,
		"ticker":        session.Ticker,
		"analysis_date": session.AnalysisDate,
		"reports":       session.Reports,
		"agent_outputs": agentOutputs,
		"is_complete":   session.IsComplete,
	})
}

// HandleDeleteAnalysis removes the session and cancels its in-flight run.
func (h *APIHandler) HandleDeleteAnalysis(c *gin.Context) {
	err := h.coordinator.DeleteSession(c.Request.Context(), c.Param("session_id"))
	if err != nil {
		h.respondSessionError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Session deleted"})
}

// HandleCleanupSessions triggers an on-demand sweep.
func (h *APIHandler) HandleCleanupSessions(c *gin.Context) {
	h.coordinator.Sweep(c.Request.Context())

	sessions, err := h.coordinator.ListSessions(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list sessions"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":         "Session cleanup completed",
		"active_sessions": len(sessions),
	})
}

// HandleDebugSessions summarizes every live session.
func (h *APIHandler) HandleDebugSessions(c *gin.Context) {
	sessions, err := h.coordinator.ListSessions(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list sessions"})
		return
	}

	summaries := make(map[string]gin.H, len(sessions))
	for _, session := range sessions {
		summaries[session.SessionID] = gin.H{
			"ticker":        session.Ticker,
			"is_complete":   session.IsComplete,
			"current_agent": session.CurrentAgent,
			"agent_count":   len(session.AgentStatuses),
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"active_sessions": len(sessions),
		"sessions":        summaries,
	})
}

func (h *APIHandler) respondSessionError(c *gin.Context, err error) {
	if errors.Is(err, ports.ErrSessionNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Session not found"})
		return
	}
	h.logger.Error("Session request failed: %v", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}
