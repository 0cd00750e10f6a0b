package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bubblekit/bubblekit"
	"github.com/bubblekit/bubblekit/internal/apierrors"
	"github.com/bubblekit/bubblekit/internal/logger"
)

// userIDHeader identifies the requesting user. Absent or blank maps to
// "anonymous".
const userIDHeader = "User-Id"

type streamRequest struct {
	ConversationID string `json:"conversationId"`
	Message        string `json:"message"`
}

func requestUserID(c *gin.Context) string {
	return bubblekit.NormalizeUserID(c.GetHeader(userIDHeader))
}

func (s *Server) handleListConversations(c *gin.Context) {
	list := s.runtime.ConversationList(requestUserID(c))
	c.JSON(http.StatusOK, gin.H{"conversations": list})
}

func (s *Server) handleMessages(c *gin.Context) {
	conversationID := c.Param("conversationId")
	ctx := logger.WithConversationID(c.Request.Context(), conversationID)
	records, err := s.runtime.History(ctx, conversationID, requestUserID(c))
	if err != nil {
		s.log.WithContext(ctx).Error("history handler failed", "error", err)
		apierrors.AbortWithInternal(c, "failed to load history", nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"conversationId": conversationID,
		"messages":       records,
	})
}

// handleStream opens the NDJSON stream. Attach conflicts surface as a
// plain 409 before any stream byte is written; once streaming starts, all
// failures travel in-band as terminal frames.
func (s *Server) handleStream(c *gin.Context) {
	var req streamRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			apierrors.AbortWithBadRequest(c, "invalid request body", nil)
			return
		}
	}

	stream, err := s.controller.OpenStream(bubblekit.StreamRequest{
		ConversationID: req.ConversationID,
		Message:        req.Message,
		UserID:         c.GetHeader(userIDHeader),
	})
	if err != nil {
		if errors.Is(err, bubblekit.ErrStreamAlreadyAttached) {
			apierrors.AbortWithConflict(c, "stream already active for this conversation",
				map[string]interface{}{"conversationId": req.ConversationID})
			return
		}
		s.log.Error("failed to open stream", "error", err)
		apierrors.AbortWithInternal(c, "failed to open stream", nil)
		return
	}

	c.Header("Content-Type", "application/x-ndjson")
	c.Header("Cache-Control", "no-cache, no-transform")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	ctx := logger.WithConversationID(c.Request.Context(), stream.ConversationID())
	ctx = logger.WithStreamID(ctx, stream.ID())
	s.log.WithContext(ctx).Debug("serving stream")

	stream.Serve(ctx, c.Writer)
}

// handleCancel is idempotent: cancelling a finished or unknown stream is
// not an error, the status in the body tells the caller which case it hit.
func (s *Server) handleCancel(c *gin.Context) {
	status := "unknown"
	if s.controller.Cancel(c.Param("streamId")) {
		status = "cancelled"
	}
	c.JSON(http.StatusOK, gin.H{"status": status})
}
