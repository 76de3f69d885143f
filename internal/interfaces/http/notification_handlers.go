package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/garyjia/mediation-desk/pkg/domainerr"
)

func (s *Server) listNotifications(c *gin.Context) {
	unreadOnly := c.Query("unread") == "true"
	list, err := s.deps.Notifications.List(c.Request.Context(), callerFrom(c), unreadOnly)
	if err != nil {
		s.writeError(c, err)
		return
	}
	ok(c, http.StatusOK, list)
}

func (s *Server) unreadCount(c *gin.Context) {
	count, err := s.deps.Notifications.UnreadCount(c.Request.Context(), callerFrom(c))
	if err != nil {
		s.writeError(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"unread": count})
}

func (s *Server) markRead(c *gin.Context) {
	id, good := s.pathID(c, "notificationID")
	if !good {
		return
	}
	n, err := s.deps.Notifications.MarkRead(c.Request.Context(), callerFrom(c), id)
	if err != nil {
		s.writeError(c, err)
		return
	}
	ok(c, http.StatusOK, n)
}

func (s *Server) markAllRead(c *gin.Context) {
	count, err := s.deps.Notifications.MarkAllRead(c.Request.Context(), callerFrom(c))
	if err != nil {
		s.writeError(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"marked": count})
}

func (s *Server) deleteNotification(c *gin.Context) {
	id, good := s.pathID(c, "notificationID")
	if !good {
		return
	}
	if err := s.deps.Notifications.Delete(c.Request.Context(), callerFrom(c), id); err != nil {
		s.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// streamNotifications upgrades to a websocket. Browsers cannot set headers on
// the upgrade request, so the token comes from the query string.
func (s *Server) streamNotifications(c *gin.Context) {
	token := strings.TrimSpace(c.Query("token"))
	if token == "" {
		s.writeError(c, domainerr.New(domainerr.CodeUnauthorized, "missing token"))
		return
	}
	caller, err := s.deps.Tokens.Identify(token)
	if err != nil {
		s.writeError(c, err)
		return
	}
	s.deps.Push.Serve(c.Writer, c.Request, caller.UserID)
}
