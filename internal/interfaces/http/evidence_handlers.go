package http

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *Server) attachEvidence(c *gin.Context) {
	id, good := s.pathID(c, "id")
	if !good {
		return
	}

	// room for multipart framing; oversized files reach the service, which rejects them
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.config.MaxUploadBytes+64<<10)

	header, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.writeError(c, invalid("file", "too large"))
			return
		}
		s.writeError(c, invalid("file", "is required"))
		return
	}

	f, err := header.Open()
	if err != nil {
		s.writeError(c, err)
		return
	}
	defer f.Close()

	content, err := io.ReadAll(io.LimitReader(f, s.config.MaxUploadBytes+1))
	if err != nil {
		s.writeError(c, err)
		return
	}

	evidence, err := s.deps.Evidence.Attach(c.Request.Context(), callerFrom(c), id,
		header.Filename, header.Header.Get("Content-Type"), content)
	if err != nil {
		s.writeError(c, err)
		return
	}
	ok(c, http.StatusCreated, evidence)
}

func (s *Server) listEvidence(c *gin.Context) {
	id, good := s.pathID(c, "id")
	if !good {
		return
	}
	list, err := s.deps.Evidence.List(c.Request.Context(), callerFrom(c), id)
	if err != nil {
		s.writeError(c, err)
		return
	}
	ok(c, http.StatusOK, list)
}

func (s *Server) downloadEvidence(c *gin.Context) {
	id, good := s.pathID(c, "id")
	if !good {
		return
	}
	evidenceID, good := s.pathID(c, "evidenceID")
	if !good {
		return
	}
	evidence, content, err := s.deps.Evidence.Open(c.Request.Context(), callerFrom(c), id, evidenceID)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.Header("Content-Disposition", attachment(evidence.FileName))
	c.Data(http.StatusOK, evidence.MimeType, content)
}
