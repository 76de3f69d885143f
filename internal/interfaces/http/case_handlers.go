package http

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/garyjia/mediation-desk/internal/application/port"
	"github.com/garyjia/mediation-desk/internal/application/workflow"
	"github.com/garyjia/mediation-desk/internal/domain/entity"
	"github.com/garyjia/mediation-desk/pkg/domainerr"
)

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Error     string `json:"error,omitempty"`
}

// RespondRequest is the respondent's answer
type RespondRequest struct {
	Accepted *bool  `json:"accepted"`
	Response string `json:"response"`
}

// NominateRequest lists witnesses to nominate
type NominateRequest struct {
	Witnesses []workflow.WitnessNomination `json:"witnesses"`
}

// StatementRequest carries a witness statement
type StatementRequest struct {
	Statement string `json:"statement"`
}

// NoteRequest carries the optional free text of resolve, unresolved and cancel
type NoteRequest struct {
	Note   string `json:"note"`
	Reason string `json:"reason"`
}

// StatusRequest is an admin override
type StatusRequest struct {
	Status string `json:"status"`
	Reason string `json:"reason"`
}

// LinkRespondentRequest names the respondent's registered email
type LinkRespondentRequest struct {
	Email string `json:"email"`
}

// ListCasesRequest represents query parameters for listing cases.
// Number narrows the list to the one case carrying that case number.
type ListCasesRequest struct {
	Number string `form:"number"`
	Status string `form:"status"`
	Limit  int    `form:"limit"`
	Offset int    `form:"offset"`
}

func (s *Server) healthCheck(c *gin.Context) {
	resp := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	if s.deps.HealthCheck != nil {
		if err := s.deps.HealthCheck(c.Request.Context()); err != nil {
			s.logger.Error("Health check failed", "error", err)
			resp.Status = "unhealthy"
			resp.Error = err.Error()
			c.JSON(http.StatusServiceUnavailable, Response{Success: false, Data: resp})
			return
		}
	}
	ok(c, http.StatusOK, resp)
}

func (s *Server) createCase(c *gin.Context) {
	var in workflow.CreateCaseInput
	if !s.bind(c, &in, true) {
		return
	}
	created, err := s.deps.Engine.CreateCase(c.Request.Context(), callerFrom(c), in)
	if err != nil {
		s.writeError(c, err)
		return
	}
	ok(c, http.StatusCreated, created)
}

func (s *Server) listCases(c *gin.Context) {
	var req ListCasesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		s.writeError(c, invalid("query", "invalid query parameters"))
		return
	}
	if req.Number != "" {
		s.findCaseByNumber(c, req.Number)
		return
	}
	cases, err := s.deps.Engine.ListCases(c.Request.Context(), callerFrom(c), port.CaseFilter{
		Status: req.Status,
		Limit:  req.Limit,
		Offset: req.Offset,
	})
	if err != nil {
		s.writeError(c, err)
		return
	}
	ok(c, http.StatusOK, cases)
}

// findCaseByNumber answers a number lookup as a list of zero or one cases
func (s *Server) findCaseByNumber(c *gin.Context, number string) {
	found, err := s.deps.Engine.GetCaseByNumber(c.Request.Context(), callerFrom(c), number)
	switch {
	case domainerr.CodeOf(err) == domainerr.CodeNotFound:
		ok(c, http.StatusOK, []*entity.Case{})
	case err != nil:
		s.writeError(c, err)
	default:
		ok(c, http.StatusOK, []*entity.Case{found})
	}
}

func (s *Server) getCase(c *gin.Context) {
	id, good := s.pathID(c, "id")
	if !good {
		return
	}
	found, err := s.deps.Engine.GetCase(c.Request.Context(), callerFrom(c), id)
	if err != nil {
		s.writeError(c, err)
		return
	}
	ok(c, http.StatusOK, found)
}

func (s *Server) getHistory(c *gin.Context) {
	id, good := s.pathID(c, "id")
	if !good {
		return
	}
	entries, err := s.deps.Engine.GetCaseHistory(c.Request.Context(), callerFrom(c), id)
	if err != nil {
		s.writeError(c, err)
		return
	}
	ok(c, http.StatusOK, entries)
}

func (s *Server) exportHistory(c *gin.Context) {
	id, good := s.pathID(c, "id")
	if !good {
		return
	}
	out, err := s.deps.Export.ExportHistory(c.Request.Context(), callerFrom(c), id)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.Header("Content-Disposition", attachment(out.FileName))
	c.Data(http.StatusOK, out.ContentType, out.Data)
}

func (s *Server) listWitnesses(c *gin.Context) {
	id, good := s.pathID(c, "id")
	if !good {
		return
	}
	witnesses, err := s.deps.Engine.ListWitnesses(c.Request.Context(), callerFrom(c), id)
	if err != nil {
		s.writeError(c, err)
		return
	}
	ok(c, http.StatusOK, witnesses)
}

func (s *Server) getPanel(c *gin.Context) {
	id, good := s.pathID(c, "id")
	if !good {
		return
	}
	panel, err := s.deps.Engine.GetPanel(c.Request.Context(), callerFrom(c), id)
	if err != nil {
		s.writeError(c, err)
		return
	}
	ok(c, http.StatusOK, panel)
}

func (s *Server) linkRespondent(c *gin.Context) {
	id, good := s.pathID(c, "id")
	if !good {
		return
	}
	var req LinkRespondentRequest
	if !s.bind(c, &req, true) {
		return
	}
	updated, err := s.deps.Engine.LinkRespondent(c.Request.Context(), callerFrom(c), id, req.Email)
	if err != nil {
		s.writeError(c, err)
		return
	}
	ok(c, http.StatusOK, updated)
}

func (s *Server) respond(c *gin.Context) {
	id, good := s.pathID(c, "id")
	if !good {
		return
	}
	var req RespondRequest
	if !s.bind(c, &req, true) {
		return
	}
	if req.Accepted == nil {
		s.writeError(c, invalid("accepted", "is required"))
		return
	}
	updated, err := s.deps.Engine.RespondToCase(c.Request.Context(), callerFrom(c), id, *req.Accepted, req.Response)
	if err != nil {
		s.writeError(c, err)
		return
	}
	ok(c, http.StatusOK, updated)
}

func (s *Server) nominateWitnesses(c *gin.Context) {
	id, good := s.pathID(c, "id")
	if !good {
		return
	}
	var req NominateRequest
	if !s.bind(c, &req, true) {
		return
	}
	witnesses, err := s.deps.Engine.NominateWitnesses(c.Request.Context(), callerFrom(c), id, req.Witnesses)
	if err != nil {
		s.writeError(c, err)
		return
	}
	ok(c, http.StatusCreated, witnesses)
}

func (s *Server) submitStatement(c *gin.Context) {
	id, good := s.pathID(c, "id")
	if !good {
		return
	}
	var req StatementRequest
	if !s.bind(c, &req, true) {
		return
	}
	witness, err := s.deps.Engine.SubmitWitnessStatement(c.Request.Context(), callerFrom(c), id, req.Statement)
	if err != nil {
		s.writeError(c, err)
		return
	}
	ok(c, http.StatusOK, witness)
}

func (s *Server) createPanel(c *gin.Context) {
	id, good := s.pathID(c, "id")
	if !good {
		return
	}
	var req workflow.PanelMembers
	if !s.bind(c, &req, true) {
		return
	}
	panel, err := s.deps.Engine.CreatePanel(c.Request.Context(), callerFrom(c), id, req)
	if err != nil {
		s.writeError(c, err)
		return
	}
	ok(c, http.StatusCreated, panel)
}

func (s *Server) beginMediation(c *gin.Context) {
	id, good := s.pathID(c, "id")
	if !good {
		return
	}
	updated, err := s.deps.Engine.BeginMediation(c.Request.Context(), callerFrom(c), id)
	if err != nil {
		s.writeError(c, err)
		return
	}
	ok(c, http.StatusOK, updated)
}

func (s *Server) resolve(c *gin.Context) {
	id, good := s.pathID(c, "id")
	if !good {
		return
	}
	var req NoteRequest
	if !s.bind(c, &req, false) {
		return
	}
	updated, err := s.deps.Engine.Resolve(c.Request.Context(), callerFrom(c), id, req.Note)
	if err != nil {
		s.writeError(c, err)
		return
	}
	ok(c, http.StatusOK, updated)
}

func (s *Server) markUnresolved(c *gin.Context) {
	id, good := s.pathID(c, "id")
	if !good {
		return
	}
	var req NoteRequest
	if !s.bind(c, &req, false) {
		return
	}
	updated, err := s.deps.Engine.MarkUnresolved(c.Request.Context(), callerFrom(c), id, req.Reason)
	if err != nil {
		s.writeError(c, err)
		return
	}
	ok(c, http.StatusOK, updated)
}

func (s *Server) setStatus(c *gin.Context) {
	id, good := s.pathID(c, "id")
	if !good {
		return
	}
	var req StatusRequest
	if !s.bind(c, &req, true) {
		return
	}
	updated, err := s.deps.Engine.SetStatus(c.Request.Context(), callerFrom(c), id, req.Status, req.Reason)
	if err != nil {
		s.writeError(c, err)
		return
	}
	ok(c, http.StatusOK, updated)
}

func (s *Server) cancel(c *gin.Context) {
	id, good := s.pathID(c, "id")
	if !good {
		return
	}
	var req NoteRequest
	if !s.bind(c, &req, false) {
		return
	}
	updated, err := s.deps.Engine.CancelCase(c.Request.Context(), callerFrom(c), id, req.Reason)
	if err != nil {
		s.writeError(c, err)
		return
	}
	ok(c, http.StatusOK, updated)
}

// bind decodes a JSON body. An empty body is accepted unless required.
func (s *Server) bind(c *gin.Context, dst interface{}, required bool) bool {
	err := c.ShouldBindJSON(dst)
	switch {
	case err == nil:
		return true
	case errors.Is(err, io.EOF) && !required:
		return true
	case errors.Is(err, io.EOF):
		s.writeError(c, invalid("body", "is required"))
	default:
		s.writeError(c, invalid("body", "malformed JSON"))
	}
	return false
}

func (s *Server) pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		s.writeError(c, invalid(name, "must be a positive integer"))
		return 0, false
	}
	return id, true
}

func attachment(fileName string) string {
	return mime.FormatMediaType("attachment", map[string]string{"filename": fileName})
}
