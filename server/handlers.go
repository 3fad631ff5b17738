package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spektr-org/inkdash/artifact"
	"github.com/spektr-org/inkdash/dashboard"
	"github.com/spektr-org/inkdash/inmates"
	"github.com/spektr-org/inkdash/selection"
	"github.com/spektr-org/inkdash/textmine"
)

// Handlers serves the dashboard API.
type Handlers struct {
	session   *dashboard.Session
	artifacts artifact.Store
	logger    *zap.Logger
}

// NewHandlers creates handlers over a session and an artifact store. A nil
// store serves no artifacts; otherwise only image and HTML artifacts are
// exposed, never the data files that may share the store root.
func NewHandlers(session *dashboard.Session, artifacts artifact.Store, logger *zap.Logger) *Handlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	if artifacts != nil {
		artifacts = artifact.Restrict(artifacts)
	}
	return &Handlers{session: session, artifacts: artifacts, logger: logger}
}

// getOrCreateRequestID gets or creates a request ID.
func getOrCreateRequestID(c *gin.Context) string {
	if id := c.GetString(requestIDKey); id != "" {
		return id
	}
	requestID := c.GetHeader("X-Request-ID")
	if requestID == "" {
		requestID = uuid.NewString()
	}
	c.Header("X-Request-ID", requestID)
	c.Set(requestIDKey, requestID)
	return requestID
}

func (h *Handlers) requestLogger(c *gin.Context, handler string) *zap.Logger {
	return h.logger.With(zap.String("request_id", getOrCreateRequestID(c)), zap.String("handler", handler))
}

// HandleHealth handles GET /healthz.
func (h *Handlers) HandleHealth(c *gin.Context) {
	t := h.session.Tables()
	c.JSON(http.StatusOK, HealthResponse{
		Status:  "ok",
		Version: h.session.Selection().Version,
		RowCount: map[string]int{
			inmates.TableOffenses:  len(t.Offenses),
			inmates.TableCharges:   len(t.Charges),
			inmates.TableTattoos:   len(t.Tattoos),
			inmates.TableSummaries: len(t.Summaries),
			inmates.TableTopics:    len(t.Topics),
			inmates.TableEmbedding: len(t.Embedding),
		},
	})
}

// HandleOptions handles GET /api/v1/options.
func (h *Handlers) HandleOptions(c *gin.Context) {
	c.JSON(http.StatusOK, h.session.Options())
}

// HandleGetSelection handles GET /api/v1/selection.
func (h *Handlers) HandleGetSelection(c *gin.Context) {
	c.JSON(http.StatusOK, SelectionResponse{Selection: h.session.Selection()})
}

// HandlePatchSelection handles PATCH /api/v1/selection.
//
// Request Body:
//
//	selection.Change (omitted fields keep their value)
//
// Response:
//
//	200 OK: SelectionUpdateResponse
//	400 Bad Request: malformed body or rejected selection
func (h *Handlers) HandlePatchSelection(c *gin.Context) {
	logger := h.requestLogger(c, "HandlePatchSelection")

	var req selection.Change
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Invalid request body", zap.Error(err))
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body", Code: CodeInvalidRequest})
		return
	}

	d, err := h.session.Apply(req)
	if err != nil {
		h.writeError(c, logger, err)
		return
	}
	logger.Info("Selection changed", zap.Uint64("version", d.Version))
	c.JSON(http.StatusOK, SelectionUpdateResponse{Selection: d.Selection, Dashboard: d})
}

// HandleDashboard handles GET /api/v1/dashboard.
func (h *Handlers) HandleDashboard(c *gin.Context) {
	c.JSON(http.StatusOK, h.session.Dashboard())
}

// HandlePreview handles GET /api/v1/dashboard/preview.
//
// Query Parameters:
//
//	charges: repeated; replaces the charge selection
//	county, tattooLocation: replace the respective filter
//	rankLimit: integer in [2, 71]
//
// The active selection is not changed.
func (h *Handlers) HandlePreview(c *gin.Context) {
	logger := h.requestLogger(c, "HandlePreview")

	change, err := changeFromQuery(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: CodeInvalidRequest})
		return
	}
	d, err := h.session.Preview(change)
	if err != nil {
		h.writeError(c, logger, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

func changeFromQuery(c *gin.Context) (selection.Change, error) {
	var change selection.Change
	if v, ok := c.GetQueryArray("charges"); ok {
		change.Charges = &v
	}
	if v, ok := c.GetQuery("county"); ok {
		change.County = &v
	}
	if v, ok := c.GetQuery("tattooLocation"); ok {
		change.TattooLocation = &v
	}
	if v, ok := c.GetQuery("rankLimit"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return change, errors.New("rankLimit must be an integer")
		}
		change.RankLimit = &n
	}
	return change, nil
}

// HandleTattooWords handles GET /api/v1/words/tattoos. Without a location
// the active selection's location is used.
func (h *Handlers) HandleTattooWords(c *gin.Context) {
	var q WordsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid query parameters", Code: CodeInvalidRequest})
		return
	}
	location := q.Location
	if location == "" {
		location = h.session.Selection().TattooLocation
	}
	words := textmine.TattooFrequencies(h.session.Tables().Tattoos, selection.TattooFilter(location))
	c.JSON(http.StatusOK, WordsResponse{Location: location, Words: limit(words, q.Limit)})
}

// HandleChargeWords handles GET /api/v1/words/charges.
func (h *Handlers) HandleChargeWords(c *gin.Context) {
	var q WordsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid query parameters", Code: CodeInvalidRequest})
		return
	}
	words := h.session.Dashboard().Tattoos.ChargeCloud.Words
	c.JSON(http.StatusOK, WordsResponse{Words: limit(words, q.Limit)})
}

func limit(words []textmine.WordCount, n int) []textmine.WordCount {
	if n > 0 && len(words) > n {
		return words[:n]
	}
	return words
}

// HandleTopics handles GET /api/v1/topics.
func (h *Handlers) HandleTopics(c *gin.Context) {
	topics := h.session.Tables().Topics
	if topics == nil {
		topics = []inmates.Topic{}
	}
	c.JSON(http.StatusOK, TopicsResponse{Topics: topics})
}

// HandleListArtifacts handles GET /api/v1/artifacts.
func (h *Handlers) HandleListArtifacts(c *gin.Context) {
	logger := h.requestLogger(c, "HandleListArtifacts")
	if h.artifacts == nil {
		c.JSON(http.StatusOK, ArtifactsResponse{Artifacts: []artifact.Info{}})
		return
	}
	infos, err := h.artifacts.List(c.Request.Context(), "")
	if err != nil {
		h.writeError(c, logger, err)
		return
	}
	if infos == nil {
		infos = []artifact.Info{}
	}
	c.JSON(http.StatusOK, ArtifactsResponse{Artifacts: infos})
}

// HandleArtifact handles GET /artifacts/*key and streams the stored bytes.
func (h *Handlers) HandleArtifact(c *gin.Context) {
	logger := h.requestLogger(c, "HandleArtifact")
	if h.artifacts == nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "no artifact store configured", Code: CodeNotFound})
		return
	}

	info, body, err := h.artifacts.Get(c.Request.Context(), c.Param("key"))
	if err != nil {
		h.writeError(c, logger, err)
		return
	}
	defer body.Close()
	c.DataFromReader(http.StatusOK, info.Size, info.ContentType, body, nil)
}

// writeError maps domain errors to status codes.
func (h *Handlers) writeError(c *gin.Context, logger *zap.Logger, err error) {
	switch {
	case errors.Is(err, selection.ErrInvalid):
		logger.Warn("Invalid selection", zap.Error(err))
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: CodeInvalidSelection})
	case errors.Is(err, artifact.ErrInvalidKey):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: CodeInvalidRequest})
	case errors.Is(err, artifact.ErrNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error(), Code: CodeNotFound})
	default:
		logger.Error("Request failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error(), Code: CodeInternal})
	}
}

// HandleIndex handles GET /.
func (h *Handlers) HandleIndex(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", indexHTML)
}
