package api

import (
	"errors"
	"fmt"
	"math"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yourorg/isp-sorter/internal/combo"
	"github.com/yourorg/isp-sorter/internal/filter"
	znmetrics "github.com/yourorg/isp-sorter/internal/metrics"
	"github.com/yourorg/isp-sorter/internal/pipeline"
	"github.com/yourorg/isp-sorter/internal/provider"
	"github.com/yourorg/isp-sorter/internal/types"
)

const topDomains = 10

type Handler struct {
	store    *Store
	orch     *pipeline.Orchestrator
	maxBytes int64
	log      *zap.Logger
}

func NewHandler(store *Store, orch *pipeline.Orchestrator, maxBytes int64, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{store: store, orch: orch, maxBytes: maxBytes, log: log}
}

// Register mounts the session routes on g.
func (h *Handler) Register(g *gin.RouterGroup) {
	g.GET("/providers", h.GetProviders)
	g.POST("/analyze", h.Analyze)
	g.GET("/sessions/:id", h.GetSession)
	g.DELETE("/sessions/:id", h.DeleteSession)
	g.GET("/sessions/:id/emails", h.GetEmails)
	g.GET("/sessions/:id/export", h.Export)
}

type providerShare struct {
	types.ProviderCount
	Share float64 `json:"share"`
}

type summaryResponse struct {
	SessionID      string              `json:"session_id"`
	Filename       string              `json:"filename"`
	CreatedAt      time.Time           `json:"created_at"`
	Parse          types.ParseStats    `json:"parse"`
	TotalCount     int                 `json:"total_count"`
	ProviderCounts []providerShare     `json:"provider_counts"`
	BounceSummary  types.BounceSummary `json:"bounce_summary"`
	BounceShares   map[string]float64  `json:"bounce_shares"`
	TopDomains     []types.DomainCount `json:"top_domains"`
}

// share is count as a percentage of total, rounded to one decimal.
func share(count, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(count)/float64(total)*1000) / 10
}

func summarize(s *Session) summaryResponse {
	res := s.Result
	pcs := make([]providerShare, len(res.ProviderCounts))
	for i, pc := range res.ProviderCounts {
		pcs[i] = providerShare{ProviderCount: pc, Share: share(pc.Count, res.TotalCount)}
	}
	return summaryResponse{
		SessionID:      s.ID,
		Filename:       s.Filename,
		CreatedAt:      s.CreatedAt,
		Parse:          s.Parse,
		TotalCount:     res.TotalCount,
		ProviderCounts: pcs,
		BounceSummary:  res.BounceSummary,
		BounceShares: map[string]float64{
			string(types.StatusValid):   share(res.BounceSummary.Valid, res.TotalCount),
			string(types.StatusBounced): share(res.BounceSummary.Bounced, res.TotalCount),
			string(types.StatusUnknown): share(res.BounceSummary.Unknown, res.TotalCount),
		},
		TopDomains: provider.TopDomains(res.AllRecords, topDomains),
	}
}

func (h *Handler) GetProviders(c *gin.Context) {
	tags := provider.Tags()
	out := make([]gin.H, len(tags))
	for i, t := range tags {
		out[i] = gin.H{"name": t, "color": provider.Color(t)}
	}
	c.JSON(http.StatusOK, gin.H{"providers": out})
}

// validateUpload mirrors the uploader's rules: a .txt file within the size cap.
func validateUpload(hdr *multipart.FileHeader, maxBytes int64) (int, error) {
	if !strings.HasSuffix(hdr.Filename, ".txt") {
		return http.StatusBadRequest, errors.New("please upload a text (.txt) file")
	}
	if maxBytes > 0 && hdr.Size > maxBytes {
		return http.StatusRequestEntityTooLarge, fmt.Errorf("file is too large; maximum size is %dMB", maxBytes>>20)
	}
	return 0, nil
}

// Analyze parses and processes an uploaded combo file. Passing session_id
// replaces that session's previous result.
func (h *Handler) Analyze(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "File upload error: " + err.Error()})
		return
	}
	if code, err := validateUpload(fh, h.maxBytes); err != nil {
		c.JSON(code, gin.H{"error": err.Error()})
		return
	}

	id, err := h.store.Begin(c.PostForm("session_id"))
	if err != nil {
		c.JSON(sessionErrStatus(err), gin.H{"error": err.Error()})
		return
	}
	sess, err := h.process(c, id, fh)
	if err != nil {
		h.store.Abort(id)
		if errors.Is(err, types.ErrNoRecords) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
			return
		}
		h.log.Error("processing failed", zap.String("session", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to process the file"})
		return
	}
	h.store.Finish(sess)
	c.JSON(http.StatusOK, summarize(sess))
}

func (h *Handler) process(c *gin.Context, id string, fh *multipart.FileHeader) (*Session, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	recs, st, err := combo.ParseReader(f)
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	znmetrics.LinesParsed.Add(float64(st.Lines))
	znmetrics.LinesDropped.Add(float64(st.Dropped))
	if len(recs) == 0 {
		return nil, types.ErrNoRecords
	}

	res, err := h.orch.Process(c.Request.Context(), recs, func(percent int, status string) {
		if percent%25 == 0 {
			h.log.Debug("processing", zap.String("session", id), zap.Int("percent", percent), zap.String("status", status))
		}
	})
	if err != nil {
		return nil, fmt.Errorf("process upload: %w", err)
	}
	h.log.Info("upload processed", zap.String("session", id), zap.Int("records", res.TotalCount), zap.Int("dropped", st.Dropped))
	return &Session{ID: id, Filename: fh.Filename, CreatedAt: time.Now().UTC(), Parse: st, Result: res}, nil
}

func sessionErrStatus(err error) int {
	switch {
	case errors.Is(err, ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrSessionBusy):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) session(c *gin.Context) (*Session, bool) {
	sess, err := h.store.Get(c.Param("id"))
	if err != nil {
		c.JSON(sessionErrStatus(err), gin.H{"error": err.Error()})
		return nil, false
	}
	return sess, true
}

func (h *Handler) GetSession(c *gin.Context) {
	if sess, ok := h.session(c); ok {
		c.JSON(http.StatusOK, summarize(sess))
	}
}

func (h *Handler) DeleteSession(c *gin.Context) {
	if err := h.store.Delete(c.Param("id")); err != nil {
		c.JSON(sessionErrStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "session deleted"})
}

// criteria reads ?providers=gmail,yahoo&include_bounced=false.
// include_bounced defaults to true.
func criteria(c *gin.Context) (filter.Criteria, error) {
	crit := filter.Criteria{Providers: filter.ParseProviders(c.Query("providers")), IncludeBounced: true}
	if v := c.Query("include_bounced"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return crit, fmt.Errorf("invalid include_bounced %q", v)
		}
		crit.IncludeBounced = b
	}
	return crit, nil
}

func (h *Handler) filtered(c *gin.Context) ([]string, bool) {
	sess, ok := h.session(c)
	if !ok {
		return nil, false
	}
	crit, err := criteria(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, false
	}
	return crit.Apply(sess.Result.AllRecords), true
}

func (h *Handler) GetEmails(c *gin.Context) {
	emails, ok := h.filtered(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(emails), "emails": emails})
}

// Export serves the filtered emails as a text attachment.
func (h *Handler) Export(c *gin.Context) {
	emails, ok := h.filtered(c)
	if !ok {
		return
	}
	if len(emails) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": types.ErrNothingToExport.Error()})
		return
	}
	name := filter.ExportFilename(time.Now())
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(filter.Render(emails)))
	znmetrics.ExportedEmails.Add(float64(len(emails)))
}
