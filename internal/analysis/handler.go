package analysis

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/render"

	"resume-roles/internal/results"
	"resume-roles/internal/shared/server/middleware"
	"resume-roles/internal/shared/server/respond"
	"resume-roles/internal/shared/util"
)

const defaultMaxUploadBytes = 32 << 20

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc            *Service
	MaxUploadBytes int64
}

// NewHandler constructs a Handler. A non-positive limit falls back to 32 MiB.
func NewHandler(svc *Service, maxUploadBytes int64) *Handler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = defaultMaxUploadBytes
	}
	return &Handler{Svc: svc, MaxUploadBytes: maxUploadBytes}
}

// RegisterRoutes attaches the landing page, analysis and export routes.
// The analyze handlers are applied to the two POST routes only.
func (h *Handler) RegisterRoutes(r gin.IRoutes, analyze ...gin.HandlerFunc) {
	r.GET("/", h.index)
	r.POST("/analyze_single", append(analyze[:len(analyze):len(analyze)], h.analyzeSingle)...)
	r.POST("/analyze_batch", append(analyze[:len(analyze):len(analyze)], h.analyzeBatch)...)
	r.GET("/download_csv", h.downloadCSV)
	r.GET("/results", h.latest)
}

func (h *Handler) index(c *gin.Context) {
	c.Render(http.StatusOK, render.HTML{Template: pages, Name: "index.html"})
}

func (h *Handler) analyzeSingle(c *gin.Context) {
	form, ok := h.parseForm(c)
	if !ok {
		return
	}

	req := SingleRequest{
		Name:           c.PostForm("name"),
		JobDescription: c.PostForm("job_description"),
	}
	var files []*multipart.FileHeader
	if form != nil {
		files = form.File["resume"]
	}
	if len(files) > 0 {
		f, err := files[0].Open()
		if err != nil {
			respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read resume", nil)
			return
		}
		defer f.Close()
		req.Resume = &Upload{FileName: files[0].Filename, Body: f}
	}
	c.Set(middleware.FileCountKey, len(files))

	records, err := h.Svc.AnalyzeSingle(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}

	if respond.WantsHTML(c) {
		c.Render(http.StatusOK, render.HTML{Template: pages, Name: "result.html", Data: gin.H{"Results": records}})
		return
	}
	respond.OK(c, gin.H{"results": records})
}

func (h *Handler) analyzeBatch(c *gin.Context) {
	form, ok := h.parseForm(c)
	if !ok {
		return
	}

	var files []*multipart.FileHeader
	if form != nil {
		files = form.File["resumes"]
	}
	uploads := make([]Upload, 0, len(files))
	for _, fh := range files {
		f, err := fh.Open()
		if err != nil {
			respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read "+fh.Filename, nil)
			return
		}
		defer f.Close()
		uploads = append(uploads, Upload{FileName: fh.Filename, Body: f})
	}
	c.Set(middleware.FileCountKey, len(uploads))

	res, err := h.Svc.AnalyzeBatch(c.Request.Context(), BatchRequest{
		Skills:    c.PostForm("skills"),
		Resumes:   uploads,
		RequestID: middleware.RequestIDFromContext(c),
	})
	if res.Batch.ID != "" {
		c.Set(middleware.BatchIDKey, res.Batch.ID)
	}
	if err != nil {
		writeError(c, err)
		return
	}

	if respond.WantsHTML(c) {
		c.Render(http.StatusOK, render.HTML{Template: pages, Name: "result.html", Data: gin.H{
			"BatchID": res.Batch.ID,
			"Results": res.Records,
		}})
		return
	}
	respond.OK(c, gin.H{"batchId": res.Batch.ID, "results": res.Records})
}

func (h *Handler) downloadCSV(c *gin.Context) {
	export, err := h.Svc.ExportCSV(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	respond.Attachment(c, export.FileName, "text/csv", export.Body)
}

func (h *Handler) latest(c *gin.Context) {
	table, err := h.Svc.Latest(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	records := table.Records
	if records == nil {
		records = []results.Record{}
	}
	if respond.WantsHTML(c) {
		c.Render(http.StatusOK, render.HTML{Template: pages, Name: "result.html", Data: gin.H{
			"BatchID": table.Batch.ID,
			"Results": records,
		}})
		return
	}
	respond.OK(c, gin.H{"batchId": table.Batch.ID, "results": records})
}

// parseForm reads the multipart body under the upload cap. A non-multipart
// body is not an error here: the missing fields are reported by the service.
func (h *Handler) parseForm(c *gin.Context) (*multipart.Form, bool) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.MaxUploadBytes)
	form, err := c.MultipartForm()
	if err == nil || errors.Is(err, http.ErrNotMultipart) {
		return form, true
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) || strings.Contains(err.Error(), "request body too large") {
		respond.Error(c, http.StatusRequestEntityTooLarge, "payload_too_large", "upload exceeds size limit", gin.H{"limitBytes": h.MaxUploadBytes})
		return nil, false
	}
	respond.Error(c, http.StatusBadRequest, "validation_error", "invalid multipart form", nil)
	return nil, false
}

func writeError(c *gin.Context, err error) {
	var fieldErr *FieldError
	switch {
	case errors.As(err, &fieldErr):
		respond.Error(c, http.StatusBadRequest, "validation_error", fieldErr.Field+" is required", gin.H{"field": fieldErr.Field})
	case errors.Is(err, util.ErrInvalidFileName):
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid file name", nil)
	case errors.Is(err, ErrClassification):
		respond.Error(c, http.StatusInternalServerError, "classification_error", "failed to classify resume", nil)
	case errors.Is(err, ErrStorage), errors.Is(err, ErrResults):
		respond.Error(c, http.StatusInternalServerError, "storage_error", "failed to persist results", nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", "analysis failed", nil)
	}
}
