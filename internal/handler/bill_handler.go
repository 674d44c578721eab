package handler

import (
	"bytes"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"voltscan/internal/domain"
	"voltscan/internal/export"
	"voltscan/internal/service"
)

// BillHandler serves bill document endpoints.
type BillHandler struct {
	billService service.BillService
}

// NewBillHandler creates a new bill handler.
func NewBillHandler(billService service.BillService) *BillHandler {
	return &BillHandler{billService: billService}
}

// Upload accepts a multipart bill upload and queues it for extraction.
func (h *BillHandler) Upload(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		RespondError(c, http.StatusBadRequest, "MISSING_FILE", "multipart field 'file' is required")
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	category, ok := domain.AllowedContentTypes[contentType]
	if !ok {
		HandleError(c, domain.ErrUnsupportedFileType)
		return
	}
	if override := c.PostForm("media_category"); override != "" {
		category = domain.MediaCategory(override)
	}

	doc, err := h.billService.CreateFromUpload(c.Request.Context(), service.UploadBillInput{
		FileName:      header.Filename,
		ContentType:   contentType,
		Size:          header.Size,
		Body:          file,
		MediaCategory: category,
	})
	if err != nil {
		log.Printf("BillHandler.Upload: create failed for %q: %v", header.Filename, err)
		HandleError(c, err)
		return
	}

	RespondAccepted(c, doc)
}

// GetByID returns a single bill document with its extraction results.
func (h *BillHandler) GetByID(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	doc, err := h.billService.GetByID(c.Request.Context(), id)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, doc)
}

// List returns bill documents ordered by creation time, newest first.
func (h *BillHandler) List(c *gin.Context) {
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if limit < 1 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	docs, total, err := h.billService.List(c.Request.Context(), offset, limit)
	if err != nil {
		log.Printf("BillHandler.List: %v", err)
		HandleError(c, err)
		return
	}

	RespondPaginated(c, docs, PagMeta{Total: total, Offset: offset, Limit: limit})
}

// Retry requeues a failed bill document for another extraction attempt.
func (h *BillHandler) Retry(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	doc, err := h.billService.Retry(c.Request.Context(), id)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondAccepted(c, doc)
}

// Export streams the extraction results as an XLSX usage profile.
func (h *BillHandler) Export(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	doc, err := h.billService.GetByID(c.Request.Context(), id)
	if err != nil {
		HandleError(c, err)
		return
	}

	var buf bytes.Buffer
	if err := export.WriteUsageProfile(&buf, doc); err != nil {
		log.Printf("BillHandler.Export: %v", err)
		HandleError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "bill-"+doc.ID.String()+".xlsx"))
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Length", strconv.Itoa(buf.Len()))
	_, _ = io.Copy(c.Writer, &buf)
}

func parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", "id must be a valid UUID")
		return uuid.Nil, false
	}
	return id, true
}
