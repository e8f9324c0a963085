package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"pdfchat/internal/app"
	"pdfchat/internal/model"
	"pdfchat/internal/pkg/chunker"
	"pdfchat/internal/transport/http/response"
)

const DefaultMaxUploadBytes = 10 << 20

type Uploader interface {
	Upload(ctx context.Context, filename string, r io.Reader) (*app.UploadResult, error)
}

type DocumentLister interface {
	List(ctx context.Context, limit int) ([]model.DocumentRecord, error)
}

type UploadHandler struct {
	uploader Uploader
	docs     DocumentLister
	maxBytes int64
	log      *logrus.Entry
}

// NewUploadHandler accepts a nil docs lister; the listing endpoint then reports 503.
func NewUploadHandler(uploader Uploader, docs DocumentLister, maxBytes int64, log *logrus.Entry) *UploadHandler {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxUploadBytes
	}
	return &UploadHandler{uploader: uploader, docs: docs, maxBytes: maxBytes, log: log}
}

func (h *UploadHandler) Upload(c *gin.Context) {
	tooLarge := fmt.Sprintf("file too large (max %dMB)", h.maxBytes>>20)
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBytes+1<<20)

	file, err := c.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			response.Error(c, http.StatusBadRequest, response.CodeFileTooLarge, tooLarge)
			return
		}
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "missing file")
		return
	}
	if file.Size > h.maxBytes {
		response.Error(c, http.StatusBadRequest, response.CodeFileTooLarge, tooLarge)
		return
	}

	f, err := file.Open()
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "failed to read file")
		return
	}
	defer f.Close()

	result, err := h.uploader.Upload(c.Request.Context(), file.Filename, f)
	if err != nil {
		switch {
		case errors.Is(err, app.ErrNotPDF):
			response.Error(c, http.StatusBadRequest, response.CodeNotPDF, "Only PDF files are allowed.")
		case errors.Is(err, app.ErrInvalidInput), errors.Is(err, chunker.ErrInvalidConfiguration):
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
		case errors.Is(err, app.ErrUpstreamUnavailable):
			h.log.WithError(err).WithField("filename", file.Filename).Error("index upload failed")
			response.Error(c, http.StatusInternalServerError, response.CodeUpstreamFailure, err.Error())
		default:
			h.log.WithError(err).WithField("filename", file.Filename).Error("upload failed")
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, err.Error())
		}
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *UploadHandler) ListDocuments(c *gin.Context) {
	if h.docs == nil {
		response.Error(c, http.StatusServiceUnavailable, response.CodeServiceUnavailable, "document ledger is disabled")
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	list, err := h.docs.List(c.Request.Context(), limit)
	if err != nil {
		h.log.WithError(err).Error("list documents failed")
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "list documents failed")
		return
	}
	response.OK(c, list)
}
