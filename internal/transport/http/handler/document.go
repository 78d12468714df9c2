package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"docvault/internal/app"
	"docvault/internal/chunk"
	"docvault/internal/extract"
	"docvault/internal/index"
	"docvault/internal/transport/http/response"
)

type DocumentHandler struct {
	retrieval      *app.RetrievalService
	maxUploadBytes int64
}

func NewDocumentHandler(retrieval *app.RetrievalService, maxUploadBytes int64) *DocumentHandler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = 10 << 20
	}
	return &DocumentHandler{
		retrieval:      retrieval,
		maxUploadBytes: maxUploadBytes,
	}
}

// Upload accepts a multipart file and runs the full ingestion pipeline.
// The request body is capped before the file is read, so oversized uploads
// fail without buffering the whole payload.
func (h *DocumentHandler) Upload(c *gin.Context) {
	accountID, ok := getAccountIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid session context")
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			response.Error(c, http.StatusRequestEntityTooLarge, response.CodeFileTooLarge, app.ErrFileTooLarge.Error())
			return
		}
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "missing file field")
		return
	}
	if fileHeader.Size > h.maxUploadBytes {
		response.Error(c, http.StatusRequestEntityTooLarge, response.CodeFileTooLarge, app.ErrFileTooLarge.Error())
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "open uploaded file failed")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "read uploaded file failed")
		return
	}

	doc, err := h.retrieval.Ingest(c.Request.Context(), accountID, fileHeader.Filename, data)
	if err != nil {
		writeIngestError(c, err)
		return
	}

	response.OK(c, gin.H{
		"document":    doc,
		"chunk_count": doc.ChunkCount,
		"message":     "document uploaded successfully",
	})
}

func (h *DocumentHandler) List(c *gin.Context) {
	accountID, ok := getAccountIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid session context")
		return
	}

	docs, err := h.retrieval.ListDocuments(accountID)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "list documents failed")
		return
	}
	response.OK(c, gin.H{"documents": docs})
}

func (h *DocumentHandler) Delete(c *gin.Context) {
	accountID, ok := getAccountIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid session context")
		return
	}

	docID := c.Param("id")
	if docID == "" {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid document id")
		return
	}

	if err := h.retrieval.DeleteDocument(c.Request.Context(), accountID, docID); err != nil {
		switch {
		// NotOwner is reported as not-found so foreign document ids stay
		// unobservable.
		case errors.Is(err, app.ErrNotFound), errors.Is(err, app.ErrNotOwner):
			response.Error(c, http.StatusNotFound, response.CodeNotFound, app.ErrNotFound.Error())
		case errors.Is(err, index.ErrStoreUnavailable):
			response.Error(c, http.StatusServiceUnavailable, response.CodeStoreUnavailable, index.ErrStoreUnavailable.Error())
		case errors.Is(err, app.ErrInvalidInput):
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
		default:
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "delete document failed")
		}
		return
	}
	response.OK(c, gin.H{"deleted_document_id": docID})
}

func writeIngestError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, app.ErrFileTooLarge):
		response.Error(c, http.StatusRequestEntityTooLarge, response.CodeFileTooLarge, err.Error())
	case errors.Is(err, extract.ErrUnsupportedExtension):
		response.Error(c, http.StatusBadRequest, response.CodeUnsupportedExtension, err.Error())
	case errors.Is(err, extract.ErrEmptyExtraction):
		response.Error(c, http.StatusBadRequest, response.CodeEmptyExtraction, err.Error())
	case errors.Is(err, extract.ErrCorruptFile):
		response.Error(c, http.StatusBadRequest, response.CodeCorruptFile, err.Error())
	case errors.Is(err, chunk.ErrInvalidConfig):
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, err.Error())
	case errors.Is(err, index.ErrStoreUnavailable):
		response.Error(c, http.StatusServiceUnavailable, response.CodeStoreUnavailable, index.ErrStoreUnavailable.Error())
	case errors.Is(err, app.ErrInvalidInput):
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
	default:
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "upload failed")
	}
}
