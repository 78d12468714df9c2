package handler

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"docvault/internal/ai"
	"docvault/internal/app"
	"docvault/internal/index"
	"docvault/internal/transport/http/response"
)

type QueryHandler struct {
	retrieval *app.RetrievalService
	generator ai.Generator
}

type QueryRequest struct {
	Question   string `json:"question" binding:"required"`
	TopK       int    `json:"top_k"`
	DocumentID string `json:"document_id"`
}

// NewQueryHandler wires the retrieval coordinator to the external
// generation collaborator. generator may be nil; the handler then returns
// ranked chunks only.
func NewQueryHandler(retrieval *app.RetrievalService, generator ai.Generator) *QueryHandler {
	return &QueryHandler{
		retrieval: retrieval,
		generator: generator,
	}
}

func (h *QueryHandler) Ask(c *gin.Context) {
	accountID, ok := getAccountIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid session context")
		return
	}

	var req QueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	chunks, err := h.retrieval.AnswerContext(c.Request.Context(), accountID, req.Question, req.TopK, req.DocumentID)
	if err != nil {
		switch {
		case errors.Is(err, app.ErrNoDocuments):
			response.Error(c, http.StatusBadRequest, response.CodeNoDocuments, err.Error())
		case errors.Is(err, app.ErrNotFound), errors.Is(err, app.ErrNotOwner):
			response.Error(c, http.StatusNotFound, response.CodeNotFound, app.ErrNotFound.Error())
		case errors.Is(err, index.ErrStoreUnavailable):
			response.Error(c, http.StatusServiceUnavailable, response.CodeStoreUnavailable, index.ErrStoreUnavailable.Error())
		case errors.Is(err, app.ErrInvalidInput):
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
		default:
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "query failed")
		}
		return
	}

	result := gin.H{"chunks": chunks}
	if h.generator != nil && len(chunks) > 0 {
		contextChunks := make([]ai.ContextChunk, len(chunks))
		for i, ch := range chunks {
			contextChunks[i] = ai.ContextChunk{
				Filename: ch.Filename,
				Ordinal:  ch.Ordinal,
				Content:  ch.Content,
			}
		}
		answer, genErr := h.generator.Generate(c.Request.Context(), req.Question, contextChunks)
		if genErr != nil {
			// Retrieval succeeded; the chunks are still useful without prose.
			log.Printf("generate answer failed: %v", genErr)
		} else {
			result["answer"] = answer
		}
	}

	response.OK(c, result)
}
