package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/soundprediction/estratto"
	"github.com/soundprediction/estratto/pkg/server/dto"
	"github.com/soundprediction/estratto/pkg/store"
	"github.com/soundprediction/estratto/pkg/types"
)

// ExtractHandler handles answer extraction requests
type ExtractHandler struct {
	extractor estratto.Extractor
	cache     *store.Store
}

// NewExtractHandler creates a new extract handler. cache may be nil; the
// cached-answer lookup endpoint then reports not found for every basket.
func NewExtractHandler(e estratto.Extractor, cache *store.Store) *ExtractHandler {
	return &ExtractHandler{
		extractor: e,
		cache:     cache,
	}
}

// Extract handles POST /api/v1/extract
func (h *ExtractHandler) Extract(c *gin.Context) {
	var req dto.ExtractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "invalid_request",
			Message: err.Error(),
		})
		return
	}

	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "invalid_request",
			Message: err.Error(),
		})
		return
	}

	questionID := req.QuestionID
	if questionID == "" {
		questionID = uuid.New().String()
	}

	docs := req.ToDocuments()
	results, err := h.extractor.Extract(c.Request.Context(), questionID, req.Question, docs)
	if err != nil {
		status := http.StatusInternalServerError
		code := "extraction_failed"
		if errors.Is(err, types.ErrIncompleteBasket) || errors.Is(err, types.ErrMissingNoAnswer) {
			code = "invalid_scorer_output"
			status = http.StatusBadGateway
		}
		c.JSON(status, dto.ErrorResponse{
			Error:   code,
			Message: err.Error(),
		})
		return
	}

	resp := dto.ExtractResponse{
		QuestionID: questionID,
		Answers:    results,
	}
	if req.Formatted {
		resp.Formatted = h.extractor.FormatResults(results, docs, questionID)
	}
	c.JSON(http.StatusOK, resp)
}

// GetAnswers handles GET /api/v1/answers/:basket_id - cached answer lookup
func (h *ExtractHandler) GetAnswers(c *gin.Context) {
	basketID := c.Param("basket_id")
	if basketID == "" {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "invalid_request",
			Message: "basket_id is required",
		})
		return
	}

	if h.cache == nil {
		c.JSON(http.StatusNotFound, dto.ErrorResponse{
			Error:   "not_found",
			Message: "answer cache is disabled",
		})
		return
	}

	answers, ok, err := h.cache.Get(basketID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{
			Error:   "cache_error",
			Message: err.Error(),
		})
		return
	}
	if !ok {
		c.JSON(http.StatusNotFound, dto.ErrorResponse{
			Error:   "not_found",
			Message: "no cached answers for basket",
		})
		return
	}

	c.JSON(http.StatusOK, dto.AnswersResponse{
		BasketID: basketID,
		Answers:  answers,
	})
}
