package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"docstack/internal/app"
	"docstack/internal/transport/http/response"
)

type QueryHandler struct {
	queryService *app.QueryService
}

func NewQueryHandler(queryService *app.QueryService) *QueryHandler {
	return &QueryHandler{queryService: queryService}
}

type askRequest struct {
	Question string `json:"question" binding:"required"`
	Limit    int    `json:"limit"`
}

func (h *QueryHandler) Ask(c *gin.Context) {
	scope, ok := getScopeFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}

	var req askRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	answer, err := h.queryService.Answer(c.Request.Context(), scope, req.Question, req.Limit)
	if err != nil {
		switch {
		case errors.Is(err, app.ErrInvalidInput):
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "question must not be empty")
		case errors.Is(err, app.ErrNoMatches):
			response.Error(c, http.StatusNotFound, response.CodeNoMatches, "no matching passages found")
		case errors.Is(err, app.ErrGeneration):
			response.Error(c, http.StatusBadGateway, response.CodeGenerationFailed, "answer generation failed")
		default:
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "query failed")
		}
		return
	}

	response.OK(c, answer)
}

func (h *QueryHandler) History(c *gin.Context) {
	scope, ok := getScopeFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	exchanges, err := h.queryService.History(c.Request.Context(), scope, limit)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "load history failed")
		return
	}
	response.OK(c, exchanges)
}
