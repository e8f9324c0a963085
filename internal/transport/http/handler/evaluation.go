package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"pdfchat/internal/model"
	"pdfchat/internal/transport/http/response"
)

type EvaluationLister interface {
	ListRecent(ctx context.Context, limit int) ([]model.EvaluationRecord, error)
}

type EvaluationHandler struct {
	evals EvaluationLister
	log   *logrus.Entry
}

func NewEvaluationHandler(evals EvaluationLister, log *logrus.Entry) *EvaluationHandler {
	return &EvaluationHandler{evals: evals, log: log}
}

func (h *EvaluationHandler) List(c *gin.Context) {
	if h.evals == nil {
		response.Error(c, http.StatusServiceUnavailable, response.CodeServiceUnavailable, "evaluation store is disabled")
		return
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit <= 0 {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid limit")
		return
	}

	list, err := h.evals.ListRecent(c.Request.Context(), limit)
	if err != nil {
		h.log.WithError(err).Error("list evaluations failed")
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "list evaluations failed")
		return
	}
	response.OK(c, list)
}
