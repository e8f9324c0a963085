package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"pdfchat/internal/model"
	"pdfchat/internal/transport/http/response"
)

// Delimiters around the evaluation JSON appended to every chat body. Clients
// parse the stream with these exact strings.
const (
	EvalStart = "\n\n__EVAL_START__"
	EvalEnd   = "__EVAL_END__"
)

type ChatResponder interface {
	Respond(ctx context.Context, query string, emit func(string) error) (model.Evaluation, error)
}

type ChatHandler struct {
	chat ChatResponder
	log  *logrus.Entry
}

type ChatRequest struct {
	Query string `json:"query" binding:"required"`
}

func NewChatHandler(chat ChatResponder, log *logrus.Entry) *ChatHandler {
	return &ChatHandler{chat: chat, log: log}
}

// Chat streams the answer as plain text and ends with the evaluation trailer.
func (h *ChatHandler) Chat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Query) == "" {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	c.Header("Content-Type", "text/plain; charset=utf-8")
	c.Header("Cache-Control", "no-cache")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	emit := func(fragment string) error {
		if _, err := c.Writer.WriteString(fragment); err != nil {
			return err
		}
		c.Writer.Flush()
		return nil
	}

	eval, err := h.chat.Respond(c.Request.Context(), req.Query, emit)
	if err != nil {
		h.log.WithError(err).Warn("chat stream aborted")
		return
	}

	payload, err := json.Marshal(eval)
	if err != nil {
		h.log.WithError(err).Error("marshal evaluation failed")
		return
	}
	_ = emit(EvalStart + string(payload) + EvalEnd)
}
