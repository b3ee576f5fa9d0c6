package assistant

import (
	"net/http"

	"go-leave-assistant/internal/middleware"
	"go-leave-assistant/internal/shared/apperror"
	"go-leave-assistant/internal/shared/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Handler struct {
	service Service
	logger  *zap.Logger
}

func NewHandler(service Service, logger ...*zap.Logger) *Handler {
	l := zap.L().Named("assistant.handler")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("assistant.handler")
	}
	return &Handler{service: service, logger: l}
}

func (h *Handler) Chat(c *gin.Context) {
	a, ok := middleware.CurrentActor(c)
	if !ok {
		response.AppError(c, apperror.ErrUnauthorized)
		return
	}

	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("http chat validation failed", zap.Error(err))
		response.AppError(c, apperror.MapValidationError(err))
		return
	}

	resp, err := h.service.ProcessMessage(c.Request.Context(), req.Message, *a, req.State)
	if err != nil {
		httpErr := response.AppError(c, err)
		h.logger.Warn("chat request failed",
			zap.String("employee_id", a.ID.String()),
			zap.Int("status", httpErr.HTTPStatus),
			zap.Error(err),
		)
		return
	}

	response.Success(c, http.StatusOK, resp, nil)
}
