package leave

import (
	"net/http"
	"strconv"

	leaveerrors "go-leave-assistant/internal/leave/errors"
	"go-leave-assistant/internal/middleware"
	"go-leave-assistant/internal/shared/apperror"
	"go-leave-assistant/internal/shared/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const maxListLimit = 100

type Handler struct {
	service Service
	logger  *zap.Logger
}

func NewHandler(service Service, logger ...*zap.Logger) *Handler {
	l := zap.L().Named("leave.handler")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("leave.handler")
	}
	return &Handler{service: service, logger: l}
}

func (h *Handler) writeServiceError(c *gin.Context, err error) {
	httpErr := response.AppError(c, err)
	fields := []zap.Field{
		zap.String("method", c.Request.Method),
		zap.String("path", c.FullPath()),
		zap.Int("status", httpErr.HTTPStatus),
		zap.String("code", httpErr.Code),
	}
	if httpErr.HTTPStatus >= http.StatusInternalServerError {
		h.logger.Error("leave request failed", append(fields, zap.Error(err))...)
		return
	}
	h.logger.Warn("leave request failed", append(fields, zap.String("message", httpErr.Message))...)
}

func parseApplicationID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.AppError(c, leaveerrors.ErrInvalidApplicationID)
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) ListMine(c *gin.Context) {
	a, ok := middleware.CurrentActor(c)
	if !ok {
		response.AppError(c, apperror.ErrUnauthorized)
		return
	}

	resp, err := h.service.ListForEmployee(c.Request.Context(), a.ID, maxListLimit)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "10"))
	items, meta := response.Paginate(resp, page, pageSize)
	response.Success(c, http.StatusOK, items, &meta)
}

func (h *Handler) ListPending(c *gin.Context) {
	a, ok := middleware.CurrentActor(c)
	if !ok {
		response.AppError(c, apperror.ErrUnauthorized)
		return
	}

	resp, err := h.service.ListPendingForReviewer(c.Request.Context(), *a)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) GetByID(c *gin.Context) {
	a, ok := middleware.CurrentActor(c)
	if !ok {
		response.AppError(c, apperror.ErrUnauthorized)
		return
	}
	id, ok := parseApplicationID(c)
	if !ok {
		return
	}

	resp, err := h.service.GetByID(c.Request.Context(), id, *a)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) Approve(c *gin.Context) {
	a, ok := middleware.CurrentActor(c)
	if !ok {
		response.AppError(c, apperror.ErrUnauthorized)
		return
	}
	id, ok := parseApplicationID(c)
	if !ok {
		return
	}

	var req ApproveLeaveRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.logger.Warn("http approve leave validation failed", zap.Error(err))
			response.AppError(c, apperror.MapValidationError(err))
			return
		}
	}

	resp, err := h.service.Approve(c.Request.Context(), id, *a, req.Comments)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) Reject(c *gin.Context) {
	a, ok := middleware.CurrentActor(c)
	if !ok {
		response.AppError(c, apperror.ErrUnauthorized)
		return
	}
	id, ok := parseApplicationID(c)
	if !ok {
		return
	}

	var req RejectLeaveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("http reject leave validation failed", zap.Error(err))
		response.AppError(c, apperror.MapValidationError(err))
		return
	}

	resp, err := h.service.Reject(c.Request.Context(), id, *a, req.Reason)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) Cancel(c *gin.Context) {
	a, ok := middleware.CurrentActor(c)
	if !ok {
		response.AppError(c, apperror.ErrUnauthorized)
		return
	}
	id, ok := parseApplicationID(c)
	if !ok {
		return
	}

	resp, err := h.service.Cancel(c.Request.Context(), id, *a)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, resp, nil)
}
