package balance

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"go-leave-assistant/internal/actor"
	balanceerrors "go-leave-assistant/internal/balance/errors"
	"go-leave-assistant/internal/shared/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// yearWindow bounds how far from the current year a snapshot may be read.
// Reads seed rows, so arbitrary years are refused.
const yearWindow = 1

// ActorLookup is satisfied by actor.Repository.
type ActorLookup interface {
	FindActiveByID(ctx context.Context, id string) (*actor.Actor, error)
}

type Handler struct {
	service Service
	actors  ActorLookup
	now     func() time.Time
	logger  *zap.Logger
}

func NewHandler(service Service, actors ActorLookup, now func() time.Time, logger ...*zap.Logger) *Handler {
	l := zap.L().Named("balance.handler")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("balance.handler")
	}
	if now == nil {
		now = time.Now
	}
	return &Handler{service: service, actors: actors, now: now, logger: l}
}

// GetBalances returns the caller's snapshot. HR roles may pass employee_id.
func (h *Handler) GetBalances(c *gin.Context) {
	actorID := c.GetString("employee_id")
	role := actor.Role(c.GetString("role"))

	targetID := c.DefaultQuery("employee_id", actorID)
	if targetID != actorID && !role.IsHR() {
		response.AppError(c, balanceerrors.ErrForbiddenEmployee)
		return
	}
	employeeID, err := uuid.Parse(targetID)
	if err != nil {
		response.AppError(c, balanceerrors.ErrInvalidEmployeeID)
		return
	}

	current := h.now().Year()
	year := current
	if raw := c.Query("year"); raw != "" {
		year, err = strconv.Atoi(raw)
		if err != nil || year <= 0 {
			response.AppError(c, balanceerrors.ErrInvalidYear)
			return
		}
		if year < current-yearWindow || year > current+yearWindow {
			response.AppError(c, balanceerrors.ErrYearOutOfRange)
			return
		}
	}

	if targetID != actorID {
		if _, err := h.actors.FindActiveByID(c.Request.Context(), employeeID.String()); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				response.AppError(c, balanceerrors.ErrEmployeeNotFound)
				return
			}
			httpErr := response.AppError(c, err)
			h.logger.Error("balance target lookup failed",
				zap.String("employee_id", targetID),
				zap.Int("status", httpErr.HTTPStatus),
				zap.Error(err),
			)
			return
		}
	}

	resp, err := h.service.GetBalances(c.Request.Context(), employeeID, year)
	if err != nil {
		httpErr := response.AppError(c, err)
		h.logger.Warn("get balances request failed",
			zap.String("employee_id", targetID),
			zap.Int("year", year),
			zap.Int("status", httpErr.HTTPStatus),
			zap.Error(err),
		)
		return
	}

	response.Success(c, http.StatusOK, resp, nil)
}
