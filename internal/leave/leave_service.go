package leave

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"go-leave-assistant/internal/actor"
	"go-leave-assistant/internal/balance"
	"go-leave-assistant/internal/domain"
	"go-leave-assistant/internal/events"
	leaveerrors "go-leave-assistant/internal/leave/errors"
	"go-leave-assistant/internal/messaging/kafka"
	"go-leave-assistant/internal/metrics"
	"go-leave-assistant/internal/shared/apperror"
	"go-leave-assistant/internal/shared/contextutil"
	"go-leave-assistant/internal/shared/counter"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const statusLookupLimit = 5

// BalanceCache drops cached snapshots after a committed ledger move.
type BalanceCache interface {
	Invalidate(ctx context.Context, employeeID uuid.UUID, year int)
}

//go:generate mockgen -source=leave_service.go -destination=mock/leave_service_mock.go -package=mock
type Service interface {
	Create(ctx context.Context, a actor.Actor, in CreateInput) (ApplicationResponse, error)
	Approve(ctx context.Context, id uuid.UUID, a actor.Actor, comments string) (ApplicationResponse, error)
	Reject(ctx context.Context, id uuid.UUID, a actor.Actor, reason string) (ApplicationResponse, error)
	Cancel(ctx context.Context, id uuid.UUID, a actor.Actor) (ApplicationResponse, error)
	CancelByNumber(ctx context.Context, number string, a actor.Actor) (ApplicationResponse, error)
	GetByID(ctx context.Context, id uuid.UUID, a actor.Actor) (ApplicationResponse, error)
	ListForEmployee(ctx context.Context, employeeID uuid.UUID, limit int) ([]ApplicationResponse, error)
	ListCancellable(ctx context.Context, employeeID uuid.UUID) ([]ApplicationResponse, error)
	ListPendingForReviewer(ctx context.Context, a actor.Actor) ([]ApplicationResponse, error)
	ListTeamApproved(ctx context.Context, a actor.Actor, from, to time.Time) ([]ApplicationResponse, error)
	ListUpcomingApproved(ctx context.Context, employeeID uuid.UUID, from time.Time) ([]ApplicationResponse, error)
}

type service struct {
	db       *sql.DB
	repo     Repository
	ledger   balance.Ledger
	counters counter.Repository
	outbox   kafka.OutboxRepository
	cache    BalanceCache
	now      func() time.Time
	logger   *zap.Logger
}

func NewService(
	db *sql.DB,
	repo Repository,
	ledger balance.Ledger,
	counters counter.Repository,
	outbox kafka.OutboxRepository,
	cache BalanceCache,
	now func() time.Time,
	logger ...*zap.Logger,
) Service {
	l := zap.L().Named("leave.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("leave.service")
	}
	if now == nil {
		now = time.Now
	}
	return &service{
		db:       db,
		repo:     repo,
		ledger:   ledger,
		counters: counters,
		outbox:   outbox,
		cache:    cache,
		now:      now,
		logger:   l,
	}
}

// Create inserts a PENDING application and reserves its days in one
// transaction. The ledger year is the year of the start date.
func (s *service) Create(ctx context.Context, a actor.Actor, in CreateInput) (ApplicationResponse, error) {
	log := contextutil.Logger(ctx, s.logger)
	log.Debug("create leave application requested",
		zap.String("employee_id", a.ID.String()),
		zap.String("leave_type", string(in.LeaveType)),
		zap.Time("start_date", in.StartDate),
		zap.Time("end_date", in.EndDate),
		zap.String("total_days", in.TotalDays.String()),
	)

	if err := validateCreateInput(in); err != nil {
		log.Warn("create leave application validation failed", zap.Error(err))
		return ApplicationResponse{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		log.Error("create leave application begin tx failed", zap.Error(err))
		return ApplicationResponse{}, apperror.Persistence(err)
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	overlap, err := qtx.HasOverlappingPeriod(ctx, a.ID, in.StartDate, in.EndDate)
	if err != nil {
		log.Error("create leave application overlap check failed", zap.Error(err))
		return ApplicationResponse{}, apperror.Persistence(err)
	}
	if overlap {
		log.Warn("create leave application overlap detected",
			zap.String("employee_id", a.ID.String()),
			zap.Time("start_date", in.StartDate),
			zap.Time("end_date", in.EndDate),
		)
		return ApplicationResponse{}, leaveerrors.ErrLeaveOverlap
	}

	year := in.StartDate.Year()
	if _, err := s.ledger.WithTx(tx).Reserve(ctx, a.ID, in.LeaveType, year, in.TotalDays); err != nil {
		return ApplicationResponse{}, s.ledgerError("create leave application reserve failed", err)
	}

	now := s.now().UTC()
	seq, err := s.counters.WithTx(tx).GetNextValue(ctx, counter.TypeLeaveApplication, now.Year())
	if err != nil {
		log.Error("create leave application counter failed", zap.Error(err))
		return ApplicationResponse{}, apperror.Persistence(err)
	}

	app := &LeaveApplication{
		ID:                uuid.New(),
		ApplicationNumber: FormatApplicationNumber(now.Year(), seq),
		EmployeeID:        a.ID,
		LeaveType:         in.LeaveType,
		StartDate:         in.StartDate,
		EndDate:           in.EndDate,
		TotalDays:         in.TotalDays,
		Reason:            in.Reason,
		Status:            StatusPending,
		ManagerID:         a.ManagerID,
		CreatedVia:        createdVia(in.CreatedVia),
		Urgency:           urgencyOrNormal(in.Urgency),
		Version:           1,
		AppliedAt:         now,
		UpdatedAt:         now,
	}

	if err := qtx.Create(ctx, app); err != nil {
		if isUniqueNumberViolation(err) {
			log.Warn("create leave application duplicate number",
				zap.String("application_number", app.ApplicationNumber),
			)
			return ApplicationResponse{}, leaveerrors.ErrDuplicateApplicationNumber
		}
		log.Error("create leave application persist failed", zap.Error(err))
		return ApplicationResponse{}, apperror.Persistence(err)
	}

	if err := s.writeStatusEvent(ctx, tx, *app, "", a.ID); err != nil {
		return ApplicationResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		log.Error("create leave application commit failed", zap.Error(err))
		return ApplicationResponse{}, apperror.Persistence(err)
	}
	s.invalidate(ctx, a.ID, year)
	metrics.LifecycleTransitions.WithLabelValues("NEW", string(StatusPending)).Inc()

	log.Info("create leave application success",
		zap.String("application_id", app.ID.String()),
		zap.String("application_number", app.ApplicationNumber),
		zap.String("employee_id", a.ID.String()),
	)
	return mapToResponse(*app), nil
}

func (s *service) Approve(ctx context.Context, id uuid.UUID, a actor.Actor, comments string) (ApplicationResponse, error) {
	return s.transition(ctx, id, a, ActionApprove, strings.TrimSpace(comments))
}

func (s *service) Reject(ctx context.Context, id uuid.UUID, a actor.Actor, reason string) (ApplicationResponse, error) {
	return s.transition(ctx, id, a, ActionReject, strings.TrimSpace(reason))
}

func (s *service) Cancel(ctx context.Context, id uuid.UUID, a actor.Actor) (ApplicationResponse, error) {
	return s.transition(ctx, id, a, ActionCancel, "")
}

func (s *service) CancelByNumber(ctx context.Context, number string, a actor.Actor) (ApplicationResponse, error) {
	app, err := s.repo.FindByNumber(ctx, strings.ToUpper(strings.TrimSpace(number)))
	if err != nil {
		return ApplicationResponse{}, s.lookupError(err)
	}
	return s.transition(ctx, app.ID, a, ActionCancel, "")
}

// transition authorizes the actor, looks up the table entry, then writes
// the new status, the ledger effect and the outbox event atomically.
func (s *service) transition(ctx context.Context, id uuid.UUID, a actor.Actor, action Action, note string) (ApplicationResponse, error) {
	log := contextutil.Logger(ctx, s.logger)
	log.Debug("transition leave application requested",
		zap.String("application_id", id.String()),
		zap.String("actor_id", a.ID.String()),
		zap.String("action", string(action)),
	)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		log.Error("transition leave application begin tx failed", zap.Error(err))
		return ApplicationResponse{}, apperror.Persistence(err)
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	app, err := qtx.FindByIDForUpdate(ctx, id)
	if err != nil {
		return ApplicationResponse{}, s.lookupError(err)
	}

	class, err := Authorize(*app, a, action)
	if err != nil {
		log.Warn("transition leave application not authorized",
			zap.String("application_id", id.String()),
			zap.String("actor_id", a.ID.String()),
			zap.String("role", string(a.Role)),
			zap.String("action", string(action)),
		)
		return ApplicationResponse{}, err
	}

	t, err := Decide(*app, class, action)
	if err != nil {
		log.Warn("transition leave application invalid",
			zap.String("application_id", id.String()),
			zap.String("status", string(app.Status)),
			zap.String("action", string(action)),
		)
		return ApplicationResponse{}, err
	}

	if action == ActionReject && note == "" {
		return ApplicationResponse{}, leaveerrors.ErrRejectionReasonRequired
	}

	from, version := app.Status, app.Version
	applyTransition(app, t, a, note, s.now().UTC())

	updated, err := qtx.UpdateStatus(ctx, app, from, version)
	if err != nil {
		log.Error("transition leave application persist failed",
			zap.String("application_id", id.String()),
			zap.Error(err),
		)
		return ApplicationResponse{}, apperror.Persistence(err)
	}
	if !updated {
		log.Warn("transition leave application lost race",
			zap.String("application_id", id.String()),
			zap.String("expected_status", string(from)),
			zap.Int("expected_version", version),
		)
		return ApplicationResponse{}, leaveerrors.ErrConcurrentModification
	}
	app.Version = version + 1

	ledger := s.ledger.WithTx(tx)
	switch t.Effect {
	case EffectCommit:
		_, err = ledger.Commit(ctx, app.EmployeeID, app.LeaveType, app.Year(), app.TotalDays)
	case EffectRelease:
		_, err = ledger.Release(ctx, app.EmployeeID, app.LeaveType, app.Year(), app.TotalDays)
	}
	if err != nil {
		return ApplicationResponse{}, s.ledgerError("transition leave application ledger failed", err)
	}

	if err := s.writeStatusEvent(ctx, tx, *app, from, a.ID); err != nil {
		return ApplicationResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		log.Error("transition leave application commit failed",
			zap.String("application_id", id.String()),
			zap.Error(err),
		)
		return ApplicationResponse{}, apperror.Persistence(err)
	}
	if t.Effect != EffectNone {
		s.invalidate(ctx, app.EmployeeID, app.Year())
	}
	metrics.LifecycleTransitions.WithLabelValues(string(from), string(t.To)).Inc()

	log.Info("transition leave application success",
		zap.String("application_id", id.String()),
		zap.String("from_status", string(from)),
		zap.String("to_status", string(t.To)),
		zap.String("ledger_effect", string(t.Effect)),
	)
	return mapToResponse(*app), nil
}

func applyTransition(app *LeaveApplication, t Transition, a actor.Actor, note string, now time.Time) {
	app.Status = t.To
	app.UpdatedAt = now

	switch t.To {
	case StatusManagerApproved:
		app.ManagerComments = note
		app.ManagerApprovedAt = &now
	case StatusHRApproved:
		approver := a.ID
		app.HRApproverID = &approver
		app.HRComments = note
		app.HRApprovedAt = &now
		app.FinalDecisionAt = &now
	case StatusRejected:
		app.RejectionReason = note
		if t.Class == ClassManager {
			app.ManagerComments = note
		} else {
			approver := a.ID
			app.HRApproverID = &approver
			app.HRComments = note
		}
		app.FinalDecisionAt = &now
	case StatusCancelled, StatusWithdrawn:
		app.FinalDecisionAt = &now
	}
}

func (s *service) GetByID(ctx context.Context, id uuid.UUID, a actor.Actor) (ApplicationResponse, error) {
	app, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return ApplicationResponse{}, s.lookupError(err)
	}
	if app.EmployeeID != a.ID && !a.Role.IsHR() && !app.IsManagedBy(a.ID) {
		return ApplicationResponse{}, leaveerrors.ErrNotAuthorized
	}
	return mapToResponse(*app), nil
}

func (s *service) ListForEmployee(ctx context.Context, employeeID uuid.UUID, limit int) ([]ApplicationResponse, error) {
	if limit <= 0 {
		limit = statusLookupLimit
	}
	return s.list(ctx, ListFilter{EmployeeID: &employeeID, Limit: limit})
}

func (s *service) ListCancellable(ctx context.Context, employeeID uuid.UUID) ([]ApplicationResponse, error) {
	return s.list(ctx, ListFilter{EmployeeID: &employeeID, Statuses: ReviewableStatuses()})
}

// ListPendingForReviewer scopes managers to their own reports. HR sees all.
func (s *service) ListPendingForReviewer(ctx context.Context, a actor.Actor) ([]ApplicationResponse, error) {
	filter := ListFilter{Statuses: ReviewableStatuses(), Ascending: true}
	switch {
	case a.Role.IsHR():
	case a.Role == actor.RoleManager:
		filter.ManagerID = &a.ID
	default:
		return nil, leaveerrors.ErrNotAuthorized
	}
	return s.list(ctx, filter)
}

func (s *service) ListTeamApproved(ctx context.Context, a actor.Actor, from, to time.Time) ([]ApplicationResponse, error) {
	filter := ListFilter{
		Statuses:    []Status{StatusHRApproved},
		OverlapFrom: &from,
		OverlapTo:   &to,
		Ascending:   true,
	}
	switch {
	case a.Role.IsHR():
	case a.Role == actor.RoleManager:
		filter.ManagerID = &a.ID
	default:
		return nil, leaveerrors.ErrNotAuthorized
	}
	return s.list(ctx, filter)
}

func (s *service) ListUpcomingApproved(ctx context.Context, employeeID uuid.UUID, from time.Time) ([]ApplicationResponse, error) {
	return s.list(ctx, ListFilter{
		EmployeeID: &employeeID,
		Statuses:   []Status{StatusHRApproved},
		StartFrom:  &from,
		Ascending:  true,
	})
}

func (s *service) list(ctx context.Context, filter ListFilter) ([]ApplicationResponse, error) {
	apps, err := s.repo.List(ctx, filter)
	if err != nil {
		s.logger.Error("list leave applications failed", zap.Error(err))
		return nil, apperror.Persistence(err)
	}
	return mapToListResponse(apps), nil
}

func (s *service) writeStatusEvent(ctx context.Context, tx *sql.Tx, app LeaveApplication, from Status, actorID uuid.UUID) error {
	payload := events.LeaveStatusChangedEvent{
		EventType:         events.LeaveStatusChangedEventType,
		ApplicationID:     app.ID.String(),
		ApplicationNumber: app.ApplicationNumber,
		EmployeeID:        app.EmployeeID.String(),
		ActorID:           actorID.String(),
		LeaveType:         string(app.LeaveType),
		TotalDays:         app.TotalDays.String(),
		FromStatus:        string(from),
		ToStatus:          string(app.Status),
		Urgency:           app.Urgency,
		OccurredAt:        app.UpdatedAt,
	}
	if app.ManagerID != nil {
		payload.ManagerID = app.ManagerID.String()
	}

	event, err := kafka.NewEvent(
		contextutil.GetRequestID(ctx),
		events.LeaveApplicationAggregate,
		app.ID.String(),
		events.LeaveStatusChangedEventType,
		events.LeaveStatusChangedTopic,
		payload,
	)
	if err != nil {
		s.logger.Error("build leave status event failed", zap.Error(err))
		return apperror.Persistence(err)
	}
	if err := s.outbox.WithTx(tx).Create(ctx, event); err != nil {
		s.logger.Error("write leave status event failed",
			zap.String("application_id", app.ID.String()),
			zap.Error(err),
		)
		return apperror.Persistence(err)
	}
	return nil
}

func (s *service) invalidate(ctx context.Context, employeeID uuid.UUID, year int) {
	if s.cache != nil {
		s.cache.Invalidate(ctx, employeeID, year)
	}
}

// ledgerError passes validation failures through and wraps the rest.
func (s *service) ledgerError(msg string, err error) error {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) && appErr.HTTPStatus < 500 {
		s.logger.Warn(msg, zap.Error(err))
		return err
	}
	s.logger.Error(msg, zap.Error(err))
	if appErr != nil {
		return err
	}
	return apperror.Persistence(err)
}

func (s *service) lookupError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return leaveerrors.ErrApplicationNotFound
	}
	s.logger.Error("find leave application failed", zap.Error(err))
	return apperror.Persistence(err)
}

func validateCreateInput(in CreateInput) error {
	if _, ok := domain.ParseLeaveType(string(in.LeaveType)); !ok {
		return leaveerrors.ErrInvalidLeaveType
	}
	if in.StartDate.IsZero() || in.EndDate.IsZero() || in.StartDate.After(in.EndDate) {
		return leaveerrors.ErrInvalidDateRange
	}
	if !in.TotalDays.IsPositive() {
		return leaveerrors.ErrInvalidTotalDays
	}
	return nil
}

func createdVia(v string) string {
	if v == CreatedViaAPI {
		return CreatedViaAPI
	}
	return CreatedViaChat
}

func urgencyOrNormal(v string) string {
	if v == "" {
		return "normal"
	}
	return v
}
