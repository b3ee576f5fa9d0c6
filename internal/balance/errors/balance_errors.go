package balanceerrors

import (
	"net/http"

	"go-leave-assistant/internal/shared/apperror"
)

var (
	ErrInvalidEmployeeID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid employee id",
		http.StatusBadRequest,
	)
	ErrInvalidYear = apperror.New(
		apperror.CodeInvalidInput,
		"year must be a positive calendar year",
		http.StatusBadRequest,
	)
	ErrYearOutOfRange = apperror.New(
		apperror.CodeInvalidInput,
		"year must be within one year of the current year",
		http.StatusBadRequest,
	)
	ErrEmployeeNotFound = apperror.New(
		apperror.CodeNotFound,
		"employee not found",
		http.StatusNotFound,
	)
	ErrInvalidDays = apperror.New(
		apperror.CodeInvalidInput,
		"days must be greater than zero",
		http.StatusBadRequest,
	)
	ErrNoAllocation = apperror.New(
		apperror.CodeInvalidInput,
		"no allocation exists for this leave type",
		http.StatusBadRequest,
	)
	ErrInsufficientBalance = apperror.New(
		apperror.CodeInvalidInput,
		"insufficient leave balance",
		http.StatusBadRequest,
	)
	ErrLedgerUnderflow = apperror.New(
		apperror.CodeInternalError,
		"ledger pending days cannot go below zero",
		http.StatusInternalServerError,
	)
	ErrInvariantViolated = apperror.New(
		apperror.CodeInternalError,
		"leave balance invariant violated",
		http.StatusInternalServerError,
	)
	ErrForbiddenEmployee = apperror.New(
		apperror.CodeForbidden,
		"you can only view your own balances",
		http.StatusForbidden,
	)
)
