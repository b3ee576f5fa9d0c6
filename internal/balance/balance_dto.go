package balance

import "github.com/shopspring/decimal"

type BalanceResponse struct {
	LeaveType      string          `json:"leave_type"`
	DisplayName    string          `json:"display_name"`
	TotalAllocated decimal.Decimal `json:"total_allocated"`
	UsedDays       decimal.Decimal `json:"used_days"`
	PendingDays    decimal.Decimal `json:"pending_days"`
	RemainingDays  decimal.Decimal `json:"remaining_days"`
	CarriedForward decimal.Decimal `json:"carried_forward"`
}

type SnapshotResponse struct {
	EmployeeID string            `json:"employee_id"`
	Year       int               `json:"year"`
	Balances   []BalanceResponse `json:"balances"`
}

// Find returns the row for a leave type, if present.
func (s SnapshotResponse) Find(leaveType string) (BalanceResponse, bool) {
	for _, b := range s.Balances {
		if b.LeaveType == leaveType {
			return b, true
		}
	}
	return BalanceResponse{}, false
}
