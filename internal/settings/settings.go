package settings

import "errors"

// Setting keys understood by the coin policy.
const (
	KeyWeeklyAllowance = "default_weekly_coins"
	KeyMaxTransferSize = "max_transfer_coins"
)

// Policy is the snapshot of coin policy values used for a single request.
// Both values are admin-editable at runtime; no redeploy needed.
type Policy struct {
	WeeklyAllowance int
	MaxTransferSize int
}

var ErrSettingNotFound = errors.New("setting not found")
