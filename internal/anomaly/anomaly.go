package anomaly

// Rule kinds recorded in audit payloads and metrics.
const (
	KindLargeTransfer  = "large_transfer"
	KindMutualTransfer = "mutual_transfer"
	KindSpam           = "spam"
)

// Rule thresholds. A transfer is flagged when the pair's weekly volume
// exceeds the large-transfer limit, when a reciprocal transfer exists in the
// same week, or when the sender's daily count exceeds the spam limit. All
// three counts include the transfer that triggered the evaluation.
const (
	LargeTransferWeeklyLimit = 300
	SpamDailyLimit           = 5
)

// Finding is one triggered rule.
type Finding struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}
