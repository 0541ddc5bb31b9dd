package validate

// Status is the outcome of one rule against one plugin.
type Status string

const (
	StatusPass    Status = "PASS"
	StatusFail    Status = "FAIL"
	StatusSkipped Status = "SKIPPED"
	StatusError   Status = "ERROR"
)

// Result is one rule outcome. Evidence carries simple key-value pairs
// supporting the verdict (offending values, paths).
type Result struct {
	RuleID   string            `json:"rule_id"`
	Plugin   string            `json:"plugin"`
	Status   Status            `json:"status"`
	Message  string            `json:"message,omitempty"`
	Evidence map[string]string `json:"evidence,omitempty"`
}

// NewResult builds a result for a target. Rules normally use the status
// shorthands below instead.
func NewResult(target Target, ruleID string, status Status, message string) Result {
	return Result{
		RuleID:  ruleID,
		Plugin:  target.Label(),
		Status:  status,
		Message: message,
	}
}

func PassResult(target Target, ruleID string) Result {
	return NewResult(target, ruleID, StatusPass, "")
}

func PassResultWithMessage(target Target, ruleID string, message string) Result {
	return NewResult(target, ruleID, StatusPass, message)
}

func FailResult(target Target, ruleID string, message string) Result {
	return NewResult(target, ruleID, StatusFail, message)
}

func FailResultWithEvidence(target Target, ruleID string, message string, evidence map[string]string) Result {
	res := NewResult(target, ruleID, StatusFail, message)
	res.Evidence = evidence
	return res
}

func SkippedResult(target Target, ruleID string, message string) Result {
	return NewResult(target, ruleID, StatusSkipped, message)
}

func ErrorResult(target Target, ruleID string, message string) Result {
	return NewResult(target, ruleID, StatusError, message)
}
