package domain

// ReportIssueRequest is a signed-in user's problem report.
type ReportIssueRequest struct {
	Issue string `json:"issue" validate:"required,max=5000"`
}
