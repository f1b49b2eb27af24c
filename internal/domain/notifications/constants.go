package notifications

const (
	TypeRequestAdvanced  = "request_advanced"
	TypeRequestApproved  = "request_approved"
	TypeRequestRejected  = "request_rejected"
	TypeRequestCompleted = "request_completed"
	TypeRequestCancelled = "request_cancelled"
)

const JobSendEmail = "notification_email"
