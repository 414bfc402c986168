package db

// JobType identifica qual handler do worker processa o job.
type JobType string

const (
	JobSendVerificationEmail  JobType = "send_verification_email"
	JobSendPasswordResetEmail JobType = "send_password_reset_email"
	JobModeratePost           JobType = "moderate_post"
	JobSummarizePost          JobType = "summarize_post"
)

// Estados possíveis de um job na fila.
const (
	JobStatusPending    = "pending"
	JobStatusProcessing = "processing"
	JobStatusCompleted  = "completed"
)

// Estados de moderação de um post. Todo post nasce pending e o job de
// moderação (ou o webhook externo) decide o destino.
const (
	ModerationPending  = "pending"
	ModerationApproved = "approved"
	ModerationRejected = "rejected"
)
