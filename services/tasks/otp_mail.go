package tasks

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const TypeOTPMail = "otp:mail"

// OTPMailPayload is the queued delivery of one passcode.
type OTPMailPayload struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

// NewOTPMailTask builds a delivery task that is dropped once the passcode
// would have expired anyway.
func NewOTPMailTask(payload OTPMailPayload, codeTTL time.Duration) (*asynq.Task, []asynq.Option, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, nil, err
	}
	task := asynq.NewTask(TypeOTPMail, b)
	opts := []asynq.Option{
		asynq.MaxRetry(5),
		asynq.Timeout(30 * time.Second),
		asynq.Deadline(time.Now().Add(codeTTL)),
	}

	return task, opts, nil
}
