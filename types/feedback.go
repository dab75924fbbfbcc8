package types

import "time"

// MaxFeedbackLength is the default maximum feedback length, in characters.
const MaxFeedbackLength = 500

// Feedback represents a feedback entry stored in the feedback record file.
type Feedback struct {
	Text      string    `json:"feedback" example:"Lovely page!"`
	Timestamp time.Time `json:"timestamp" example:"2024-05-01T12:00:00.000Z"`
}

// FeedbackCreate represents the request body for submitting feedback.
type FeedbackCreate struct {
	Feedback *string `json:"feedback" form:"feedback"`
}
