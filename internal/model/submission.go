package model

import (
	"strings"
	"time"
)

// Category is the label assigned to a contact submission.
type Category string

const (
	CategoryJobInquiry    Category = "Job Inquiry"
	CategoryCollaboration Category = "Collaboration"
	CategoryFeedback      Category = "Feedback"
	CategorySpam          Category = "Spam"
	CategoryGeneral       Category = "General"
)

// Categories is the fixed taxonomy, in prompt order.
var Categories = []Category{
	CategoryJobInquiry,
	CategoryCollaboration,
	CategoryFeedback,
	CategorySpam,
	CategoryGeneral,
}

// Valid reports whether c is one of the five labels.
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// ParseCategory matches s against the taxonomy, ignoring case and
// surrounding whitespace. It returns false when nothing matches.
func ParseCategory(s string) (Category, bool) {
	s = strings.TrimSpace(s)
	for _, known := range Categories {
		if strings.EqualFold(s, string(known)) {
			return known, true
		}
	}
	return "", false
}

// Submission represents a message sent through the contact form.
type Submission struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	Category  Category  `json:"category"`
	IsRead    bool      `json:"isRead"`
}

// SubmissionUpdate carries the admin-mutable fields of a submission.
// Nil fields are left untouched.
type SubmissionUpdate struct {
	IsRead *bool `json:"isRead,omitempty"`
}

// Empty reports whether the update would change nothing.
func (u SubmissionUpdate) Empty() bool {
	return u.IsRead == nil
}

// ContactInput is the visitor-supplied part of a submission.
type ContactInput struct {
	Name    string `json:"name" validate:"required,min=2,max=100"`
	Email   string `json:"email" validate:"required,email,max=254"`
	Message string `json:"message" validate:"required,min=10,max=5000"`
}
