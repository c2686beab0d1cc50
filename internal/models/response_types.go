package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// ClientInfoKey is the reserved answers key holding respondent metadata.
// Generated question ids always start with "q_" and can never collide with it.
const ClientInfoKey = "_clientInfo"

// ClientInfo is the ambient metadata captured with a submission.
type ClientInfo struct {
	UserAgent string `json:"userAgent,omitempty"`
	Language  string `json:"language,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
	Referrer  string `json:"referrer,omitempty"`
	Viewport  string `json:"viewport,omitempty"`
	Timezone  string `json:"timezone,omitempty"`
}

// Answer is a single answer value: free text (short, long, multiple, upload URL)
// or a list of choices (checkbox).
type Answer struct {
	Text    string
	Choices []string
}

// TextAnswer builds a scalar answer.
func TextAnswer(s string) Answer { return Answer{Text: s} }

// ChoiceAnswer builds a list answer.
func ChoiceAnswer(choices []string) Answer {
	if choices == nil {
		choices = []string{}
	}
	return Answer{Choices: choices}
}

// IsList reports whether the answer holds a list of choices.
func (a Answer) IsList() bool { return a.Choices != nil }

// IsEmpty reports whether the respondent left the question blank.
func (a Answer) IsEmpty() bool {
	if a.IsList() {
		for _, c := range a.Choices {
			if strings.TrimSpace(c) != "" {
				return false
			}
		}
		return true
	}
	return strings.TrimSpace(a.Text) == ""
}

// String renders the answer for exports and plain-text views.
func (a Answer) String() string {
	if a.IsList() {
		return strings.Join(a.Choices, ", ")
	}
	return a.Text
}

func (a Answer) MarshalJSON() ([]byte, error) {
	if a.IsList() {
		return json.Marshal(a.Choices)
	}
	return json.Marshal(a.Text)
}

// UnmarshalJSON accepts a string, a list of strings, or a legacy scalar
// (number or bool), which is kept as its literal text.
func (a *Answer) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*a = Answer{}
		return nil
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*a = TextAnswer(s)
		return nil
	case '[':
		var raw []json.RawMessage
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		choices := make([]string, 0, len(raw))
		for _, item := range raw {
			var inner Answer
			if err := inner.UnmarshalJSON(item); err != nil {
				return err
			}
			choices = append(choices, inner.String())
		}
		*a = ChoiceAnswer(choices)
		return nil
	case '{':
		return fmt.Errorf("answer: object values are not supported")
	default:
		*a = TextAnswer(string(data))
		return nil
	}
}

// Response defines the model for the 'responses' table
type Response struct {
	ID              string            `json:"id" db:"id"`
	BriefID         string            `json:"briefId" db:"brief_id"`
	RespondentEmail *string           `json:"respondentEmail,omitempty" db:"respondent_email"`
	Answers         map[string]Answer `json:"answers" db:"answers"` // Stored together with ClientInfo as one JSON object
	ClientInfo      *ClientInfo       `json:"clientInfo,omitempty" db:"-"`
	SubmittedAt     time.Time         `json:"submittedAt" db:"submitted_at"`
}
