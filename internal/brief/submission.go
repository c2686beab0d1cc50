package brief

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/brieflyhq/briefly/internal/models"
)

var (
	ErrInvalidEmail     = errors.New("invalid respondent email")
	ErrInvalidUploadRef = errors.New("upload answers must be a file URL")
)

// Submission is what a respondent sent, before it is matched to the brief.
type Submission struct {
	RespondentEmail string
	Answers         map[string]models.Answer
	ClientInfo      *models.ClientInfo
}

// Observed carries the request metadata the server saw itself. It fills any
// client info field the browser did not report.
type Observed struct {
	UserAgent string
	Language  string
	Referrer  string
}

// BuildResponse turns a submission into the Response row to insert. Only
// answers to questions of this brief are kept, blanks are dropped, and the
// value shape follows the question type. Required questions are not
// re-checked here.
func BuildResponse(b *models.Brief, sub Submission, seen Observed, now time.Time) (*models.Response, error) {
	resp := &models.Response{
		ID:          uuid.NewString(),
		BriefID:     b.ID,
		Answers:     make(map[string]models.Answer, len(b.Questions)),
		SubmittedAt: now.UTC(),
	}

	if email := strings.TrimSpace(sub.RespondentEmail); email != "" {
		if err := validate.Var(email, "email"); err != nil {
			return nil, ErrInvalidEmail
		}
		resp.RespondentEmail = &email
	}

	for _, q := range b.Questions {
		a, ok := sub.Answers[q.ID]
		if !ok || a.IsEmpty() {
			continue
		}
		a = coerce(q, a)
		if q.Type == models.QuestionUpload {
			if err := checkUploadRef(a.Text); err != nil {
				return nil, fmt.Errorf("question %s: %w", q.ID, err)
			}
		}
		resp.Answers[q.ID] = a
	}

	resp.ClientInfo = mergeClientInfo(sub.ClientInfo, seen, now)
	return resp, nil
}

func coerce(q models.Question, a models.Answer) models.Answer {
	if q.Type == models.QuestionCheckbox {
		if a.IsList() {
			choices := make([]string, 0, len(a.Choices))
			for _, c := range a.Choices {
				if strings.TrimSpace(c) != "" {
					choices = append(choices, c)
				}
			}
			return models.ChoiceAnswer(choices)
		}
		return models.ChoiceAnswer([]string{a.Text})
	}
	if a.IsList() {
		return models.TextAnswer(a.String())
	}
	return models.TextAnswer(strings.TrimSpace(a.Text))
}

func checkUploadRef(ref string) error {
	u, err := url.Parse(ref)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ErrInvalidUploadRef
	}
	return nil
}

func mergeClientInfo(client *models.ClientInfo, seen Observed, now time.Time) *models.ClientInfo {
	info := models.ClientInfo{}
	if client != nil {
		info = *client
	}
	if info.UserAgent == "" {
		info.UserAgent = seen.UserAgent
	}
	if info.Language == "" {
		info.Language = primaryLanguage(seen.Language)
	}
	if info.Referrer == "" {
		info.Referrer = seen.Referrer
	}
	if info.Timestamp == "" {
		info.Timestamp = now.UTC().Format(time.RFC3339)
	}
	return &info
}

// primaryLanguage reduces an Accept-Language header to its first tag.
func primaryLanguage(header string) string {
	first, _, _ := strings.Cut(header, ",")
	tag, _, _ := strings.Cut(first, ";")
	return strings.TrimSpace(tag)
}
