package brief

import (
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/brieflyhq/briefly/internal/models"
)

var (
	ErrQuestionNotFound = errors.New("question not found")
	ErrIndexOutOfRange  = errors.New("index out of range")
	ErrNoOptions        = errors.New("question type has no options")
	ErrUnknownType      = errors.New("unknown question type")
)

// MinOptions is the smallest option list a multiple or checkbox question may hold.
const MinOptions = 2

var questionSeq atomic.Uint64

// NewQuestionID returns a timestamp-and-sequence id such as "q_1718000000000_7".
func NewQuestionID(now time.Time) string {
	return fmt.Sprintf("q_%d_%d", now.UnixMilli(), questionSeq.Add(1))
}

// NewQuestion builds a blank question of the given type. Option types are
// seeded with two placeholder options.
func NewQuestion(id string, t models.QuestionType) (models.Question, error) {
	if !t.Valid() {
		return models.Question{}, fmt.Errorf("%w: %q", ErrUnknownType, t)
	}
	q := models.Question{ID: id, Type: t}
	if t.HasOptions() {
		q.Options = defaultOptions()
	}
	return q, nil
}

func defaultOptions() []string {
	return []string{"Option 1", "Option 2"}
}

// QuestionPatch carries the fields an update may change. Nil means unchanged.
type QuestionPatch struct {
	Question *string              `json:"question"`
	Required *bool                `json:"required"`
	Type     *models.QuestionType `json:"type"`
}

// The functions below never modify their input; each returns a fresh slice.

func clone(qs []models.Question) []models.Question {
	out := make([]models.Question, len(qs))
	for i, q := range qs {
		if q.Options != nil {
			q.Options = append([]string(nil), q.Options...)
		}
		out[i] = q
	}
	return out
}

func indexOf(qs []models.Question, id string) int {
	for i := range qs {
		if qs[i].ID == id {
			return i
		}
	}
	return -1
}

// AddQuestion appends q to the end of the list.
func AddQuestion(qs []models.Question, q models.Question) []models.Question {
	out := clone(qs)
	return append(out, q)
}

// UpdateQuestion applies patch to the question with the given id. Switching to
// an option type seeds placeholder options; switching away drops them.
func UpdateQuestion(qs []models.Question, id string, patch QuestionPatch) ([]models.Question, error) {
	i := indexOf(qs, id)
	if i < 0 {
		return nil, ErrQuestionNotFound
	}
	out := clone(qs)
	q := &out[i]
	if patch.Question != nil {
		q.Question = *patch.Question
	}
	if patch.Required != nil {
		q.Required = *patch.Required
	}
	if patch.Type != nil && *patch.Type != q.Type {
		if !patch.Type.Valid() {
			return nil, fmt.Errorf("%w: %q", ErrUnknownType, *patch.Type)
		}
		q.Type = *patch.Type
		switch {
		case !q.Type.HasOptions():
			q.Options = nil
		case len(q.Options) < MinOptions:
			q.Options = defaultOptions()
		}
	}
	return out, nil
}

// RemoveQuestion drops the question with the given id.
func RemoveQuestion(qs []models.Question, id string) ([]models.Question, error) {
	i := indexOf(qs, id)
	if i < 0 {
		return nil, ErrQuestionNotFound
	}
	out := clone(qs)
	return append(out[:i], out[i+1:]...), nil
}

// MoveQuestion removes the question at index from and inserts it at index to.
func MoveQuestion(qs []models.Question, from, to int) ([]models.Question, error) {
	n := len(qs)
	if from < 0 || from >= n || to < 0 || to >= n {
		return nil, ErrIndexOutOfRange
	}
	out := clone(qs)
	moved := out[from]
	out = append(out[:from], out[from+1:]...)
	out = append(out[:to], append([]models.Question{moved}, out[to:]...)...)
	return out, nil
}

// AddOption appends an option to a multiple or checkbox question.
func AddOption(qs []models.Question, id, text string) ([]models.Question, error) {
	i := indexOf(qs, id)
	if i < 0 {
		return nil, ErrQuestionNotFound
	}
	if !qs[i].Type.HasOptions() {
		return nil, ErrNoOptions
	}
	out := clone(qs)
	out[i].Options = append(out[i].Options, text)
	return out, nil
}

// UpdateOption replaces the text of one option.
func UpdateOption(qs []models.Question, id string, index int, text string) ([]models.Question, error) {
	i := indexOf(qs, id)
	if i < 0 {
		return nil, ErrQuestionNotFound
	}
	if !qs[i].Type.HasOptions() {
		return nil, ErrNoOptions
	}
	if index < 0 || index >= len(qs[i].Options) {
		return nil, ErrIndexOutOfRange
	}
	out := clone(qs)
	out[i].Options[index] = text
	return out, nil
}

// RemoveOption drops one option. It is a no-op when the question is already
// at MinOptions.
func RemoveOption(qs []models.Question, id string, index int) ([]models.Question, error) {
	i := indexOf(qs, id)
	if i < 0 {
		return nil, ErrQuestionNotFound
	}
	if !qs[i].Type.HasOptions() {
		return nil, ErrNoOptions
	}
	if index < 0 || index >= len(qs[i].Options) {
		return nil, ErrIndexOutOfRange
	}
	out := clone(qs)
	if len(out[i].Options) <= MinOptions {
		return out, nil
	}
	opts := out[i].Options
	out[i].Options = append(opts[:index], opts[index+1:]...)
	return out, nil
}
