package brief

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/brieflyhq/briefly/internal/models"
)

// ValidationError lists every problem found in a brief.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "invalid brief: " + strings.Join(e.Problems, "; ")
}

var validate = newValidator()

// newValidator reports fields by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// MaxTitleLength bounds brief titles.
const MaxTitleLength = 200

// Validate checks the question and style invariants that every saved brief
// must hold. It does not require the brief to be publishable.
func Validate(b *models.Brief) error {
	if b == nil {
		return &ValidationError{Problems: []string{"brief is required"}}
	}
	var problems []string
	if len(b.Title) > MaxTitleLength {
		problems = append(problems, fmt.Sprintf("title exceeds %d characters", MaxTitleLength))
	}
	problems = append(problems, questionProblems(b.Questions)...)
	if err := validate.Struct(b.Style); err != nil {
		problems = append(problems, fieldProblems("style", err)...)
	}
	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}

// ValidateQuestions checks a question list on its own.
func ValidateQuestions(qs []models.Question) error {
	if problems := questionProblems(qs); len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}

func questionProblems(qs []models.Question) []string {
	var problems []string
	seen := make(map[string]bool, len(qs))
	for i, q := range qs {
		prefix := fmt.Sprintf("questions[%d]", i)
		if err := validate.Struct(q); err != nil {
			problems = append(problems, fieldProblems(prefix, err)...)
		}
		if q.ID != "" {
			if seen[q.ID] {
				problems = append(problems, fmt.Sprintf("%s: duplicate id %q", prefix, q.ID))
			}
			seen[q.ID] = true
		}
		switch {
		case q.Type.HasOptions() && len(q.Options) < MinOptions:
			problems = append(problems, fmt.Sprintf("%s: %s questions need at least %d options", prefix, q.Type, MinOptions))
		case !q.Type.HasOptions() && len(q.Options) > 0:
			problems = append(problems, fmt.Sprintf("%s: %s questions take no options", prefix, q.Type))
		}
	}
	return problems
}

func fieldProblems(prefix string, err error) []string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []string{prefix + ": " + err.Error()}
	}
	out := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, fmt.Sprintf("%s.%s: failed %q", prefix, fe.Field(), fe.Tag()))
	}
	return out
}
