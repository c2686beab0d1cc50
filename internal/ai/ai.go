package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/brieflyhq/briefly/internal/brief"
	"github.com/brieflyhq/briefly/internal/models"
)

// MaxSuggestions caps how many questions one call returns.
const MaxSuggestions = 12

var ErrEmptyAnswer = errors.New("model returned no suggestions")

// AIService drafts brief questions with Gemini.
type AIService struct {
	Client    *genai.Client
	ModelName string
}

// NewAIService initializes the Gemini client.
func NewAIService(ctx context.Context, apiKey, modelName string) (*AIService, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	if modelName == "" {
		modelName = "gemini-1.5-flash"
	}
	return &AIService{Client: client, ModelName: modelName}, nil
}

func (s *AIService) Close() error {
	return s.Client.Close()
}

// SuggestQuestions asks the model for intake questions that fit a project
// description. The result passes the same checks as a saved brief.
func (s *AIService) SuggestQuestions(ctx context.Context, description string, count int) ([]models.Question, error) {
	if count <= 0 || count > MaxSuggestions {
		count = 6
	}

	// 1. Configure the model for JSON output
	model := s.Client.GenerativeModel(s.ModelName)
	model.ResponseMIMEType = "application/json"
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(systemPrompt)},
	}

	// 2. Ask
	prompt := fmt.Sprintf("Project description:\n%s\n\nReturn exactly %d questions.", description, count)
	res, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return nil, fmt.Errorf("error generating suggestions: %w", err)
	}

	// 3. Collect the text parts of the first candidate
	if len(res.Candidates) == 0 || res.Candidates[0].Content == nil {
		return nil, ErrEmptyAnswer
	}
	var sb strings.Builder
	for _, part := range res.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	return ParseSuggestions(sb.String(), count, time.Now())
}

const systemPrompt = `You help freelancers write client intake forms ("briefs").
Answer with a JSON array only. Each element is an object with:
  "type": one of "short", "long", "multiple", "checkbox", "upload";
  "question": the question text, under 200 characters;
  "required": boolean;
  "options": for "multiple" and "checkbox" only, 2 to 6 short option labels.
Prefer open "long" questions for goals and context, "checkbox" for service
selection, and "upload" only for existing brand assets.`

type suggestion struct {
	Type     string   `json:"type"`
	Question string   `json:"question"`
	Required bool     `json:"required"`
	Options  []string `json:"options"`
}

// ParseSuggestions turns model output into questions with fresh ids. Items
// with an unknown type or no text are skipped; option lists are repaired to
// fit the question type.
func ParseSuggestions(text string, limit int, now time.Time) ([]models.Question, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")

	var items []suggestion
	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &items); err != nil {
		return nil, fmt.Errorf("unreadable suggestions: %w", err)
	}

	out := make([]models.Question, 0, len(items))
	for _, it := range items {
		if len(out) == limit {
			break
		}
		qt := models.QuestionType(strings.ToLower(strings.TrimSpace(it.Type)))
		q, err := brief.NewQuestion(brief.NewQuestionID(now), qt)
		if err != nil {
			continue
		}
		q.Question = strings.TrimSpace(it.Question)
		if q.Question == "" {
			continue
		}
		q.Required = it.Required
		if qt.HasOptions() {
			if opts := cleanOptions(it.Options); len(opts) >= brief.MinOptions {
				q.Options = opts
			}
		}
		out = append(out, q)
	}
	if len(out) == 0 {
		return nil, ErrEmptyAnswer
	}
	if err := brief.ValidateQuestions(out); err != nil {
		return nil, err
	}
	return out, nil
}

func cleanOptions(in []string) []string {
	seen := map[string]bool{}
	out := make([]string, 0, len(in))
	for _, o := range in {
		o = strings.TrimSpace(o)
		if o == "" || seen[o] {
			continue
		}
		seen[o] = true
		out = append(out, o)
	}
	return out
}
