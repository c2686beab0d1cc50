package brief

import (
	"bytes"
	"encoding/json"

	"github.com/brieflyhq/briefly/internal/models"
)

// DecodeQuestions reads a stored questions column. Older rows may hold the
// list double-encoded as a JSON string. Anything unreadable yields an empty
// list and ok=false so the caller can log it; the error never reaches a view.
func DecodeQuestions(raw []byte) (qs []models.Question, ok bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return []models.Question{}, true
	}
	if err := json.Unmarshal(raw, &qs); err == nil {
		if qs == nil {
			qs = []models.Question{}
		}
		return qs, true
	}
	if inner, isString := unwrapString(raw); isString {
		return DecodeQuestions(inner)
	}
	return []models.Question{}, false
}

// DecodeStyle reads a stored style column the same way DecodeQuestions does,
// falling back to DefaultStyle. Blank fields are filled from the defaults.
func DecodeStyle(raw []byte) (models.Style, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return models.DefaultStyle(), true
	}
	var s models.Style
	if err := json.Unmarshal(raw, &s); err == nil {
		return withDefaults(s), true
	}
	if inner, isString := unwrapString(raw); isString {
		return DecodeStyle(inner)
	}
	return models.DefaultStyle(), false
}

// unwrapString returns the content of a JSON string literal when that content
// looks like JSON itself. Each call strips one quoting layer.
func unwrapString(raw []byte) ([]byte, bool) {
	if len(raw) == 0 || raw[0] != '"' {
		return nil, false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, false
	}
	inner := bytes.TrimSpace([]byte(s))
	if len(inner) == 0 || (inner[0] != '[' && inner[0] != '{' && inner[0] != '"') {
		return nil, false
	}
	return inner, true
}

// EncodeQuestions and EncodeStyle produce the stored column values.
func EncodeQuestions(qs []models.Question) ([]byte, error) {
	if qs == nil {
		qs = []models.Question{}
	}
	return json.Marshal(qs)
}

func EncodeStyle(s models.Style) ([]byte, error) {
	return json.Marshal(s)
}
