package brief

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/brieflyhq/briefly/internal/models"
)

// AnswerFormat tags the shape a stored answers value arrived in.
type AnswerFormat int

const (
	// FormatArray is [{"questionId": "...", "answer": ...}, ...].
	FormatArray AnswerFormat = iota + 1
	// FormatLegacyObject is {"<questionId>": value, "_clientInfo": {...}}.
	FormatLegacyObject
	// FormatRawString is a JSON string whose content is one of the other two.
	FormatRawString
)

func (f AnswerFormat) String() string {
	switch f {
	case FormatArray:
		return "array"
	case FormatLegacyObject:
		return "legacy_object"
	case FormatRawString:
		return "raw_string"
	}
	return "unknown"
}

var ErrUnreadableAnswers = errors.New("unreadable answers payload")

// ArrayEntry is one element of a FormatArray payload. Some writers used "id"
// instead of "questionId".
type ArrayEntry struct {
	QuestionID string          `json:"questionId"`
	ID         string          `json:"id"`
	Answer     json.RawMessage `json:"answer"`
}

// AnswerPayload is a tagged union over the stored answer shapes. Exactly one
// of Array, Object or Raw is set, matching Format.
type AnswerPayload struct {
	Format AnswerFormat
	Array  []ArrayEntry
	Object map[string]json.RawMessage
	Raw    string
}

// ParseAnswerPayload classifies raw stored bytes.
func ParseAnswerPayload(raw []byte) (AnswerPayload, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return AnswerPayload{Format: FormatLegacyObject, Object: map[string]json.RawMessage{}}, nil
	}
	switch raw[0] {
	case '[':
		var arr []ArrayEntry
		if err := json.Unmarshal(raw, &arr); err != nil {
			return AnswerPayload{}, fmt.Errorf("%w: %v", ErrUnreadableAnswers, err)
		}
		return AnswerPayload{Format: FormatArray, Array: arr}, nil
	case '{':
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(raw, &obj); err != nil {
			return AnswerPayload{}, fmt.Errorf("%w: %v", ErrUnreadableAnswers, err)
		}
		return AnswerPayload{Format: FormatLegacyObject, Object: obj}, nil
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return AnswerPayload{}, fmt.Errorf("%w: %v", ErrUnreadableAnswers, err)
		}
		return AnswerPayload{Format: FormatRawString, Raw: s}, nil
	}
	return AnswerPayload{}, ErrUnreadableAnswers
}

// Answers is the canonical decoded form: answers keyed by question id plus
// the reserved client metadata.
type Answers struct {
	Values     map[string]models.Answer
	ClientInfo *models.ClientInfo
}

// Decode converts any payload shape into canonical Answers.
func (p AnswerPayload) Decode() (Answers, error) {
	switch p.Format {
	case FormatArray:
		return decodeArray(p.Array)
	case FormatLegacyObject:
		return decodeLegacyObject(p.Object)
	case FormatRawString:
		return decodeRawString(p.Raw)
	}
	return Answers{}, ErrUnreadableAnswers
}

func decodeArray(entries []ArrayEntry) (Answers, error) {
	out := Answers{Values: make(map[string]models.Answer, len(entries))}
	for _, e := range entries {
		id := e.QuestionID
		if id == "" {
			id = e.ID
		}
		if id == "" {
			continue
		}
		if id == models.ClientInfoKey {
			info, err := decodeClientInfo(e.Answer)
			if err != nil {
				return Answers{}, err
			}
			out.ClientInfo = info
			continue
		}
		var a models.Answer
		if err := json.Unmarshal(e.Answer, &a); err != nil {
			return Answers{}, fmt.Errorf("%w: question %s: %v", ErrUnreadableAnswers, id, err)
		}
		out.Values[id] = a
	}
	return out, nil
}

func decodeLegacyObject(obj map[string]json.RawMessage) (Answers, error) {
	out := Answers{Values: make(map[string]models.Answer, len(obj))}
	for id, raw := range obj {
		if id == models.ClientInfoKey {
			info, err := decodeClientInfo(raw)
			if err != nil {
				return Answers{}, err
			}
			out.ClientInfo = info
			continue
		}
		var a models.Answer
		if err := json.Unmarshal(raw, &a); err != nil {
			return Answers{}, fmt.Errorf("%w: question %s: %v", ErrUnreadableAnswers, id, err)
		}
		out.Values[id] = a
	}
	return out, nil
}

// decodeRawString accepts one level of string wrapping; a string inside a
// string is rejected.
func decodeRawString(s string) (Answers, error) {
	inner, err := ParseAnswerPayload([]byte(s))
	if err != nil {
		return Answers{}, err
	}
	if inner.Format == FormatRawString {
		return Answers{}, fmt.Errorf("%w: nested string payload", ErrUnreadableAnswers)
	}
	return inner.Decode()
}

func decodeClientInfo(raw json.RawMessage) (*models.ClientInfo, error) {
	if len(bytes.TrimSpace(raw)) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return nil, nil
	}
	var info models.ClientInfo
	if err := json.Unmarshal(raw, &info); err != nil {
		return nil, fmt.Errorf("%w: client info: %v", ErrUnreadableAnswers, err)
	}
	return &info, nil
}

// DecodeAnswers parses stored bytes in any supported shape.
func DecodeAnswers(raw []byte) (Answers, error) {
	p, err := ParseAnswerPayload(raw)
	if err != nil {
		return Answers{}, err
	}
	return p.Decode()
}

// EncodeAnswers writes the stored shape, which is always FormatLegacyObject
// with the client metadata under the reserved key.
func EncodeAnswers(values map[string]models.Answer, info *models.ClientInfo) ([]byte, error) {
	obj := make(map[string]any, len(values)+1)
	for id, a := range values {
		if id == models.ClientInfoKey {
			return nil, fmt.Errorf("answers: reserved key %q used as question id", id)
		}
		obj[id] = a
	}
	if info != nil {
		obj[models.ClientInfoKey] = info
	}
	return json.Marshal(obj)
}

// AnswerEntry is one row of a response as the viewer shows it.
type AnswerEntry struct {
	QuestionID string              `json:"questionId"`
	Question   string              `json:"question"`
	Type       models.QuestionType `json:"type,omitempty"`
	Answer     models.Answer       `json:"answer"`
	Orphaned   bool                `json:"orphaned,omitempty"`
}

// Ordered lays answers out in the brief's question order. Answers to
// questions that have since been removed follow, sorted by id and flagged.
func (a Answers) Ordered(questions []models.Question) []AnswerEntry {
	out := make([]AnswerEntry, 0, len(a.Values))
	known := make(map[string]bool, len(questions))
	for _, q := range questions {
		known[q.ID] = true
		v, ok := a.Values[q.ID]
		if !ok {
			continue
		}
		out = append(out, AnswerEntry{QuestionID: q.ID, Question: q.Question, Type: q.Type, Answer: v})
	}
	var orphans []string
	for id := range a.Values {
		if !known[id] {
			orphans = append(orphans, id)
		}
	}
	sort.Strings(orphans)
	for _, id := range orphans {
		out = append(out, AnswerEntry{QuestionID: id, Answer: a.Values[id], Orphaned: true})
	}
	return out
}
