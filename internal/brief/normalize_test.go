package brief

import (
	"encoding/json"
	"reflect"
	"testing"

	"github.com/brieflyhq/briefly/internal/models"
)

func TestDecodeQuestionsShapes(t *testing.T) {
	qs := []models.Question{
		{ID: "q1", Type: models.QuestionShort, Question: "Company name?", Required: true},
		{ID: "q2", Type: models.QuestionCheckbox, Question: "Services?", Options: []string{"Logo", "Site"}},
	}
	plain, err := EncodeQuestions(qs)
	if err != nil {
		t.Fatalf("EncodeQuestions: %v", err)
	}
	wrapped, _ := json.Marshal(string(plain))
	twice, _ := json.Marshal(string(wrapped))

	for name, raw := range map[string][]byte{"plain": plain, "string": wrapped, "double string": twice} {
		got, ok := DecodeQuestions(raw)
		if !ok {
			t.Fatalf("%s: ok = false", name)
		}
		if !reflect.DeepEqual(got, qs) {
			t.Fatalf("%s: got %+v, want %+v", name, got, qs)
		}
	}
}

func TestDecodeQuestionsFallback(t *testing.T) {
	cases := map[string]struct {
		raw    string
		wantOK bool
	}{
		"empty":        {"", true},
		"null":         {"null", true},
		"empty list":   {"[]", true},
		"garbage":      {"not json", false},
		"object":       {`{"id":"q1"}`, false},
		"plain string": {`"hello"`, false},
		"bad inner":    {`"[{\"id\":"`, false},
	}
	for name, tc := range cases {
		got, ok := DecodeQuestions([]byte(tc.raw))
		if ok != tc.wantOK {
			t.Fatalf("%s: ok = %v, want %v", name, ok, tc.wantOK)
		}
		if got == nil || len(got) != 0 {
			t.Fatalf("%s: got %v, want empty non-nil list", name, got)
		}
	}
}

func TestDecodeStyle(t *testing.T) {
	s, ok := DecodeStyle([]byte(`{"primaryColor":"#FF0000","headerStyle":"branded"}`))
	if !ok {
		t.Fatalf("ok = false")
	}
	if s.PrimaryColor != "#FF0000" || s.HeaderStyle != models.HeaderBranded {
		t.Fatalf("style = %+v", s)
	}
	if s.SecondaryColor != "#1E40AF" || s.FontFamily != "Inter" {
		t.Fatalf("blank fields not defaulted: %+v", s)
	}

	wrapped, _ := json.Marshal(`{"headerStyle":"minimal"}`)
	s, ok = DecodeStyle(wrapped)
	if !ok || s.HeaderStyle != models.HeaderMinimal {
		t.Fatalf("string-wrapped style = %+v ok=%v", s, ok)
	}

	s, ok = DecodeStyle([]byte("{{"))
	if ok {
		t.Fatalf("garbage decoded ok")
	}
	if s != models.DefaultStyle() {
		t.Fatalf("fallback = %+v", s)
	}

	s, _ = DecodeStyle([]byte(`{"headerStyle":"neon"}`))
	if s.HeaderStyle != models.HeaderDefault {
		t.Fatalf("unknown header style kept: %q", s.HeaderStyle)
	}
}

func TestEncodeQuestionsNil(t *testing.T) {
	raw, err := EncodeQuestions(nil)
	if err != nil {
		t.Fatalf("EncodeQuestions: %v", err)
	}
	if string(raw) != "[]" {
		t.Fatalf("raw = %s", raw)
	}
}
