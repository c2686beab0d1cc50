package models

import "time"

// QuestionType is the input control a question renders as.
type QuestionType string

const (
	QuestionShort    QuestionType = "short"
	QuestionLong     QuestionType = "long"
	QuestionMultiple QuestionType = "multiple"
	QuestionCheckbox QuestionType = "checkbox"
	QuestionUpload   QuestionType = "upload"
)

// Valid reports whether t is one of the known question types.
func (t QuestionType) Valid() bool {
	switch t {
	case QuestionShort, QuestionLong, QuestionMultiple, QuestionCheckbox, QuestionUpload:
		return true
	}
	return false
}

// HasOptions reports whether questions of this type carry an option list.
func (t QuestionType) HasOptions() bool {
	return t == QuestionMultiple || t == QuestionCheckbox
}

// Question is one entry of a brief's ordered question list.
type Question struct {
	ID       string       `json:"id" validate:"required,max=64,ne=_clientInfo"`
	Type     QuestionType `json:"type" validate:"required,oneof=short long multiple checkbox upload"`
	Question string       `json:"question" validate:"max=1000"`
	Required bool         `json:"required"`
	Options  []string     `json:"options,omitempty" validate:"omitempty,dive,max=300"`
}

// HeaderStyle selects how the form header is drawn.
type HeaderStyle string

const (
	HeaderDefault HeaderStyle = "default"
	HeaderMinimal HeaderStyle = "minimal"
	HeaderBranded HeaderStyle = "branded"
)

// Style is the presentational configuration of a brief.
type Style struct {
	PrimaryColor    string      `json:"primaryColor" validate:"omitempty,hexcolor"`
	SecondaryColor  string      `json:"secondaryColor" validate:"omitempty,hexcolor"`
	FontFamily      string      `json:"fontFamily" validate:"max=100"`
	HeaderStyle     HeaderStyle `json:"headerStyle" validate:"omitempty,oneof=default minimal branded"`
	Logo            string      `json:"logo,omitempty" validate:"omitempty,url"`
	LogoPosition    string      `json:"logoPosition,omitempty" validate:"omitempty,oneof=left center right"`
	LogoSize        string      `json:"logoSize,omitempty" validate:"omitempty,oneof=small medium large"`
	BackgroundImage string      `json:"backgroundImage,omitempty" validate:"omitempty,url"`
}

// DefaultStyle is applied to new briefs and to briefs whose stored style is unreadable.
func DefaultStyle() Style {
	return Style{
		PrimaryColor:   "#3B82F6",
		SecondaryColor: "#1E40AF",
		FontFamily:     "Inter",
		HeaderStyle:    HeaderDefault,
	}
}

// Brief defines the model for the 'briefs' table
type Brief struct {
	ID          string     `json:"id" db:"id"`
	Title       string     `json:"title" db:"title"`
	Description string     `json:"description" db:"description"`
	Questions   []Question `json:"questions" db:"questions"` // Stored as JSON text
	Style       Style      `json:"style" db:"style"`         // Stored as JSON text
	OwnerID     string     `json:"owner" db:"owner_id"`
	CreatedAt   time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time  `json:"updatedAt" db:"updated_at"`

	// Populated by the dashboard query only.
	ResponseCount int `json:"responseCount" db:"-"`
}
