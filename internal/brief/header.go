package brief

import (
	"strings"

	"github.com/brieflyhq/briefly/internal/models"
)

// HeaderView is the resolved header presentation. The builder preview and the
// public form both draw their header from this value, so a style always looks
// the same in both places.
type HeaderView struct {
	Style           models.HeaderStyle `json:"style"`
	Background      string             `json:"background,omitempty"`
	TitleColor      string             `json:"titleColor"`
	HeadingSize     string             `json:"headingSize"`
	FontFamily      string             `json:"fontFamily"`
	ShowLogo        bool               `json:"showLogo"`
	Logo            string             `json:"logo,omitempty"`
	LogoAlign       string             `json:"logoAlign,omitempty"`
	LogoSize        string             `json:"logoSize,omitempty"`
	LogoAboveTitle  bool               `json:"logoAboveTitle"`
	BackgroundImage string             `json:"backgroundImage,omitempty"`
}

const (
	headingSizeDefault = "2rem"
	headingSizeMinimal = "1.5rem"
	washAlpha          = "1A" // ~10% opacity
)

var logoSizes = map[string]string{
	"small":  "48px",
	"medium": "80px",
	"large":  "120px",
}

// Header interprets a style:
//   - minimal: no background coloring, smaller heading;
//   - branded: logo, when present, centered above the title;
//   - default: primary color applied as a background wash.
func Header(s models.Style) HeaderView {
	s = withDefaults(s)
	v := HeaderView{
		Style:           s.HeaderStyle,
		TitleColor:      s.SecondaryColor,
		HeadingSize:     headingSizeDefault,
		FontFamily:      s.FontFamily,
		Logo:            s.Logo,
		ShowLogo:        s.Logo != "",
		LogoAlign:       s.LogoPosition,
		BackgroundImage: s.BackgroundImage,
	}
	if v.LogoAlign == "" {
		v.LogoAlign = "left"
	}
	v.LogoSize = logoSizes[s.LogoSize]
	if v.LogoSize == "" {
		v.LogoSize = logoSizes["medium"]
	}

	switch s.HeaderStyle {
	case models.HeaderMinimal:
		v.HeadingSize = headingSizeMinimal
		v.BackgroundImage = ""
	case models.HeaderBranded:
		v.Background = wash(s.PrimaryColor)
		if v.ShowLogo {
			v.LogoAlign = "center"
			v.LogoAboveTitle = true
		}
	default:
		v.Background = wash(s.PrimaryColor)
	}
	if !v.ShowLogo {
		v.Logo = ""
		v.LogoAlign = ""
		v.LogoSize = ""
	}
	return v
}

// wash turns a #RRGGBB (or #RGB) color into a translucent #RRGGBBAA.
func wash(color string) string {
	c := strings.TrimPrefix(color, "#")
	switch len(c) {
	case 3:
		c = string([]byte{c[0], c[0], c[1], c[1], c[2], c[2]})
	case 6:
	default:
		return color
	}
	return "#" + strings.ToUpper(c) + washAlpha
}

// withDefaults fills blank fields from DefaultStyle and maps an unknown
// header style to default.
func withDefaults(s models.Style) models.Style {
	d := models.DefaultStyle()
	if s.PrimaryColor == "" {
		s.PrimaryColor = d.PrimaryColor
	}
	if s.SecondaryColor == "" {
		s.SecondaryColor = d.SecondaryColor
	}
	if s.FontFamily == "" {
		s.FontFamily = d.FontFamily
	}
	switch s.HeaderStyle {
	case models.HeaderDefault, models.HeaderMinimal, models.HeaderBranded:
	default:
		s.HeaderStyle = models.HeaderDefault
	}
	return s
}
