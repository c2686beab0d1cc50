package brief

import (
	"testing"

	"github.com/brieflyhq/briefly/internal/models"
)

func TestHeaderDefault(t *testing.T) {
	v := Header(models.DefaultStyle())
	if v.Style != models.HeaderDefault {
		t.Fatalf("style = %q", v.Style)
	}
	if v.Background != "#3B82F61A" {
		t.Fatalf("background = %q", v.Background)
	}
	if v.TitleColor != "#1E40AF" || v.HeadingSize != "2rem" {
		t.Fatalf("view = %+v", v)
	}
	if v.ShowLogo || v.Logo != "" || v.LogoAlign != "" {
		t.Fatalf("logo shown without a logo: %+v", v)
	}
}

func TestHeaderMinimal(t *testing.T) {
	s := models.DefaultStyle()
	s.HeaderStyle = models.HeaderMinimal
	s.BackgroundImage = "https://cdn.example.com/bg.png"
	v := Header(s)
	if v.Background != "" || v.BackgroundImage != "" {
		t.Fatalf("minimal header colored: %+v", v)
	}
	if v.HeadingSize != "1.5rem" {
		t.Fatalf("heading size = %q", v.HeadingSize)
	}
}

func TestHeaderBrandedLogo(t *testing.T) {
	s := models.DefaultStyle()
	s.HeaderStyle = models.HeaderBranded
	s.PrimaryColor = "#abc"
	s.Logo = "https://cdn.example.com/logo.png"
	s.LogoPosition = "right"
	s.LogoSize = "large"
	v := Header(s)
	if !v.ShowLogo || !v.LogoAboveTitle || v.LogoAlign != "center" {
		t.Fatalf("branded logo placement = %+v", v)
	}
	if v.LogoSize != "120px" {
		t.Fatalf("logo size = %q", v.LogoSize)
	}
	if v.Background != "#AABBCC1A" {
		t.Fatalf("background = %q", v.Background)
	}
}

func TestHeaderDefaultKeepsLogoPosition(t *testing.T) {
	s := models.DefaultStyle()
	s.Logo = "https://cdn.example.com/logo.png"
	s.LogoPosition = "right"
	v := Header(s)
	if v.LogoAlign != "right" || v.LogoAboveTitle {
		t.Fatalf("view = %+v", v)
	}
	if v.LogoSize != "80px" {
		t.Fatalf("logo size = %q", v.LogoSize)
	}
}

func TestHeaderFillsBlankStyle(t *testing.T) {
	v := Header(models.Style{})
	want := Header(models.DefaultStyle())
	if v != want {
		t.Fatalf("blank style = %+v, want %+v", v, want)
	}
}
