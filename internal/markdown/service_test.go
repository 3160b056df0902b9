package markdown

import (
	"strings"
	"testing"
)

func TestRender_GFMAndHardWraps(t *testing.T) {
	svc := NewService()
	html, err := svc.Render("**需求**上升\n價格上升\n\n| a | b |\n|---|---|\n| 1 | 2 |")
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	for _, want := range []string{"<strong>需求</strong>", "<br", "<table>"} {
		if !strings.Contains(html, want) {
			t.Fatalf("expected %q in %q", want, html)
		}
	}
}

func TestRender_EscapesRawHTML(t *testing.T) {
	svc := NewService()
	html, err := svc.Render("<script>alert(1)</script>")
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if strings.Contains(html, "<script>") {
		t.Fatalf("raw html leaked: %q", html)
	}
}

func TestRender_Empty(t *testing.T) {
	html, err := NewService().Render("  \n")
	if err != nil || html != "" {
		t.Fatalf("expected empty output, got %q %v", html, err)
	}
}

func TestExcerpt(t *testing.T) {
	svc := NewService()
	got, err := svc.Excerpt("# 標題\n\n一段 *重要* 文字\n第二行", 0)
	if err != nil {
		t.Fatalf("Excerpt() error = %v", err)
	}
	if got != "標題 一段 重要 文字 第二行" {
		t.Fatalf("unexpected excerpt %q", got)
	}

	got, err = svc.Excerpt("abcdef", 3)
	if err != nil {
		t.Fatalf("Excerpt() error = %v", err)
	}
	if got != "abc…" {
		t.Fatalf("unexpected truncated excerpt %q", got)
	}
}
