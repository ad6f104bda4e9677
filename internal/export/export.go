// Package export renders translated pages as a downloadable document.
package export

import (
	"fmt"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/valpere/pagetran/internal"
	"github.com/valpere/pagetran/internal/apperrors"
	"github.com/valpere/pagetran/internal/markdown"
)

type Format string

const (
	FormatOriginal   Format = "original"
	FormatTranslated Format = "translated"
	FormatBoth       Format = "both"
)

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatBoth, nil
	case FormatOriginal, FormatTranslated, FormatBoth:
		return f, nil
	default:
		return "", apperrors.Validation("invalid format %q: must be original, translated or both", s)
	}
}

func (f Format) original() bool   { return f == FormatOriginal || f == FormatBoth }
func (f Format) translated() bool { return f == FormatTranslated || f == FormatBoth }

type Render string

const (
	RenderText Render = "text"
	RenderHTML Render = "html"
)

func ParseRender(s string) (Render, error) {
	switch r := Render(strings.ToLower(strings.TrimSpace(s))); r {
	case "":
		return RenderText, nil
	case RenderText, RenderHTML:
		return r, nil
	default:
		return "", apperrors.Validation("invalid render %q: must be text or html", s)
	}
}

type Request struct {
	Pages       []internal.TranslatedPage
	Format      Format
	PageNumbers []int
	Render      Render
}

// File is a rendered download.
type File struct {
	Name        string
	ContentType string
	Body        []byte
}

const (
	title         = "PDF Translation Result"
	timeLayout    = "2006-01-02 15:04:05"
	filenameStamp = "20060102_150405"
)

var (
	heavyRule = strings.Repeat("=", 80)
	lightRule = strings.Repeat("-", 80)
)

// Build renders the selected pages in ascending page order.
func Build(req Request, now time.Time) (*File, error) {
	if len(req.Pages) == 0 {
		return nil, apperrors.Validation("pages data is required")
	}
	if req.Format == "" {
		req.Format = FormatBoth
	}
	if req.Render == "" {
		req.Render = RenderText
	}

	pages := selectPages(req.Pages, req.PageNumbers)
	if len(pages) == 0 {
		return nil, apperrors.Validation("no matching pages found")
	}

	name := "translation_" + now.Format(filenameStamp)
	if len(req.PageNumbers) == 1 {
		name = fmt.Sprintf("translation_page%d_%s", req.PageNumbers[0], now.Format(filenameStamp))
	}

	switch req.Render {
	case RenderHTML:
		md := renderMarkdown(pages, req.Format, now)
		return &File{
			Name:        name + ".html",
			ContentType: "text/html; charset=utf-8",
			Body:        []byte(markdown.Page(title, []byte(md))),
		}, nil
	case RenderText:
		return &File{
			Name:        name + ".txt",
			ContentType: "text/plain; charset=utf-8",
			Body:        []byte(renderText(pages, req.Format, now)),
		}, nil
	default:
		return nil, apperrors.Validation("invalid render %q: must be text or html", req.Render)
	}
}

func selectPages(pages []internal.TranslatedPage, numbers []int) []internal.TranslatedPage {
	out := make([]internal.TranslatedPage, 0, len(pages))
	for _, p := range pages {
		if len(numbers) == 0 || slices.Contains(numbers, p.Page) {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Page < out[j].Page })
	return out
}

func renderText(pages []internal.TranslatedPage, format Format, now time.Time) string {
	lines := []string{
		heavyRule,
		title,
		"Generated: " + now.Format(timeLayout),
		heavyRule,
		"",
	}

	for _, p := range pages {
		lines = append(lines,
			"\n"+heavyRule,
			fmt.Sprintf("Page %d", p.Page),
			heavyRule+"\n",
		)
		if format.original() && p.Original.Text != "" {
			lines = append(lines, "[ORIGINAL]", lightRule, p.Original.Text, "")
		}
		if format.translated() && p.Translated.Text != "" {
			lines = append(lines, "[TRANSLATION]", lightRule, p.Translated.Text, "")
		}
	}
	return strings.Join(lines, "\n")
}

func renderMarkdown(pages []internal.TranslatedPage, format Format, now time.Time) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n\nGenerated: %s\n\n", title, now.Format(timeLayout))
	for _, p := range pages {
		fmt.Fprintf(&sb, "## Page %d\n\n", p.Page)
		if format.original() && p.Original.Text != "" {
			fmt.Fprintf(&sb, "### Original\n\n%s\n\n", markdown.EscapeText(p.Original.Text))
		}
		if format.translated() && p.Translated.Text != "" {
			fmt.Fprintf(&sb, "### Translation\n\n%s\n\n", markdown.EscapeText(p.Translated.Text))
		}
	}
	return sb.String()
}
