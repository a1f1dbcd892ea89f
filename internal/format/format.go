// Package format renders the assistant's markdown-ish answers as HTML
// for the admin panel chat view.
package format

import (
	"html"
	"regexp"
	"strings"
)

// FormattedResponse carries both renderings of one answer.
type FormattedResponse struct {
	HTML      string
	PlainText string
}

var (
	boldRe    = regexp.MustCompile(`\*\*(.*?)\*\*`)
	italicRe  = regexp.MustCompile(`\*(.*?)\*`)
	codeRe    = regexp.MustCompile("`([^`]+)`")
	orderedRe = regexp.MustCompile(`^\d+\.\s+(.*)$`)

	noteRe = regexp.MustCompile(`(?i)\b(PENTING|IMPORTANT|PERHATIAN|NOTE|CATATAN)\b:?`)
	infoRe = regexp.MustCompile(`(?i)\b(REKOMENDASI|RECOMMENDATION|SARAN|SUGGESTION)\b:?`)
	warnRe = regexp.MustCompile(`(?i)\b(PERINGATAN|WARNING|HATI-HATI|CAUTION)\b:?`)
)

// Response converts one answer to HTML: headers, bold, italics, lists,
// code, paragraphs, and highlight badges for PENTING/REKOMENDASI/
// PERINGATAN markers. The substitutions are mechanical; anything the
// rules do not recognize passes through escaped.
func Response(text string) FormattedResponse {
	if strings.TrimSpace(text) == "" {
		return FormattedResponse{}
	}

	var out []string
	// Fenced segments alternate text / code.
	segments := strings.Split(text, "```")
	for i, seg := range segments {
		if i%2 == 1 {
			out = append(out, "<pre><code>"+html.EscapeString(strings.Trim(seg, "\n"))+"</code></pre>")
			continue
		}
		out = append(out, renderText(seg)...)
	}

	return FormattedResponse{
		HTML:      strings.Join(out, "\n"),
		PlainText: strings.TrimSpace(text),
	}
}

// renderText handles one unfenced segment line by line, grouping
// consecutive list items and paragraph lines.
func renderText(text string) []string {
	var blocks []string
	var paragraph []string
	listOpen := "" // "ul", "ol", or ""

	flushParagraph := func() {
		if len(paragraph) > 0 {
			blocks = append(blocks, "<p>"+strings.Join(paragraph, " ")+"</p>")
			paragraph = nil
		}
	}
	closeList := func() {
		if listOpen != "" {
			blocks = append(blocks, "</"+listOpen+">")
			listOpen = ""
		}
	}
	openList := func(kind string) {
		if listOpen != kind {
			closeList()
			blocks = append(blocks, "<"+kind+">")
			listOpen = kind
		}
	}

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case line == "":
			flushParagraph()
			closeList()
		case strings.HasPrefix(line, "### "):
			flushParagraph()
			closeList()
			blocks = append(blocks, "<h3>"+inline(strings.TrimPrefix(line, "### "))+"</h3>")
		case strings.HasPrefix(line, "## "):
			flushParagraph()
			closeList()
			blocks = append(blocks, "<h2>"+inline(strings.TrimPrefix(line, "## "))+"</h2>")
		case strings.HasPrefix(line, "# "):
			flushParagraph()
			closeList()
			blocks = append(blocks, "<h1>"+inline(strings.TrimPrefix(line, "# "))+"</h1>")
		case strings.HasPrefix(line, "- "):
			flushParagraph()
			openList("ul")
			blocks = append(blocks, "<li>"+inline(strings.TrimPrefix(line, "- "))+"</li>")
		case orderedRe.MatchString(line):
			flushParagraph()
			openList("ol")
			blocks = append(blocks, "<li>"+inline(orderedRe.FindStringSubmatch(line)[1])+"</li>")
		default:
			closeList()
			paragraph = append(paragraph, inline(line))
		}
	}
	flushParagraph()
	closeList()
	return blocks
}

// inline applies span-level substitutions to escaped text.
func inline(s string) string {
	s = html.EscapeString(s)
	s = codeRe.ReplaceAllString(s, "<code>$1</code>")
	s = boldRe.ReplaceAllString(s, "<strong>$1</strong>")
	s = italicRe.ReplaceAllString(s, "<em>$1</em>")
	s = noteRe.ReplaceAllString(s, `<span class="badge badge-note">$1</span>`)
	s = infoRe.ReplaceAllString(s, `<span class="badge badge-info">$1</span>`)
	s = warnRe.ReplaceAllString(s, `<span class="badge badge-warn">$1</span>`)
	return s
}
