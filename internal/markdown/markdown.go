// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package markdown converts Markdown source text into HTML using goldmark
// and computes a reading-time estimate from the plain-text projection.
// Rendering is deterministic: the same source always produces byte-identical
// HTML, which the page cache and the revalidation pipeline rely on.
package markdown

import (
	"bytes"
	"fmt"
	"html"
	"math"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	htmlrenderer "github.com/yuin/goldmark/renderer/html"

	"loreleaf/internal/slug"
)

// WordsPerMinute is the reading speed used for the reading-time estimate.
const WordsPerMinute = 200

// md is the configured goldmark instance, reused across calls.
var md = goldmark.New(
	goldmark.WithExtensions(
		extension.GFM,         // GitHub-Flavored Markdown: tables, strikethrough, autolinks, task lists
		extension.Typographer, // Smart quotes and dashes
		highlighting.NewHighlighting( // Syntax highlighting for fenced code blocks
			highlighting.WithStyle("monokai"),
			highlighting.WithFormatOptions(),
		),
	),
	goldmark.WithParserOptions(
		parser.WithAutoHeadingID(), // Heading IDs assigned via headingIDs below
	),
	goldmark.WithRendererOptions(
		htmlrenderer.WithUnsafe(), // Allow raw HTML blocks for legacy content
	),
)

// stripTags removes all HTML tags, leaving only visible text. Used for the
// plain-text projection that word counts are computed on.
var stripTags = bluemonday.StripTagsPolicy()

// Result is the output of a render: cached HTML plus derived metadata.
type Result struct {
	HTML               string
	ReadingTimeMinutes int
}

// Render converts Markdown source into HTML and a reading-time estimate.
// It never fails: if goldmark rejects the input, the literal source is
// emitted escaped inside a <pre> block so a malformed body can never break
// a rendering path.
func Render(source string) Result {
	var buf bytes.Buffer
	err := md.Convert([]byte(source), &buf,
		parser.WithContext(parser.NewContext(parser.WithIDs(newHeadingIDs()))),
	)
	if err != nil {
		escaped := "<pre>" + html.EscapeString(source) + "</pre>\n"
		return Result{
			HTML:               escaped,
			ReadingTimeMinutes: readingTime(source),
		}
	}

	rendered := buf.String()
	return Result{
		HTML:               rendered,
		ReadingTimeMinutes: readingTime(rendered),
	}
}

// readingTime estimates minutes to read the given HTML or text fragment.
// Words are counted on the tag-stripped projection, so markup never inflates
// the estimate. Always at least one minute.
func readingTime(s string) int {
	plain := html.UnescapeString(stripTags.Sanitize(s))
	words := len(strings.Fields(plain))
	minutes := int(math.Round(float64(words) / WordsPerMinute))
	if minutes < 1 {
		minutes = 1
	}
	return minutes
}

// headingIDs implements parser.IDs so heading anchors use the shared slug
// algorithm instead of goldmark's default. Duplicate heading texts get a
// numeric suffix (-1, -2, ...) so ids stay unique within one document.
type headingIDs struct {
	used map[string]bool
}

func newHeadingIDs() parser.IDs {
	return &headingIDs{used: make(map[string]bool)}
}

// Generate returns a unique id for the given heading text.
func (h *headingIDs) Generate(value []byte, kind ast.NodeKind) []byte {
	base := slug.Generate(string(value))
	if base == "" {
		base = "heading"
	}
	candidate := base
	for i := 1; h.used[candidate]; i++ {
		candidate = fmt.Sprintf("%s-%d", base, i)
	}
	h.used[candidate] = true
	return []byte(candidate)
}

// Put registers an explicitly assigned id so generated ids never collide
// with it.
func (h *headingIDs) Put(value []byte) {
	h.used[string(value)] = true
}
