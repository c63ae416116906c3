package payload

import (
	"html"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/kennygrant/sanitize"

	"github.com/amishk599/boardsync/internal/model"
)

const emptyDescription = "<p>No description provided</p>"

var (
	allowedTags = []string{
		"h1", "h2", "h3", "h4", "h5", "h6",
		"p", "br", "ul", "ol", "li",
		"strong", "b", "em", "i", "a",
	}
	allowedAttrs = []string{"href"}
)

// Description picks the job's HTML description when it has visible text,
// else the plain description wrapped in paragraphs, else a placeholder.
func (b *Builder) Description(job model.JobRecord) string {
	out := emptyDescription
	switch {
	case HasVisibleText(job.HTMLDescription):
		out = strings.TrimSpace(job.HTMLDescription)
	case strings.TrimSpace(job.Description) != "":
		out = paragraphs(job.Description)
	}
	if !b.sanitize {
		return out
	}
	return clean(out)
}

// HasVisibleText reports whether the HTML fragment renders any text.
func HasVisibleText(fragment string) bool {
	if strings.TrimSpace(fragment) == "" {
		return false
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return false
	}
	doc.Find("script, style, noscript").Remove()
	return strings.TrimSpace(doc.Text()) != ""
}

// paragraphs escapes plain text and wraps each blank-line separated block
// in <p>, keeping single line breaks as <br>.
func paragraphs(text string) string {
	text = strings.ReplaceAll(strings.TrimSpace(text), "\r\n", "\n")
	var sb strings.Builder
	for _, block := range strings.Split(text, "\n\n") {
		block = strings.TrimSpace(block)
		if block == "" {
			continue
		}
		lines := strings.Split(block, "\n")
		for i := range lines {
			lines[i] = html.EscapeString(strings.TrimSpace(lines[i]))
		}
		sb.WriteString("<p>")
		sb.WriteString(strings.Join(lines, "<br>"))
		sb.WriteString("</p>")
	}
	return sb.String()
}

// clean strips everything outside the allow-list. If the sanitizer
// rejects the input, the visible text is kept as a single paragraph.
func clean(fragment string) string {
	out, err := sanitize.HTMLAllowing(fragment, allowedTags, allowedAttrs)
	if out = strings.TrimSpace(out); err == nil && out != "" {
		if !startsWithBlock(out) {
			out = "<p>" + out + "</p>"
		}
		return out
	}
	doc, derr := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if derr != nil {
		return emptyDescription
	}
	text := strings.TrimSpace(doc.Text())
	if text == "" {
		return emptyDescription
	}
	return "<p>" + html.EscapeString(text) + "</p>"
}

var blockTags = map[string]bool{
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"p": true, "ul": true, "ol": true,
}

// startsWithBlock reports whether fragment opens with a block element.
func startsWithBlock(fragment string) bool {
	if !strings.HasPrefix(fragment, "<") {
		return false
	}
	name := fragment[1:]
	end := strings.IndexAny(name, " \t\n/>")
	if end <= 0 {
		return false
	}
	return blockTags[strings.ToLower(name[:end])]
}
