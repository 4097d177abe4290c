package scanner

import (
	"github.com/microcosm-cc/bluemonday"
	"rsc.io/markdown"
)

// notesRenderer turns a component README into HTML safe to embed in listings.
type notesRenderer struct {
	md     *markdown.Parser
	policy *bluemonday.Policy
}

func newNotesRenderer() *notesRenderer {
	return &notesRenderer{
		md: &markdown.Parser{
			HeadingIDs:    true,
			Strikethrough: true,
			TaskListItems: true,
			AutoLinkText:  true,
			Table:         true,
			SmartQuote:    true,
		},
		policy: bluemonday.UGCPolicy(),
	}
}

func (n *notesRenderer) Render(src []byte) string {
	doc := n.md.Parse(string(src))
	return n.policy.Sanitize(markdown.ToHTML(doc))
}
