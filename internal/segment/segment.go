// Package segment splits an incoming chat request into the text fragments
// that flow through classification and extraction.
package segment

import (
	"errors"
	"strings"
)

// ErrEmptyRequest indicates the request carried no usable text: no
// messages, or a final message whose content is empty or whitespace.
var ErrEmptyRequest = errors.New("empty request")

// Message is one chat turn from the caller.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Fragments derives the constraint fragments from a conversation.
//
// A single message is taken whole: one fragment, its full content. With a
// longer conversation only the final message carries new constraints, the
// earlier turns are context; the final message is split on commas so that
// "no Mondays, home games only" yields two fragments. Whitespace-only
// pieces after the split are dropped.
func Fragments(messages []Message) ([]string, error) {
	if len(messages) == 0 {
		return nil, ErrEmptyRequest
	}

	last := messages[len(messages)-1].Content
	if strings.TrimSpace(last) == "" {
		return nil, ErrEmptyRequest
	}

	if len(messages) == 1 {
		return []string{last}, nil
	}

	parts := strings.Split(last, ",")
	fragments := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		fragments = append(fragments, p)
	}
	if len(fragments) == 0 {
		return nil, ErrEmptyRequest
	}
	return fragments, nil
}
