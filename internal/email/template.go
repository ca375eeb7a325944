package email

import (
	"regexp"
	"strings"
)

// DefaultPlaceholder is the token replaced with the recipient's name.
const DefaultPlaceholder = "{name}"

// addressPattern is a shape check only (local@domain.tld), not RFC 5322.
var addressPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidAddress reports whether s looks like an email address.
func ValidAddress(s string) bool {
	return addressPattern.MatchString(s)
}

// Template is the message shared by every recipient of a broadcast.
// Subject, Body and HTMLBody may contain the placeholder token.
type Template struct {
	Subject  string
	Body     string
	HTMLBody string
	FromName string
	Cc       string
	Bcc      string
}

// Render personalizes the template for r. Every occurrence of token in the
// subject and bodies is replaced with r.Name; nothing else is touched.
// An empty token falls back to DefaultPlaceholder.
func (t Template) Render(r Recipient, token string) *Email {
	if token == "" {
		token = DefaultPlaceholder
	}

	return &Email{
		FromName: t.FromName,
		To:       []string{r.Email},
		Cc:       SplitAddresses(t.Cc),
		Bcc:      SplitAddresses(t.Bcc),
		Subject:  strings.ReplaceAll(t.Subject, token, r.Name),
		TextBody: strings.ReplaceAll(t.Body, token, r.Name),
		HtmlBody: strings.ReplaceAll(t.HTMLBody, token, r.Name),
	}
}

// SplitAddresses splits a comma or semicolon separated address list,
// dropping empty entries. It returns nil for an empty list.
func SplitAddresses(list string) []string {
	fields := strings.FieldsFunc(list, func(r rune) bool {
		return r == ',' || r == ';'
	})

	var out []string
	for _, f := range fields {
		if addr := strings.TrimSpace(f); addr != "" {
			out = append(out, addr)
		}
	}
	return out
}
