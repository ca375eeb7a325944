// Package email defines the message data model used throughout the broadcaster.
package email

// Email represents one outbound message, already personalized for a
// single recipient.
type Email struct {
	From     string
	FromName string
	To       []string
	Cc       []string
	Bcc      []string
	Subject  string
	TextBody string
	HtmlBody string
}

// Recipient is a validated (name, address) pair targeted for one message.
type Recipient struct {
	Name  string
	Email string
}
