package policies

import "context"

// Attachment is a file sent along with a mail.
type Attachment struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Mail is one outbound message.
type Mail struct {
	To         string
	Subject    string
	Text       string
	Attachment *Attachment
}

// Mailer delivers mail through the outbound transport.
type Mailer interface {
	Send(ctx context.Context, mail Mail) error
}
