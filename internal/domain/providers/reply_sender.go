package providers

import "context"

// ReplyMessage is a reply to a feedback submitter
type ReplyMessage struct {
	To      string
	Subject string
	Body    string
}

// ReplySender delivers feedback replies to their submitters
type ReplySender interface {
	Send(ctx context.Context, msg ReplyMessage) error
}
