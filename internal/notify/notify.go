// Package notify sends the e-mails that tell NGOs about their approval
// status and volunteers about their applications.
//
// Services call a Notifier and never wait on the mail server: Dispatcher
// queues messages for a single background worker that hands them to a
// Sender. Without SMTP settings the server uses Nop.
package notify

import (
	"context"
	"fmt"

	"github.com/sakif/volunteer-connect/internal/model"
)

type Message struct {
	To      string
	Subject string
	Body    string
}

// Notifier accepts messages for delivery. Notify never blocks on delivery
// and never fails the caller; delivery errors are logged.
type Notifier interface {
	Notify(ctx context.Context, m Message)
}

// Sender delivers one message synchronously.
type Sender interface {
	Send(m Message) error
}

// Nop drops every message.
type Nop struct{}

func (Nop) Notify(context.Context, Message) {}

// NGOStatusMessage tells an NGO owner the outcome of the admin review.
func NGOStatusMessage(to, ngoName string, status model.NGOStatus) Message {
	var body string
	switch status {
	case model.NGOApproved:
		body = fmt.Sprintf("Good news! %s has been approved. Your events and volunteer opportunities are now visible to volunteers.", ngoName)
	case model.NGORejected:
		body = fmt.Sprintf("%s was not approved. Contact an administrator if you believe this is a mistake.", ngoName)
	default:
		body = fmt.Sprintf("The status of %s is now %s.", ngoName, status)
	}
	return Message{
		To:      to,
		Subject: fmt.Sprintf("Your NGO registration was %s", status),
		Body:    body,
	}
}

// ApplicationStatusMessage tells a volunteer that an NGO decided on their
// application.
func ApplicationStatusMessage(to, username, opportunityTitle string, status model.ApplicationStatus) Message {
	return Message{
		To:      to,
		Subject: fmt.Sprintf("Your application for %q was %s", opportunityTitle, status),
		Body: fmt.Sprintf("Hi %s,\n\nYour application for the volunteer opportunity %q has been %s.\n",
			username, opportunityTitle, status),
	}
}
