package notify

import (
	"gopkg.in/gomail.v2"
)

// SMTP sends mail through one relay, dialing per message.
type SMTP struct {
	from   string
	dialer *gomail.Dialer
}

func NewSMTP(host string, port int, username, password, from string) *SMTP {
	return &SMTP{
		from:   from,
		dialer: gomail.NewDialer(host, port, username, password),
	}
}

func (s *SMTP) Send(m Message) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", s.from)
	msg.SetHeader("To", m.To)
	msg.SetHeader("Subject", m.Subject)
	msg.SetBody("text/plain", m.Body)

	return s.dialer.DialAndSend(msg)
}
