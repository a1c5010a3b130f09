package notification

import (
	"fmt"
	"net/smtp"

	"github.com/raykavin/skinhunter/core"
	log "github.com/sirupsen/logrus"
)

// Mail handles email notifications for the application. It delivers every
// event to a single operator mailbox, regardless of owner.
type Mail struct {
	auth              smtp.Auth
	smtpServerPort    int
	smtpServerAddress string
	to                string
	from              string
}

// MailParams contains all parameters needed to initialize a Mail instance
type MailParams struct {
	SMTPServerPort    int
	SMTPServerAddress string
	To                string
	From              string
	Password          string
}

// NewMail creates a new Mail instance with the provided parameters
func NewMail(params MailParams) Mail {
	return Mail{
		from:              params.From,
		to:                params.To,
		smtpServerPort:    params.SMTPServerPort,
		smtpServerAddress: params.SMTPServerAddress,
		auth: smtp.PlainAuth(
			"",
			params.From,
			params.Password,
			params.SMTPServerAddress,
		),
	}
}

// Start implements core.NotifierWithStart; SMTP needs no receive loop
func (m Mail) Start() {
	log.Info("notification/mail: notifier ready")
}

// Notify sends an email notification with the given text
func (m Mail) Notify(_ int64, text string) error {
	serverAddress := fmt.Sprintf("%s:%d", m.smtpServerAddress, m.smtpServerPort)

	message := fmt.Sprintf(
		`To: "User" <%s>
From: "SkinHunter" <%s>
%s`,
		m.to,
		m.from,
		text,
	)

	err := smtp.SendMail(
		serverAddress,
		m.auth,
		m.from,
		[]string{m.to},
		[]byte(message),
	)

	if err != nil {
		log.WithError(err).Error("notification/mail: failed to send email")
	}

	return err
}

// alertMessage builds the mail body for a price-drop alert
func alertMessage(event core.AlertEvent) string {
	return fmt.Sprintf(
		"Subject: 🚨 PRICE DROP - %s\nCurrent %s $, target %s $ (owner %d)",
		event.ItemName,
		event.CurrentPrice.StringFixed(2),
		event.Threshold.StringFixed(2),
		event.OwnerID,
	)
}

// AlertFired sends a price-drop alert by email. A non-nil error keeps the
// alert armed in the monitor.
func (m Mail) AlertFired(event core.AlertEvent) error {
	return m.Notify(event.OwnerID, alertMessage(event))
}

// OnError sends an error notification
func (m Mail) OnError(err error) {
	message := fmt.Sprintf("Subject: 🛑 ERROR\nError %s", err)
	if sendErr := m.Notify(0, message); sendErr != nil {
		log.WithError(sendErr).Error("notification/mail: failed to report error")
	}
}
