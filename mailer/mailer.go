package mailer

import (
	"fmt"
	"log"

	"github.com/matcornic/hermes/v2"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// Mailer sends transactional mail through SendGrid. An unconfigured Mailer
// (empty API key) logs and drops messages so local development needs no key.
type Mailer struct {
	apiKey  string
	from    string
	baseURL string
}

func New(apiKey, from, baseURL string) *Mailer {
	return &Mailer{apiKey: apiKey, from: from, baseURL: baseURL}
}

// SendResetPassword emails a password-reset link for the given token.
func (m *Mailer) SendResetPassword(toEmail, username, token string) error {
	resetURL := fmt.Sprintf("%s/reset-password?token=%s", m.baseURL, token)

	h := hermes.Hermes{
		Product: hermes.Product{
			Name: "Rod Royale",
			Link: m.baseURL,
		},
	}

	email := hermes.Email{
		Body: hermes.Body{
			Name: username,
			Intros: []string{
				"You have received this email because a password reset request for your Rod Royale account was received.",
			},
			Actions: []hermes.Action{
				{
					Instructions: "Click the button below to reset your password:",
					Button: hermes.Button{
						Color: "#22BC66",
						Text:  "Reset your password",
						Link:  resetURL,
					},
				},
			},
			Outros: []string{
				"If you did not request a password reset, no further action is required on your part.",
			},
		},
	}

	emailBody, err := h.GenerateHTML(email)
	if err != nil {
		return err
	}

	if m.apiKey == "" {
		log.Printf("mailer: SENDGRID_API_KEY not set, skipping reset mail to %s", toEmail)
		return nil
	}

	from := mail.NewEmail("Rod Royale", m.from)
	to := mail.NewEmail(username, toEmail)
	message := mail.NewSingleEmail(from, "Reset your Rod Royale password", to, "", emailBody)
	client := sendgrid.NewSendClient(m.apiKey)
	_, err = client.Send(message)
	return err
}
