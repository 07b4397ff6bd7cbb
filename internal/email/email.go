package email

import (
	"fmt"
	"html"

	"github.com/labstack/echo/v4"
	resend "github.com/resend/resend-go/v2"
)

// EmailClient is an interface for sending emails
type EmailClient interface {
	SendAsync(toEmail, subject, htmlBody string)
	SendContactEmail(msg ContactMessage)
}

// ContactMessage is a submission of the public contact form.
type ContactMessage struct {
	Name    string
	ReplyTo string
	Body    string
}

// ResendEmailClient implements EmailClient using the Resend service
type ResendEmailClient struct {
	client    *resend.Client
	sender    string
	recipient string
	logger    echo.Logger
}

// NewResendEmailClient creates a new ResendEmailClient
func NewResendEmailClient(client *resend.Client, sender, recipient string, logger echo.Logger) *ResendEmailClient {
	return &ResendEmailClient{
		client:    client,
		sender:    sender,
		recipient: recipient,
		logger:    logger,
	}
}

// SendAsync sends an email asynchronously
func (c *ResendEmailClient) SendAsync(toEmail, subject, htmlBody string) {
	if c == nil || c.client == nil {
		fmt.Println("Resend client not initialized, skipping email.")
		return
	}

	if c.sender == "" {
		c.logger.Errorf("Resend default sender not configured, skipping email.")
		return
	}

	go func() {
		params := &resend.SendEmailRequest{
			From:    c.sender,
			To:      []string{toEmail},
			Subject: subject,
			Html:    htmlBody,
		}

		_, err := c.client.Emails.Send(params)
		if err != nil {
			c.logger.Errorf("Failed to send email to %s (Subject: %s): %v", toEmail, subject, err)
		} else {
			c.logger.Infof("Email sent successfully to %s (Subject: %s)", toEmail, subject)
		}
	}()
}

// SendContactEmail forwards a contact-form submission to the configured
// recipient. Form values are escaped before being embedded in the HTML body.
func (c *ResendEmailClient) SendContactEmail(msg ContactMessage) {
	if c == nil || c.client == nil {
		fmt.Println("Resend client not initialized, skipping email.")
		return
	}
	if c.recipient == "" {
		c.logger.Error("Contact recipient not configured, skipping contact email.")
		return
	}

	htmlBody := fmt.Sprintf(
		"<p><strong>From:</strong> %s &lt;%s&gt;</p><p>%s</p>",
		html.EscapeString(msg.Name),
		html.EscapeString(msg.ReplyTo),
		html.EscapeString(msg.Body),
	)
	subject := fmt.Sprintf("Campus tour contact form: %s", msg.Name)

	c.SendAsync(c.recipient, subject, htmlBody)
}
