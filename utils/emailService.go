package utils

import (
	"fmt"
	"lms/config"
	"log"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// SendEmail sends an HTML email through SendGrid
func SendEmail(toEmail, toName, subject, htmlBody string) error {
	if config.AppConfig.SendGridApiKey == "" {
		log.Printf("[EMAIL] SENDGRID_API_KEY not set, skipping email to %s (%s)", toEmail, subject)
		return nil
	}

	from := mail.NewEmail(config.AppConfig.EmailName, config.AppConfig.EmailSender)
	to := mail.NewEmail(toName, toEmail)
	message := mail.NewSingleEmail(from, subject, to, "", htmlBody)

	client := sendgrid.NewSendClient(config.AppConfig.SendGridApiKey)
	response, err := client.Send(message)
	if err != nil {
		log.Printf("[EMAIL] Error sending email to %s: %v", toEmail, err)
		return err
	}
	if response.StatusCode >= 400 {
		log.Printf("[EMAIL] SendGrid returned %d for email to %s", response.StatusCode, toEmail)
		return fmt.Errorf("sendgrid returned status %d", response.StatusCode)
	}
	return nil
}

// SendEnrollmentEmail notifies a user about a new course enrollment
func SendEnrollmentEmail(toEmail, toName, courseTitle string) {
	body := getEmailTemplate("Enrollment Confirmed", fmt.Sprintf(`
		<h2>Welcome aboard, %s!</h2>
		<p>You are now enrolled in <b>%s</b>.</p>
		<p>Head over to your dashboard to start learning.</p>`, toName, courseTitle))

	if err := SendEmail(toEmail, toName, "You're enrolled: "+courseTitle, body); err != nil {
		log.Printf("[EMAIL] Failed to send enrollment email to %s: %v", toEmail, err)
	}
}

// SendCertificateIssuedEmail notifies a user about an issued certificate
func SendCertificateIssuedEmail(toEmail, toName, courseTitle, certificateNumber string) {
	body := getEmailTemplate("Certificate Issued", fmt.Sprintf(`
		<h2>Congratulations, %s!</h2>
		<p>Your certificate for <b>%s</b> has been issued.</p>
		<div class="info-box">Certificate Number: <b>%s</b></div>`, toName, courseTitle, certificateNumber))

	if err := SendEmail(toEmail, toName, "Your certificate for "+courseTitle, body); err != nil {
		log.Printf("[EMAIL] Failed to send certificate email to %s: %v", toEmail, err)
	}
}

// getEmailTemplate wraps body content in the platform email layout
func getEmailTemplate(title string, bodyContent string) string {
	return fmt.Sprintf(`
	<!DOCTYPE html>
	<html>
	<head>
		<style>
			body { font-family: 'Helvetica Neue', Helvetica, Arial, sans-serif; background-color: #F6F6F6; margin: 0; padding: 0; }
			.container { max-width: 600px; margin: 40px auto; background: #FFFFFF; border-radius: 8px; overflow: hidden; box-shadow: 0 4px 15px rgba(0,0,0,0.05); }
			.header { background-color: #1B1F3B; padding: 30px; text-align: center; }
			.header h1 { color: #FFFFFF; margin: 0; font-size: 24px; letter-spacing: 1px; }
			.content { padding: 40px 30px; color: #1B1F3B; line-height: 1.6; }
			.content h2 { color: #1B1F3B; margin-top: 0; }
			.footer { background-color: #F6F6F6; padding: 20px; text-align: center; font-size: 12px; color: #666666; border-top: 1px solid #E0E0E0; }
			.info-box { background: #E8F0FE; padding: 15px; border-radius: 4px; border-left: 4px solid #5865F2; margin: 20px 0; }
		</style>
	</head>
	<body>
		<div class="container">
			<div class="header"><h1>%s</h1></div>
			<div class="content">%s</div>
			<div class="footer">LearnHub &middot; This is an automated message, please do not reply.</div>
		</div>
	</body>
	</html>`, title, bodyContent)
}
