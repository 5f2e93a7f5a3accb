// Package email abstracts outbound mail delivery behind a narrow
// interface so services never depend on the concrete provider. The
// current implementation uses the Resend API.
package email

import (
	"fmt"
	"time"

	"github.com/resend/resend-go/v2"
)

// Sender delivers transactional mail. Implementations must treat
// delivery as best-effort; callers log failures and never surface them
// to end users.
type Sender interface {
	// SendPasswordReset sends the reset link containing the raw token.
	SendPasswordReset(toEmail, rawToken string, expiresAt time.Time) error
}

type resendSender struct {
	client      *resend.Client
	fromAddress string
	appBaseURL  string
}

// NewResendSender creates a Sender backed by the Resend API.
// fromAddress must belong to a domain verified in Resend.
func NewResendSender(apiKey, fromAddress, appBaseURL string) Sender {
	return &resendSender{
		client:      resend.NewClient(apiKey),
		fromAddress: fromAddress,
		appBaseURL:  appBaseURL,
	}
}

func (s *resendSender) SendPasswordReset(toEmail, rawToken string, expiresAt time.Time) error {
	resetLink := fmt.Sprintf("%s/reset-password?token=%s", s.appBaseURL, rawToken)
	expiresIn := time.Until(expiresAt).Round(time.Hour)

	html := fmt.Sprintf(`<!DOCTYPE html>
<html>
<body style="margin:0;padding:0;font-family:Arial,Helvetica,sans-serif;background-color:#f4f4f7;">
  <table width="100%%" cellpadding="0" cellspacing="0" style="padding:40px 0;">
    <tr>
      <td align="center">
        <table width="480" cellpadding="0" cellspacing="0" style="background-color:#ffffff;border-radius:8px;padding:40px;">
          <tr>
            <td>
              <h1 style="color:#1f2937;font-size:22px;margin:0 0 8px 0;">Resume Modifier</h1>
              <h2 style="color:#1f2937;font-size:17px;margin:0 0 24px 0;">Password Reset Request</h2>
              <p style="color:#4b5563;font-size:15px;line-height:1.6;margin:0 0 24px 0;">
                We received a request to reset your password. Click the button below to choose a new password.
              </p>
              <table cellpadding="0" cellspacing="0" style="margin:0 0 24px 0;">
                <tr>
                  <td style="background-color:#2563eb;border-radius:6px;padding:12px 32px;">
                    <a href="%s" style="color:#ffffff;text-decoration:none;font-size:15px;font-weight:600;">
                      Reset Password
                    </a>
                  </td>
                </tr>
              </table>
              <p style="color:#6b7280;font-size:13px;line-height:1.6;margin:0 0 16px 0;">
                This link will expire in %s. If you didn't request a password reset, you can safely ignore this email.
              </p>
              <p style="color:#9ca3af;font-size:13px;line-height:1.6;margin:0;word-break:break-all;">
                If the button doesn't work, copy and paste this link:<br>
                <a href="%s" style="color:#2563eb;">%s</a>
              </p>
            </td>
          </tr>
        </table>
      </td>
    </tr>
  </table>
</body>
</html>`, resetLink, expiresIn, resetLink, resetLink)

	params := &resend.SendEmailRequest{
		From:    s.fromAddress,
		To:      []string{toEmail},
		Subject: "Reset your password - Resume Modifier",
		Html:    html,
	}

	if _, err := s.client.Emails.Send(params); err != nil {
		return fmt.Errorf("failed to send password reset email: %w", err)
	}

	return nil
}
