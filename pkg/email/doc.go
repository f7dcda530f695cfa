// Package email sends operational e-mail through Postmark.
//
// NewSender picks the transport from Config: a Postmark client when a server
// token is present, otherwise a DevSender that writes each message to disk as
// HTML plus JSON metadata. Both validate SendEmailParams before sending.
//
//	sender, err := email.NewSender(cfg)
//	err = sender.SendEmail(ctx, email.SendEmailParams{
//		SendTo:   "ops@example.com",
//		Subject:  "Webhook disabled",
//		BodyHTML: body,
//		Tag:      "webhook-disabled",
//	})
package email
