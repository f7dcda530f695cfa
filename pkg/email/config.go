package email

// Config holds the outbound e-mail settings. Without a server token alerts
// are written to DevDir instead of being sent.
type Config struct {
	PostmarkServerToken  string `env:"POSTMARK_SERVER_TOKEN"`
	PostmarkAccountToken string `env:"POSTMARK_ACCOUNT_TOKEN"`
	SenderEmail          string `env:"SENDER_EMAIL" envDefault:"alerts@fastforward.local"`
	SupportEmail         string `env:"SUPPORT_EMAIL" envDefault:"support@fastforward.local"`
	DevDir               string `env:"EMAIL_DEV_DIR" envDefault:".mail"`
}

// Enabled reports whether Postmark credentials are configured.
func (c Config) Enabled() bool {
	return c.PostmarkServerToken != ""
}
