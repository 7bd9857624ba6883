package notifier

// INotifier delivers user-facing notifications. The arbiter uses it for OTP
// challenges; a failed delivery must surface as an error so the challenge can
// be recorded as failed-send.
type INotifier interface {
	NotifyFromTemplate(to string, subject string, templateName string, data any) error
}
