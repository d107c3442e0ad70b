// Package notify delivers outbound reminder and conflict notifications to
// care-team channels.
package notify

// Notifier posts a message to one delivery channel. Implementations are
// best-effort: the reminder runner logs failures and moves on.
type Notifier interface {
	// Name identifies the channel for reminder audit rows (slack, discord).
	Name() string
	Send(subject, body string) error
}
