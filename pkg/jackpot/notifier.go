package jackpot

import "time"

// Notifier pushes pool Updates onto a Broadcaster. The Contribution and
// Evaluation services hold one and call Notify after a pool mutation
// commits; it is optional — a nil Notifier is a safe no-op so the core
// services never depend on whether anything is listening.
type Notifier struct {
	broadcaster *Broadcaster
}

func NewNotifier(bufferSize int) *Notifier {
	return &Notifier{broadcaster: NewBroadcaster(bufferSize)}
}

// Broadcaster exposes the underlying broadcaster for HTTP handlers to Listen
// on.
func (n *Notifier) Broadcaster() *Broadcaster {
	if n == nil {
		return nil
	}
	return n.broadcaster
}

// Notify publishes a pool update. Safe to call on a nil *Notifier.
func (n *Notifier) Notify(update Update) {
	if n == nil {
		return
	}
	if update.Timestamp.IsZero() {
		update.Timestamp = time.Now()
	}
	n.broadcaster.Send(update)
}
