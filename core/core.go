package core

// Notifier delivers user-facing messages produced by the bot
type Notifier interface {
	// Notify sends a plain message to a single owner. A non-nil error means
	// the message was not delivered.
	Notify(ownerID int64, text string) error

	// AlertFired delivers a price-drop alert. Callers must not clear the
	// alert in storage unless delivery succeeded.
	AlertFired(event AlertEvent) error

	// OnError reports an internal error to the operators
	OnError(err error)
}

// NotifierWithStart is a notifier that runs its own receive loop
type NotifierWithStart interface {
	Notifier
	Start()
}
