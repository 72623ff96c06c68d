package services

// Notifier pushes live updates to a user's open sessions.
type Notifier interface {
	Notify(userID, action string, payload any)
}

type nopNotifier struct{}

func (nopNotifier) Notify(string, string, any) {}

func notifierOrNop(n Notifier) Notifier {
	if n == nil {
		return nopNotifier{}
	}
	return n
}
