package core

// Logger is any service that can log messages.
// args may hold errors, maps of extra data, and the context Person (first one wins).
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}

// Person is the authenticated caller attached to a log entry:
// a student (ID is the RUT) or a staff user.
type Person struct {
	ID       string
	Username string
	Email    string
}
