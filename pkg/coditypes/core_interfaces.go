package coditypes

// Service is a named component initialized once at startup.
type Service interface {
	Name() string
	Initialize() error
}
