package models

// APIServer is the HTTP front of the application.
type APIServer interface {
	Start()
	Shutdown() error
}
