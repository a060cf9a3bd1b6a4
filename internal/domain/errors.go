package domain

import "errors"

var (
	// ErrNotFound is returned by repositories when a record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when a unique identifier (subdomain) is already taken.
	// Callers retry with a disambiguated identifier.
	ErrConflict = errors.New("identifier already taken")

	ErrInvalidMonitorRef   = errors.New("invalid monitor reference")
	ErrAnnotationNotFound  = errors.New("annotation not found")
	ErrMaintenanceNotFound = errors.New("maintenance window not found")
	ErrInvalidVariant      = errors.New("invalid annotation variant")
	ErrInvalidDeleteMode   = errors.New("invalid delete mode")
)
