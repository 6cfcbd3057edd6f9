package models

// WorkingWindow is one staff row of the schedule sheet.
type WorkingWindow struct {
	Name               string `json:"name"`
	Days               string `json:"days"`  // "wed" or a range such as "fri-mon"
	StartTime          string `json:"start"` // "HH:MM"
	EndTime            string `json:"end"`   // "HH:MM"
	RestrictedServices string `json:"restrictedServices,omitempty"`
}

// Service is a bookable offering from the catalog.
type Service struct {
	Name            string `json:"name"`
	Price           string `json:"price"`
	DurationMinutes int    `json:"durationMinutes"`
}

// DefaultServiceDuration applies when the catalog row has no usable duration.
const DefaultServiceDuration = 30

// Catalog maps lower-cased service names to services.
type Catalog map[string]Service
