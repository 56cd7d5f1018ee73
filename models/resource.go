package models

// Resource is bookable inventory as described by the resource directory service.
type Resource struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Type        string `json:"type"` // classroom, lab, vehicle, auditorium
	Location    string `json:"location,omitempty"`
	Capacity    int    `json:"capacity,omitempty"`
	IsActive    bool   `json:"is_active"`
	Description string `json:"description,omitempty"`
}
