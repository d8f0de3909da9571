package models

// FieldDefinition describes one input of the check-in form.
type FieldDefinition struct {
	Name        string `json:"name"`
	Label       string `json:"label"`
	Type        string `json:"type"`
	Placeholder string `json:"placeholder,omitempty"`
	Required    bool   `json:"required,omitempty"`
	MinLength   int    `json:"minLength,omitempty"`
	MaxLength   int    `json:"maxLength,omitempty"`
	Pattern     string `json:"pattern,omitempty"`
	Min         string `json:"min,omitempty"`
}

// CheckinFields is the check-in form layout, in display order.
var CheckinFields = []FieldDefinition{
	{Name: "name", Label: "Full name", Type: "text", Required: true, MinLength: 3},
	{Name: "phone", Label: "Phone", Type: "tel", Placeholder: "10 digit mobile", Required: true, Pattern: `\d{10}`, MaxLength: 10},
	{Name: "email", Label: "Email", Type: "email", Required: true},
	{Name: "address", Label: "Address", Type: "textarea", Required: true},
	{Name: "aadhar", Label: "Aadhar number", Type: "text", Placeholder: "12 digits", Required: true, Pattern: `\d{12}`, MaxLength: 12},
	{Name: "checkin", Label: "Check-in", Type: "date", Required: true},
	{Name: "checkout", Label: "Check-out", Type: "date", Required: true},
	{Name: "adults", Label: "Adults", Type: "number", Required: true, Min: "1"},
	{Name: "purpose", Label: "Purpose of visit", Type: "textarea", Required: true, MinLength: 10},
}
