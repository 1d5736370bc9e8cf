package models

// ContactInfo is the firm's public contact card.
type ContactInfo struct {
	AddressEN      string `json:"address_en"`
	AddressAR      string `json:"address_ar"`
	Email          string `json:"email"`
	Phone          string `json:"phone"`
	FacebookURL    string `json:"facebook_url"`
	InstagramURL   string `json:"instagram_url"`
	LinkedinURL    string `json:"linkedin_url"`
	MapURL         string `json:"map_url"`
	DirectionsURL  string `json:"directions_url"`
	WorkingHoursEN string `json:"working_hours_en"`
	WorkingHoursAR string `json:"working_hours_ar"`
}

// Address returns the address for locale ("ar" or anything else for English).
// It falls back to the English address when the Arabic one is empty.
func (c ContactInfo) Address(locale string) string {
	if locale == "ar" && c.AddressAR != "" {
		return c.AddressAR
	}
	return c.AddressEN
}

func (c ContactInfo) WorkingHours(locale string) string {
	if locale == "ar" && c.WorkingHoursAR != "" {
		return c.WorkingHoursAR
	}
	return c.WorkingHoursEN
}

// ContactRequest is the body of POST /contact/.
type ContactRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

// NewsletterRequest is the body of POST /newsletter/.
type NewsletterRequest struct {
	Email string `json:"email"`
}

// ContentEvent announces a content change to connected browsers.
type ContentEvent struct {
	Resource string `json:"resource" binding:"required"`
	Slug     string `json:"slug,omitempty"`
}
