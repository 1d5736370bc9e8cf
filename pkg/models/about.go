package models

type Testimonial struct {
	ID         ID     `json:"id"`
	ClientName string `json:"client_name"`
	Quote      string `json:"quote"`
	Project    string `json:"project"`
	IsFeatured bool   `json:"is_featured"`
}

type TeamMember struct {
	ID         ID     `json:"id"`
	Name       string `json:"name"`
	Role       string `json:"role"`
	Bio        string `json:"bio"`
	Image      string `json:"image"`
	ImageURL   string `json:"image_url"`
	Department string `json:"department"`
}

// Photo prefers the absolute image_url over the raw image path.
func (m TeamMember) Photo() string {
	if m.ImageURL != "" {
		return m.ImageURL
	}
	return m.Image
}

type CoreValue struct {
	ID          ID     `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
	Order       int    `json:"order"`
}

type CompanyStat struct {
	ID    ID     `json:"id"`
	Title string `json:"title"`
	Value int    `json:"value"`
	Unit  string `json:"unit"`
	Order int    `json:"order"`
}

type HistoryEvent struct {
	ID          ID     `json:"id"`
	Year        int    `json:"year"`
	Title       string `json:"title"`
	Description string `json:"description"`
}
