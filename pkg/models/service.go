package models

type ServiceCategory struct {
	ID          ID     `json:"id"`
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
	Order       int    `json:"order"`
}

type ServiceFeature struct {
	ID          ID     `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	IsIncluded  bool   `json:"is_included"`
	Order       int    `json:"order"`
}

// Service is an offering listed on the services pages.
type Service struct {
	ID               ID               `json:"id"`
	Title            string           `json:"title"`
	Slug             string           `json:"slug"`
	ShortDescription string           `json:"short_description"`
	Description      string           `json:"description"`
	Category         *ServiceCategory `json:"category"`
	Icon             string           `json:"icon"`
	Image            string           `json:"image"`
	ImageURL         string           `json:"image_url"`
	CoverImage       string           `json:"cover_image"`
	CoverImageURL    string           `json:"cover_image_url"`
	Price            *string          `json:"price"`
	PriceUnit        string           `json:"price_unit"`
	Duration         string           `json:"duration"`
	IsFeatured       bool             `json:"is_featured"`
	IsPublished      bool             `json:"is_published"`
	Order            int              `json:"order"`
	Features         []ServiceFeature `json:"features"`
}

// Thumbnail returns the image shown on service cards.
func (s Service) Thumbnail() string {
	if s.ImageURL != "" {
		return s.ImageURL
	}
	return s.Image
}

// Cover returns the header image of the service page, falling back to the thumbnail.
func (s Service) Cover() string {
	switch {
	case s.CoverImageURL != "":
		return s.CoverImageURL
	case s.CoverImage != "":
		return s.CoverImage
	}
	return s.Thumbnail()
}
