package models

// ProjectCategory groups projects in the portfolio filter.
type ProjectCategory struct {
	ID          ID     `json:"id"`
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description,omitempty"`
}

// Tag is a free-form project label.
type Tag struct {
	ID   ID     `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// ProjectImage is one gallery image of a project.
type ProjectImage struct {
	ID       ID     `json:"id"`
	Image    string `json:"image"`
	ImageURL string `json:"image_url"`
	AltText  string `json:"alt_text"`
	IsCover  bool   `json:"is_cover"`
	Order    int    `json:"order"`
}

// Project is a portfolio entry.
type Project struct {
	ID            ID               `json:"id"`
	Title         string           `json:"title"`
	Slug          string           `json:"slug"`
	Description   string           `json:"description"`
	Category      *ProjectCategory `json:"category"`
	Client        string           `json:"client"`
	Location      string           `json:"location"`
	Area          *float64         `json:"area"`
	CompletedDate string           `json:"completed_date"`
	Tags          []Tag            `json:"tags"`
	CoverImage    string           `json:"cover_image"`
	CoverImageURL string           `json:"cover_image_url"`
	Image         string           `json:"image"`
	Images        []ProjectImage   `json:"images"`
	IsFeatured    bool             `json:"is_featured"`
	IsPublished   bool             `json:"is_published"`
	CreatedAt     string           `json:"created_at"`
	UpdatedAt     string           `json:"updated_at"`
}

// Cover returns the best image to show for the project in a listing.
func (p Project) Cover() string {
	switch {
	case p.CoverImageURL != "":
		return p.CoverImageURL
	case p.CoverImage != "":
		return p.CoverImage
	case p.Image != "":
		return p.Image
	}
	for _, img := range p.Images {
		if img.IsCover {
			return img.Src()
		}
	}
	if len(p.Images) > 0 {
		return p.Images[0].Src()
	}
	return ""
}

// Src prefers the absolute image_url over the raw image path.
func (i ProjectImage) Src() string {
	if i.ImageURL != "" {
		return i.ImageURL
	}
	return i.Image
}
