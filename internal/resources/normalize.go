package resources

import (
	"fmt"

	"archway-web/internal/urls"
	"archway-web/pkg/models"
)

// image rewrites a backend image reference for use in a page. Empty stays
// empty so templates can pick their own fallback.
func (r *Resources) image(raw string) string {
	if raw == "" {
		return ""
	}
	return r.urls.ProxyImageURL(urls.Browser, raw)
}

func (r *Resources) normalizeProject(p *models.Project) {
	p.CoverImage = r.image(p.CoverImage)
	p.CoverImageURL = r.image(p.CoverImageURL)
	p.Image = r.image(p.Image)
	for i := range p.Images {
		img := &p.Images[i]
		if img.Image == "" && img.ImageURL == "" {
			img.ImageURL = fmt.Sprintf("/images/project-%d.jpg", i%5+1)
			continue
		}
		img.Image = r.image(img.Image)
		img.ImageURL = r.image(img.ImageURL)
	}
}

func (r *Resources) normalizeService(s *models.Service) {
	s.Image = r.image(s.Image)
	s.ImageURL = r.image(s.ImageURL)
	s.CoverImage = r.image(s.CoverImage)
	s.CoverImageURL = r.image(s.CoverImageURL)
}

func (r *Resources) normalizeTeamMember(m *models.TeamMember) {
	m.Image = r.image(m.Image)
	m.ImageURL = r.image(m.ImageURL)
}
