package content

import (
	"context"
	"net/url"
	"strconv"

	"archway-web/pkg/models"
)

// ProjectFilter narrows the portfolio list. It is also part of the cache key,
// hence the JSON tags.
type ProjectFilter struct {
	Category  string `json:"category,omitempty"`
	Tag       string `json:"tag,omitempty"`
	Search    string `json:"search,omitempty"`
	Featured  bool   `json:"featured,omitempty"`
	Published *bool  `json:"published,omitempty"`
	Limit     int    `json:"limit,omitempty"`
}

func (f ProjectFilter) values(lang string, page int) url.Values {
	q := langQuery(lang)
	if f.Category != "" {
		q.Set("category__slug", f.Category)
	}
	if f.Tag != "" {
		q.Set("tags__slug", f.Tag)
	}
	if f.Search != "" {
		q.Set("search", f.Search)
	}
	if f.Featured {
		q.Set("is_featured", "true")
	}
	if f.Published != nil {
		q.Set("is_published", strconv.FormatBool(*f.Published))
	}
	if f.Limit > 0 {
		q.Set("limit", strconv.Itoa(f.Limit))
	}
	if page > 0 {
		q.Set("page", strconv.Itoa(page))
	}
	return q
}

func (c *Client) ListProjects(ctx context.Context, filter ProjectFilter, lang string, page int) (*models.Page[models.Project], error) {
	var out models.Page[models.Project]
	if err := c.getJSON(ctx, "/projects/", filter.values(lang, page), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetProject(ctx context.Context, slug, lang string) (*models.Project, error) {
	var out models.Project
	if err := c.getJSON(ctx, "/projects/"+url.PathEscape(slug)+"/", langQuery(lang), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListProjectCategories(ctx context.Context, lang string) ([]models.ProjectCategory, error) {
	var out models.Page[models.ProjectCategory]
	if err := c.getJSON(ctx, "/categories/", langQuery(lang), &out); err != nil {
		return nil, err
	}
	return out.Results, nil
}

func (c *Client) ListProjectTags(ctx context.Context, lang string) ([]models.Tag, error) {
	var out models.Page[models.Tag]
	if err := c.getJSON(ctx, "/tags/", langQuery(lang), &out); err != nil {
		return nil, err
	}
	return out.Results, nil
}
