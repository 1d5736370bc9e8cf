package content

import (
	"context"
	"net/url"
	"strconv"

	"archway-web/pkg/models"
)

type ServiceFilter struct {
	Category string `json:"category,omitempty"`
	Search   string `json:"search,omitempty"`
	Featured bool   `json:"featured,omitempty"`
	Limit    int    `json:"limit,omitempty"`
}

func (f ServiceFilter) values(lang string, page int) url.Values {
	q := langQuery(lang)
	if f.Category != "" {
		q.Set("category__slug", f.Category)
	}
	if f.Search != "" {
		q.Set("search", f.Search)
	}
	if f.Featured {
		q.Set("is_featured", "true")
	}
	if f.Limit > 0 {
		q.Set("limit", strconv.Itoa(f.Limit))
	}
	if page > 0 {
		q.Set("page", strconv.Itoa(page))
	}
	return q
}

func (c *Client) ListServices(ctx context.Context, filter ServiceFilter, lang string, page int) (*models.Page[models.Service], error) {
	var out models.Page[models.Service]
	if err := c.getJSON(ctx, "/services/", filter.values(lang, page), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetService(ctx context.Context, slug, lang string) (*models.Service, error) {
	var out models.Service
	if err := c.getJSON(ctx, "/services/"+url.PathEscape(slug)+"/", langQuery(lang), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListServiceCategories(ctx context.Context, lang string) ([]models.ServiceCategory, error) {
	var out models.Page[models.ServiceCategory]
	if err := c.getJSON(ctx, "/service-categories/", langQuery(lang), &out); err != nil {
		return nil, err
	}
	return out.Results, nil
}
