package content

import (
	"context"
	"net/http"

	"archway-web/pkg/models"
)

// --- Footer ---

func (c *Client) GetFooter(ctx context.Context, lang string) (*models.FooterData, error) {
	var out models.FooterData
	if err := c.getJSON(ctx, "/footer/", langQuery(lang), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListFooterSections(ctx context.Context, lang string) ([]models.FooterSection, error) {
	var out models.Page[models.FooterSection]
	if err := c.getJSON(ctx, "/footer/sections/", langQuery(lang), &out); err != nil {
		return nil, err
	}
	return out.Results, nil
}

func (c *Client) ListSocialMedia(ctx context.Context, lang string) ([]models.SocialMedia, error) {
	var out models.Page[models.SocialMedia]
	if err := c.getJSON(ctx, "/footer/social-media/", langQuery(lang), &out); err != nil {
		return nil, err
	}
	return out.Results, nil
}

func (c *Client) GetFooterSettings(ctx context.Context, lang string) (*models.FooterSettings, error) {
	var out models.FooterSettings
	if err := c.getJSON(ctx, "/footer/settings/", langQuery(lang), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// --- About ---

func (c *Client) ListTestimonials(ctx context.Context, lang string) ([]models.Testimonial, error) {
	return listAll[models.Testimonial](ctx, c, "/testimonials/", lang)
}

func (c *Client) ListTeamMembers(ctx context.Context, lang string) ([]models.TeamMember, error) {
	return listAll[models.TeamMember](ctx, c, "/about/team/", lang)
}

func (c *Client) ListCoreValues(ctx context.Context, lang string) ([]models.CoreValue, error) {
	return listAll[models.CoreValue](ctx, c, "/about/core-values/", lang)
}

func (c *Client) ListStatistics(ctx context.Context, lang string) ([]models.CompanyStat, error) {
	return listAll[models.CompanyStat](ctx, c, "/about/statistics/", lang)
}

func (c *Client) ListHistory(ctx context.Context, lang string) ([]models.HistoryEvent, error) {
	return listAll[models.HistoryEvent](ctx, c, "/about/history/", lang)
}

// --- FAQ ---

// ListFAQs filters on language as well as lang; the FAQ endpoint selects
// records by their language field.
func (c *Client) ListFAQs(ctx context.Context, lang string) ([]models.FAQ, error) {
	query := langQuery(lang)
	query.Set("language", query.Get("lang"))
	var out models.Page[models.FAQ]
	if err := c.getJSON(ctx, "/faqs/", query, &out); err != nil {
		return nil, err
	}
	return out.Results, nil
}

func (c *Client) ListFAQCategories(ctx context.Context, lang string) ([]models.FAQCategory, error) {
	return listAll[models.FAQCategory](ctx, c, "/faqs/categories/", lang)
}

// --- Contact ---

func (c *Client) GetContactInfo(ctx context.Context) (*models.ContactInfo, error) {
	var out models.ContactInfo
	if err := c.getJSON(ctx, "/contact-info/", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SubmitContact posts the contact form. The returned status is set whenever
// the API answered, including on error.
func (c *Client) SubmitContact(ctx context.Context, req models.ContactRequest) (int, error) {
	_, status, err := c.sendRequest(ctx, http.MethodPost, "/contact/", nil, req)
	return status, err
}

func (c *Client) SubscribeNewsletter(ctx context.Context, req models.NewsletterRequest) (int, error) {
	_, status, err := c.sendRequest(ctx, http.MethodPost, "/newsletter/", nil, req)
	return status, err
}

// listAll reads a list endpoint that is small enough to need no pagination.
func listAll[T any](ctx context.Context, c *Client, path, lang string) ([]T, error) {
	var out models.Page[T]
	if err := c.getJSON(ctx, path, langQuery(lang), &out); err != nil {
		return nil, err
	}
	return out.Results, nil
}
