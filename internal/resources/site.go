package resources

import (
	"context"
	"sort"
	"strings"

	"archway-web/internal/locale"
	"archway-web/internal/query"
	"archway-web/pkg/models"
)

// FallbackContactInfo is shown when the contact card cannot be loaded.
var FallbackContactInfo = models.ContactInfo{
	AddressEN:      "Cairo, Egypt",
	AddressAR:      "القاهرة، مصر",
	Email:          "info@archwaydesign.com",
	Phone:          "+20 123 456 7890",
	FacebookURL:    "https://facebook.com/archwaydesign",
	InstagramURL:   "https://instagram.com/archwaydesign",
	LinkedinURL:    "https://linkedin.com/company/archwaydesign",
	WorkingHoursEN: "Sunday-Thursday: 9:00 AM - 5:00 PM",
	WorkingHoursAR: "الأحد - الخميس: 9:00 صباحاً - 5:00 مساءً",
}

// FAQData holds the active FAQ categories and questions, both in display order.
type FAQData struct {
	Categories []models.FAQCategory
	FAQs       []models.FAQ
}

func (r *Resources) Footer(ctx context.Context, l locale.Locale) State[*models.FooterData] {
	key := query.Key(ResourceFooter, l)
	return fetch(ctx, r, ResourceFooter, l, key, func(ctx context.Context) (*models.FooterData, error) {
		f, err := r.api.GetFooter(ctx, l.String())
		if err != nil {
			return nil, err
		}
		sort.SliceStable(f.Sections, func(i, j int) bool { return f.Sections[i].Order < f.Sections[j].Order })
		for i := range f.Sections {
			links := f.Sections[i].Links
			sort.SliceStable(links, func(a, b int) bool { return links[a].Order < links[b].Order })
		}
		sort.SliceStable(f.SocialMedia, func(i, j int) bool { return f.SocialMedia[i].Order < f.SocialMedia[j].Order })
		return f, nil
	})
}

func (r *Resources) Testimonials(ctx context.Context, l locale.Locale) State[[]models.Testimonial] {
	key := query.Key(ResourceTestimonials, l)
	return fetch(ctx, r, ResourceTestimonials, l, key, func(ctx context.Context) ([]models.Testimonial, error) {
		return r.api.ListTestimonials(ctx, l.String())
	})
}

func (r *Resources) TeamMembers(ctx context.Context, l locale.Locale) State[[]models.TeamMember] {
	key := query.Key(ResourceTeam, l)
	return fetch(ctx, r, ResourceTeam, l, key, func(ctx context.Context) ([]models.TeamMember, error) {
		members, err := r.api.ListTeamMembers(ctx, l.String())
		if err != nil {
			return nil, err
		}
		for i := range members {
			r.normalizeTeamMember(&members[i])
		}
		return members, nil
	})
}

func (r *Resources) CoreValues(ctx context.Context, l locale.Locale) State[[]models.CoreValue] {
	key := query.Key(ResourceCoreValues, l)
	return fetch(ctx, r, ResourceCoreValues, l, key, func(ctx context.Context) ([]models.CoreValue, error) {
		values, err := r.api.ListCoreValues(ctx, l.String())
		if err != nil {
			return nil, err
		}
		sort.SliceStable(values, func(i, j int) bool { return values[i].Order < values[j].Order })
		return values, nil
	})
}

func (r *Resources) Statistics(ctx context.Context, l locale.Locale) State[[]models.CompanyStat] {
	key := query.Key(ResourceStatistics, l)
	return fetch(ctx, r, ResourceStatistics, l, key, func(ctx context.Context) ([]models.CompanyStat, error) {
		stats, err := r.api.ListStatistics(ctx, l.String())
		if err != nil {
			return nil, err
		}
		sort.SliceStable(stats, func(i, j int) bool { return stats[i].Order < stats[j].Order })
		return stats, nil
	})
}

func (r *Resources) History(ctx context.Context, l locale.Locale) State[[]models.HistoryEvent] {
	key := query.Key(ResourceHistory, l)
	return fetch(ctx, r, ResourceHistory, l, key, func(ctx context.Context) ([]models.HistoryEvent, error) {
		events, err := r.api.ListHistory(ctx, l.String())
		if err != nil {
			return nil, err
		}
		sort.SliceStable(events, func(i, j int) bool { return events[i].Year < events[j].Year })
		return events, nil
	})
}

// FAQs loads categories and questions together; a failure of either fails both.
func (r *Resources) FAQs(ctx context.Context, l locale.Locale) State[FAQData] {
	key := query.Key(ResourceFAQs, l)
	return fetch(ctx, r, ResourceFAQs, l, key, func(ctx context.Context) (FAQData, error) {
		cats, err := r.api.ListFAQCategories(ctx, l.String())
		if err != nil {
			return FAQData{}, err
		}
		faqs, err := r.api.ListFAQs(ctx, l.String())
		if err != nil {
			return FAQData{}, err
		}

		var data FAQData
		for _, c := range cats {
			if c.IsActive {
				data.Categories = append(data.Categories, c)
			}
		}
		for _, f := range faqs {
			if f.IsActive && (f.Language == "" || f.Language == l.String()) {
				data.FAQs = append(data.FAQs, f)
			}
		}
		sort.SliceStable(data.Categories, func(i, j int) bool { return data.Categories[i].Order < data.Categories[j].Order })
		sort.SliceStable(data.FAQs, func(i, j int) bool { return data.FAQs[i].Order < data.FAQs[j].Order })
		return data, nil
	})
}

// SearchFAQs filters faqs by category slug or id and a case-insensitive search over
// question and answer. An empty category or "all" matches every category.
func SearchFAQs(faqs []models.FAQ, search, category string) []models.FAQ {
	search = strings.ToLower(strings.TrimSpace(search))
	out := make([]models.FAQ, 0, len(faqs))
	for _, f := range faqs {
		if category != "" && category != "all" && !f.Category.Matches(category) {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(f.Question), search) &&
			!strings.Contains(strings.ToLower(f.Answer), search) {
			continue
		}
		out = append(out, f)
	}
	return out
}

// ContactInfo returns the firm's contact card, or FallbackContactInfo when it
// cannot be loaded and nothing was cached before. Err is still set in that case.
func (r *Resources) ContactInfo(ctx context.Context, l locale.Locale) State[models.ContactInfo] {
	key := query.Key(ResourceContactInfo, l)
	s := fetch(ctx, r, ResourceContactInfo, l, key, func(ctx context.Context) (models.ContactInfo, error) {
		info, err := r.api.GetContactInfo(ctx)
		if err != nil {
			return models.ContactInfo{}, err
		}
		return *info, nil
	})
	if s.Err != nil && s.Data == (models.ContactInfo{}) {
		s.Data = FallbackContactInfo
	}
	return s
}
