package resources

import (
	"context"
	"sort"

	"archway-web/internal/content"
	"archway-web/internal/locale"
	"archway-web/internal/query"
	"archway-web/pkg/models"
)

func (r *Resources) servicePages(filter content.ServiceFilter, l locale.Locale) query.PageFunc[models.Service] {
	return func(ctx context.Context, page int) (query.PageResult[models.Service], error) {
		res, err := r.api.ListServices(ctx, filter, l.String(), page)
		if err != nil {
			return query.PageResult[models.Service]{}, err
		}
		for i := range res.Results {
			r.normalizeService(&res.Results[i])
		}
		next, _ := content.PageParam(res.NextURL())
		return query.PageResult[models.Service]{Items: res.Results, Count: res.Count, NextPage: next}, nil
	}
}

func (r *Resources) Services(ctx context.Context, filter content.ServiceFilter, l locale.Locale) ListState[models.Service] {
	key := query.Key(ResourceServices, filter, l)
	data, err := query.FetchInfinite(ctx, r.cache, key, r.options(ResourceServices), r.servicePages(filter, l))
	return listStateOf(r, ResourceServices, l, key, data, err)
}

func (r *Resources) ServicesNextPage(ctx context.Context, filter content.ServiceFilter, l locale.Locale) ListState[models.Service] {
	key := query.Key(ResourceServices, filter, l)
	data, err := query.FetchNextPage(ctx, r.cache, key, r.options(ResourceServices), r.servicePages(filter, l))
	return listStateOf(r, ResourceServices, l, key, data, err)
}

func (r *Resources) ServicesUpTo(ctx context.Context, filter content.ServiceFilter, l locale.Locale, pages int) ListState[models.Service] {
	pages = min(max(pages, 1), MaxPages)
	s := r.Services(ctx, filter, l)
	for i := 0; i < MaxPages && s.Err == nil && s.Pages < pages && s.HasNextPage; i++ {
		s = r.ServicesNextPage(ctx, filter, l)
	}
	return s
}

// ServiceDetail returns one service with its features in display order.
func (r *Resources) ServiceDetail(ctx context.Context, slug string, l locale.Locale) State[*models.Service] {
	if slug == "" {
		return State[*models.Service]{}
	}
	key := query.Key(ResourceServiceDetail, slug, l)
	return fetch(ctx, r, ResourceServiceDetail, l, key, func(ctx context.Context) (*models.Service, error) {
		s, err := r.api.GetService(ctx, slug, l.String())
		if err != nil {
			return nil, err
		}
		r.normalizeService(s)
		sort.SliceStable(s.Features, func(i, j int) bool { return s.Features[i].Order < s.Features[j].Order })
		return s, nil
	})
}

func (r *Resources) ServiceCategories(ctx context.Context, l locale.Locale) State[[]models.ServiceCategory] {
	key := query.Key(ResourceServiceCategories, l)
	return fetch(ctx, r, ResourceServiceCategories, l, key, func(ctx context.Context) ([]models.ServiceCategory, error) {
		cats, err := r.api.ListServiceCategories(ctx, l.String())
		if err != nil {
			return nil, err
		}
		sort.SliceStable(cats, func(i, j int) bool { return cats[i].Order < cats[j].Order })
		return cats, nil
	})
}
