package resources

import (
	"context"

	"archway-web/internal/content"
	"archway-web/internal/locale"
	"archway-web/internal/query"
	"archway-web/pkg/models"
)

func (r *Resources) projectPages(filter content.ProjectFilter, l locale.Locale) query.PageFunc[models.Project] {
	return func(ctx context.Context, page int) (query.PageResult[models.Project], error) {
		res, err := r.api.ListProjects(ctx, filter, l.String(), page)
		if err != nil {
			return query.PageResult[models.Project]{}, err
		}
		for i := range res.Results {
			r.normalizeProject(&res.Results[i])
		}
		next, _ := content.PageParam(res.NextURL())
		return query.PageResult[models.Project]{Items: res.Results, Count: res.Count, NextPage: next}, nil
	}
}

// Projects returns the loaded portfolio pages for filter, loading page 1 on first use.
func (r *Resources) Projects(ctx context.Context, filter content.ProjectFilter, l locale.Locale) ListState[models.Project] {
	key := query.Key(ResourceProjects, filter, l)
	data, err := query.FetchInfinite(ctx, r.cache, key, r.options(ResourceProjects), r.projectPages(filter, l))
	return listStateOf(r, ResourceProjects, l, key, data, err)
}

// ProjectsNextPage loads one more page of projects and appends it to the list.
func (r *Resources) ProjectsNextPage(ctx context.Context, filter content.ProjectFilter, l locale.Locale) ListState[models.Project] {
	key := query.Key(ResourceProjects, filter, l)
	data, err := query.FetchNextPage(ctx, r.cache, key, r.options(ResourceProjects), r.projectPages(filter, l))
	return listStateOf(r, ResourceProjects, l, key, data, err)
}

// ProjectsUpTo makes sure at least pages pages are loaded, or all of them if there are fewer.
func (r *Resources) ProjectsUpTo(ctx context.Context, filter content.ProjectFilter, l locale.Locale, pages int) ListState[models.Project] {
	pages = min(max(pages, 1), MaxPages)
	s := r.Projects(ctx, filter, l)
	for i := 0; i < MaxPages && s.Err == nil && s.Pages < pages && s.HasNextPage; i++ {
		s = r.ProjectsNextPage(ctx, filter, l)
	}
	return s
}

// ProjectDetail returns one project. An empty slug performs no request.
func (r *Resources) ProjectDetail(ctx context.Context, slug string, l locale.Locale) State[*models.Project] {
	if slug == "" {
		return State[*models.Project]{}
	}
	key := query.Key(ResourceProjectDetail, slug, l)
	return fetch(ctx, r, ResourceProjectDetail, l, key, func(ctx context.Context) (*models.Project, error) {
		p, err := r.api.GetProject(ctx, slug, l.String())
		if err != nil {
			return nil, err
		}
		r.normalizeProject(p)
		return p, nil
	})
}

func (r *Resources) ProjectCategories(ctx context.Context, l locale.Locale) State[[]models.ProjectCategory] {
	key := query.Key(ResourceProjectCategories, l)
	return fetch(ctx, r, ResourceProjectCategories, l, key, func(ctx context.Context) ([]models.ProjectCategory, error) {
		return r.api.ListProjectCategories(ctx, l.String())
	})
}

func (r *Resources) ProjectTags(ctx context.Context, l locale.Locale) State[[]models.Tag] {
	key := query.Key(ResourceProjectTags, l)
	return fetch(ctx, r, ResourceProjectTags, l, key, func(ctx context.Context) ([]models.Tag, error) {
		return r.api.ListProjectTags(ctx, l.String())
	})
}
