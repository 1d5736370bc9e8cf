// Package resources loads page content from the content API through the query
// cache. Each operation returns a State with the data, whether a fetch is
// still running and a localized error message, so a page can render every
// section independently of the others.
package resources

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"archway-web/internal/content"
	"archway-web/internal/locale"
	"archway-web/internal/logger"
	"archway-web/internal/query"
	"archway-web/internal/urls"
	"archway-web/pkg/models"
)

// Resource names. They are the first part of every cache key.
const (
	ResourceProjects          = "projects"
	ResourceProjectDetail     = "project-detail"
	ResourceProjectCategories = "project-categories"
	ResourceProjectTags       = "project-tags"
	ResourceServices          = "services"
	ResourceServiceDetail     = "service-detail"
	ResourceServiceCategories = "service-categories"
	ResourceFooter            = "footer"
	ResourceTestimonials      = "testimonials"
	ResourceTeam              = "team"
	ResourceCoreValues        = "core-values"
	ResourceStatistics        = "statistics"
	ResourceHistory           = "history"
	ResourceFAQs              = "faqs"
	ResourceContactInfo       = "contact-info"
)

var (
	// ErrNotFound is returned for a detail record the API does not know.
	ErrNotFound = errors.New("not found")
	// ErrUnknownResource is returned when asked to invalidate a resource that does not exist.
	ErrUnknownResource = errors.New("unknown resource")
)

// MaxPages bounds how many pages of a list can be loaded. A list that reaches
// it reports no next page.
const MaxPages = 20

// API is the subset of the content client the resources read from.
type API interface {
	ListProjects(ctx context.Context, filter content.ProjectFilter, lang string, page int) (*models.Page[models.Project], error)
	GetProject(ctx context.Context, slug, lang string) (*models.Project, error)
	ListProjectCategories(ctx context.Context, lang string) ([]models.ProjectCategory, error)
	ListProjectTags(ctx context.Context, lang string) ([]models.Tag, error)

	ListServices(ctx context.Context, filter content.ServiceFilter, lang string, page int) (*models.Page[models.Service], error)
	GetService(ctx context.Context, slug, lang string) (*models.Service, error)
	ListServiceCategories(ctx context.Context, lang string) ([]models.ServiceCategory, error)

	GetFooter(ctx context.Context, lang string) (*models.FooterData, error)
	ListTestimonials(ctx context.Context, lang string) ([]models.Testimonial, error)
	ListTeamMembers(ctx context.Context, lang string) ([]models.TeamMember, error)
	ListCoreValues(ctx context.Context, lang string) ([]models.CoreValue, error)
	ListStatistics(ctx context.Context, lang string) ([]models.CompanyStat, error)
	ListHistory(ctx context.Context, lang string) ([]models.HistoryEvent, error)
	ListFAQs(ctx context.Context, lang string) ([]models.FAQ, error)
	ListFAQCategories(ctx context.Context, lang string) ([]models.FAQCategory, error)
	GetContactInfo(ctx context.Context) (*models.ContactInfo, error)
}

// State is the result of reading one resource.
type State[T any] struct {
	Data    T
	Loading bool
	// Err is the underlying failure; Error is the message shown to visitors.
	Err   error
	Error string
}

func (s State[T]) Failed() bool {
	return s.Err != nil
}

// ListState is the result of reading a paginated resource.
type ListState[T any] struct {
	State[[]T]
	HasNextPage bool
	NextPage    int
	Count       int
	Pages       int
	// LastPage holds the items of the most recently loaded page.
	LastPage []T

	pages [][]T
}

// Page returns the items of loaded page n, counting from 1.
func (s ListState[T]) Page(n int) []T {
	if n < 1 || n > len(s.pages) {
		return nil
	}
	return s.pages[n-1]
}

type policy struct {
	stale    time.Duration
	retry    int
	errorKey string
}

var policies = map[string]policy{
	ResourceProjects:          {stale: time.Minute, retry: 2, errorKey: "errors.projects"},
	ResourceProjectDetail:     {stale: 10 * time.Minute, retry: 2, errorKey: "errors.project_detail"},
	ResourceProjectCategories: {stale: 5 * time.Minute, retry: 2, errorKey: "errors.categories"},
	ResourceProjectTags:       {stale: 5 * time.Minute, retry: 2, errorKey: "errors.tags"},
	ResourceServices:          {stale: time.Minute, retry: 2, errorKey: "errors.services"},
	ResourceServiceDetail:     {stale: time.Minute, retry: 2, errorKey: "errors.service_detail"},
	ResourceServiceCategories: {stale: 5 * time.Minute, retry: 2, errorKey: "errors.service_categories"},
	ResourceFooter:            {stale: 10 * time.Minute, retry: 3, errorKey: "errors.footer"},
	ResourceTestimonials:      {stale: 5 * time.Minute, retry: 2, errorKey: "errors.testimonials"},
	ResourceTeam:              {stale: 5 * time.Minute, retry: 2, errorKey: "errors.team"},
	ResourceCoreValues:        {stale: 5 * time.Minute, retry: 2, errorKey: "errors.core_values"},
	ResourceStatistics:        {stale: 5 * time.Minute, retry: 2, errorKey: "errors.statistics"},
	ResourceHistory:           {stale: 5 * time.Minute, retry: 2, errorKey: "errors.history"},
	ResourceFAQs:              {stale: 5 * time.Minute, retry: 2, errorKey: "errors.faqs"},
	ResourceContactInfo:       {stale: 5 * time.Minute, retry: 2, errorKey: "errors.contact_info"},
}

// Resources is shared by all requests.
type Resources struct {
	api     API
	cache   *query.Cache
	urls    *urls.Normalizer
	catalog *locale.Catalog
	lggr    logger.Logger

	retryDelay time.Duration
}

type Option func(*Resources)

// WithRetryDelay sets the first retry backoff, for tests.
func WithRetryDelay(d time.Duration) Option {
	return func(r *Resources) { r.retryDelay = d }
}

func New(api API, cache *query.Cache, norm *urls.Normalizer, catalog *locale.Catalog, lggr logger.Logger, opts ...Option) *Resources {
	r := &Resources{
		api:     api,
		cache:   cache,
		urls:    norm,
		catalog: catalog,
		lggr:    lggr.Named("resources"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Resources) options(resource string) query.Options {
	p := policies[resource]
	return query.Options{
		StaleTime:  p.stale,
		Retry:      p.retry,
		RetryDelay: r.retryDelay,
		RetryIf:    content.IsRetryable,
	}
}

// Refetch marks the resource stale for locale l so the next read goes upstream.
func (r *Resources) Refetch(resource string, l locale.Locale) int {
	return r.cache.InvalidateIf(func(key string) bool {
		return query.HasResource(key, resource) && query.HasLocale(key, l.String())
	})
}

// related lists the cached resources whose content comes from each backend resource.
var related = map[string][]string{
	"projects":           {ResourceProjects, ResourceProjectDetail, ResourceProjectCategories, ResourceProjectTags},
	"categories":         {ResourceProjectCategories, ResourceProjects},
	"tags":               {ResourceProjectTags, ResourceProjects},
	"services":           {ResourceServices, ResourceServiceDetail, ResourceServiceCategories},
	"service-categories": {ResourceServiceCategories, ResourceServices},
	"footer":             {ResourceFooter},
	"testimonials":       {ResourceTestimonials},
	"about":              {ResourceTeam, ResourceCoreValues, ResourceStatistics, ResourceHistory, ResourceTestimonials},
	"team":               {ResourceTeam},
	"core-values":        {ResourceCoreValues},
	"statistics":         {ResourceStatistics},
	"history":            {ResourceHistory},
	"faqs":               {ResourceFAQs},
	"contact-info":       {ResourceContactInfo},
}

// InvalidateContent marks stale everything derived from a changed backend
// resource. With a slug, detail caches of other records stay fresh. An empty
// resource invalidates the whole cache.
func (r *Resources) InvalidateContent(resource, slug string) (int, error) {
	if resource == "" {
		return r.cache.Invalidate(""), nil
	}
	names, ok := related[resource]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownResource, resource)
	}

	n := 0
	for _, name := range names {
		isDetail := name == ResourceProjectDetail || name == ResourceServiceDetail
		if isDetail && slug != "" {
			prefix := query.Prefix(name, slug)
			n += r.cache.InvalidateIf(func(key string) bool { return strings.HasPrefix(key, prefix) })
			continue
		}
		n += r.cache.Invalidate(name)
	}

	r.lggr.Infow("Invalidated content", "resource", resource, "slug", slug, "entries", n)
	return n, nil
}

// fetch reads a non-paginated resource and wraps the outcome in a State.
func fetch[T any](ctx context.Context, r *Resources, resource string, l locale.Locale, key string, fn func(context.Context) (T, error)) State[T] {
	data, err := query.Fetch(ctx, r.cache, key, r.options(resource), fn)
	return stateOf(r, resource, l, key, data, err)
}

func stateOf[T any](r *Resources, resource string, l locale.Locale, key string, data T, err error) State[T] {
	s := State[T]{Data: data, Loading: r.cache.IsFetching(key)}
	if err != nil {
		if content.IsNotFound(err) {
			err = fmt.Errorf("%w: %w", ErrNotFound, err)
		}
		s.Err = err
		s.Error = r.catalog.T(l, policies[resource].errorKey)
		r.lggr.Warnw("Failed to load resource", "resource", resource, "locale", l, "err", err)
	}
	return s
}

func listStateOf[T any](r *Resources, resource string, l locale.Locale, key string, data query.InfiniteData[T], err error) ListState[T] {
	s := ListState[T]{
		State:       stateOf(r, resource, l, key, data.Items(), err),
		HasNextPage: data.HasNextPage(),
		NextPage:    data.NextPageParam(),
		Count:       data.Count(),
		Pages:       len(data.Pages),
	}
	for _, p := range data.Pages {
		s.pages = append(s.pages, p.Items)
	}
	if n := len(s.pages); n > 0 {
		s.LastPage = s.pages[n-1]
	}
	return capPages(s)
}

func capPages[T any](s ListState[T]) ListState[T] {
	if s.Pages >= MaxPages {
		s.HasNextPage = false
		s.NextPage = 0
	}
	return s
}
