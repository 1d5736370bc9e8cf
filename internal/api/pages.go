package api

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"

	"archway-web/internal/content"
	"archway-web/internal/forms"
	"archway-web/internal/locale"
	"archway-web/internal/logger"
	"archway-web/internal/resources"
	"archway-web/internal/web"
)

const localeKey = "locale"

// PageHandler serves the localized HTML pages and their form posts.
type PageHandler struct {
	Resources *resources.Resources
	Submitter *forms.Submitter
	Catalog   *locale.Catalog
	lggr      logger.Logger
}

func NewPageHandler(res *resources.Resources, submitter *forms.Submitter, catalog *locale.Catalog, lggr logger.Logger) *PageHandler {
	return &PageHandler{
		Resources: res,
		Submitter: submitter,
		Catalog:   catalog,
		lggr:      lggr.Named("pages"),
	}
}

// WithLocale fixes the locale of every route in a locale group and honours
// ?refetch=<resource> before any content is read.
func (h *PageHandler) WithLocale(l locale.Locale) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(localeKey, l)
		if resource := c.Query("refetch"); resource != "" {
			n := h.Resources.Refetch(resource, l)
			h.lggr.Debugw("Refetch requested", "resource", resource, "locale", l, "entries", n)
		}
		c.Next()
	}
}

func localeOf(c *gin.Context) locale.Locale {
	if l, ok := c.Get(localeKey); ok {
		if l, ok := l.(locale.Locale); ok {
			return l
		}
	}
	return locale.Default
}

func (h *PageHandler) newPage(c *gin.Context, path, title string, data any) *web.Page {
	l := localeOf(c)
	return &web.Page{
		Locale:     l,
		Path:       path,
		Query:      c.Request.URL.Query(),
		Title:      title,
		Footer:     h.Resources.Footer(c.Request.Context(), l),
		Newsletter: forms.NewsletterNotice(c.Query("newsletter"), h.Catalog, l),
		RequestID:  c.GetString(requestIDKey),
		Data:       data,
	}
}

func (h *PageHandler) t(c *gin.Context, key string) string {
	return h.Catalog.T(localeOf(c), key)
}

// Root sends visitors to the home page in their preferred language.
func (h *PageHandler) Root(c *gin.Context) {
	l := locale.Negotiate(c.GetHeader("Accept-Language"))
	c.Redirect(http.StatusFound, "/"+l.String()+"/")
}

// NoRoute redirects paths without a supported locale prefix to the default
// locale and renders the 404 page for unknown paths inside a locale.
func (h *PageHandler) NoRoute(c *gin.Context) {
	path := c.Request.URL.Path
	for _, prefix := range []string{"/api/", "/static/", "/images/", "/webhook/", "/ws"} {
		if strings.HasPrefix(path, prefix) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
			return
		}
	}

	first, rest, _ := strings.Cut(strings.TrimPrefix(path, "/"), "/")
	if l, ok := locale.Parse(first); ok {
		c.Set(localeKey, l)
		h.NotFound(c)
		return
	}

	target := path
	if locale.IsLanguageCode(first) {
		target = "/" + rest
	}
	target = "/" + locale.Default.String() + target
	if q := c.Request.URL.RawQuery; q != "" {
		target += "?" + q
	}
	c.Redirect(http.StatusFound, target)
}

func (h *PageHandler) NotFound(c *gin.Context) {
	p := h.newPage(c, "/", h.t(c, "common.not_found"), nil)
	c.HTML(http.StatusNotFound, web.NotFoundPage, p)
}

func (h *PageHandler) Home(c *gin.Context) {
	ctx, l := c.Request.Context(), localeOf(c)

	var data web.HomeData
	var wg sync.WaitGroup
	wg.Go(func() {
		data.Projects = h.Resources.Projects(ctx, content.ProjectFilter{Featured: true, Limit: 6}, l)
	})
	wg.Go(func() {
		data.Services = h.Resources.Services(ctx, content.ServiceFilter{Featured: true, Limit: 6}, l)
	})
	wg.Go(func() { data.Testimonials = h.Resources.Testimonials(ctx, l) })
	wg.Go(func() { data.Stats = h.Resources.Statistics(ctx, l) })
	wg.Wait()

	c.HTML(http.StatusOK, "home", h.newPage(c, "/", "", data))
}

func (h *PageHandler) About(c *gin.Context) {
	ctx, l := c.Request.Context(), localeOf(c)

	var data web.AboutData
	var wg sync.WaitGroup
	wg.Go(func() { data.Team = h.Resources.TeamMembers(ctx, l) })
	wg.Go(func() { data.Values = h.Resources.CoreValues(ctx, l) })
	wg.Go(func() { data.Stats = h.Resources.Statistics(ctx, l) })
	wg.Go(func() { data.History = h.Resources.History(ctx, l) })
	wg.Go(func() { data.Testimonials = h.Resources.Testimonials(ctx, l) })
	wg.Wait()

	c.HTML(http.StatusOK, "about", h.newPage(c, "/about", h.t(c, "about.title"), data))
}

func (h *PageHandler) Contact(c *gin.Context) {
	data := web.ContactData{Info: h.Resources.ContactInfo(c.Request.Context(), localeOf(c))}
	c.HTML(http.StatusOK, "contact", h.newPage(c, "/contact", h.t(c, "contact.title"), data))
}

// SubmitContact handles the contact form post and renders the page again with
// the outcome. The form is cleared once the message was sent.
func (h *PageHandler) SubmitContact(c *gin.Context) {
	ctx, l := c.Request.Context(), localeOf(c)

	var form forms.ContactForm
	if err := c.ShouldBind(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res := h.Submitter.SubmitContact(forms.WithRequestID(ctx, c.GetString(requestIDKey)), form, l)
	if res.OK() {
		form = forms.ContactForm{}
	}

	data := web.ContactData{
		Info:   h.Resources.ContactInfo(ctx, l),
		Form:   form,
		Result: &res,
	}
	c.HTML(res.StatusCode(), "contact", h.newPage(c, "/contact", h.t(c, "contact.title"), data))
}

// SubscribeNewsletter handles the footer form and redirects back to the page
// it was posted from with the outcome in ?newsletter=.
func (h *PageHandler) SubscribeNewsletter(c *gin.Context) {
	var form forms.NewsletterForm
	if err := c.ShouldBind(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	l := localeOf(c)
	ctx := forms.WithRequestID(c.Request.Context(), c.GetString(requestIDKey))
	res := h.Submitter.SubscribeNewsletter(ctx, form, l)

	target := "/" + l.String() + safeReturnPath(c.PostForm("return")) + "?newsletter=" + url.QueryEscape(string(res.Status))
	c.Redirect(http.StatusSeeOther, target)
}

// safeReturnPath keeps redirects on this site.
func safeReturnPath(p string) string {
	if !strings.HasPrefix(p, "/") || strings.HasPrefix(p, "//") || strings.Contains(p, "\\") || strings.ContainsAny(p, "?#") {
		return "/"
	}
	return p
}

func (h *PageHandler) FAQ(c *gin.Context) {
	search, category := c.Query("q"), c.Query("category")
	data := web.FAQData{
		FAQs:     h.Resources.FAQs(c.Request.Context(), localeOf(c)),
		Search:   search,
		Category: category,
	}
	data.Results = resources.SearchFAQs(data.FAQs.Data.FAQs, search, category)

	c.HTML(http.StatusOK, "faq", h.newPage(c, "/faq", h.t(c, "faq.title"), data))
}

// pageParam reads ?page=, defaulting to 1.
func pageParam(c *gin.Context) int {
	page, err := strconv.Atoi(c.Query("page"))
	if err != nil || page < 1 {
		return 1
	}
	return page
}

// nextPageURL is the current URL asking for one more page.
func nextPageURL(u *url.URL, page int) string {
	q := u.Query()
	q.Del("refetch")
	q.Del("newsletter")
	q.Set("page", strconv.Itoa(page))
	return u.Path + "?" + q.Encode()
}

func projectFilter(c *gin.Context) content.ProjectFilter {
	return content.ProjectFilter{
		Category: c.Query("category"),
		Tag:      c.Query("tag"),
		Search:   c.Query("search"),
		Featured: c.Query("featured") == "true",
	}
}

func serviceFilter(c *gin.Context) content.ServiceFilter {
	return content.ServiceFilter{
		Category: c.Query("category"),
		Search:   c.Query("search"),
		Featured: c.Query("featured") == "true",
	}
}

func (h *PageHandler) Portfolio(c *gin.Context) {
	ctx, l := c.Request.Context(), localeOf(c)
	filter, pages := projectFilter(c), pageParam(c)

	var data web.PortfolioData
	data.Filter = filter
	var wg sync.WaitGroup
	wg.Go(func() { data.Projects = h.Resources.ProjectsUpTo(ctx, filter, l, pages) })
	wg.Go(func() { data.Categories = h.Resources.ProjectCategories(ctx, l) })
	wg.Go(func() { data.Tags = h.Resources.ProjectTags(ctx, l) })
	wg.Wait()

	if data.Projects.HasNextPage {
		data.NextPageURL = nextPageURL(c.Request.URL, data.Projects.Pages+1)
	}

	c.HTML(http.StatusOK, "portfolio", h.newPage(c, "/portfolio", h.t(c, "portfolio.title"), data))
}

func (h *PageHandler) Project(c *gin.Context) {
	slug := c.Param("slug")
	s := h.Resources.ProjectDetail(c.Request.Context(), slug, localeOf(c))
	if errors.Is(s.Err, resources.ErrNotFound) || (s.Err == nil && s.Data == nil) {
		h.NotFound(c)
		return
	}

	title := h.t(c, "portfolio.title")
	if s.Data != nil {
		title = s.Data.Title
	}
	c.HTML(http.StatusOK, "project", h.newPage(c, "/portfolio/"+slug, title, web.ProjectData{Project: s}))
}

func (h *PageHandler) Services(c *gin.Context) {
	ctx, l := c.Request.Context(), localeOf(c)
	filter, pages := serviceFilter(c), pageParam(c)

	var data web.ServicesData
	data.Filter = filter
	var wg sync.WaitGroup
	wg.Go(func() { data.Services = h.Resources.ServicesUpTo(ctx, filter, l, pages) })
	wg.Go(func() { data.Categories = h.Resources.ServiceCategories(ctx, l) })
	wg.Wait()

	if data.Services.HasNextPage {
		data.NextPageURL = nextPageURL(c.Request.URL, data.Services.Pages+1)
	}

	c.HTML(http.StatusOK, "services", h.newPage(c, "/services", h.t(c, "services.title"), data))
}

func (h *PageHandler) Service(c *gin.Context) {
	slug := c.Param("slug")
	s := h.Resources.ServiceDetail(c.Request.Context(), slug, localeOf(c))
	if errors.Is(s.Err, resources.ErrNotFound) || (s.Err == nil && s.Data == nil) {
		h.NotFound(c)
		return
	}

	title := h.t(c, "services.title")
	if s.Data != nil {
		title = s.Data.Title
	}
	c.HTML(http.StatusOK, "service", h.newPage(c, "/services/"+slug, title, web.ServiceData{Service: s}))
}

func (h *PageHandler) Terms(c *gin.Context) {
	c.HTML(http.StatusOK, "terms", h.newPage(c, "/terms", h.t(c, "terms.title"), nil))
}
