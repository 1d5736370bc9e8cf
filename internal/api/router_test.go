package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"archway-web/internal/config"
	"archway-web/internal/content"
	"archway-web/internal/forms"
	"archway-web/internal/imageproxy"
	"archway-web/internal/locale"
	"archway-web/internal/logger"
	"archway-web/internal/models"
	"archway-web/internal/query"
	"archway-web/internal/resources"
	"archway-web/internal/urls"
	"archway-web/internal/web"
	"archway-web/internal/webhook"
	"archway-web/internal/ws"
)

const webhookToken = "s3cret"

// backend fakes the content API and records what it was asked.
type backend struct {
	srv *httptest.Server
	mux *http.ServeMux

	mu      sync.Mutex
	hits    map[string]int
	queries map[string][]url.Values
}

func newBackend(t *testing.T) *backend {
	t.Helper()
	b := &backend{mux: http.NewServeMux(), hits: map[string]int{}, queries: map[string][]url.Values{}}
	b.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		b.hits[r.Method+" "+r.URL.Path]++
		b.queries[r.URL.Path] = append(b.queries[r.URL.Path], r.URL.Query())
		b.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		b.mux.ServeHTTP(w, r)
	}))
	t.Cleanup(b.srv.Close)
	return b
}

func (b *backend) handle(pattern string, status int, body string) {
	b.mux.HandleFunc(pattern, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(status)
		_, _ = fmt.Fprint(w, body)
	})
}

func (b *backend) Hits(key string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.hits[key]
}

func (b *backend) Langs(path string) []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []string
	for _, q := range b.queries[path] {
		out = append(out, q.Get("lang"))
	}
	return out
}

type memoryLog struct {
	mu   sync.Mutex
	subs []models.Submission
}

func (m *memoryLog) Record(_ context.Context, s *models.Submission) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s.ID = uint(len(m.subs) + 1)
	s.CreatedAt = time.Now()
	m.subs = append(m.subs, *s)
	return nil
}

func (m *memoryLog) Recent(_ context.Context, limit int) ([]models.Submission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Submission, 0, len(m.subs))
	for i := len(m.subs) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.subs[i])
	}
	return out, nil
}

func (m *memoryLog) CountByStatus(_ context.Context, kind string, since time.Time) (map[string]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	counts := map[string]int64{}
	for _, s := range m.subs {
		if s.Kind == kind && !s.CreatedAt.Before(since) {
			counts[s.Status]++
		}
	}
	return counts, nil
}

type harness struct {
	router  *gin.Engine
	backend *backend
	log     *memoryLog
	hub     *ws.Hub
}

func setup(t *testing.T) *harness {
	t.Helper()
	gin.SetMode(gin.TestMode)

	lggr := logger.Test(t)
	b := newBackend(t)
	catalog := locale.MustLoadCatalog()
	norm := urls.New(urls.Config{BackendURL: b.srv.URL})
	client := content.NewClient(b.srv.URL, content.WithLogger(lggr))
	res := resources.New(client, query.New(lggr), norm, catalog, lggr, resources.WithRetryDelay(time.Millisecond))

	renderer, err := web.New(catalog, norm, lggr)
	require.NoError(t, err)

	log := &memoryLog{}
	hub := ws.NewHub(lggr)
	go hub.Run()
	t.Cleanup(hub.Stop)

	cfg := &config.Config{WebhookVerifyToken: webhookToken}
	router := NewRouter(Deps{
		Resources:   res,
		Submitter:   forms.NewSubmitter(client, log, catalog, lggr),
		Catalog:     catalog,
		Renderer:    renderer,
		ImageProxy:  imageproxy.New(norm.BackendOrigin(urls.Server), time.Hour, lggr),
		Hub:         hub,
		Webhook:     webhook.NewHandler(cfg, res, hub, lggr),
		Submissions: log,
		Logger:      lggr,
	})

	return &harness{router: router, backend: b, log: log, hub: hub}
}

func (h *harness) do(method, target string, body string, headers ...string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)
	return w
}

const (
	projectsPage1 = `{"count":3,"next":"http://backend:8000/api/v1/projects/?page=2","previous":null,"results":[
		{"id":"p1","title":"Villa","slug":"villa","cover_image":"/media/projects/villa.jpg"},
		{"id":"p2","title":"Loft","slug":"loft"}]}`
	projectsPage2 = `{"count":3,"next":null,"previous":"http://backend:8000/api/v1/projects/?page=1","results":[
		{"id":"p3","title":"Office","slug":"office"}]}`
)

func handleProjects(b *backend) {
	b.mux.HandleFunc("/projects/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/projects/" {
			http.NotFound(w, r)
			return
		}
		if r.URL.Query().Get("page") == "2" {
			_, _ = fmt.Fprint(w, projectsPage2)
			return
		}
		_, _ = fmt.Fprint(w, projectsPage1)
	})
}

func TestRoot_RedirectsToNegotiatedLocale(t *testing.T) {
	h := setup(t)

	w := h.do(http.MethodGet, "/", "", "Accept-Language", "ar-EG,ar;q=0.9,en;q=0.5")
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/ar/", w.Header().Get("Location"))

	w = h.do(http.MethodGet, "/", "")
	assert.Equal(t, "/en/", w.Header().Get("Location"))
}

func TestNoRoute(t *testing.T) {
	h := setup(t)

	tests := []struct {
		name     string
		target   string
		code     int
		location string
	}{
		{name: "missing locale", target: "/about", code: http.StatusFound, location: "/en/about"},
		{name: "unsupported locale", target: "/fr/faq?q=price", code: http.StatusFound, location: "/en/faq?q=price"},
		{name: "unknown page in locale", target: "/ar/blog", code: http.StatusNotFound},
		{name: "unknown api route", target: "/api/blog", code: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := h.do(http.MethodGet, tt.target, "")
			assert.Equal(t, tt.code, w.Code)
			if tt.location != "" {
				assert.Equal(t, tt.location, w.Header().Get("Location"))
			}
		})
	}

	w := h.do(http.MethodGet, "/ar/blog", "")
	assert.Contains(t, w.Body.String(), `dir="rtl"`)
}

func TestPages_LocaleDrivesDirectionAndLang(t *testing.T) {
	h := setup(t)
	handleProjects(h.backend)

	en := h.do(http.MethodGet, "/en/portfolio", "")
	require.Equal(t, http.StatusOK, en.Code)
	assert.Contains(t, en.Body.String(), `<html lang="en" dir="ltr">`)
	assert.NotContains(t, en.Body.String(), "flex-row-reverse")

	ar := h.do(http.MethodGet, "/ar/portfolio", "")
	require.Equal(t, http.StatusOK, ar.Code)
	assert.Contains(t, ar.Body.String(), `<html lang="ar" dir="rtl">`)
	assert.Contains(t, ar.Body.String(), "flex-row-reverse")
	assert.Contains(t, ar.Body.String(), "text-right")

	assert.Equal(t, []string{"en", "ar"}, h.backend.Langs("/projects/"))
}

func TestPages_RenderWhenSectionsFail(t *testing.T) {
	h := setup(t)
	h.backend.handle("/testimonials/", http.StatusOK, `{"count":1,"results":[{"id":1,"client_name":"Hala","quote":"Calm and bright."}]}`)

	w := h.do(http.MethodGet, "/en/about", "")
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "Calm and bright.")
	assert.Contains(t, body, "Failed to load team members, please try again")
	assert.Contains(t, body, `href="/en/about?refetch=team"`)
}

func TestPages_RefetchReloadsResource(t *testing.T) {
	h := setup(t)
	h.backend.handle("/about/team/", http.StatusOK, `{"count":1,"results":[{"id":1,"name":"Omar","role":"Architect"}]}`)

	h.do(http.MethodGet, "/en/about", "")
	h.do(http.MethodGet, "/en/about", "")
	assert.Equal(t, 1, h.backend.Hits("GET /about/team/"))

	h.do(http.MethodGet, "/en/about?refetch=team", "")
	assert.Equal(t, 2, h.backend.Hits("GET /about/team/"))
}

func TestPortfolio_LoadMore(t *testing.T) {
	h := setup(t)
	handleProjects(h.backend)

	w := h.do(http.MethodGet, "/en/portfolio", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `href="/en/portfolio?page=2"`)
	assert.NotContains(t, w.Body.String(), "Office")

	w = h.do(http.MethodGet, "/en/portfolio?page=2", "")
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "Villa")
	assert.Contains(t, body, "Office")
	assert.NotContains(t, body, `rel="next"`)
}

func TestProjectDetail_NotFound(t *testing.T) {
	h := setup(t)
	h.backend.handle("/projects/villa/", http.StatusOK, `{"id":"p1","title":"Villa","slug":"villa","area":250}`)
	h.backend.handle("/projects/gone/", http.StatusNotFound, `{"detail":"Not found."}`)

	w := h.do(http.MethodGet, "/en/portfolio/villa", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "<title>Villa | Archway Design</title>")
	assert.Contains(t, w.Body.String(), "250 m&sup2;")

	w = h.do(http.MethodGet, "/en/portfolio/gone", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "Page not found")
}

func TestContactForm(t *testing.T) {
	h := setup(t)
	h.backend.handle("/contact/", http.StatusCreated, `{"id":1}`)

	form := url.Values{"name": {"Mona"}, "email": {"not-an-email"}, "subject": {"Kitchen"}, "message": {"Hello"}}
	w := h.do(http.MethodPost, "/en/contact", form.Encode(), "Content-Type", "application/x-www-form-urlencoded")
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "Please enter a valid email address")
	assert.Contains(t, w.Body.String(), `value="not-an-email"`)
	assert.Zero(t, h.backend.Hits("POST /contact/"), "invalid forms never reach the API")

	form.Set("email", "mona@example.com")
	w = h.do(http.MethodPost, "/en/contact", form.Encode(), "Content-Type", "application/x-www-form-urlencoded")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Thank you. Your message has been sent.")
	assert.NotContains(t, w.Body.String(), `value="mona@example.com"`)
	assert.Equal(t, 1, h.backend.Hits("POST /contact/"))

	require.Len(t, h.log.subs, 2)
	assert.Equal(t, "invalid", h.log.subs[0].Status)
	assert.Equal(t, "success", h.log.subs[1].Status)
	assert.NotEmpty(t, h.log.subs[1].RequestID)
}

func TestContactAPI_RateLimited(t *testing.T) {
	h := setup(t)
	h.backend.handle("/contact/", http.StatusTooManyRequests, `{"detail":"Request was throttled."}`)

	body := `{"name":"Mona","email":"mona@example.com","subject":"Kitchen","message":"Hello"}`
	w := h.do(http.MethodPost, "/api/contact?locale=ar", body, "Content-Type", "application/json")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	var res forms.Result
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, forms.StatusRateLimited, res.Status)
	assert.Equal(t, locale.MustLoadCatalog().T(locale.Arabic, "contact.rate_limited"), res.Message)
}

func TestNewsletter_RedirectsBackWithStatus(t *testing.T) {
	h := setup(t)
	h.backend.handle("/newsletter/", http.StatusCreated, `{}`)

	form := url.Values{"email": {"reader@example.com"}, "return": {"/about"}}
	w := h.do(http.MethodPost, "/ar/newsletter", form.Encode(), "Content-Type", "application/x-www-form-urlencoded")
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/ar/about?newsletter=success", w.Header().Get("Location"))

	form.Set("return", "//evil.example.com")
	w = h.do(http.MethodPost, "/en/newsletter", form.Encode(), "Content-Type", "application/x-www-form-urlencoded")
	assert.Equal(t, "/en/?newsletter=success", w.Header().Get("Location"))

	w = h.do(http.MethodGet, "/en/terms?newsletter=success", "")
	assert.Contains(t, w.Body.String(), "Thanks for subscribing!")
}

func TestProjectsAPI(t *testing.T) {
	h := setup(t)
	handleProjects(h.backend)

	w := h.do(http.MethodGet, "/api/projects?locale=en&page=2", "")
	require.Equal(t, http.StatusOK, w.Code)

	var page struct {
		Results []struct {
			Slug string `json:"slug"`
		} `json:"results"`
		Count       int  `json:"count"`
		Page        int  `json:"page"`
		HasNextPage bool `json:"has_next_page"`
		NextPage    *int `json:"next_page"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	require.Len(t, page.Results, 1)
	assert.Equal(t, "office", page.Results[0].Slug)
	assert.Equal(t, 3, page.Count)
	assert.Equal(t, 2, page.Page)
	assert.False(t, page.HasNextPage)
	assert.Nil(t, page.NextPage)

	w = h.do(http.MethodGet, "/api/projects?locale=en&page=1", "")
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	assert.Len(t, page.Results, 2)
	assert.True(t, page.HasNextPage)
	require.NotNil(t, page.NextPage)
	assert.Equal(t, 2, *page.NextPage)
	assert.Equal(t, 2, h.backend.Hits("GET /projects/"), "the second call is served from cache")
}

func TestContactInfoAPI_Fallback(t *testing.T) {
	h := setup(t)
	h.backend.handle("/contact-info/", http.StatusNotFound, `{"detail":"Not found."}`)

	w := h.do(http.MethodGet, "/api/contact-info", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "true", w.Header().Get("X-Fallback"))
	assert.Contains(t, w.Body.String(), resources.FallbackContactInfo.Email)
}

func TestWebhook_InvalidatesCache(t *testing.T) {
	h := setup(t)
	h.backend.handle("/faqs/", http.StatusOK, `{"count":1,"results":[{"id":1,"question":"How long?","answer":"Six weeks.","category":"general","is_active":true}]}`)
	h.backend.handle("/faqs/categories/", http.StatusOK, `{"count":1,"results":[{"id":1,"name":"General","slug":"general","is_active":true}]}`)

	h.do(http.MethodGet, "/en/faq", "")
	h.do(http.MethodGet, "/en/faq", "")
	require.Equal(t, 1, h.backend.Hits("GET /faqs/"))

	w := h.do(http.MethodPost, "/webhook/content", `{"resource":"faqs"}`, "Content-Type", "application/json")
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = h.do(http.MethodPost, "/webhook/content", `{"resource":"faqs"}`, "Content-Type", "application/json", webhook.TokenHeader, webhookToken)
	require.Equal(t, http.StatusOK, w.Code)

	w = h.do(http.MethodGet, "/en/faq?q=weeks", "")
	assert.Equal(t, 2, h.backend.Hits("GET /faqs/"))
	assert.Contains(t, w.Body.String(), "How long?")

	w = h.do(http.MethodGet, "/en/faq?q=budget", "")
	assert.Contains(t, w.Body.String(), "No questions match your search.")
}

func TestSiteImages(t *testing.T) {
	h := setup(t)

	w := h.do(http.MethodGet, "/images/project-3.jpg", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/svg+xml", w.Header().Get("Content-Type"))

	w = h.do(http.MethodGet, "/static/css/site.css", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), ".flex-row-reverse")
}

func TestSubmissionsAdmin(t *testing.T) {
	h := setup(t)
	h.backend.handle("/newsletter/", http.StatusCreated, `{}`)

	h.do(http.MethodPost, "/api/newsletter", `{"email":"reader@example.com"}`, "Content-Type", "application/json")
	h.do(http.MethodPost, "/api/newsletter", `{"email":"nope"}`, "Content-Type", "application/json")

	w := h.do(http.MethodGet, "/api/submissions", "")
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = h.do(http.MethodGet, "/api/submissions/stats", "", webhook.TokenHeader, webhookToken)
	require.Equal(t, http.StatusOK, w.Code)
	var stats struct {
		Stats map[string]map[string]int64 `json:"stats"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.Equal(t, map[string]int64{"success": 1, "invalid": 1}, stats.Stats["newsletter"])

	w = h.do(http.MethodGet, "/api/submissions/export", "", webhook.TokenHeader, webhookToken)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	lines := strings.Split(strings.TrimSpace(w.Body.String()), "\n")
	assert.Len(t, lines, 3)
}

func TestHealth(t *testing.T) {
	h := setup(t)

	w := h.do(http.MethodGet, "/api/health", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))
}

func TestProjectsAPI_PageLimit(t *testing.T) {
	h := setup(t)
	total := resources.MaxPages + 10
	h.backend.mux.HandleFunc("/projects/", func(w http.ResponseWriter, r *http.Request) {
		page, err := strconv.Atoi(r.URL.Query().Get("page"))
		if err != nil || page < 1 {
			page = 1
		}
		next := "null"
		if page < total {
			next = fmt.Sprintf(`"http://backend:8000/api/v1/projects/?page=%d"`, page+1)
		}
		_, _ = fmt.Fprintf(w, `{"count":%d,"next":%s,"previous":null,"results":[{"id":"p%d","title":"Project %d","slug":"project-%d"}]}`, total, next, page, page, page)
	})

	w := h.do(http.MethodGet, fmt.Sprintf("/api/projects?page=%d", resources.MaxPages), "")
	require.Equal(t, http.StatusOK, w.Code)
	var page struct {
		HasNextPage bool `json:"has_next_page"`
		NextPage    *int `json:"next_page"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	assert.False(t, page.HasNextPage)
	assert.Nil(t, page.NextPage)

	w = h.do(http.MethodGet, fmt.Sprintf("/api/projects?page=%d", resources.MaxPages+1), "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = h.do(http.MethodGet, fmt.Sprintf("/en/portfolio?page=%d", resources.MaxPages+1), "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), `rel="next"`, "no load-more link once the page limit is reached")
}

func TestPortfolio_RetryKeepsFilter(t *testing.T) {
	h := setup(t)
	h.backend.handle("/projects/", http.StatusNotFound, `{"detail":"Not found."}`)

	w := h.do(http.MethodGet, "/en/portfolio?category=residential&page=3", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `href="/en/portfolio?category=residential&amp;page=3&amp;refetch=projects"`)
}
