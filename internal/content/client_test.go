package content

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"archway-web/internal/logger"
	"archway-web/pkg/models"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL+"/api/v1/", WithLogger(logger.Test(t)))
}

func TestListProjects_QueryParams(t *testing.T) {
	t.Parallel()

	published := true
	var got *http.Request
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		got = r
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"count":1,"next":null,"previous":null,"results":[{"id":"p1","title":"فيلا","slug":"villa"}]}`))
	})

	page, err := client.ListProjects(t.Context(), ProjectFilter{
		Category:  "residential",
		Tag:       "modern",
		Search:    "villa",
		Featured:  true,
		Published: &published,
		Limit:     6,
	}, "ar", 2)
	require.NoError(t, err)

	require.NotNil(t, got)
	assert.Equal(t, "/api/v1/projects/", got.URL.Path)
	q := got.URL.Query()
	assert.Equal(t, "ar", q.Get("lang"))
	assert.Equal(t, "residential", q.Get("category__slug"))
	assert.Equal(t, "modern", q.Get("tags__slug"))
	assert.Equal(t, "villa", q.Get("search"))
	assert.Equal(t, "true", q.Get("is_featured"))
	assert.Equal(t, "true", q.Get("is_published"))
	assert.Equal(t, "6", q.Get("limit"))
	assert.Equal(t, "2", q.Get("page"))
	assert.Equal(t, "application/json", got.Header.Get("Accept"))

	require.Len(t, page.Results, 1)
	assert.Equal(t, "فيلا", page.Results[0].Title)
}

func TestListProjects_OmitsEmptyFilters(t *testing.T) {
	t.Parallel()

	var rawQuery string
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		rawQuery = r.URL.RawQuery
		_, _ = w.Write([]byte(`[]`))
	})

	_, err := client.ListProjects(t.Context(), ProjectFilter{}, "", 0)
	require.NoError(t, err)
	assert.Equal(t, "lang=en", rawQuery)
}

func TestGetProject_NotFound(t *testing.T) {
	t.Parallel()

	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/projects/missing-villa/", r.URL.Path)
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"detail":"Not found."}`))
	})

	_, err := client.GetProject(t.Context(), "missing-villa", "en")
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
	assert.False(t, IsRetryable(err))

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "Not found.", apiErr.Detail)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
}

func TestGetFooter(t *testing.T) {
	t.Parallel()

	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/footer/", r.URL.Path)
		assert.Equal(t, "ar", r.URL.Query().Get("lang"))
		_ = json.NewEncoder(w).Encode(models.FooterData{
			Settings:    &models.FooterSettings{CompanyName: "آرتشواي", ShowNewsletter: true},
			SocialMedia: []models.SocialMedia{{Platform: "instagram", URL: "https://instagram.com/archway"}},
		})
	})

	footer, err := client.GetFooter(t.Context(), "ar")
	require.NoError(t, err)
	assert.Equal(t, "آرتشواي", footer.Settings.CompanyName)
	assert.True(t, footer.Settings.ShowNewsletter)
	require.Len(t, footer.SocialMedia, 1)
}

func TestListEndpoints(t *testing.T) {
	t.Parallel()

	paths := make(chan string, 16)
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		paths <- r.URL.Path
		_, _ = w.Write([]byte(`{"count":0,"next":null,"previous":null,"results":[]}`))
	})
	ctx := t.Context()

	_, err := client.ListTestimonials(ctx, "en")
	require.NoError(t, err)
	_, err = client.ListTeamMembers(ctx, "en")
	require.NoError(t, err)
	_, err = client.ListCoreValues(ctx, "en")
	require.NoError(t, err)
	_, err = client.ListStatistics(ctx, "en")
	require.NoError(t, err)
	_, err = client.ListHistory(ctx, "en")
	require.NoError(t, err)
	_, err = client.ListFAQs(ctx, "en")
	require.NoError(t, err)
	_, err = client.ListFAQCategories(ctx, "en")
	require.NoError(t, err)
	_, err = client.ListServiceCategories(ctx, "en")
	require.NoError(t, err)
	_, err = client.ListProjectCategories(ctx, "en")
	require.NoError(t, err)
	_, err = client.ListProjectTags(ctx, "en")
	require.NoError(t, err)
	close(paths)

	var got []string
	for p := range paths {
		got = append(got, p)
	}
	assert.Equal(t, []string{
		"/api/v1/testimonials/",
		"/api/v1/about/team/",
		"/api/v1/about/core-values/",
		"/api/v1/about/statistics/",
		"/api/v1/about/history/",
		"/api/v1/faqs/",
		"/api/v1/faqs/categories/",
		"/api/v1/service-categories/",
		"/api/v1/categories/",
		"/api/v1/tags/",
	}, got)
}

func TestSubmitContact(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		status      int
		wantErr     bool
		rateLimited bool
	}{
		{name: "created", status: http.StatusCreated},
		{name: "rate limited", status: http.StatusTooManyRequests, wantErr: true, rateLimited: true},
		{name: "server error", status: http.StatusInternalServerError, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var body models.ContactRequest
			client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodPost, r.Method)
				assert.Equal(t, "/api/v1/contact/", r.URL.Path)
				assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
				assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
				w.WriteHeader(tt.status)
			})

			status, err := client.SubmitContact(t.Context(), models.ContactRequest{Name: "Mona", Email: "mona@example.com", Subject: "Kitchen", Message: "Hello"})
			assert.Equal(t, tt.status, status)
			assert.Equal(t, "mona@example.com", body.Email)
			if !tt.wantErr {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.rateLimited, IsRateLimited(err))
		})
	}
}

func TestSubscribeNewsletter_Detail(t *testing.T) {
	t.Parallel()

	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/newsletter/", r.URL.Path)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"detail":"This email is already subscribed."}`))
	})

	status, err := client.SubscribeNewsletter(t.Context(), models.NewsletterRequest{Email: "a@b.co"})
	assert.Equal(t, http.StatusBadRequest, status)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "This email is already subscribed.", apiErr.Detail)
}

func TestTransportErrorIsRetryable(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	client := NewClient(srv.URL)
	srv.Close()

	_, err := client.ListFAQs(t.Context(), "en")
	require.Error(t, err)
	assert.True(t, IsRetryable(err))
	assert.Zero(t, StatusOf(err))
}

func TestPageParam(t *testing.T) {
	t.Parallel()

	tests := []struct {
		next   string
		want   int
		wantOK bool
	}{
		{next: "http://backend:8000/api/v1/projects/?lang=en&page=3", want: 3, wantOK: true},
		{next: "", wantOK: false},
		{next: "http://backend:8000/api/v1/projects/?lang=en", wantOK: false},
		{next: "http://backend:8000/api/v1/projects/?page=abc", wantOK: false},
		{next: "://bad", wantOK: false},
	}

	for _, tt := range tests {
		got, ok := PageParam(tt.next)
		assert.Equal(t, tt.wantOK, ok, tt.next)
		assert.Equal(t, tt.want, got, tt.next)
	}
}

func TestListFAQs_NestedCategoryAndLanguage(t *testing.T) {
	t.Parallel()

	var got *http.Request
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		got = r
		_, _ = w.Write([]byte(`{"count":1,"next":null,"previous":null,"results":[
			{"id":1,"question":"كم المدة؟","answer":"ستة أسابيع","language":"ar",
			 "category":{"id":1,"name":"General","slug":"general","order":1,"is_active":true},
			 "order":1,"is_active":true}]}`))
	})

	faqs, err := client.ListFAQs(t.Context(), "ar")
	require.NoError(t, err)

	require.NotNil(t, got)
	assert.Equal(t, "ar", got.URL.Query().Get("lang"))
	assert.Equal(t, "ar", got.URL.Query().Get("language"))

	require.Len(t, faqs, 1)
	assert.Equal(t, "general", faqs[0].Category.Slug)
	assert.Equal(t, models.ID("1"), faqs[0].Category.ID)
	assert.Equal(t, "ar", faqs[0].Language)
}
