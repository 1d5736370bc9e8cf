package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"archway-web/internal/forms"
	"archway-web/internal/locale"
	"archway-web/internal/logger"
	"archway-web/internal/resources"
)

// ContentHandler serves the JSON endpoints used by page scripts.
type ContentHandler struct {
	Resources *resources.Resources
	Submitter *forms.Submitter
	lggr      logger.Logger
}

func NewContentHandler(res *resources.Resources, submitter *forms.Submitter, lggr logger.Logger) *ContentHandler {
	return &ContentHandler{Resources: res, Submitter: submitter, lggr: lggr.Named("content")}
}

// requestLocale reads ?locale=, then Accept-Language.
func requestLocale(c *gin.Context) locale.Locale {
	if l, ok := locale.Parse(c.Query("locale")); ok {
		return l
	}
	return locale.Negotiate(c.GetHeader("Accept-Language"))
}

// PageResponse is one page of a paginated list.
type PageResponse[T any] struct {
	Results     []T  `json:"results"`
	Count       int  `json:"count"`
	Page        int  `json:"page"`
	HasNextPage bool `json:"has_next_page"`
	NextPage    *int `json:"next_page"`
}

func pageResponse[T any](s resources.ListState[T], page int) PageResponse[T] {
	resp := PageResponse[T]{Results: s.Page(page), Count: s.Count, Page: page}
	if resp.Results == nil {
		resp.Results = []T{}
	}
	resp.HasNextPage = page < s.Pages || (page == s.Pages && s.HasNextPage)
	if resp.HasNextPage {
		next := page + 1
		resp.NextPage = &next
	}
	return resp
}

// Projects returns page ?page= of the portfolio for the filter in the query.
// Pages past resources.MaxPages are rejected.
func (h *ContentHandler) Projects(c *gin.Context) {
	page := pageParam(c)
	if page > resources.MaxPages {
		c.JSON(http.StatusBadRequest, gin.H{"error": "page out of range"})
		return
	}
	s := h.Resources.ProjectsUpTo(c.Request.Context(), projectFilter(c), requestLocale(c), page)
	if s.Failed() && s.Pages < page {
		c.JSON(http.StatusBadGateway, gin.H{"error": s.Error})
		return
	}
	c.JSON(http.StatusOK, pageResponse(s, page))
}

func (h *ContentHandler) Services(c *gin.Context) {
	page := pageParam(c)
	if page > resources.MaxPages {
		c.JSON(http.StatusBadRequest, gin.H{"error": "page out of range"})
		return
	}
	s := h.Resources.ServicesUpTo(c.Request.Context(), serviceFilter(c), requestLocale(c), page)
	if s.Failed() && s.Pages < page {
		c.JSON(http.StatusBadGateway, gin.H{"error": s.Error})
		return
	}
	c.JSON(http.StatusOK, pageResponse(s, page))
}

// ContactInfo always answers 200; the fallback card stands in when the
// backend is unreachable.
func (h *ContentHandler) ContactInfo(c *gin.Context) {
	s := h.Resources.ContactInfo(c.Request.Context(), requestLocale(c))
	if s.Failed() {
		c.Header("X-Fallback", "true")
	}
	c.JSON(http.StatusOK, s.Data)
}

func (h *ContentHandler) SubmitContact(c *gin.Context) {
	var form forms.ContactForm
	if err := c.ShouldBindJSON(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := forms.WithRequestID(c.Request.Context(), c.GetString(requestIDKey))
	res := h.Submitter.SubmitContact(ctx, form, requestLocale(c))
	c.JSON(res.StatusCode(), res)
}

func (h *ContentHandler) SubscribeNewsletter(c *gin.Context) {
	var form forms.NewsletterForm
	if err := c.ShouldBindJSON(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := forms.WithRequestID(c.Request.Context(), c.GetString(requestIDKey))
	res := h.Submitter.SubscribeNewsletter(ctx, form, requestLocale(c))
	c.JSON(res.StatusCode(), res)
}
