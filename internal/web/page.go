package web

import (
	"net/url"
	"time"

	"archway-web/internal/content"
	"archway-web/internal/forms"
	"archway-web/internal/locale"
	"archway-web/internal/resources"
	"archway-web/internal/urls"
	"archway-web/pkg/models"
)

// Page is the data every page template executes with.
type Page struct {
	Locale locale.Locale
	// Path is the request path without the locale prefix, e.g. "/about".
	Path  string
	// Query is the request query; retry links keep it.
	Query url.Values
	Title string

	Footer     resources.State[*models.FooterData]
	Newsletter *forms.Result
	// NewsletterEmail refills the footer form after a failed signup.
	NewsletterEmail string

	RequestID string
	Data      any

	catalog *locale.Catalog
	urls    *urls.Normalizer
}

func (p *Page) T(key string) string {
	return p.catalog.T(p.Locale, key)
}

func (p *Page) Dir() string {
	return p.Locale.Dir()
}

// RTL returns rtl for Arabic pages and ltr otherwise.
func (p *Page) RTL(rtl, ltr string) string {
	if p.Locale.IsRTL() {
		return rtl
	}
	return ltr
}

// TextAlign is the start-aligned text class for the page direction.
func (p *Page) TextAlign() string {
	return p.RTL("text-right", "text-left")
}

// RowDir is the flex direction class for rows that follow the reading order.
func (p *Page) RowDir() string {
	return p.RTL("flex-row-reverse", "flex-row")
}

// Href prefixes path with the page locale.
func (p *Page) Href(path string) string {
	return "/" + p.Locale.String() + path
}

// SwitchLocaleHref is the current page in the other locale.
func (p *Page) SwitchLocaleHref() string {
	return "/" + p.Locale.Other().String() + p.Path
}

func (p *Page) IsActive(path string) bool {
	if path == "/" {
		return p.Path == "/" || p.Path == ""
	}
	return len(p.Path) >= len(path) && p.Path[:len(path)] == path
}

// Img returns a browser-loadable URL for a backend image, or the placeholder.
func (p *Page) Img(raw string) string {
	return p.urls.ProxyImageURL(urls.Browser, raw)
}

// ImgW is Img sized for the given width.
func (p *Page) ImgW(raw string, width int) string {
	return p.urls.ImageLoaderURL(p.Img(raw), width, 0)
}

func (p *Page) Placeholder() string {
	return p.urls.Placeholder()
}

// Image is the data of the "img" component.
type Image struct {
	Src         string
	Alt         string
	Class       string
	Placeholder string
}

func (p *Page) Image(raw, alt, class string) Image {
	return Image{Src: p.Img(raw), Alt: alt, Class: class, Placeholder: p.Placeholder()}
}

// Alert is the data of the "error" component.
type Alert struct {
	Message    string
	RetryURL   string
	RetryLabel string
}

// Alert builds the error block of a section whose resource failed to load.
// The retry link reloads the page with that resource marked stale.
func (p *Page) Alert(resource, message string) Alert {
	q := url.Values{}
	for k, v := range p.Query {
		q[k] = v
	}
	q.Del("newsletter")
	q.Set("refetch", resource)
	return Alert{
		Message:    message,
		RetryURL:   p.Href(p.Path) + "?" + q.Encode(),
		RetryLabel: p.T("common.retry"),
	}
}

func (p *Page) Year() int {
	return time.Now().Year()
}

type HomeData struct {
	Projects     resources.ListState[models.Project]
	Services     resources.ListState[models.Service]
	Testimonials resources.State[[]models.Testimonial]
	Stats        resources.State[[]models.CompanyStat]
}

type AboutData struct {
	Team         resources.State[[]models.TeamMember]
	Values       resources.State[[]models.CoreValue]
	Stats        resources.State[[]models.CompanyStat]
	History      resources.State[[]models.HistoryEvent]
	Testimonials resources.State[[]models.Testimonial]
}

type ContactData struct {
	Info   resources.State[models.ContactInfo]
	Form   forms.ContactForm
	Result *forms.Result
}

type FAQData struct {
	FAQs     resources.State[resources.FAQData]
	Results  []models.FAQ
	Search   string
	Category string
}

type PortfolioData struct {
	Projects   resources.ListState[models.Project]
	Categories resources.State[[]models.ProjectCategory]
	Tags       resources.State[[]models.Tag]
	Filter     content.ProjectFilter
	// NextPageURL loads one more page; empty when there is none.
	NextPageURL string
}

type ProjectData struct {
	Project resources.State[*models.Project]
}

type ServicesData struct {
	Services    resources.ListState[models.Service]
	Categories  resources.State[[]models.ServiceCategory]
	Filter      content.ServiceFilter
	NextPageURL string
}

type ServiceData struct {
	Service resources.State[*models.Service]
}

// FieldError is the validation message for a contact form field, if any.
func (d ContactData) FieldError(name string) string {
	if d.Result == nil {
		return ""
	}
	return d.Result.Errors[name]
}

// ShowNewsletter hides the signup form only when the footer settings turn it off.
func (p *Page) ShowNewsletter() bool {
	if p.Footer.Data == nil || p.Footer.Data.Settings == nil {
		return true
	}
	return p.Footer.Data.Settings.ShowNewsletter
}

// ProjectCard is the data of the "project_card" component.
type ProjectCard struct {
	Project models.Project
	Href    string
	Image   Image
}

func (p *Page) ProjectCard(project models.Project) ProjectCard {
	return ProjectCard{
		Project: project,
		Href:    p.Href("/portfolio/" + url.PathEscape(project.Slug)),
		Image:   p.Image(project.Cover(), project.Title, "card-image"),
	}
}

type ServiceCard struct {
	Service models.Service
	Href    string
	Image   Image
}

func (p *Page) ServiceCard(service models.Service) ServiceCard {
	return ServiceCard{
		Service: service,
		Href:    p.Href("/services/" + url.PathEscape(service.Slug)),
		Image:   p.Image(service.Thumbnail(), service.Title, "card-image"),
	}
}
