package api

import (
	"net/http"
	"path"

	"github.com/gin-gonic/gin"

	"archway-web/internal/forms"
	"archway-web/internal/imageproxy"
	"archway-web/internal/locale"
	"archway-web/internal/logger"
	"archway-web/internal/resources"
	"archway-web/internal/web"
	"archway-web/internal/webhook"
	"archway-web/internal/ws"
)

// Deps are the components the router wires into handlers. Submissions may be
// nil when no submission log is configured.
type Deps struct {
	Resources   *resources.Resources
	Submitter   *forms.Submitter
	Catalog     *locale.Catalog
	Renderer    *web.Renderer
	ImageProxy  *imageproxy.Proxy
	Hub         *ws.Hub
	Webhook     *webhook.Handler
	Submissions SubmissionLog
	Logger      logger.Logger
}

func NewRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(RequestID(), Logger(d.Logger), gin.Recovery(), CORS())
	r.HTMLRender = d.Renderer

	pageHandler := NewPageHandler(d.Resources, d.Submitter, d.Catalog, d.Logger)
	contentHandler := NewContentHandler(d.Resources, d.Submitter, d.Logger)

	r.GET("/", pageHandler.Root)
	r.NoRoute(pageHandler.NoRoute)

	// Localized pages
	for _, l := range locale.Supported {
		g := r.Group("/"+l.String(), pageHandler.WithLocale(l))
		{
			g.GET("/", pageHandler.Home)
			g.GET("/about", pageHandler.About)
			g.GET("/contact", pageHandler.Contact)
			g.POST("/contact", pageHandler.SubmitContact)
			g.POST("/newsletter", pageHandler.SubscribeNewsletter)
			g.GET("/faq", pageHandler.FAQ)
			g.GET("/portfolio", pageHandler.Portfolio)
			g.GET("/portfolio/:slug", pageHandler.Project)
			g.GET("/services", pageHandler.Services)
			g.GET("/services/:slug", pageHandler.Service)
			g.GET("/terms", pageHandler.Terms)
		}
	}

	// Assets
	r.StaticFS("/static", web.Static())
	r.GET("/images/*file", siteImage)

	// JSON API
	apiGroup := r.Group("/api")
	{
		apiGroup.GET("/health", health(d))
		apiGroup.GET("/projects", contentHandler.Projects)
		apiGroup.GET("/services", contentHandler.Services)
		apiGroup.GET("/contact-info", contentHandler.ContactInfo)
		apiGroup.POST("/contact", contentHandler.SubmitContact)
		apiGroup.POST("/newsletter", contentHandler.SubscribeNewsletter)
		apiGroup.Any("/image-proxy", d.ImageProxy.Handle)

		if d.Submissions != nil {
			submissionHandler := NewSubmissionHandler(d.Submissions, d.Logger)
			admin := apiGroup.Group("/submissions", d.Webhook.RequireToken())
			{
				admin.GET("", submissionHandler.GetSubmissions)
				admin.GET("/stats", submissionHandler.GetStats)
				admin.GET("/export", submissionHandler.ExportSubmissions)
			}
		}
	}

	// Live revalidation
	r.GET("/ws", gin.WrapF(d.Hub.ServeWs))
	r.GET("/webhook/content", d.Webhook.VerifyWebhook)
	r.POST("/webhook/content", d.Webhook.RequireToken(), d.Webhook.HandleContentEvent)

	return r
}

// siteImage serves bundled site images. Images the site references but does
// not ship, such as gallery fillers, get the placeholder.
func siteImage(c *gin.Context) {
	name := path.Clean("/" + c.Param("file"))
	if f, err := web.Static().Open("/images" + name); err == nil {
		f.Close()
		c.FileFromFS("/images"+name, web.Static())
		return
	}
	data, contentType := web.PlaceholderImage()
	c.Header("Cache-Control", "public, max-age=86400")
	c.Data(http.StatusOK, contentType, data)
}

func health(d Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":      "ok",
			"ws_clients":  d.Hub.ClientCount(),
			"images":      d.ImageProxy.Len(),
			"submissions": d.Submissions != nil,
		})
	}
}
