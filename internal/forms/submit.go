// Package forms validates and forwards the contact and newsletter forms, the
// only writes this site makes to the content API.
package forms

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"

	"archway-web/internal/content"
	"archway-web/internal/locale"
	"archway-web/internal/logger"
	"archway-web/internal/models"
	pkgmodels "archway-web/pkg/models"
)

type Status string

const (
	StatusSuccess     Status = "success"
	StatusError       Status = "error"
	StatusRateLimited Status = "rate_limited"
	StatusInvalid     Status = "invalid"
)

// Result is what the visitor sees after submitting a form.
type Result struct {
	Status     Status      `json:"status"`
	Message    string      `json:"message,omitempty"`
	Errors     FieldErrors `json:"errors,omitempty"`
	HTTPStatus int         `json:"-"`
}

func (r Result) OK() bool {
	return r.Status == StatusSuccess
}

// StatusCode is the HTTP status this site answers with for the result.
func (r Result) StatusCode() int {
	switch r.Status {
	case StatusSuccess:
		return http.StatusOK
	case StatusInvalid:
		return http.StatusUnprocessableEntity
	case StatusRateLimited:
		return http.StatusTooManyRequests
	}
	return http.StatusBadGateway
}

// NewsletterNotice rebuilds the footer notice after a redirect that carried
// only the status. Unknown statuses yield nil.
func NewsletterNotice(status string, catalog *locale.Catalog, l locale.Locale) *Result {
	keys := map[Status]string{
		StatusSuccess:     "footer.newsletter.success",
		StatusError:       "footer.newsletter.error",
		StatusRateLimited: "footer.newsletter.rate_limited",
		StatusInvalid:     "footer.newsletter.invalid_email",
	}
	key, ok := keys[Status(status)]
	if !ok {
		return nil
	}
	return &Result{Status: Status(status), Message: catalog.T(l, key)}
}

// Sender posts the forms to the content API.
type Sender interface {
	SubmitContact(ctx context.Context, req pkgmodels.ContactRequest) (int, error)
	SubscribeNewsletter(ctx context.Context, req pkgmodels.NewsletterRequest) (int, error)
}

// SubmissionStore records every attempt, valid or not.
type SubmissionStore interface {
	Record(ctx context.Context, s *models.Submission) error
}

type requestIDKey struct{}

// WithRequestID attaches the request id recorded alongside a submission.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

func requestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

type Submitter struct {
	sender   Sender
	store    SubmissionStore
	catalog  *locale.Catalog
	validate *validator.Validate
	lggr     logger.Logger
}

// NewSubmitter returns a Submitter. store may be nil to skip recording.
func NewSubmitter(sender Sender, store SubmissionStore, catalog *locale.Catalog, lggr logger.Logger) *Submitter {
	return &Submitter{
		sender:   sender,
		store:    store,
		catalog:  catalog,
		validate: NewValidator(),
		lggr:     lggr.Named("forms"),
	}
}

// ValidateContact returns the localized field errors of form, nil when valid.
func (s *Submitter) ValidateContact(form ContactForm, l locale.Locale) FieldErrors {
	form.trim()
	return fieldErrors(s.validate, form, contactMessages, s.catalog, l)
}

func (s *Submitter) ValidateNewsletter(form NewsletterForm, l locale.Locale) FieldErrors {
	form.trim()
	return fieldErrors(s.validate, form, newsletterMessages, s.catalog, l)
}

// SubmitContact validates form and, when valid, posts it once. Invalid forms
// never reach the API.
func (s *Submitter) SubmitContact(ctx context.Context, form ContactForm, l locale.Locale) Result {
	form.trim()
	sub := &models.Submission{
		Kind:    models.KindContact,
		Locale:  l.String(),
		Email:   form.Email,
		Name:    form.Name,
		Subject: form.Subject,
	}

	if errs := fieldErrors(s.validate, form, contactMessages, s.catalog, l); errs != nil {
		res := Result{Status: StatusInvalid, Errors: errs, HTTPStatus: http.StatusUnprocessableEntity}
		s.record(ctx, sub, res, nil)
		return res
	}

	status, err := s.sender.SubmitContact(ctx, pkgmodels.ContactRequest{
		Name:    form.Name,
		Email:   form.Email,
		Subject: form.Subject,
		Message: form.Message,
	})

	res := Result{HTTPStatus: status}
	switch {
	case err == nil && status >= 200 && status < 300:
		res.Status = StatusSuccess
		res.Message = s.catalog.T(l, "contact.success")
	case status == http.StatusTooManyRequests:
		res.Status = StatusRateLimited
		res.Message = s.catalog.T(l, "contact.rate_limited")
	default:
		res.Status = StatusError
		res.Message = s.catalog.T(l, "contact.error")
	}

	s.record(ctx, sub, res, err)
	return res
}

// SubscribeNewsletter validates and posts a newsletter signup. API rejections
// show the API's own detail message when it sent one.
func (s *Submitter) SubscribeNewsletter(ctx context.Context, form NewsletterForm, l locale.Locale) Result {
	form.trim()
	sub := &models.Submission{Kind: models.KindNewsletter, Locale: l.String(), Email: form.Email}

	if errs := fieldErrors(s.validate, form, newsletterMessages, s.catalog, l); errs != nil {
		res := Result{Status: StatusInvalid, Errors: errs, Message: errs["email"], HTTPStatus: http.StatusUnprocessableEntity}
		s.record(ctx, sub, res, nil)
		return res
	}

	status, err := s.sender.SubscribeNewsletter(ctx, pkgmodels.NewsletterRequest{Email: form.Email})

	res := Result{HTTPStatus: status}
	switch {
	case err == nil && status >= 200 && status < 300:
		res.Status = StatusSuccess
		res.Message = s.catalog.T(l, "footer.newsletter.success")
	case status == http.StatusTooManyRequests:
		res.Status = StatusRateLimited
		res.Message = s.catalog.T(l, "footer.newsletter.rate_limited")
	default:
		res.Status = StatusError
		res.Message = s.catalog.T(l, "footer.newsletter.error")
		var apiErr *content.APIError
		if errors.As(err, &apiErr) && apiErr.Detail != "" {
			res.Message = apiErr.Detail
		}
	}

	s.record(ctx, sub, res, err)
	return res
}

func (s *Submitter) record(ctx context.Context, sub *models.Submission, res Result, cause error) {
	sub.Status = string(res.Status)
	sub.HTTPStatus = res.HTTPStatus
	sub.RequestID = requestID(ctx)
	if cause != nil {
		sub.ErrorMessage = cause.Error()
		s.lggr.Warnw("Form submission failed", "kind", sub.Kind, "status", sub.Status, "http_status", sub.HTTPStatus, "err", cause)
	} else {
		s.lggr.Infow("Form submission", "kind", sub.Kind, "status", sub.Status, "locale", sub.Locale)
	}

	if s.store == nil {
		return
	}
	// Recording failures are logged only.
	if err := s.store.Record(context.WithoutCancel(ctx), sub); err != nil {
		s.lggr.Errorw("Failed to record submission", "kind", sub.Kind, "err", err)
	}
}
