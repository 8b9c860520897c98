package main

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Zachkp/devfolio/internal/contact"
)

const successMessage = "Thank you for your message! I'll get back to you soon."

// maxForms bounds the registry. Past it the instance closest to expiry goes.
const maxForms = 10000

// formRegistry keeps one pipeline per rendered contact form so a form that
// succeeded stays succeeded, and drops forms nobody has touched for ttl.
type formRegistry struct {
	ttl         time.Duration
	max         int
	newPipeline func(tracked bool) *contact.Pipeline
	now         func() time.Time

	mu    sync.Mutex
	forms map[string]*formEntry
}

type formEntry struct {
	pipeline *contact.Pipeline
	expires  time.Time
}

func newFormRegistry(ttl time.Duration, newPipeline func(tracked bool) *contact.Pipeline) *formRegistry {
	return &formRegistry{
		ttl:         ttl,
		max:         maxForms,
		newPipeline: newPipeline,
		now:         time.Now,
		forms:       make(map[string]*formEntry),
	}
}

// create registers a new form instance. tracked says whether its pipeline
// reports to analytics.
func (r *formRegistry) create(tracked bool) (string, *contact.Pipeline) {
	return r.getOrCreate("", tracked)
}

// lookup returns a live instance without creating one.
func (r *formRegistry) lookup(id string) (*contact.Pipeline, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.forms[id]
	if !ok {
		return nil, false
	}
	e.expires = r.now().Add(r.ttl)
	return e.pipeline, true
}

// getOrCreate returns the instance for id, refreshing its expiry. An unknown
// but well-formed id is re-created under the same id so an expired page keeps
// working; anything else gets a fresh id.
func (r *formRegistry) getOrCreate(id string, tracked bool) (string, *contact.Pipeline) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	if e, ok := r.forms[id]; ok {
		e.expires = now.Add(r.ttl)
		return id, e.pipeline
	}
	if _, err := uuid.Parse(id); err != nil {
		id = uuid.NewString()
	}
	if len(r.forms) >= r.max {
		r.evictLocked(now)
	}
	e := &formEntry{pipeline: r.newPipeline(tracked), expires: now.Add(r.ttl)}
	r.forms[id] = e
	return id, e.pipeline
}

// evictLocked makes room for one instance: expired ones first, otherwise the
// one closest to expiry.
func (r *formRegistry) evictLocked(now time.Time) {
	var oldest string
	var oldestAt time.Time
	for id, e := range r.forms {
		if now.After(e.expires) {
			delete(r.forms, id)
			continue
		}
		if oldest == "" || e.expires.Before(oldestAt) {
			oldest, oldestAt = id, e.expires
		}
	}
	if len(r.forms) >= r.max && oldest != "" {
		delete(r.forms, oldest)
	}
}

func (r *formRegistry) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.forms)
}

// sweep drops expired instances and reports how many went.
func (r *formRegistry) sweep() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	n := 0
	for id, e := range r.forms {
		if now.After(e.expires) {
			delete(r.forms, id)
			n++
		}
	}
	return n
}

func (r *formRegistry) run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			r.sweep()
		}
	}
}

// formField is one input as the contact template renders it.
type formField struct {
	Name     string
	Label    string
	Kind     string
	Value    string
	Error    string
	Required bool
	Options  []string
}

type contactPage struct {
	FormID      string
	Fields      []formField
	Summary     []*contact.FieldError
	RelayErrors []string
	Notice      string
	Submitting  bool
}

var fieldMeta = map[contact.Field]struct {
	label   string
	kind    string
	options []string
}{
	contact.Name:        {"Name", "text", nil},
	contact.Email:       {"Email", "email", nil},
	contact.Company:     {"Company", "text", nil},
	contact.ProjectType: {"Project type", "select", ProjectTypes},
	contact.Budget:      {"Budget", "select", Budgets},
	contact.Timeline:    {"Timeline", "select", Timelines},
	contact.Message:     {"Message", "textarea", nil},
}

func isRequired(f contact.Field) bool {
	for _, r := range contact.RequiredFields {
		if r == f {
			return true
		}
	}
	return false
}

func newFormField(f contact.Field, value string, ferr *contact.FieldError) formField {
	meta := fieldMeta[f]
	field := formField{
		Name:     string(f),
		Label:    meta.label,
		Kind:     meta.kind,
		Value:    value,
		Required: isRequired(f),
		Options:  meta.options,
	}
	if ferr != nil {
		field.Error = ferr.Message
	}
	return field
}

func newContactPage(id string, v contact.View) contactPage {
	page := contactPage{
		FormID:      id,
		RelayErrors: v.RelayErrors,
		Submitting:  v.State == contact.Submitting,
	}
	for _, fv := range v.Draft.Ordered() {
		page.Fields = append(page.Fields, newFormField(fv.Field, fv.Value, v.Errors[fv.Field]))
	}
	return page
}

func (a *app) setupContactRoutes(r *gin.Engine) {
	// HTMX contact form endpoint - returns just the form HTML
	r.GET("/contact-form", func(c *gin.Context) {
		id, p := a.forms.create(a.mayTrack(c))
		c.HTML(http.StatusOK, "contact.html", newContactPage(id, p.View()))
	})

	// Live validation of a single field as the visitor types.
	r.POST("/contact/validate", func(c *gin.Context) {
		name := c.PostForm("field")
		if !contact.IsField(name) {
			c.String(http.StatusBadRequest, "unknown field")
			return
		}
		f := contact.Field(name)
		// Live validation never creates a form; only a submit may revive one.
		p, ok := a.forms.lookup(c.PostForm("form_id"))
		if !ok {
			c.Status(http.StatusNoContent)
			return
		}
		if err := p.Change(f, c.PostForm(name)); err != nil {
			c.Status(http.StatusNoContent)
			return
		}
		v := p.View()
		c.HTML(http.StatusOK, "field-error", newFormField(f, v.Draft[f], v.Errors[f]))
	})

	// Handle contact form submission with HTMX
	r.POST("/contact", func(c *gin.Context) {
		id, p := a.forms.getOrCreate(c.PostForm("form_id"), a.mayTrack(c))
		draft := p.View().Draft
		for _, f := range contact.Fields {
			v := c.PostForm(string(f))
			if v == draft[f] {
				continue
			}
			if err := p.Change(f, v); errors.Is(err, contact.ErrAlreadySubmitted) {
				c.HTML(http.StatusOK, "contact-success.html", gin.H{"success": successMessage})
				return
			}
		}

		st, err := p.Submit(c.Request.Context())
		switch {
		case err == nil, errors.Is(err, contact.ErrAlreadySubmitted):
			c.HTML(http.StatusOK, "contact-success.html", gin.H{"success": successMessage})
			return
		case errors.Is(err, contact.ErrSubmitInFlight):
			page := newContactPage(id, p.View())
			page.Notice = "Your message is already on its way."
			c.HTML(http.StatusOK, "contact.html", page)
			return
		case errors.Is(err, contact.ErrInvalidDraft):
			v := p.View()
			page := newContactPage(id, v)
			page.Summary = v.Errors.Ordered()
			c.HTML(http.StatusOK, "contact.html", page)
			return
		}

		a.logger.Warn("contact submission failed", zap.String("form_id", id), zap.Error(err))
		page := newContactPage(id, p.View())
		page.RelayErrors = st.RelayErrors
		c.HTML(http.StatusOK, "contact.html", page)
	})

	// JSON API: one pipeline per request.
	r.POST("/api/contact", func(c *gin.Context) {
		var body map[string]string
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body"})
			return
		}
		p := a.newPipeline(a.mayTrack(c))
		for _, f := range contact.Fields {
			if v, ok := body[string(f)]; ok {
				// A pipeline that has never submitted accepts every edit.
				_ = p.Change(f, v)
			}
		}

		st, err := p.Submit(c.Request.Context())
		var verr contact.ValidationErrors
		switch {
		case err == nil:
			c.JSON(http.StatusOK, gin.H{"ok": true})
		case errors.As(err, &verr):
			fields := make(map[string]string, len(verr))
			for f, e := range verr {
				fields[string(f)] = e.Message
			}
			c.JSON(http.StatusUnprocessableEntity, gin.H{"ok": false, "errors": fields})
		default:
			a.logger.Warn("contact submission failed", zap.Error(err))
			c.JSON(http.StatusBadGateway, gin.H{"ok": false, "errors": st.RelayErrors})
		}
	})
}
