package main

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Zachkp/devfolio/internal/analytics"
)

// consentCookie holds the visitor's analytics choice, "true" or "false".
// Nothing is tracked until it reads "true".
const consentCookie = "analytics_consent"

const consentMaxAge = 365 * 24 * 3600

// consent reports the stored choice: "granted", "denied" or "" when the
// visitor has not answered yet.
func consent(c *gin.Context) string {
	v, err := c.Cookie(consentCookie)
	switch {
	case err != nil:
		return ""
	case v == "true":
		return "granted"
	default:
		return "denied"
	}
}

// mayTrack reports whether events for this request may be recorded.
func (a *app) mayTrack(c *gin.Context) bool {
	if a.events == nil {
		return false
	}
	// Respect Do Not Track header
	if c.GetHeader("DNT") == "1" {
		return false
	}
	return consent(c) == "granted"
}

// trackRequest records ev when the visitor allows it.
func (a *app) trackRequest(c *gin.Context, ev analytics.Event) {
	if !a.mayTrack(c) {
		return
	}
	if ev.Visitor == "" {
		ev.Visitor = a.hasher.Hash(c.ClientIP())
	}
	a.track(ev)
}

// skillsLabel is the label every skills_view event carries.
const skillsLabel = "skills_section"

func (a *app) setupConsentRoutes(r *gin.Engine) {
	r.POST("/analytics/consent", func(c *gin.Context) {
		choice := "false"
		if c.PostForm("consent") == "true" {
			choice = "true"
		}
		c.SetCookie(consentCookie, choice, consentMaxAge, "/", "", false, true)
		state := "denied"
		if choice == "true" {
			state = "granted"
		}
		c.HTML(http.StatusOK, "consent-banner", state)
	})

	// Engagement pings from the page: project card clicks and the skills
	// section scrolling into view.
	r.POST("/analytics/event", func(c *gin.Context) {
		var ev analytics.Event
		switch analytics.Name(c.PostForm("event")) {
		case analytics.ProjectClick:
			label := c.PostForm("label")
			if !isProject(label) {
				c.String(http.StatusBadRequest, "unknown project")
				return
			}
			ev = analytics.Event{Name: analytics.ProjectClick, Category: "project_engagement", Label: label}
		case analytics.SkillsView:
			ev = analytics.Event{Name: analytics.SkillsView, Category: "content_engagement", Label: skillsLabel}
		default:
			c.String(http.StatusBadRequest, "unknown event")
			return
		}
		ev.Path = c.GetHeader("HX-Current-URL")
		a.trackRequest(c, ev)
		c.Status(http.StatusNoContent)
	})
}

func isProject(title string) bool {
	for _, p := range Projects {
		if p.Title == title {
			return true
		}
	}
	return false
}
