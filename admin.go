// admin.go - privacy-conscious admin dashboard and visitor tracking
package main

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Zachkp/devfolio/internal/analytics"
)

const adminCookie = "admin_token"

func generateAdminToken() (string, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("generating admin token: %w", err)
	}
	return hex.EncodeToString(bytes), nil
}

func constantTimeEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// Middleware to check admin authentication
func (a *app) adminAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(adminCookie)
		if err != nil || !constantTimeEqual(token, a.adminToken) {
			c.Redirect(http.StatusFound, "/admin/login")
			c.Abort()
			return
		}
		c.Next()
	}
}

var untrackedPrefixes = []string{"/static/", "/images/", "/admin", "/analytics/", "/favicon", "/privacy", "/go/"}

// visitorTrackingMiddleware records one page view per full page load, keyed
// by a salted hash of the client IP.
func (a *app) visitorTrackingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if a.shouldTrack(c) {
			a.track(analytics.Event{
				Name:      analytics.PageView,
				Visitor:   a.hasher.Hash(c.ClientIP()),
				Path:      c.Request.URL.Path,
				UserAgent: c.Request.UserAgent(),
			})
		}
		c.Next()
	}
}

func (a *app) shouldTrack(c *gin.Context) bool {
	if c.Request.Method != http.MethodGet || !a.mayTrack(c) {
		return false
	}
	// HTMX fragments belong to a page view already counted.
	if c.GetHeader("HX-Request") == "true" {
		return false
	}
	path := c.Request.URL.Path
	for _, p := range untrackedPrefixes {
		if strings.HasPrefix(path, p) {
			return false
		}
	}
	return true
}

func (a *app) setupAdminRoutes(r *gin.Engine) {
	logger := a.logger.Named("admin")

	// Admin login page
	r.GET("/admin/login", func(c *gin.Context) {
		c.HTML(http.StatusOK, "admin-login.html", gin.H{"title": "Admin Login"})
	})

	r.POST("/admin/login", func(c *gin.Context) {
		userOK := constantTimeEqual(c.PostForm("username"), a.cfg.Admin.Username)
		passOK := constantTimeEqual(c.PostForm("password"), a.cfg.Admin.Password)
		visitor := a.hasher.Hash(c.ClientIP())
		if !userOK || !passOK {
			logger.Warn("failed admin login", zap.String("visitor", visitor))
			c.HTML(http.StatusUnauthorized, "admin-login.html", gin.H{"error": "Invalid credentials"})
			return
		}
		// Set secure cookie (24 hours)
		c.SetCookie(adminCookie, a.adminToken, 3600*24, "/admin", "", false, true)
		logger.Info("admin login", zap.String("visitor", visitor))
		c.Redirect(http.StatusFound, "/admin/dashboard")
	})

	r.GET("/admin/logout", func(c *gin.Context) {
		c.SetCookie(adminCookie, "", -1, "/admin", "", false, true)
		c.Redirect(http.StatusFound, "/admin/login")
	})

	// Protected admin routes group
	admin := r.Group("/admin")
	admin.Use(a.adminAuthMiddleware())

	admin.GET("/dashboard", func(c *gin.Context) {
		stats, err := a.stats(c)
		if err != nil {
			logger.Error("loading admin stats", zap.Error(err))
			c.HTML(http.StatusInternalServerError, "admin-error.html", gin.H{"error": "Failed to load statistics"})
			return
		}
		c.HTML(http.StatusOK, "admin-dashboard.html", gin.H{"stats": stats})
	})

	admin.GET("/api/stats", func(c *gin.Context) {
		stats, err := a.stats(c)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, stats)
	})

	// Admin statistics export (for backups or analysis)
	admin.GET("/export/stats", func(c *gin.Context) {
		stats, err := a.stats(c)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.Header("Content-Disposition", "attachment; filename=admin-stats.json")
		c.JSON(http.StatusOK, stats)
	})

	admin.POST("/privacy/cleanup", func(c *gin.Context) {
		if a.store == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": errAnalyticsDisabled.Error()})
			return
		}
		if err := cleanupOldEvents(c.Request.Context(), a.store, a.cfg.Analytics.Retention, logger); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.Redirect(http.StatusSeeOther, "/admin/dashboard")
	})
}

var errAnalyticsDisabled = errors.New("analytics is disabled")

func (a *app) stats(c *gin.Context) (*analytics.Stats, error) {
	if a.store == nil {
		return nil, errAnalyticsDisabled
	}
	return a.store.Stats(c.Request.Context(), a.now())
}
