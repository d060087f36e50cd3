// Package doctor runs preflight checks before a migration: configuration,
// reachability of WordPress, Contentful and the asset cache, and a
// writable data directory.
package doctor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/openjobspec/wp2ctf/internal/config"
	"github.com/openjobspec/wp2ctf/internal/contentful"
)

// Severity classifies check results.
type Severity string

const (
	SevPass     Severity = "pass"
	SevWarning  Severity = "warning"
	SevCritical Severity = "critical"
	SevSkip     Severity = "skip"
)

// Check is the outcome of a single preflight check.
type Check struct {
	ID       string   `json:"id"`
	Category string   `json:"category"`
	Name     string   `json:"name"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
	Fix      string   `json:"fix,omitempty"`
}

// Report is the complete audit output.
type Report struct {
	Timestamp time.Time `json:"timestamp"`
	Checks    []Check   `json:"checks"`
	Passed    int       `json:"passed"`
	Warnings  int       `json:"warnings"`
	Critical  int       `json:"critical"`
}

// Failed reports whether any check is critical.
func (r *Report) Failed() bool {
	return r.Critical > 0
}

// WordPress is the source API as seen by the checks.
type WordPress interface {
	Ping(ctx context.Context) error
}

// Contentful is the destination API as seen by the checks.
type Contentful interface {
	GetEnvironment(ctx context.Context) error
	GetContentType(ctx context.Context, id string) (*contentful.ContentType, error)
}

// Auditor runs preflight checks. Checks against a nil client are reported as skipped.
type Auditor struct {
	cfg       *config.Config
	wp        WordPress
	ctf       Contentful
	redisPing func(ctx context.Context) error
}

// NewAuditor creates an auditor. redisPing may be nil when no cache is
// configured.
func NewAuditor(cfg *config.Config, wp WordPress, ctf Contentful, redisPing func(ctx context.Context) error) *Auditor {
	return &Auditor{cfg: cfg, wp: wp, ctf: ctf, redisPing: redisPing}
}

// Run executes all checks and returns a report.
func (a *Auditor) Run(ctx context.Context) *Report {
	report := &Report{Timestamp: time.Now()}

	checks := []func(context.Context) Check{
		a.checkWordPressConfig,
		a.checkTLS,
		a.checkWordPressAuth,
		a.checkWordPressReachable,
		a.checkContentfulConfig,
		a.checkContentfulEnvironment,
		a.checkContentType,
		a.checkRedis,
		a.checkDataDir,
		a.checkPacing,
	}

	for _, fn := range checks {
		check := fn(ctx)
		report.Checks = append(report.Checks, check)
		switch check.Severity {
		case SevPass:
			report.Passed++
		case SevWarning:
			report.Warnings++
		case SevCritical:
			report.Critical++
		}
	}
	return report
}

func (a *Auditor) checkWordPressConfig(ctx context.Context) Check {
	c := Check{ID: "CFG-001", Category: "config", Name: "WordPress Settings"}
	if err := a.cfg.ValidateWordPress(); err != nil {
		c.Severity = SevCritical
		c.Message = err.Error()
		c.Fix = "Set WP_HOST (and WP_MIGRATION_ENDPOINT) in the environment or .env"
		return c
	}
	c.Severity = SevPass
	c.Message = fmt.Sprintf("Source %s, types %v", a.cfg.WordPressBaseURL(), a.cfg.QuestionTypes)
	return c
}

func (a *Auditor) checkTLS(ctx context.Context) Check {
	c := Check{ID: "SEC-001", Category: "security", Name: "TLS/HTTPS"}
	if a.cfg.WPScheme == "https" {
		c.Severity = SevPass
		c.Message = "WordPress is reached over HTTPS"
	} else {
		c.Severity = SevWarning
		c.Message = fmt.Sprintf("WordPress is reached over %s", a.cfg.WPScheme)
		c.Fix = "Set WP_SCHEME=https unless migrating from a local site"
	}
	return c
}

func (a *Auditor) checkWordPressAuth(ctx context.Context) Check {
	c := Check{ID: "SEC-002", Category: "security", Name: "WordPress Credentials"}
	if a.cfg.WordPressAuth() {
		c.Severity = SevPass
		c.Message = "Basic auth credentials configured"
	} else {
		c.Severity = SevWarning
		c.Message = "No credentials; only publicly visible questions will be fetched"
		c.Fix = "Set WP_REST_API_USER and WP_REST_API_PW (an application password)"
	}
	return c
}

func (a *Auditor) checkWordPressReachable(ctx context.Context) Check {
	c := Check{ID: "NET-001", Category: "network", Name: "WordPress API"}
	if a.wp == nil {
		c.Severity = SevSkip
		c.Message = "WordPress is not configured"
		return c
	}
	start := time.Now()
	if err := a.wp.Ping(ctx); err != nil {
		c.Severity = SevCritical
		c.Message = fmt.Sprintf("Cannot reach WordPress: %v", err)
		return c
	}
	c.Severity = SevPass
	c.Message = fmt.Sprintf("Connected (latency: %dms)", time.Since(start).Milliseconds())
	return c
}

func (a *Auditor) checkContentfulConfig(ctx context.Context) Check {
	c := Check{ID: "CFG-002", Category: "config", Name: "Contentful Settings"}
	if err := a.cfg.ValidateContentful(); err != nil {
		c.Severity = SevCritical
		c.Message = err.Error()
		c.Fix = "Set CTF_TOKEN and CTF_SPACE_ID in the environment or .env"
		return c
	}
	c.Severity = SevPass
	c.Message = fmt.Sprintf("Space %s, environment %s, locale %s", a.cfg.CTFSpaceID, a.cfg.CTFEnv, a.cfg.CTFLocale)
	return c
}

func (a *Auditor) checkContentfulEnvironment(ctx context.Context) Check {
	c := Check{ID: "NET-002", Category: "network", Name: "Contentful Environment"}
	if a.ctf == nil {
		c.Severity = SevSkip
		c.Message = "Contentful is not configured"
		return c
	}
	if err := a.ctf.GetEnvironment(ctx); err != nil {
		c.Severity = SevCritical
		c.Message = fmt.Sprintf("Cannot access environment: %v", err)
		if contentful.IsNotFound(err) {
			c.Fix = "Check CTF_SPACE_ID and CTF_ENV"
		}
		return c
	}
	c.Severity = SevPass
	c.Message = "Environment accessible"
	return c
}

func (a *Auditor) checkContentType(ctx context.Context) Check {
	c := Check{ID: "CTF-001", Category: "contentful", Name: "Entry Content Type"}
	if a.ctf == nil {
		c.Severity = SevSkip
		c.Message = "Contentful is not configured"
		return c
	}
	ct, err := a.ctf.GetContentType(ctx, a.cfg.CTFContentType)
	switch {
	case contentful.IsNotFound(err):
		c.Severity = SevCritical
		c.Message = fmt.Sprintf("Content type %q does not exist", a.cfg.CTFContentType)
		c.Fix = "Create the content type or set CTF_CONTENT_TYPE"
	case err != nil:
		c.Severity = SevCritical
		c.Message = err.Error()
	case !ct.Published():
		c.Severity = SevWarning
		c.Message = fmt.Sprintf("Content type %q is not published", a.cfg.CTFContentType)
	default:
		c.Severity = SevPass
		c.Message = fmt.Sprintf("Content type %q has %d fields", a.cfg.CTFContentType, len(ct.Fields))
	}
	return c
}

func (a *Auditor) checkRedis(ctx context.Context) Check {
	c := Check{ID: "NET-003", Category: "network", Name: "Asset Cache"}
	if a.redisPing == nil {
		c.Severity = SevSkip
		c.Message = "MIGRATE_REDIS_URL not set; re-runs upload media again"
		return c
	}
	if err := a.redisPing(ctx); err != nil {
		c.Severity = SevWarning
		c.Message = fmt.Sprintf("Redis unreachable: %v", err)
		c.Fix = "Fix MIGRATE_REDIS_URL or unset it to run without the cache"
		return c
	}
	c.Severity = SevPass
	c.Message = "Redis reachable"
	return c
}

func (a *Auditor) checkDataDir(ctx context.Context) Check {
	c := Check{ID: "FS-001", Category: "filesystem", Name: "Data Directory"}
	if err := os.MkdirAll(a.cfg.DataDir, 0o755); err != nil {
		c.Severity = SevCritical
		c.Message = err.Error()
		return c
	}
	f, err := os.CreateTemp(a.cfg.DataDir, ".doctor-*")
	if err != nil {
		c.Severity = SevCritical
		c.Message = fmt.Sprintf("%s is not writable: %v", a.cfg.DataDir, err)
		return c
	}
	f.Close()
	os.Remove(f.Name())

	abs, _ := filepath.Abs(a.cfg.DataDir)
	c.Severity = SevPass
	c.Message = fmt.Sprintf("%s is writable", abs)
	return c
}

func (a *Auditor) checkPacing(ctx context.Context) Check {
	c := Check{ID: "OPS-001", Category: "operations", Name: "Request Pacing"}
	// The CMA allows 7 requests per second per space.
	if a.cfg.PaceInterval < 150*time.Millisecond {
		c.Severity = SevWarning
		c.Message = fmt.Sprintf("Pace interval %v may exceed the CMA rate limit", a.cfg.PaceInterval)
		c.Fix = "Set MIGRATE_PACE_INTERVAL to 500ms or more"
		return c
	}
	c.Severity = SevPass
	c.Message = fmt.Sprintf("%v between calls", a.cfg.PaceInterval)
	return c
}
