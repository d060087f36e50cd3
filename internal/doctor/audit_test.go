package doctor

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/openjobspec/wp2ctf/internal/config"
	"github.com/openjobspec/wp2ctf/internal/contentful"
	"github.com/openjobspec/wp2ctf/internal/contentful/contentfultest"
	"github.com/openjobspec/wp2ctf/internal/wordpress"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.LoadFrom(map[string]string{
		"WP_HOST":          "wp.example.com",
		"WP_REST_API_USER": "admin",
		"WP_REST_API_PW":   "app-password",
		"CTF_TOKEN":        "cma-token",
		"CTF_SPACE_ID":     "space1",
		"MIGRATE_DATA_DIR": filepath.Join(t.TempDir(), "data"),
	})
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	return cfg
}

func find(t *testing.T, r *Report, id string) Check {
	t.Helper()
	for _, c := range r.Checks {
		if c.ID == id {
			return c
		}
	}
	t.Fatalf("check %s not found", id)
	return Check{}
}

func TestAuditHealthy(t *testing.T) {
	wp := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"name":"site"}`))
	}))
	defer wp.Close()

	ctf := contentfultest.NewServer()
	defer ctf.Close()
	ctf.PutContentType(contentful.ContentType{
		Sys:    contentful.Sys{ID: "question", PublishedVersion: 1},
		Fields: []contentful.ContentTypeField{{ID: "questionTitle"}},
	})

	cfg := testConfig(t)
	report := NewAuditor(cfg,
		wordpress.New(wordpress.Options{BaseURL: wp.URL + "/wp-json/"}),
		contentful.New(ctf.Options()),
		func(ctx context.Context) error { return nil },
	).Run(context.Background())

	if report.Failed() {
		t.Fatalf("healthy setup failed: %+v", report.Checks)
	}
	if len(report.Checks) != 10 {
		t.Errorf("expected 10 checks, got %d", len(report.Checks))
	}
	if report.Passed != 10 {
		t.Errorf("expected 10 passes, got %d: %+v", report.Passed, report.Checks)
	}
}

func TestAuditMissingConfig(t *testing.T) {
	cfg, _ := config.LoadFrom(map[string]string{"MIGRATE_DATA_DIR": t.TempDir()})
	report := NewAuditor(cfg, nil, nil, nil).Run(context.Background())

	if !report.Failed() {
		t.Fatal("expected critical checks")
	}
	if c := find(t, report, "CFG-001"); c.Severity != SevCritical {
		t.Errorf("CFG-001 severity = %s, want critical", c.Severity)
	}
	if c := find(t, report, "CFG-002"); c.Severity != SevCritical {
		t.Errorf("CFG-002 severity = %s, want critical", c.Severity)
	}
	for _, id := range []string{"NET-001", "NET-002", "CTF-001", "NET-003"} {
		if c := find(t, report, id); c.Severity != SevSkip {
			t.Errorf("%s severity = %s, want skip", id, c.Severity)
		}
	}
	if c := find(t, report, "SEC-002"); c.Severity != SevWarning {
		t.Errorf("SEC-002 severity = %s, want warning", c.Severity)
	}
}

func TestAuditUnreachable(t *testing.T) {
	wp := httptest.NewServer(http.NotFoundHandler())
	wp.Close()

	ctf := contentfultest.NewServer()
	defer ctf.Close()
	opts := ctf.Options()
	opts.Environment = "gone"

	cfg := testConfig(t)
	cfg.PaceInterval = 0
	report := NewAuditor(cfg,
		wordpress.New(wordpress.Options{BaseURL: wp.URL + "/wp-json/"}),
		contentful.New(opts),
		func(ctx context.Context) error { return errors.New("connection refused") },
	).Run(context.Background())

	if c := find(t, report, "NET-001"); c.Severity != SevCritical {
		t.Errorf("NET-001 severity = %s, want critical", c.Severity)
	}
	c := find(t, report, "NET-002")
	if c.Severity != SevCritical || c.Fix == "" {
		t.Errorf("NET-002 = %+v, want critical with fix", c)
	}
	if c := find(t, report, "CTF-001"); c.Severity != SevCritical {
		t.Errorf("CTF-001 severity = %s, want critical", c.Severity)
	}
	if c := find(t, report, "NET-003"); c.Severity != SevWarning {
		t.Errorf("NET-003 severity = %s, want warning", c.Severity)
	}
	if c := find(t, report, "OPS-001"); c.Severity != SevWarning {
		t.Errorf("OPS-001 severity = %s, want warning", c.Severity)
	}
}

func TestAuditUnpublishedContentType(t *testing.T) {
	ctf := contentfultest.NewServer()
	defer ctf.Close()
	ctf.PutContentType(contentful.ContentType{Sys: contentful.Sys{ID: "question"}})

	report := NewAuditor(testConfig(t), nil, contentful.New(ctf.Options()), nil).Run(context.Background())
	if c := find(t, report, "CTF-001"); c.Severity != SevWarning {
		t.Errorf("CTF-001 severity = %s, want warning", c.Severity)
	}
}
