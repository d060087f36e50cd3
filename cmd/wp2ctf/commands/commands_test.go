package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/openjobspec/wp2ctf/internal/cache"
	"github.com/openjobspec/wp2ctf/internal/config"
	"github.com/openjobspec/wp2ctf/internal/contentful"
	"github.com/openjobspec/wp2ctf/internal/contentful/contentfultest"
	"github.com/openjobspec/wp2ctf/internal/output"
	"github.com/openjobspec/wp2ctf/internal/store"
)

func init() {
	output.Format = "json"
}

// newWordPressServer serves `total` questions of every type from the
// migration endpoint quiz/v1/.
func newWordPressServer(t *testing.T, total int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/wp-json/" {
			json.NewEncoder(w).Encode(map[string]string{"name": "Quiz"})
			return
		}
		if r.URL.Path != "/wp-json/quiz/v1/questions" {
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(map[string]string{"code": "rest_no_route", "message": "No route"})
			return
		}
		q := r.URL.Query()
		page, _ := strconv.Atoi(q.Get("page"))
		perPage, _ := strconv.Atoi(q.Get("per_page"))
		typ := q.Get("question_type")

		questions := []map[string]any{}
		for i := (page-1)*perPage + 1; i <= page*perPage && i <= total; i++ {
			questions = append(questions, map[string]any{
				"id":                 i,
				"question_title":     typ + " " + strconv.Itoa(i),
				"question_type":      typ,
				"explanation":        "",
				"question_ecg_image": false,
			})
		}
		json.NewEncoder(w).Encode(map[string]any{"questions": questions})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testConfig(t *testing.T, wp *httptest.Server, ctf *contentfultest.Server) *config.Config {
	t.Helper()
	vars := map[string]string{
		"WP_QUESTION_TYPES":     "ecg,echo",
		"WP_MIGRATION_ENDPOINT": "quiz/v1/",
		"MIGRATE_DATA_DIR":      t.TempDir(),
		"MIGRATE_PACE_INTERVAL": "0s",
	}
	if wp != nil {
		vars["WP_SCHEME"] = "http"
		vars["WP_HOST"] = strings.TrimPrefix(wp.URL, "http://")
	}
	if ctf != nil {
		vars["CTF_BASE_URL"] = ctf.URL
		vars["CTF_TOKEN"] = ctf.Token
		vars["CTF_SPACE_ID"] = ctf.Space
		vars["CTF_ENV"] = ctf.Environment
	}
	cfg, err := config.LoadFrom(vars)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	return cfg
}

func captureStdout(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	old := output.Stdout
	output.Stdout = &buf
	t.Cleanup(func() { output.Stdout = old })
	return &buf
}

func TestMigrate_DefaultsToWordPressSample(t *testing.T) {
	out := captureStdout(t)
	cfg := testConfig(t, newWordPressServer(t, 12), nil)

	if err := Migrate(context.Background(), cfg, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	records, err := store.New(cfg.DataDir).ReadRecords("sample", "ecg")
	if err != nil {
		t.Fatalf("ReadRecords: %v", err)
	}
	if len(records) != 5 {
		t.Errorf("len(records) = %d, want 5", len(records))
	}

	var report map[string]any
	if err := json.Unmarshal(out.Bytes(), &report); err != nil {
		t.Fatalf("report is not JSON: %v\n%s", err, out.String())
	}
	if report["mode"] != "wordpress" || report["scope"] != "sample" {
		t.Errorf("report mode/scope = %v/%v", report["mode"], report["scope"])
	}
}

func TestMigrate_BothFull(t *testing.T) {
	captureStdout(t)
	ctf := contentfultest.NewServer()
	defer ctf.Close()
	cfg := testConfig(t, newWordPressServer(t, 30), ctf)

	if err := Migrate(context.Background(), cfg, []string{"both", "full"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n := ctf.EntryCount(); n != 60 {
		t.Errorf("EntryCount() = %d, want 60", n)
	}
}

func TestMigrate_PartialFailure(t *testing.T) {
	captureStdout(t)
	ctf := contentfultest.NewServer()
	defer ctf.Close()
	ctf.FailEntry = map[int]bool{2: true}
	cfg := testConfig(t, newWordPressServer(t, 3), ctf)

	err := Migrate(context.Background(), cfg, []string{"both", "test", "--sample-limit", "3"})
	if !errors.Is(err, ErrPartialFailure) {
		t.Fatalf("err = %v, want ErrPartialFailure", err)
	}

	ids, err := store.New(cfg.DataDir).ReadFailedIDs("sample", "ecg")
	if err != nil {
		t.Fatalf("ReadFailedIDs: %v", err)
	}
	if len(ids) != 1 || ids[0] != 2 {
		t.Errorf("failed ids = %v, want [2]", ids)
	}
	if n := ctf.EntryCount(); n != 4 {
		t.Errorf("EntryCount() = %d, want 4", n)
	}
}

func TestMigrate_WordPressDownIsFatal(t *testing.T) {
	forbidden := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{"code": "rest_forbidden", "message": "Sorry, you are not allowed to do that."})
	}))
	defer forbidden.Close()

	closed := httptest.NewServer(http.NotFoundHandler())
	closed.Close()

	tests := []struct {
		name string
		srv  *httptest.Server
		want string
	}{
		{"rejected credentials", forbidden, "rest_forbidden"},
		{"connection refused", closed, "check WordPress"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := captureStdout(t)
			ctf := contentfultest.NewServer()
			defer ctf.Close()
			cfg := testConfig(t, tt.srv, ctf)

			err := Migrate(context.Background(), cfg, []string{"both", "full"})
			if err == nil {
				t.Fatal("expected error")
			}
			if errors.Is(err, ErrPartialFailure) {
				t.Fatalf("err = %v, want a fatal error", err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("err = %v, want it to contain %q", err, tt.want)
			}
			if out.Len() != 0 {
				t.Errorf("unexpected report output: %s", out.String())
			}
			if n := ctf.EntryCount(); n != 0 {
				t.Errorf("EntryCount() = %d, want 0", n)
			}
		})
	}
}

func TestNewAssetCache_FallsBackToMemory(t *testing.T) {
	cfg := testConfig(t, nil, nil)
	c, closeCache := newAssetCache(context.Background(), cfg)
	defer closeCache()
	if _, ok := c.(*cache.Memory); !ok {
		t.Fatalf("newAssetCache() = %T, want *cache.Memory", c)
	}

	cfg.RedisURL = "not a url"
	c, closeCache = newAssetCache(context.Background(), cfg)
	defer closeCache()
	if _, ok := c.(*cache.Memory); !ok {
		t.Errorf("newAssetCache() with a bad redis url = %T, want *cache.Memory", c)
	}
}

func TestMigrate_MissingConfig(t *testing.T) {
	cfg := testConfig(t, nil, nil)

	for _, mode := range []string{"wordpress", "contentful", "both"} {
		err := Migrate(context.Background(), cfg, []string{mode})
		if !errors.Is(err, config.ErrMissing) {
			t.Errorf("%s: err = %v, want ErrMissing", mode, err)
		}
	}
}

func TestMigrate_UsageErrors(t *testing.T) {
	cfg := testConfig(t, nil, nil)
	cases := [][]string{
		{"ftp"},
		{"wordpress", "partial"},
		{"wordpress", "full", "extra"},
		{"--pace", "soon"},
	}
	for _, args := range cases {
		if err := Migrate(context.Background(), cfg, args); err == nil {
			t.Errorf("Migrate(%v): expected error", args)
		}
	}
}

func TestMigrate_TypesFlag(t *testing.T) {
	captureStdout(t)
	cfg := testConfig(t, newWordPressServer(t, 2), nil)

	if err := Migrate(context.Background(), cfg, []string{"wordpress", "--types", "cv_image"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	st := store.New(cfg.DataDir)
	if _, err := st.ReadRecords("sample", "cv_image"); err != nil {
		t.Errorf("cv_image not fetched: %v", err)
	}
	if _, err := os.Stat(st.RecordsPath("sample", "ecg")); !os.IsNotExist(err) {
		t.Errorf("ecg fetched despite --types")
	}
}

func TestFields(t *testing.T) {
	captureStdout(t)
	ctf := contentfultest.NewServer()
	defer ctf.Close()
	cfg := testConfig(t, nil, ctf)

	def := `{"groups":[{"id":"ecgRhythm","label":"ECG Rhythm","data":[{"id":"sinus","label":"Sinus"}]}]}`
	path := store.New(cfg.DataDir).FieldsPath("ecg") + ".json"
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(def), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := Fields(context.Background(), cfg, []string{"ecg"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ct, ok := ctf.ContentType("ecgRhythm")
	if !ok || !ct.Published() {
		t.Errorf("content type = %+v (found %v), want published", ct, ok)
	}
}

func TestFields_Errors(t *testing.T) {
	cfg := testConfig(t, nil, nil)

	if err := Fields(context.Background(), cfg, nil); err == nil {
		t.Error("expected error for missing question type")
	}
	if err := Fields(context.Background(), cfg, []string{"ecg"}); err == nil {
		t.Error("expected error for missing definition file")
	}

	long := strings.Repeat("x", 51)
	path := store.New(cfg.DataDir).FieldsPath("echo") + ".json"
	os.MkdirAll(filepath.Dir(path), 0o755)
	os.WriteFile(path, []byte(`{"groups":[{"id":"g","label":"G","data":[{"id":"`+long+`","label":"l"}]}]}`), 0o644)
	err := Fields(context.Background(), cfg, []string{"echo", "--dry-run"})
	if err == nil || !strings.Contains(err.Error(), "id too long") {
		t.Errorf("err = %v, want id too long", err)
	}
}

func TestFailed(t *testing.T) {
	out := captureStdout(t)
	cfg := testConfig(t, nil, nil)
	st := store.New(cfg.DataDir)
	if err := st.WriteFailedIDs("full", "ecg", []int{4, 9}); err != nil {
		t.Fatal(err)
	}

	if err := Failed(cfg, []string{"full"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var got map[string][]int
	if err := json.Unmarshal(out.Bytes(), &got); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out.String())
	}
	if len(got["ecg"]) != 2 || got["ecg"][1] != 9 {
		t.Errorf("failed = %v, want ecg: [4 9]", got)
	}
	if _, ok := got["echo"]; ok {
		t.Error("echo listed without an errors file")
	}
}

func TestDoctor(t *testing.T) {
	out := captureStdout(t)
	ctf := contentfultest.NewServer()
	defer ctf.Close()
	ctf.PutContentType(contentful.ContentType{Sys: contentful.Sys{ID: "question", PublishedVersion: 1}})
	cfg := testConfig(t, newWordPressServer(t, 0), ctf)
	cfg.WPScheme = "http"

	if err := Doctor(context.Background(), cfg, nil); err != nil {
		t.Fatalf("unexpected error: %v\n%s", err, out.String())
	}
	if !strings.Contains(out.String(), `"checks"`) {
		t.Errorf("output = %s", out.String())
	}

	if err := Doctor(context.Background(), testConfig(t, nil, nil), nil); err == nil {
		t.Error("expected failure without configuration")
	}
}
