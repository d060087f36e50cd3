// Package contentfultest provides an in-memory Content Management API for
// tests.
package contentfultest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"

	"github.com/openjobspec/wp2ctf/internal/contentful"
)

// Server is a fake CMA serving a single space environment.
type Server struct {
	*httptest.Server

	Space       string
	Environment string
	Token       string
	Locale      string

	mu           sync.Mutex
	seq          int
	assets       map[string]*asset
	entries      map[string]*contentful.Entry
	entryOrder   []string
	contentTypes map[string]*contentful.ContentType
	requests     []string

	// FailAssetFile makes asset creation fail for these file names.
	FailAssetFile map[string]bool
	// FailEntry makes entry creation fail when the wordpressId field matches.
	FailEntry map[int]bool
	// ProcessingPolls is the number of GETs an asset stays unprocessed for.
	ProcessingPolls int
}

type asset struct {
	contentful.Asset
	processing  bool
	pollsLeft   int
	published   bool
	contentType string
}

// NewServer starts a fake CMA. Close it when done.
func NewServer() *Server {
	s := &Server{
		Space:        "space1",
		Environment:  "master",
		Token:        "cma-token",
		Locale:       "en-US",
		assets:       make(map[string]*asset),
		entries:      make(map[string]*contentful.Entry),
		contentTypes: make(map[string]*contentful.ContentType),
	}

	base := "/spaces/{space}/environments/{env}"
	mux := http.NewServeMux()
	mux.HandleFunc("GET "+base, s.getEnvironment)
	mux.HandleFunc("POST "+base+"/assets", s.createAsset)
	mux.HandleFunc("GET "+base+"/assets/{id}", s.getAsset)
	mux.HandleFunc("PUT "+base+"/assets/{id}/files/{locale}/process", s.processAsset)
	mux.HandleFunc("PUT "+base+"/assets/{id}/published", s.publishAsset)
	mux.HandleFunc("POST "+base+"/entries", s.createEntry)
	mux.HandleFunc("PUT "+base+"/entries/{id}/published", s.publishEntry)
	mux.HandleFunc("GET "+base+"/content_types/{id}", s.getContentType)
	mux.HandleFunc("PUT "+base+"/content_types/{id}", s.createContentType)
	mux.HandleFunc("DELETE "+base+"/content_types/{id}", s.deleteContentType)
	mux.HandleFunc("PUT "+base+"/content_types/{id}/published", s.publishContentType)
	mux.HandleFunc("DELETE "+base+"/content_types/{id}/published", s.unpublishContentType)

	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.requests = append(s.requests, r.Method+" "+strings.TrimPrefix(r.URL.Path, fmt.Sprintf("/spaces/%s/environments/%s", s.Space, s.Environment)))
		s.mu.Unlock()

		if r.Header.Get("Authorization") != "Bearer "+s.Token {
			writeError(w, http.StatusUnauthorized, "AccessTokenInvalid", "The access token you sent could not be found or is invalid.")
			return
		}
		mux.ServeHTTP(w, r)
	}))
	return s
}

// Options returns client options pointing at this server.
func (s *Server) Options() contentful.Options {
	return contentful.Options{
		BaseURL:      s.URL,
		Token:        s.Token,
		SpaceID:      s.Space,
		Environment:  s.Environment,
		Locale:       s.Locale,
		PollInterval: 1,
	}
}

// Requests returns "METHOD /path" for every request received, with the
// space environment prefix removed.
func (s *Server) Requests() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.requests...)
}

// PublishedEntries returns published entries in creation order.
func (s *Server) PublishedEntries() []contentful.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []contentful.Entry
	for _, id := range s.entryOrder {
		if e := s.entries[id]; e.Sys.PublishedVersion > 0 {
			out = append(out, *e)
		}
	}
	return out
}

// EntryCount returns the number of entries created.
func (s *Server) EntryCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// AssetCount returns the number of assets created.
func (s *Server) AssetCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.assets)
}

// AssetContentType returns the content type an asset was created with.
func (s *Server) AssetContentType(id string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a, ok := s.assets[id]; ok {
		return a.contentType
	}
	return ""
}

// AssetPublished reports whether the asset was published.
func (s *Server) AssetPublished(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.assets[id]
	return ok && a.published
}

// PutContentType seeds a content type.
func (s *Server) PutContentType(ct contentful.ContentType) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ct.Sys.Version == 0 {
		ct.Sys.Version = 1
	}
	s.contentTypes[ct.Sys.ID] = &ct
}

// ContentType returns a stored content type.
func (s *Server) ContentType(id string) (contentful.ContentType, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ct, ok := s.contentTypes[id]
	if !ok {
		return contentful.ContentType{}, false
	}
	return *ct, true
}

func (s *Server) nextID(prefix string) string {
	s.seq++
	return prefix + strconv.Itoa(s.seq)
}

func (s *Server) checkEnv(w http.ResponseWriter, r *http.Request) bool {
	if r.PathValue("space") != s.Space || r.PathValue("env") != s.Environment {
		writeError(w, http.StatusNotFound, "NotFound", "The resource could not be found.")
		return false
	}
	return true
}

func checkVersion(w http.ResponseWriter, r *http.Request, current int) bool {
	if r.Header.Get("X-Contentful-Version") != strconv.Itoa(current) {
		writeError(w, http.StatusConflict, "VersionMismatch", "Version mismatch error.")
		return false
	}
	return true
}

func (s *Server) getEnvironment(w http.ResponseWriter, r *http.Request) {
	if !s.checkEnv(w, r) {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"sys": map[string]any{"id": s.Environment, "type": "Environment"}})
}

func (s *Server) createAsset(w http.ResponseWriter, r *http.Request) {
	if !s.checkEnv(w, r) {
		return
	}
	var body contentful.Asset
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "BadRequest", err.Error())
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var file contentful.AssetFile
	for _, f := range body.Fields.File {
		file = f
	}
	if file.FileName == "" || file.ContentType == "" || file.Upload == "" {
		writeError(w, http.StatusUnprocessableEntity, "ValidationFailed", "file is incomplete")
		return
	}
	if s.FailAssetFile[file.FileName] {
		writeError(w, http.StatusUnprocessableEntity, "ValidationFailed", "upload rejected")
		return
	}

	a := &asset{contentType: file.ContentType}
	a.Sys = contentful.Sys{ID: s.nextID("asset-"), Type: "Asset", Version: 1}
	a.Fields = body.Fields
	s.assets[a.Sys.ID] = a
	writeJSON(w, http.StatusCreated, a.Asset)
}

func (s *Server) getAsset(w http.ResponseWriter, r *http.Request) {
	if !s.checkEnv(w, r) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.assets[r.PathValue("id")]
	if !ok {
		writeError(w, http.StatusNotFound, "NotFound", "The resource could not be found.")
		return
	}
	if a.processing {
		if a.pollsLeft > 0 {
			a.pollsLeft--
		} else {
			a.processing = false
			a.Sys.Version++
			for locale, f := range a.Fields.File {
				f.URL = "//assets.ctfassets.net/" + a.Sys.ID + "/" + f.FileName
				f.Upload = ""
				a.Fields.File[locale] = f
			}
		}
	}
	writeJSON(w, http.StatusOK, a.Asset)
}

func (s *Server) processAsset(w http.ResponseWriter, r *http.Request) {
	if !s.checkEnv(w, r) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.assets[r.PathValue("id")]
	if !ok {
		writeError(w, http.StatusNotFound, "NotFound", "The resource could not be found.")
		return
	}
	if !checkVersion(w, r, a.Sys.Version) {
		return
	}
	a.processing = true
	a.pollsLeft = s.ProcessingPolls
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) publishAsset(w http.ResponseWriter, r *http.Request) {
	if !s.checkEnv(w, r) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.assets[r.PathValue("id")]
	if !ok {
		writeError(w, http.StatusNotFound, "NotFound", "The resource could not be found.")
		return
	}
	if a.processing {
		writeError(w, http.StatusUnprocessableEntity, "ValidationFailed", "asset file not processed")
		return
	}
	if !checkVersion(w, r, a.Sys.Version) {
		return
	}
	a.published = true
	a.Sys.PublishedVersion = a.Sys.Version
	a.Sys.Version++
	writeJSON(w, http.StatusOK, a.Asset)
}

func (s *Server) createEntry(w http.ResponseWriter, r *http.Request) {
	if !s.checkEnv(w, r) {
		return
	}
	contentType := r.Header.Get("X-Contentful-Content-Type")
	if contentType == "" {
		writeError(w, http.StatusUnprocessableEntity, "ValidationFailed", "missing content type")
		return
	}
	var body contentful.Entry
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "BadRequest", err.Error())
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if v, ok := body.Fields.Get("wordpressId", s.Locale); ok {
		if n, ok := v.(float64); ok && s.FailEntry[int(n)] {
			writeError(w, http.StatusUnprocessableEntity, "ValidationFailed", "entry rejected")
			return
		}
	}

	e := &contentful.Entry{
		Sys:    contentful.Sys{ID: s.nextID("entry-"), Type: "Entry", Version: 1},
		Fields: body.Fields,
	}
	s.entries[e.Sys.ID] = e
	s.entryOrder = append(s.entryOrder, e.Sys.ID)
	writeJSON(w, http.StatusCreated, e)
}

func (s *Server) publishEntry(w http.ResponseWriter, r *http.Request) {
	if !s.checkEnv(w, r) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[r.PathValue("id")]
	if !ok {
		writeError(w, http.StatusNotFound, "NotFound", "The resource could not be found.")
		return
	}
	if !checkVersion(w, r, e.Sys.Version) {
		return
	}
	e.Sys.PublishedVersion = e.Sys.Version
	e.Sys.Version++
	writeJSON(w, http.StatusOK, e)
}

func (s *Server) getContentType(w http.ResponseWriter, r *http.Request) {
	if !s.checkEnv(w, r) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	ct, ok := s.contentTypes[r.PathValue("id")]
	if !ok {
		writeError(w, http.StatusNotFound, "NotFound", "The resource could not be found.")
		return
	}
	writeJSON(w, http.StatusOK, ct)
}

func (s *Server) createContentType(w http.ResponseWriter, r *http.Request) {
	if !s.checkEnv(w, r) {
		return
	}
	var body contentful.ContentType
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "BadRequest", err.Error())
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id := r.PathValue("id")
	if _, exists := s.contentTypes[id]; exists {
		writeError(w, http.StatusConflict, "VersionMismatch", "content type already exists")
		return
	}
	ct := &contentful.ContentType{
		Sys:    contentful.Sys{ID: id, Type: "ContentType", Version: 1},
		Name:   body.Name,
		Fields: body.Fields,
	}
	s.contentTypes[id] = ct
	writeJSON(w, http.StatusCreated, ct)
}

func (s *Server) deleteContentType(w http.ResponseWriter, r *http.Request) {
	if !s.checkEnv(w, r) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	id := r.PathValue("id")
	ct, ok := s.contentTypes[id]
	if !ok {
		writeError(w, http.StatusNotFound, "NotFound", "The resource could not be found.")
		return
	}
	if ct.Published() {
		writeError(w, http.StatusBadRequest, "BadRequest", "cannot delete a published content type")
		return
	}
	if !checkVersion(w, r, ct.Sys.Version) {
		return
	}
	delete(s.contentTypes, id)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) publishContentType(w http.ResponseWriter, r *http.Request) {
	if !s.checkEnv(w, r) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	ct, ok := s.contentTypes[r.PathValue("id")]
	if !ok {
		writeError(w, http.StatusNotFound, "NotFound", "The resource could not be found.")
		return
	}
	if !checkVersion(w, r, ct.Sys.Version) {
		return
	}
	ct.Sys.PublishedVersion = ct.Sys.Version
	ct.Sys.PublishedCounter++
	ct.Sys.Version++
	writeJSON(w, http.StatusOK, ct)
}

func (s *Server) unpublishContentType(w http.ResponseWriter, r *http.Request) {
	if !s.checkEnv(w, r) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	ct, ok := s.contentTypes[r.PathValue("id")]
	if !ok {
		writeError(w, http.StatusNotFound, "NotFound", "The resource could not be found.")
		return
	}
	if !checkVersion(w, r, ct.Sys.Version) {
		return
	}
	ct.Sys.PublishedVersion = 0
	ct.Sys.PublishedCounter = 0
	ct.Sys.Version++
	writeJSON(w, http.StatusOK, ct)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/vnd.contentful.management.v1+json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, id, message string) {
	writeJSON(w, status, map[string]any{
		"sys":       map[string]string{"type": "Error", "id": id},
		"message":   message,
		"requestId": "req-test",
	})
}
