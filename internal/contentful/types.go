package contentful

// Sys is the system metadata block shared by every CMA resource.
type Sys struct {
	ID               string `json:"id"`
	Type             string `json:"type,omitempty"`
	Version          int    `json:"version,omitempty"`
	PublishedVersion int    `json:"publishedVersion,omitempty"`
	PublishedCounter int    `json:"publishedCounter,omitempty"`
}

// Link points at another resource, e.g. an asset linked from an entry.
type Link struct {
	Sys LinkSys `json:"sys"`
}

type LinkSys struct {
	Type     string `json:"type"`
	LinkType string `json:"linkType"`
	ID       string `json:"id"`
}

// AssetLink returns a link to the asset with the given id.
func AssetLink(id string) Link {
	return Link{Sys: LinkSys{Type: "Link", LinkType: "Asset", ID: id}}
}

// Fields holds localized entry fields: field id -> locale -> value.
type Fields map[string]map[string]any

// Set stores value for field under locale.
func (f Fields) Set(field, locale string, value any) {
	f[field] = map[string]any{locale: value}
}

// Get returns the value of field under locale.
func (f Fields) Get(field, locale string) (any, bool) {
	v, ok := f[field][locale]
	return v, ok
}

// Entry is a CMA entry.
type Entry struct {
	Sys    Sys    `json:"sys"`
	Fields Fields `json:"fields"`
}

// AssetFile describes the binary behind an asset. Upload is the remote URL
// Contentful fetches during processing; URL is set once processing is done.
type AssetFile struct {
	ContentType string `json:"contentType"`
	FileName    string `json:"fileName"`
	Upload      string `json:"upload,omitempty"`
	URL         string `json:"url,omitempty"`
}

type AssetFields struct {
	Title map[string]string    `json:"title,omitempty"`
	File  map[string]AssetFile `json:"file"`
}

// Asset is a CMA asset.
type Asset struct {
	Sys    Sys         `json:"sys"`
	Fields AssetFields `json:"fields"`
}

// ContentTypeField is one field definition of a content type.
type ContentTypeField struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Type        string `json:"type"`
	Localized   bool   `json:"localized"`
	Required    bool   `json:"required"`
	Validations []any  `json:"validations"`
	Disabled    bool   `json:"disabled"`
	Omitted     bool   `json:"omitted"`
}

// ContentType is a CMA content type.
type ContentType struct {
	Sys    Sys                `json:"sys"`
	Name   string             `json:"name"`
	Fields []ContentTypeField `json:"fields"`
}

// Published reports whether the content type has ever been published.
func (ct *ContentType) Published() bool {
	return ct.Sys.PublishedCounter > 0 || ct.Sys.PublishedVersion > 0
}
