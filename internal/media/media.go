// Package media turns WordPress upload URLs into asset descriptors.
package media

import (
	"errors"
	"fmt"
	"path"
	"regexp"
	"strings"
)

// Kind groups media fields by the entry field their assets are linked from.
type Kind string

const (
	KindImage       Kind = "images"
	KindMarkedImage Kind = "markedImages"
	KindVideo       Kind = "videos"
)

// Kinds lists every kind in the order fields are resolved.
var Kinds = []Kind{KindImage, KindMarkedImage, KindVideo}

var fieldsByKind = map[Kind][]string{
	KindImage: {
		"question_ecg_image",
		"question_ecg_image_2",
		"question_ecg_image_3",
		"question_ecg_image_4",
		"question_ecg_image_5",
	},
	KindMarkedImage: {
		"question_ecg_image_marked",
		"question_ecg_image_marked_2",
		"question_ecg_image_marked_3",
		"question_ecg_image_marked_4",
		"question_ecg_image_marked_5",
	},
	KindVideo: {
		"question_ecg_video",
		"question_ecg_video_2",
		"question_ecg_video_3",
		"question_ecg_video_4",
		"question_ecg_video_5",
		"question_ecg_video_6",
	},
}

// Fields returns the source field names for a kind, in resolution order.
func Fields(k Kind) []string {
	return fieldsByKind[k]
}

// IsField reports whether name is one of the optional media fields.
func IsField(name string) bool {
	for _, k := range Kinds {
		for _, f := range fieldsByKind[k] {
			if f == name {
				return true
			}
		}
	}
	return false
}

// Reference describes one media file to be uploaded as an asset.
type Reference struct {
	Kind        Kind   `json:"kind"`
	Field       string `json:"field"`
	ContentType string `json:"content_type"`
	FileName    string `json:"file_name"`
	URL         string `json:"url"`
}

// ErrUnparseable is returned for values that are not WordPress upload URLs.
var ErrUnparseable = errors.New("not an /uploads/<name>.<ext> reference")

var uploadsRe = regexp.MustCompile(`/uploads/(.+?)\.([A-Za-z0-9]+)$`)

// Parse derives a Reference from a media field value.
func Parse(raw string) (Reference, error) {
	m := uploadsRe.FindStringSubmatch(strings.TrimSpace(raw))
	if m == nil {
		return Reference{}, fmt.Errorf("%w: %q", ErrUnparseable, raw)
	}

	ext := strings.ToLower(m[2])
	contentType := "image/" + ext
	if ext == "mp4" {
		contentType = "video/mp4"
	}

	return Reference{
		ContentType: contentType,
		FileName:    path.Base(m[1]),
		URL:         strings.TrimSpace(raw),
	}, nil
}
