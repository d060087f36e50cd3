package wordpress

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/openjobspec/wp2ctf/internal/media"
)

// Question is one custom "question" post as returned by the migration
// endpoint. Media fields are kept as raw strings keyed by field name; any
// other field is preserved verbatim so hand-off files round-trip.
type Question struct {
	ID            int
	Title         string
	Type          string
	Explanation   string
	SecondaryText string
	Media         map[string]string
	Extra         map[string]json.RawMessage
}

var scalarKeys = map[string]bool{
	"id":             true,
	"question_title": true,
	"question_type":  true,
	"explanation":    true,
	"secondary_text": true,
}

// MediaValue returns the value of a media field, or "" if absent.
func (q *Question) MediaValue(field string) string {
	return q.Media[field]
}

func (q *Question) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*q = Question{}
	if v, ok := raw["id"]; ok {
		id, err := intValue(v)
		if err != nil {
			return fmt.Errorf("question id: %w", err)
		}
		q.ID = id
	}
	q.Title = stringValue(raw["question_title"])
	q.Type = stringValue(raw["question_type"])
	q.Explanation = stringValue(raw["explanation"])
	q.SecondaryText = stringValue(raw["secondary_text"])

	for key, v := range raw {
		switch {
		case scalarKeys[key]:
		case media.IsField(key):
			if s := stringValue(v); s != "" {
				if q.Media == nil {
					q.Media = make(map[string]string)
				}
				q.Media[key] = s
			}
		default:
			if q.Extra == nil {
				q.Extra = make(map[string]json.RawMessage)
			}
			q.Extra[key] = v
		}
	}
	return nil
}

func (q Question) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(q.Extra)+len(q.Media)+5)
	for k, v := range q.Extra {
		out[k] = v
	}
	for k, v := range q.Media {
		out[k] = v
	}
	out["id"] = q.ID
	out["question_title"] = q.Title
	out["question_type"] = q.Type
	out["explanation"] = q.Explanation
	if q.SecondaryText != "" {
		out["secondary_text"] = q.SecondaryText
	}
	return json.Marshal(out)
}

// stringValue flattens WordPress's loosely typed values. ACF returns false
// or 0 for empty fields, both of which read as absent.
func stringValue(v json.RawMessage) string {
	v = bytes.TrimSpace(v)
	if len(v) == 0 {
		return ""
	}
	switch v[0] {
	case '"':
		var s string
		if err := json.Unmarshal(v, &s); err != nil {
			return ""
		}
		return s
	case 't', 'f', 'n', '{', '[':
		return ""
	default:
		var n json.Number
		if err := json.Unmarshal(v, &n); err != nil || n.String() == "0" {
			return ""
		}
		return n.String()
	}
}

func intValue(v json.RawMessage) (int, error) {
	var n int
	if err := json.Unmarshal(v, &n); err == nil {
		return n, nil
	}
	var s string
	if err := json.Unmarshal(v, &s); err != nil {
		return 0, fmt.Errorf("not a number: %s", string(v))
	}
	return strconv.Atoi(s)
}
