package middleware

import (
	"bytes"
	"encoding/json"
	"html"
	"io"
	"net/url"
	"regexp"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/microcosm-cc/bluemonday"
)

// MaxSanitizedLength is the longest string value that passes the sanitizer.
const MaxSanitizedLength = 10000

var (
	operatorValue = regexp.MustCompile(`^\$[A-Za-z]+$`)
	keyDisallowed = regexp.MustCompile(`[^A-Za-z0-9_]`)
)

// Sanitizer strips markup and query-operator tokens from request input.
type Sanitizer struct {
	policy *bluemonday.Policy
}

func NewSanitizer() *Sanitizer {
	return &Sanitizer{policy: bluemonday.StrictPolicy()}
}

// String blanks a value that is a bare query operator ("$ne") and removes
// every HTML tag from v, then truncates it. A dollar sign inside ordinary
// text such as "$500" is kept. Entities produced by the policy are decoded
// again so that plain text such as O'Brien survives; decoding repeats until
// the value is stable so an encoded tag cannot come back to life.
func (s *Sanitizer) String(v string) string {
	if operatorValue.MatchString(strings.TrimSpace(v)) {
		return ""
	}
	v = s.stripMarkup(v)
	if len(v) > MaxSanitizedLength {
		if r := []rune(v); len(r) > MaxSanitizedLength {
			v = string(r[:MaxSanitizedLength])
		}
	}
	return v
}

func (s *Sanitizer) stripMarkup(v string) string {
	for i := 0; i < 5; i++ {
		next := html.UnescapeString(s.policy.Sanitize(v))
		if next == v {
			return v
		}
		v = next
	}
	return s.policy.Sanitize(v)
}

// Key drops every character outside [A-Za-z0-9_].
func (s *Sanitizer) Key(k string) string {
	return keyDisallowed.ReplaceAllString(k, "")
}

// Value walks a decoded JSON value. Strings are cleaned, object keys are
// filtered and keys that end up empty are dropped; other values pass through.
// When several keys clean to the same name, a key that was already clean
// wins, and among rewritten keys the lexically smallest original wins.
func (s *Sanitizer) Value(v any) any {
	switch t := v.(type) {
	case string:
		return s.String(t)
	case map[string]any:
		out := make(map[string]any, len(t))
		from := make(map[string]string, len(t))
		for k, val := range t {
			key := s.Key(k)
			if key == "" {
				continue
			}
			if prev, seen := from[key]; seen && !keyPreferred(k, prev, key) {
				continue
			}
			from[key] = k
			out[key] = s.Value(val)
		}
		return out
	case []any:
		for i := range t {
			t[i] = s.Value(t[i])
		}
		return t
	default:
		return v
	}
}

// keyPreferred reports whether original key k should replace prev, both
// cleaning to clean.
func keyPreferred(k, prev, clean string) bool {
	if prev == clean {
		return false
	}
	if k == clean {
		return true
	}
	return k < prev
}

// Sanitize cleans the JSON body, the query string and the path parameters
// before they reach a handler. A body that is not valid JSON is left for the
// handler's binder to reject.
func Sanitize(s *Sanitizer) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()

			if req.Body != nil && strings.HasPrefix(req.Header.Get(echo.HeaderContentType), echo.MIMEApplicationJSON) {
				raw, err := io.ReadAll(req.Body)
				_ = req.Body.Close()
				if err != nil {
					return err
				}
				req.Body = io.NopCloser(bytes.NewReader(sanitizeJSON(s, raw)))
			}

			if req.URL.RawQuery != "" {
				clean := url.Values{}
				for k, vals := range req.URL.Query() {
					key := s.Key(k)
					if key == "" {
						continue
					}
					for _, v := range vals {
						clean.Add(key, s.String(v))
					}
				}
				req.URL.RawQuery = clean.Encode()
			}

			if vals := c.ParamValues(); len(vals) > 0 {
				cleaned := make([]string, len(vals))
				for i, v := range vals {
					cleaned[i] = s.String(v)
				}
				c.SetParamValues(cleaned...)
			}

			return next(c)
		}
	}
}

func sanitizeJSON(s *Sanitizer, raw []byte) []byte {
	if len(bytes.TrimSpace(raw)) == 0 {
		return raw
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return raw
	}
	out, err := json.Marshal(s.Value(v))
	if err != nil {
		return raw
	}
	return out
}
