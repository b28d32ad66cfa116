package httpx

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/tair/warehouse-erp/pkg/apperr"
	"github.com/tair/warehouse-erp/pkg/pagination"
)

// maxBodyBytes caps request bodies
const maxBodyBytes = 1 << 20

// Decode reads a JSON body into v
func Decode(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return apperr.InvalidField("body", "is required")
		}
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			return apperr.InvalidField(typeErr.Field, "has the wrong type")
		}
		return apperr.InvalidField("body", "is not valid JSON")
	}
	return nil
}

// PathUint parses a numeric path variable
func PathUint(r *http.Request, name string) (uint, error) {
	id, err := strconv.ParseUint(mux.Vars(r)[name], 10, 64)
	if err != nil || id == 0 {
		return 0, apperr.InvalidField(name, "must be a positive integer")
	}
	return uint(id), nil
}

// Query collects typed query parameters and remembers the first bad one
type Query struct {
	values url.Values
	fields map[string]string
}

// NewQuery reads the query string of r
func NewQuery(r *http.Request) *Query {
	return &Query{values: r.URL.Query(), fields: map[string]string{}}
}

// String returns the trimmed value of key
func (q *Query) String(key string) string {
	return strings.TrimSpace(q.values.Get(key))
}

// Int returns key as an int, 0 when absent
func (q *Query) Int(key string) int {
	s := q.String(key)
	if s == "" {
		return 0
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		q.fields[key] = "must be an integer"
	}
	return n
}

// Uint returns key as a uint, 0 when absent
func (q *Query) Uint(key string) uint {
	s := q.String(key)
	if s == "" {
		return 0
	}
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		q.fields[key] = "must be a positive integer"
	}
	return uint(n)
}

// UintPtr returns key as a *uint, nil when absent
func (q *Query) UintPtr(key string) *uint {
	if q.String(key) == "" {
		return nil
	}
	n := q.Uint(key)
	return &n
}

// Bool returns key as a *bool, nil when absent
func (q *Query) Bool(key string) *bool {
	s := q.String(key)
	if s == "" {
		return nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		q.fields[key] = "must be true or false"
		return nil
	}
	return &b
}

// Time parses key as RFC 3339 or a plain YYYY-MM-DD date (UTC)
func (q *Query) Time(key string) *time.Time {
	s := q.String(key)
	if s == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	q.fields[key] = "must be an RFC 3339 timestamp or YYYY-MM-DD"
	return nil
}

// Page reads page and limit
func (q *Query) Page() pagination.Params {
	return pagination.Params{Page: q.Int("page"), Limit: q.Int("limit")}
}

// Err reports the collected parse failures
func (q *Query) Err() error {
	if len(q.fields) == 0 {
		return nil
	}
	return apperr.Validation(q.fields)
}
