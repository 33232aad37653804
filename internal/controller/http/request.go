package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/vadim/neo-threads/internal/domain/thread/entity"
	"github.com/vadim/neo-threads/internal/httpx/upstream/threads"
	"github.com/vadim/neo-threads/internal/session"
)

// MaxBodySize bounds JSON request bodies
const MaxBodySize = 1 << 20

var errInvalidBody = errors.New("invalid request body")

// PagedResponse is a page of posts with same-origin cursor links
type PagedResponse struct {
	Data   []entity.Post `json:"data"`
	Paging PagingLinks   `json:"paging"`
}

// PagingLinks point back at the current route with the upstream cursors
type PagingLinks struct {
	Next     string `json:"next,omitempty"`
	Previous string `json:"previous,omitempty"`
}

// credential returns the caller's credential set by session.RequireLogin
func credential(r *http.Request) session.Credential {
	c, _ := session.FromContext(r.Context())
	return c
}

// pageQuery reads limit, before, after, since and until from the query string
func pageQuery(r *http.Request) entity.PageQuery {
	q := r.URL.Query()
	query := entity.PageQuery{
		Before: q.Get("before"),
		After:  q.Get("after"),
		Since:  q.Get("since"),
		Until:  q.Get("until"),
	}
	if limit, err := strconv.Atoi(q.Get("limit")); err == nil && limit > 0 {
		query.Limit = limit
	}
	return query
}

func timeRange(r *http.Request) entity.TimeRange {
	q := r.URL.Query()
	return entity.TimeRange{Since: q.Get("since"), Until: q.Get("until")}
}

// paged wraps an upstream page, translating its paging URLs
func paged(r *http.Request, page entity.Page) PagedResponse {
	out := PagedResponse{Data: page.Data}
	if out.Data == nil {
		out.Data = []entity.Post{}
	}
	if page.Paging == nil {
		return out
	}
	current := requestURL(r)
	if page.Paging.Next != "" {
		out.Paging.Next, _ = threads.CursorURL(current, page.Paging.Next)
	}
	if page.Paging.Previous != "" {
		out.Paging.Previous, _ = threads.CursorURL(current, page.Paging.Previous)
	}
	return out
}

// requestURL is the absolute URL the client used to reach this server
func requestURL(r *http.Request) *url.URL {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = strings.ToLower(strings.TrimSpace(strings.Split(proto, ",")[0]))
	}

	return &url.URL{
		Scheme: scheme,
		Host:   r.Host,
		Path:   r.URL.Path,
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any, limit int64) error {
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errInvalidBody
	}
	return nil
}

// parseBool accepts the usual spellings and an empty value as false
func parseBool(s string) bool {
	b, _ := strconv.ParseBool(s)
	return b
}
