package entity

import (
	"net/url"
	"strconv"
)

// DefaultPageLimit is the page size used when the caller doesn't ask for one
const DefaultPageLimit = 10

// Paging is the pagination block of a Graph API list response
type Paging struct {
	Cursors  *Cursors `json:"cursors,omitempty"`
	Next     string   `json:"next,omitempty"`
	Previous string   `json:"previous,omitempty"`
}

// Cursors holds the opaque before/after tokens
type Cursors struct {
	Before string `json:"before,omitempty"`
	After  string `json:"after,omitempty"`
}

// Page is one page of posts
type Page struct {
	Data   []Post  `json:"data"`
	Paging *Paging `json:"paging,omitempty"`
}

// NextCursor returns the "after" token of the next page, or "" when the
// upstream reports no further page.
func (p Page) NextCursor() string {
	if p.Paging == nil || p.Paging.Next == "" {
		return ""
	}
	if u, err := url.Parse(p.Paging.Next); err == nil {
		if after := u.Query().Get("after"); after != "" {
			return after
		}
	}
	if p.Paging.Cursors != nil {
		return p.Paging.Cursors.After
	}
	return ""
}

// PageQuery selects a page of a list endpoint
type PageQuery struct {
	Fields []string
	Limit  int
	Before string
	After  string
	Since  string
	Until  string
}

// Params renders the query as Graph API parameters
func (q PageQuery) Params() url.Values {
	params := url.Values{}
	if len(q.Fields) > 0 {
		params.Set("fields", joinFields(q.Fields))
	}
	if q.Limit > 0 {
		params.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Before != "" {
		params.Set("before", q.Before)
	}
	if q.After != "" {
		params.Set("after", q.After)
	}
	if q.Since != "" {
		params.Set("since", q.Since)
	}
	if q.Until != "" {
		params.Set("until", q.Until)
	}
	return params
}

func joinFields(fields []string) string {
	out := fields[0]
	for _, f := range fields[1:] {
		out += "," + f
	}
	return out
}
