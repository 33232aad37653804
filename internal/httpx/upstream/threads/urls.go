package threads

import (
	"fmt"
	"net/url"
	"strings"
)

// ParamAccessToken is the query parameter carrying the bearer credential
const ParamAccessToken = "access_token"

// cursorParams are the only upstream paging parameters forwarded to clients
var cursorParams = []string{"limit", "before", "after"}

// BuildURL resolves path against base, encodes params and appends the
// access token when one is given. Params are encoded in key order so the
// same inputs always produce the same URL.
func BuildURL(base, path string, params url.Values, accessToken string) (string, error) {
	baseURL, err := url.Parse(ensureTrailingSlash(base))
	if err != nil {
		return "", fmt.Errorf("parsing base url: %w", err)
	}

	ref, err := url.Parse(path)
	if err != nil {
		return "", fmt.Errorf("parsing path: %w", err)
	}

	u := baseURL.ResolveReference(ref)

	query := url.Values{}
	for k, vs := range params {
		for _, v := range vs {
			query.Add(k, v)
		}
	}
	if accessToken != "" {
		query.Set(ParamAccessToken, accessToken)
	}
	u.RawQuery = query.Encode()

	return u.String(), nil
}

// namedRoots are Graph path roots that are not object ids
var namedRoots = map[string]bool{
	"me":             true,
	"oauth":          true,
	"oembed":         true,
	"keyword_search": true,
}

// EndpointTemplate replaces the object id of a Graph path with {id}, so
// "123/insights" and "456/insights" share one template.
func EndpointTemplate(path string) string {
	path = strings.Trim(path, "/")
	if path == "" {
		return "/"
	}

	root, rest, nested := strings.Cut(path, "/")
	if !namedRoots[root] {
		root = "{id}"
	}
	if !nested {
		return root
	}
	return root + "/" + rest
}

// CursorURL rewrites an upstream paging URL into a same-origin URL for the
// current request, carrying over only limit, before and after.
func CursorURL(current *url.URL, upstream string) (string, error) {
	upstreamURL, err := url.Parse(upstream)
	if err != nil {
		return "", fmt.Errorf("parsing paging url: %w", err)
	}

	out := url.URL{
		Scheme: current.Scheme,
		Host:   current.Host,
		Path:   current.Path,
	}

	src := upstreamURL.Query()
	query := url.Values{}
	for _, name := range cursorParams {
		if v := src.Get(name); v != "" {
			query.Set(name, v)
		}
	}
	out.RawQuery = query.Encode()

	return out.String(), nil
}

// RedactURL masks the access token of a URL that is about to be logged
func RedactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	query := u.Query()
	if query.Get(ParamAccessToken) == "" {
		return raw
	}
	query.Set(ParamAccessToken, "REDACTED")
	u.RawQuery = query.Encode()
	return u.String()
}

func ensureTrailingSlash(s string) string {
	if strings.HasSuffix(s, "/") {
		return s
	}
	return s + "/"
}
