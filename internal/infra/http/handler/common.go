package handler

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

const (
	schemeHTTP  = "http"
	schemeHTTPS = "https"
)

// PaginationLinks contains HATEOAS-style pagination links.
type PaginationLinks struct {
	Self  string `json:"self"`
	First string `json:"first,omitempty"`
	Prev  string `json:"prev,omitempty"`
	Next  string `json:"next,omitempty"`
	Last  string `json:"last,omitempty"`
}

// ListResponse represents a paginated list response, shared by all
// list endpoints.
type ListResponse[T any] struct {
	Data       []T              `json:"data"`
	Total      int64            `json:"total"`
	Page       int              `json:"page"`
	PerPage    int              `json:"per_page"`
	TotalPages int              `json:"total_pages"`
	Links      *PaginationLinks `json:"links,omitempty"`
}

// NewPaginationLinks creates pagination links based on the current
// request, preserving existing query parameters.
func NewPaginationLinks(r *http.Request, page, perPage, totalPages int) *PaginationLinks {
	if totalPages == 0 {
		return nil
	}

	baseURL := buildBaseURL(r)
	query := r.URL.Query()

	links := &PaginationLinks{
		Self:  buildPageURL(baseURL, query, page, perPage),
		First: buildPageURL(baseURL, query, 1, perPage),
	}

	if page > 1 {
		links.Prev = buildPageURL(baseURL, query, page-1, perPage)
	}

	if page < totalPages {
		links.Next = buildPageURL(baseURL, query, page+1, perPage)
	}

	if totalPages > 1 {
		links.Last = buildPageURL(baseURL, query, totalPages, perPage)
	}

	return links
}

func buildBaseURL(r *http.Request) string {
	scheme := schemeHTTPS
	if r.TLS == nil {
		if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
			scheme = proto
		} else {
			scheme = schemeHTTP
		}
	}

	host := r.Host
	if fwdHost := r.Header.Get("X-Forwarded-Host"); fwdHost != "" {
		host = fwdHost
	}

	return fmt.Sprintf("%s://%s%s", scheme, host, r.URL.Path)
}

func buildPageURL(baseURL string, query url.Values, page, perPage int) string {
	params := make(url.Values)
	for k, v := range query {
		params[k] = v
	}

	params.Set("page", strconv.Itoa(page))
	params.Set("per_page", strconv.Itoa(perPage))

	return baseURL + "?" + params.Encode()
}

// parseQueryInt parses a query parameter as an integer.
// Returns defaultVal if the input is empty or invalid.
func parseQueryInt(s string, defaultVal int) int {
	if s == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(s)
	if err != nil {
		return defaultVal
	}
	return val
}

// parseQueryBoolPtr parses a query parameter as a boolean pointer.
// Returns nil if the input is empty. "true" and "1" are true,
// anything else false.
func parseQueryBoolPtr(s string) *bool {
	if s == "" {
		return nil
	}
	val := s == "true" || s == "1"
	return &val
}
