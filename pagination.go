package users

import (
	"fmt"

	"github.com/google/uuid"
)

// Link is a hypermedia navigation link attached to API responses.
type Link struct {
	Rel    string `json:"rel"`
	Href   string `json:"href"`
	Method string `json:"method"`
}

// UserLinks builds the navigational links for a single user record.
func UserLinks(base string, id uuid.UUID) []Link {
	href := fmt.Sprintf("%s/users/%s", base, id.String())
	return []Link{
		{Rel: "self", Href: href, Method: "GET"},
		{Rel: "update", Href: href, Method: "PUT"},
		{Rel: "delete", Href: href, Method: "DELETE"},
	}
}

// UserPage is one page of the user listing plus its navigation links.
type UserPage struct {
	Items []*User `json:"items"`
	Total int     `json:"total"`
	Page  int     `json:"page"`
	Size  int     `json:"size"`
	Links []Link  `json:"links"`
}

// NewUserPage assembles a page. Page numbers are 1-based; skip/limit carry
// through into the navigation links so clients can walk the collection
// without computing offsets themselves.
func NewUserPage(base string, items []*User, total, skip, limit int) UserPage {
	if limit <= 0 {
		limit = 10
	}
	if skip < 0 {
		skip = 0
	}

	return UserPage{
		Items: items,
		Total: total,
		Page:  skip/limit + 1,
		Size:  len(items),
		Links: PaginationLinks(base, skip, limit, total),
	}
}

// PaginationLinks builds self/first/last plus next/prev where they exist.
func PaginationLinks(base string, skip, limit, total int) []Link {
	pageHref := func(skip int) string {
		return fmt.Sprintf("%s/users?skip=%d&limit=%d", base, skip, limit)
	}

	lastSkip := 0
	if total > 0 {
		lastSkip = ((total - 1) / limit) * limit
	}

	links := []Link{
		{Rel: "self", Href: pageHref(skip), Method: "GET"},
		{Rel: "first", Href: pageHref(0), Method: "GET"},
		{Rel: "last", Href: pageHref(lastSkip), Method: "GET"},
	}

	if skip+limit < total {
		links = append(links, Link{Rel: "next", Href: pageHref(skip + limit), Method: "GET"})
	}

	if skip > 0 {
		prev := skip - limit
		if prev < 0 {
			prev = 0
		}
		links = append(links, Link{Rel: "prev", Href: pageHref(prev), Method: "GET"})
	}

	return links
}
