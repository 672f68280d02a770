package api

import (
	"encoding/json"
	"net/url"
	"strconv"
)

// Page is one page of a paginated list response.
//
// Large collections respond with {items, total_count}; small unpaginated
// collections respond with a bare array. UnmarshalJSON accepts both so
// callers never need to know which shape an endpoint uses.
type Page[T any] struct {
	Items      []T `json:"items"`
	TotalCount int `json:"total_count"`
}

func (p *Page[T]) UnmarshalJSON(data []byte) error {
	// Bare array: the whole collection is the page.
	if len(data) > 0 && data[0] == '[' {
		var items []T
		if err := json.Unmarshal(data, &items); err != nil {
			return err
		}
		p.Items = items
		p.TotalCount = len(items)
		return nil
	}

	type envelope Page[T] // drop methods to avoid recursion
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return err
	}
	*p = Page[T](env)
	return nil
}

// ListParams carries the cursor and filters for a list endpoint.
type ListParams struct {
	Skip    int
	Limit   int
	Filters url.Values
}

// Query encodes the params as endpoint query values.
// Filters come first so cursor keys always win on collision.
func (p ListParams) Query() url.Values {
	q := url.Values{}
	for k, vs := range p.Filters {
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	q.Set("skip", strconv.Itoa(p.Skip))
	q.Set("limit", strconv.Itoa(p.Limit))
	return q
}
