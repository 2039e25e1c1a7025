package api

import (
	"encoding/json"
	"net/url"
	"strconv"

	"github.com/buger/jsonparser"
	pkgerrors "github.com/pkg/errors"
)

type PaginationMeta struct {
	Total      int `json:"total"`
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalPages int `json:"totalPages"`
}

// Paginated is the backend's list envelope
type Paginated[T any] struct {
	Data []T            `json:"data"`
	Meta PaginationMeta `json:"meta"`
}

// HasMore reports whether a later page exists
func (p Paginated[T]) HasMore() bool {
	return p.Meta.Page < p.Meta.TotalPages
}

// PageRequest selects a page; zero values mean page 1 of 10
type PageRequest struct {
	Page  int
	Limit int
}

func (p PageRequest) values() url.Values {
	page, limit := p.Page, p.Limit
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 10
	}
	return url.Values{"page": {strconv.Itoa(page)}, "limit": {strconv.Itoa(limit)}}
}

// decodeList accepts either the paginated envelope or a bare array, which
// some list endpoints return.
func decodeList[T any](body []byte) (Paginated[T], error) {
	var out Paginated[T]
	_, dataType, _, err := jsonparser.Get(body)
	if err != nil {
		return out, pkgerrors.Wrap(err, "[decodeList] invalid body")
	}
	if dataType == jsonparser.Array {
		if err := json.Unmarshal(body, &out.Data); err != nil {
			return out, pkgerrors.Wrap(err, "[decodeList] decode array")
		}
		out.Meta = PaginationMeta{Total: len(out.Data), Page: 1, Limit: len(out.Data), TotalPages: 1}
		return out, nil
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return out, pkgerrors.Wrap(err, "[decodeList] decode page")
	}
	if out.Data == nil {
		out.Data = []T{}
	}
	return out, nil
}
