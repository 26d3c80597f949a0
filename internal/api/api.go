// Package api defines the typed mini-app endpoints. Every function goes
// through the connection engine, so credential injection and expiry
// handling apply uniformly.
package api

import (
	"github.com/PHJ369906/aox-miniapp/internal/connection"
)

// Prefix is the path prefix of every mini-app endpoint.
const Prefix = "/v1/miniapp"

// Page is the generic paged list shape.
type Page[T any] struct {
	Records []T   `json:"records"`
	Total   int64 `json:"total"`
	Current int   `json:"current"`
	Size    int   `json:"size"`
}

// PageQuery is the common paging query.
type PageQuery struct {
	PageNum  int `json:"pageNum"`
	PageSize int `json:"pageSize"`
}

// Client groups the per-resource APIs over one engine.
type Client struct {
	User      *UserAPI
	Orders    *OrderAPI
	Addresses *AddressAPI
	Favorites *FavoriteAPI
	Messages  *MessageAPI
	Notices   *NoticeAPI
	Banners   *BannerAPI
}

// New creates all resource APIs on e.
func New(e *connection.Engine) *Client {
	return &Client{
		User:      &UserAPI{e: e},
		Orders:    &OrderAPI{e: e},
		Addresses: &AddressAPI{e: e},
		Favorites: &FavoriteAPI{e: e},
		Messages:  &MessageAPI{e: e},
		Notices:   &NoticeAPI{e: e},
		Banners:   &BannerAPI{e: e},
	}
}
