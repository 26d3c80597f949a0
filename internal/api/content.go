package api

import (
	"context"
	"fmt"

	"github.com/PHJ369906/aox-miniapp/internal/connection"
)

// FavoriteItem is one saved item.
type FavoriteItem struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
	Desc  string `json:"desc"`
	Time  string `json:"time"`
	Image string `json:"image"`
}

// FavoriteAPI covers favorites.
type FavoriteAPI struct {
	e *connection.Engine
}

// List returns a page of favorites.
func (a *FavoriteAPI) List(ctx context.Context, pageNum, pageSize int) (*Page[FavoriteItem], error) {
	return connection.Get[*Page[FavoriteItem]](ctx, a.e, Prefix+"/favorites", PageQuery{pageNum, pageSize})
}

// Remove deletes a favorite.
func (a *FavoriteAPI) Remove(ctx context.Context, id int64) error {
	_, err := connection.Delete[struct{}](ctx, a.e, fmt.Sprintf("%s/favorites/%d", Prefix, id), nil)
	return err
}

// MessageItem is one inbox message.
type MessageItem struct {
	ID      int64  `json:"id"`
	Title   string `json:"title"`
	Content string `json:"content"`
	Time    string `json:"time"`
	Read    bool   `json:"read"`
}

// MessageAPI covers the inbox.
type MessageAPI struct {
	e *connection.Engine
}

// List returns a page of messages.
func (a *MessageAPI) List(ctx context.Context, pageNum, pageSize int) (*Page[MessageItem], error) {
	return connection.Get[*Page[MessageItem]](ctx, a.e, Prefix+"/messages", PageQuery{pageNum, pageSize})
}

// MarkRead marks one message as read.
func (a *MessageAPI) MarkRead(ctx context.Context, id int64) error {
	_, err := connection.Post[struct{}](ctx, a.e, fmt.Sprintf("%s/messages/%d/read", Prefix, id), nil)
	return err
}

// MarkAllRead marks every message as read.
func (a *MessageAPI) MarkAllRead(ctx context.Context) error {
	_, err := connection.Post[struct{}](ctx, a.e, Prefix+"/messages/read-all", nil)
	return err
}

// UnreadCount returns the number of unread messages.
func (a *MessageAPI) UnreadCount(ctx context.Context) (int, error) {
	return connection.Get[int](ctx, a.e, Prefix+"/messages/unread-count", nil)
}

// Notice is a published announcement.
type Notice struct {
	NoticeID        int64  `json:"noticeId"`
	NoticeTitle     string `json:"noticeTitle"`
	NoticeType      int    `json:"noticeType"`
	NoticeContent   string `json:"noticeContent"`
	NoticeLevel     int    `json:"noticeLevel"`
	Status          int    `json:"status"`
	PublishTime     string `json:"publishTime"`
	PublishUserName string `json:"publishUserName"`
	IsTop           int    `json:"isTop"`
	TopOrder        int    `json:"topOrder"`
	ReadCount       int    `json:"readCount"`
}

// DefaultLatestNotices is the default Latest limit.
const DefaultLatestNotices = 5

// NoticeAPI covers announcements.
type NoticeAPI struct {
	e *connection.Engine
}

// List returns a page of published notices.
func (a *NoticeAPI) List(ctx context.Context, pageNum, pageSize int) (*Page[Notice], error) {
	return connection.Get[*Page[Notice]](ctx, a.e, Prefix+"/notices", PageQuery{pageNum, pageSize})
}

// Detail returns one notice.
func (a *NoticeAPI) Detail(ctx context.Context, id int64) (*Notice, error) {
	return connection.Get[*Notice](ctx, a.e, fmt.Sprintf("%s/notices/%d", Prefix, id), nil)
}

// Latest returns the newest notices; limit <= 0 selects the default.
func (a *NoticeAPI) Latest(ctx context.Context, limit int) ([]Notice, error) {
	if limit <= 0 {
		limit = DefaultLatestNotices
	}
	return connection.Get[[]Notice](ctx, a.e, Prefix+"/notices/latest", map[string]int{"limit": limit})
}

// ReportRead records that the user read a notice.
func (a *NoticeAPI) ReportRead(ctx context.Context, id int64) error {
	_, err := connection.Post[struct{}](ctx, a.e, fmt.Sprintf("%s/notices/%d/read", Prefix, id), nil)
	return err
}

// Banner is a home page carousel entry.
type Banner struct {
	ID        int64  `json:"id"`
	Title     string `json:"title"`
	ImageURL  string `json:"imageUrl"`
	LinkURL   string `json:"linkUrl,omitempty"`
	LinkType  int    `json:"linkType"`
	SortOrder int    `json:"sortOrder"`
	Status    int    `json:"status"`
}

// BannerAPI covers banners.
type BannerAPI struct {
	e *connection.Engine
}

// List returns the active banners.
func (a *BannerAPI) List(ctx context.Context) ([]Banner, error) {
	return connection.Get[[]Banner](ctx, a.e, Prefix+"/banners", nil)
}
