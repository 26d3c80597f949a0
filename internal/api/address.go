package api

import (
	"context"
	"fmt"

	"github.com/PHJ369906/aox-miniapp/internal/connection"
)

// AddressItem is one address in the list.
type AddressItem struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Phone     string `json:"phone"`
	Region    string `json:"region"`
	Detail    string `json:"detail"`
	IsDefault bool   `json:"isDefault"`
}

// AddressRequest creates or updates an address.
type AddressRequest struct {
	ReceiverName  string `json:"receiverName"`
	ReceiverPhone string `json:"receiverPhone"`
	Province      string `json:"province"`
	City          string `json:"city"`
	District      string `json:"district"`
	DetailAddress string `json:"detailAddress"`
	IsDefault     bool   `json:"isDefault,omitempty"`
}

// AddressDetail is a full address.
type AddressDetail struct {
	ID int64 `json:"id"`
	AddressRequest
}

// AddressAPI covers the shipping address book.
type AddressAPI struct {
	e *connection.Engine
}

func addressPath(id int64) string {
	return fmt.Sprintf("%s/addresses/%d", Prefix, id)
}

// List returns every address.
func (a *AddressAPI) List(ctx context.Context) ([]AddressItem, error) {
	return connection.Get[[]AddressItem](ctx, a.e, Prefix+"/addresses", nil)
}

// Detail returns one address.
func (a *AddressAPI) Detail(ctx context.Context, id int64) (*AddressDetail, error) {
	return connection.Get[*AddressDetail](ctx, a.e, addressPath(id), nil)
}

// Create adds an address.
func (a *AddressAPI) Create(ctx context.Context, req AddressRequest) error {
	_, err := connection.Post[struct{}](ctx, a.e, Prefix+"/addresses", req)
	return err
}

// Update replaces an address.
func (a *AddressAPI) Update(ctx context.Context, id int64, req AddressRequest) error {
	_, err := connection.Put[struct{}](ctx, a.e, addressPath(id), req)
	return err
}

// SetDefault marks an address as the default one.
func (a *AddressAPI) SetDefault(ctx context.Context, id int64) error {
	_, err := connection.Put[struct{}](ctx, a.e, addressPath(id)+"/default", nil)
	return err
}

// Remove deletes an address.
func (a *AddressAPI) Remove(ctx context.Context, id int64) error {
	_, err := connection.Delete[struct{}](ctx, a.e, addressPath(id), nil)
	return err
}
