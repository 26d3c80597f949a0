package mockapi

import (
	"fmt"
	"sort"
	"time"

	"github.com/PHJ369906/aox-miniapp/internal/api"
)

// dataset is the shared catalogue every user sees. Guarded by Server.mu.
type dataset struct {
	orders     []api.OrderItem
	addresses  []api.AddressDetail
	nextAddrID int64
	favorites  []api.FavoriteItem
	messages   []api.MessageItem
	notices    []api.Notice
	banners    []api.Banner
}

func seedData() *dataset {
	base := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	stamp := func(i int) string {
		return base.Add(time.Duration(i) * time.Hour).Format("2006-01-02 15:04")
	}

	d := &dataset{nextAddrID: 2}
	statuses := []api.OrderStatus{api.OrderPay, api.OrderShip, api.OrderReceive, api.OrderRefund, api.OrderShip}
	for i, st := range statuses {
		d.orders = append(d.orders, api.OrderItem{
			ID:     fmt.Sprintf("SO%06d", i+1),
			Status: st,
			Title:  fmt.Sprintf("Order %d", i+1),
			Amount: float64(i+1) * 19.9,
			Time:   stamp(i),
		})
	}
	d.addresses = []api.AddressDetail{
		{ID: 1, AddressRequest: api.AddressRequest{
			ReceiverName: "Demo", ReceiverPhone: "13800000000",
			Province: "Zhejiang", City: "Hangzhou", District: "Xihu",
			DetailAddress: "1 Wensan Road", IsDefault: true,
		}},
	}
	for i := 1; i <= 3; i++ {
		d.favorites = append(d.favorites, api.FavoriteItem{
			ID: int64(i), Title: fmt.Sprintf("Favorite %d", i), Desc: "saved item", Time: stamp(i),
			Image: fmt.Sprintf("https://static.example.com/fav/%d.png", i),
		})
	}
	for i := 1; i <= 4; i++ {
		d.messages = append(d.messages, api.MessageItem{
			ID: int64(i), Title: fmt.Sprintf("Message %d", i), Content: "hello", Time: stamp(i), Read: i == 1,
		})
	}
	for i := 1; i <= 7; i++ {
		d.notices = append(d.notices, api.Notice{
			NoticeID: int64(i), NoticeTitle: fmt.Sprintf("Notice %d", i), NoticeType: 1,
			NoticeContent: "announcement", NoticeLevel: 1, Status: 1,
			PublishTime: stamp(i), PublishUserName: "admin", IsTop: boolInt(i == 1), TopOrder: i,
		})
	}
	d.banners = []api.Banner{
		{ID: 1, Title: "Welcome", ImageURL: "https://static.example.com/banner/1.png", LinkType: 0, SortOrder: 1, Status: 1},
		{ID: 2, Title: "Sale", ImageURL: "https://static.example.com/banner/2.png", LinkURL: "/pages/order/index", LinkType: 1, SortOrder: 2, Status: 1},
	}
	return d
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func (d *dataset) orderStats() api.OrderStats {
	st := api.OrderStats{All: len(d.orders)}
	for _, o := range d.orders {
		switch o.Status {
		case api.OrderPay:
			st.Pay++
		case api.OrderShip:
			st.Ship++
		case api.OrderReceive:
			st.Receive++
		case api.OrderRefund:
			st.Refund++
		}
	}
	return st
}

func (d *dataset) ordersByStatus(status api.OrderStatus) []api.OrderItem {
	if status == "" || status == api.OrderAll {
		return d.orders
	}
	var out []api.OrderItem
	for _, o := range d.orders {
		if o.Status == status {
			out = append(out, o)
		}
	}
	return out
}

func (d *dataset) addressIndex(id int64) int {
	for i, a := range d.addresses {
		if a.ID == id {
			return i
		}
	}
	return -1
}

// setDefaultAddress clears the default flag on every other address.
func (d *dataset) setDefaultAddress(id int64) {
	for i := range d.addresses {
		d.addresses[i].IsDefault = d.addresses[i].ID == id
	}
}

func (d *dataset) addressItems() []api.AddressItem {
	out := make([]api.AddressItem, 0, len(d.addresses))
	for _, a := range d.addresses {
		out = append(out, api.AddressItem{
			ID:        a.ID,
			Name:      a.ReceiverName,
			Phone:     a.ReceiverPhone,
			Region:    a.Province + " " + a.City + " " + a.District,
			Detail:    a.DetailAddress,
			IsDefault: a.IsDefault,
		})
	}
	return out
}

// sortedNotices returns notices with pinned ones first, then newest first.
func (d *dataset) sortedNotices() []api.Notice {
	out := append([]api.Notice{}, d.notices...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].IsTop != out[j].IsTop {
			return out[i].IsTop > out[j].IsTop
		}
		return out[i].PublishTime > out[j].PublishTime
	})
	return out
}
