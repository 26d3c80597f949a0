package command

import (
	"fmt"
	"strconv"

	"github.com/urfave/cli/v2"

	"github.com/PHJ369906/aox-miniapp/internal/api"
)

func pageFlags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{Name: "page", Value: 1, Usage: "Page number"},
		&cli.IntFlag{Name: "page-size", Value: 10, Usage: "Page size"},
	}
}

func idArg(c *cli.Context) (int64, error) {
	if c.NArg() != 1 {
		return 0, fmt.Errorf("usage: %s ID", c.Command.FullName())
	}
	id, err := strconv.ParseInt(c.Args().First(), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", c.Args().First())
	}
	return id, nil
}

// idAction wraps an action that takes a single numeric ID argument.
func idAction(fn func(rt *runtime, id int64) error) cli.ActionFunc {
	return withClient(func(c *cli.Context, rt *runtime) error {
		id, err := idArg(c)
		if err != nil {
			return err
		}
		return fn(rt, id)
	})
}

// ============================================================================
// Orders
// ============================================================================

// OrdersCommand returns the orders subcommand group.
func OrdersCommand() *cli.Command {
	return &cli.Command{
		Name:  "orders",
		Usage: "Browse orders",
		Subcommands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List orders",
				Flags: append(pageFlags(), &cli.StringFlag{
					Name:  "status",
					Value: string(api.OrderAll),
					Usage: "Filter: all, pay, ship, receive, refund",
				}),
				Action: withClient(ordersList),
			},
			{
				Name:  "stats",
				Usage: "Show order counts per status",
				Action: withClient(func(_ *cli.Context, rt *runtime) error {
					stats, err := rt.client.API().Orders.Stats(rt.ctx)
					if err != nil {
						return err
					}
					return rt.print(stats)
				}),
			},
		},
	}
}

func ordersList(c *cli.Context, rt *runtime) error {
	status, err := api.ParseOrderStatus(c.String("status"))
	if err != nil {
		return err
	}
	page, err := rt.client.API().Orders.List(rt.ctx, c.Int("page"), c.Int("page-size"), status)
	if err != nil {
		return err
	}
	return rt.printList(page.Records, page.Total)
}

// ============================================================================
// Addresses
// ============================================================================

// AddressesCommand returns the addresses subcommand group.
func AddressesCommand() *cli.Command {
	return &cli.Command{
		Name:    "addresses",
		Aliases: []string{"addr"},
		Usage:   "Manage shipping addresses",
		Subcommands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List addresses",
				Action: withClient(func(_ *cli.Context, rt *runtime) error {
					items, err := rt.client.API().Addresses.List(rt.ctx)
					if err != nil {
						return err
					}
					return rt.printList(items, int64(len(items)))
				}),
			},
			{
				Name:      "get",
				Usage:     "Show one address",
				ArgsUsage: "ID",
				Action: idAction(func(rt *runtime, id int64) error {
					detail, err := rt.client.API().Addresses.Detail(rt.ctx, id)
					if err != nil {
						return err
					}
					return rt.print(detail)
				}),
			},
			{
				Name:  "add",
				Usage: "Add an address",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "name", Usage: "Receiver name", Required: true},
					&cli.StringFlag{Name: "phone", Usage: "Receiver phone", Required: true},
					&cli.StringFlag{Name: "province", Usage: "Province"},
					&cli.StringFlag{Name: "city", Usage: "City"},
					&cli.StringFlag{Name: "district", Usage: "District"},
					&cli.StringFlag{Name: "detail", Usage: "Street address", Required: true},
					&cli.BoolFlag{Name: "default", Usage: "Make it the default address"},
				},
				Action: withClient(func(c *cli.Context, rt *runtime) error {
					err := rt.client.API().Addresses.Create(rt.ctx, api.AddressRequest{
						ReceiverName:  c.String("name"),
						ReceiverPhone: c.String("phone"),
						Province:      c.String("province"),
						City:          c.String("city"),
						District:      c.String("district"),
						DetailAddress: c.String("detail"),
						IsDefault:     c.Bool("default"),
					})
					if err != nil {
						return err
					}
					rt.say("Address added.")
					return nil
				}),
			},
			{
				Name:      "remove",
				Aliases:   []string{"rm"},
				Usage:     "Delete an address",
				ArgsUsage: "ID",
				Action: idAction(func(rt *runtime, id int64) error {
					if err := rt.client.API().Addresses.Remove(rt.ctx, id); err != nil {
						return err
					}
					rt.say("Address %d removed.", id)
					return nil
				}),
			},
			{
				Name:      "default",
				Usage:     "Make an address the default",
				ArgsUsage: "ID",
				Action: idAction(func(rt *runtime, id int64) error {
					if err := rt.client.API().Addresses.SetDefault(rt.ctx, id); err != nil {
						return err
					}
					rt.say("Address %d is now the default.", id)
					return nil
				}),
			},
		},
	}
}

// ============================================================================
// Favorites
// ============================================================================

// FavoritesCommand returns the favorites subcommand group.
func FavoritesCommand() *cli.Command {
	return &cli.Command{
		Name:    "favorites",
		Aliases: []string{"fav"},
		Usage:   "Manage favorites",
		Subcommands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List favorites",
				Flags: pageFlags(),
				Action: withClient(func(c *cli.Context, rt *runtime) error {
					page, err := rt.client.API().Favorites.List(rt.ctx, c.Int("page"), c.Int("page-size"))
					if err != nil {
						return err
					}
					return rt.printList(page.Records, page.Total)
				}),
			},
			{
				Name:      "remove",
				Aliases:   []string{"rm"},
				Usage:     "Remove a favorite",
				ArgsUsage: "ID",
				Action: idAction(func(rt *runtime, id int64) error {
					if err := rt.client.API().Favorites.Remove(rt.ctx, id); err != nil {
						return err
					}
					rt.say("Favorite %d removed.", id)
					return nil
				}),
			},
		},
	}
}

// ============================================================================
// Messages
// ============================================================================

// MessagesCommand returns the messages subcommand group.
func MessagesCommand() *cli.Command {
	return &cli.Command{
		Name:    "messages",
		Aliases: []string{"msg"},
		Usage:   "Read messages",
		Subcommands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List messages",
				Flags: pageFlags(),
				Action: withClient(func(c *cli.Context, rt *runtime) error {
					page, err := rt.client.API().Messages.List(rt.ctx, c.Int("page"), c.Int("page-size"))
					if err != nil {
						return err
					}
					return rt.printList(page.Records, page.Total)
				}),
			},
			{
				Name:      "read",
				Usage:     "Mark a message as read",
				ArgsUsage: "ID",
				Action: idAction(func(rt *runtime, id int64) error {
					if err := rt.client.API().Messages.MarkRead(rt.ctx, id); err != nil {
						return err
					}
					rt.say("Message %d marked read.", id)
					return nil
				}),
			},
			{
				Name:  "read-all",
				Usage: "Mark every message as read",
				Action: withClient(func(_ *cli.Context, rt *runtime) error {
					if err := rt.client.API().Messages.MarkAllRead(rt.ctx); err != nil {
						return err
					}
					rt.say("All messages marked read.")
					return nil
				}),
			},
			{
				Name:  "unread",
				Usage: "Show the unread count",
				Action: withClient(func(_ *cli.Context, rt *runtime) error {
					n, err := rt.client.API().Messages.UnreadCount(rt.ctx)
					if err != nil {
						return err
					}
					return rt.print(map[string]int{"unread": n})
				}),
			},
		},
	}
}

// ============================================================================
// Notices and banners
// ============================================================================

// NoticesCommand returns the notices subcommand group.
func NoticesCommand() *cli.Command {
	return &cli.Command{
		Name:  "notices",
		Usage: "Read announcements",
		Subcommands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List notices",
				Flags: pageFlags(),
				Action: withClient(func(c *cli.Context, rt *runtime) error {
					page, err := rt.client.API().Notices.List(rt.ctx, c.Int("page"), c.Int("page-size"))
					if err != nil {
						return err
					}
					return rt.printList(page.Records, page.Total)
				}),
			},
			{
				Name:      "get",
				Usage:     "Show a notice and report it read",
				ArgsUsage: "ID",
				Action: idAction(func(rt *runtime, id int64) error {
					notice, err := rt.client.API().Notices.Detail(rt.ctx, id)
					if err != nil {
						return err
					}
					if err := rt.client.API().Notices.ReportRead(rt.ctx, id); err != nil {
						rt.log.Warn("report notice read failed", "notice_id", id, "error", err)
					}
					return rt.print(notice)
				}),
			},
			{
				Name:  "latest",
				Usage: "Show the newest notices",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "limit", Value: api.DefaultLatestNotices, Usage: "How many notices"},
				},
				Action: withClient(func(c *cli.Context, rt *runtime) error {
					notices, err := rt.client.API().Notices.Latest(rt.ctx, c.Int("limit"))
					if err != nil {
						return err
					}
					return rt.printList(notices, int64(len(notices)))
				}),
			},
		},
	}
}

// BannersCommand returns the banners command.
func BannersCommand() *cli.Command {
	return &cli.Command{
		Name:  "banners",
		Usage: "List home page banners",
		Action: withClient(func(_ *cli.Context, rt *runtime) error {
			banners, err := rt.client.API().Banners.List(rt.ctx)
			if err != nil {
				return err
			}
			return rt.printList(banners, int64(len(banners)))
		}),
	}
}
