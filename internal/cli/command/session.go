package command

import (
	"errors"
	"fmt"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/PHJ369906/aox-miniapp/internal/api"
	"github.com/PHJ369906/aox-miniapp/internal/cli/output"
	"github.com/PHJ369906/aox-miniapp/internal/core/domain"
)

var errNotLoggedIn = errors.New("not logged in (run: aox-cli login)")

// LoginCommand returns the login subcommand group.
func LoginCommand() *cli.Command {
	return &cli.Command{
		Name:  "login",
		Usage: "Sign in and store the session",
		Subcommands: []*cli.Command{
			{
				Name:      "token",
				Usage:     "Adopt an existing credential",
				ArgsUsage: "TOKEN",
				Action:    withClient(loginToken),
			},
			{
				Name:  "password",
				Usage: "Sign in with username and password",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "username",
						Aliases:  []string{"u"},
						Usage:    "Account name",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "password",
						Aliases:  []string{"p"},
						Usage:    "Account password",
						EnvVars:  []string{"AOX_LOGIN_PASSWORD"},
						Required: true,
					},
				},
				Action: withClient(loginPassword),
			},
			{
				Name:  "sms",
				Usage: "Sign in with a phone number and SMS code",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "phone", Usage: "Phone number", Required: true},
					&cli.StringFlag{Name: "code", Usage: "SMS code", Required: true},
				},
				Action: withClient(loginSMS),
			},
			{
				Name:  "wechat",
				Usage: "Sign in with a WeChat authorization code",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "code", Usage: "Authorization code from wx.login", Required: true},
				},
				Action: withClient(loginWeChat),
			},
		},
	}
}

func loginToken(c *cli.Context, rt *runtime) error {
	if c.NArg() != 1 {
		return fmt.Errorf("usage: login token TOKEN")
	}
	profile, err := rt.client.LoginWithToken(rt.ctx, c.Args().First())
	return reportLogin(rt, profile, err)
}

func loginPassword(c *cli.Context, rt *runtime) error {
	profile, err := rt.client.LoginWithPassword(rt.ctx, c.String("username"), c.String("password"))
	return reportLogin(rt, profile, err)
}

func loginSMS(c *cli.Context, rt *runtime) error {
	profile, err := rt.client.LoginWithSMS(rt.ctx, c.String("phone"), c.String("code"))
	return reportLogin(rt, profile, err)
}

func loginWeChat(c *cli.Context, rt *runtime) error {
	profile, err := rt.client.LoginWithWeChat(rt.ctx, c.String("code"))
	return reportLogin(rt, profile, err)
}

func reportLogin(rt *runtime, profile *domain.UserProfile, err error) error {
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}
	if profile == nil {
		rt.say("Logged in.")
		return nil
	}
	rt.say("Logged in as %s (user %d).", profile.Nickname, profile.UserID)
	if rt.format != output.FormatTable {
		return rt.print(profile)
	}
	return nil
}

// SmsCodeCommand returns the sms-code command.
func SmsCodeCommand() *cli.Command {
	return &cli.Command{
		Name:  "sms-code",
		Usage: "Request an SMS login code",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "phone", Usage: "Phone number", Required: true},
		},
		Action: withClient(func(c *cli.Context, rt *runtime) error {
			if err := rt.client.API().User.SendSmsCode(rt.ctx, api.SendSmsCodeRequest{Phone: c.String("phone")}); err != nil {
				return err
			}
			rt.say("Code sent to %s.", c.String("phone"))
			return nil
		}),
	}
}

// LogoutCommand returns the logout command.
func LogoutCommand() *cli.Command {
	return &cli.Command{
		Name:  "logout",
		Usage: "Clear the stored session",
		Action: withClient(func(_ *cli.Context, rt *runtime) error {
			if err := rt.client.Logout(rt.ctx); err != nil {
				return err
			}
			rt.say("Logged out.")
			return nil
		}),
	}
}

// StatusCommand returns the status command.
func StatusCommand() *cli.Command {
	return &cli.Command{
		Name:  "status",
		Usage: "Show the local session without contacting the server",
		Action: withClient(func(_ *cli.Context, rt *runtime) error {
			return rt.print(rt.client.Status(time.Now()))
		}),
	}
}

// WhoamiCommand returns the whoami command.
func WhoamiCommand() *cli.Command {
	return &cli.Command{
		Name:  "whoami",
		Usage: "Fetch the current user's profile from the server",
		Action: withClient(func(_ *cli.Context, rt *runtime) error {
			if !rt.client.Session().Authenticated() {
				return errNotLoggedIn
			}
			profile, err := rt.client.Session().FetchProfile(rt.ctx)
			if err != nil {
				return err
			}
			return rt.print(profile)
		}),
	}
}
