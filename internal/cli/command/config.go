package command

import (
	"github.com/urfave/cli/v2"

	"github.com/PHJ369906/aox-miniapp/internal/cli/config"
)

// ConfigCommand returns the config subcommand group.
func ConfigCommand() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Configuration management",
		Subcommands: []*cli.Command{
			{
				Name:   "show",
				Usage:  "Show the effective configuration",
				Action: configShow,
			},
			{
				Name:   "validate",
				Usage:  "Validate the configuration",
				Action: configValidate,
			},
			{
				Name:  "path",
				Usage: "Print the default config file location",
				Action: func(c *cli.Context) error {
					out, _ := writers(c)
					_, err := out.Write([]byte(config.DefaultConfigPath() + "\n"))
					return err
				},
			},
		},
	}
}

func configShow(c *cli.Context) error {
	rt, err := newRuntime(c)
	if err != nil {
		return err
	}
	return rt.print(rt.cfg.Settings())
}

func configValidate(c *cli.Context) error {
	rt, err := newRuntime(c)
	if err != nil {
		return err
	}
	rt.say("Configuration OK.")
	return nil
}
