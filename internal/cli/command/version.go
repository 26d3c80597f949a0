package command

import (
	"github.com/urfave/cli/v2"

	"github.com/PHJ369906/aox-miniapp/internal/cli/output"
	"github.com/PHJ369906/aox-miniapp/internal/infra/buildinfo"
)

// VersionCommand returns the version command. It needs no configuration.
func VersionCommand() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "Show build information",
		Action: func(c *cli.Context) error {
			format := output.FormatTable
			if s := c.String("output"); s != "" {
				f, err := output.ParseFormat(s)
				if err != nil {
					return err
				}
				format = f
			}
			out, _ := writers(c)
			return output.NewFormatter(format, false).Format(out, buildinfo.Get())
		},
	}
}
