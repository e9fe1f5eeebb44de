// Command recalc recomputes points, championships, handicaps and starting
// groups from files, without a running service.
package main

import (
	"os"

	"github.com/urfave/cli/v2"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		os.Stderr.WriteString("recalc: " + err.Error() + "\n")
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "recalc",
		Usage: "offline scoring tools",
		Commands: []*cli.Command{
			{
				Name:      "points",
				Usage:     "score one event file",
				ArgsUsage: "EVENT_FILE",
				Flags:     outputFlags(),
				Action:    pointsAction,
			},
			{
				Name:      "championship",
				Usage:     "sum category points across event files, in order",
				ArgsUsage: "EVENT_FILE...",
				Flags:     outputFlags(),
				Action:    championshipAction,
			},
			{
				Name:      "handicap",
				Usage:     "replay rounds given as STROKES/PAR",
				ArgsUsage: "STROKES/PAR...",
				Flags: append(outputFlags(),
					&cli.Float64Flag{Name: "start", Value: -1, Usage: "starting handicap (default: newcomer)"},
				),
				Action: handicapAction,
			},
			{
				Name:      "groups",
				Usage:     "build starting groups from a players file",
				ArgsUsage: "GROUPS_FILE",
				Flags: append(outputFlags(),
					&cli.Uint64Flag{Name: "seed", Usage: "shuffle seed (0 shuffles randomly)"},
				),
				Action: groupsAction,
			},
		},
	}
}

func outputFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "format", Aliases: []string{"f"}, Value: "json", Usage: "json, csv or xlsx"},
		&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "write to this file instead of stdout"},
	}
}
