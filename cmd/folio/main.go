// Command folio tracks a portfolio of cash and ticker positions.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path"

	"github.com/google/subcommands"
	"github.com/posener/complete/v2"
	"github.com/posener/complete/v2/predict"

	"github.com/bobmcallan/folio/internal/app"
)

var configPath = flag.String("config", "", "Path to folio.toml (default: $FOLIO_CONFIG, then folio.toml next to the binary)")

// Commands lists every folio subcommand
var Commands = []subcommands.Command{
	&showCmd{},
	&dashboardCmd{},
	&historyCmd{},
	&chartCmd{},
	&serveCmd{},
	&setAmountCmd{},
	&addPurchaseCmd{},
	&removePurchaseCmd{},
	&versionCmd{},
}

func completion() *complete.Command {
	return &complete.Command{
		Flags: map[string]complete.Predictor{
			"config": predict.Files("*.toml"),
		},
		Sub: map[string]*complete.Command{
			"show": {Flags: map[string]complete.Predictor{
				"format":     predict.Set{"table", "markdown", "json"},
				"securities": predict.Nothing,
			}},
			"dashboard": {},
			"history": {Flags: map[string]complete.Predictor{
				"date":       predict.Something,
				"securities": predict.Nothing,
			}},
			"chart": {Flags: map[string]complete.Predictor{
				"out": predict.Files("*.png"),
			}},
			"serve": {Flags: map[string]complete.Predictor{
				"port": predict.Something,
			}},
			"set-amount": {Args: predict.Something},
			"add-purchase": {
				Flags: map[string]complete.Predictor{
					"date":  predict.Something,
					"qty":   predict.Something,
					"price": predict.Something,
					"fees":  predict.Something,
					"lot":   predict.Something,
				},
				Args: predict.Something,
			},
			"remove-purchase": {Args: predict.Something},
			"version": {},
		},
	}
}

func main() {
	// Exits when invoked by the shell for completion (COMP_LINE set)
	completion().Complete(path.Base(os.Args[0]))

	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	for _, c := range Commands {
		commander.Register(c, "")
	}

	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}

// openApp initializes the App from the -config flag, reporting failures on stderr.
func openApp(opts ...app.Option) (*app.App, bool) {
	a, err := app.NewApp(*configPath, opts...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return nil, false
	}
	return a, true
}
