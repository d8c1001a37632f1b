package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/ternarybob/ostendo/internal/common"
	"github.com/ternarybob/ostendo/internal/modelstore"
)

func runModels(args []string) error {
	if len(args) < 1 {
		return common.NewAppError(common.CodeInvalidInput, "usage: ostendo models list|install <alias> [-force]", nil)
	}
	sub := args[0]

	switch sub {
	case "list":
		store := modelstore.New(common.GetLogger())
		fmt.Printf("Model storage: %s\n\n", store.Root())
		for _, row := range store.List() {
			state := "not installed"
			if row.Installed {
				state = row.Path
			}
			fmt.Printf("  %-32s %-12s %s\n", row.Alias, row.License, state)
		}
		return nil

	case "install":
		fs := flag.NewFlagSet("models install", flag.ExitOnError)
		force := fs.Bool("force", false, "Redownload even when already installed")
		fs.Parse(args[1:])

		if fs.NArg() < 1 {
			return common.NewAppError(common.CodeInvalidInput, "usage: ostendo models install <alias> [-force]", nil)
		}
		alias := fs.Arg(0)

		logger := common.GetLogger()
		path, err := modelstore.New(logger).Install(context.Background(), alias, *force)
		if err != nil {
			return err
		}
		fmt.Printf("Model %s installed at %s\n", alias, path)
		return nil

	default:
		return common.NewAppError(common.CodeInvalidInput,
			fmt.Sprintf("unknown models subcommand: %s", sub), nil).
			WithHint("use 'list' or 'install'")
	}
}
