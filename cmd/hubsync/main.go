// Package main provides the entry point for the hubsync command.
package main

import (
	"context"
	"os"

	"github.com/homemade/hubsync/cmd/hubsync/app"
)

func main() {
	application, err := app.New()
	if err != nil {
		app.ExitOnError(err)
	}

	// a run is never cancelled part way through
	if err := application.Execute(context.Background(), os.Args[1:]); err != nil {
		app.ExitOnError(err)
	}
}
