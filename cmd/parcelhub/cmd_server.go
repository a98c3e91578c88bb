package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/shashiranjanraj/parcelhub/app/repositories/memory"
	"github.com/shashiranjanraj/parcelhub/app/services"
	"github.com/shashiranjanraj/parcelhub/internal/kernel"
	"github.com/shashiranjanraj/parcelhub/internal/server"
	"github.com/shashiranjanraj/parcelhub/pkg/ws"
)

var storeDriver string

// parcelhub serve: start the HTTP server.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return server.Start(storeDriver)
	},
}

// parcelhub route:list: print all registered routes.
var routeListCmd = &cobra.Command{
	Use:   "route:list",
	Short: "List all registered named routes",
	RunE: func(cmd *cobra.Command, args []string) error {
		return printRoutes(os.Stdout)
	},
}

func init() {
	serveCmd.Flags().StringVar(&storeDriver, "store", "", "store driver: mongo or memory (default STORE_DRIVER)")
}

func printRoutes(out io.Writer) error {
	// Routes do not depend on the store, so an in-memory kernel lists them.
	k := kernel.NewHTTPKernel(kernel.Deps{
		Services: services.New(memory.New().Set(), services.Config{}),
		Hub:      ws.NewHub(),
	})

	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "METHOD\tPATH\tNAME")
	fmt.Fprintln(w, "------\t----\t----")
	for _, ri := range k.Routes() {
		fmt.Fprintf(w, "%s\t%s\t%s\n", ri.Method, ri.Path, ri.Name)
	}
	return w.Flush()
}
