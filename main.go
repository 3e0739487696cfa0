package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/km-arc/go-scope/framework/app"
	"github.com/km-arc/go-scope/framework/container"
	gohttp "github.com/km-arc/go-scope/framework/http"
)

var version = "0.1.0"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var envFiles []string

	root := &cobra.Command{
		Use:          "scope",
		Short:        "Demo service wired through a scoped container",
		Version:      version,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringSliceVarP(&envFiles, "env-file", "e", nil, ".env files to load (default .env)")

	root.AddCommand(newServeCmd(&envFiles))
	root.AddCommand(newBindingsCmd(&envFiles))
	return root
}

// bootstrap builds the application with the demo providers and routes.
func bootstrap(envFiles []string) (*app.Application, error) {
	application := app.New(envFiles...)
	application.RegisterProvider(&AppServiceProvider{})
	application.Boot()

	router, err := application.Router()
	if err != nil {
		return nil, err
	}
	registerRoutes(router)
	return application, nil
}

func newServeCmd(envFiles *[]string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := bootstrap(*envFiles)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return application.Run(ctx)
		},
	}
}

func newBindingsCmd(envFiles *[]string) *cobra.Command {
	var resolve bool

	cmd := &cobra.Command{
		Use:   "bindings",
		Short: "List the application container's registrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := bootstrap(*envFiles)
			if err != nil {
				return err
			}
			if resolve {
				if _, err := container.Destructurable(application.Container).Values(); err != nil {
					return err
				}
			}
			printScope(cmd.OutOrStdout(), gohttp.Describe(application.Container), 0)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&resolve, "resolve", "r", false, "instantiate every registration first")
	return cmd
}

func printScope(w io.Writer, s *gohttp.Scope, depth int) {
	for ; s != nil; s, depth = s.Parent, depth+1 {
		indent := strings.Repeat("  ", depth)
		fmt.Fprintf(w, "%s%s\n", indent, s.Name)
		for _, b := range s.Bindings {
			mark := " "
			if b.Resolved {
				mark = "*"
			}
			fmt.Fprintf(w, "%s  %s %s\n", indent, mark, b.Key)
		}
	}
}
