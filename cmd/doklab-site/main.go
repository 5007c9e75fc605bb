// Command doklab-site serves the doklab marketing site and its docs.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/manuschillerdev/doklab-site/internal/config"
	"github.com/manuschillerdev/doklab-site/internal/content"
	"github.com/manuschillerdev/doklab-site/internal/scrolly"
	"github.com/manuschillerdev/doklab-site/internal/server"
	"github.com/manuschillerdev/doklab-site/pkg/logging"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type serveFlags struct {
	addr       string
	dev        bool
	contentDir string
	watch      bool
}

func (f *serveFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.addr, "addr", "", "listen address")
	cmd.Flags().BoolVar(&f.dev, "dev", false, "development mode (any websocket origin)")
	cmd.Flags().StringVar(&f.contentDir, "content-dir", "", "read content from this directory instead of the embedded tree")
	cmd.Flags().BoolVar(&f.watch, "watch", false, "reload content when files under --content-dir change")
}

func newRootCmd() *cobra.Command {
	var cfgFile string
	var sf serveFlags

	root := &cobra.Command{
		Use:   "doklab-site",
		Short: "Serve the doklab website",
		Long: `doklab-site serves the doklab landing page with its scroll-synchronized
code presenters, the documentation pages and the client script.

Without a subcommand it runs "serve".`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default "+config.DefaultFile+" if present)")

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, cfgFile, sf)
		},
	}
	sf.register(serve)

	// The root command shares the serve flags so "doklab-site --dev" works.
	root.Flags().AddFlagSet(serve.Flags())
	root.RunE = serve.RunE

	root.AddCommand(serve, newVersionCmd(), newCatalogCmd(&cfgFile))
	return root
}

func loadConfig(cmd *cobra.Command, path string, sf serveFlags) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("addr") {
		cfg.Server.Address = sf.addr
	}
	if flags.Changed("dev") {
		cfg.Server.Dev = sf.dev
	}
	if flags.Changed("content-dir") {
		cfg.Content.Dir = sf.contentDir
	}
	if flags.Changed("watch") {
		cfg.Content.Watch = sf.watch
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runServe(cmd *cobra.Command, cfgFile string, sf serveFlags) error {
	cfg, err := loadConfig(cmd, cfgFile, sf)
	if err != nil {
		return err
	}

	logger := cfg.Logger()
	logging.SetDefault(logger)

	srv, err := server.New(cfg,
		server.WithLogger(logger),
		server.WithVersion(version),
	)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return srv.Run(ctx)
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "doklab-site %s\n", version)
		},
	}
}

func newCatalogCmd(cfgFile *string) *cobra.Command {
	var contentDir string
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Validate the step catalogs and print their outline",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*cfgFile)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("content-dir") {
				cfg.Content.Dir = contentDir
			}

			fsys, err := content.Open(cfg.Content.Dir)
			if err != nil {
				return err
			}
			b, err := content.Load(fsys)
			if err != nil {
				return err
			}
			if b.Dangling != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", b.Dangling)
			}
			printCatalog(cmd, b.Compose)
			printCatalog(cmd, b.Config)
			return nil
		},
	}
	cmd.Flags().StringVar(&contentDir, "content-dir", "", "content directory (default embedded)")
	return cmd
}

func printCatalog(cmd *cobra.Command, c *scrolly.Catalog) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s (%d steps)\n", c.Name(), c.Len())
	for i, step := range c.Steps() {
		fmt.Fprintf(out, "  %d. %s  tabs=%v", i, step.Title, step.TabNames())
		if refs := scrolly.Refs(step.Description); len(refs) > 0 {
			fmt.Fprintf(out, " refs=%v", refs)
		}
		fmt.Fprintln(out)
	}
}
