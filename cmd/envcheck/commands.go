package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/yanizio/uiauto/internal/fixture"
	"github.com/yanizio/uiauto/internal/server"
)

func (a *app) validateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check every environment for required fields, paths, and credentials",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.res.ValidateConfig(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "ok: %d environment(s)\n", len(a.res.Environments()))
			return nil
		},
	}
}

func (a *app) envsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "envs",
		Short: "List environments, marking the active one",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			active := a.res.ActiveEnvironment()
			for _, name := range a.res.Environments() {
				mark := " "
				if name == active {
					mark = "*"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", mark, name)
			}
			return nil
		},
	}
}

func (a *app) baseURLCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "base-url",
		Short: "Print the active environment's base URL",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			u, err := a.res.BaseURL("")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), u)
			return nil
		},
	}
}

func (a *app) urlCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "url <path-key>",
		Short: "Print the absolute URL of a named path",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := a.res.URL(args[0], "")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), u)
			return nil
		},
	}
}

func (a *app) credsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "creds <credential-key>",
		Short: "Print the username for a credential key (password masked)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.res.Credentials(args[0], "")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), c.String())
			return nil
		},
	}
}

func (a *app) fixtureCmd() *cobra.Command {
	var sheet string
	cmd := &cobra.Command{
		Use:   "fixture <file>",
		Short: "Print fixture rows for the active environment as JSON lines",
		Long: `fixture reads a CSV, XLSX, JSON, or YAML file under fixtures.dir and prints
the rows whose environment column is empty or matches the active
environment.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rd := fixture.NewReader(a.cfg.Abs(a.cfg.Fixtures.Dir), a.cfg.Fixtures.CacheSize, a.log)
			rows, err := rd.Load(args[0], sheet)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			for _, row := range fixture.ForEnvironment(rows, a.res.ActiveEnvironment()) {
				if err := enc.Encode(row); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&sheet, "sheet", "", "worksheet name for .xlsx files (default: first sheet)")
	return cmd
}

func (a *app) serveCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the read-only status API and /metrics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if addr == "" {
				addr = a.cfg.HTTP.ListenAddr
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			srv := server.New(addr, server.NewRouter(a.res, a.log))
			errCh := make(chan error, 1)
			go func() { errCh <- srv.ListenAndServe() }()
			a.log.Infow("status server listening", "addr", addr)

			select {
			case err := <-errCh:
				if !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			case <-ctx.Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			a.log.Infow("status server stopping")
			return srv.Shutdown(shutdownCtx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default: http.listen_addr)")
	return cmd
}

func versionCmd(root *cobra.Command) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "envcheck %s\n", root.Version)
		},
	}
}
