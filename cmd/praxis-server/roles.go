package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"golang.org/x/text/language"

	"github.com/medpraxis/praxis/internal/domain/role"
	"github.com/medpraxis/praxis/internal/platform/ability"
)

func rolesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "roles",
		Short: "Inspect roles and the role policy",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List stored roles with their labels",
		RunE: func(cmd *cobra.Command, args []string) error {
			lang, _ := cmd.Flags().GetString("lang")

			ctx := context.Background()
			cfg, pool, err := openPool(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			setup, err := ability.NewSetup(cfg.RolePolicyFile, cfg.DefaultLanguage)
			if err != nil {
				return err
			}
			if lang == "" {
				lang = cfg.DefaultLanguage
			}
			tag, err := language.Parse(lang)
			if err != nil {
				return fmt.Errorf("--lang %q: %w", lang, err)
			}

			svc := role.NewService(role.NewRepoPG(pool), setup.Registry)
			opts, err := ability.NewDirectory(svc, setup.Labels).Options(ctx, tag)
			if err != nil {
				return err
			}
			printRoleOptions(cmd.OutOrStdout(), opts, setup.Registry)
			return nil
		},
	}
	listCmd.Flags().String("lang", "", "Label language (default DEFAULT_LANGUAGE)")
	cmd.AddCommand(listCmd)

	checkCmd := &cobra.Command{
		Use:   "check [policy-file]",
		Short: "Check that every stored role has a permission handler",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			cfg, pool, err := openPool(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			file := cfg.RolePolicyFile
			if len(args) == 1 {
				file = args[0]
			}
			names, err := role.NewRepoPG(pool).ListNames(ctx)
			if err != nil {
				return err
			}
			_, err = checkPolicy(cmd.OutOrStdout(), file, cfg.DefaultLanguage, names)
			return err
		},
	}
	cmd.AddCommand(checkCmd)

	watchCmd := &cobra.Command{
		Use:   "watch <policy-file>",
		Short: "Re-check a role policy file whenever it changes",
		Long: `Watch a role policy file and re-check it against the stored roles
on every change. The running server is not reloaded; restart it to apply a
policy that passes the check.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			cfg, pool, err := openPool(ctx)
			if err != nil {
				return err
			}
			names, err := role.NewRepoPG(pool).ListNames(ctx)
			pool.Close()
			if err != nil {
				return err
			}
			return watchPolicy(ctx, cmd.OutOrStdout(), args[0], cfg.DefaultLanguage, names)
		},
	}
	cmd.AddCommand(watchCmd)

	return cmd
}

func printRoleOptions(w io.Writer, opts []ability.RoleOption, reg *ability.Registry) {
	fmt.Fprintf(w, "%-24s %-32s %s\n", "NAME", "LABEL", "HANDLER")
	for _, o := range opts {
		handler := "missing"
		if reg.Has(o.Name) {
			handler = "ok"
		}
		fmt.Fprintf(w, "%-24s %-32s %s\n", o.Name, o.Label, handler)
	}
}

// checkPolicy loads file (may be empty for built-in roles only) and reports
// whether every name in roleNames resolves.
func checkPolicy(w io.Writer, file, defaultLang string, roleNames []string) (*ability.Setup, error) {
	setup, err := ability.NewSetup(file, defaultLang)
	if err != nil {
		fmt.Fprintf(w, "policy %s: %v\n", file, err)
		return nil, err
	}
	if err := setup.Registry.Validate(roleNames); err != nil {
		fmt.Fprintf(w, "policy %s: %v\n", file, err)
		return nil, err
	}
	fmt.Fprintf(w, "policy %s: ok (%d stored roles, %d handlers)\n", file, len(roleNames), len(setup.Registry.Names()))
	return setup, nil
}

// watchPolicy checks file once and then again after every write, until ctx
// is done. The parent directory is watched so editors that replace the file
// are seen too.
func watchPolicy(ctx context.Context, w io.Writer, file, defaultLang string, roleNames []string) error {
	file = filepath.Clean(file)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	if err := watcher.Add(filepath.Dir(file)); err != nil {
		return fmt.Errorf("watch %s: %w", file, err)
	}

	fmt.Fprintf(w, "watching %s\n", file)
	_, _ = checkPolicy(w, file, defaultLang, roleNames)

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != file {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				fmt.Fprintf(w, "[%s] %s changed\n", time.Now().Format(time.RFC3339), file)
				_, _ = checkPolicy(w, file, defaultLang, roleNames)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintf(os.Stderr, "watcher error: %v\n", err)
		case <-ctx.Done():
			return nil
		}
	}
}
