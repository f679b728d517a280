package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/LucasPickering/slumber/internal/collection"
	"github.com/LucasPickering/slumber/internal/config"
	"github.com/LucasPickering/slumber/internal/httpengine"
	"github.com/LucasPickering/slumber/internal/render"
	"github.com/LucasPickering/slumber/internal/store"
)

// main wires cobra+viper the same way cmd/claudeops/main.go does: flags
// registered on the root command, bound into viper by key, then overridable
// by SLUMBER_* environment variables. This CLI is a thin consumer of the
// core (spec.md §6: "the CLI layer itself is outside scope") — it exists to
// prove the template/chain/http/store pipeline is callable end to end, not
// to implement the full interactive TUI.
func main() {
	rootCmd := &cobra.Command{
		Use:   "slumber",
		Short: "Render and send a Slumber collection recipe",
	}

	f := rootCmd.PersistentFlags()
	f.String("config", "", "path to the collection file (SLUMBER_CONFIG_PATH)")
	f.String("data-dir", defaultDataDir(), "directory holding the persistent store")
	f.String("db", "", "override the store's sqlite file path (SLUMBER_DB)")
	f.String("profile", "", "profile ID to render against")
	f.Bool("persist", true, "persist successful exchanges to the store")
	f.Bool("allow-triggers", true, "allow chained requests to launch sub-requests")
	f.StringSlice("insecure-host", nil, "disable TLS verification for this host (repeatable)")
	f.Bool("follow-redirects", true, "follow HTTP redirects")
	f.StringSlice("override", nil, "key=value expression override (repeatable)")

	bindFlag := func(viperKey, flagName string) {
		_ = viper.BindPFlag(viperKey, f.Lookup(flagName))
	}
	bindFlag("config_path", "config")
	bindFlag("data_dir", "data-dir")
	bindFlag("db", "db")
	bindFlag("profile", "profile")
	bindFlag("persist", "persist")
	bindFlag("triggers_allowed", "allow-triggers")
	bindFlag("insecure_hosts", "insecure-host")
	bindFlag("follow_redirects", "follow-redirects")

	viper.SetEnvPrefix("SLUMBER")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	rootCmd.AddCommand(newRequestCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func defaultDataDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "."
	}
	return filepath.Join(dir, "slumber")
}

func newRequestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "request <recipe-id>",
		Short: "Render and send one recipe from the collection",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			overrides, err := cmd.Flags().GetStringSlice("override")
			if err != nil {
				return err
			}
			return runRequest(cmd.Context(), args[0], overrides)
		},
	}
	return cmd
}

// runRequest loads the collection and store, builds a Renderer and a
// single render group, sends recipeID, and reports the result. A render
// group is scoped to one CLI invocation (spec.md §4.3 GLOSSARY: "one
// top-level render"), so every field referenced while building this one
// request shares exactly one Field Cache.
func runRequest(ctx context.Context, recipeID string, rawOverrides []string) error {
	cfg := config.Load()
	if cfg.ConfigPath == "" {
		return fmt.Errorf("slumber: no collection file given (--config or SLUMBER_CONFIG_PATH)")
	}

	coll, contentHash, err := collection.Load(cfg.ConfigPath)
	if err != nil {
		return fmt.Errorf("load collection: %w", err)
	}

	dbPath := cfg.DBPath
	if dbPath == "" {
		if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
			return fmt.Errorf("create data dir: %w", err)
		}
		dbPath = filepath.Join(cfg.DataDir, "slumber.db")
	}
	st, err := store.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	absPath, err := filepath.Abs(cfg.ConfigPath)
	if err != nil {
		absPath = cfg.ConfigPath
	}
	collectionID, err := st.UpsertCollection(absPath, contentHash)
	if err != nil {
		return fmt.Errorf("upsert collection: %w", err)
	}

	engine := httpengine.New(
		httpengine.WithFollowRedirects(cfg.FollowRedirects),
		httpengine.WithInsecureHosts(cfg.InsecureHosts),
	)

	renderer := render.NewRenderer(coll, collectionID, st, engine)
	renderer.Persist = cfg.Persist
	renderer.TriggersAllowed = cfg.TriggersAllowed

	recipe, ok := renderer.Recipe(recipeID)
	if !ok {
		return fmt.Errorf("slumber: unknown recipe %q", recipeID)
	}

	var profileID *string
	if cfg.Profile != "" {
		profileID = &cfg.Profile
	}
	overrides, err := parseOverrides(rawOverrides)
	if err != nil {
		return err
	}
	group, err := renderer.NewGroup(profileID, overrides)
	if err != nil {
		return fmt.Errorf("build render group: %w", err)
	}

	ctx, cancel := signalContext(ctx)
	defer cancel()

	ex, err := renderer.Execute(ctx, group, recipe)
	if err != nil {
		return fmt.Errorf("send %s: %w", recipeID, err)
	}

	fmt.Printf("%s %s -> %d\n", recipe.Method, ex.Request.URL, ex.StatusCode)
	os.Stdout.Write(ex.ResponseBody)
	fmt.Println()
	return nil
}

// parseOverrides turns "key=value" flag strings into the override map
// Context.Override expects (spec.md §6: "key matches the source text of
// the expression to override").
func parseOverrides(raw []string) (map[string]string, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	out := make(map[string]string, len(raw))
	for _, kv := range raw {
		key, value, ok := strings.Cut(kv, "=")
		if !ok {
			return nil, fmt.Errorf("slumber: invalid override %q, want key=value", kv)
		}
		out[key] = value
	}
	return out, nil
}

// signalContext cancels ctx on SIGINT/SIGTERM so an in-flight send or
// sub-request is cancelled promptly rather than left to run to completion
// (spec.md §5 "Cancellation").
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
	go func() {
		select {
		case <-sigCh:
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()
	return ctx, cancel
}
