package main

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/henri123lemoine/asmdw/internal/app"
	"github.com/henri123lemoine/asmdw/internal/cache"
	"github.com/henri123lemoine/asmdw/internal/config"
	"github.com/henri123lemoine/asmdw/internal/debug"
	"github.com/henri123lemoine/asmdw/internal/poll"
	"github.com/henri123lemoine/asmdw/internal/ui"
)

var version = "dev"

var (
	cfgFile   string
	serverURL string
	debugFile string
	debugOnly string
	once      bool
	noMouse   bool
	noCache   bool
)

func init() {
	// Query the terminal background before the program owns stdin, so the
	// reply does not end up in the input stream.
	_ = lipgloss.HasDarkBackground()
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "asmdw [url]",
		Short: "Terminal viewer for a live assembly diff server",
		Long: `asmdw connects to a diff server started with --web and shows the
assembly diff in the terminal, updating live as the server rebuilds.`,
		Version:       version,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		RunE:          runApp,
	}

	root.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"config file (default: ~/.config/asmdw/config.toml)")
	root.Flags().StringVarP(&serverURL, "url", "u", "",
		"diff server URL (overrides server.url)")
	root.Flags().StringVar(&debugFile, "debug", "",
		"write a debug log to this file")
	root.Flags().StringVar(&debugOnly, "debug-only", "",
		"comma-separated debug categories to log (poll,nav,doc,ui,cache)")
	root.Flags().BoolVar(&once, "once", false,
		"fetch a single diff and stop polling")
	root.Flags().BoolVar(&noMouse, "no-mouse", false,
		"do not capture the mouse")
	root.Flags().BoolVar(&noCache, "no-cache", false,
		"do not read or write the linker map cache")

	root.AddCommand(newInitConfigCmd(), newVersionCmd())
	return root
}

func newInitConfigCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init-config",
		Short: "Write a commented default config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := configPath()
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}
			if err := config.CreateDefaultConfigFile(path); err != nil {
				return fmt.Errorf("writing config: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing file")
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "asmdw %s\n", version)
		},
	}
}

func configPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	return config.ConfigPath()
}

func runApp(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadFromPath(configPath())
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	switch {
	case len(args) == 1:
		cfg.Server.URL = args[0]
	case serverURL != "":
		cfg.Server.URL = serverURL
	}
	if once {
		cfg.Poll.Continuous = false
	}
	if noMouse {
		cfg.UI.Mouse = false
	}

	for _, w := range cfg.Validate() {
		fmt.Fprintf(os.Stderr, "Warning: %s\n", w)
	}

	if debugFile != "" {
		cats, err := debug.ParseCategories(debugOnly)
		if err != nil {
			return err
		}
		if err := debug.Enable(debugFile, cats...); err != nil {
			return fmt.Errorf("enabling debug log: %w", err)
		}
		defer debug.Close()
	}

	ui.ApplyTheme(cfg.UI.Theme)

	client, err := poll.NewClient(cfg.Server.URL)
	if err != nil {
		return err
	}

	var store *cache.Store
	if !noCache {
		store = cache.New("")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	opts := []tea.ProgramOption{tea.WithAltScreen(), tea.WithContext(ctx)}
	if cfg.UI.Mouse {
		opts = append(opts, tea.WithMouseAllMotion())
	}

	model := app.New(ctx, cfg, client, store)
	if _, err := tea.NewProgram(model, opts...).Run(); err != nil {
		return fmt.Errorf("running program: %w", err)
	}
	return nil
}
