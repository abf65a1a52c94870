package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/cosmqc/swapbytes/internal/app"
	"github.com/cosmqc/swapbytes/internal/config"
	"github.com/cosmqc/swapbytes/internal/node"
	"github.com/cosmqc/swapbytes/internal/ui"
)

const version = "1.0.0"

var (
	port       int
	bootstrap  string
	nickname   string
	outputDir  string
	configPath string
	verbose    int
)

var rootCmd = &cobra.Command{
	Use:   "swapbytes",
	Short: "Peer-to-peer file trading over chat",
	Long: `swapbytes is a terminal peer-to-peer file-trading chat application.
Peers discover each other on the local network, chat over a gossip topic,
publish file metadata into a DHT, and trade files one-for-one with explicit
accept/decline. Type /help at the prompt for the command list.`,
	RunE: run,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Display the version of swapbytes",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("swapbytes version %s\n", version)
	},
}

func init() {
	rootCmd.Flags().IntVarP(&port, "port", "p", 0, "Port to listen on (default: random)")
	rootCmd.Flags().StringVar(&bootstrap, "bootstrap", "", "Multiaddr of a bootstrap peer to dial")
	rootCmd.Flags().StringVar(&nickname, "nick", "", "Nickname (prompted interactively when omitted)")
	rootCmd.Flags().StringVar(&outputDir, "output", "", "Directory received trade files are written to")
	rootCmd.Flags().StringVar(&configPath, "config", "", "Path to a swapbytes.toml config file")
	rootCmd.Flags().CountVarP(&verbose, "verbose", "v", "Verbose output (can be specified multiple times: -v, -vv)")
	rootCmd.AddCommand(versionCmd)
}

func run(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	cfg.Merge(port, bootstrap, nickname, outputDir, verbose)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	printer := ui.New(os.Stdout, cfg.Node.Verbosity)

	// Buffered so network goroutines rarely wait on the loop.
	events := make(chan app.Event, 256)

	n, err := node.New(ctx, cfg, events, printer)
	if err != nil {
		return fmt.Errorf("failed to start node: %w", err)
	}
	defer n.Close()

	a := app.New(n, printer, cfg.Files.OutputDir, app.ReadLines(os.Stdin), events)
	if cfg.Chat.Nickname != "" {
		a.SetNickname(cfg.Chat.Nickname)
	}

	return a.Run(ctx, cfg.Node.DiscoverInterval.Duration)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
