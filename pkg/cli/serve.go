package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mockhive/mockhive/pkg/config"
	"github.com/mockhive/mockhive/pkg/engine"
	"github.com/mockhive/mockhive/pkg/logging"
	"github.com/mockhive/mockhive/pkg/store/file"
)

var (
	serveDir       string
	serveConfigs   []string
	serveLogLevel  string
	serveLogFormat string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start mock servers from config files",
	Long: `Start every mock server defined in a config directory.

The directory holds one JSON file per server, keyed by server id. Individual
JSON or YAML config files can be added with --config; they are imported into
the directory store before starting.`,
	Example: `  # Serve everything under ./mocks
  mockhive serve --dir ./mocks

  # Import a YAML config and serve it
  mockhive serve --dir ./mocks --config payments.yaml

  # JSON logs at debug level
  mockhive serve --dir ./mocks --log-level debug --log-format json`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVarP(&serveDir, "dir", "d", "./mocks", "Directory of server config files")
	serveCmd.Flags().StringArrayVarP(&serveConfigs, "config", "c", nil, "Config file to import before starting (repeatable)")
	serveCmd.Flags().StringVar(&serveLogLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	serveCmd.Flags().StringVar(&serveLogFormat, "log-format", "text", "Log format (text, json)")
}

func runServe(cmd *cobra.Command, args []string) error {
	log := logging.New(logging.Config{
		Level:  logging.ParseLevel(serveLogLevel),
		Format: logging.ParseFormat(serveLogFormat),
	})

	configs, err := file.New(serveDir)
	if err != nil {
		return fmt.Errorf("open config dir: %w", err)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	manager := engine.NewManager(configs, engine.WithManagerLogger(log))

	for _, path := range serveConfigs {
		cfg, err := config.Load(path)
		if err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
		if err := manager.Create(ctx, cfg); err != nil {
			return fmt.Errorf("import %s: %w", path, err)
		}
		log.Info("config imported", "server", cfg.ID, "file", filepath.Base(path))
	}

	ids, err := configs.List(ctx)
	if err != nil {
		return fmt.Errorf("list configs: %w", err)
	}
	if len(ids) == 0 {
		return fmt.Errorf("no server configs found in %s", serveDir)
	}
	sort.Strings(ids)

	started := 0
	for _, id := range ids {
		inst, err := manager.Start(ctx, id)
		if err != nil {
			log.Error("server failed to start", "server", id, "error", err)
			continue
		}
		fmt.Printf("  %s listening on %s\n", serverLabel(inst.ID(), inst.Name()), listenURL(inst.Config().Host, inst.Port()))
		started++
	}
	if started == 0 {
		return fmt.Errorf("no servers could be started")
	}
	fmt.Printf("mockhive serving %d of %d servers. Press Ctrl+C to stop.\n", started, len(ids))

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-stop:
		log.Info("shutting down", "signal", sig.String())
	case <-ctx.Done():
	}

	manager.StopAll(context.Background())
	return nil
}

// serverLabel keeps CLI output stable for ids vs display names.
func serverLabel(id, name string) string {
	if name == "" || strings.EqualFold(name, id) {
		return id
	}
	return fmt.Sprintf("%s (%s)", name, id)
}

// listenURL renders the address a started server is reachable at. A
// wildcard bind is shown as localhost since that is what a user can open.
func listenURL(host string, port int) string {
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "127.0.0.1"
	}
	if strings.Contains(host, ":") {
		host = "[" + host + "]"
	}
	return fmt.Sprintf("http://%s:%d", host, port)
}
