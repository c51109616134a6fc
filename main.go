// Command slide2048 starts the 2048 game server.
//
// It supports two modes:
//  1. "server" (default) – runs the HTTP server exposing REST API, WebSocket, and an /mcp HTTP endpoint
//  2. "stdio-mcp" – runs an MCP stdio server and spins up an internal HTTP API if none is available
//
// Flags control host/port, config directory, logging, and optional ngrok
// tunneling for easy external access during development. Every flag can
// also be set through the environment or a .env file.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/adrg/xdg"
	"github.com/inconshreveable/log15/v3"
	"github.com/joho/godotenv"
	"github.com/jpillora/backoff"
	"github.com/mark3labs/mcp-go/server"
	"github.com/mattn/go-isatty"
	"github.com/urfave/cli/v3"
	"golang.ngrok.com/ngrok"
	ngrokConfig "golang.ngrok.com/ngrok/config"
	ngroklog "golang.ngrok.com/ngrok/log/log15"
	"golang.org/x/sync/errgroup"

	"github.com/wricardo/slide2048/api"
	"github.com/wricardo/slide2048/game/config"
	"github.com/wricardo/slide2048/game/service"
	"github.com/wricardo/slide2048/game/session"
	"github.com/wricardo/slide2048/transport/mcp"
	"github.com/wricardo/slide2048/transport/websocket"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "2048 Game Server"
)

const (
	// DefaultExternalURL is where stdio-mcp looks for an already running API
	DefaultExternalURL = "http://localhost:8080"

	shutdownTimeout = 10 * time.Second
	cleanupInterval = time.Hour
	sessionMaxIdle  = 24 * time.Hour
)

// serverOptions are the flag values shared by every mode
type serverOptions struct {
	Host        string
	Port        int
	ConfigDir   string
	Debug       bool
	LogFormat   string
	Ngrok       bool
	NgrokAuth   string
	NgrokDomain string
}

func (o serverOptions) addr() string {
	return net.JoinHostPort(o.Host, fmt.Sprint(o.Port))
}

// defaultConfigDir returns the default configuration directory: CONFIG_DIR,
// then ./configs when present, then the user's XDG config directory.
func defaultConfigDir() string {
	if dir := os.Getenv("CONFIG_DIR"); dir != "" {
		return dir
	}
	if info, err := os.Stat("configs"); err == nil && info.IsDir() {
		return "configs"
	}
	return filepath.Join(xdg.ConfigHome, "slide2048", "configs")
}

// newLogger builds the root logger. Format is "terminal", "json" or
// "logfmt"; an empty format picks terminal output for a TTY and logfmt
// otherwise.
func newLogger(w io.Writer, debug bool, format string, tty bool) log15.Logger {
	var fmtr log15.Format
	switch strings.ToLower(format) {
	case "json":
		fmtr = log15.JsonFormat()
	case "logfmt":
		fmtr = log15.LogfmtFormat()
	case "terminal":
		fmtr = log15.TerminalFormat()
	default:
		if tty {
			fmtr = log15.TerminalFormat()
		} else {
			fmtr = log15.LogfmtFormat()
		}
	}

	level := log15.LvlInfo
	if debug {
		level = log15.LvlDebug
	}

	logger := log15.New()
	logger.SetHandler(log15.LvlFilterHandler(level, log15.StreamHandler(w, fmtr)))
	return logger
}

// optionsFromCommand reads the flag values
func optionsFromCommand(cmd *cli.Command) serverOptions {
	return serverOptions{
		Host:        cmd.String("host"),
		Port:        cmd.Int("port"),
		ConfigDir:   cmd.String("config-dir"),
		Debug:       cmd.Bool("debug"),
		LogFormat:   cmd.String("log-format"),
		Ngrok:       cmd.Bool("ngrok"),
		NgrokAuth:   cmd.String("ngrok-auth"),
		NgrokDomain: cmd.String("ngrok-domain"),
	}
}

func rootFlags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{
			Name:    "port",
			Value:   8080,
			Usage:   "HTTP server port",
			Sources: cli.EnvVars("PORT"),
		},
		&cli.StringFlag{
			Name:    "host",
			Value:   "localhost",
			Usage:   "HTTP server host",
			Sources: cli.EnvVars("HOST"),
		},
		&cli.StringFlag{
			Name:    "config-dir",
			Value:   defaultConfigDir(),
			Usage:   "Directory containing game presets",
			Sources: cli.EnvVars("CONFIG_DIR"),
		},
		&cli.BoolFlag{
			Name:    "debug",
			Usage:   "Enable debug logging",
			Sources: cli.EnvVars("DEBUG"),
		},
		&cli.StringFlag{
			Name:    "log-format",
			Usage:   "Log format: terminal, json or logfmt (default: terminal on a TTY, logfmt otherwise)",
			Sources: cli.EnvVars("LOG_FORMAT"),
		},
		&cli.BoolFlag{
			Name:    "ngrok",
			Usage:   "Enable ngrok tunnel",
			Sources: cli.EnvVars("NGROK_ENABLED"),
		},
		&cli.StringFlag{
			Name:    "ngrok-auth",
			Usage:   "Ngrok auth token",
			Sources: cli.EnvVars("NGROK_AUTHTOKEN", "NGROK_AUTH_TOKEN"),
		},
		&cli.StringFlag{
			Name:    "ngrok-domain",
			Usage:   "Custom ngrok domain (optional)",
			Sources: cli.EnvVars("NGROK_DOMAIN"),
		},
	}
}

// newApp builds the command tree
func newApp() *cli.Command {
	serve := func(ctx context.Context, cmd *cli.Command) error {
		opts := optionsFromCommand(cmd)
		logger := newLogger(os.Stderr, opts.Debug, opts.LogFormat, isatty.IsTerminal(os.Stderr.Fd()))
		logger.Info("starting", "app", AppName, "version", Version, "mode", "server")
		return runHTTPServer(ctx, opts, logger)
	}

	return &cli.Command{
		Name:    "slide2048",
		Usage:   AppName,
		Version: Version,
		Flags:   rootFlags(),
		Action:  serve,
		Commands: []*cli.Command{
			{
				Name:    "server",
				Aliases: []string{"http"},
				Usage:   "Run HTTP server with API, WebSocket, and MCP endpoint (default)",
				Action:  serve,
			},
			{
				Name:    "stdio-mcp",
				Aliases: []string{"mcp", "mcp-stdio"},
				Usage:   "Run MCP stdio server, starting an internal HTTP API when none is running",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					opts := optionsFromCommand(cmd)
					// stdout carries the protocol, so logs always go to stderr
					logger := newLogger(os.Stderr, opts.Debug, opts.LogFormat, false)
					logger.Info("starting", "app", AppName, "version", Version, "mode", "stdio-mcp")
					return runStdioMCP(ctx, opts, DefaultExternalURL, logger)
				},
			},
			{
				Name:  "version",
				Usage: "Show version information",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					fmt.Fprintf(cmd.Root().Writer, "%s v%s\n", AppName, Version)
					return nil
				},
			},
		},
	}
}

// main loads .env, then runs the selected command until a signal arrives
func main() {
	envErr := godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if envErr != nil && !os.IsNotExist(envErr) {
		fmt.Fprintf(os.Stderr, "Warning: error loading .env file: %v\n", envErr)
	}

	if err := newApp().Run(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// initializeServices wires session/config managers and the game service
func initializeServices(configDir string, logger log15.Logger) (service.GameService, *session.Manager, error) {
	configManager, err := config.NewManager(configDir, logger.New("component", "config"))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create config manager: %w", err)
	}

	sessionManager := session.NewManager(logger.New("component", "session"))
	gameService := service.NewGameService(sessionManager, configManager, logger.New("component", "service"))

	logger.Info("services initialized", "config_dir", configDir, "presets", configManager.Count())
	return gameService, sessionManager, nil
}

// sessionCleanupRoutine periodically removes sessions that have not been
// accessed within maxIdle, until ctx is done
func sessionCleanupRoutine(ctx context.Context, manager *session.Manager, interval, maxIdle time.Duration, logger log15.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := manager.CleanupExpiredSessions(maxIdle); removed > 0 {
				logger.Info("cleaned up expired sessions", "removed", removed)
			}
		}
	}
}

// mcpHTTPHandler serves single JSON-RPC MCP messages over POST
func mcpHTTPHandler(mcpServer *server.MCPServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "Failed to read request", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		response := mcpServer.HandleMessage(r.Context(), body)
		if response == nil {
			// Notifications have no response
			w.WriteHeader(http.StatusAccepted)
			return
		}

		responseData, err := json.Marshal(response)
		if err != nil {
			http.Error(w, "Failed to marshal response", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(responseData)
	}
}

// newRouter mounts the REST API and the /mcp endpoint
func newRouter(apiServer http.Handler, mcpClient *mcp.Client) http.Handler {
	mainRouter := http.NewServeMux()
	mainRouter.Handle("/", apiServer)
	mainRouter.HandleFunc("/mcp", mcpHTTPHandler(mcpClient.GetMCPServer()))
	return mainRouter
}

// runHTTPServer serves the REST API, WebSocket hub, and /mcp endpoint until
// ctx is done. If ngrok is enabled, it also serves through a public tunnel.
func runHTTPServer(ctx context.Context, opts serverOptions, logger log15.Logger) error {
	gameService, sessionManager, err := initializeServices(opts.ConfigDir, logger)
	if err != nil {
		return err
	}

	listener, err := net.Listen("tcp", opts.addr())
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", opts.addr(), err)
	}
	addr := listener.Addr().String()

	g, ctx := errgroup.WithContext(ctx)

	hub := websocket.NewHub(logger.New("component", "websocket"))
	apiServer := api.NewServer(gameService, hub, logger.New("component", "api"))
	mcpClient := mcp.NewClient("http://"+addr, logger.New("component", "mcp"))
	handler := newRouter(apiServer, mcpClient)

	httpServer := &http.Server{
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g.Go(func() error {
		hub.Run(ctx)
		return nil
	})

	g.Go(func() error {
		sessionCleanupRoutine(ctx, sessionManager, cleanupInterval, sessionMaxIdle, logger)
		return nil
	})

	g.Go(func() error {
		logger.Info("HTTP server listening", "addr", addr,
			"api", "http://"+addr+"/api",
			"websocket", "ws://"+addr+"/ws?session=<session_id>",
			"mcp", "http://"+addr+"/mcp")
		if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server failed: %w", err)
		}
		return nil
	})

	if opts.Ngrok {
		g.Go(func() error {
			return runNgrok(ctx, opts, handler, logger.New("component", "ngrok"))
		})
	}

	g.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", "err", err)
		}
		return nil
	})

	err = g.Wait()
	logger.Info("server stopped")
	return err
}

// runNgrok serves handler through an ngrok tunnel until ctx is done. A
// missing auth token or a failed tunnel is logged, not fatal.
func runNgrok(ctx context.Context, opts serverOptions, handler http.Handler, logger log15.Logger) error {
	if opts.NgrokAuth == "" {
		logger.Warn("ngrok enabled but no auth token provided (use --ngrok-auth, NGROK_AUTHTOKEN, or NGROK_AUTH_TOKEN)")
		return nil
	}

	var tunnel ngrokConfig.Tunnel
	if opts.NgrokDomain != "" {
		tunnel = ngrokConfig.HTTPEndpoint(ngrokConfig.WithDomain(opts.NgrokDomain))
		logger.Info("using custom ngrok domain", "domain", opts.NgrokDomain)
	} else {
		tunnel = ngrokConfig.HTTPEndpoint()
	}

	logger.Info("starting ngrok tunnel")
	tun, err := ngrok.Listen(ctx,
		tunnel,
		ngrok.WithAuthtoken(opts.NgrokAuth),
		ngrok.WithLogger(ngroklog.NewLogger(logger)),
	)
	if err != nil {
		logger.Error("failed to start ngrok tunnel", "err", err)
		return nil
	}

	url := tun.URL()
	logger.Info("ngrok tunnel established", "url", url,
		"api", url+"/api", "websocket", url+"/ws?session=<session_id>", "mcp", url+"/mcp")

	tunnelServer := &http.Server{Handler: handler}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		tunnelServer.Shutdown(shutdownCtx)
	}()

	if err := tunnelServer.Serve(tun); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("ngrok server error", "err", err)
	}
	logger.Info("ngrok tunnel closed")
	return nil
}

// apiAvailable reports whether a 2048 API answers its health check at baseURL
func apiAvailable(ctx context.Context, client *http.Client, baseURL string) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/api/health", nil)
	if err != nil {
		return false
	}
	resp, err := client.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// waitForAPI polls baseURL with exponential backoff until the API answers or
// maxAttempts probes have failed
func waitForAPI(ctx context.Context, baseURL string, b *backoff.Backoff, maxAttempts int) error {
	client := &http.Client{Timeout: time.Second}
	for {
		if apiAvailable(ctx, client, baseURL) {
			return nil
		}
		if int(b.Attempt())+1 >= maxAttempts {
			return fmt.Errorf("API at %s not ready after %d attempts", baseURL, maxAttempts)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(b.Duration()):
		}
	}
}

// startInternalAPI serves the REST API on a random loopback port and
// returns its base URL. The server stops when ctx is done.
func startInternalAPI(ctx context.Context, g *errgroup.Group, opts serverOptions, logger log15.Logger) (string, error) {
	gameService, sessionManager, err := initializeServices(opts.ConfigDir, logger)
	if err != nil {
		return "", err
	}

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return "", fmt.Errorf("failed to get available port: %w", err)
	}
	baseURL := "http://" + listener.Addr().String()

	hub := websocket.NewHub(logger.New("component", "websocket"))
	httpServer := &http.Server{Handler: api.NewServer(gameService, hub, logger.New("component", "api"))}

	g.Go(func() error {
		hub.Run(ctx)
		return nil
	})
	g.Go(func() error {
		sessionCleanupRoutine(ctx, sessionManager, cleanupInterval, sessionMaxIdle, logger)
		return nil
	})
	g.Go(func() error {
		if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("internal HTTP server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	logger.Info("internal HTTP server started", "url", baseURL)
	return baseURL, nil
}

// runStdioMCP runs an MCP stdio server. It reuses an external API at
// externalURL when one answers; otherwise it starts an internal API bound
// to a random loopback port and targets that.
func runStdioMCP(ctx context.Context, opts serverOptions, externalURL string, logger log15.Logger) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, ctx := errgroup.WithContext(ctx)

	baseURL := externalURL
	probe := &http.Client{Timeout: 2 * time.Second}
	if apiAvailable(ctx, probe, externalURL) {
		logger.Info("external API server found, using it for MCP", "url", externalURL)
	} else {
		logger.Info("no external API server found, starting internal HTTP server", "url", externalURL)

		var err error
		baseURL, err = startInternalAPI(ctx, g, opts, logger)
		if err != nil {
			return err
		}

		b := &backoff.Backoff{Min: 10 * time.Millisecond, Max: 500 * time.Millisecond, Factor: 2, Jitter: true}
		if err := waitForAPI(ctx, baseURL, b, 10); err != nil {
			return err
		}
	}

	mcpClient := mcp.NewClient(baseURL, logger.New("component", "mcp"))
	logger.Info("MCP stdio server ready", "api", baseURL)

	if err := server.ServeStdio(mcpClient.GetMCPServer()); err != nil {
		return fmt.Errorf("MCP stdio server error: %w", err)
	}

	cancel()
	return g.Wait()
}
