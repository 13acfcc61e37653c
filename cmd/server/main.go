package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/burrowgame/burrow/pkg/api"
	"github.com/burrowgame/burrow/pkg/config"
	"github.com/burrowgame/burrow/pkg/game"
	"github.com/burrowgame/burrow/pkg/log"
	"github.com/burrowgame/burrow/pkg/network"
	"github.com/burrowgame/burrow/pkg/persist"
	"github.com/burrowgame/burrow/pkg/version"
	"github.com/burrowgame/burrow/pkg/world"
)

func main() {
	configPath := flag.String("config", "", "Path to the YAML config file")
	tcpPort := flag.Int("tcp-port", 0, "TCP port to listen on")
	wsPort := flag.Int("ws-port", 0, "WebSocket port to listen on")
	apiPort := flag.Int("api-port", 0, "Admin API port to listen on")
	worldDir := flag.String("world", "", "World save directory")
	databaseURL := flag.String("database-url", "", "Player database connection string")
	creative := flag.Bool("creative", false, "Run in creative mode")
	logLevel := flag.String("log-level", "info", "Log level")
	flag.Parse()

	parsedLogLevel, err := log.ParseLogLevel(*logLevel)
	if err != nil {
		panic(fmt.Sprintf("Failed to parse log level: %v", err))
	}

	logger := log.New(os.Stdout, "", log.DefaultLoggerFlag, parsedLogLevel)
	log.SetDefaultLogger(logger)
	log.Info("Log level set to %s", parsedLogLevel)

	log.Info("Starting server version %s", version.Get())

	cfg, err := config.Load(*configPath)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}
	if *tcpPort != 0 {
		cfg.Server.TCPPort = *tcpPort
	}
	if *wsPort != 0 {
		cfg.Server.WSPort = *wsPort
	}
	if *apiPort != 0 {
		cfg.Server.APIPort = *apiPort
	}
	if *worldDir != "" {
		cfg.World.Path = *worldDir
	}
	if *databaseURL != "" {
		cfg.Server.DatabaseURL = *databaseURL
	}
	if *creative {
		cfg.Game.Creative = true
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	w, err := persist.LoadWorld(cfg.World.Path, cfg.World.Seed)
	if err != nil {
		if !persist.IsNotFound(err) {
			panic(fmt.Sprintf("Failed to load world: %v", err))
		}
		log.Info("No world at %s, generating %dx%d with %d levels",
			cfg.World.Path, cfg.World.Width, cfg.World.Height, cfg.World.Levels)
		levels := world.GenerateWorld(cfg.World.Width, cfg.World.Height, cfg.World.Levels, cfg.World.Seed)
		w = world.New(levels, cfg.World.Seed)
	}

	repository, err := persist.NewRepository(ctx, cfg.Server.DatabaseURL)
	if err != nil {
		panic(fmt.Sprintf("Failed to create repository: %v", err))
	}

	gameServer := game.NewGameServer(game.NewGameServerOptions{
		World:     w,
		Repo:      repository,
		WorldDir:  cfg.World.Path,
		Creative:  cfg.Game.Creative,
		GameSpeed: cfg.Game.GameSpeed,
	})

	tcpServer := network.NewTCPServer(network.NewTCPServerOptions{
		Port:    cfg.Server.GetTCPPort(),
		Handler: gameServer,
	})
	wsServer := network.NewWSServer(network.NewWSServerOptions{
		Port:    cfg.Server.GetWSPort(),
		Handler: gameServer,
	})
	apiServer := api.NewServer(api.NewServerOptions{
		Port: cfg.Server.GetAPIPort(),
		Game: gameServer,
	})

	errCh := make(chan error, 3)
	go func() { errCh <- tcpServer.Start(ctx) }()
	go func() { errCh <- wsServer.Start(ctx) }()
	go func() { errCh <- apiServer.Start(ctx) }()

	select {
	case err := <-errCh:
		if err != nil {
			log.Error("server failed: %v", err)
		}
	case <-ctx.Done():
		log.Info("Shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := gameServer.Shutdown(shutdownCtx); err != nil {
		log.Error("failed to shut down cleanly: %v", err)
	}
}
