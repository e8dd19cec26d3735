package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/wfunc/pigdice/broadcast"
	"github.com/wfunc/pigdice/config"
	"github.com/wfunc/pigdice/controller"
	"github.com/wfunc/pigdice/dice"
	"github.com/wfunc/pigdice/logger"
	"github.com/wfunc/pigdice/monitor"
	"github.com/wfunc/pigdice/network"
	"github.com/wfunc/pigdice/persistence"
	"github.com/wfunc/pigdice/room"
	"github.com/wfunc/pigdice/rpc"
	"github.com/wfunc/pigdice/server"
	"github.com/wfunc/pigdice/services"
	"github.com/wfunc/pigdice/session"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig(".")
	if err != nil {
		logger.Init("info")
		logger.Log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Init(cfg.Log.Level)
	defer logger.Sync()

	// Initialize match history
	db, err := persistence.Open(cfg.Database)
	if err != nil {
		logger.Log.Fatalf("Failed to open match history store: %v", err)
	}
	defer db.Close()
	logger.Log.Infof("Match history store %q ready.", cfg.Database.Driver)

	recorder := persistence.NewRecorder(db, cfg.Database.QueueSize)
	defer recorder.Close()

	src := dice.NewRandom()
	rooms := room.NewRoomManager(src, room.Options{
		CodeLength:      cfg.Game.CodeLength,
		MaxCodeAttempts: cfg.Game.MaxCodeAttempts,
		WinScore:        cfg.Game.WinScore,
	})
	mon := monitor.NewMonitor("pigdice")
	sessions := session.NewManager()
	ctrl := controller.New(rooms, src, broadcast.NewSessionBroadcaster(sessions), recorder, mon, controller.Options{
		IdleTTL: cfg.Game.IdleTTL,
	})
	lobby := rpc.NewLobbyService(ctrl, services.NewStatsService(db))

	// Initialize Game Server
	gameServer := server.NewGameServer(server.Options{
		HTTPAddress: cfg.Server.HTTPAddress,
		RPCAddress:  cfg.Server.RPCAddress,
		Connection: network.Options{
			SendQueueSize:  cfg.Server.SendQueueSize,
			PingInterval:   cfg.Server.PingInterval,
			MaxMessageSize: cfg.Server.MaxMessageSize,
		},
		SweepInterval: cfg.Game.SweepInterval,
	}, ctrl, sessions, mon, lobby)

	errc := make(chan error, 1)
	go func() {
		errc <- gameServer.Start()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errc:
		if err != nil {
			logger.Log.Errorf("Server stopped: %v", err)
		}
	case sig := <-stop:
		logger.Log.Infof("Received %s, shutting down", sig)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := gameServer.Shutdown(ctx); err != nil {
		logger.Log.Warnf("Shutdown: %v", err)
	}
	logger.Log.Info("Game server stopped.")
}
