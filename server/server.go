package server

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/wfunc/pigdice/controller"
	"github.com/wfunc/pigdice/logger"
	"github.com/wfunc/pigdice/monitor"
	"github.com/wfunc/pigdice/network"
	"github.com/wfunc/pigdice/rpc"
	"github.com/wfunc/pigdice/session"
	"github.com/wfunc/pigdice/timer"
)

type Options struct {
	HTTPAddress string
	// RPCAddress enables the admin RPC listener when non-empty.
	RPCAddress string
	Connection network.Options
	// SweepInterval is how often idle rooms are looked for. Zero disables the sweep.
	SweepInterval time.Duration
}

// GameServer accepts websocket clients and feeds their messages to the controller.
type GameServer struct {
	opts           Options
	upgrader       websocket.Upgrader
	controller     *controller.Controller
	sessionManager *session.Manager
	monitor        *monitor.Monitor
	lobby          *rpc.LobbyService
	rpcServer      *rpc.Server
	timers         *timer.TimerManager
	httpServer     *http.Server
	conns          sync.WaitGroup
	shutdownOnce   sync.Once
	shutdownChan   chan struct{}
}

func NewGameServer(opts Options, ctrl *controller.Controller, sessions *session.Manager, mon *monitor.Monitor, lobby *rpc.LobbyService) *GameServer {
	s := &GameServer{
		opts:           opts,
		controller:     ctrl,
		sessionManager: sessions,
		monitor:        mon,
		lobby:          lobby,
		shutdownChan:   make(chan struct{}),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // 允许所有跨域请求
			},
		},
	}
	s.httpServer = &http.Server{
		Addr:              opts.HTTPAddress,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler routes /ws, /metrics and /healthz.
func (s *GameServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.Handle("/metrics", s.monitor.Handler())
	mux.HandleFunc("/healthz", s.handleHealth)
	return mux
}

// Start runs the admin RPC listener and the idle sweep, then serves HTTP
// until Shutdown.
func (s *GameServer) Start() error {
	if s.opts.RPCAddress != "" && s.lobby != nil {
		rpcServer, err := rpc.NewServer(s.opts.RPCAddress)
		if err != nil {
			return err
		}
		if err := rpcServer.Register(rpc.ServiceName, s.lobby); err != nil {
			rpcServer.Stop()
			return err
		}
		s.rpcServer = rpcServer
		go rpcServer.Start()
	}

	s.startSweep()

	logger.Log.Infof("Game server listening on %s", s.opts.HTTPAddress)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *GameServer) startSweep() {
	if s.opts.SweepInterval <= 0 {
		return
	}
	s.timers = timer.NewTimerManager(time.Second)
	s.timers.AddTimer(s.opts.SweepInterval, s.opts.SweepInterval, func() {
		if n := s.controller.SweepIdle(time.Now()); n > 0 {
			logger.Log.Infof("Closed %d idle rooms", n)
		}
	})
}

// Shutdown stops accepting clients, closes every session and waits for the
// connection handlers to finish or ctx to expire.
func (s *GameServer) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		close(s.shutdownChan)
		err = s.httpServer.Shutdown(ctx)

		if s.rpcServer != nil {
			s.rpcServer.Stop()
		}
		if s.timers != nil {
			s.timers.Stop()
		}

		s.sessionManager.CloseAll()
		done := make(chan struct{})
		go func() {
			s.conns.Wait()
			close(done)
		}()
		select {
		case <-done:
		case <-ctx.Done():
			if err == nil {
				err = ctx.Err()
			}
		}
	})
	return err
}

func (s *GameServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	select {
	case <-s.shutdownChan:
		http.Error(w, "shutting down", http.StatusServiceUnavailable)
	default:
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	}
}

func (s *GameServer) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	select {
	case <-s.shutdownChan:
		http.Error(w, "shutting down", http.StatusServiceUnavailable)
		return
	default:
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Log.Infof("Failed to upgrade connection: %v", err)
		return
	}

	s.conns.Add(1)
	defer s.conns.Done()
	s.handleConnection(conn)
}

func (s *GameServer) handleConnection(conn *websocket.Conn) {
	wsConn := network.NewWSConnection(conn, s.opts.Connection)
	sess := session.NewSession(uuid.New().String(), wsConn)
	s.sessionManager.Add(sess)
	s.monitor.IncOnlinePlayers()

	logger.Log.Infof("New connection from %s, session ID: %s", wsConn.RemoteAddr(), sess.GetID())

	defer func() {
		logger.Log.Infof("Connection closed from %s, session ID: %s", wsConn.RemoteAddr(), sess.GetID())
		s.controller.Disconnect(sess.GetID())
		s.sessionManager.Remove(sess.GetID())
		s.monitor.DecOnlinePlayers()
		wsConn.Close()
	}()

	for {
		msg, err := wsConn.ReadMessage()
		if errors.Is(err, network.ErrMalformedMessage) {
			logger.Log.Infof("Session %s sent a malformed frame: %v", sess.GetID(), err)
			continue
		}
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Log.Infof("Session %s read error: %v", sess.GetID(), err)
			}
			return
		}
		sess.Touch()
		s.controller.Handle(sess.GetID(), *msg)
	}
}
