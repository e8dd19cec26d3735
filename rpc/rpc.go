package rpc

import (
	"context"
	"errors"
	"net"
	"net/rpc"
	"time"

	"github.com/wfunc/pigdice/logger"
	"github.com/wfunc/pigdice/room"
	"github.com/wfunc/pigdice/services"
)

// ServiceName is the name LobbyService is registered under.
const ServiceName = "LobbyService"

// statsTimeout bounds a single stats query.
const statsTimeout = 5 * time.Second

// Server manages the admin RPC listener.
type Server struct {
	listener net.Listener
	address  string
	rpc      *rpc.Server
}

// NewServer listens on addr. Services are registered on the server's own
// rpc.Server, not the package default.
func NewServer(addr string) (*Server, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	return &Server{
		listener: listener,
		address:  listener.Addr().String(),
		rpc:      rpc.NewServer(),
	}, nil
}

// Register exposes rcvr under name.
func (s *Server) Register(name string, rcvr any) error {
	return s.rpc.RegisterName(name, rcvr)
}

func (s *Server) Addr() string {
	return s.address
}

// Start begins accepting RPC connections. It returns once the listener is closed.
func (s *Server) Start() {
	logger.Log.Infof("RPC server listening on %s", s.address)
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				logger.Log.Info("RPC server listener closed.")
				return
			}
			logger.Log.Errorf("RPC server accept error: %v", err)
			continue
		}
		go s.rpc.ServeConn(conn)
	}
}

// Stop closes the listener. Connections already accepted finish on their own.
func (s *Server) Stop() {
	if s.listener != nil {
		logger.Log.Info("Stopping RPC server.")
		s.listener.Close()
	}
}

// RoomLister reports the live rooms.
type RoomLister interface {
	Rooms() []room.Summary
}

// LobbyService is the struct that exposes RPC methods.
type LobbyService struct {
	rooms RoomLister
	stats *services.StatsService
}

func NewLobbyService(rooms RoomLister, stats *services.StatsService) *LobbyService {
	return &LobbyService{rooms: rooms, stats: stats}
}

type ListRoomsArgs struct {
	// Status filters by room status ("waiting", "playing", "finished"). Empty lists all.
	Status string
}

type ListRoomsReply struct {
	Rooms []room.Summary
}

func (ls *LobbyService) ListRooms(args *ListRoomsArgs, reply *ListRoomsReply) error {
	for _, s := range ls.rooms.Rooms() {
		if args.Status != "" && s.Status != args.Status {
			continue
		}
		reply.Rooms = append(reply.Rooms, s)
	}
	return nil
}

type GetMatchStatsArgs struct {
	// Timeout bounds the query. Zero uses the default.
	Timeout time.Duration
}

type GetMatchStatsReply struct {
	Stats services.Report
}

func (ls *LobbyService) GetMatchStats(args *GetMatchStatsArgs, reply *GetMatchStatsReply) error {
	timeout := args.Timeout
	if timeout <= 0 {
		timeout = statsTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	report, err := ls.stats.GetMatchStats(ctx)
	if err != nil {
		return err
	}
	reply.Stats = report
	return nil
}
