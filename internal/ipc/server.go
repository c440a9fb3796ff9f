package ipc

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"sync"
	"syscall"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"lyricpip/internal/lyrics"
)

var logger = log.With().Str("component", "ipc").Logger()

// Update is one display state pushed to overlay clients. Blocks is
// populated only when the lyric set changed, so steady-state frames
// stay small.
type Update struct {
	Quality       lyrics.Quality `json:"quality"`
	Index         int            `json:"index"`
	TotalOffsetMs int64          `json:"total_offset_ms"`
	Track         string         `json:"track,omitempty"`
	Blocks        []lyrics.Block `json:"blocks,omitempty"`
	RawText       string         `json:"raw_text,omitempty"`
	Message       string         `json:"message,omitempty"`
}

// Command is an inbound control request from a client.
type Command struct {
	Name    string `json:"command"`
	DeltaMs int64  `json:"delta_ms,omitempty"`
	Index   int    `json:"index,omitempty"`
}

// Server broadcasts updates to overlay clients over a unix socket and
// forwards their commands to the daemon loop. One flock guarded lock
// file keeps a single daemon per socket path.
type Server struct {
	socketPath   string
	listener     net.Listener
	clients      map[string]net.Conn
	clientsLock  sync.Mutex
	last         []byte
	lastLock     sync.Mutex
	commands     chan Command
	lockFile     *os.File
	lockFilePath string
}

func NewServer(socketPath string) *Server {
	return &Server{
		socketPath:   socketPath,
		clients:      make(map[string]net.Conn),
		commands:     make(chan Command, 16),
		lockFilePath: socketPath + ".lock",
	}
}

// Commands delivers control requests received from clients.
func (s *Server) Commands() <-chan Command {
	return s.commands
}

func (s *Server) checkAndCleanOldLock() {
	content, err := os.ReadFile(s.lockFilePath)
	if os.IsNotExist(err) {
		return
	}
	if err != nil {
		logger.Warn().Err(err).Msg("failed to read lock file, removing it")
		os.Remove(s.lockFilePath)
		return
	}

	pidStr := strings.TrimSpace(string(content))
	pid, err := strconv.Atoi(pidStr)
	if pidStr == "" || err != nil {
		logger.Warn().Str("pid_str", pidStr).Msg("invalid lock file contents, removing it")
		os.Remove(s.lockFilePath)
		return
	}

	// kill(pid, 0) reports existence without signalling.
	if syscall.Kill(pid, 0) != nil {
		logger.Info().Int("old_pid", pid).Msg("stale lock file, removing it")
		os.Remove(s.lockFilePath)
		return
	}
	logger.Info().Int("existing_pid", pid).Msg("another daemon instance is still running")
}

func (s *Server) acquireLock() error {
	s.checkAndCleanOldLock()

	file, err := os.OpenFile(s.lockFilePath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("failed to create lock file: %w", err)
	}

	if err := syscall.Flock(int(file.Fd()), syscall.LOCK_EX|syscall.LOCK_NB); err != nil {
		file.Close()
		if err == syscall.EWOULDBLOCK {
			return fmt.Errorf("another lyricpip daemon is already running")
		}
		return fmt.Errorf("failed to acquire lock: %w", err)
	}

	if _, err := file.WriteString(fmt.Sprintf("%d\n", os.Getpid())); err != nil {
		syscall.Flock(int(file.Fd()), syscall.LOCK_UN)
		file.Close()
		return fmt.Errorf("failed to write PID to lock file: %w", err)
	}

	s.lockFile = file
	logger.Info().Str("lock_file", s.lockFilePath).Int("pid", os.Getpid()).Msg("acquired process lock")
	return nil
}

func (s *Server) releaseLock() {
	if s.lockFile != nil {
		syscall.Flock(int(s.lockFile.Fd()), syscall.LOCK_UN)
		s.lockFile.Close()
		os.Remove(s.lockFilePath)
		s.lockFile = nil
	}
}

func (s *Server) Start() error {
	if err := s.acquireLock(); err != nil {
		return err
	}

	if err := os.RemoveAll(s.socketPath); err != nil {
		s.releaseLock()
		return err
	}

	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		s.releaseLock()
		return err
	}
	s.listener = listener

	logger.Info().Str("socket_path", s.socketPath).Msg("IPC server listening")
	go s.acceptConnections()
	return nil
}

func (s *Server) acceptConnections() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if strings.Contains(err.Error(), "use of closed network connection") {
				return
			}
			logger.Error().Err(err).Msg("failed to accept IPC connection")
			continue
		}
		go s.handleConnection(conn)
	}
}

func (s *Server) handleConnection(conn net.Conn) {
	id := uuid.NewString()

	s.clientsLock.Lock()
	s.clients[id] = conn
	s.clientsLock.Unlock()
	logger.Info().Str("client", id).Msg("client connected")

	// New clients get the last broadcast state immediately so the
	// overlay never starts blank mid-track.
	s.lastLock.Lock()
	last := s.last
	s.lastLock.Unlock()
	if len(last) > 0 {
		if _, err := conn.Write(last); err != nil {
			logger.Error().Err(err).Str("client", id).Msg("failed to send initial state")
		}
	}

	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var cmd Command
		if err := json.Unmarshal([]byte(line), &cmd); err != nil {
			logger.Warn().Err(err).Str("client", id).Msg("discarding malformed command")
			continue
		}
		s.commands <- cmd
	}

	s.clientsLock.Lock()
	delete(s.clients, id)
	s.clientsLock.Unlock()
	conn.Close()
	logger.Info().Str("client", id).Msg("client disconnected")
}

// Broadcast sends an update to every connected client as one JSON line.
func (s *Server) Broadcast(u Update) {
	payload, err := json.Marshal(u)
	if err != nil {
		logger.Error().Err(err).Msg("failed to encode update")
		return
	}
	payload = append(payload, '\n')

	s.lastLock.Lock()
	s.last = payload
	s.lastLock.Unlock()

	s.clientsLock.Lock()
	defer s.clientsLock.Unlock()
	for id, conn := range s.clients {
		if _, err := conn.Write(payload); err != nil {
			logger.Error().Err(err).Str("client", id).Msg("failed to write to client, removing")
			conn.Close()
			delete(s.clients, id)
		}
	}
}

func (s *Server) Close() {
	if s.listener != nil {
		s.listener.Close()
	}
	s.releaseLock()
}
