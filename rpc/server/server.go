package server

import (
	"bufio"
	"github.com/ValentinKolb/tsput/rpc/common"
	"github.com/ValentinKolb/tsput/rpc/transport"
	"github.com/go-faster/errors"
	"github.com/lni/dragonboat/v4/logger"
	"io"
	"net"
	"sync"
	"time"
)

var Logger = logger.GetLogger("server")

// maxLineSize bounds a single received line, longer lines close the connection
const maxLineSize = 1024 * 1024

// LineHandler is called for every received line, without the trailing newline.
// Lines of different connections are handled concurrently.
type LineHandler func(remote net.Addr, line string)

// LineServer accepts line protocol connections and hands every line to a handler.
// It never writes back to the client.
type LineServer struct {
	connector transport.IServerConnector
	handler   LineHandler

	mu       sync.Mutex
	config   common.ServerConfig
	listener net.Listener
	conns    map[net.Conn]struct{}
	closed   bool
	done     chan struct{}

	wg sync.WaitGroup
}

// NewLineServer creates a new sink server
//
// Usage:
//
//	s := server.NewLineServer(tcp.NewTCPServerConnector(), func(remote net.Addr, line string) {
//		fmt.Println(line)
//	})
//
//	if err := s.Listen(config); err != nil {
//		panic(err)
//	}
func NewLineServer(connector transport.IServerConnector, handler LineHandler) *LineServer {
	return &LineServer{
		connector: connector,
		handler:   handler,
		conns:     make(map[net.Conn]struct{}),
		done:      make(chan struct{}),
	}
}

// Start opens the listener and serves connections in the background
func (s *LineServer) Start(config common.ServerConfig) error {
	listener, err := s.connector.Listen(config.Endpoint)
	if err != nil {
		return errors.Wrap(err, "failed to create listener")
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		_ = listener.Close()
		return errors.New("server closed")
	}
	s.config = config
	s.listener = listener
	s.mu.Unlock()

	Logger.Infof("Starting %s sink server on %s", s.connector.GetName(), listener.Addr())

	s.wg.Add(1)
	go s.acceptLoop(listener)
	return nil
}

// Listen starts the server and blocks until Close is called
func (s *LineServer) Listen(config common.ServerConfig) error {
	if err := s.Start(config); err != nil {
		return err
	}
	<-s.done
	return nil
}

// Addr returns the listening address, nil before Start
func (s *LineServer) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Close stops accepting, closes all client connections and waits for their goroutines
func (s *LineServer) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	close(s.done)

	var err error
	if s.listener != nil {
		err = s.listener.Close()
	}
	for conn := range s.conns {
		_ = conn.Close()
	}
	s.mu.Unlock()

	s.wg.Wait()
	return err
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

func (s *LineServer) acceptLoop(listener net.Listener) {
	defer s.wg.Done()

	for {
		conn, err := listener.Accept()
		if err != nil {
			if s.isClosed() {
				return
			}
			Logger.Errorf("Accept error: %v", err)
			time.Sleep(10 * time.Millisecond)
			continue
		}

		if !s.track(conn) {
			_ = conn.Close()
			return
		}

		s.wg.Add(1)
		go s.handleConnection(conn)
	}
}

// handleConnection reads lines until the client disconnects
func (s *LineServer) handleConnection(conn net.Conn) {
	defer s.wg.Done()
	defer s.untrack(conn)
	defer conn.Close()

	// Timeout in seconds
	timeout := time.Duration(s.config.TimeoutSecond) * time.Second
	remote := conn.RemoteAddr()
	Logger.Debugf("Connection from %s opened", remote)

	reader := bufio.NewReaderSize(conn, 64*1024)
	for {
		if timeout > 0 {
			if err := conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
				Logger.Errorf("Failed to set read deadline: %v", err)
				return
			}
		}

		line, err := readLine(reader)
		if len(line) > 0 {
			s.handler(remote, line)
		}

		// Case EOF: Connection closed by client
		if err == io.EOF {
			Logger.Debugf("Connection from %s closed by client", remote)
			return
		}

		if err != nil {
			if !s.isClosed() {
				Logger.Errorf("Error reading from %s: %v", remote, err)
			}
			return
		}
	}
}

// readLine reads one line without its newline
func readLine(r *bufio.Reader) (string, error) {
	var buf []byte
	for {
		chunk, isPrefix, err := r.ReadLine()
		buf = append(buf, chunk...)
		if len(buf) > maxLineSize {
			return "", errors.Errorf("line exceeds %d bytes", maxLineSize)
		}
		if err != nil || !isPrefix {
			return string(buf), err
		}
	}
}

func (s *LineServer) track(conn net.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.conns[conn] = struct{}{}
	return true
}

func (s *LineServer) untrack(conn net.Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.conns, conn)
}

func (s *LineServer) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
