package tmtcserver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/skyhaven-space/obsw/internal/parsers"
	"github.com/skyhaven-space/obsw/pkg/log"
)

// Config bounds the per-connection buffers and the inner loop's read
// deadline, which doubles as the cadence at which a quiet connection gets a
// chance to drain newly-arrived TM even without incoming TC traffic.
type Config struct {
	Addr           string
	InnerLoopDelay time.Duration
	TcBufferSize   int
}

// Server accepts one connection at a time — spec.md's concurrency model does
// not require concurrent TMTC links, and a single ground station connection
// is the expected steady state.
type Server struct {
	cfg      Config
	listener net.Listener
	parser   TcParser
	framer   TmFramer
	tcRecv   parsers.TcReceiver
	tmSrc    TmPacketSource
}

func Listen(cfg Config, parser TcParser, framer TmFramer, tcRecv parsers.TcReceiver, tmSrc TmPacketSource) (*Server, error) {
	ln, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		return nil, fmt.Errorf("tmtcserver: listen %s: %w", cfg.Addr, err)
	}
	return &Server{cfg: cfg, listener: ln, parser: parser, framer: framer, tcRecv: tcRecv, tmSrc: tmSrc}, nil
}

func (s *Server) LocalAddr() net.Addr { return s.listener.Addr() }

func (s *Server) Close() error { return s.listener.Close() }

// Serve accepts and handles connections sequentially until ctx is canceled
// or the listener is closed.
func (s *Server) Serve(ctx context.Context) error {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
			}
			return fmt.Errorf("tmtcserver: accept: %w", err)
		}
		if err := s.handleConn(conn); err != nil {
			log.Warnf("tmtcserver: connection %s: %v", conn.RemoteAddr(), err)
		}
	}
}

// handleConn runs the read/parse/drain loop for one connection.
//
// Exit condition: spec.md leaves the choice between "peer half-close" and
// "idle timeout" to the implementer. This server treats a read timeout as a
// no-op tick that keeps the loop alive — an idle TMTC link with infrequent
// commanding is the expected steady state, not a reason to drop the
// connection — and only exits on a genuine EOF (the peer closing its write
// side) once a full tick produced neither new TC bytes nor outgoing TM.
func (s *Server) handleConn(conn net.Conn) error {
	defer conn.Close()

	bufSize := s.cfg.TcBufferSize
	if bufSize == 0 {
		bufSize = 4096
	}
	buf := make([]byte, bufSize)
	writeIdx := 0

	for {
		if s.cfg.InnerLoopDelay > 0 {
			_ = conn.SetReadDeadline(time.Now().Add(s.cfg.InnerLoopDelay))
		}

		n, readErr := conn.Read(buf[writeIdx:])
		eof := false
		if readErr != nil {
			var netErr net.Error
			switch {
			case errors.As(readErr, &netErr) && netErr.Timeout():
				n = 0
			case errors.Is(readErr, io.EOF):
				eof = true
			default:
				return fmt.Errorf("read: %w", readErr)
			}
		}

		if n > 0 {
			_, nextWriteIdx := s.parser.Parse(buf[:writeIdx+n], s.tcRecv)
			writeIdx = nextWriteIdx
		}

		sent, err := s.framer.Drain(s.tmSrc, conn)
		if err != nil {
			return fmt.Errorf("tm drain: %w", err)
		}

		if eof && sent == 0 {
			return nil
		}
	}
}
