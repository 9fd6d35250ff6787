package transport

import (
	"fmt"
	"net"
	"os"
	"path/filepath"

	"crewctl/pkg/logx"
	"crewctl/pkg/proto"
)

// SocketPath returns the rendezvous socket path for an agent under dir,
// per spec.md §3/§6: "{base_dir}/{agent_id.socket_name}.sock".
func SocketPath(dir string, id proto.AgentID) string {
	return filepath.Join(dir, id.SocketName()+".sock")
}

// Listener binds one agent's rendezvous socket and accepts one connection
// at a time. A Listener is owned by a single agent worker for its entire
// lifetime.
type Listener struct {
	id         proto.AgentID
	socketPath string
	ln         net.Listener
	logger     *logx.Logger
}

// Bind computes the socket path for id under dir, removes any stale file,
// creates missing parent directories, and binds a new Unix stream
// listener. The caller must eventually call Close to release the socket
// file.
func Bind(id proto.AgentID, dir string) (*Listener, error) {
	socketPath := SocketPath(dir, id)
	logger := logx.NewLogger("transport").With(id.SocketName())

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: create socket dir %s: %v", ErrBindFailed, dir, err)
	}

	if _, err := os.Stat(socketPath); err == nil {
		if err := os.Remove(socketPath); err != nil {
			return nil, fmt.Errorf("%w: remove stale socket %s: %v", ErrBindFailed, socketPath, err)
		}
	}

	ln, err := net.Listen("unix", socketPath)
	if err != nil {
		return nil, fmt.Errorf("%w: listen on %s: %v", ErrBindFailed, socketPath, err)
	}

	logger.Info("listening on %s", socketPath)

	return &Listener{id: id, socketPath: socketPath, ln: ln, logger: logger}, nil
}

// SocketPath returns the path this listener is bound to.
func (l *Listener) SocketPath() string {
	return l.socketPath
}

// Accept blocks for one incoming connection, authenticates the peer by
// UID, and returns the one-shot Connection plus the peer's credentials.
// A hostile or mismatched-UID peer causes ErrAuthFailed; the caller should
// log and call Accept again rather than treating this as fatal.
func (l *Listener) Accept() (*Connection, PeerCredentials, error) {
	conn, err := l.ln.Accept()
	if err != nil {
		return nil, PeerCredentials{}, fmt.Errorf("transport: accept on %s: %w", l.socketPath, err)
	}

	unixConn, ok := conn.(*net.UnixConn)
	if !ok {
		_ = conn.Close()
		return nil, PeerCredentials{}, fmt.Errorf("transport: non-unix connection accepted on %s", l.socketPath)
	}

	creds, err := peerCredentialsFromConn(unixConn)
	if err != nil {
		_ = conn.Close()
		return nil, PeerCredentials{}, fmt.Errorf("transport: peer credentials: %w", err)
	}

	if !creds.IsSameUser() {
		_ = conn.Close()
		l.logger.Warn("rejecting connection from uid=%d (expected %d)", creds.UID, os.Geteuid())
		return nil, creds, ErrAuthFailed
	}

	l.logger.Debug("accepted connection from pid=%d uid=%d", creds.PID, creds.UID)
	return &Connection{conn: unixConn}, creds, nil
}

// Close stops accepting connections and removes the socket file
// (best-effort), per spec.md §4.1.2's listener teardown contract.
func (l *Listener) Close() error {
	err := l.ln.Close()
	_ = os.Remove(l.socketPath)
	return err
}
