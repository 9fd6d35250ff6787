package transport

import (
	"fmt"
	"net"

	"crewctl/pkg/proto"
)

// Connection is a one-shot peer-to-peer handshake: a client opens a
// connection, sends exactly one message, and both sides then close. This
// matches spec.md §4.1.3 and simplifies authorization (no multiplexed
// request/response tracking is needed).
type Connection struct {
	conn *net.UnixConn
}

// Connect opens a client connection to id's rendezvous socket under dir.
func Connect(id proto.AgentID, dir string) (*Connection, error) {
	socketPath := SocketPath(dir, id)
	conn, err := net.Dial("unix", socketPath)
	if err != nil {
		return nil, fmt.Errorf("%w: dial %s: %v", ErrNotReachable, socketPath, err)
	}
	unixConn, ok := conn.(*net.UnixConn)
	if !ok {
		_ = conn.Close()
		return nil, fmt.Errorf("transport: dial %s returned non-unix connection", socketPath)
	}
	return &Connection{conn: unixConn}, nil
}

// Send writes one framed message to the peer.
func (c *Connection) Send(msg *proto.AgentMessage) error {
	return writeFrame(c.conn, msg)
}

// Recv reads one framed message from the peer.
func (c *Connection) Recv() (*proto.AgentMessage, error) {
	return readFrame(c.conn)
}

// PeerCredentials queries SO_PEERCRED on this connection's underlying
// socket.
func (c *Connection) PeerCredentials() (PeerCredentials, error) {
	return peerCredentialsFromConn(c.conn)
}

// Close closes the underlying socket.
func (c *Connection) Close() error {
	return c.conn.Close()
}
