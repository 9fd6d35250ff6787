//go:build unix

package transport

import (
	"fmt"
	"net"
	"os"

	"golang.org/x/sys/unix"
)

// PeerCredentials carries the kernel-supplied identity of the process on
// the other end of a local stream socket connection.
type PeerCredentials struct {
	PID int32
	UID uint32
	GID uint32
}

// IsSameUser reports whether the peer is running as the current process's
// effective UID. PID and GID are informational only (spec.md §4.1.2).
func (c PeerCredentials) IsSameUser() bool {
	return int(c.UID) == os.Geteuid()
}

// peerCredentialsFromConn queries SO_PEERCRED on a Unix domain socket
// connection.
func peerCredentialsFromConn(conn *net.UnixConn) (PeerCredentials, error) {
	raw, err := conn.SyscallConn()
	if err != nil {
		return PeerCredentials{}, fmt.Errorf("transport: get raw conn: %w", err)
	}

	var ucred *unix.Ucred
	var sockErr error
	ctrlErr := raw.Control(func(fd uintptr) {
		ucred, sockErr = unix.GetsockoptUcred(int(fd), unix.SOL_SOCKET, unix.SO_PEERCRED)
	})
	if ctrlErr != nil {
		return PeerCredentials{}, fmt.Errorf("transport: control raw conn: %w", ctrlErr)
	}
	if sockErr != nil {
		return PeerCredentials{}, fmt.Errorf("transport: getsockopt SO_PEERCRED: %w", sockErr)
	}

	return PeerCredentials{PID: ucred.Pid, UID: ucred.Uid, GID: ucred.Gid}, nil
}
