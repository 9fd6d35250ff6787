package transport

import (
	"bytes"
	"encoding/binary"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"crewctl/pkg/proto"
)

func TestBindAcceptSendRecvRoundTrip(t *testing.T) {
	dir := t.TempDir()
	id := proto.NewSingletonID(proto.RoleManager)

	ln, err := Bind(id, dir)
	if err != nil {
		t.Fatalf("Bind: %v", err)
	}
	defer ln.Close()

	if _, err := os.Stat(ln.SocketPath()); err != nil {
		t.Fatalf("expected socket file to exist: %v", err)
	}

	msg := proto.NewMessage(proto.NewSingletonID(proto.RoleArchitect), id, proto.MsgKindInfo, "hello")

	errCh := make(chan error, 1)
	go func() {
		client, err := Connect(id, dir)
		if err != nil {
			errCh <- err
			return
		}
		defer client.Close()
		errCh <- client.Send(msg)
	}()

	conn, creds, err := ln.Accept()
	if err != nil {
		t.Fatalf("Accept: %v", err)
	}
	defer conn.Close()

	if !creds.IsSameUser() {
		t.Fatalf("expected same-user credentials")
	}

	got, err := conn.Recv()
	if err != nil {
		t.Fatalf("Recv: %v", err)
	}
	if err := <-errCh; err != nil {
		t.Fatalf("client send: %v", err)
	}

	if got.ID != msg.ID || got.Content != msg.Content || got.Kind != msg.Kind {
		t.Fatalf("round trip mismatch: got %+v, want %+v", got, msg)
	}
}

func TestBindRemovesStaleSocket(t *testing.T) {
	dir := t.TempDir()
	id := proto.NewDeveloperID(0)
	path := SocketPath(dir, id)

	if err := os.WriteFile(path, []byte("stale"), 0o644); err != nil {
		t.Fatalf("setup stale file: %v", err)
	}

	ln, err := Bind(id, dir)
	if err != nil {
		t.Fatalf("Bind over stale file: %v", err)
	}
	defer ln.Close()
}

func TestCloseRemovesSocketFile(t *testing.T) {
	dir := t.TempDir()
	id := proto.NewSingletonID(proto.RoleScorer)

	ln, err := Bind(id, dir)
	if err != nil {
		t.Fatalf("Bind: %v", err)
	}
	path := ln.SocketPath()

	if err := ln.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("expected socket file removed, stat err = %v", err)
	}
}

func TestConnectFailsWhenNoListener(t *testing.T) {
	dir := t.TempDir()
	if _, err := Connect(proto.NewSingletonID(proto.RoleManager), dir); err == nil {
		t.Fatalf("expected connect to a nonexistent socket to fail")
	}
}

// TestReadFrameRejectsOversizedLength exercises spec.md §8's boundary
// behavior: a declared length one byte over MaxMessageSize must fail
// without allocating the buffer.
func TestReadFrameRejectsOversizedLength(t *testing.T) {
	var buf bytes.Buffer
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(MaxMessageSize+1))
	buf.Write(lenBuf[:])

	if _, err := readFrame(&buf); err != ErrMessageTooLarge {
		t.Fatalf("expected ErrMessageTooLarge, got %v", err)
	}
}

func TestReadFrameTruncatedMidFrame(t *testing.T) {
	var buf bytes.Buffer
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], 100)
	buf.Write(lenBuf[:])
	buf.WriteString("short")

	if _, err := readFrame(&buf); err != ErrTruncated {
		t.Fatalf("expected ErrTruncated, got %v", err)
	}
}

func TestWriteFrameRejectsOversizedPayload(t *testing.T) {
	msg := proto.NewMessage(proto.NewSingletonID(proto.RoleManager), proto.NewSingletonID(proto.RoleArchitect), proto.MsgKindInfo, string(make([]byte, MaxMessageSize+1)))
	var buf bytes.Buffer
	if err := writeFrame(&buf, msg); err != ErrMessageTooLarge {
		t.Fatalf("expected ErrMessageTooLarge, got %v", err)
	}
}

// TestSocketPathLayout checks the "{dir}/{socket_name}.sock" layout. No
// test here fabricates a foreign UID (that needs root); only the
// same-user branch of Accept is exercised, by TestBindAcceptSendRecvRoundTrip.
func TestSocketPathLayout(t *testing.T) {
	dir := "/tmp/claude/orchestrator"
	got := SocketPath(dir, proto.NewDeveloperID(1))
	want := filepath.Join(dir, "developer-1.sock")
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestAcceptBlocksUntilConnection(t *testing.T) {
	dir := t.TempDir()
	ln, err := Bind(proto.NewSingletonID(proto.RoleManager), dir)
	if err != nil {
		t.Fatalf("Bind: %v", err)
	}
	defer ln.Close()

	done := make(chan struct{})
	go func() {
		_, _, _ = ln.Accept()
		close(done)
	}()

	select {
	case <-done:
		t.Fatalf("Accept should still be blocked")
	case <-time.After(50 * time.Millisecond):
	}

	// Unblock Accept so the goroutine doesn't leak past the test.
	conn, dialErr := net.Dial("unix", ln.SocketPath())
	if dialErr == nil {
		conn.Close()
	}
	<-done
}
