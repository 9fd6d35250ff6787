// Package worker implements the per-agent main loop: accept one inbound
// message, compose a prompt, drive a backend to produce text, parse that
// text into peer messages and runtime commands, and dispatch both.
package worker

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"

	"crewctl/internal/prompts"
	"crewctl/pkg/backend"
	"crewctl/pkg/logx"
	"crewctl/pkg/metrics"
	"crewctl/pkg/parser"
	"crewctl/pkg/proto"
	"crewctl/pkg/transport"
)

// Config carries everything one agent worker needs for its lifetime. A
// new Config is built per agent and never shared.
type Config struct {
	ID           proto.AgentID
	SocketDir    string
	WorkingDir   string
	SystemPrompt string
	Backend      backend.Backend
	Renderer     *prompts.Renderer
	Metrics      *metrics.Registry

	// CommandCh is the supervisor's multi-producer command channel; the
	// worker sends privileged RuntimeCommands here without knowing
	// anything about how the supervisor handles them.
	CommandCh chan<- proto.RuntimeCommand

	Logger *logx.Logger
}

const outboundChannelCapacity = 64

// Worker owns one agent's rendezvous socket and main loop for its entire
// lifetime. Abort tears down the listener; Run blocks until aborted.
type Worker struct {
	cfg      Config
	listener *transport.Listener
	outbound chan *proto.AgentMessage
	log      *logx.Logger

	wg sync.WaitGroup
}

// New binds cfg.ID's rendezvous socket. The caller must call Abort to
// release it once the worker is no longer needed.
func New(cfg Config) (*Worker, error) {
	listener, err := transport.Bind(cfg.ID, cfg.SocketDir)
	if err != nil {
		return nil, fmt.Errorf("worker: bind %s: %w", cfg.ID, err)
	}

	log := cfg.Logger
	if log == nil {
		log = logx.NewLogger("worker")
	}
	log = log.With(cfg.ID.SocketName())

	return &Worker{
		cfg:      cfg,
		listener: listener,
		outbound: make(chan *proto.AgentMessage, outboundChannelCapacity),
		log:      log,
	}, nil
}

// Run starts the outbound sender task and the accept loop, both governed
// by ctx. Run blocks until ctx is canceled or Abort is called, then
// returns nil.
func (w *Worker) Run(ctx context.Context) error {
	stop := context.AfterFunc(ctx, func() { _ = w.listener.Close() })
	defer stop()

	w.wg.Add(1)
	go w.sendOutbound(ctx)

	w.acceptLoop(ctx)

	close(w.outbound)
	w.wg.Wait()
	return nil
}

// Abort releases the listener's socket file, which unblocks Accept with
// an error and causes Run to return. It is safe to call concurrently
// with Run.
func (w *Worker) Abort() error {
	return w.listener.Close()
}

// acceptLoop implements spec.md §4.3's seven-step main loop.
func (w *Worker) acceptLoop(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}

		conn, _, err := w.listener.Accept()
		if err != nil {
			if errors.Is(err, transport.ErrAuthFailed) {
				w.log.Warn("dropped connection from unauthorized peer")
				continue
			}
			// A closed listener (Abort, or ctx canceled) ends the
			// worker; any other accept error drops that one connection
			// and accept resumes.
			if errors.Is(err, net.ErrClosed) {
				w.log.Info("accept loop stopping: %v", err)
				return
			}
			w.log.Warn("dropped connection: %v", err)
			continue
		}

		w.handleConnection(ctx, conn)
	}
}

func (w *Worker) handleConnection(ctx context.Context, conn *transport.Connection) {
	defer conn.Close()

	msg, err := conn.Recv()
	if err != nil {
		w.log.Warn("dropping unreadable message: %v", err)
		return
	}

	w.log.Info("received %s from %s", msg.Kind, msg.From)

	prompt := w.cfg.Renderer.ComposePrompt(w.cfg.SystemPrompt, msg)

	handle, events, err := w.cfg.Backend.Spawn(ctx, prompt, w.cfg.WorkingDir, "")
	if err != nil {
		w.log.Error("backend spawn failed, dropping message: %v", err)
		return
	}

	for ev := range events {
		if ev.Type == backend.EventText && ev.Text != "" {
			w.dispatchParsed(parser.Parse(w.cfg.ID, ev.Text))
		}
		if ev.IsFinal() {
			break
		}
	}

	if err := handle.Wait(ctx); err != nil {
		w.log.Warn("backend wait: %v", err)
	}
}

func (w *Worker) dispatchParsed(outputs []parser.ParsedOutput) {
	for _, out := range outputs {
		switch {
		case out.Message != nil:
			w.outbound <- out.Message
		case out.Command != nil:
			w.cfg.CommandCh <- *out.Command
		}
	}
}

// sendOutbound is the per-worker sender task spec.md §4.3 describes: for
// each outbound message, open a fresh connection to the recipient,
// write, close. Connect/send failures are logged and dropped, never
// retried.
func (w *Worker) sendOutbound(ctx context.Context) {
	defer w.wg.Done()
	for msg := range w.outbound {
		w.sendOne(ctx, msg)
	}
}

func (w *Worker) sendOne(_ context.Context, msg *proto.AgentMessage) {
	conn, err := transport.Connect(msg.To, w.cfg.SocketDir)
	if err != nil {
		w.log.Warn("failed to reach %s: %v", msg.To, err)
		return
	}
	defer conn.Close()

	if err := conn.Send(msg); err != nil {
		w.log.Warn("failed to send to %s: %v", msg.To, err)
		return
	}

	w.cfg.Metrics.MessagesRouted.WithLabelValues(string(msg.Kind)).Inc()
}
