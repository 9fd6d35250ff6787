// Package runtime implements the orchestrator supervisor: it spawns the
// initial fleet, then processes RuntimeCommands one at a time, resizing
// the developer pool, relieving the manager, and recording task history.
package runtime

import (
	"context"
	"fmt"
	"sync"
	"time"

	"crewctl/internal/prompts"
	"crewctl/pkg/backend/factory"
	"crewctl/pkg/config"
	"crewctl/pkg/logx"
	"crewctl/pkg/metrics"
	"crewctl/pkg/proto"
	"crewctl/pkg/worker"
)

var log = logx.NewLogger("runtime")

// agentHandle is the subset of *worker.Worker the supervisor needs: start
// it in the background and abort it on teardown or replacement.
type agentHandle struct {
	w      *worker.Worker
	cancel context.CancelFunc
	done   chan struct{}
}

// state is the supervisor's exclusively-owned mutable state, per
// spec.md §5: never observed by workers, mutated only from the single
// command-processing goroutine.
type state struct {
	developerCount    uint8
	taskLog           []proto.TaskRecord
	managerGeneration uint32
	lastRelieve       time.Time
}

// Runtime owns RuntimeState, the AgentId -> handle map, and the
// multi-producer command channel agent workers send RuntimeCommands on.
type Runtime struct {
	cfg      *config.Config
	renderer *prompts.Renderer
	metrics  *metrics.Registry

	commandCh chan proto.RuntimeCommand

	mu      sync.Mutex
	handles map[proto.AgentID]*agentHandle
	st      state

	wg sync.WaitGroup
}

const commandChannelCapacity = 64

// New constructs a Runtime. Call Run to spawn the initial fleet and start
// processing commands.
func New(cfg *config.Config, renderer *prompts.Renderer, reg *metrics.Registry) *Runtime {
	return &Runtime{
		cfg:       cfg,
		renderer:  renderer,
		metrics:   reg,
		commandCh: make(chan proto.RuntimeCommand, commandChannelCapacity),
		handles:   make(map[proto.AgentID]*agentHandle),
		st:        state{developerCount: 1},
	}
}

// Run spawns the four initial workers (Manager, Architect, Scorer,
// Developer-0) and then blocks processing commands until ctx is
// canceled. On return every tracked worker has been aborted.
func (r *Runtime) Run(ctx context.Context) error {
	if err := r.spawnInitialAgents(ctx); err != nil {
		r.shutdownAll()
		return fmt.Errorf("runtime: spawn initial agents: %w", err)
	}

	r.commandLoop(ctx)

	r.shutdownAll()
	return nil
}

func (r *Runtime) spawnInitialAgents(ctx context.Context) error {
	for _, role := range []proto.Role{proto.RoleManager, proto.RoleArchitect, proto.RoleScorer} {
		if err := r.spawnAgent(ctx, proto.NewSingletonID(role)); err != nil {
			return err
		}
	}
	return r.spawnAgent(ctx, proto.NewDeveloperID(0))
}

// commandLoop consumes RuntimeCommands strictly in arrival order
// (spec.md §5's ordering guarantee), one at a time, so no command
// handler ever observes concurrent state mutation.
func (r *Runtime) commandLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case cmd := <-r.commandCh:
			r.handleCommand(ctx, cmd)
		}
	}
}

func (r *Runtime) handleCommand(ctx context.Context, cmd proto.RuntimeCommand) {
	log.Info("processing command kind=%d", cmd.Kind)

	switch cmd.Kind {
	case proto.CmdSetCrewSize:
		r.metrics.CommandsHandled.WithLabelValues("set_crew_size").Inc()
		r.handleSetCrewSize(ctx, cmd.CrewSize)
	case proto.CmdRelieveManager:
		r.metrics.CommandsHandled.WithLabelValues("relieve_manager").Inc()
		r.handleRelieveManager(ctx, cmd.Reason)
	case proto.CmdTaskUpdate:
		r.metrics.CommandsHandled.WithLabelValues("task_update").Inc()
		r.handleTaskUpdate(cmd.Agent, cmd.Status, cmd.Summary)
	}
}

// handleSetCrewSize implements spec.md §4.5.1.
func (r *Runtime) handleSetCrewSize(ctx context.Context, count uint8) {
	clamped := clamp(count, uint8(r.cfg.DeveloperPool.Min), uint8(r.cfg.DeveloperPool.Max))
	if clamped != count {
		log.Warn("CREW: %d clamped to %d", count, clamped)
	}

	r.mu.Lock()
	current := r.st.developerCount
	r.mu.Unlock()

	if clamped == current {
		return
	}

	log.Info("CREW resize: %d -> %d", current, clamped)

	if clamped > current {
		for i := current; i < clamped; i++ {
			if err := r.spawnAgent(ctx, proto.NewDeveloperID(i)); err != nil {
				log.Error("failed to spawn developer-%d: %v", i, err)
			}
		}
	} else {
		for i := clamped; i < current; i++ {
			r.abortAgent(proto.NewDeveloperID(i))
		}
	}

	r.mu.Lock()
	r.st.developerCount = clamped
	r.mu.Unlock()

	r.metrics.CrewResizes.Inc()
}

// handleRelieveManager implements spec.md §4.5.2, including the
// 60-second (configurable) cooldown.
func (r *Runtime) handleRelieveManager(ctx context.Context, reason string) {
	r.mu.Lock()
	last := r.st.lastRelieve
	r.mu.Unlock()

	if !last.IsZero() {
		if elapsed := time.Since(last); elapsed < r.cfg.RelieveCooldown {
			log.Warn("RELIEVE rejected: cooldown (%s remaining)", r.cfg.RelieveCooldown-elapsed)
			return
		}
	}

	r.abortAgent(proto.NewSingletonID(proto.RoleManager))

	r.mu.Lock()
	r.st.managerGeneration++
	r.st.lastRelieve = time.Now()
	generation := r.st.managerGeneration
	activeDevelopers := r.st.developerCount
	taskLog := append([]proto.TaskRecord(nil), r.st.taskLog...)
	r.mu.Unlock()

	log.Warn("RELIEVE: firing manager gen %d - %s", generation-1, reason)

	briefing, err := r.renderer.ManagerBriefing(prompts.BriefingData{
		Reason:           reason,
		Generation:       generation,
		ActiveDevelopers: activeDevelopers,
		TaskLog:          taskLog,
	})
	if err != nil {
		log.Error("failed to render manager briefing: %v", err)
		return
	}

	systemPrompt, err := r.renderer.SystemPrompt(proto.RoleManager)
	if err != nil {
		log.Error("failed to load manager system prompt: %v", err)
		return
	}

	if err := r.spawnAgentWithPrompt(ctx, proto.NewSingletonID(proto.RoleManager), systemPrompt+"\n\n"+briefing); err != nil {
		log.Error("failed to spawn replacement manager: %v", err)
		return
	}

	r.metrics.ManagerRelieves.Inc()
}

// handleTaskUpdate implements spec.md §4.5.3: append, unconditionally.
func (r *Runtime) handleTaskUpdate(agent proto.AgentID, status proto.TaskStatus, summary string) {
	r.mu.Lock()
	r.st.taskLog = append(r.st.taskLog, proto.TaskRecord{
		Agent:     agent,
		Status:    status,
		Summary:   summary,
		Timestamp: time.Now(),
	})
	r.mu.Unlock()
}

func (r *Runtime) spawnAgent(ctx context.Context, id proto.AgentID) error {
	systemPrompt, err := r.renderer.SystemPrompt(id.Role)
	if err != nil {
		return err
	}
	return r.spawnAgentWithPrompt(ctx, id, systemPrompt)
}

func (r *Runtime) spawnAgentWithPrompt(ctx context.Context, id proto.AgentID, systemPrompt string) error {
	backendCfg := r.cfg.BackendFor(string(id.Role))
	be, err := factory.New(factory.Options{
		Kind:       backendCfg.Kind,
		APIKey:     backendCfg.APIKey,
		Model:      backendCfg.Model,
		OllamaHost: backendCfg.OllamaHost,
	})
	if err != nil {
		return fmt.Errorf("construct backend for %s: %w", id, err)
	}

	w, err := worker.New(worker.Config{
		ID:           id,
		SocketDir:    r.cfg.SocketDir,
		WorkingDir:   r.cfg.WorkingDir,
		SystemPrompt: systemPrompt,
		Backend:      be,
		Renderer:     r.renderer,
		Metrics:      r.metrics,
		CommandCh:    r.commandCh,
	})
	if err != nil {
		return err
	}

	workerCtx, cancel := context.WithCancel(ctx)
	h := &agentHandle{w: w, cancel: cancel, done: make(chan struct{})}

	r.mu.Lock()
	if old, ok := r.handles[id]; ok {
		r.mu.Unlock()
		old.cancel()
		<-old.done
		_ = old.w.Abort()
		r.mu.Lock()
	}
	r.handles[id] = h
	r.mu.Unlock()

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer close(h.done)
		if err := w.Run(workerCtx); err != nil {
			log.Error("agent %s exited with error: %v", id, err)
		}
	}()

	log.Info("spawned agent %s", id)
	return nil
}

func (r *Runtime) abortAgent(id proto.AgentID) {
	r.mu.Lock()
	h, ok := r.handles[id]
	if ok {
		delete(r.handles, id)
	}
	r.mu.Unlock()

	if !ok {
		return
	}

	log.Info("stopping agent %s", id)
	h.cancel()
	_ = h.w.Abort()
	<-h.done
}

func (r *Runtime) shutdownAll() {
	r.mu.Lock()
	ids := make([]proto.AgentID, 0, len(r.handles))
	for id := range r.handles {
		ids = append(ids, id)
	}
	r.mu.Unlock()

	for _, id := range ids {
		r.abortAgent(id)
	}
	r.wg.Wait()
}

// CommandCh exposes the supervisor's command channel so a CLI's one-shot
// client path (or tests) can enqueue a command directly.
func (r *Runtime) CommandCh() chan<- proto.RuntimeCommand {
	return r.commandCh
}

func clamp(v, lo, hi uint8) uint8 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
