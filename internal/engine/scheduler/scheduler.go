// Package scheduler executes the pending commands of a build graph.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"sync"
	"time"

	"go.trai.ch/evoke/internal/core/domain"
	"go.trai.ch/evoke/internal/core/ports"
	"go.trai.ch/zerr"
)

// RunOptions configures a single Run.
type RunOptions struct {
	// Parallelism bounds the number of running commands. Zero means runtime.NumCPU().
	Parallelism int
	// NoCache skips the build info lookup. Results are still recorded.
	NoCache bool
	// StoreDir is the build info store directory. Empty disables caching.
	StoreDir string
}

// Scheduler runs pending commands as soon as their inputs are produced.
type Scheduler struct {
	executor  ports.Executor
	store     ports.BuildInfoStore
	hasher    ports.Hasher
	telemetry ports.Telemetry
	logger    ports.Logger

	mu     sync.Mutex
	status map[domain.CommandID]domain.CommandStatus
	// pending counts commands that are Queued, Ready or Running.
	pending int
}

// NewScheduler creates a new Scheduler with the given dependencies.
func NewScheduler(
	executor ports.Executor,
	store ports.BuildInfoStore,
	hasher ports.Hasher,
	telemetry ports.Telemetry,
	logger ports.Logger,
) *Scheduler {
	return &Scheduler{
		executor:  executor,
		store:     store,
		hasher:    hasher,
		telemetry: telemetry,
		logger:    logger,
		status:    make(map[domain.CommandID]domain.CommandStatus),
	}
}

// Busy reports whether any command is still Queued, Ready or Running.
func (s *Scheduler) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending > 0
}

// Status returns the status of a command in the current or last run.
func (s *Scheduler) Status(id domain.CommandID) domain.CommandStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status[id]
}

// Statuses returns a copy of every command status of the current or last run.
func (s *Scheduler) Statuses() map[domain.CommandID]domain.CommandStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return maps.Clone(s.status)
}

func (s *Scheduler) setStatus(id domain.CommandID, st domain.CommandStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.status[id].IsTerminal() && st.IsTerminal() {
		s.pending--
	}
	s.status[id] = st
}

func (s *Scheduler) resetStatuses(g *domain.Graph) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = make(map[domain.CommandID]domain.CommandStatus, g.CommandCount())
	for cmd := range g.Commands() {
		s.status[cmd.ID] = domain.CommandQueued
	}
	s.pending = g.CommandCount()
}

// Run executes every command of g.
//
// A command starts once every input is either produced by no command or
// produced by a command that completed. A failed command records its exit code
// and output on its component; commands that depend on it are never started
// and their components are marked failed. Unrelated commands keep running.
//
// Ordinary command failures are reported through component status only. Run
// returns an error for graph defects, such as two producers of one file or
// commands that wait on each other, and when ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context, g *domain.Graph, opts RunOptions) error {
	producers, err := indexProducers(g)
	if err != nil {
		return err
	}

	s.resetStatuses(g)
	state := s.newRunState(ctx, g, producers, opts)
	state.runExecutionLoop()
	return state.finish()
}

// indexProducers maps every output file to the single command producing it.
func indexProducers(g *domain.Graph) (map[domain.FileID]domain.CommandID, error) {
	producers := make(map[domain.FileID]domain.CommandID)
	for cmd := range g.Commands() {
		for _, out := range cmd.Outputs {
			f := g.File(out)
			if f == nil || g.Component(f.Component) == nil {
				path := ""
				if f != nil {
					path = f.Path.String()
				}
				return nil, zerr.With(zerr.With(domain.ErrUntrackedOutput, "file", path), "command", cmd.Descriptor.Label)
			}
			if other, exists := producers[out]; exists {
				err := zerr.With(domain.ErrDuplicateProducer, "file", f.Path.String())
				err = zerr.With(err, "first", g.Command(other).Descriptor.Label)
				return nil, zerr.With(err, "second", cmd.Descriptor.Label)
			}
			producers[out] = cmd.ID
		}
	}
	return producers, nil
}

type result struct {
	cmd       domain.CommandID
	status    domain.CommandStatus
	task      *domain.Task
	err       error
	inputHash string
}

type schedulerRunState struct {
	graph       *domain.Graph
	producers   map[domain.FileID]domain.CommandID
	waiting     map[domain.CommandID]int
	waiters     map[domain.FileID][]domain.CommandID
	ready       []domain.CommandID
	active      int
	resultsCh   chan result
	errs        error
	ctx         context.Context
	parallelism int
	opts        RunOptions
	s           *Scheduler
}

func (s *Scheduler) newRunState(
	ctx context.Context,
	g *domain.Graph,
	producers map[domain.FileID]domain.CommandID,
	opts RunOptions,
) *schedulerRunState {
	parallelism := opts.Parallelism
	if parallelism <= 0 {
		parallelism = runtime.NumCPU()
	}

	state := &schedulerRunState{
		graph:       g,
		producers:   producers,
		waiting:     make(map[domain.CommandID]int, g.CommandCount()),
		waiters:     make(map[domain.FileID][]domain.CommandID),
		resultsCh:   make(chan result, parallelism),
		ctx:         ctx,
		parallelism: parallelism,
		opts:        opts,
		s:           s,
	}

	for cmd := range g.Commands() {
		n := 0
		for _, in := range cmd.Inputs {
			if _, produced := producers[in]; produced {
				state.waiters[in] = append(state.waiters[in], cmd.ID)
				n++
			}
		}
		state.waiting[cmd.ID] = n
		if n == 0 {
			state.markReady(cmd.ID)
		}
	}
	return state
}

func (state *schedulerRunState) markReady(id domain.CommandID) {
	state.ready = append(state.ready, id)
	state.s.setStatus(id, domain.CommandReady)
}

func (state *schedulerRunState) isDone() bool {
	return state.active == 0 && (len(state.ready) == 0 || state.ctx.Err() != nil)
}

func (state *schedulerRunState) runExecutionLoop() {
	done := state.ctx.Done()
	for !state.isDone() {
		state.schedule()

		if state.isDone() {
			break
		}

		select {
		case res := <-state.resultsCh:
			state.handleResult(res)
		case <-done:
			// Running commands finish; nothing new is launched.
			done = nil
		}
	}
}

func (state *schedulerRunState) schedule() {
	for len(state.ready) > 0 && state.active < state.parallelism && state.ctx.Err() == nil {
		id := state.ready[0]
		state.ready = state.ready[1:]

		state.active++
		state.s.setStatus(id, domain.CommandRunning)

		go state.executeCommand(state.graph.Command(id))
	}
}

func (state *schedulerRunState) handleResult(res result) {
	state.active--
	cmd := state.graph.Command(res.cmd)
	comp := state.graph.Component(cmd.Component)

	if res.err != nil {
		state.s.setStatus(res.cmd, domain.CommandFailed)
		if comp != nil {
			comp.Fail(failureText(cmd, res))
		}
		return
	}

	state.s.setStatus(res.cmd, res.status)
	for _, out := range cmd.Outputs {
		for _, waiter := range state.waiters[out] {
			state.waiting[waiter]--
			if state.waiting[waiter] == 0 {
				state.markReady(waiter)
			}
		}
	}
}

func failureText(cmd *domain.PendingCommand, res result) string {
	var b strings.Builder
	exitCode := -1
	if res.task != nil {
		exitCode = res.task.ExitCode
	}
	fmt.Fprintf(&b, "%s: exit code %d: %v\n", cmd.Descriptor.Label, exitCode, res.err)
	if res.task != nil {
		b.Write(res.task.Output())
	}
	return b.String()
}

// finish classifies every command that never ran and reports graph defects.
func (state *schedulerRunState) finish() error {
	if err := state.ctx.Err(); err != nil {
		for cmd := range state.graph.Commands() {
			if !state.s.Status(cmd.ID).IsTerminal() {
				state.block(cmd, "build cancelled")
			}
		}
		return errors.Join(state.errs, err)
	}

	// Blocked commands never produce their outputs, so blocking spreads until
	// nothing changes. Whatever is left waits on itself.
	for changed := true; changed; {
		changed = false
		for cmd := range state.graph.Commands() {
			if state.s.Status(cmd.ID).IsTerminal() {
				continue
			}
			if culprit := state.failedProducer(cmd); culprit != nil {
				state.block(cmd, "blocked by "+culprit.Descriptor.Label)
				changed = true
			}
		}
	}

	var cycle []string
	for cmd := range state.graph.Commands() {
		if !state.s.Status(cmd.ID).IsTerminal() {
			cycle = append(cycle, cmd.Descriptor.Label)
			state.block(cmd, "waiting on a dependency cycle")
		}
	}
	if len(cycle) > 0 {
		state.errs = errors.Join(state.errs, zerr.With(domain.ErrCommandCycle, "commands", strings.Join(cycle, ", ")))
	}
	return state.errs
}

func (state *schedulerRunState) failedProducer(cmd *domain.PendingCommand) *domain.PendingCommand {
	for _, in := range cmd.Inputs {
		producer, ok := state.producers[in]
		if !ok {
			continue
		}
		switch state.s.Status(producer) {
		case domain.CommandFailed, domain.CommandBlocked:
			return state.graph.Command(producer)
		}
	}
	return nil
}

func (state *schedulerRunState) block(cmd *domain.PendingCommand, reason string) {
	state.s.setStatus(cmd.ID, domain.CommandBlocked)
	if comp := state.graph.Component(cmd.Component); comp != nil {
		comp.Fail(fmt.Sprintf("%s: %s\n", cmd.Descriptor.Label, reason))
	}
}

func (state *schedulerRunState) executeCommand(cmd *domain.PendingCommand) {
	// The vertex is completed before the result is sent so the loop never
	// finishes ahead of the telemetry record.
	res := func() result {
		inputs := state.paths(cmd.Inputs)
		outputs := state.paths(cmd.Outputs)

		ctx, vertex := state.s.telemetry.Record(state.ctx, cmd.Descriptor.Label,
			ports.WithInputs(inputs...), ports.WithOutputs(outputs...))

		res := state.runCommand(ctx, cmd, vertex, inputs, outputs)
		if res.status == domain.CommandCached {
			vertex.Cached()
		}
		vertex.Complete(res.err)
		return res
	}()

	state.resultsCh <- res
}

func (state *schedulerRunState) runCommand(
	ctx context.Context,
	cmd *domain.PendingCommand,
	vertex ports.Vertex,
	inputs, outputs []string,
) result {
	res := result{cmd: cmd.ID}

	hash, err := state.s.hasher.ComputeInputHash(cmd.Descriptor.Argv, inputs)
	if err != nil {
		res.err = zerr.Wrap(err, domain.ErrInputNotFound.Error())
		return res
	}
	res.inputHash = hash

	key := commandKey(state.graph, cmd)
	if state.checkCacheHit(key, hash, outputs) {
		state.s.logger.Debug("up to date: " + cmd.Descriptor.Label)
		res.status = domain.CommandCached
		return res
	}

	if err := state.validateAndCleanOutputs(outputs); err != nil {
		res.err = err
		return res
	}

	task := domain.NewTask(cmd.ID)
	res.task = task
	stdout := io.MultiWriter(task, vertex.Stdout())
	stderr := io.MultiWriter(task, vertex.Stderr())

	state.s.logger.Debug("running: " + cmd.Descriptor.Label)
	// A launched command runs to completion even when the build is cancelled.
	code, err := state.s.executor.Execute(context.WithoutCancel(ctx), cmd.Descriptor, stdout, stderr)
	task.Finish(code)
	if err != nil {
		res.err = err
		return res
	}

	res.status = domain.CommandCompleted
	state.updateCache(key, hash, outputs)
	return res
}

func (state *schedulerRunState) paths(ids []domain.FileID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = filepath.Join(state.graph.Root(), filepath.FromSlash(state.graph.File(id).Path.String()))
	}
	return out
}

// commandKey identifies a command across runs by what it produces.
func commandKey(g *domain.Graph, cmd *domain.PendingCommand) string {
	if len(cmd.Outputs) == 0 {
		return cmd.Descriptor.Label
	}
	keys := make([]string, len(cmd.Outputs))
	for i, out := range cmd.Outputs {
		keys[i] = g.File(out).Path.String()
	}
	slices.Sort(keys)
	return strings.Join(keys, "\n")
}

func (state *schedulerRunState) checkCacheHit(key, inputHash string, outputs []string) bool {
	if state.opts.NoCache || state.opts.StoreDir == "" {
		return false
	}

	info, err := state.s.store.Get(state.opts.StoreDir, key)
	if err != nil {
		state.s.logger.Warn(fmt.Sprintf("ignoring unreadable build info for %s: %v", key, err))
		return false
	}
	if info == nil || info.InputHash != inputHash {
		return false
	}
	if len(outputs) == 0 {
		return true
	}

	outputHash, err := state.s.hasher.ComputeOutputHash(outputs)
	if err != nil {
		// Missing outputs are a cache miss.
		return false
	}
	return info.OutputHash == outputHash
}

func (state *schedulerRunState) updateCache(key, inputHash string, outputs []string) {
	if state.opts.StoreDir == "" {
		return
	}

	var outputHash string
	if len(outputs) > 0 {
		h, err := state.s.hasher.ComputeOutputHash(outputs)
		if err != nil {
			state.s.logger.Warn(fmt.Sprintf("not recording build info for %s: %v", key, err))
			return
		}
		outputHash = h
	}

	err := state.s.store.Put(state.opts.StoreDir, domain.BuildInfo{
		Key:        key,
		InputHash:  inputHash,
		OutputHash: outputHash,
		Timestamp:  time.Now(),
	})
	if err != nil {
		state.s.logger.Warn(fmt.Sprintf("failed to record build info for %s: %v", key, err))
	}
}

// validateAndCleanOutputs removes stale outputs and creates their parent
// directories. Every output must lie inside the project root.
func (state *schedulerRunState) validateAndCleanOutputs(outputs []string) error {
	rootAbs, err := filepath.Abs(state.graph.Root())
	if err != nil {
		return zerr.Wrap(err, "failed to resolve project root")
	}

	for _, outPath := range outputs {
		outAbs, err := filepath.Abs(outPath)
		if err != nil {
			return zerr.With(zerr.Wrap(err, "failed to resolve output path"), "file", outPath)
		}

		rel, err := filepath.Rel(rootAbs, outAbs)
		if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return zerr.With(domain.ErrOutputPathOutsideRoot, "file", outPath)
		}

		if err := os.RemoveAll(outAbs); err != nil {
			return zerr.With(zerr.Wrap(err, "failed to clean output"), "file", outPath)
		}
		if err := os.MkdirAll(filepath.Dir(outAbs), domain.DirPerm); err != nil {
			return zerr.With(zerr.Wrap(err, "failed to create output directory"), "file", outPath)
		}
	}

	return nil
}
