// File: internal/coordinator/runtime.go
package coordinator

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xkilldash9x/notefill/internal/domain"
)

// Op names the kind of work a command carries.
type Op string

const (
	OpConnect    Op = "connect"
	OpDisconnect Op = "disconnect"
	OpFill       Op = "fill"
	OpInspect    Op = "inspect"
	OpDelete     Op = "delete"
)

// Job is the browser I/O a command performs.
type Job func(ctx context.Context) (interface{}, error)

type reply struct {
	value interface{}
	err   error
}

// command is one request on the runtime's channel.
type command struct {
	id    string
	op    Op
	key   string
	job   Job
	reply chan reply
}

// Runtime is the single long-lived executor of browser I/O. Commands are
// received by one goroutine and each runs on its own worker; commands with
// the same key (an identity's stable ID) never overlap.
type Runtime struct {
	logger   *zap.Logger
	commands chan *command
	locks    keyedLocks

	mu       sync.Mutex
	started  bool
	stopped  bool
	stop     chan struct{}
	done     chan struct{}
	inflight sync.WaitGroup
	submits  sync.WaitGroup

	ctx    context.Context
	cancel context.CancelFunc
}

// NewRuntime creates a runtime. It accepts nothing until Start is called.
func NewRuntime(logger *zap.Logger) *Runtime {
	ctx, cancel := context.WithCancel(context.Background())
	return &Runtime{
		logger:   logger.Named("runtime"),
		commands: make(chan *command),
		locks:    keyedLocks{m: make(map[string]*keyLock)},
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start launches the receive loop. Calling it again has no effect.
func (r *Runtime) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.started || r.stopped {
		return
	}
	r.started = true
	go r.loop()
	r.logger.Debug("Runtime started.")
}

func (r *Runtime) loop() {
	defer close(r.done)
	for {
		select {
		case cmd := <-r.commands:
			r.inflight.Add(1)
			go r.execute(cmd)
		case <-r.stop:
			return
		}
	}
}

func (r *Runtime) execute(cmd *command) {
	defer r.inflight.Done()
	unlock := r.locks.lock(cmd.key)
	defer unlock()

	log := r.logger.With(zap.String("op", string(cmd.op)), zap.String("cmd", cmd.id))
	log.Debug("Executing command.")
	v, err := cmd.job(r.ctx)
	if err != nil {
		log.Debug("Command failed.", zap.Error(err))
	}
	cmd.reply <- reply{value: v, err: err}
}

// Submit hands a job to the runtime and blocks until it completes. ctx only
// bounds the hand-off; once accepted the job runs to completion.
func (r *Runtime) Submit(ctx context.Context, op Op, key string, job Job) (interface{}, error) {
	r.mu.Lock()
	switch {
	case r.stopped:
		r.mu.Unlock()
		return nil, domain.ErrRuntimeStopped
	case !r.started:
		r.mu.Unlock()
		return nil, domain.ErrRuntimeNotStarted
	}
	r.submits.Add(1)
	r.mu.Unlock()
	defer r.submits.Done()

	cmd := &command{
		id:    uuid.NewString(),
		op:    op,
		key:   key,
		job:   job,
		reply: make(chan reply, 1),
	}
	select {
	case r.commands <- cmd:
	case <-r.stop:
		return nil, domain.ErrRuntimeStopped
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	res := <-cmd.reply
	return res.value, res.err
}

// Stop refuses new commands, cancels in-flight jobs and waits for them.
func (r *Runtime) Stop() {
	r.mu.Lock()
	if r.stopped {
		r.mu.Unlock()
		return
	}
	r.stopped = true
	wasStarted := r.started
	close(r.stop)
	r.mu.Unlock()

	if wasStarted {
		<-r.done
	}
	r.cancel()
	r.inflight.Wait()
	r.submits.Wait()
	r.logger.Debug("Runtime stopped.")
}

type keyLock struct {
	sync.Mutex
	refs int
}

// keyedLocks hands out one mutex per key, dropped once unused.
type keyedLocks struct {
	mu sync.Mutex
	m  map[string]*keyLock
}

func (k *keyedLocks) lock(key string) func() {
	k.mu.Lock()
	l, ok := k.m[key]
	if !ok {
		l = &keyLock{}
		k.m[key] = l
	}
	l.refs++
	k.mu.Unlock()

	l.Lock()
	return func() {
		l.Unlock()
		k.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(k.m, key)
		}
		k.mu.Unlock()
	}
}
