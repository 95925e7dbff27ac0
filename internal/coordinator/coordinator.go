// File: internal/coordinator/coordinator.go
package coordinator

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/xkilldash9x/notefill/internal/browser/page"
	"github.com/xkilldash9x/notefill/internal/browser/session"
	"github.com/xkilldash9x/notefill/internal/config"
	"github.com/xkilldash9x/notefill/internal/domain"
	"github.com/xkilldash9x/notefill/internal/formfill"
	"github.com/xkilldash9x/notefill/internal/location"
	"github.com/xkilldash9x/notefill/internal/observability"
	"github.com/xkilldash9x/notefill/internal/registry"
)

// Coordinator is the single entry point for operator commands. It turns each
// request into a command on the runtime, keyed by the identity's stable ID.
type Coordinator struct {
	cfg      config.Interface
	registry *registry.Registry
	conns    *session.Manager
	filler   *formfill.Filler
	runtime  *Runtime
	logger   *zap.Logger
}

// New wires a coordinator. The runtime must be started before any command.
func New(cfg config.Interface, reg *registry.Registry, conns *session.Manager, rt *Runtime, logger *zap.Logger) *Coordinator {
	return &Coordinator{
		cfg:      cfg,
		registry: reg,
		conns:    conns,
		filler:   formfill.New(logger),
		runtime:  rt,
		logger:   logger.Named("coordinator"),
	}
}

// BatchResult is the outcome for one identity of a fan-out command.
type BatchResult struct {
	Index    int
	Identity domain.Identity
	Skipped  bool
	Err      error
	Fill     *FillResult
}

// FillResult is everything one fill run produced.
type FillResult struct {
	Identity       domain.Identity
	Basic          formfill.Report
	UsedFallback   bool
	Location       *location.Result
	LocationReason string
}

// OK reports whether every step succeeded.
func (r *FillResult) OK() bool {
	return r.Basic.OK() && r.Location != nil && r.Location.OK()
}

// submit resolves index to a stable ID and runs job under that ID's key. The
// job receives the identity's current position, which may have shifted.
func (c *Coordinator) submit(ctx context.Context, op Op, index int, job func(ctx context.Context, id domain.Identity, index int) (interface{}, error)) (interface{}, error) {
	id, err := c.registry.IdentityAt(index)
	if err != nil {
		return nil, err
	}
	return c.runtime.Submit(ctx, op, id.ID, func(rctx context.Context) (interface{}, error) {
		current, ok := c.registry.IndexOf(id.ID)
		if !ok {
			return nil, fmt.Errorf("%w: %s was deleted", domain.ErrIdentityNotFound, id.Name)
		}
		return job(rctx, id, current)
	})
}

// Connect attaches the identity at index.
func (c *Coordinator) Connect(ctx context.Context, index int) error {
	_, err := c.submit(ctx, OpConnect, index, func(rctx context.Context, _ domain.Identity, current int) (interface{}, error) {
		return c.conns.Connect(rctx, current)
	})
	return err
}

// Disconnect releases the identity at index.
func (c *Coordinator) Disconnect(ctx context.Context, index int) error {
	_, err := c.submit(ctx, OpDisconnect, index, func(_ context.Context, _ domain.Identity, current int) (interface{}, error) {
		return nil, c.conns.Disconnect(current)
	})
	return err
}

// Fill runs the form fill and location selection for the identity at index.
func (c *Coordinator) Fill(ctx context.Context, index int) (*FillResult, error) {
	v, err := c.submit(ctx, OpFill, index, func(rctx context.Context, id domain.Identity, current int) (interface{}, error) {
		return c.fill(rctx, id, current)
	})
	if err != nil {
		return nil, err
	}
	return v.(*FillResult), nil
}

func (c *Coordinator) fill(ctx context.Context, id domain.Identity, index int) (*FillResult, error) {
	sess, ok := c.registry.SessionFor(id.ID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrNotConnected, id.Name)
	}
	profile, err := c.cfg.Profile()
	if err != nil {
		return nil, err
	}
	log := observability.ForIdentity(c.logger, index, id.Name)
	p := sess.Page()

	c.registry.SetState(id.ID, domain.StateFilling)
	log.Info("📝 填写基础信息...", zap.String("bank", profile.Name))

	res := &FillResult{Identity: id}
	res.Basic = c.filler.FillBasicFields(ctx, p, id, c.cfg.Quantity(), profile)
	if len(res.Basic.Failed()) == len(res.Basic.Outcomes) {
		log.Warn("Positional fill matched nothing, trying field descriptors.")
		res.Basic = c.filler.FillByDescriptors(ctx, p, id, c.cfg.Quantity())
		res.UsedFallback = true
	}
	for _, line := range res.Basic.Logs {
		log.Info(line)
	}

	fc := c.cfg.Fill()
	if err := sleepCtx(ctx, fc.SettleDelay); err != nil {
		c.registry.SetState(id.ID, domain.StateFailed)
		return res, err
	}

	spec, ok := c.cfg.Location()
	switch {
	case !ok:
		res.LocationReason = "未配置网点"
		log.Warn("⚠️ 未配置网点，跳过网点选择")
	default:
		log.Info("📍 选择网点...", zap.String("location", spec.String()))
		lres := location.New(c.logger, location.OptionsFromConfig(fc)).Select(ctx, p, spec, profile)
		res.Location = &lres
		for _, line := range lres.Logs {
			log.Info(line)
		}
	}

	succeeded := len(res.Basic.Outcomes) - len(res.Basic.Failed())
	if succeeded == 0 || (res.Location != nil && res.Location.Final == location.Aborted) {
		c.registry.SetState(id.ID, domain.StateFailed)
		log.Warn("❌ 填写未完成，请手动检查")
		return res, nil
	}
	c.registry.SetState(id.ID, domain.StateDone)
	log.Info("🎉 填写完成! 请检查验证码并手动输入，然后点击提交")
	return res, nil
}

// Inspect dumps the page's framework inputs for debugging field indices.
func (c *Coordinator) Inspect(ctx context.Context, index int) ([]page.InputInfo, error) {
	v, err := c.submit(ctx, OpInspect, index, func(rctx context.Context, id domain.Identity, _ int) (interface{}, error) {
		sess, ok := c.registry.SessionFor(id.ID)
		if !ok {
			return nil, fmt.Errorf("%w: %s", domain.ErrNotConnected, id.Name)
		}
		return sess.Page().Inputs(rctx, page.AnyInputSelector)
	})
	if err != nil {
		return nil, err
	}
	return v.([]page.InputInfo), nil
}

// DeleteIdentity tears down the identity's connection and removes it from
// the roster. Later identities move down one position.
func (c *Coordinator) DeleteIdentity(ctx context.Context, index int) (domain.Identity, error) {
	v, err := c.submit(ctx, OpDelete, index, func(_ context.Context, id domain.Identity, current int) (interface{}, error) {
		c.conns.Release(id.ID)
		gone, held, err := c.registry.DeleteIdentity(current)
		if err != nil {
			return nil, err
		}
		if held != nil {
			held.Close()
		}
		c.logger.Info("Identity deleted.", zap.String("identity", gone.Name), zap.Int("index", current))
		return gone, nil
	})
	if err != nil {
		return domain.Identity{}, err
	}
	return v.(domain.Identity), nil
}

// AddIdentity appends an identity to the roster.
func (c *Coordinator) AddIdentity(id domain.Identity) (int, error) {
	return c.registry.Add(id)
}

// UpdateIdentity replaces the data of the identity at index.
func (c *Coordinator) UpdateIdentity(index int, id domain.Identity) error {
	return c.registry.Update(index, id)
}

// Identities returns the roster in order.
func (c *Coordinator) Identities() []domain.Identity { return c.registry.Identities() }

// Snapshot returns the roster with states and sessions.
func (c *Coordinator) Snapshot() []registry.Entry { return c.registry.Snapshot() }

// ConnectAll connects every identity that is not attached. Attempts start at
// least the configured stagger apart and run concurrently; one failure does
// not affect the others.
func (c *Coordinator) ConnectAll(ctx context.Context) []BatchResult {
	entries := c.registry.Snapshot()
	results := make([]BatchResult, len(entries))

	limit := rate.Inf
	if d := c.cfg.Browser().ConnectStagger; d > 0 {
		limit = rate.Every(d)
	}
	limiter := rate.NewLimiter(limit, 1)

	var g errgroup.Group
	for i, e := range entries {
		results[i] = BatchResult{Index: e.Index, Identity: e.Identity}
		if e.Session != nil && e.State.Attached() {
			results[i].Skipped = true
			continue
		}
		if err := limiter.Wait(ctx); err != nil {
			results[i].Err = err
			continue
		}
		i, e := i, e
		g.Go(func() error {
			results[i].Err = c.Connect(ctx, e.Index)
			return nil
		})
	}
	_ = g.Wait()
	c.logBatch(OpConnect, results)
	return results
}

// FillAll fills every attached identity concurrently.
func (c *Coordinator) FillAll(ctx context.Context) []BatchResult {
	return c.fanOut(ctx, OpFill, func(e registry.Entry) bool { return e.Session != nil }, func(ctx context.Context, r *BatchResult) {
		r.Fill, r.Err = c.Fill(ctx, r.Index)
	})
}

// DisconnectAll releases every held session.
func (c *Coordinator) DisconnectAll(ctx context.Context) []BatchResult {
	return c.fanOut(ctx, OpDisconnect, func(e registry.Entry) bool { return e.Session != nil }, func(ctx context.Context, r *BatchResult) {
		r.Err = c.Disconnect(ctx, r.Index)
	})
}

func (c *Coordinator) fanOut(ctx context.Context, op Op, eligible func(registry.Entry) bool, run func(context.Context, *BatchResult)) []BatchResult {
	entries := c.registry.Snapshot()
	results := make([]BatchResult, len(entries))

	var g errgroup.Group
	for i, e := range entries {
		results[i] = BatchResult{Index: e.Index, Identity: e.Identity}
		if !eligible(e) {
			results[i].Skipped = true
			continue
		}
		r := &results[i]
		g.Go(func() error {
			run(ctx, r)
			return nil
		})
	}
	_ = g.Wait()
	c.logBatch(op, results)
	return results
}

func (c *Coordinator) logBatch(op Op, results []BatchResult) {
	var ok, failed, skipped int
	for _, r := range results {
		switch {
		case r.Skipped:
			skipped++
		case r.Err != nil:
			failed++
		default:
			ok++
		}
	}
	c.logger.Info("Batch finished.", zap.String("op", string(op)), zap.Int("ok", ok), zap.Int("failed", failed), zap.Int("skipped", skipped))
}

// Shutdown releases every session and stops the runtime.
func (c *Coordinator) Shutdown(ctx context.Context) {
	c.DisconnectAll(ctx)
	c.runtime.Stop()
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
