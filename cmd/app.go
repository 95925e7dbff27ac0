// File: cmd/app.go
package cmd

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/xkilldash9x/notefill/internal/browser/session"
	"github.com/xkilldash9x/notefill/internal/config"
	"github.com/xkilldash9x/notefill/internal/coordinator"
	"github.com/xkilldash9x/notefill/internal/registry"
)

// newAttacher is swapped out in tests so no browser is needed.
var newAttacher = func(logger *zap.Logger, timeout time.Duration) session.Attacher {
	return session.NewCDPAttacher(logger, timeout)
}

// app is everything a command needs. One app lives for the whole process so
// that the interactive shell keeps its connections between commands.
type app struct {
	v        *viper.Viper
	cfg      *config.Config
	store    *config.Store
	registry *registry.Registry
	runtime  *coordinator.Runtime
	coord    *coordinator.Coordinator
	logger   *zap.Logger
}

func newApp(v *viper.Viper, cfg *config.Config, logger *zap.Logger) (*app, error) {
	reg, err := registry.New(cfg.Identities())
	if err != nil {
		return nil, fmt.Errorf("failed to build identity roster: %w", err)
	}
	attacher := newAttacher(logger, cfg.Browser().ConnectTimeout)
	conns := session.NewManager(reg, attacher, cfg.Browser(), logger)
	rt := coordinator.NewRuntime(logger)
	rt.Start()

	return &app{
		v:        v,
		cfg:      cfg,
		store:    config.NewStore(v),
		registry: reg,
		runtime:  rt,
		coord:    coordinator.New(cfg, reg, conns, rt, logger),
		logger:   logger,
	}, nil
}

// Close detaches from every browser and stops the runtime. Tabs stay open.
func (a *app) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	a.coord.Shutdown(ctx)
}

// saveIdentities persists the live roster.
func (a *app) saveIdentities() error {
	ids := a.coord.Identities()
	a.cfg.Users = ids
	return a.store.SaveIdentities(ids)
}

// parseIndex converts an operator-facing 1-based position.
func parseIndex(arg string, n int) (int, error) {
	i, err := strconv.Atoi(arg)
	if err != nil {
		return 0, fmt.Errorf("invalid index %q: %w", arg, err)
	}
	if i < 1 || i > n {
		return 0, fmt.Errorf("index %d out of range (1-%d)", i, n)
	}
	return i - 1, nil
}
