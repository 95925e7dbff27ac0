// File: internal/browser/session/attach.go
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/target"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/xkilldash9x/notefill/internal/browser/page"
	"github.com/xkilldash9x/notefill/internal/domain"
)

// Attachment is an established automation channel to one tab.
type Attachment struct {
	Page     page.Page
	TargetID string
	Close    func()
}

// Attacher opens an automation channel to a browser's debug endpoint.
type Attacher interface {
	Attach(ctx context.Context, endpoint string) (*Attachment, error)
}

// CDPAttacher attaches to an already-running Chromium over the DevTools
// protocol.
type CDPAttacher struct {
	logger  *zap.Logger
	timeout time.Duration
}

// NewCDPAttacher bounds target discovery and attach by timeout.
func NewCDPAttacher(logger *zap.Logger, timeout time.Duration) *CDPAttacher {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &CDPAttacher{logger: logger.Named("attacher"), timeout: timeout}
}

// Attach picks the most recently listed page of the endpoint's first content
// group and takes over its automation channel. Closing the attachment
// detaches from the tab and leaves it open.
func (a *CDPAttacher) Attach(ctx context.Context, endpoint string) (*Attachment, error) {
	allocCtx, allocCancel := chromedp.NewRemoteAllocator(Detach(ctx), endpoint)
	fail := func(kind domain.ConnectErrorKind, err error) (*Attachment, error) {
		allocCancel()
		return nil, &domain.ConnectError{Kind: kind, Endpoint: endpoint, Err: err}
	}

	infos, err := a.listTargets(ctx, allocCtx)
	if err != nil {
		return fail(domain.TransportFailure, err)
	}
	info, kind := pickTarget(infos)
	if kind != 0 {
		return fail(kind, nil)
	}

	// The first Run allocates the browser connection for the lifetime of the
	// context it is given, so it must run on tabCtx itself.
	tabCtx, tabCancel := chromedp.NewContext(allocCtx, chromedp.WithTargetID(info.TargetID))
	release := sync.OnceFunc(func() { a.releaseTab(tabCtx, tabCancel) })
	timer := time.AfterFunc(a.timeout, release)
	err = chromedp.Run(tabCtx)
	if !timer.Stop() && err == nil {
		err = fmt.Errorf("attach timed out after %v", a.timeout)
	}
	if err != nil {
		release()
		return fail(domain.TransportFailure, fmt.Errorf("attaching to target %s: %w", info.TargetID, err))
	}

	run := func(opCtx context.Context, actions ...chromedp.Action) error {
		c, cancel := CombineContext(tabCtx, opCtx)
		defer cancel()
		return chromedp.Run(c, actions...)
	}

	a.logger.Debug("Attached to target.",
		zap.String("endpoint", endpoint),
		zap.String("target", string(info.TargetID)),
		zap.String("url", info.URL))

	return &Attachment{
		Page:     page.NewCDPPage(info.URL, run, a.logger),
		TargetID: string(info.TargetID),
		Close: func() {
			release()
			allocCancel()
		},
	}, nil
}

// releaseTab detaches the automation session from the tab, then cancels the
// tab context. chromedp sends Target.closeTarget for any target still set on
// a canceled context, so the target is cleared first.
func (a *CDPAttacher) releaseTab(tabCtx context.Context, cancel context.CancelFunc) {
	if c := chromedp.FromContext(tabCtx); c != nil && c.Browser != nil && c.Target != nil {
		if id := c.Target.SessionID; id != "" {
			ctx, done := context.WithTimeout(context.Background(), time.Second)
			err := target.DetachFromTarget().WithSessionID(id).Do(cdp.WithExecutor(ctx, c.Browser))
			done()
			if err != nil {
				a.logger.Debug("Detaching from target failed.", zap.String("session", string(id)), zap.Error(err))
			}
		}
		c.Target = nil
	}
	cancel()
}

// listTargets enumerates targets through a throwaway browser context.
func (a *CDPAttacher) listTargets(ctx, allocCtx context.Context) ([]*target.Info, error) {
	probeCtx, probeCancel := chromedp.NewContext(allocCtx)
	defer probeCancel()
	timeoutCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()
	listCtx, listCancel := CombineContext(probeCtx, timeoutCtx)
	defer listCancel()

	infos, err := chromedp.Targets(listCtx)
	if err != nil {
		return nil, fmt.Errorf("listing targets: %w", err)
	}
	return infos, nil
}

// pickTarget groups page targets by browser context in listing order and
// returns the last page of the first group. Workers and frames never form a
// group of their own. A zero kind means success.
func pickTarget(infos []*target.Info) (*target.Info, domain.ConnectErrorKind) {
	var (
		seen  bool
		first cdp.BrowserContextID
		last  *target.Info
	)
	for _, info := range infos {
		if info == nil {
			continue
		}
		seen = true
		if info.Type != "page" {
			continue
		}
		if last == nil {
			first = info.BrowserContextID
		}
		if info.BrowserContextID == first {
			last = info
		}
	}
	switch {
	case !seen:
		return nil, domain.NoOpenContext
	case last == nil:
		return nil, domain.NoOpenPage
	}
	return last, 0
}
