// rodpage.go — page.Handle over a live Chrome tab via the DevTools protocol.
// Connects to (or launches) a browser with go-rod, picks the chat tab, and
// walks the shadow-root chain with DOM queries on every call.
package rodpage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"github.com/dev-console/convmanage/internal/page"
)

// DefaultSettleQuiet is the mutation-free window that counts as settled.
const DefaultSettleQuiet = 100 * time.Millisecond

// Options configures Connect.
type Options struct {
	// ControlURL is a DevTools websocket URL or an http://host:port endpoint.
	// Empty launches a local browser.
	ControlURL string
	Headless   bool
	// PageURL is a JS regex matched against open tabs' URLs. Empty takes the first tab.
	PageURL string
	// StartURL is opened in a new tab when no open tab matches.
	StartURL string
	// UserDataDir is the profile of a launched browser. Empty uses a
	// throwaway profile.
	UserDataDir string
	Selectors   Selectors
	SettleQuiet time.Duration
	Logger      *slog.Logger
}

// Page is a page.Handle and page.Settler bound to one tab.
type Page struct {
	browser  *rod.Browser
	page     *rod.Page
	launcher *launcher.Launcher // non-nil when the browser was launched here
	sel      Selectors
	quiet    time.Duration
	logger   *slog.Logger
}

var (
	_ page.Handle  = (*Page)(nil)
	_ page.Settler = (*Page)(nil)
)

// Connect attaches to the browser and selects the chat tab. It does not
// inject anything; call Inject before driving actions.
func Connect(ctx context.Context, opts Options) (*Page, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	sel := DefaultSelectors().Merge(opts.Selectors)
	if err := sel.Validate(); err != nil {
		return nil, fmt.Errorf("selectors: %w", err)
	}

	p := &Page{sel: sel, quiet: opts.SettleQuiet, logger: logger}
	if p.quiet <= 0 {
		p.quiet = DefaultSettleQuiet
	}

	controlURL, err := p.resolveControlURL(ctx, opts)
	if err != nil {
		return nil, err
	}

	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		p.cleanupLauncher()
		return nil, fmt.Errorf("connect to browser: %w", err)
	}
	p.browser = browser

	tab, err := p.pickTab(opts)
	if err != nil {
		_ = p.Close()
		return nil, err
	}
	p.page = tab
	return p, nil
}

func (p *Page) resolveControlURL(ctx context.Context, opts Options) (string, error) {
	switch {
	case opts.ControlURL == "":
		l := launcher.New().Headless(opts.Headless).Context(ctx)
		if opts.UserDataDir != "" {
			l = l.UserDataDir(opts.UserDataDir)
		}
		u, err := l.Launch()
		if err != nil {
			return "", fmt.Errorf("launch browser: %w", err)
		}
		p.launcher = l
		p.logger.Debug("launched browser", "control_url", u, "headless", opts.Headless)
		return u, nil
	case strings.HasPrefix(opts.ControlURL, "ws://"), strings.HasPrefix(opts.ControlURL, "wss://"):
		return opts.ControlURL, nil
	default:
		u, err := launcher.ResolveURL(opts.ControlURL)
		if err != nil {
			return "", fmt.Errorf("resolve control url %q: %w", opts.ControlURL, err)
		}
		return u, nil
	}
}

func (p *Page) pickTab(opts Options) (*rod.Page, error) {
	pages, err := p.browser.Pages()
	if err != nil {
		return nil, fmt.Errorf("list tabs: %w", err)
	}

	if opts.PageURL != "" {
		if tab, err := pages.FindByURL(opts.PageURL); err == nil {
			p.logger.Debug("attached to tab", "page_url", opts.PageURL)
			return tab, nil
		}
	} else if len(pages) > 0 {
		return pages.First(), nil
	}

	if opts.StartURL == "" {
		return nil, fmt.Errorf("no open tab matches %q and no start_url is configured", opts.PageURL)
	}
	tab, err := p.browser.Page(proto.TargetCreateTarget{URL: opts.StartURL})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", opts.StartURL, err)
	}
	if err := tab.WaitLoad(); err != nil {
		return nil, fmt.Errorf("load %s: %w", opts.StartURL, err)
	}
	p.logger.Debug("opened tab", "start_url", opts.StartURL)
	return tab, nil
}

// Close releases the browser when it was launched by Connect. An attached
// browser is left running.
func (p *Page) Close() error {
	if p.launcher == nil {
		return nil
	}
	var err error
	if p.browser != nil {
		err = p.browser.Close()
	}
	p.cleanupLauncher()
	return err
}

func (p *Page) cleanupLauncher() {
	if p.launcher != nil {
		p.launcher.Kill()
		p.launcher = nil
	}
}

// Inject installs the probe now and on every future document in the tab.
func (p *Page) Inject(ctx context.Context) error {
	tab := p.page.Context(ctx)
	if _, err := tab.EvalOnNewDocument(InjectScript); err != nil {
		return fmt.Errorf("register injected script: %w", err)
	}
	if _, err := tab.Eval(injectNowScript); err != nil {
		return fmt.Errorf("inject script: %w", err)
	}
	return nil
}

// Probe implements page.Handle.
func (p *Page) Probe(ctx context.Context) (bool, error) {
	res, err := p.page.Context(ctx).Eval(probeScript)
	if err != nil {
		return false, fmt.Errorf("probe: %w", err)
	}
	return res.Value.Bool(), nil
}

// LocateThreadList implements page.Handle.
func (p *Page) LocateThreadList(ctx context.Context) (page.ThreadList, error) {
	root, err := p.panelRoot(ctx)
	if err != nil {
		return nil, err
	}
	return &threadList{root: root, sel: p.sel, quiet: p.quiet}, nil
}

// WaitSettled implements page.Settler: it resolves once the side panel's
// shadow tree, nested thread roots included, has been quiet for the configured
// window.
func (p *Page) WaitSettled(ctx context.Context) error {
	root, err := p.panelRoot(ctx)
	if err != nil {
		return err
	}
	if err := waitQuiet(ctx, root, p.quiet); err != nil {
		return fmt.Errorf("wait for panel to settle: %w", err)
	}
	return nil
}

// waitQuiet runs settleScript against root.
func waitQuiet(ctx context.Context, root *rod.Element, quiet time.Duration) error {
	_, err := root.Context(ctx).Evaluate(&rod.EvalOptions{
		JS:           settleScript,
		JSArgs:       []interface{}{quiet.Milliseconds()},
		ByValue:      true,
		AwaitPromise: true,
	})
	return err
}

// panelRoot descends HostChain and returns the last host's shadow root.
func (p *Page) panelRoot(ctx context.Context) (*rod.Element, error) {
	tab := p.page.Context(ctx)
	var root *rod.Element
	for i, sel := range p.sel.HostChain {
		var (
			has  bool
			host *rod.Element
			err  error
		)
		if root == nil {
			has, host, err = tab.Has(sel)
		} else {
			has, host, err = root.Has(sel)
		}
		if err != nil {
			return nil, fmt.Errorf("query host %d %q: %w", i, sel, err)
		}
		if !has {
			return nil, fmt.Errorf("%w: host %d %q not present", page.ErrStructure, i, sel)
		}
		root, err = shadowRoot(host)
		if err != nil {
			return nil, fmt.Errorf("host %d %q: %w", i, sel, err)
		}
	}
	return root, nil
}

func shadowRoot(host *rod.Element) (*rod.Element, error) {
	root, err := host.ShadowRoot()
	if err != nil {
		var noRoot *rod.NoShadowRootError
		if errors.As(err, &noRoot) {
			return nil, fmt.Errorf("%w: no shadow root", page.ErrStructure)
		}
		return nil, fmt.Errorf("open shadow root: %w", err)
	}
	return root, nil
}

type threadList struct {
	root  *rod.Element
	sel   Selectors
	quiet time.Duration
}

func (l *threadList) ShowAll(ctx context.Context) (bool, error) {
	has, btn, err := l.root.Context(ctx).Has(l.sel.ShowAll)
	if err != nil {
		return false, fmt.Errorf("query show-all control: %w", err)
	}
	if !has {
		return false, nil
	}
	if _, err := btn.Eval(clickScript); err != nil {
		return false, fmt.Errorf("click show-all control: %w", err)
	}
	return true, nil
}

func (l *threadList) Threads(ctx context.Context) ([]page.Thread, error) {
	els, err := l.root.Context(ctx).Elements(l.sel.Thread)
	if err != nil {
		return nil, fmt.Errorf("query threads: %w", err)
	}
	out := make([]page.Thread, 0, len(els))
	for _, el := range els {
		out = append(out, &thread{host: el, sel: l.sel, quiet: l.quiet})
	}
	return out, nil
}

// thread keeps the entry's host element. Edit mode re-renders the shadow
// root's content but leaves the host in place.
type thread struct {
	host  *rod.Element
	sel   Selectors
	quiet time.Duration
}

var _ page.Settler = (*thread)(nil)

// control finds selector inside the thread's shadow root.
func (t *thread) control(ctx context.Context, selector string) (*rod.Element, error) {
	root, err := shadowRoot(t.host.Context(ctx))
	if err != nil {
		return nil, fmt.Errorf("thread: %w", err)
	}
	has, el, err := root.Has(selector)
	if err != nil {
		return nil, fmt.Errorf("query %q: %w", selector, err)
	}
	if !has {
		return nil, fmt.Errorf("%w: thread control %q not present", page.ErrStructure, selector)
	}
	return el, nil
}

func (t *thread) eval(ctx context.Context, selector, js string, args ...interface{}) error {
	el, err := t.control(ctx, selector)
	if err != nil {
		return err
	}
	if _, err := el.Eval(js, args...); err != nil {
		return fmt.Errorf("eval on %q: %w", selector, err)
	}
	return nil
}

func (t *thread) Name(ctx context.Context) (string, error) {
	el, err := t.control(ctx, t.sel.Name)
	if err != nil {
		return "", err
	}
	return el.Text()
}

func (t *thread) ScrollIntoView(ctx context.Context) error {
	if _, err := t.host.Context(ctx).Eval(scrollScript); err != nil {
		return fmt.Errorf("scroll thread into view: %w", err)
	}
	return nil
}

func (t *thread) Focus(ctx context.Context) error {
	return t.eval(ctx, t.sel.Primary, focusScript)
}

func (t *thread) ActivatePrimary(ctx context.Context) error {
	return t.eval(ctx, t.sel.Primary, clickScript)
}

func (t *thread) ActivateDelete(ctx context.Context) error {
	return t.eval(ctx, t.sel.Delete, clickScript)
}

func (t *thread) EnterEditMode(ctx context.Context) error {
	return t.eval(ctx, t.sel.Edit, clickScript)
}

func (t *thread) SetName(ctx context.Context, name string) error {
	return t.eval(ctx, t.sel.NameInput, setValueScript, name)
}

func (t *thread) ConfirmEdit(ctx context.Context) error {
	return t.eval(ctx, t.sel.Confirm, clickScript)
}

// WaitSettled implements page.Settler for the entry's own shadow root, where
// edit mode renders its controls.
func (t *thread) WaitSettled(ctx context.Context) error {
	root, err := shadowRoot(t.host.Context(ctx))
	if err != nil {
		return fmt.Errorf("thread: %w", err)
	}
	if err := waitQuiet(ctx, root, t.quiet); err != nil {
		return fmt.Errorf("wait for thread to settle: %w", err)
	}
	return nil
}
