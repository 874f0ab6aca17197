package driver

import (
	"context"
	"fmt"
	"strings"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/dom"
	"github.com/chromedp/cdproto/input"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"github.com/jonathan/apply-agent/internal/logging"
	"go.uber.org/zap"
)

// ChromeOptions configures the browser process.
type ChromeOptions struct {
	Headless bool
	// UserDataDir points at a profile that already holds a logged-in session.
	UserDataDir string
	ExecPath    string
}

// Chrome is a Driver backed by a chromedp-controlled Chrome tab.
// Requires Chrome/Chromium to be installed on the system.
type Chrome struct {
	ctx         context.Context
	cancelTab   context.CancelFunc
	cancelAlloc context.CancelFunc
	logger      *zap.Logger
}

// NewChrome starts a browser and opens one tab.
func NewChrome(ctx context.Context, opts ChromeOptions, logger *zap.Logger) (*Chrome, error) {
	logger = logging.OrNop(logger)

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", opts.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
	)
	if opts.UserDataDir != "" {
		allocOpts = append(allocOpts, chromedp.UserDataDir(opts.UserDataDir))
	}
	if opts.ExecPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(opts.ExecPath))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, allocOpts...)
	tabCtx, cancelTab := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(logger.Sugar().Debugf),
		chromedp.WithErrorf(logger.Sugar().Warnf),
	)

	// An empty Run starts the browser.
	if err := chromedp.Run(tabCtx); err != nil {
		cancelTab()
		cancelAlloc()
		return nil, &BrowserError{Action: "start", Cause: err}
	}

	logger.Info("browser started", zap.Bool("headless", opts.Headless))
	return &Chrome{ctx: tabCtx, cancelTab: cancelTab, cancelAlloc: cancelAlloc, logger: logger}, nil
}

// Close shuts the tab and the browser process.
func (c *Chrome) Close() {
	c.cancelTab()
	c.cancelAlloc()
}

// run executes actions on the tab while honouring cancellation of ctx.
func (c *Chrome) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithCancel(c.ctx)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()
	return chromedp.Run(runCtx, actions...)
}

func (c *Chrome) find(ctx context.Context, selector string, opts ...chromedp.QueryOption) ([]Element, error) {
	var nodes []*cdp.Node
	opts = append([]chromedp.QueryOption{chromedp.ByQueryAll, chromedp.AtLeast(0)}, opts...)
	if err := c.run(ctx, chromedp.Nodes(selector, &nodes, opts...)); err != nil {
		return nil, &BrowserError{Action: "find", Target: selector, Cause: err}
	}
	elems := make([]Element, 0, len(nodes))
	for _, n := range nodes {
		elems = append(elems, &chromeElement{chrome: c, node: n})
	}
	return elems, nil
}

func (c *Chrome) Find(ctx context.Context, selector string) ([]Element, error) {
	return c.find(ctx, selector)
}

func (c *Chrome) Navigate(ctx context.Context, url string) error {
	if err := c.run(ctx, chromedp.Navigate(url), chromedp.WaitReady("body", chromedp.ByQuery)); err != nil {
		return &BrowserError{Action: "navigate", Target: url, Cause: err}
	}
	return nil
}

func (c *Chrome) Refresh(ctx context.Context) error {
	if err := c.run(ctx, chromedp.Reload(), chromedp.WaitReady("body", chromedp.ByQuery)); err != nil {
		return &BrowserError{Action: "refresh", Cause: err}
	}
	return nil
}

func (c *Chrome) URL(ctx context.Context) (string, error) {
	var location string
	if err := c.run(ctx, chromedp.Location(&location)); err != nil {
		return "", &BrowserError{Action: "location", Cause: err}
	}
	return location, nil
}

func (c *Chrome) HTML(ctx context.Context) (string, error) {
	var html string
	if err := c.run(ctx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", &BrowserError{Action: "read html", Cause: err}
	}
	return html, nil
}

func (c *Chrome) Execute(ctx context.Context, script string) error {
	var ok bool
	wrapped := fmt.Sprintf("(function(){\n%s\nreturn true;})()", script)
	if err := c.run(ctx, chromedp.Evaluate(wrapped, &ok)); err != nil {
		return &BrowserError{Action: "execute", Cause: err}
	}
	return nil
}

type chromeElement struct {
	chrome *Chrome
	node   *cdp.Node
}

// call runs a JavaScript function with the node bound to this.
func (e *chromeElement) call(ctx context.Context, function string, res any, args ...any) error {
	return e.chrome.run(ctx, callOnNode(e.node, function, res, args...))
}

// callOnNode resolves node to a remote object and calls function on it.
func callOnNode(node *cdp.Node, function string, res any, args ...any) chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		obj, err := dom.ResolveNode().WithNodeID(node.NodeID).Do(ctx)
		if err != nil {
			return fmt.Errorf("resolve node: %w", err)
		}
		// Release fails once the page has navigated away; nothing to clean up then.
		defer func() { _ = runtime.ReleaseObject(obj.ObjectID).Do(ctx) }()
		return chromedp.CallFunctionOn(function, res, onObject(obj.ObjectID), args...).Do(ctx)
	})
}

// onObject binds a function call to a remote object.
func onObject(id runtime.RemoteObjectID) chromedp.CallOption {
	return func(p *runtime.CallFunctionOnParams) *runtime.CallFunctionOnParams {
		return p.WithObjectID(id)
	}
}

func (e *chromeElement) describe() string {
	return e.node.LocalName
}

func (e *chromeElement) Tag() string {
	return strings.ToLower(e.node.LocalName)
}

func (e *chromeElement) Find(ctx context.Context, selector string) ([]Element, error) {
	return e.chrome.find(ctx, selector, chromedp.FromNode(e.node))
}

func (e *chromeElement) Text(ctx context.Context) (string, error) {
	var text string
	if err := e.call(ctx, `function(){return this.innerText || this.textContent || "";}`, &text); err != nil {
		return "", &BrowserError{Action: "read text", Target: e.describe(), Cause: err}
	}
	return text, nil
}

func (e *chromeElement) Attr(ctx context.Context, name string) (string, error) {
	var value string
	if err := e.call(ctx, `function(n){const v = this.getAttribute(n); return v === null ? "" : v;}`, &value, name); err != nil {
		return "", &BrowserError{Action: "read attribute", Target: name, Cause: err}
	}
	return value, nil
}

func (e *chromeElement) Value(ctx context.Context) (string, error) {
	var value string
	if err := e.call(ctx, `function(){return this.value === undefined || this.value === null ? "" : String(this.value);}`, &value); err != nil {
		return "", &BrowserError{Action: "read value", Target: e.describe(), Cause: err}
	}
	return value, nil
}

func (e *chromeElement) ParentText(ctx context.Context) (string, error) {
	var text string
	fn := `function(){const p = this.parentElement; return p ? (p.innerText || p.textContent || "") : "";}`
	if err := e.call(ctx, fn, &text); err != nil {
		return "", &BrowserError{Action: "read parent text", Target: e.describe(), Cause: err}
	}
	return text, nil
}

func (e *chromeElement) Parent(ctx context.Context) (Element, error) {
	var parent Element
	err := e.chrome.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		var obj *runtime.RemoteObject
		if err := callOnNode(e.node, `function(){return this.parentElement;}`, &obj).Do(ctx); err != nil {
			return err
		}
		if obj == nil || obj.ObjectID == "" {
			return ErrNotFound
		}
		defer func() { _ = runtime.ReleaseObject(obj.ObjectID).Do(ctx) }()

		id, err := dom.RequestNode(obj.ObjectID).Do(ctx)
		if err != nil {
			return fmt.Errorf("request node: %w", err)
		}
		node, err := dom.DescribeNode().WithNodeID(id).Do(ctx)
		if err != nil {
			return fmt.Errorf("describe node: %w", err)
		}
		node.NodeID = id
		parent = &chromeElement{chrome: e.chrome, node: node}
		return nil
	}))
	if err != nil {
		return nil, &BrowserError{Action: "read parent", Target: e.describe(), Cause: err}
	}
	return parent, nil
}

func (e *chromeElement) Click(ctx context.Context) error {
	if err := e.chrome.run(ctx, chromedp.MouseClickNode(e.node)); err != nil {
		return &BrowserError{Action: "click", Target: e.describe(), Cause: err}
	}
	return nil
}

func (e *chromeElement) ScriptClick(ctx context.Context) error {
	var ok bool
	if err := e.call(ctx, `function(){this.click(); return true;}`, &ok); err != nil {
		return &BrowserError{Action: "script click", Target: e.describe(), Cause: err}
	}
	return nil
}

func (e *chromeElement) ScrollIntoView(ctx context.Context) error {
	if err := e.chrome.run(ctx, dom.ScrollIntoViewIfNeeded().WithNodeID(e.node.NodeID)); err != nil {
		return &BrowserError{Action: "scroll", Target: e.describe(), Cause: err}
	}
	return nil
}

func (e *chromeElement) SetValue(ctx context.Context, value string) error {
	var ok bool
	clearFn := `function(){this.value = ""; this.dispatchEvent(new Event("input", {bubbles: true})); return true;}`
	changed := `function(){this.dispatchEvent(new Event("change", {bubbles: true})); return true;}`
	err := e.chrome.run(ctx,
		dom.Focus().WithNodeID(e.node.NodeID),
		callOnNode(e.node, clearFn, &ok),
		input.InsertText(value),
		callOnNode(e.node, changed, &ok),
	)
	if err != nil {
		return &BrowserError{Action: "set value", Target: e.describe(), Cause: err}
	}
	return nil
}

func (e *chromeElement) SelectByText(ctx context.Context, text string) error {
	var selected bool
	fn := `function(t){
		for (const o of (this.options || [])) {
			if (o.text.trim() === t) {
				this.value = o.value;
				o.selected = true;
				this.dispatchEvent(new Event("change", {bubbles: true}));
				return true;
			}
		}
		return false;
	}`
	if err := e.call(ctx, fn, &selected, text); err != nil {
		return &BrowserError{Action: "select", Target: text, Cause: err}
	}
	if !selected {
		return &BrowserError{Action: "select", Target: text, Cause: ErrNotFound}
	}
	return nil
}

func (e *chromeElement) Upload(ctx context.Context, path string) error {
	if err := e.chrome.run(ctx, dom.SetFileInputFiles([]string{path}).WithNodeID(e.node.NodeID)); err != nil {
		return &BrowserError{Action: "upload", Target: path, Cause: err}
	}
	return nil
}

func (e *chromeElement) Reveal(ctx context.Context) error {
	var ok bool
	fn := `function(){this.style.display = "block"; this.style.visibility = "visible"; this.removeAttribute("hidden"); return true;}`
	if err := e.call(ctx, fn, &ok); err != nil {
		return &BrowserError{Action: "reveal", Target: e.describe(), Cause: err}
	}
	return nil
}

var _ Driver = (*Chrome)(nil)
