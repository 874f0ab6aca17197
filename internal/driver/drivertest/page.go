// Package drivertest provides an in-memory driver.Driver backed by goquery.
//
// A Page holds one parsed HTML document. Interactions are recorded and mutate
// the document the way a browser would for the controls the form engine
// touches (checked state, input values, selected options). Click hooks let a
// test swap the document to simulate moving between form steps.
package drivertest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"github.com/jonathan/apply-agent/internal/driver"
)

// Upload is one file attached to a file input.
type Upload struct {
	Label string
	Path  string
}

type clickHook struct {
	selector string
	fn       func(p *Page)
}

// Page is a fake browser tab.
type Page struct {
	mu  sync.Mutex
	doc *goquery.Document
	url string

	routes      map[string]string
	hooks       []clickHook
	failClicks  []string
	onRefresh   func(p *Page)
	onNavigate  func(p *Page, url string)
	findErr     error
	clicks      []string
	uploads     []Upload
	scripts     []string
	navigations []string
	refreshes   int
}

// NewPage parses html as the initial document at url.
func NewPage(url, html string) *Page {
	p := &Page{url: url, routes: make(map[string]string)}
	p.SetHTML(html)
	return p
}

// SetHTML replaces the current document.
func (p *Page) SetHTML(html string) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		panic(fmt.Sprintf("drivertest: invalid html: %v", err))
	}
	p.mu.Lock()
	p.doc = doc
	p.mu.Unlock()
}

// SetURL changes the reported location without loading a document.
func (p *Page) SetURL(url string) {
	p.mu.Lock()
	p.url = url
	p.mu.Unlock()
}

// Route makes Navigate(url) load html.
func (p *Page) Route(url, html string) {
	p.mu.Lock()
	p.routes[url] = html
	p.mu.Unlock()
}

// OnClick runs fn after any element matching selector is clicked.
func (p *Page) OnClick(selector string, fn func(p *Page)) {
	p.mu.Lock()
	p.hooks = append(p.hooks, clickHook{selector: selector, fn: fn})
	p.mu.Unlock()
}

// FailNativeClick makes Click fail on elements matching selector. ScriptClick still works.
func (p *Page) FailNativeClick(selector string) {
	p.mu.Lock()
	p.failClicks = append(p.failClicks, selector)
	p.mu.Unlock()
}

// OnRefresh runs fn on every Refresh.
func (p *Page) OnRefresh(fn func(p *Page)) {
	p.mu.Lock()
	p.onRefresh = fn
	p.mu.Unlock()
}

// OnNavigate runs fn on every Navigate, after routing.
func (p *Page) OnNavigate(fn func(p *Page, url string)) {
	p.mu.Lock()
	p.onNavigate = fn
	p.mu.Unlock()
}

// FailFind makes every Find return err.
func (p *Page) FailFind(err error) {
	p.mu.Lock()
	p.findErr = err
	p.mu.Unlock()
}

// Clicks returns a description of every clicked element in order.
func (p *Page) Clicks() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.clicks...)
}

// Uploads returns every file attached so far.
func (p *Page) Uploads() []Upload {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Upload(nil), p.uploads...)
}

// Scripts returns every script passed to Execute.
func (p *Page) Scripts() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.scripts...)
}

// Navigations returns every URL passed to Navigate.
func (p *Page) Navigations() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.navigations...)
}

// Refreshes returns how many times the page was refreshed.
func (p *Page) Refreshes() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.refreshes
}

// Document returns the current document for assertions.
func (p *Page) Document() *goquery.Document {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.doc
}

// ValueOf returns the value attribute of the first element matching selector.
func (p *Page) ValueOf(selector string) string {
	v, _ := p.Document().Find(selector).First().Attr("value")
	return v
}

// IsChecked reports whether the first element matching selector is checked.
func (p *Page) IsChecked(selector string) bool {
	_, ok := p.Document().Find(selector).First().Attr("checked")
	return ok
}

// SelectedText returns the text of the selected option of the first select matching selector.
func (p *Page) SelectedText(selector string) string {
	return strings.TrimSpace(p.Document().Find(selector).First().Find("option[selected]").First().Text())
}

func (p *Page) Find(_ context.Context, selector string) ([]driver.Element, error) {
	p.mu.Lock()
	doc, findErr := p.doc, p.findErr
	p.mu.Unlock()
	if findErr != nil {
		return nil, findErr
	}
	return p.wrap(doc.Find(selector)), nil
}

func (p *Page) wrap(sel *goquery.Selection) []driver.Element {
	elems := make([]driver.Element, 0, sel.Length())
	sel.Each(func(_ int, s *goquery.Selection) {
		elems = append(elems, &Element{page: p, sel: s})
	})
	return elems
}

func (p *Page) Navigate(_ context.Context, url string) error {
	p.mu.Lock()
	p.navigations = append(p.navigations, url)
	p.url = url
	html, routed := p.routes[url]
	hook := p.onNavigate
	p.mu.Unlock()

	if routed {
		p.SetHTML(html)
	}
	if hook != nil {
		hook(p, url)
	}
	return nil
}

func (p *Page) Refresh(_ context.Context) error {
	p.mu.Lock()
	p.refreshes++
	hook := p.onRefresh
	p.mu.Unlock()
	if hook != nil {
		hook(p)
	}
	return nil
}

func (p *Page) URL(_ context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.url, nil
}

func (p *Page) HTML(_ context.Context) (string, error) {
	return p.Document().Html()
}

func (p *Page) Execute(_ context.Context, script string) error {
	p.mu.Lock()
	p.scripts = append(p.scripts, script)
	p.mu.Unlock()
	return nil
}

func (p *Page) recordClick(e *Element) {
	p.mu.Lock()
	p.clicks = append(p.clicks, e.describe())
	hooks := append([]clickHook(nil), p.hooks...)
	p.mu.Unlock()

	for _, h := range hooks {
		if e.sel.Is(h.selector) {
			h.fn(p)
		}
	}
}

// Element is a node of a Page document.
type Element struct {
	page *Page
	sel  *goquery.Selection
}

func (e *Element) describe() string {
	node := goquery.NodeName(e.sel)
	if id, ok := e.sel.Attr("id"); ok {
		return node + "#" + id
	}
	if text := collapse(e.sel.Text()); text != "" {
		return node + ":" + text
	}
	return node
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func (e *Element) Tag() string {
	return goquery.NodeName(e.sel)
}

func (e *Element) Find(_ context.Context, selector string) ([]driver.Element, error) {
	e.page.mu.Lock()
	findErr := e.page.findErr
	e.page.mu.Unlock()
	if findErr != nil {
		return nil, findErr
	}
	return e.page.wrap(e.sel.Find(selector)), nil
}

func (e *Element) Text(_ context.Context) (string, error) {
	return collapse(e.sel.Text()), nil
}

func (e *Element) Attr(_ context.Context, name string) (string, error) {
	v, _ := e.sel.Attr(name)
	return v, nil
}

func (e *Element) Value(_ context.Context) (string, error) {
	switch goquery.NodeName(e.sel) {
	case "textarea":
		if v, ok := e.sel.Attr("value"); ok {
			return v, nil
		}
		return e.sel.Text(), nil
	case "select":
		opt := e.sel.Find("option[selected]").First()
		if v, ok := opt.Attr("value"); ok {
			return v, nil
		}
		return strings.TrimSpace(opt.Text()), nil
	default:
		v, _ := e.sel.Attr("value")
		return v, nil
	}
}

func (e *Element) ParentText(_ context.Context) (string, error) {
	return collapse(e.sel.Parent().Text()), nil
}

func (e *Element) Parent(_ context.Context) (driver.Element, error) {
	parent := e.sel.Parent()
	if parent.Length() == 0 {
		return nil, driver.ErrNotFound
	}
	return &Element{page: e.page, sel: parent}, nil
}

func (e *Element) Click(ctx context.Context) error {
	e.page.mu.Lock()
	fail := append([]string(nil), e.page.failClicks...)
	e.page.mu.Unlock()
	for _, s := range fail {
		if e.sel.Is(s) {
			return fmt.Errorf("element %s is not clickable", e.describe())
		}
	}
	return e.activate(ctx)
}

func (e *Element) ScriptClick(ctx context.Context) error {
	return e.activate(ctx)
}

// activate applies the default action of a click, then records it.
func (e *Element) activate(_ context.Context) error {
	target := e.sel
	if goquery.NodeName(e.sel) == "label" {
		if forID, ok := e.sel.Attr("for"); ok {
			target = e.page.Document().Find("#" + forID)
		} else {
			target = e.sel.Find("input").First()
		}
	}
	if goquery.NodeName(target) == "input" {
		switch t, _ := target.Attr("type"); t {
		case "radio":
			if name, ok := target.Attr("name"); ok {
				e.page.Document().Find(fmt.Sprintf("input[type=radio][name=%q]", name)).RemoveAttr("checked")
			}
			target.SetAttr("checked", "checked")
		case "checkbox":
			if _, checked := target.Attr("checked"); checked {
				target.RemoveAttr("checked")
			} else {
				target.SetAttr("checked", "checked")
			}
		}
	}
	e.page.recordClick(e)
	return nil
}

func (e *Element) ScrollIntoView(_ context.Context) error {
	return nil
}

func (e *Element) SetValue(_ context.Context, value string) error {
	e.sel.SetAttr("value", value)
	return nil
}

func (e *Element) SelectByText(_ context.Context, text string) error {
	var match *goquery.Selection
	e.sel.Find("option").EachWithBreak(func(_ int, opt *goquery.Selection) bool {
		if strings.TrimSpace(opt.Text()) == text {
			match = opt
			return false
		}
		return true
	})
	if match == nil {
		return fmt.Errorf("option %q: %w", text, driver.ErrNotFound)
	}
	e.sel.Find("option").RemoveAttr("selected")
	match.SetAttr("selected", "selected")
	return nil
}

func (e *Element) Upload(ctx context.Context, path string) error {
	if t, _ := e.sel.Attr("type"); t != "file" {
		return errors.New("upload target is not a file input")
	}
	label, _ := e.ParentText(ctx)
	e.page.mu.Lock()
	e.page.uploads = append(e.page.uploads, Upload{Label: label, Path: path})
	e.page.mu.Unlock()
	e.sel.SetAttr("data-uploaded", path)
	return nil
}

func (e *Element) Reveal(_ context.Context) error {
	e.sel.RemoveAttr("hidden")
	e.sel.SetAttr("style", "display: block;")
	return nil
}

var (
	_ driver.Driver  = (*Page)(nil)
	_ driver.Element = (*Element)(nil)
)
