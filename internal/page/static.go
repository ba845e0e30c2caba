package page

import (
	"context"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
)

// StaticPage is a Page backed by an in-memory HTML string. It is used for fixtures,
// fetched snapshots and tests. Click and Escape do nothing to the markup unless
// OnClick or OnEscape are set.
type StaticPage struct {
	// OnClick is called after an element is clicked, typically to SetHTML.
	OnClick func(p *StaticPage, target *goquery.Selection)
	// OnEscape is called after an Escape keypress.
	OnEscape func(p *StaticPage)

	mutex       sync.Mutex
	url         string
	html        string
	nextSubID   int
	subscribers map[int]chan struct{}
	clicks      []string
	escapes     int
}

func NewStaticPage(url, html string) *StaticPage {
	return &StaticPage{
		url:         url,
		html:        html,
		subscribers: map[int]chan struct{}{},
	}
}

// SetHTML replaces the page contents and notifies subscribers.
func (p *StaticPage) SetHTML(html string) {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	p.html = html
	for _, ch := range p.subscribers {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

func (p *StaticPage) HTML() string {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return p.html
}

// Clicks returns the text of every element clicked so far.
func (p *StaticPage) Clicks() []string {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	out := make([]string, len(p.clicks))
	copy(out, p.clicks)
	return out
}

func (p *StaticPage) Escapes() int {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return p.escapes
}

// Subscribers returns the number of live change subscriptions.
func (p *StaticPage) Subscribers() int {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return len(p.subscribers)
}

func (p *StaticPage) URL(ctx context.Context) (string, error) {
	return p.url, nil
}

func (p *StaticPage) Document(ctx context.Context) (*goquery.Document, error) {
	return goquery.NewDocumentFromReader(strings.NewReader(p.HTML()))
}

func (p *StaticPage) Click(ctx context.Context, loc Locator) error {
	doc, err := p.Document(ctx)
	if err != nil {
		return err
	}
	target, _ := loc.Resolve(doc)
	if target == nil {
		return ErrNotFound
	}

	p.mutex.Lock()
	p.clicks = append(p.clicks, strings.TrimSpace(target.Text()))
	hook := p.OnClick
	p.mutex.Unlock()

	if hook != nil {
		hook(p, target)
	}
	return nil
}

func (p *StaticPage) PressEscape(ctx context.Context) error {
	p.mutex.Lock()
	p.escapes++
	hook := p.OnEscape
	p.mutex.Unlock()

	if hook != nil {
		hook(p)
	}
	return nil
}

func (p *StaticPage) Changes(ctx context.Context) (<-chan struct{}, func()) {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	id := p.nextSubID
	p.nextSubID++
	ch := make(chan struct{}, 1)
	p.subscribers[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			p.mutex.Lock()
			defer p.mutex.Unlock()
			delete(p.subscribers, id)
		})
	}
}

// StaticOpener opens pages from a fixed url -> html map.
type StaticOpener map[string]string

func (o StaticOpener) Open(ctx context.Context, url string) (Page, func() error, error) {
	html, ok := o[url]
	if !ok {
		return nil, nil, ErrNotFound
	}
	return NewStaticPage(url, html), func() error { return nil }, nil
}
