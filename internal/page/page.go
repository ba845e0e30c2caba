// Package page is the browser surface extraction runs against. A Page can be a live
// browser tab, a fetched HTML snapshot or a fixture held in memory.
package page

import (
	"context"
	"errors"

	"github.com/PuerkitoBio/goquery"
)

var ErrNotFound = errors.New("page: no element matches locator")

// Page is a document that can be read, clicked and watched for changes.
type Page interface {
	// URL returns the current location of the page.
	URL(ctx context.Context) (string, error)
	// Document returns a snapshot of the current DOM.
	Document(ctx context.Context) (*goquery.Document, error)
	// Click clicks the first element matching the locator, it returns ErrNotFound
	// if nothing matches.
	Click(ctx context.Context, loc Locator) error
	// PressEscape dispatches an Escape keypress to the document.
	PressEscape(ctx context.Context) error
	// Changes subscribes to DOM change notifications. The returned stop function
	// must be called to release the subscription, it is safe to call more than once.
	Changes(ctx context.Context) (<-chan struct{}, func())
}

// Opener opens urls as new pages (ex. a second browser tab).
type Opener interface {
	Open(ctx context.Context, url string) (Page, func() error, error)
}

// Locator finds an element: the n-th node matching Selector for which Match returns
// true. A nil Match accepts every node.
type Locator struct {
	Selector string
	Match    func(sel *goquery.Selection) bool
}

// Resolve returns the located element and its index among all nodes matching
// Selector, index is -1 when nothing is found.
func (l Locator) Resolve(doc *goquery.Document) (*goquery.Selection, int) {
	candidates := doc.Find(l.Selector)
	for i := range candidates.Nodes {
		sel := candidates.Eq(i)
		if l.Match == nil || l.Match(sel) {
			return sel, i
		}
	}
	return nil, -1
}
