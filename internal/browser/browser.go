package browser

import "context"

// Page is the single capability the portal automation needs from a browser:
// one tab it can drive through navigation, form interaction and DOM reads.
// Exactly one logical owner drives a Page at a time.
type Page interface {
	// Navigate loads url and returns the HTTP status of the main document
	// response. A status of 0 means the backend could not observe one.
	Navigate(ctx context.Context, url string) (int, error)

	// WaitVisible blocks until the element matching sel is visible.
	WaitVisible(ctx context.Context, sel string) error

	// Type sends text into the element matching sel.
	Type(ctx context.Context, sel, text string) error

	// Click clicks the first element matching sel.
	Click(ctx context.Context, sel string) error

	// Exists reports whether an element matching sel is present in the DOM.
	Exists(ctx context.Context, sel string) (bool, error)

	// Text returns the rendered text of the element matching sel. The bool
	// is false when no such element exists.
	Text(ctx context.Context, sel string) (string, bool, error)

	// OuterHTML returns the outer HTML of the element matching sel.
	OuterHTML(ctx context.Context, sel string) (string, error)

	// Evaluate runs a JavaScript expression in the page and unmarshals the
	// result into out (pass nil to discard it).
	Evaluate(ctx context.Context, expr string, out any) error

	// ScrollBy scrolls the viewport down by fraction of its height.
	ScrollBy(ctx context.Context, fraction float64) error

	// Close releases the tab and, for backends that own one, the browser
	// process. Close is idempotent.
	Close() error
}
