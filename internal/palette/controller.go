package palette

import (
	"context"
	"fmt"

	"portfolio-site/internal/theme"
)

// StorageKey is the session storage key under which the applied palette is kept.
const StorageKey = "customPalette"

// Controller applies and restores the custom palette of one browser session.
type Controller struct {
	store    Store
	injector Injector
	key      string
}

// NewController scopes storage to sessionID. An empty sessionID uses the bare key.
func NewController(store Store, injector Injector, sessionID string) *Controller {
	key := StorageKey
	if sessionID != "" {
		key = sessionID + ":" + StorageKey
	}
	return &Controller{store: store, injector: injector, key: key}
}

// Applied is the outcome of applying a palette.
type Applied struct {
	CSS   string      `json:"css"`
	Triad theme.Triad `json:"triad"`
}

// Apply derives the theme for p, persists p for later restores and injects the CSS. A failed
// write leaves the document untouched.
func (c *Controller) Apply(ctx context.Context, p Palette) (Applied, error) {
	derived := theme.Derive(p.Colors())
	css := derived.CSS()
	if err := c.store.Set(ctx, c.key, p.Encode()); err != nil {
		return Applied{}, fmt.Errorf("persist palette: %w", err)
	}
	c.injector.Inject(css)
	return Applied{CSS: css, Triad: derived.Triad}, nil
}

// Restore re-derives and injects the stored palette. Stored values that are not a valid
// palette are ignored and leave the default theme in place; only storage failures are
// returned.
func (c *Controller) Restore(ctx context.Context) (bool, error) {
	raw, ok, err := c.store.Get(ctx, c.key)
	if err != nil {
		return false, fmt.Errorf("load palette: %w", err)
	}
	if !ok {
		return false, nil
	}
	p, err := Decode([]byte(raw))
	if err != nil {
		return false, nil
	}
	c.injector.Inject(theme.BuildCSS(p.Colors()))
	return true, nil
}

// Stored returns the persisted palette, if any valid one exists.
func (c *Controller) Stored(ctx context.Context) (Palette, bool, error) {
	raw, ok, err := c.store.Get(ctx, c.key)
	if err != nil || !ok {
		return Palette{}, false, err
	}
	p, err := Decode([]byte(raw))
	if err != nil {
		return Palette{}, false, nil
	}
	return p, true, nil
}

// Reset removes the stored palette and the injected stylesheet.
func (c *Controller) Reset(ctx context.Context) error {
	c.injector.Remove()
	if err := c.store.Remove(ctx, c.key); err != nil {
		return fmt.Errorf("clear palette: %w", err)
	}
	return nil
}
