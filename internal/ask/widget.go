package ask

// ListWidget is a transient selectable list. Event handlers must be
// registered before Show; Show blocks until the widget leaves the
// screen. Events are delivered sequentially: Accept (if any) before the
// closing Hide.
type ListWidget interface {
	// OnAccept receives the indices of the accepted entries.
	OnAccept(fn func(indices []int))
	// OnHide fires when the widget leaves the screen for any reason.
	OnHide(fn func())
	// OnActiveChange fires whenever the highlighted entry changes,
	// including the widget's initial auto-focus.
	OnActiveChange(fn func(index int))
	Show() error
	// Close force-dismisses the widget (deadline expiry, cancellation).
	Close()
}

// InputWidget is a transient one-line text prompt.
type InputWidget interface {
	OnAccept(fn func(text string))
	OnHide(fn func())
	Show() error
	Close()
}

// UI creates the transient widgets a query needs. Implementations render
// however they like; the state machine only sees events.
type UI interface {
	NewList(title, description string, options []string) ListWidget
	NewInput(title, placeholder string) InputWidget
}
