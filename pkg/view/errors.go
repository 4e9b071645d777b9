package view

import "errors"

var (
	// ErrUnknownRole is returned for a role without a layout
	ErrUnknownRole = errors.New("view: unknown role")

	// ErrUnknownPanel is returned when activating a panel the layout lacks
	ErrUnknownPanel = errors.New("view: unknown panel")

	// ErrUnknownModal is returned when opening a modal the layout lacks
	ErrUnknownModal = errors.New("view: unknown modal")

	// ErrNoTrigger is returned when a panel switch names no invoking control
	ErrNoTrigger = errors.New("view: panel switch without trigger")
)
