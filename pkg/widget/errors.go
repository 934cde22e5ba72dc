package widget

import "errors"

// Sentinel errors for definition registration.
var (
	// ErrMissingName is returned for a definition without a name.
	ErrMissingName = errors.New("widget: widget must have a name")

	// ErrInvalidName is returned when the name is not usable as a CSS class.
	ErrInvalidName = errors.New("widget: name is not a valid CSS class name")

	// ErrMissingType is returned for a definition without a type.
	ErrMissingType = errors.New("widget: widget must have a type")

	// ErrUnsupportedType is returned for a type other than "output".
	ErrUnsupportedType = errors.New("widget: unrecognized widget type")

	// ErrMissingRender is returned for a definition with neither Render nor
	// Factory.
	ErrMissingRender = errors.New("widget: widget must have a render function")

	// ErrDuplicateName is returned when the name is already registered.
	ErrDuplicateName = errors.New("widget: widget already registered")

	// ErrNoInstance is returned when a factory renderer is used without the
	// instance its factory returns.
	ErrNoInstance = errors.New("widget: no instance for factory renderer")
)
