package kamusi

import "errors"

var (
	// ErrAlreadyRegistered is returned when a model is registered for
	// translation twice.
	ErrAlreadyRegistered = errors.New("model is already registered for translation")

	// ErrNotRegistered is returned when translation options are requested
	// for a model that was never registered and has no registered parent.
	ErrNotRegistered = errors.New("model is not registered for translation")

	// ErrDuplicateField is returned when a synthesized column name collides
	// with an existing field on the model. Registration stops immediately;
	// a model in this state cannot load correctly.
	ErrDuplicateField = errors.New("translation column collides with an existing field")

	// ErrUnsupportedFieldKind is returned when an attribute requested for
	// translation is not one of the supported field kinds and not in the
	// configured custom kind whitelist.
	ErrUnsupportedFieldKind = errors.New("field kind is not supported for translation")

	// ErrInvalidAccess is returned when a translated attribute is accessed
	// without a usable model instance.
	ErrInvalidAccess = errors.New("translated attribute accessed without an instance")

	// ErrNotTranslatable is returned when a registered model does not embed
	// kamusi.Translatable.
	ErrNotTranslatable = errors.New("model does not embed kamusi.Translatable")

	// ErrUnknownField is returned when a registration or lookup references
	// an attribute the model does not declare.
	ErrUnknownField = errors.New("model has no such field")

	// ErrUnknownLookup is returned for an unrecognized lookup suffix such as
	// "title__frobnicate".
	ErrUnknownLookup = errors.New("unknown lookup suffix")
)
