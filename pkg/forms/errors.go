package forms

import "errors"

var (
	// ErrDuplicateRegistration is returned when a form class name is taken.
	ErrDuplicateRegistration = errors.New("forms: duplicate registration")
	// ErrNotFound is returned when no form class has the requested name.
	ErrNotFound = errors.New("forms: form class not found")
	// ErrNotPopulated is returned by Resolve before Populate has started.
	ErrNotPopulated = errors.New("forms: registry not populated")
	// ErrModelMismatch is returned when a form class is used with a model it
	// was not declared for.
	ErrModelMismatch = errors.New("forms: model mismatch")
	// ErrNoForeignKey is returned when an inline child has no usable foreign
	// key to its parent.
	ErrNoForeignKey = errors.New("forms: no foreign key to parent")
	// ErrManagementForm is returned when formset management data is missing
	// or malformed.
	ErrManagementForm = errors.New("forms: management form data is missing or has been tampered with")
	// ErrUnknownRow is returned when a submitted inline row names a child
	// that is not, or is no longer, linked to the parent.
	ErrUnknownRow = errors.New("forms: inline row does not match an existing child")
)
