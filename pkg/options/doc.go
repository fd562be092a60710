// Package options declares the per-model CRUD options (actions, exclude,
// inline_models, owner_ref, form_class) and resolves them against the option
// blocks of ancestor models. Resolution is a pure layered merge: the local
// block wins per key, then the closest ancestor declaring the key, then the
// defaults.
package options
