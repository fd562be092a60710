// Package model defines the model descriptors and records the CRUD layer
// operates on. A Model carries its fields, its ancestors and its declared CRUD
// options; the resolved option set is computed once, when the model is
// registered, and never changes afterwards. Registry resolves symbolic model
// names ("note" or "crm.note") and reports ambiguous short names instead of
// guessing.
package model
