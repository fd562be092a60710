// Package views implements the generated list, detail, create, update and
// delete handlers. Every view applies the owner convention of its model:
// requests are resolved to an owner record, queries are filtered by it, the
// owner field never appears on forms and related choices are narrowed to the
// owner's records.
package views
