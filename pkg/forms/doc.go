// Package forms holds the named form class registry, the form model used by
// generated create and update views, and inline formsets for editing child
// records together with their parent.
//
// Form classes are registered by installed apps during an explicit startup
// step (Registry.Populate). Resolving a class before population has started
// is an error; resolving while population is in progress blocks until it
// completes.
package forms
