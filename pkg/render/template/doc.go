// Package template defines the renderer seam used by the generated views.
// Templates use Django syntax; the pongo subpackage provides the engine.
package template
