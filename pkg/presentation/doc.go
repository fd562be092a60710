// Package presentation renders the HTML fragments used by the generated
// templates: object tables, list headings with add links, form and formset
// markup and the owner select widget. Helpers are also exposed to pongo2
// templates through Funcs and the object_list tag.
package presentation
