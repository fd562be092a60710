// Package config loads model declarations from YAML, TOML or JSON files and
// reads the server settings of the crudgen command from the environment.
//
// A declaration document lists models and, optionally, named form classes:
//
//	models:
//	  - app: notes
//	    name: Note
//	    parents: [owned]
//	    fields:
//	      - {name: title, type: string, required: true}
//	    crud:
//	      exclude: [secret]
//	      inline_models: [item]
//	forms:
//	  - name: NoteForm
//	    model: notes.note
//	    fields: [title]
//
// Parents are referenced by name and may be declared in any file of the set.
package config
