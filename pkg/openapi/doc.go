// Package openapi describes the generated route surface as an OpenAPI 3
// document built with kin-openapi. Each model contributes a form schema;
// each route contributes the GET and, for editing routes, POST operations
// the views answer.
package openapi
