// Package routes generates the URL surface of every registered model: list,
// detail, create, update and delete routes named "<model>_<action>". Routes
// are plain data; Mount binds them to handlers built by a HandlerFactory and
// Reverser turns route names back into URLs.
package routes
