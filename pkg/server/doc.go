// Package server exposes the todo store and the user directory as a JSON
// HTTP API. Domain errors map onto HTTP status codes: unknown users and
// unknown todo IDs become 404, duplicate todo IDs across users become 409,
// and validation failures become 400.
package server
