// Package openapi bridges payload maps and OpenAPI 3 schemas. Describe turns
// a Map declaration into a component schema, DeclareFromSchema goes the other
// way, and Validator lets a schema act as a field validator that survives
// persistence under the "openapi" rule kind.
package openapi
