// Package utils provides small type coercion helpers.
//
// They convert loosely typed values (query parameters, environment strings,
// raw bytes) into Go primitives without the caller having to repeat type
// switches everywhere.
package utils
