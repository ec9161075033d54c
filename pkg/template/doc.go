// Package template provides response body templating for mock responses.
// It substitutes {{...}} placeholders in configured response bodies using
// request data and a built-in fake-data vocabulary.
//
// # Request Placeholders
//
//   - {{params.name}} - path parameter bound by a :name segment
//   - {{query.name}} - query string parameter (first value)
//   - {{headers.name}} - request header (first value, case-insensitive)
//   - {{body.a.b}} - field of the parsed JSON request body
//
// # Fake Data
//
// The {{faker.*}} vocabulary: id, name, firstName, lastName, email, phone,
// number, boolean, date, timestamp, company, title, url, avatar, color, ip,
// slug, lorem, paragraph.
//
// # Built-ins
//
//   - {{now}} - current time in RFC3339 format
//   - {{uuid}} - random UUID v4
//   - {{timestamp}} - current Unix timestamp
//   - {{random.int(min, max)}} - random integer in range
//   - {{random.float(min, max)}} - random float in range
//
// # Coercion
//
// When substitution leaves a string that is exactly "true", "false", or a
// numeric literal, the value becomes a JSON boolean or number. Strings with
// surrounding text are never coerced, and unknown placeholders are left
// verbatim.
package template
