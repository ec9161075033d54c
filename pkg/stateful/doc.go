// Package stateful provides in-memory CRUD record collections for the mock server.
//
// A Collection is a named set of records (e.g. "users") that persists across
// requests within a server session. It supports:
//
//   - Full CRUD operations with auto-generated ids
//   - Seed data initialization and reset for test isolation
//   - Exact-match filtering and offset/limit pagination
//   - Id type preservation: collections seeded with numeric ids keep
//     generating and returning numeric ids
//
// All operations are safe for concurrent use. Read operations proceed
// concurrently, writes are serialized per collection.
package stateful
