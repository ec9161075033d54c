// Package engine implements the mock server core: request matching,
// response resolution, runtime overrides, instance lifecycle, and the
// multi-instance manager.
//
// An Instance is one HTTP mock server built from a config.ServerConfig.
// Requests flow through a fixed pipeline: CORS, reserved endpoints,
// matching, override checks, delay, error injection, then route resolution
// or resource CRUD, with proxy fallback for unmatched traffic. Every
// request produces exactly one request log entry.
//
// A Manager owns a set of instances keyed by server id, loads their
// configs from a store.ConfigStore, enforces best-effort port exclusivity,
// and fans each instance's request log into one aggregate stream.
package engine
