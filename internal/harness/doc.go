// Package harness provides a conformance testing framework for the
// lowering pipeline.
//
// A scenario is a YAML file naming CUE unit files to compile, an optional
// backend configuration, per-unit expected Rust output, and assertions
// over the recorded decision trace. Each scenario run is fully
// self-contained: units are compiled fresh, lowered with a fresh
// recorder, and nothing is persisted.
//
// Golden comparison (golden.go) snapshots the rendered Rust together with
// the canonical decision bytes, so a golden file pins both the emitted
// code and the audit trail for a scenario. Decision traces enumerate
// expression nodes in lowering order, which makes the snapshot
// byte-stable across runs and platforms.
package harness
