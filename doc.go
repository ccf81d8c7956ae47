// Package sdk provides an evaluation engine for scoring how well language
// models perform tool-invocation tasks.
//
// Given a dialogue, a catalogue of tool definitions, a ground-truth answer,
// and optionally a perturbed variant of any of these inputs, the engine
// decides whether a model's emitted tool calls satisfy the ground truth and
// aggregates per-category results into a single calibrated score.
//
// # Core Concepts
//
// The SDK is organized around several key concepts:
//
//   - Call expressions: structured tool invocations parsed from model output
//   - Samples: one dialogue plus its tool catalogue and ground truth
//   - Scorers: category-specific matchers (normal, special, agent)
//   - Sandbox: an in-memory simulated environment for trajectory replay
//   - Perturbations: deterministic transformations of what the model sees
//
// # Package Layout
//
//   - callexpr: call-expression model, parser, and serializer
//   - toolspec: tool definitions and parameter constraint validation
//   - sandbox: simulated state, behavior models, and episode replay
//   - perturb: the Observation/Action/Reward/Transition perturbation engine
//   - eval: scorers, the concurrent runner, and score aggregation
//   - queue: Redis-backed sample distribution for multi-process runs
//
// The root package holds the shared structured error taxonomy. Evaluation
// failures never crash a run: every malformed output, failed match, or
// sandbox fault degrades to a scored result with an error tag.
package sdk
