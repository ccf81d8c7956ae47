// Package perturb implements deterministic robustness perturbations over the
// observable parts of an evaluation sample.
//
// Perturbations are tagged by a four-way taxonomy:
//
//   - Observation: rewrites what the model reads (question typos, supplied
//     paraphrases, tool and parameter description rewrites).
//   - Action: adds decoy tools to the catalogue (same-name shells with
//     degraded content, or supplied functionally-adjacent distractors).
//   - Reward: attaches cost or latency metadata to tool descriptions and
//     introduces suffixed or abbreviated naming variants.
//   - Transition: wraps the tool-execution channel so the first invocation
//     of each wrapped tool in an episode fails with a retryable timeout.
//
// All transforms are pure. Apply deep-copies its input, never touches the
// original sample, and never changes what counts as a correct answer; the
// only ground-truth-visible effect is the name mapping the abbreviated
// Reward variants report, which the caller applies to its expected calls.
package perturb
