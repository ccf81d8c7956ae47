// Package eval scores model tool-invocation outputs against ground truth.
//
// A Sample carries a tool catalogue, the dialogue shown to the model, and
// one of three ground-truth variants selected by its category:
//
//   - Normal: the emitted calls must exactly match one accepted alternative
//     call set, order-independently, with typed error classification on
//     mismatch.
//   - Special: the model's free-text response must correctly report a
//     planted problem (missing parameters, an invalid value, or an
//     infeasible request), judged against a configurable detection policy.
//   - Agent: the emitted call sequence is replayed through a sandbox
//     episode and scored on process accuracy (trajectory prefix) and
//     end-to-end accuracy (final state equality).
//
// The Runner evaluates samples concurrently with per-sample isolation; no
// sample failure ever aborts a run. Aggregate combines per-category
// accuracies into one overall score with square-root count weighting.
package eval
