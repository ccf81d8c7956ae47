// Package sandbox provides the in-memory simulated environment that agent
// trajectories are replayed against.
//
// A State maps class identifiers to attribute maps. How a tool call mutates
// attributes is not hard-coded: each sample supplies a BehaviorSet mapping
// tool names to state-transition functions, since the benchmark spans many
// unrelated simulated domains.
//
// An Episode owns one State and replays calls through it as a single linear
// history with no branching or rollback. Execution errors (unknown tool,
// structurally invalid arguments, decoy bait) are fatal to the remainder of
// the episode; scoring then works from whatever prefix was applied. Each
// episode is the sole owner of its state, so concurrent evaluation of
// different episodes shares nothing.
package sandbox
