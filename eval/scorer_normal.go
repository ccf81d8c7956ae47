package eval

import (
	"context"
	"fmt"

	"github.com/robustcall/sdk"
	"github.com/robustcall/sdk/callexpr"
)

// NormalScorer matches emitted calls against the accepted alternatives of a
// Normal sample: order-independent, exact, all-or-nothing per alternative.
type NormalScorer struct{}

// Name implements Scorer.
func (NormalScorer) Name() string { return "normal_match" }

// Score implements Scorer. Grammar failures score 0 with the output_format
// tag; otherwise the emitted calls pass iff some alternative matches them as
// an unordered set. On failure the record carries the first violated check
// in priority order function_name, param_num, param_type, param_value,
// taken from the alternative the output came closest to matching.
func (NormalScorer) Score(_ context.Context, sample Sample, output Output) (ResultRecord, error) {
	if sample.Category != CategoryNormal {
		return ResultRecord{}, misroutedSample("NormalScorer.Score", sample, CategoryNormal)
	}
	alts := sample.GroundTruth.Alternatives
	if len(alts) == 0 {
		return ResultRecord{}, sdk.NewValidationError("NormalScorer.Score",
			fmt.Errorf("sample %s has no accepted call sets", sample.ID))
	}

	emitted, err := callexpr.Parse(output.Text)
	if err != nil {
		return failRecord(sample, ErrTypeOutputFormat, err.Error()), nil
	}

	var closest *matchFailure
	for _, alt := range alts {
		failure := matchCallSet(emitted, alt)
		if failure == nil {
			return newRecord(sample, 1), nil
		}
		if closest == nil || failure.rank > closest.rank {
			closest = failure
		}
	}
	return failRecord(sample, closest.errType, closest.detail), nil
}

// Classification ranks; higher means the output came closer to matching.
const (
	rankFunctionName = iota + 1
	rankParamNum
	rankParamType
	rankParamValue
)

type matchFailure struct {
	errType string
	rank    int
	detail  string
}

// matchCallSet checks whether emitted matches want as an unordered set:
// same cardinality, every wanted call consumed by exactly one value-equal
// emitted call. Equality is exact, so greedy consumption is complete. A nil
// return is a match.
func matchCallSet(emitted []callexpr.Call, want CallSet) *matchFailure {
	if len(emitted) != len(want) {
		return &matchFailure{
			errType: ErrTypeFunctionName,
			rank:    rankFunctionName,
			detail:  fmt.Sprintf("expected %d calls, got %d", len(want), len(emitted)),
		}
	}

	remaining := make([]callexpr.Call, len(emitted))
	copy(remaining, emitted)

	var worst *matchFailure
	for _, wanted := range want {
		idx := -1
		for i, candidate := range remaining {
			if wanted.Equal(candidate) {
				idx = i
				break
			}
		}
		if idx >= 0 {
			remaining[idx] = remaining[len(remaining)-1]
			remaining = remaining[:len(remaining)-1]
			continue
		}

		failure := classifyMiss(wanted, remaining)
		if worst == nil || failure.rank < worst.rank {
			// The first violated check in priority order wins: report the
			// coarsest failure among the unmatched wanted calls.
			worst = failure
		}
	}
	return worst
}

// classifyMiss explains why no remaining emitted call matched the wanted
// call, checking in priority order: name, argument count, argument type,
// argument value. Among several same-name candidates the one that came
// closest decides the error.
func classifyMiss(want callexpr.Call, remaining []callexpr.Call) *matchFailure {
	var best *matchFailure
	for _, candidate := range remaining {
		if candidate.Name != want.Name {
			continue
		}
		failure := classifyArgMismatch(want, candidate)
		if best == nil || failure.rank > best.rank {
			best = failure
		}
	}
	if best == nil {
		return &matchFailure{
			errType: ErrTypeFunctionName,
			rank:    rankFunctionName,
			detail:  fmt.Sprintf("no emitted call named %s", want.Name),
		}
	}
	return best
}

func classifyArgMismatch(want, got callexpr.Call) *matchFailure {
	if len(want.Args) != len(got.Args) {
		return &matchFailure{
			errType: ErrTypeParamNum,
			rank:    rankParamNum,
			detail:  fmt.Sprintf("%s: expected %d arguments, got %d", want.Name, len(want.Args), len(got.Args)),
		}
	}

	for _, arg := range want.Args {
		gotValue, ok := got.Arg(arg.Name)
		if !ok {
			return &matchFailure{
				errType: ErrTypeParamNum,
				rank:    rankParamNum,
				detail:  fmt.Sprintf("%s: missing argument %s", want.Name, arg.Name),
			}
		}
		if gotValue.Kind() != arg.Value.Kind() {
			return &matchFailure{
				errType: ErrTypeParamType,
				rank:    rankParamType,
				detail: fmt.Sprintf("%s: argument %s is %s, expected %s",
					want.Name, arg.Name, gotValue.Kind(), arg.Value.Kind()),
			}
		}
		if !arg.Value.Equal(gotValue) {
			return &matchFailure{
				errType: ErrTypeParamValue,
				rank:    rankParamValue,
				detail: fmt.Sprintf("%s: argument %s = %s, expected %s",
					want.Name, arg.Name, callexpr.FormatValue(gotValue), callexpr.FormatValue(arg.Value)),
			}
		}
	}

	// Same length and every wanted argument present and equal, yet the
	// calls did not compare equal; classify as an argument-name difference.
	return &matchFailure{
		errType: ErrTypeParamNum,
		rank:    rankParamNum,
		detail:  fmt.Sprintf("%s: argument names differ", want.Name),
	}
}

// TurnOutcome ties one scored item of a multi-turn dialogue to its turn
// index.
type TurnOutcome struct {
	Turn  int
	Valid bool
}

// TurnResults scores a multi-turn dialogue turn by turn: every ground-truth
// call of turn i becomes one outcome, valid when a call emitted in that turn
// value-matches it. Each emitted call is consumed at most once; a turn with
// no emitted calls leaves all of its ground truth invalid. Feed the result
// to MultiTurnAccuracy.
func TurnResults(emitted []CallSet, want []CallSet) []TurnOutcome {
	var outcomes []TurnOutcome
	for turn, wantCalls := range want {
		var pool []callexpr.Call
		if turn < len(emitted) {
			pool = append(pool, emitted[turn]...)
		}

		for _, wanted := range wantCalls {
			valid := false
			for i, candidate := range pool {
				if wanted.Equal(candidate) {
					pool[i] = pool[len(pool)-1]
					pool = pool[:len(pool)-1]
					valid = true
					break
				}
			}
			outcomes = append(outcomes, TurnOutcome{Turn: turn, Valid: valid})
		}
	}
	return outcomes
}

// MultiTurnAccuracy folds per-item outcomes grouped by turn into the two
// multi-turn metrics: the end score counts a turn only when every item in
// it is valid, the process score credits each turn with its fraction of
// valid items; both are averaged over turns.
func MultiTurnAccuracy(outcomes []TurnOutcome) (end, process float64) {
	if len(outcomes) == 0 {
		return 0, 0
	}

	valid := make(map[int]int)
	total := make(map[int]int)
	var turns []int
	for _, o := range outcomes {
		if total[o.Turn] == 0 {
			turns = append(turns, o.Turn)
		}
		total[o.Turn]++
		if o.Valid {
			valid[o.Turn]++
		}
	}

	for _, turn := range turns {
		if valid[turn] == total[turn] {
			end++
		}
		process += float64(valid[turn]) / float64(total[turn])
	}
	end /= float64(len(turns))
	process /= float64(len(turns))
	return end, process
}
