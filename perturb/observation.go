package perturb

import (
	"fmt"
	"math/rand"
	"strings"
	"unicode"

	"github.com/robustcall/sdk"
	"github.com/robustcall/sdk/toolspec"
)

// qwertyAdjacent maps each letter to its neighbours on a QWERTY keyboard.
// Typo injection substitutes a letter with one of its neighbours.
var qwertyAdjacent = map[rune][]rune{
	'a': {'s', 'q', 'w', 'z'},
	'b': {'v', 'g', 'h', 'n'},
	'c': {'x', 'd', 'f', 'v'},
	'd': {'s', 'e', 'r', 'f', 'c', 'x'},
	'e': {'w', 's', 'd', 'r'},
	'f': {'d', 'r', 't', 'g', 'v', 'c'},
	'g': {'f', 't', 'y', 'h', 'b', 'v'},
	'h': {'g', 'y', 'u', 'j', 'n', 'b'},
	'i': {'u', 'j', 'k', 'o'},
	'j': {'h', 'u', 'i', 'k', 'm', 'n'},
	'k': {'j', 'i', 'o', 'l', 'm'},
	'l': {'k', 'o', 'p'},
	'm': {'n', 'j', 'k'},
	'n': {'b', 'h', 'j', 'm'},
	'o': {'i', 'k', 'l', 'p'},
	'p': {'o', 'l'},
	'q': {'w', 'a'},
	'r': {'e', 'd', 'f', 't'},
	's': {'a', 'w', 'e', 'd', 'x', 'z'},
	't': {'r', 'f', 'g', 'y'},
	'u': {'y', 'h', 'j', 'i'},
	'v': {'c', 'f', 'g', 'b'},
	'w': {'q', 'a', 's', 'e'},
	'x': {'z', 's', 'd', 'c'},
	'y': {'t', 'g', 'h', 'u'},
	'z': {'a', 's', 'x'},
}

// commonWords are safe typo targets. Numbers, dates, proper nouns, and
// domain terms stay untouched so the question's intent survives.
var commonWords = map[string]struct{}{
	"the": {}, "and": {}, "for": {}, "with": {}, "that": {}, "this": {},
	"from": {}, "have": {}, "are": {}, "was": {}, "were": {}, "been": {},
	"being": {}, "has": {}, "had": {}, "would": {}, "could": {}, "should": {},
	"will": {}, "can": {}, "may": {}, "might": {}, "must": {}, "need": {},
	"want": {}, "like": {}, "just": {}, "also": {}, "find": {}, "get": {},
	"give": {}, "make": {}, "take": {}, "use": {}, "know": {}, "see": {},
	"come": {}, "think": {}, "look": {}, "tell": {}, "ask": {}, "work": {},
	"seem": {}, "feel": {}, "calculate": {}, "compute": {}, "determine": {},
	"obtain": {}, "retrieve": {}, "search": {}, "query": {}, "please": {},
	"help": {}, "show": {}, "display": {}, "list": {}, "return": {},
	"provide": {}, "create": {},
}

// defaultTypoCount is the number of words a typos perturbation corrupts
// when the Spec does not say otherwise.
const defaultTypoCount = 2

func applyObservation(spec Spec, in Input, out Output) (Output, error) {
	switch spec.Subtype {
	case SubtypeTypos:
		seed, err := intParam(spec, "seed", 0)
		if err != nil {
			return Output{}, err
		}
		count, err := intParam(spec, "count", defaultTypoCount)
		if err != nil {
			return Output{}, err
		}
		out.Question = InjectTypos(in.Question, seed, int(count))
		return out, nil

	case SubtypeParaphrase:
		text, err := stringParam(spec, "text")
		if err != nil {
			return Output{}, err
		}
		out.Question = text
		return out, nil

	case SubtypeToolDesc:
		rewrites, err := stringMapParam(spec, "rewrites")
		if err != nil {
			return Output{}, err
		}
		for name, desc := range rewrites {
			found := false
			for i := range out.Tools {
				if out.Tools[i].Name == name {
					out.Tools[i].Description = desc
					found = true
				}
			}
			if !found {
				return Output{}, sdk.NewConfigurationError("perturb.Apply",
					fmt.Errorf("tool_desc rewrite targets unknown tool %q", name))
			}
		}
		return out, nil

	case SubtypeParamDesc:
		// Rewrite keys use "tool.param" addressing.
		rewrites, err := stringMapParam(spec, "rewrites")
		if err != nil {
			return Output{}, err
		}
		for addr, desc := range rewrites {
			toolName, paramName, ok := strings.Cut(addr, ".")
			if !ok {
				return Output{}, sdk.NewConfigurationError("perturb.Apply",
					fmt.Errorf("param_desc rewrite key %q is not of the form tool.param", addr))
			}
			if err := rewriteParamDesc(out.Tools, toolName, paramName, desc); err != nil {
				return Output{}, err
			}
		}
		return out, nil

	default:
		return Output{}, unknownSubtype("perturb.Apply", spec)
	}
}

func rewriteParamDesc(tools toolspec.Catalogue, toolName, paramName, desc string) error {
	for i := range tools {
		if tools[i].Name != toolName {
			continue
		}
		param, ok := tools[i].Parameters[paramName]
		if !ok {
			return sdk.NewConfigurationError("perturb.Apply",
				fmt.Errorf("param_desc rewrite targets unknown parameter %s.%s", toolName, paramName))
		}
		param.Description = desc
		tools[i].Parameters[paramName] = param
		return nil
	}
	return sdk.NewConfigurationError("perturb.Apply",
		fmt.Errorf("param_desc rewrite targets unknown tool %q", toolName))
}

// InjectTypos corrupts up to count common words in text by substituting one
// letter with a QWERTY neighbour. The same seed always yields the same
// output. Capitalized words, words with digits, and words outside the
// common-word list are never touched.
func InjectTypos(text string, seed int64, count int) string {
	rng := rand.New(rand.NewSource(seed))
	words := strings.Fields(text)

	var candidates []int
	for i, w := range words {
		if isTypoCandidate(w) {
			candidates = append(candidates, i)
		}
	}
	if len(candidates) == 0 {
		return text
	}

	rng.Shuffle(len(candidates), func(i, j int) {
		candidates[i], candidates[j] = candidates[j], candidates[i]
	})
	if count > len(candidates) {
		count = len(candidates)
	}

	for _, idx := range candidates[:count] {
		words[idx] = typoWord(rng, words[idx])
	}
	return strings.Join(words, " ")
}

func isTypoCandidate(word string) bool {
	trimmed := strings.TrimFunc(word, func(r rune) bool { return !unicode.IsLetter(r) })
	if len(trimmed) < 3 {
		return false
	}
	for _, r := range trimmed {
		if unicode.IsUpper(r) || unicode.IsDigit(r) {
			return false
		}
	}
	_, ok := commonWords[trimmed]
	return ok
}

func typoWord(rng *rand.Rand, word string) string {
	runes := []rune(word)

	var positions []int
	for i, r := range runes {
		if _, ok := qwertyAdjacent[r]; ok {
			positions = append(positions, i)
		}
	}
	if len(positions) == 0 {
		return word
	}

	pos := positions[rng.Intn(len(positions))]
	neighbours := qwertyAdjacent[runes[pos]]
	runes[pos] = neighbours[rng.Intn(len(neighbours))]
	return string(runes)
}
