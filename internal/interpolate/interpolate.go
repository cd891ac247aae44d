// Package interpolate substitutes ${name} variable references in
// loaded context entries. Substitution is best effort: names that no
// resolver can produce are left verbatim so a malformed template never
// fails a pipeline run.
package interpolate

import (
	"os"
	"regexp"
	"strings"

	"github.com/vibex/vibectx/internal/scope"
)

// envPrefix routes a variable name to the process environment instead
// of the caller-supplied resolvers.
const envPrefix = "env."

var variablePattern = regexp.MustCompile(`\$\{([A-Za-z0-9_.\-]+)\}`)

// Resolver produces the value of one variable. A returned error marks
// the variable unresolved; its references stay verbatim.
type Resolver func() (string, error)

// memoized holds the outcome of a single resolver evaluation.
type memoized struct {
	value string
	ok    bool
}

// Interpolator expands variables across the entries of one pipeline
// run. Each variable name is resolved at most once, so create a new
// Interpolator per run.
type Interpolator struct {
	resolvers map[string]Resolver
	onResolve func(name, value string)
	memo      map[string]memoized
}

// New returns an Interpolator over the given resolver map. onResolve,
// when non-nil, fires once per substitution performed.
func New(resolvers map[string]Resolver, onResolve func(name, value string)) *Interpolator {
	return &Interpolator{
		resolvers: resolvers,
		onResolve: onResolve,
		memo:      make(map[string]memoized),
	}
}

// Run returns a copy of entries with variable references expanded.
// Entry ordering metadata is untouched; only content changes.
func (i *Interpolator) Run(entries []scope.Entry) []scope.Entry {
	out := make([]scope.Entry, len(entries))
	for idx, e := range entries {
		content, resolved := i.Expand(e.Content)
		out[idx] = e.WithContent(content, resolved)
	}
	return out
}

// Expand substitutes every resolvable ${name} in s and reports which
// names were substituted with which values.
func (i *Interpolator) Expand(s string) (string, map[string]string) {
	if !strings.Contains(s, "${") {
		return s, nil
	}

	var resolved map[string]string
	expanded := variablePattern.ReplaceAllStringFunc(s, func(match string) string {
		name := match[2 : len(match)-1]
		value, ok := i.resolve(name)
		if !ok {
			return match
		}
		if resolved == nil {
			resolved = make(map[string]string)
		}
		resolved[name] = value
		if i.onResolve != nil {
			i.onResolve(name, value)
		}
		return value
	})
	return expanded, resolved
}

func (i *Interpolator) resolve(name string) (string, bool) {
	if m, seen := i.memo[name]; seen {
		return m.value, m.ok
	}

	value, ok := i.evaluate(name)
	i.memo[name] = memoized{value: value, ok: ok}
	return value, ok
}

func (i *Interpolator) evaluate(name string) (string, bool) {
	if env, isEnv := strings.CutPrefix(name, envPrefix); isEnv {
		return os.LookupEnv(env)
	}
	r, ok := i.resolvers[name]
	if !ok {
		return "", false
	}
	value, err := r()
	if err != nil {
		return "", false
	}
	return value, true
}
