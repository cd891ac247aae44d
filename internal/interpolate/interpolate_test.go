package interpolate_test

import (
	"errors"
	"os"
	"testing"

	"github.com/vibex/vibectx/internal/interpolate"
	"github.com/vibex/vibectx/internal/scope"
)

func TestExpand_EnvRoundTrip(t *testing.T) {
	t.Setenv("VIBECTX_TEST_REGION", "eu-west-1")

	got, resolved := interpolate.New(nil, nil).Expand("deploy to ${env.VIBECTX_TEST_REGION} only")
	if got != "deploy to eu-west-1 only" {
		t.Errorf("expanded = %q", got)
	}
	if resolved["env.VIBECTX_TEST_REGION"] != "eu-west-1" {
		t.Errorf("resolved map = %v", resolved)
	}
}

func TestExpand_HomeDirectory(t *testing.T) {
	home, ok := os.LookupEnv("HOME")
	if !ok {
		t.Skip("HOME not set")
	}

	got, _ := interpolate.New(nil, nil).Expand("config at ${env.HOME}/.vibex")
	want := "config at " + home + "/.vibex"
	if got != want {
		t.Errorf("expanded = %q, want %q", got, want)
	}
}

func TestExpand_ResolverMap(t *testing.T) {
	resolvers := map[string]interpolate.Resolver{
		"project.name": func() (string, error) { return "vibectx", nil },
	}

	got, resolved := interpolate.New(resolvers, nil).Expand("Welcome to ${project.name}.")
	if got != "Welcome to vibectx." {
		t.Errorf("expanded = %q", got)
	}
	if resolved["project.name"] != "vibectx" {
		t.Errorf("resolved map = %v", resolved)
	}
}

func TestExpand_UnresolvedStaysVerbatim(t *testing.T) {
	resolvers := map[string]interpolate.Resolver{
		"broken": func() (string, error) { return "", errors.New("backend down") },
	}

	tests := []struct {
		name  string
		input string
	}{
		{"unknown name", "keep ${no.such.name} as is"},
		{"failing resolver", "keep ${broken} as is"},
		{"unset env var", "keep ${env.VIBECTX_DEFINITELY_UNSET_VAR} as is"},
		{"unclosed reference", "keep ${dangling as is"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, resolved := interpolate.New(resolvers, nil).Expand(tt.input)
			if got != tt.input {
				t.Errorf("Expand(%q) = %q, want input unchanged", tt.input, got)
			}
			if len(resolved) != 0 {
				t.Errorf("resolved map = %v, want empty", resolved)
			}
		})
	}
}

func TestRun_ResolversEvaluatedOnce(t *testing.T) {
	calls := 0
	resolvers := map[string]interpolate.Resolver{
		"stamp": func() (string, error) {
			calls++
			return "v1", nil
		},
	}

	entries := []scope.Entry{
		{Content: "first ${stamp}", Priority: 500},
		{Content: "second ${stamp} and again ${stamp}", Priority: 100},
	}

	out := interpolate.New(resolvers, nil).Run(entries)
	if calls != 1 {
		t.Errorf("resolver evaluated %d times, want 1", calls)
	}
	if out[0].Content != "first v1" || out[1].Content != "second v1 and again v1" {
		t.Errorf("contents = %q, %q", out[0].Content, out[1].Content)
	}
}

func TestRun_PreservesOrderingMetadata(t *testing.T) {
	entries := []scope.Entry{{
		Scope:      scope.Project,
		Label:      "Project",
		SourcePath: "/p/VIBEX.md",
		Content:    "name: ${project.name}",
		Priority:   500,
	}}
	resolvers := map[string]interpolate.Resolver{
		"project.name": func() (string, error) { return "demo", nil },
	}

	out := interpolate.New(resolvers, nil).Run(entries)

	e := out[0]
	if e.Scope != scope.Project || e.Priority != 500 || e.SourcePath != "/p/VIBEX.md" {
		t.Errorf("ordering metadata changed: %+v", e)
	}
	if e.Content != "name: demo" {
		t.Errorf("content = %q", e.Content)
	}
	if e.ResolvedVariables["project.name"] != "demo" {
		t.Errorf("resolved variables = %v", e.ResolvedVariables)
	}
	if entries[0].Content != "name: ${project.name}" {
		t.Error("input slice mutated")
	}
}

func TestExpand_CallbackFiresPerSubstitution(t *testing.T) {
	t.Setenv("VIBECTX_TEST_CB", "x")

	var fired []string
	cb := func(name, value string) { fired = append(fired, name+"="+value) }

	interp := interpolate.New(nil, cb)
	interp.Expand("${env.VIBECTX_TEST_CB} ${env.VIBECTX_TEST_CB} ${env.VIBECTX_MISSING}")

	if len(fired) != 2 {
		t.Fatalf("callback fired %d times, want 2: %v", len(fired), fired)
	}
	for _, f := range fired {
		if f != "env.VIBECTX_TEST_CB=x" {
			t.Errorf("callback payload = %q", f)
		}
	}
}
