package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NeverVane/shorty/internal/alias"
	"github.com/NeverVane/shorty/internal/store"
)

// stubResolver resolves only the names it was given.
type stubResolver struct {
	known map[string]bool
}

func newStubResolver(names ...string) *stubResolver {
	r := &stubResolver{known: make(map[string]bool)}
	for _, n := range names {
		r.known[n] = true
	}
	return r
}

func (r *stubResolver) Resolve(name string) bool {
	return r.known[name]
}

func collectionOf(t *testing.T, aliases ...*alias.Alias) *store.Collection {
	t.Helper()
	col := store.NewCollection()
	for _, a := range aliases {
		require.NoError(t, col.Add(a, store.Reject, false))
	}
	return col
}

func mustAlias(t *testing.T, name, command string) *alias.Alias {
	t.Helper()
	a, err := alias.New(name, command, "", nil)
	require.NoError(t, err)
	return a
}

func findingsOfKind(findings []Finding, kind Kind) []Finding {
	var out []Finding
	for _, f := range findings {
		if f.Kind == kind {
			out = append(out, f)
		}
	}
	return out
}

func TestCleanCollectionHasNoFindings(t *testing.T) {
	v := New(newStubResolver("git", "ls"))
	col := collectionOf(t,
		mustAlias(t, "gs", "git status"),
		mustAlias(t, "ll", "ls -la"),
	)

	assert.Empty(t, v.Check(col, nil))
}

func TestCommandNotFound(t *testing.T) {
	v := New(newStubResolver("git"))
	col := collectionOf(t,
		mustAlias(t, "gs", "git status"),
		mustAlias(t, "kb", "kubectl get pods"),
	)

	findings := v.Check(col, nil)
	notFound := findingsOfKind(findings, KindCommandNotFound)
	require.Len(t, notFound, 1)
	assert.Equal(t, "kb", notFound[0].Alias)
	assert.Equal(t, SeverityWarning, notFound[0].Severity)
}

func TestCommandNotFoundSkipsAliasChains(t *testing.T) {
	v := New(newStubResolver("git"))
	col := collectionOf(t,
		mustAlias(t, "gs", "git status"),
		mustAlias(t, "gss", "gs --short"),
	)

	assert.Empty(t, findingsOfKind(v.Check(col, nil), KindCommandNotFound))
}

func TestCommandHeadSkipsEnvAndSudo(t *testing.T) {
	v := New(newStubResolver("node", "apt"))
	col := collectionOf(t,
		mustAlias(t, "dev", "NODE_ENV=dev node server.js"),
		mustAlias(t, "up", "sudo apt update"),
	)

	assert.Empty(t, findingsOfKind(v.Check(col, nil), KindCommandNotFound))
}

func TestBuiltinsResolveWithPathResolver(t *testing.T) {
	// cd is a builtin and never on PATH; the default resolver must
	// still consider it resolvable.
	assert.True(t, PathResolver{}.Resolve("cd"))
}

func TestDangerousPattern(t *testing.T) {
	v := New(newStubResolver("rm", "dd", "sudo"))
	col := collectionOf(t,
		mustAlias(t, "nuke", "rm -rf / --no-preserve-root"),
		mustAlias(t, "img", "dd if=/dev/zero of=/dev/sda"),
		mustAlias(t, "fine", "rm -i old.txt"),
	)

	findings := findingsOfKind(v.Check(col, nil), KindDangerousPattern)
	require.Len(t, findings, 2)
	for _, f := range findings {
		assert.Equal(t, SeverityError, f.Severity)
	}
}

func TestSystemNameConflict(t *testing.T) {
	v := New(newStubResolver("git", "ls"))
	col := collectionOf(t,
		mustAlias(t, "cd", "cd ~/projects"),
		mustAlias(t, "gs", "git status"),
	)

	findings := findingsOfKind(v.Check(col, nil), KindSystemNameConflict)
	require.Len(t, findings, 1)
	assert.Equal(t, "cd", findings[0].Alias)
	assert.Equal(t, SeverityWarning, findings[0].Severity)
}

func TestDuplicateCommand(t *testing.T) {
	v := New(newStubResolver("git"))
	col := collectionOf(t,
		mustAlias(t, "gs", "git status"),
		mustAlias(t, "st", "git   status"),
		mustAlias(t, "gp", "git push"),
	)

	findings := findingsOfKind(v.Check(col, nil), KindDuplicateCommand)
	require.Len(t, findings, 1)
	assert.Equal(t, SeverityInfo, findings[0].Severity)
	assert.Contains(t, findings[0].Message, "gs")
	assert.Contains(t, findings[0].Message, "st")
}

func TestLoadWarningsBecomeSyntaxFindings(t *testing.T) {
	v := New(newStubResolver("git"))
	col := collectionOf(t, mustAlias(t, "gs", "git status"))
	warnings := []*alias.ParseError{
		{LineNo: 3, Text: "alias broken=", Reason: "command must be single-quoted"},
	}

	findings := v.Check(col, warnings)
	syntax := findingsOfKind(findings, KindInvalidSyntax)
	require.Len(t, syntax, 1)
	assert.Equal(t, SeverityError, syntax[0].Severity)
	assert.Contains(t, syntax[0].Message, "line 3")
}

func TestFixKeepsFirstOccurrence(t *testing.T) {
	v := New(newStubResolver("git"))
	col := collectionOf(t,
		mustAlias(t, "gs", "git status"),
		mustAlias(t, "st", "git status"),
		mustAlias(t, "gp", "git push"),
	)

	removed := v.Fix(col)
	require.Len(t, removed, 1)
	assert.Equal(t, "st", removed[0].Name)
	_, ok := col.Get("gs")
	assert.True(t, ok)
	assert.Equal(t, 2, col.Len())
}

func TestHasErrors(t *testing.T) {
	assert.False(t, HasErrors(nil))
	assert.False(t, HasErrors([]Finding{{Severity: SeverityWarning}}))
	assert.True(t, HasErrors([]Finding{{Severity: SeverityWarning}, {Severity: SeverityError}}))
}

func TestSeverityString(t *testing.T) {
	assert.Equal(t, "info", SeverityInfo.String())
	assert.Equal(t, "warning", SeverityWarning.String())
	assert.Equal(t, "error", SeverityError.String())
}
