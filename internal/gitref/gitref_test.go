package gitref_test

import (
	"testing"

	"go.arcalot.io/assert"

	"github.com/deckhand-ci/deckhand/internal/gitref"
)

var suffixData = map[string]struct {
	ref      string
	expected string
}{
	"primary": {
		ref:      "refs/heads/main",
		expected: "",
	},
	"versioned-dev": {
		ref:      "refs/heads/1.0-dev",
		expected: "-one-dot-zero-dev",
	},
	"feature": {
		ref:      "refs/heads/feature-x",
		expected: "-feature-x",
	},
	"bare-branch-name": {
		ref:      "feature-x",
		expected: "-feature-x",
	},
}

func TestSuffix(t *testing.T) {
	for name, tc := range suffixData {
		tc := tc
		t.Run(name, func(t *testing.T) {
			assert.Equals(t, gitref.Suffix(tc.ref), tc.expected)
		})
	}
}

func TestBranch(t *testing.T) {
	assert.Equals(t, gitref.Branch("refs/heads/main"), "main")
	assert.Equals(t, gitref.Branch("refs/heads/1.0-dev"), "1.0-dev")
	assert.Equals(t, gitref.Branch("main"), "main")
}

func TestSanitizeTokenStability(t *testing.T) {
	// A string already free of "1.0" must pass through unchanged, so
	// re-applying the sanitizer to its own output is a no-op.
	once := gitref.SanitizeToken("-1.0-dev")
	assert.Equals(t, once, "-one-dot-zero-dev")
	assert.Equals(t, gitref.SanitizeToken(once), once)
	assert.Equals(t, gitref.SanitizeToken("-feature-x"), "-feature-x")
}

func TestServiceName(t *testing.T) {
	assert.Equals(t, gitref.ServiceName("datasette-latest", "refs/heads/main"), "datasette-latest")
	assert.Equals(t, gitref.ServiceName("datasette-latest", "refs/heads/1.0-dev"), "datasette-latest-one-dot-zero-dev")
	assert.Equals(t, gitref.ServiceName("datasette-latest", "refs/heads/feature-x"), "datasette-latest-feature-x")
}

func TestRef(t *testing.T) {
	ref := gitref.Ref{Name: "refs/heads/main", SHA: "abc123"}
	assert.Equals(t, ref.Branch(), "main")
	assert.Equals(t, ref.IsPrimary(), true)
	assert.Equals(t, gitref.Ref{Name: "refs/heads/1.0-dev"}.IsPrimary(), false)
}
