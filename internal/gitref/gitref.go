// Package gitref derives deployment identifiers from git push references.
package gitref

import "strings"

const headsPrefix = "refs/heads/"

// PrimaryBranch is the branch that deploys to the unsuffixed service name and
// gates the stages restricted to canonical pushes.
const PrimaryBranch = "main"

// Ref describes the push event that triggered a pipeline run.
type Ref struct {
	// Name is the full reference name, e.g. refs/heads/main.
	Name string
	// SHA is the commit the push points at.
	SHA string
}

// Branch returns the bare branch name of the reference.
func (r Ref) Branch() string {
	return Branch(r.Name)
}

// IsPrimary reports whether the reference points at the primary branch.
func (r Ref) IsPrimary() bool {
	return Branch(r.Name) == PrimaryBranch
}

// Branch strips the refs/heads/ prefix from a reference name. Names without
// the prefix are returned unchanged so that bare branch names are accepted
// wherever full references are.
func Branch(ref string) string {
	return strings.TrimPrefix(ref, headsPrefix)
}

// Suffix computes the service name suffix for a reference. The primary branch
// maps to the empty suffix so it deploys to the default service; every other
// branch maps to "-" plus its sanitized name.
func Suffix(ref string) string {
	branch := Branch(ref)
	if branch == PrimaryBranch {
		return ""
	}
	return SanitizeToken("-" + branch)
}

// SanitizeToken rewrites "1.0" to "one-dot-zero" because managed service
// names disallow dots. This is intentionally a narrow rule tied to the 1.0-dev
// branch naming convention, not a general sanitizer; it does not handle other
// dotted versions. Applying it to a string already free of "1.0" is a no-op.
func SanitizeToken(s string) string {
	return strings.ReplaceAll(s, "1.0", "one-dot-zero")
}

// ServiceName appends the reference's suffix to the base service name to form
// the deployment target identifier.
func ServiceName(base string, ref string) string {
	return base + Suffix(ref)
}
