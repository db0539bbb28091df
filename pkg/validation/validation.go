// Package validation provides input validation for registry identifiers.
package validation

import (
	"fmt"
	"regexp"
	"strings"
)

// Repository name validation per the distribution spec:
// - Lowercase letters, digits, and separators (., _, -)
// - Separators must not be adjacent and cannot start/end the name
// - Allows nested paths like "myorg/myapp"
var repoNameRegex = regexp.MustCompile(`^[a-z0-9]+(?:[._-][a-z0-9]+)*(?:/[a-z0-9]+(?:[._-][a-z0-9]+)*)*$`)

// Reference (tag) validation per the distribution spec:
// - Must start with an alphanumeric character
// - Dots, underscores, and hyphens allowed after the first character
// - Max 128 characters
var referenceRegex = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._-]{0,127}$`)

// Digest validation:
// - Format: algorithm:hex
// - Supported algorithms: sha256 (64 hex chars), sha512 (128 hex chars)
var digestRegex = regexp.MustCompile(`^(sha256:[a-f0-9]{64}|sha512:[a-f0-9]{128})$`)

// MaxRepositoryNameLength is the maximum allowed length for repository names.
const MaxRepositoryNameLength = 256

// ValidateRepositoryName validates a repository name. Returns an error
// if the name is invalid or could enable path traversal.
func ValidateRepositoryName(name string) error {
	if name == "" {
		return fmt.Errorf("repository name cannot be empty")
	}

	if len(name) > MaxRepositoryNameLength {
		return fmt.Errorf("repository name too long: %d chars (max %d)", len(name), MaxRepositoryNameLength)
	}

	if strings.Contains(name, "..") {
		return fmt.Errorf("repository name contains path traversal sequence")
	}

	if !repoNameRegex.MatchString(name) {
		return fmt.Errorf("invalid repository name format: must contain only lowercase letters, digits, and separators (., _, -)")
	}

	return nil
}

// ValidateReference validates a tag or digest reference.
func ValidateReference(reference string) error {
	if reference == "" {
		return fmt.Errorf("reference cannot be empty")
	}

	if strings.Contains(reference, "..") {
		return fmt.Errorf("reference contains path traversal sequence")
	}

	if digestRegex.MatchString(reference) {
		return nil
	}

	if !referenceRegex.MatchString(reference) {
		return fmt.Errorf("invalid reference format: must be a valid tag or digest")
	}

	return nil
}

// ValidateDigest validates a content digest. Format must be
// algorithm:hex where algorithm is sha256 or sha512.
func ValidateDigest(digest string) error {
	if digest == "" {
		return fmt.Errorf("digest cannot be empty")
	}

	if !digestRegex.MatchString(digest) {
		return fmt.Errorf("invalid digest format: must be sha256:<64 hex chars> or sha512:<128 hex chars>")
	}

	return nil
}

// IsDigest reports whether a string is a valid content digest.
func IsDigest(digest string) bool {
	return ValidateDigest(digest) == nil
}
