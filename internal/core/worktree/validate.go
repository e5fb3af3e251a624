// Package worktree contains the pure business logic for worktree stacks:
// name validation, add-state classification, guards and step planners.
package worktree

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

const (
	maxBranchLen  = 250
	maxDirNameLen = 200
)

// dirNamePattern is the whitelist for targets and worktree directory names.
var dirNamePattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// ValidateBranchName reports whether name is acceptable as a worktree branch.
func ValidateBranchName(name string) bool {
	if name == "" || len(name) > maxBranchLen {
		return false
	}
	if name == "@" {
		return false
	}
	if strings.Contains(name, "..") || strings.Contains(name, "//") {
		return false
	}
	if strings.ContainsAny(name, `~^:?*[]\`) {
		return false
	}
	if strings.HasPrefix(name, "/") || strings.HasSuffix(name, "/") {
		return false
	}
	if strings.HasSuffix(name, ".lock") {
		return false
	}
	for _, r := range name {
		if r < 0x20 || r == 0x7f || unicode.IsSpace(r) {
			return false
		}
	}
	return true
}

// BranchSlug turns a branch name into the directory-name fragment (slashes become dashes).
func BranchSlug(branch string) string {
	return strings.ReplaceAll(branch, "/", "-")
}

// MakeDirName builds the worktree directory name {target}-{branch_slug}.
// The combined name is validated again: valid inputs can still produce an invalid
// name (too long, or a branch character outside the directory whitelist).
func MakeDirName(target, branch string) (string, error) {
	if !ValidateBranchName(branch) {
		return "", fmt.Errorf("invalid branch name %q", branch)
	}
	if err := validateDirName(target); err != nil {
		return "", fmt.Errorf("invalid target %q: %w", target, err)
	}

	name := target + "-" + BranchSlug(branch)
	if err := validateDirName(name); err != nil {
		return "", fmt.Errorf("cannot build worktree directory name from target %q and branch %q: %w", target, branch, err)
	}
	return name, nil
}

func validateDirName(name string) error {
	if name == "" {
		return fmt.Errorf("name is empty")
	}
	if len(name) > maxDirNameLen {
		return fmt.Errorf("name is %d characters long, the limit is %d", len(name), maxDirNameLen)
	}
	if !dirNamePattern.MatchString(name) {
		return fmt.Errorf("name may only contain letters, digits, '_' and '-'")
	}
	return nil
}
