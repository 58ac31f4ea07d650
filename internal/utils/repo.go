package utils

import (
	"fmt"
	"strings"
)

// SplitNameWithOwner splits a GitHub "owner/name" identifier into its parts.
func SplitNameWithOwner(nameWithOwner string) (owner, name string, err error) {
	parts := strings.SplitN(nameWithOwner, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid repository name %q, expected owner/name", nameWithOwner)
	}
	return parts[0], parts[1], nil
}
