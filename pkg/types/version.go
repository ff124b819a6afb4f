package types

import (
	"fmt"
	"regexp"
	"strings"

	version "github.com/hashicorp/go-version"
)

// numericVersion admits plain dot-separated releases only. go-version also
// accepts a "v" prefix, pre-release and build metadata, none of which a
// taxonomy version may carry.
var numericVersion = regexp.MustCompile(`^\d+(\.\d+)*$`)

// ParseVersion parses a dot-separated numeric version string.
func ParseVersion(v string) (*version.Version, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil, fmt.Errorf("%w: empty", ErrInvalidVersion)
	}
	if !numericVersion.MatchString(v) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidVersion, v)
	}
	out, err := version.NewVersion(v)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidVersion, v, err)
	}
	return out, nil
}

// CompareVersions compares two dot-separated versions component-wise.
// Missing trailing components count as 0, so "1.2" equals "1.2.0".
// It returns -1, 0 or 1. An empty string sorts before every valid version.
func CompareVersions(a, b string) (int, error) {
	a, b = strings.TrimSpace(a), strings.TrimSpace(b)
	if a == "" || b == "" {
		switch {
		case a == b:
			return 0, nil
		case a == "":
			if _, err := ParseVersion(b); err != nil {
				return 0, err
			}
			return -1, nil
		default:
			if _, err := ParseVersion(a); err != nil {
				return 0, err
			}
			return 1, nil
		}
	}
	av, err := ParseVersion(a)
	if err != nil {
		return 0, err
	}
	bv, err := ParseVersion(b)
	if err != nil {
		return 0, err
	}
	return av.Compare(bv), nil
}
