// Package textutil provides the string constraint checks the validator
// needs for _regex and _format (§3.2, §4.5.2 step 3): PatternMismatch
// and FormatError.
//
// Adapted from the teacher's apoc/text package (Clean/RegexGroups/
// Trim and friends, used there for Cypher string procedures); the
// dictionary core only needs the matching subset, retargeted at
// constraint evaluation rather than string transformation.
package textutil

import (
	"fmt"
	"net/mail"
	"net/url"
	"regexp"
	"sync"
)

var (
	regexCacheMu sync.Mutex
	regexCache   = map[string]*regexp.Regexp{}
)

// MatchesRegex compiles (and caches) pattern and reports whether value
// contains a match for it; the pattern is not implicitly anchored at
// either end. An invalid pattern is a DefinitionError at the
// caller, signaled here by returning a non-nil error.
func MatchesRegex(pattern, value string) (bool, error) {
	re, err := compile(pattern)
	if err != nil {
		return false, fmt.Errorf("invalid regex %q: %w", pattern, err)
	}
	return re.MatchString(value), nil
}

func compile(pattern string) (*regexp.Regexp, error) {
	regexCacheMu.Lock()
	defer regexCacheMu.Unlock()

	if re, ok := regexCache[pattern]; ok {
		return re, nil
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}
	regexCache[pattern] = re
	return re, nil
}

// Format is a named, pre-canned constraint that _format may reference,
// e.g. "email" or "uri", mirroring common JSON Schema formats.
type Format string

const (
	FormatEmail Format = "email"
	FormatURI   Format = "uri"
)

// MatchesFormat reports whether value satisfies the named format. An
// unrecognized format name returns a non-nil error, which the caller
// reports as a DefinitionError.
func MatchesFormat(format Format, value string) (bool, error) {
	switch format {
	case FormatEmail:
		_, err := mail.ParseAddress(value)
		return err == nil, nil
	case FormatURI:
		u, err := url.Parse(value)
		return err == nil && u.Scheme != "" && u.Host != "", nil
	default:
		return false, fmt.Errorf("unknown format %q", format)
	}
}
