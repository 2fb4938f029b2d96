// Copyright 2025 Esteban Alvarez. All Rights Reserved.
//
// Created: October 2025
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package factory

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// resolveNames expands pattern against the known instance names, in one of
// four ways:
//
//   - "group:name"  - the group's member list, verbatim
//   - "regex:expr"  - every name matching expr as a RE2 regular expression
//   - glob ('*'/'?') - every name matching the glob, anchored at both ends
//   - otherwise      - pattern itself, if it names a known instance
//
// The result is sorted for determinism (map iteration order is not stable).
func resolveNames(pattern string, names []string, groups map[string][]string) ([]string, error) {
	switch {
	case strings.HasPrefix(pattern, "group:"):
		groupName := pattern[len("group:"):]
		members, ok := groups[groupName]
		if !ok {
			return nil, fmt.Errorf("unknown group %q", groupName)
		}
		out := append([]string(nil), members...)
		sort.Strings(out)
		return out, nil

	case strings.HasPrefix(pattern, "regex:"):
		expr := pattern[len("regex:"):]
		re, err := regexp.Compile(expr)
		if err != nil {
			return nil, fmt.Errorf("bad regex %q: %w", expr, err)
		}
		return filterNames(names, re.MatchString), nil

	case strings.ContainsAny(pattern, "*?"):
		re, err := regexp.Compile(globToRegex(pattern))
		if err != nil {
			return nil, fmt.Errorf("bad wildcard %q: %w", pattern, err)
		}
		return filterNames(names, re.MatchString), nil

	default:
		for _, n := range names {
			if n == pattern {
				return []string{pattern}, nil
			}
		}
		return nil, fmt.Errorf("no such instance %q", pattern)
	}
}

func filterNames(names []string, match func(string) bool) []string {
	var out []string
	for _, n := range names {
		if match(n) {
			out = append(out, n)
		}
	}
	sort.Strings(out)
	return out
}

// globToRegex converts a '*'/'?' glob into an anchored RE2 pattern: '*'
// becomes ".*", '?' becomes ".", everything else is escaped literally.
func globToRegex(glob string) string {
	var b strings.Builder
	b.WriteByte('^')
	for _, r := range glob {
		switch r {
		case '*':
			b.WriteString(".*")
		case '?':
			b.WriteString(".")
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	b.WriteByte('$')
	return b.String()
}

// excludeSet matches endpoint occurrences against a connection's exclude
// list. Each entry uses the same rule set as a src/dst pattern (literal,
// '*'/'?' wildcard, "regex:", "group:") and is tried against both the bare
// instance name and the "name.port" form.
type excludeSet struct {
	entries []string
	groups  map[string][]string
}

func newExcludeSet(entries []string, groups map[string][]string) excludeSet {
	return excludeSet{entries: entries, groups: groups}
}

func (s excludeSet) excludes(name, port string) bool {
	for _, e := range s.entries {
		if matchesPattern(e, name, s.groups) {
			return true
		}
		if port != "" && matchesPattern(e, name+"."+port, s.groups) {
			return true
		}
	}
	return false
}

// matchesPattern reports whether candidate matches one exclude pattern. A
// malformed regex or wildcard matches nothing rather than failing the whole
// connection: exclusion is best-effort filtering, not endpoint resolution.
func matchesPattern(pattern, candidate string, groups map[string][]string) bool {
	switch {
	case strings.HasPrefix(pattern, "group:"):
		for _, m := range groups[pattern[len("group:"):]] {
			if m == candidate {
				return true
			}
		}
		return false
	case strings.HasPrefix(pattern, "regex:"):
		re, err := regexp.Compile(pattern[len("regex:"):])
		return err == nil && re.MatchString(candidate)
	case strings.ContainsAny(pattern, "*?"):
		re, err := regexp.Compile(globToRegex(pattern))
		return err == nil && re.MatchString(candidate)
	default:
		return pattern == candidate
	}
}
