// Package query parses the command line's query strings into predicate
// lists.
//
// A query is `+`-separated predicates combined as a logical OR. Each
// predicate is either `cratename[:semver_req]` or `@login`, which expands
// to one predicate per crate owned by that user or team.
package query

import (
	"fmt"
	"strings"

	"github.com/cratestats/cargo-tally/internal/arena"
	"github.com/cratestats/cargo-tally/internal/cratemap"
	"github.com/cratestats/cargo-tally/internal/semver"
	"github.com/cratestats/cargo-tally/internal/types"
)

// MaxQueries bounds the query list; QueryId is an 8-bit index.
const MaxQueries = 256

// Parse resolves the query strings against the crate map.
func Parse(queries []string, crates *cratemap.CrateMap) ([]types.Query, error) {
	if len(queries) > MaxQueries {
		return nil, fmt.Errorf("at most %d queries per invocation", MaxQueries)
	}
	parsed := make([]types.Query, 0, len(queries))
	for i, s := range queries {
		predicates, err := parsePredicates(s, crates)
		if err != nil {
			return nil, fmt.Errorf("failed to parse query %q: %w", s, err)
		}
		parsed = append(parsed, types.Query{
			ID:         types.QueryId(i),
			Predicates: arena.New(predicates),
		})
	}
	return parsed, nil
}

func parsePredicates(s string, crates *cratemap.CrateMap) ([]types.Predicate, error) {
	var predicates []types.Predicate
	for _, raw := range strings.Split(s, "+") {
		raw = strings.TrimSpace(raw)

		if login, ok := strings.CutPrefix(raw, "@"); ok {
			owned, _, found := crates.Owned(login)
			if !found || len(owned) == 0 {
				kind := "user"
				if cratemap.IsTeam(login) {
					kind = "team"
				}
				return nil, fmt.Errorf("no crates owned by %s @%s", kind, login)
			}
			for _, crate := range owned {
				predicates = append(predicates, types.Predicate{Crate: crate})
			}
			continue
		}

		name, reqStr, hasReq := strings.Cut(raw, ":")
		name = strings.TrimSpace(name)
		var req *semver.VersionReq
		if hasReq {
			parsed, err := semver.ParseReq(reqStr)
			if err != nil {
				return nil, err
			}
			req = &parsed
		}

		crate, ok := crates.ID(name)
		if !ok {
			crate, ok = crates.IDNormalized(name)
		}
		if !ok {
			return nil, fmt.Errorf("no crate named %s", name)
		}
		predicates = append(predicates, types.Predicate{Crate: crate, Req: req})
	}
	return predicates, nil
}

// Validate checks a query's syntax without resolving names, so malformed
// arguments are reported before any load work begins.
func Validate(s string) error {
	for _, raw := range strings.Split(s, "+") {
		raw = strings.TrimSpace(raw)

		if login, ok := strings.CutPrefix(raw, "@"); ok {
			for _, part := range strings.Split(login, "/") {
				if !cratemap.ValidLogin(part) {
					return fmt.Errorf("invalid crates.io username %q", login)
				}
			}
			continue
		}

		name, reqStr, hasReq := strings.Cut(raw, ":")
		if !cratemap.ValidCrateName(strings.TrimSpace(name)) {
			return fmt.Errorf("invalid crate name %q", name)
		}
		if hasReq {
			if _, err := semver.ParseReq(reqStr); err != nil {
				return err
			}
		}
	}
	return nil
}

// Format renders a query back in canonical form for column headers and
// graph legends: predicates joined with " or ", crate names in their
// registered spelling.
func Format(s string, crates *cratemap.CrateMap) string {
	var b strings.Builder
	for i, raw := range strings.Split(s, "+") {
		raw = strings.TrimSpace(raw)
		if i > 0 {
			b.WriteString(" or ")
		}

		if login, ok := strings.CutPrefix(raw, "@"); ok {
			_, display, found := crates.Owned(login)
			if !found {
				display = login
			}
			b.WriteString("@")
			b.WriteString(display)
			continue
		}

		name, reqStr, hasReq := strings.Cut(raw, ":")
		name = strings.TrimSpace(name)
		if id, ok := crates.ID(name); ok {
			name, _ = crates.Name(id)
		} else if id, ok := crates.IDNormalized(name); ok {
			name, _ = crates.Name(id)
		}
		b.WriteString(name)
		if hasReq {
			if req, err := semver.ParseReq(reqStr); err == nil {
				b.WriteString(":")
				b.WriteString(req.String())
			}
		}
	}
	return b.String()
}
