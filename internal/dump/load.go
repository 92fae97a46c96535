// Package dump loads the crates.io database dump into the in-memory tables
// the engine consumes.
//
// The dump is a gzipped tar archive of CSV tables. Loading is a single
// streaming pass over the archive; everything that crosses tables (feature
// clauses naming dependency crates, the feature an optional dependency is
// exposed as, ownership rows) is deferred to a resolution pass afterwards,
// so the loader does not care in which order the archive stores its tables.
//
// The dump carries two decades of accumulated looseness. The loader patches
// a small, enumerated set of known defects and nothing else: version and
// requirement strings that predate strict validation go through alias
// tables (internal/semver), feature clauses naming crates that no longer
// exist are dropped, a few deleted crates that many downstream crates still
// depend on are resurrected from a hand-curated patch table (mend.go), and
// wildcard requirements that would claim compatibility with releases that
// do not exist yet are constrained during the clean pass (clean.go).
package dump

import (
	"archive/tar"
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/cratestats/cargo-tally/internal/arena"
	"github.com/cratestats/cargo-tally/internal/cratemap"
	"github.com/cratestats/cargo-tally/internal/debug"
	"github.com/cratestats/cargo-tally/internal/types"
)

// rawEnable is one entry of a feature's enables list before crate names
// are resolved to ids. An empty Dep targets the release's own crate.
type rawEnable struct {
	dep     string
	feature string
	weak    bool
}

type rawFeature struct {
	name    string
	enables []rawEnable
}

type ownerRow struct {
	crate types.CrateId
	owner int64
	team  bool
}

type loader struct {
	crates   *cratemap.CrateMap
	features *types.FeatureNames

	releases        []types.Release
	releaseFeatures [][]rawFeature // parallel to releases

	dependencies []types.Dependency
	depRename    []string // parallel; explicit_name of each dep, "" if none

	users  map[int64]string
	teams  map[int64]string
	owners []ownerRow
}

// Load reads a gzipped tar archive of CSV tables from r and returns the
// validated tables. Releases come back sorted chronologically.
func Load(r io.Reader) (*types.DbDump, *cratemap.CrateMap, error) {
	l := &loader{
		crates:   cratemap.New(),
		features: types.NewFeatureNames(),
		users:    make(map[int64]string),
		teams:    make(map[int64]string),
	}

	gz, err := gzip.NewReader(r)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to decompress db dump: %w", err)
	}
	defer gz.Close()

	archive := tar.NewReader(gz)
	for {
		header, err := archive.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("failed to read db dump archive: %w", err)
		}
		if header.Typeflag != tar.TypeReg {
			continue
		}
		table := tableName(header.Name)
		if table == "" {
			continue
		}
		if err := l.loadTable(table, archive); err != nil {
			return nil, nil, fmt.Errorf("failed to load %s: %w", header.Name, err)
		}
	}

	l.resolve()

	db := &types.DbDump{
		Releases:     l.releases,
		Dependencies: l.dependencies,
		Features:     l.features,
	}
	SortReleases(db)
	return db, l.crates, nil
}

// tableName extracts the table a tar entry holds, e.g.
// "2024-01-01-020045/data/crates.csv" -> "crates".
func tableName(path string) string {
	if !strings.HasSuffix(path, ".csv") {
		return ""
	}
	base := path[strings.LastIndexByte(path, '/')+1:]
	return strings.TrimSuffix(base, ".csv")
}

func (l *loader) loadTable(table string, r io.Reader) error {
	switch table {
	case "crates":
		return forEachRow(r, []string{"id", "name"}, func(row []string) error {
			id, err := parseID(row[0])
			if err != nil {
				return err
			}
			return l.crates.Insert(types.CrateId(id), row[1])
		})
	case "versions":
		return forEachRow(r, []string{"id", "crate_id", "num", "created_at", "yanked", "features"}, l.versionRow)
	case "dependencies":
		return forEachRow(r, []string{"id", "version_id", "crate_id", "req", "optional", "default_features", "features", "kind", "explicit_name"}, l.dependencyRow)
	case "users":
		return forEachRow(r, []string{"id", "gh_login"}, func(row []string) error {
			id, err := parseID(row[0])
			if err != nil {
				return err
			}
			l.users[int64(id)] = row[1]
			return nil
		})
	case "teams":
		return forEachRow(r, []string{"id", "login"}, func(row []string) error {
			id, err := parseID(row[0])
			if err != nil {
				return err
			}
			l.teams[int64(id)] = row[1]
			return nil
		})
	case "crate_owners":
		return forEachRow(r, []string{"crate_id", "owner_id", "owner_kind"}, func(row []string) error {
			crate, err := parseID(row[0])
			if err != nil {
				return err
			}
			owner, err := parseID(row[1])
			if err != nil {
				return err
			}
			l.owners = append(l.owners, ownerRow{
				crate: types.CrateId(crate),
				owner: int64(owner),
				team:  row[2] == "1",
			})
			return nil
		})
	}
	return nil
}

func (l *loader) versionRow(row []string) error {
	if parseBool(row[4]) {
		return nil // yanked
	}
	id, err := parseID(row[0])
	if err != nil {
		return err
	}
	crate, err := parseID(row[1])
	if err != nil {
		return err
	}
	num, err := parseVersion(row[2])
	if err != nil {
		return fmt.Errorf("version id %d: %w", id, err)
	}
	if num.IsPrerelease() {
		return nil
	}
	createdAt, err := parseTimestamp(row[3])
	if err != nil {
		return fmt.Errorf("version id %d: %w", id, err)
	}

	var features []rawFeature
	if row[5] != "" && row[5] != "{}" {
		var decoded map[string][]string
		if err := json.Unmarshal([]byte(row[5]), &decoded); err != nil {
			return fmt.Errorf("version id %d: invalid features json: %w", id, err)
		}
		names := make([]string, 0, len(decoded))
		for name := range decoded {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			l.features.ID(name)
			feature := rawFeature{name: name}
			for _, clause := range decoded[name] {
				feature.enables = append(feature.enables, parseEnable(clause))
			}
			features = append(features, feature)
		}
	}

	l.releases = append(l.releases, types.Release{
		ID:        types.VersionId(id),
		Crate:     types.CrateId(crate),
		Num:       num,
		CreatedAt: createdAt,
	})
	l.releaseFeatures = append(l.releaseFeatures, features)
	return nil
}

// parseEnable splits a feature-enables clause: "feat", "dep/feat", or the
// weak form "dep?/feat".
func parseEnable(clause string) rawEnable {
	slash := strings.IndexByte(clause, '/')
	if slash < 0 {
		return rawEnable{feature: clause}
	}
	dep := clause[:slash]
	weak := strings.HasSuffix(dep, "?")
	if weak {
		dep = dep[:len(dep)-1]
	}
	return rawEnable{dep: dep, feature: clause[slash+1:], weak: weak}
}

func (l *loader) dependencyRow(row []string) error {
	id, err := parseID(row[0])
	if err != nil {
		return err
	}
	version, err := parseID(row[1])
	if err != nil {
		return err
	}
	crate, err := parseID(row[2])
	if err != nil {
		return err
	}
	req, err := parseReq(row[3])
	if err != nil {
		return fmt.Errorf("dependency id %d: %w", id, err)
	}

	feature := types.FeatureCrate
	if parseBool(row[4]) {
		feature = types.FeatureTBD
	}

	defaultFeatures := parseBool(row[5])
	var features []types.FeatureId
	for _, name := range parsePgArray(row[6]) {
		fid := l.features.ID(name)
		if fid == types.FeatureDefault {
			defaultFeatures = true
		} else {
			features = append(features, fid)
		}
	}

	l.dependencies = append(l.dependencies, types.Dependency{
		ID:              types.DependencyId(id),
		Version:         types.VersionId(version),
		Crate:           types.CrateId(crate),
		Req:             req,
		Feature:         feature,
		DefaultFeatures: defaultFeatures,
		Features:        arena.New(features),
		Kind:            parseKind(row[7]),
	})
	l.depRename = append(l.depRename, row[8])
	return nil
}

// resolve performs the deferred cross-table work: feature clauses resolve
// their crate names, optional dependencies learn the feature they are
// exposed as.
func (l *loader) resolve() {
	// Feature clauses name a renamed dependency by its explicit name.
	renamed := make(map[types.VersionId]map[string]types.CrateId)
	for i, name := range l.depRename {
		if name == "" {
			continue
		}
		dep := &l.dependencies[i]
		if renamed[dep.Version] == nil {
			renamed[dep.Version] = make(map[string]types.CrateId)
		}
		renamed[dep.Version][name] = dep.Crate
	}

	for i := range l.releases {
		rel := &l.releases[i]
		raw := l.releaseFeatures[i]
		if len(raw) == 0 {
			continue
		}
		enables := make([]types.FeatureEnables, 0, len(raw))
		var strong, weak []types.CrateFeature
		for _, feature := range raw {
			strong, weak = strong[:0], weak[:0]
			for _, enable := range feature.enables {
				crate := rel.Crate
				if enable.dep != "" {
					id, ok := renamed[rel.ID][enable.dep]
					if !ok {
						id, ok = l.crates.ID(enable.dep)
					}
					if !ok {
						// crates.io historically accepted feature
						// clauses naming nonexistent dependencies.
						debug.Logf("dropping feature clause %s/%s of version %d: unknown crate\n",
							enable.dep, enable.feature, rel.ID)
						continue
					}
					crate = id
				}
				cf := types.CrateFeature{Crate: crate, Feature: l.features.ID(enable.feature)}
				if enable.weak {
					weak = append(weak, cf)
				} else {
					strong = append(strong, cf)
				}
			}
			enables = append(enables, types.FeatureEnables{
				ID:          l.features.ID(feature.name),
				Enables:     arena.New(strong),
				WeakEnables: arena.New(weak),
			})
		}
		rel.Features = arena.New(enables)
	}
	l.releaseFeatures = nil

	for i := range l.dependencies {
		dep := &l.dependencies[i]
		if dep.Feature != types.FeatureTBD {
			continue
		}
		name := l.depRename[i]
		if name == "" {
			name, _ = l.crates.Name(dep.Crate)
		}
		dep.Feature = l.features.ID(name)
	}
	l.depRename = nil

	for _, row := range l.owners {
		var login string
		var ok bool
		if row.team {
			login, ok = l.teams[row.owner]
		} else {
			login, ok = l.users[row.owner]
		}
		if !ok {
			continue
		}
		l.crates.AddOwner(login, row.crate)
	}
	l.owners = nil
}

// SortReleases orders releases chronologically. The sort is stable so that
// releases sharing a timestamp keep their dump order.
func SortReleases(db *types.DbDump) {
	sort.SliceStable(db.Releases, func(i, j int) bool {
		return db.Releases[i].CreatedAt.Before(db.Releases[j].CreatedAt)
	})
}
