package dump

import (
	_ "embed"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/cratestats/cargo-tally/internal/arena"
	"github.com/cratestats/cargo-tally/internal/cratemap"
	"github.com/cratestats/cargo-tally/internal/debug"
	"github.com/cratestats/cargo-tally/internal/semver"
	"github.com/cratestats/cargo-tally/internal/types"
)

//go:embed mend.yaml
var mendTable []byte

type mendFile struct {
	Crates []mendCrate `yaml:"crates"`
}

type mendCrate struct {
	Name     string        `yaml:"name"`
	Features []mendFeature `yaml:"features"`
	Releases []mendRelease `yaml:"releases"`
}

type mendFeature struct {
	Name    string   `yaml:"name"`
	Enables []string `yaml:"enables"`
}

type mendRelease struct {
	Num          string           `yaml:"num"`
	CreatedAt    time.Time        `yaml:"created_at"`
	Dependencies []mendDependency `yaml:"dependencies"`
}

type mendDependency struct {
	Crate           string `yaml:"crate"`
	Req             string `yaml:"req"`
	Feature         string `yaml:"feature"`
	DefaultFeatures *bool  `yaml:"default_features"`
	Kind            string `yaml:"kind"`
}

// Mend reinserts the patch table's deleted crates into the dump with fresh
// version and dependency ids. Crates absent from the dump and releases the
// dump has since regained are skipped with a trace.
func Mend(db *types.DbDump, crates *cratemap.CrateMap) error {
	var table mendFile
	if err := yaml.Unmarshal(mendTable, &table); err != nil {
		return fmt.Errorf("failed to parse mend table: %w", err)
	}

	usedVersions := make(map[types.VersionId]struct{}, len(db.Releases))
	usedNums := make(map[string]struct{}, len(db.Releases))
	for i := range db.Releases {
		rel := &db.Releases[i]
		usedVersions[rel.ID] = struct{}{}
		usedNums[numKey(rel.Crate, rel.Num)] = struct{}{}
	}
	usedDeps := make(map[types.DependencyId]struct{}, len(db.Dependencies))
	for i := range db.Dependencies {
		usedDeps[db.Dependencies[i].ID] = struct{}{}
	}

	nextVersion := types.VersionId(0)
	nextVersionID := func() types.VersionId {
		for {
			if _, used := usedVersions[nextVersion]; !used {
				usedVersions[nextVersion] = struct{}{}
				return nextVersion
			}
			nextVersion++
		}
	}
	nextDep := types.DependencyId(0)
	nextDepID := func() types.DependencyId {
		for {
			if _, used := usedDeps[nextDep]; !used {
				usedDeps[nextDep] = struct{}{}
				return nextDep
			}
			nextDep++
		}
	}

	for _, entry := range table.Crates {
		crateID, ok := crates.ID(entry.Name)
		if !ok {
			debug.Logf("mend: crate %s is gone from the dump entirely\n", entry.Name)
			continue
		}

		features, err := mendFeatures(entry, crateID, crates, db.Features)
		if err != nil {
			return err
		}

		for _, release := range entry.Releases {
			num, err := semver.Parse(release.Num)
			if err != nil {
				return fmt.Errorf("mend: crate %s: %w", entry.Name, err)
			}
			if _, exists := usedNums[numKey(crateID, num)]; exists {
				debug.Logf("mend: %s %s is back in the dump, skipping patch row\n", entry.Name, num)
				continue
			}
			usedNums[numKey(crateID, num)] = struct{}{}

			id := nextVersionID()
			db.Releases = append(db.Releases, types.Release{
				ID:        id,
				Crate:     crateID,
				Num:       num,
				CreatedAt: release.CreatedAt.UTC(),
				Features:  features,
			})

			for _, dep := range release.Dependencies {
				target, ok := crates.ID(dep.Crate)
				if !ok {
					debug.Logf("mend: dependency of %s on unknown crate %s\n", entry.Name, dep.Crate)
					continue
				}
				req, err := semver.ParseReq(dep.Req)
				if err != nil {
					return fmt.Errorf("mend: crate %s dependency %s: %w", entry.Name, dep.Crate, err)
				}
				feature := types.FeatureCrate
				if dep.Feature != "" {
					feature = db.Features.ID(dep.Feature)
				}
				defaultFeatures := true
				if dep.DefaultFeatures != nil {
					defaultFeatures = *dep.DefaultFeatures
				}
				db.Dependencies = append(db.Dependencies, types.Dependency{
					ID:              nextDepID(),
					Version:         id,
					Crate:           target,
					Req:             req,
					Feature:         feature,
					DefaultFeatures: defaultFeatures,
					Kind:            mendKind(dep.Kind),
				})
			}
		}
	}
	return nil
}

func mendFeatures(entry mendCrate, crateID types.CrateId, crates *cratemap.CrateMap, names *types.FeatureNames) (arena.Slice[types.FeatureEnables], error) {
	if len(entry.Features) == 0 {
		return arena.Slice[types.FeatureEnables]{}, nil
	}
	enables := make([]types.FeatureEnables, 0, len(entry.Features))
	for _, feature := range entry.Features {
		var strong, weak []types.CrateFeature
		for _, clause := range feature.Enables {
			enable := parseEnable(clause)
			target := crateID
			if enable.dep != "" {
				id, ok := crates.ID(enable.dep)
				if !ok {
					debug.Logf("mend: feature clause %s of %s names unknown crate\n", clause, entry.Name)
					continue
				}
				target = id
			}
			cf := types.CrateFeature{Crate: target, Feature: names.ID(enable.feature)}
			if enable.weak {
				weak = append(weak, cf)
			} else {
				strong = append(strong, cf)
			}
		}
		enables = append(enables, types.FeatureEnables{
			ID:          names.ID(feature.Name),
			Enables:     arena.New(strong),
			WeakEnables: arena.New(weak),
		})
	}
	return arena.New(enables), nil
}

func numKey(crate types.CrateId, num semver.Version) string {
	return fmt.Sprintf("%d %s", crate, num)
}

func mendKind(kind string) types.DependencyKind {
	switch kind {
	case "build":
		return types.DependencyBuild
	case "dev":
		return types.DependencyDev
	}
	return types.DependencyNormal
}
