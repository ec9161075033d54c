package engine

import (
	"fmt"
	"math/rand/v2"
	"sort"

	"github.com/mockhive/mockhive/pkg/config"
	"github.com/mockhive/mockhive/pkg/stateful"
	"github.com/mockhive/mockhive/pkg/template"
)

// buildStore creates and seeds the record collections for a server config.
//
// Seeding runs in two phases: every collection is seeded from its literal
// records and generator template first, then relation fields are filled by
// picking ids from the referenced collections and the seed snapshot is
// rebuilt so Reset keeps the relations.
func buildStore(cfg *config.ServerConfig) (*stateful.Store, error) {
	store := stateful.NewStore()

	names := make([]string, 0, len(cfg.Resources))
	for name := range cfg.Resources {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		res := cfg.Resources[name]
		coll := stateful.NewCollection(name, res.IDField)
		coll.Seed(seedRecords(&res))
		if err := store.Register(coll); err != nil {
			return nil, fmt.Errorf("resource %s: %w", name, err)
		}
	}

	for _, name := range names {
		res := cfg.Resources[name]
		if len(res.Relations) == 0 {
			continue
		}
		if err := applyRelations(store, name, &res); err != nil {
			return nil, err
		}
	}
	return store, nil
}

// seedRecords combines literal seed records with template-generated ones.
// Template placeholders re-resolve per generated record, so each one gets
// fresh fake data.
func seedRecords(res *config.ResourceConfig) []map[string]any {
	records := make([]map[string]any, 0, len(res.Seed)+res.Count)
	records = append(records, res.Seed...)

	if res.Count > 0 && len(res.Template) > 0 {
		for range res.Count {
			generated, ok := template.Resolve(res.Template, nil).(map[string]any)
			if !ok {
				continue
			}
			records = append(records, generated)
		}
	}
	return records
}

// applyRelations fills each relation field with an id picked at random
// from the referenced collection, then re-seeds so the snapshot sticks.
func applyRelations(store *stateful.Store, name string, res *config.ResourceConfig) error {
	coll, ok := store.Collection(name)
	if !ok {
		return fmt.Errorf("resource %s: collection missing", name)
	}

	records, _ := coll.List(nil, 0, 0)
	for field, targetName := range res.Relations {
		target, ok := store.Collection(targetName)
		if !ok {
			return fmt.Errorf("resource %s: relation %s references unknown resource %q", name, field, targetName)
		}
		targetIDs := target.IDs()
		if len(targetIDs) == 0 {
			continue
		}
		for _, rec := range records {
			rec[field] = targetIDs[rand.IntN(len(targetIDs))]
		}
	}

	coll.Seed(records)
	return nil
}
