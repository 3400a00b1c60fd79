package storage

import (
	"context"
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed seed.yaml
var seedYAML []byte

type seedData struct {
	States []struct {
		ID   string `yaml:"id"`
		Name string `yaml:"name"`
	} `yaml:"states"`
	Styles []string `yaml:"styles"`
}

// SeedResult reports how many reference rows Seed inserted.
type SeedResult struct {
	States int
	Styles int
}

// Seed loads the reference states and beer styles. Each table is only filled
// when it is empty, so running it twice is harmless.
func (s *Store) Seed(ctx context.Context) (*SeedResult, error) {
	var data seedData
	if err := yaml.Unmarshal(seedYAML, &data); err != nil {
		return nil, fmt.Errorf("parse seed data: %w", err)
	}

	result := &SeedResult{}
	err := s.InTx(ctx, func(tx *Tx) error {
		var n int64
		if err := tx.DB().Model(&State{}).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			for _, st := range data.States {
				if err := tx.Create(&State{ID: st.ID, Name: st.Name}); err != nil {
					return fmt.Errorf("seed state %s: %w", st.ID, err)
				}
				result.States++
			}
		}

		if err := tx.DB().Model(&Style{}).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			for _, name := range data.Styles {
				if err := tx.Create(&Style{Name: name}); err != nil {
					return fmt.Errorf("seed style %q: %w", name, err)
				}
				result.Styles++
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
