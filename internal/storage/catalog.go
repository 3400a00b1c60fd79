package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// Area groups the breweries of one city.
type Area struct {
	City      string     `json:"city"`
	State     string     `json:"state"`
	Breweries []*Brewery `json:"breweries"`
}

// ListBreweriesByArea returns cities that have at least one brewery, ordered
// by state then city name, each with its breweries ordered by name.
func (s *Store) ListBreweriesByArea(ctx context.Context) ([]Area, error) {
	var cities []City
	if err := s.db.WithContext(ctx).Order("state_id").Order("name").Find(&cities).Error; err != nil {
		return nil, fmt.Errorf("list cities: %w", err)
	}

	var breweries []*Brewery
	if err := s.db.WithContext(ctx).Order("name").Find(&breweries).Error; err != nil {
		return nil, fmt.Errorf("list breweries: %w", err)
	}

	byCity := make(map[uint][]*Brewery)
	for _, b := range breweries {
		byCity[b.CityID] = append(byCity[b.CityID], b)
	}

	areas := make([]Area, 0, len(byCity))
	for _, city := range cities {
		if len(byCity[city.ID]) == 0 {
			continue
		}
		areas = append(areas, Area{City: city.Name, State: city.StateID, Breweries: byCity[city.ID]})
	}
	return areas, nil
}

type BreweryBeer struct {
	ID          uint   `json:"beer_id"`
	Name        string `json:"beer_name"`
	Style       string `json:"beer_style"`
	Description string `json:"beer_description"`
}

// BreweryDetail is the serialized form of a brewery with its beers.
type BreweryDetail struct {
	ID          uint          `json:"id"`
	Name        string        `json:"name"`
	Address     string        `json:"address"`
	City        string        `json:"city"`
	State       string        `json:"state"`
	Phone       string        `json:"phone"`
	WebsiteLink string        `json:"website_link"`
	Beers       []BreweryBeer `json:"beers"`
	BeersCount  int           `json:"beers_count"`
}

// Serialize flattens b. City and Beers (with their Style) must be loaded.
func (b *Brewery) Serialize() BreweryDetail {
	detail := BreweryDetail{
		ID:          b.ID,
		Name:        b.Name,
		Address:     b.Address,
		Phone:       b.Phone,
		WebsiteLink: b.WebsiteLink,
		Beers:       make([]BreweryBeer, 0, len(b.Beers)),
	}
	if b.City != nil {
		detail.City = b.City.Name
		detail.State = b.City.StateID
	}
	for _, beer := range b.Beers {
		item := BreweryBeer{ID: beer.ID, Name: beer.Name, Description: beer.Description}
		if beer.Style != nil {
			item.Style = beer.Style.Name
		}
		detail.Beers = append(detail.Beers, item)
	}
	detail.BeersCount = len(detail.Beers)
	return detail
}

func (s *Store) GetBrewery(ctx context.Context, id uint) (*Brewery, error) {
	var b Brewery
	err := s.db.WithContext(ctx).
		Preload("City").
		Preload("Beers", func(db *gorm.DB) *gorm.DB { return db.Order("name") }).
		Preload("Beers.Style").
		First(&b, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("brewery %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get brewery: %w", err)
	}
	return &b, nil
}

type NewBrewery struct {
	Name        string
	Address     string
	Phone       string
	WebsiteLink string
	City        string
	State       string
}

// CreateBrewery adds a brewery, creating its city if needed.
func (s *Store) CreateBrewery(ctx context.Context, in NewBrewery) (*Brewery, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalid)
	}

	b := &Brewery{
		Name:        strings.TrimSpace(in.Name),
		Address:     in.Address,
		Phone:       in.Phone,
		WebsiteLink: in.WebsiteLink,
	}
	err := s.InTx(ctx, func(tx *Tx) error {
		city, err := findOrCreateCity(tx, in.City, in.State)
		if err != nil {
			return err
		}
		b.CityID = city.ID
		b.City = city
		return tx.Create(b)
	})
	return createdOrNil(b, err)
}

// BeerListing is one row of the beer list.
type BeerListing struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	BreweryID   uint   `json:"brewery_id"`
	BreweryName string `json:"brewery_name"`
	Style       string `json:"style"`
}

// ListBeers returns every beer ordered by name with its brewery and style.
func (s *Store) ListBeers(ctx context.Context) ([]BeerListing, error) {
	var beers []Beer
	err := s.db.WithContext(ctx).Preload("Brewery").Preload("Style").Order("name").Find(&beers).Error
	if err != nil {
		return nil, fmt.Errorf("list beers: %w", err)
	}

	listings := make([]BeerListing, 0, len(beers))
	for _, beer := range beers {
		l := BeerListing{
			ID:          beer.ID,
			Name:        beer.Name,
			Description: beer.Description,
			BreweryID:   beer.BreweryID,
		}
		if beer.Brewery != nil {
			l.BreweryName = beer.Brewery.Name
		}
		if beer.Style != nil {
			l.Style = beer.Style.Name
		}
		listings = append(listings, l)
	}
	return listings, nil
}

type NewBeer struct {
	Name        string
	Description string
	BreweryID   uint
	StyleID     uint
}

func (s *Store) CreateBeer(ctx context.Context, in NewBeer) (*Beer, error) {
	if strings.TrimSpace(in.Name) == "" || strings.TrimSpace(in.Description) == "" {
		return nil, fmt.Errorf("%w: name and description are required", ErrInvalid)
	}

	beer := &Beer{
		Name:        strings.TrimSpace(in.Name),
		Description: strings.TrimSpace(in.Description),
		BreweryID:   in.BreweryID,
		StyleID:     in.StyleID,
	}
	err := s.InTx(ctx, func(tx *Tx) error {
		if err := mustExist(tx, &Brewery{}, in.BreweryID, "brewery"); err != nil {
			return err
		}
		if err := mustExist(tx, &Style{}, in.StyleID, "style"); err != nil {
			return err
		}
		return tx.Create(beer)
	})
	return createdOrNil(beer, err)
}

// DrinkerDetail is the serialized form of a drinker.
type DrinkerDetail struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	City  string `json:"city"`
	State string `json:"state"`
}

func (d *Drinker) Serialize() DrinkerDetail {
	detail := DrinkerDetail{ID: d.ID, Name: d.Name}
	if d.City != nil {
		detail.City = d.City.Name
		detail.State = d.City.StateID
	}
	return detail
}

func (s *Store) ListDrinkers(ctx context.Context) ([]*Drinker, error) {
	var drinkers []*Drinker
	if err := s.db.WithContext(ctx).Order("name").Find(&drinkers).Error; err != nil {
		return nil, fmt.Errorf("list drinkers: %w", err)
	}
	return drinkers, nil
}

func (s *Store) GetDrinker(ctx context.Context, id uint) (*Drinker, error) {
	return getDrinker(s.db.WithContext(ctx), id)
}

func getDrinker(db *gorm.DB, id uint) (*Drinker, error) {
	var d Drinker
	err := db.Preload("City").First(&d, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("drinker %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get drinker: %w", err)
	}
	return &d, nil
}

type NewDrinker struct {
	Name  string
	City  string
	State string
}

// CreateDrinker adds a drinker living in city, state. The state must exist;
// the city is created on first use.
func (s *Store) CreateDrinker(ctx context.Context, in NewDrinker) (*Drinker, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalid)
	}

	d := &Drinker{Name: strings.TrimSpace(in.Name)}
	err := s.InTx(ctx, func(tx *Tx) error {
		city, err := findOrCreateCity(tx, in.City, in.State)
		if err != nil {
			return err
		}
		d.CityID = city.ID
		d.City = city
		return tx.Create(d)
	})
	return createdOrNil(d, err)
}

func (s *Store) UpdateDrinker(ctx context.Context, id uint, name string) (*Drinker, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalid)
	}

	var d *Drinker
	err := s.InTx(ctx, func(tx *Tx) error {
		var err error
		d, err = getDrinker(tx.DB(), id)
		if err != nil {
			return err
		}
		d.Name = strings.TrimSpace(name)
		return tx.Save(d)
	})
	return createdOrNil(d, err)
}

// DeleteDrinker removes the drinker and returns it as it was.
func (s *Store) DeleteDrinker(ctx context.Context, id uint) (*Drinker, error) {
	var d *Drinker
	err := s.InTx(ctx, func(tx *Tx) error {
		var err error
		d, err = getDrinker(tx.DB(), id)
		if err != nil {
			return err
		}
		return tx.Delete(d)
	})
	return createdOrNil(d, err)
}

func findOrCreateCity(tx *Tx, name, stateID string) (*City, error) {
	name = strings.TrimSpace(name)
	stateID = strings.ToUpper(strings.TrimSpace(stateID))
	if name == "" || stateID == "" {
		return nil, fmt.Errorf("%w: city and state are required", ErrInvalid)
	}

	var state State
	err := tx.DB().Where("id = ?", stateID).First(&state).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: unknown state %q", ErrInvalid, stateID)
	}
	if err != nil {
		return nil, fmt.Errorf("get state: %w", err)
	}

	var city City
	err = tx.DB().Where("name = ? AND state_id = ?", name, stateID).First(&city).Error
	if err == nil {
		return &city, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("get city: %w", err)
	}

	city = City{Name: name, StateID: stateID}
	if err := tx.Create(&city); err != nil {
		return nil, fmt.Errorf("create city: %w", err)
	}
	return &city, nil
}

func mustExist(tx *Tx, model interface{}, id uint, what string) error {
	var n int64
	if err := tx.DB().Model(model).Where("id = ?", id).Count(&n).Error; err != nil {
		return fmt.Errorf("check %s: %w", what, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s %d does not exist", ErrInvalid, what, id)
	}
	return nil
}

// createdOrNil keeps the entity when only the index sync failed, since the
// write itself was committed.
func createdOrNil[T any](v *T, err error) (*T, error) {
	if err == nil || errors.Is(err, ErrIndexSync) {
		return v, err
	}
	return nil, err
}
