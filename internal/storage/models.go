package storage

import "strconv"

type State struct {
	ID   string `gorm:"primaryKey;size:2" json:"id"`
	Name string `gorm:"size:120;not null" json:"name"`
}

func (s *State) EntityID() string { return s.ID }

type City struct {
	ID      uint   `gorm:"primaryKey" json:"id"`
	Name    string `gorm:"size:120;not null" json:"name"`
	StateID string `gorm:"size:2;not null;index" json:"state_id"`
	State   *State `json:"-"`
}

func (c *City) EntityID() string { return formatID(c.ID) }

type Style struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"size:120;not null" json:"name"`
}

func (s *Style) EntityID() string { return formatID(s.ID) }

// Brewery is searchable by name.
type Brewery struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Name        string `gorm:"size:120;not null;index" json:"name"`
	Address     string `gorm:"size:120" json:"address"`
	Phone       string `gorm:"size:120" json:"phone"`
	WebsiteLink string `gorm:"size:120" json:"website_link"`
	CityID      uint   `gorm:"not null;index" json:"city_id"`
	City        *City  `json:"-"`
	Beers       []Beer `json:"-"`
}

func (b *Brewery) EntityID() string                 { return formatID(b.ID) }
func (b *Brewery) SearchType() string               { return "brewery" }
func (b *Brewery) IndexedFields() []string          { return []string{"name"} }
func (b *Brewery) IndexDocument() map[string]string { return map[string]string{"name": b.Name} }

// Beer is searchable by name.
type Beer struct {
	ID          uint     `gorm:"primaryKey" json:"id"`
	Name        string   `gorm:"not null;index" json:"name"`
	Description string   `gorm:"size:500" json:"description"`
	BreweryID   uint     `gorm:"not null;index" json:"brewery_id"`
	Brewery     *Brewery `json:"-"`
	StyleID     uint     `gorm:"not null" json:"style_id"`
	Style       *Style   `json:"-"`
}

func (b *Beer) EntityID() string                 { return formatID(b.ID) }
func (b *Beer) SearchType() string               { return "beer" }
func (b *Beer) IndexedFields() []string          { return []string{"name"} }
func (b *Beer) IndexDocument() map[string]string { return map[string]string{"name": b.Name} }

// Drinker is searchable by name.
type Drinker struct {
	ID     uint   `gorm:"primaryKey" json:"id"`
	Name   string `gorm:"size:120;not null" json:"name"`
	CityID uint   `gorm:"not null;index" json:"city_id"`
	City   *City  `json:"-"`
}

func (d *Drinker) EntityID() string                 { return formatID(d.ID) }
func (d *Drinker) SearchType() string               { return "drinker" }
func (d *Drinker) IndexedFields() []string          { return []string{"name"} }
func (d *Drinker) IndexDocument() map[string]string { return map[string]string{"name": d.Name} }

func formatID(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
