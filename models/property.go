package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	StatusPlanta     = "planta"
	StatusConstrucao = "construcao"
	StatusPronto     = "pronto"
)

// Regions lists the accepted values for Property.Region.
var Regions = []string{"central", "zona oeste", "zona leste", "zona sul", "zona norte", "abc"}

// Image is one entry of a property's image sequence. PublicID is the image store
// identifier; it is empty for entries that only carry a URL.
type Image struct {
	URL      string `bson:"url" json:"url"`
	PublicID string `bson:"publicId,omitempty" json:"publicId,omitempty"`
}

type Location struct {
	Lat float64 `bson:"lat" json:"lat"`
	Lng float64 `bson:"lng" json:"lng"`
}

// Owner is the public projection of the user that created a property.
type Owner struct {
	ID    primitive.ObjectID `bson:"_id" json:"id"`
	Name  string             `bson:"name" json:"name"`
	Email string             `bson:"email" json:"email"`
}

type Property struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Title        string             `bson:"title" json:"title"`
	Description  string             `bson:"description" json:"description"`
	Address      string             `bson:"address" json:"address"`
	Region       string             `bson:"region" json:"region"`
	Bedrooms     int                `bson:"bedrooms" json:"bedrooms"`
	Garage       int                `bson:"garage" json:"garage"`
	Price        float64            `bson:"price" json:"price"`
	CountInStock int                `bson:"countInStock" json:"countInStock"`
	Builder      string             `bson:"builder,omitempty" json:"builder,omitempty"`
	Status       string             `bson:"status" json:"status"`
	Images       []Image            `bson:"images" json:"images"`
	Location     *Location          `bson:"location,omitempty" json:"location,omitempty"`
	CreatedBy    primitive.ObjectID `bson:"createdBy" json:"createdBy"`
	Owner        *Owner             `bson:"owner,omitempty" json:"owner,omitempty"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// HasImageURL reports whether url is already part of the image sequence.
func (p *Property) HasImageURL(url string) bool {
	for _, img := range p.Images {
		if img.URL == url {
			return true
		}
	}
	return false
}

// PropertyInput is the payload of a create request.
type PropertyInput struct {
	Title        string   `json:"title" validate:"required"`
	Description  string   `json:"description"`
	Address      string   `json:"address" validate:"required"`
	Region       string   `json:"region" validate:"required,region"`
	Bedrooms     *int     `json:"bedrooms" validate:"required,min=0"`
	Garage       *int     `json:"garage" validate:"required,min=0"`
	Price        *float64 `json:"price" validate:"required,gt=0"`
	CountInStock *int     `json:"countInStock" validate:"required,min=0"`
	Builder      string   `json:"builder"`
	Status       string   `json:"status" validate:"omitempty,oneof=planta construcao pronto"`
}

// NewProperty builds the record for a validated input. Status defaults to planta.
func (in PropertyInput) NewProperty(owner primitive.ObjectID, now time.Time) *Property {
	p := &Property{
		Title:       in.Title,
		Description: in.Description,
		Address:     in.Address,
		Region:      in.Region,
		Builder:     in.Builder,
		Status:      in.Status,
		Images:      []Image{},
		CreatedBy:   owner,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if in.Bedrooms != nil {
		p.Bedrooms = *in.Bedrooms
	}
	if in.Garage != nil {
		p.Garage = *in.Garage
	}
	if in.Price != nil {
		p.Price = *in.Price
	}
	if in.CountInStock != nil {
		p.CountInStock = *in.CountInStock
	}
	if p.Status == "" {
		p.Status = StatusPlanta
	}
	return p
}

// PropertyUpdate carries the fields of a partial update. Nil means "not supplied".
type PropertyUpdate struct {
	Title        *string  `json:"title" validate:"omitempty,min=1"`
	Description  *string  `json:"description"`
	Address      *string  `json:"address" validate:"omitempty,min=1"`
	Region       *string  `json:"region" validate:"omitempty,region"`
	Bedrooms     *int     `json:"bedrooms" validate:"omitempty,min=0"`
	Garage       *int     `json:"garage" validate:"omitempty,min=0"`
	Price        *float64 `json:"price" validate:"omitempty,gt=0"`
	CountInStock *int     `json:"countInStock" validate:"omitempty,min=0"`
	Builder      *string  `json:"builder"`
	Status       *string  `json:"status" validate:"omitempty,oneof=planta construcao pronto"`

	// Location is set by the service when the address changes.
	Location *Location `json:"-"`
}

// Empty reports whether no field was supplied.
func (u PropertyUpdate) Empty() bool {
	return u.Title == nil && u.Description == nil && u.Address == nil && u.Region == nil &&
		u.Bedrooms == nil && u.Garage == nil && u.Price == nil && u.CountInStock == nil &&
		u.Builder == nil && u.Status == nil && u.Location == nil
}

// Apply copies the supplied fields onto p.
func (u PropertyUpdate) Apply(p *Property) {
	if u.Title != nil {
		p.Title = *u.Title
	}
	if u.Description != nil {
		p.Description = *u.Description
	}
	if u.Address != nil {
		p.Address = *u.Address
	}
	if u.Region != nil {
		p.Region = *u.Region
	}
	if u.Bedrooms != nil {
		p.Bedrooms = *u.Bedrooms
	}
	if u.Garage != nil {
		p.Garage = *u.Garage
	}
	if u.Price != nil {
		p.Price = *u.Price
	}
	if u.CountInStock != nil {
		p.CountInStock = *u.CountInStock
	}
	if u.Builder != nil {
		p.Builder = *u.Builder
	}
	if u.Status != nil {
		p.Status = *u.Status
	}
	if u.Location != nil {
		loc := *u.Location
		p.Location = &loc
	}
}

// ImageSample is one item of the random image showcase.
type ImageSample struct {
	ID    primitive.ObjectID `bson:"_id" json:"id"`
	Title string             `bson:"title" json:"title"`
	Img   string             `bson:"img" json:"img"`
}
