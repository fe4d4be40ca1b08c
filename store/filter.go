package store

import (
	"github.com/equipe-visionarios/imoveis-api/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// BuildPropertyFilter turns the supplied criteria into exact-match equalities.
// An empty filter selects every property.
func BuildPropertyFilter(f models.PropertyFilter) bson.M {
	if f.NoMatch {
		return bson.M{"_id": bson.M{"$exists": false}}
	}

	filter := bson.M{}
	if f.Region != nil {
		filter["region"] = *f.Region
	}
	if f.Bedrooms != nil {
		filter["bedrooms"] = *f.Bedrooms
	}
	if f.Garage != nil {
		filter["garage"] = *f.Garage
	}
	if f.Status != nil {
		filter["status"] = *f.Status
	}
	return filter
}

// ownedFilter matches the property by id and, unless owner is nil, by owner.
func ownedFilter(id primitive.ObjectID, owner *primitive.ObjectID) bson.M {
	filter := bson.M{"_id": id}
	if owner != nil {
		filter["createdBy"] = *owner
	}
	return filter
}

// buildUpdate renders a partial update as one $set (plus $push for new images).
func buildUpdate(u models.PropertyUpdate, images []models.Image, now primitive.DateTime) bson.M {
	set := bson.M{"updatedAt": now}
	if u.Title != nil {
		set["title"] = *u.Title
	}
	if u.Description != nil {
		set["description"] = *u.Description
	}
	if u.Address != nil {
		set["address"] = *u.Address
	}
	if u.Region != nil {
		set["region"] = *u.Region
	}
	if u.Bedrooms != nil {
		set["bedrooms"] = *u.Bedrooms
	}
	if u.Garage != nil {
		set["garage"] = *u.Garage
	}
	if u.Price != nil {
		set["price"] = *u.Price
	}
	if u.CountInStock != nil {
		set["countInStock"] = *u.CountInStock
	}
	if u.Builder != nil {
		set["builder"] = *u.Builder
	}
	if u.Status != nil {
		set["status"] = *u.Status
	}
	if u.Location != nil {
		set["location"] = *u.Location
	}

	update := bson.M{"$set": set}
	if len(images) > 0 {
		update["$push"] = bson.M{"images": bson.M{"$each": images}}
	}
	return update
}

// ownerLookup populates "owner" with the creator's public fields.
func ownerLookup() []bson.D {
	return []bson.D{
		{{Key: "$lookup", Value: bson.M{
			"from":         usersCollection,
			"localField":   "createdBy",
			"foreignField": "_id",
			"as":           "owner",
		}}},
		{{Key: "$unwind", Value: bson.M{"path": "$owner", "preserveNullAndEmptyArrays": true}}},
		{{Key: "$project", Value: bson.M{
			"owner.password":            0,
			"owner.resetPasswordToken":  0,
			"owner.resetPasswordExpire": 0,
		}}},
	}
}
