package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/equipe-visionarios/imoveis-api/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const usersCollection = "users"

// Properties is the MongoDB backed property record store.
type Properties struct {
	coll *mongo.Collection
	now  func() time.Time
}

func NewProperties(coll *mongo.Collection) *Properties {
	return &Properties{coll: coll, now: time.Now}
}

func (s *Properties) Insert(ctx context.Context, p *models.Property) error {
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	if _, err := s.coll.InsertOne(ctx, p); err != nil {
		return fmt.Errorf("insert property: %w", err)
	}
	return nil
}

func (s *Properties) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Property, error) {
	pipeline := mongo.Pipeline{{{Key: "$match", Value: bson.M{"_id": id}}}}
	pipeline = append(pipeline, ownerLookup()...)

	props, err := s.aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("find property %s: %w", id.Hex(), err)
	}
	if len(props) == 0 {
		return nil, models.ErrNotFound
	}
	return &props[0], nil
}

func (s *Properties) Find(ctx context.Context, f models.PropertyFilter) ([]models.Property, error) {
	pipeline := mongo.Pipeline{{{Key: "$match", Value: BuildPropertyFilter(f)}}}
	pipeline = append(pipeline, ownerLookup()...)

	props, err := s.aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("find properties: %w", err)
	}
	return props, nil
}

// Update applies the supplied fields and appends images in a single write.
// A nil owner skips the ownership guard.
func (s *Properties) Update(ctx context.Context, id primitive.ObjectID, owner *primitive.ObjectID, u models.PropertyUpdate, images []models.Image) (*models.Property, error) {
	update := buildUpdate(u, images, primitive.NewDateTimeFromTime(s.now()))
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var updated models.Property
	err := s.coll.FindOneAndUpdate(ctx, ownedFilter(id, owner), update, opts).Decode(&updated)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("update property %s: %w", id.Hex(), err)
	}
	return &updated, nil
}

// PullImage removes the entry with img.URL from the image sequence.
func (s *Properties) PullImage(ctx context.Context, id primitive.ObjectID, owner *primitive.ObjectID, img models.Image) (*models.Property, error) {
	filter := ownedFilter(id, owner)
	filter["images.url"] = img.URL

	update := bson.M{
		"$pull": bson.M{"images": bson.M{"url": img.URL}},
		"$set":  bson.M{"updatedAt": primitive.NewDateTimeFromTime(s.now())},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var updated models.Property
	err := s.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&updated)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("pull image from property %s: %w", id.Hex(), err)
	}
	return &updated, nil
}

func (s *Properties) Delete(ctx context.Context, id primitive.ObjectID, owner *primitive.ObjectID) error {
	res, err := s.coll.DeleteOne(ctx, ownedFilter(id, owner))
	if err != nil {
		return fmt.Errorf("delete property %s: %w", id.Hex(), err)
	}
	if res.DeletedCount == 0 {
		return models.ErrNotFound
	}
	return nil
}

// SampleImages returns the first image of up to n random properties.
func (s *Properties) SampleImages(ctx context.Context, n int) ([]models.ImageSample, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"images.0": bson.M{"$exists": true}}}},
		{{Key: "$sample", Value: bson.M{"size": n}}},
		{{Key: "$project", Value: bson.M{
			"title": 1,
			"img":   bson.M{"$arrayElemAt": bson.A{"$images.url", 0}},
		}}},
	}

	cursor, err := s.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("sample images: %w", err)
	}
	defer cursor.Close(ctx)

	samples := []models.ImageSample{}
	if err := cursor.All(ctx, &samples); err != nil {
		return nil, fmt.Errorf("decode image samples: %w", err)
	}
	return samples, nil
}

func (s *Properties) aggregate(ctx context.Context, pipeline mongo.Pipeline) ([]models.Property, error) {
	cursor, err := s.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	props := []models.Property{}
	if err := cursor.All(ctx, &props); err != nil {
		return nil, err
	}
	for i := range props {
		if props[i].Images == nil {
			props[i].Images = []models.Image{}
		}
	}
	return props, nil
}
