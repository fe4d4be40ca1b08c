package store

import (
	"reflect"
	"testing"
	"time"

	"github.com/equipe-visionarios/imoveis-api/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func intPtr(v int) *int { return &v }
func strPtr(v string) *string { return &v }
func floatPtr(v float64) *float64 { return &v }

func TestBuildPropertyFilter(t *testing.T) {
	tests := []struct {
		name string
		in   models.PropertyFilter
		want bson.M
	}{
		{name: "empty", in: models.PropertyFilter{}, want: bson.M{}},
		{
			name: "region and bedrooms",
			in:   models.PropertyFilter{Region: strPtr("central"), Bedrooms: intPtr(2)},
			want: bson.M{"region": "central", "bedrooms": 2},
		},
		{
			name: "all criteria",
			in: models.PropertyFilter{
				Region: strPtr("abc"), Bedrooms: intPtr(3), Garage: intPtr(1), Status: strPtr(models.StatusPronto),
			},
			want: bson.M{"region": "abc", "bedrooms": 3, "garage": 1, "status": "pronto"},
		},
		{
			name: "no match",
			in:   models.PropertyFilter{NoMatch: true, Region: strPtr("central")},
			want: bson.M{"_id": bson.M{"$exists": false}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BuildPropertyFilter(tt.in)
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("BuildPropertyFilter() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestOwnedFilter(t *testing.T) {
	id := primitive.NewObjectID()
	owner := primitive.NewObjectID()

	if got := ownedFilter(id, nil); len(got) != 1 || got["_id"] != id {
		t.Fatalf("unexpected filter without owner: %v", got)
	}
	got := ownedFilter(id, &owner)
	if got["createdBy"] != owner {
		t.Fatalf("owner guard missing: %v", got)
	}
}

func TestBuildUpdate(t *testing.T) {
	now := primitive.NewDateTimeFromTime(time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC))

	t.Run("only supplied fields are set", func(t *testing.T) {
		u := models.PropertyUpdate{Title: strPtr("Novo"), Price: floatPtr(350000)}
		got := buildUpdate(u, nil, now)

		set, ok := got["$set"].(bson.M)
		if !ok {
			t.Fatalf("missing $set: %v", got)
		}
		want := bson.M{"updatedAt": now, "title": "Novo", "price": 350000.0}
		if !reflect.DeepEqual(set, want) {
			t.Fatalf("$set = %v, want %v", set, want)
		}
		if _, ok := got["$push"]; ok {
			t.Fatalf("no images were given, $push must be absent")
		}
	})

	t.Run("new images are pushed", func(t *testing.T) {
		images := []models.Image{{URL: "https://img/1.jpg", PublicID: "properties/1"}}
		got := buildUpdate(models.PropertyUpdate{}, images, now)

		push, ok := got["$push"].(bson.M)
		if !ok {
			t.Fatalf("missing $push: %v", got)
		}
		each := push["images"].(bson.M)["$each"].([]models.Image)
		if len(each) != 1 || each[0].URL != "https://img/1.jpg" {
			t.Fatalf("unexpected $each: %v", each)
		}
	})

	t.Run("location follows address", func(t *testing.T) {
		u := models.PropertyUpdate{Address: strPtr("Rua A, 1"), Location: &models.Location{Lat: -23.5, Lng: -46.6}}
		set := buildUpdate(u, nil, now)["$set"].(bson.M)
		if set["location"] != (models.Location{Lat: -23.5, Lng: -46.6}) {
			t.Fatalf("location not set: %v", set)
		}
	})
}
