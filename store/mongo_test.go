package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/equipe-visionarios/imoveis-api/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func TestPropertiesMongo(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("find by id populates owner", func(mt *mtest.T) {
		id := primitive.NewObjectID()
		ownerID := primitive.NewObjectID()
		ns := mt.Coll.Database().Name() + "." + mt.Coll.Name()

		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, bson.D{
			{Key: "_id", Value: id},
			{Key: "title", Value: "Casa"},
			{Key: "createdBy", Value: ownerID},
			{Key: "owner", Value: bson.D{
				{Key: "_id", Value: ownerID},
				{Key: "name", Value: "Ana"},
				{Key: "email", Value: "ana@example.com"},
			}},
		}))

		p, err := NewProperties(mt.Coll).FindByID(context.Background(), id)
		if err != nil {
			mt.Fatalf("FindByID: %v", err)
		}
		if p.Title != "Casa" || p.Owner == nil || p.Owner.Name != "Ana" {
			mt.Fatalf("unexpected property: %+v", p)
		}
		if p.Images == nil {
			mt.Fatalf("images must decode as an empty list")
		}
	})

	mt.Run("find by id not found", func(mt *mtest.T) {
		ns := mt.Coll.Database().Name() + "." + mt.Coll.Name()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))

		_, err := NewProperties(mt.Coll).FindByID(context.Background(), primitive.NewObjectID())
		if !errors.Is(err, models.ErrNotFound) {
			mt.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	mt.Run("update sets fields and appends images under the owner guard", func(mt *mtest.T) {
		id := primitive.NewObjectID()
		owner := primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: bson.D{
			{Key: "_id", Value: id},
			{Key: "title", Value: "Novo titulo"},
			{Key: "createdBy", Value: owner},
			{Key: "images", Value: bson.A{
				bson.D{{Key: "url", Value: "https://cdn.test/a.jpg"}},
				bson.D{{Key: "url", Value: "https://cdn.test/b.jpg"}, {Key: "publicId", Value: "properties/b"}},
			}},
		}}))

		title := "Novo titulo"
		added := []models.Image{{URL: "https://cdn.test/b.jpg", PublicID: "properties/b"}}
		p, err := NewProperties(mt.Coll).Update(context.Background(), id, &owner, models.PropertyUpdate{Title: &title}, added)
		if err != nil {
			mt.Fatalf("Update: %v", err)
		}
		if p.Title != "Novo titulo" || len(p.Images) != 2 {
			mt.Fatalf("unexpected property: %+v", p)
		}

		evt := mt.GetStartedEvent()
		if evt == nil || evt.CommandName != "findAndModify" {
			mt.Fatalf("expected a findAndModify command, got %+v", evt)
		}
		if got := evt.Command.Lookup("query", "createdBy").ObjectID(); got != owner {
			mt.Fatalf("owner guard missing from filter: %v", evt.Command.Lookup("query"))
		}
		if got := evt.Command.Lookup("update", "$set", "title").StringValue(); got != title {
			mt.Fatalf("title not in $set: %v", evt.Command.Lookup("update"))
		}
		each, err := evt.Command.Lookup("update", "$push", "images", "$each").Array().Values()
		if err != nil || len(each) != 1 {
			mt.Fatalf("expected one pushed image, got %v %v", each, err)
		}
		if !evt.Command.Lookup("new").Boolean() {
			mt.Fatalf("update must return the new document")
		}
	})

	mt.Run("update without match", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: nil}))

		owner := primitive.NewObjectID()
		price := 1.0
		_, err := NewProperties(mt.Coll).Update(context.Background(), primitive.NewObjectID(), &owner, models.PropertyUpdate{Price: &price}, nil)
		if !errors.Is(err, models.ErrNotFound) {
			mt.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	mt.Run("update without owner guard", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: bson.D{
			{Key: "_id", Value: primitive.NewObjectID()},
		}}))

		price := 1.0
		if _, err := NewProperties(mt.Coll).Update(context.Background(), primitive.NewObjectID(), nil, models.PropertyUpdate{Price: &price}, nil); err != nil {
			mt.Fatalf("Update: %v", err)
		}
		evt := mt.GetStartedEvent()
		if _, err := evt.Command.LookupErr("query", "createdBy"); err == nil {
			mt.Fatalf("admin update must not filter by owner")
		}
		if _, err := evt.Command.LookupErr("update", "$push"); err == nil {
			mt.Fatalf("update without images must not push")
		}
	})

	mt.Run("pull image", func(mt *mtest.T) {
		id := primitive.NewObjectID()
		owner := primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: bson.D{
			{Key: "_id", Value: id},
			{Key: "createdBy", Value: owner},
			{Key: "images", Value: bson.A{}},
		}}))

		img := models.Image{URL: "https://cdn.test/a.jpg"}
		p, err := NewProperties(mt.Coll).PullImage(context.Background(), id, &owner, img)
		if err != nil {
			mt.Fatalf("PullImage: %v", err)
		}
		if len(p.Images) != 0 {
			mt.Fatalf("expected no images, got %v", p.Images)
		}

		evt := mt.GetStartedEvent()
		if got := evt.Command.Lookup("query", "images.url").StringValue(); got != img.URL {
			mt.Fatalf("filter must match the image url, got %v", evt.Command.Lookup("query"))
		}
		if got := evt.Command.Lookup("query", "createdBy").ObjectID(); got != owner {
			mt.Fatalf("owner guard missing from filter")
		}
		if got := evt.Command.Lookup("update", "$pull", "images", "url").StringValue(); got != img.URL {
			mt.Fatalf("unexpected $pull: %v", evt.Command.Lookup("update"))
		}
	})

	mt.Run("pull image without match", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: nil}))

		owner := primitive.NewObjectID()
		_, err := NewProperties(mt.Coll).PullImage(context.Background(), primitive.NewObjectID(), &owner, models.Image{URL: "https://cdn.test/x.jpg"})
		if !errors.Is(err, models.ErrNotFound) {
			mt.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	mt.Run("delete nothing matched", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}))

		owner := primitive.NewObjectID()
		err := NewProperties(mt.Coll).Delete(context.Background(), primitive.NewObjectID(), &owner)
		if !errors.Is(err, models.ErrNotFound) {
			mt.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	mt.Run("delete", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}))

		if err := NewProperties(mt.Coll).Delete(context.Background(), primitive.NewObjectID(), nil); err != nil {
			mt.Fatalf("Delete: %v", err)
		}
	})
}

func TestUsersMongo(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("duplicate email", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    11000,
			Message: "E11000 duplicate key error collection: imoveis.users index: email_1",
		}))

		err := NewUsers(mt.Coll).Insert(context.Background(), &models.User{Email: "ana@example.com"})
		if !errors.Is(err, models.ErrEmailTaken) {
			mt.Fatalf("expected ErrEmailTaken, got %v", err)
		}
	})

	mt.Run("find by email not found", func(mt *mtest.T) {
		ns := mt.Coll.Database().Name() + "." + mt.Coll.Name()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))

		_, err := NewUsers(mt.Coll).FindByEmail(context.Background(), "ghost@example.com")
		if !errors.Is(err, models.ErrNotFound) {
			mt.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	mt.Run("consume reset token without match clears expired fields", func(mt *mtest.T) {
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}, bson.E{Key: "nModified", Value: 0}),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 1}),
		)

		err := NewUsers(mt.Coll).ConsumeResetToken(context.Background(), "hash", time.Now(), "newhash")
		if !errors.Is(err, models.ErrResetTokenInvalid) {
			mt.Fatalf("expected ErrResetTokenInvalid, got %v", err)
		}

		consume := mt.GetStartedEvent()
		if _, err := consume.Command.LookupErr("updates", "0", "q", "resetPasswordExpire", "$gt"); err != nil {
			mt.Fatalf("consume must require an unexpired token: %v", consume.Command)
		}
		cleanup := mt.GetStartedEvent()
		if cleanup == nil || cleanup.CommandName != "update" {
			mt.Fatalf("expected a cleanup update, got %+v", cleanup)
		}
		if _, err := cleanup.Command.LookupErr("updates", "0", "q", "resetPasswordExpire", "$lte"); err != nil {
			mt.Fatalf("cleanup must target expired tokens only: %v", cleanup.Command)
		}
		if _, err := cleanup.Command.LookupErr("updates", "0", "u", "$unset", "resetPasswordToken"); err != nil {
			mt.Fatalf("cleanup must unset the token: %v", cleanup.Command)
		}
	})
}
