package spell

import (
	"context"
	"errors"
	"time"

	"github.com/GrimoireLabs/grimoire/pkg"
	cn "github.com/GrimoireLabs/grimoire/pkg/constant"
	"github.com/GrimoireLabs/grimoire/pkg/mmodel"
	"github.com/GrimoireLabs/grimoire/pkg/mmongo"
	"github.com/GrimoireLabs/grimoire/pkg/mopentelemetry"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// SpellMongoDBRepository is a MongoDB-specific implementation of the spell Repository.
type SpellMongoDBRepository struct {
	connection *mmongo.MongoConnection
	Database   string
	collection string
}

// NewSpellMongoDBRepository returns a new instance of SpellMongoDBRepository using the given MongoDB connection.
func NewSpellMongoDBRepository(mc *mmongo.MongoConnection) *SpellMongoDBRepository {
	r := &SpellMongoDBRepository{
		connection: mc,
		Database:   mc.Database,
		collection: "spell",
	}

	_, err := r.connection.GetDB(context.Background())
	if err != nil {
		panic("Failed to connect mongodb")
	}

	return r
}

func (r *SpellMongoDBRepository) spells(ctx context.Context) (*mongo.Collection, error) {
	db, err := r.connection.GetDB(ctx)
	if err != nil {
		return nil, err
	}

	return db.Database(r.Database).Collection(r.collection), nil
}

// Create persists a new spell document as an unpublished draft.
func (r *SpellMongoDBRepository) Create(ctx context.Context, sp *mmodel.Spell) (*mmodel.Spell, error) {
	tracer := pkg.NewTracerFromContext(ctx)

	ctx, span := tracer.Start(ctx, "mongodb.create_spell")
	defer span.End()

	coll, err := r.spells(ctx)
	if err != nil {
		mopentelemetry.HandleSpanError(&span, "Failed to get mongodb connection", err)

		return nil, err
	}

	sp.CreatedAt = time.Now()
	sp.UpdatedAt = sp.CreatedAt

	if _, err := coll.InsertOne(ctx, sp); err != nil {
		mopentelemetry.HandleSpanError(&span, "Failed to insert spell", err)

		return nil, err
	}

	return sp, nil
}

// Find loads a spell by id.
func (r *SpellMongoDBRepository) Find(ctx context.Context, id uuid.UUID) (*mmodel.Spell, error) {
	tracer := pkg.NewTracerFromContext(ctx)

	ctx, span := tracer.Start(ctx, "mongodb.find_spell")
	defer span.End()

	coll, err := r.spells(ctx)
	if err != nil {
		mopentelemetry.HandleSpanError(&span, "Failed to get mongodb connection", err)

		return nil, err
	}

	sp := &mmodel.Spell{}

	err = coll.FindOne(ctx, bson.M{"_id": id}).Decode(sp)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, pkg.ValidateBusinessError(cn.ErrEntityNotFound, "Spell")
	}

	if err != nil {
		mopentelemetry.HandleSpanError(&span, "Failed to decode spell", err)

		return nil, err
	}

	return sp, nil
}

// FindBySlug resolves the latest published version under slug.
func (r *SpellMongoDBRepository) FindBySlug(ctx context.Context, slug string) (*mmodel.Spell, error) {
	tracer := pkg.NewTracerFromContext(ctx)

	ctx, span := tracer.Start(ctx, "mongodb.find_spell_by_slug")
	defer span.End()

	coll, err := r.spells(ctx)
	if err != nil {
		mopentelemetry.HandleSpanError(&span, "Failed to get mongodb connection", err)

		return nil, err
	}

	sp := &mmodel.Spell{}

	opts := options.FindOne().SetSort(bson.D{{Key: "version", Value: -1}})

	err = coll.FindOne(ctx, bson.M{"slug": slug, "published": true}, opts).Decode(sp)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, pkg.ValidateBusinessError(cn.ErrEntityNotFound, "Spell")
	}

	if err != nil {
		mopentelemetry.HandleSpanError(&span, "Failed to decode spell", err)

		return nil, err
	}

	return sp, nil
}

// Publish freezes the spell. Republishing is a no-op.
func (r *SpellMongoDBRepository) Publish(ctx context.Context, id uuid.UUID) (*mmodel.Spell, error) {
	tracer := pkg.NewTracerFromContext(ctx)

	ctx, span := tracer.Start(ctx, "mongodb.publish_spell")
	defer span.End()

	coll, err := r.spells(ctx)
	if err != nil {
		mopentelemetry.HandleSpanError(&span, "Failed to get mongodb connection", err)

		return nil, err
	}

	update := bson.M{"$set": bson.M{"published": true, "updated_at": time.Now()}}

	result, err := coll.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		mopentelemetry.HandleSpanError(&span, "Failed to publish spell", err)

		return nil, err
	}

	if result.MatchedCount == 0 {
		return nil, pkg.ValidateBusinessError(cn.ErrEntityNotFound, "Spell")
	}

	return r.Find(ctx, id)
}

// ListPublic lists published spells for discovery.
func (r *SpellMongoDBRepository) ListPublic(ctx context.Context, limit int) ([]*mmodel.Spell, error) {
	tracer := pkg.NewTracerFromContext(ctx)

	ctx, span := tracer.Start(ctx, "mongodb.list_public_spells")
	defer span.End()

	coll, err := r.spells(ctx)
	if err != nil {
		mopentelemetry.HandleSpanError(&span, "Failed to get mongodb connection", err)

		return nil, err
	}

	if limit <= 0 {
		limit = 50
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "updated_at", Value: -1}}).
		SetLimit(int64(limit))

	cur, err := coll.Find(ctx, bson.M{"published": true}, opts)
	if err != nil {
		mopentelemetry.HandleSpanError(&span, "Failed to query spells", err)

		return nil, err
	}
	defer cur.Close(ctx)

	var spells []*mmodel.Spell

	for cur.Next(ctx) {
		sp := &mmodel.Spell{}

		if err := cur.Decode(sp); err != nil {
			return nil, err
		}

		spells = append(spells, sp)
	}

	return spells, cur.Err()
}
