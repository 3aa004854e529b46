package mongo

import (
	"context"
	"errors"
	"fmt"

	"github.com/ipaas-org/airflow-publisher/model"
	"github.com/ipaas-org/airflow-publisher/repo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const PublicationCollection = "publications"

func NewPublicationRepoer(collection *mongo.Collection) repo.PublicationRepoer {
	return &PublicationRepoerMongo{
		collection: collection,
	}
}

// Connect opens a client and returns the publications collection of database.
func Connect(ctx context.Context, uri, database string) (*mongo.Client, *mongo.Collection, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, nil, fmt.Errorf("mongo.Connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, nil, fmt.Errorf("mongo.Ping: %w", err)
	}
	return client, client.Database(database).Collection(PublicationCollection), nil
}

type PublicationRepoerMongo struct {
	collection *mongo.Collection
}

func (r *PublicationRepoerMongo) Insert(ctx context.Context, publication *model.Publication) error {
	_, err := r.collection.InsertOne(ctx, publication)
	return err
}

func (r *PublicationRepoerMongo) UpdateState(ctx context.Context, p *model.Publication) (bool, error) {
	result, err := r.collection.UpdateOne(ctx, bson.M{
		"_id": p.ID,
	}, bson.M{
		"$set": bson.M{
			"state":      p.State,
			"remoteRef":  p.RemoteRef,
			"imageID":    p.ImageID,
			"digest":     p.Digest,
			"revision":   p.Revision,
			"failedStep": p.FailedStep,
			"message":    p.Message,
			"updatedAt":  p.UpdatedAt,
		},
	})
	if err != nil {
		return false, err
	}
	return result.MatchedCount > 0, nil
}

func (r *PublicationRepoerMongo) GetByID(ctx context.Context, id string) (*model.Publication, error) {
	var publication model.Publication
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&publication)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repo.ErrNotFound
		}
		return nil, err
	}
	return &publication, nil
}
