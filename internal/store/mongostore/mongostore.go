// Package mongostore is the default store.Repository implementation,
// grounded on the teacher's internal.MongoDB: a fresh client
// connection per call, rather than a pooled long-lived handle, the
// way the teacher never kept one connection open across requests.
package mongostore

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"chargepoint/internal/store"
)

const (
	collectionTransactions = "transactions"
	collectionAuthCache    = "auth_cache"
	collectionLocalList    = "local_list"
	collectionLocalListMeta = "local_list_meta"
	collectionAvailability = "connector_availability"
	collectionProfiles     = "charging_profiles"
)

type Store struct {
	uri      string
	database string
}

func New(uri, database string) *Store {
	return &Store{uri: uri, database: database}
}

func (s *Store) connect(ctx context.Context) (*mongo.Client, error) {
	return mongo.Connect(ctx, options.Client().ApplyURI(s.uri))
}

func (s *Store) disconnect(ctx context.Context, client *mongo.Client) {
	_ = client.Disconnect(ctx)
}

func (s *Store) UpsertTransaction(ctx context.Context, t store.TransactionRecord) error {
	client, err := s.connect(ctx)
	if err != nil {
		return err
	}
	defer s.disconnect(ctx, client)
	collection := client.Database(s.database).Collection(collectionTransactions)
	_, err = collection.UpdateOne(ctx,
		bson.M{"session_id": t.SessionId},
		bson.M{"$set": t},
		options.Update().SetUpsert(true))
	return err
}

func (s *Store) GetTransaction(ctx context.Context, sessionId string) (*store.TransactionRecord, error) {
	client, err := s.connect(ctx)
	if err != nil {
		return nil, err
	}
	defer s.disconnect(ctx, client)
	collection := client.Database(s.database).Collection(collectionTransactions)
	var t store.TransactionRecord
	err = collection.FindOne(ctx, bson.M{"session_id": sessionId}).Decode(&t)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *Store) ListUnfinishedTransactions(ctx context.Context) ([]store.TransactionRecord, error) {
	client, err := s.connect(ctx)
	if err != nil {
		return nil, err
	}
	defer s.disconnect(ctx, client)
	collection := client.Database(s.database).Collection(collectionTransactions)
	cursor, err := collection.Find(ctx, bson.M{"stop_time": bson.M{"$exists": false}})
	if err != nil {
		return nil, err
	}
	var records []store.TransactionRecord
	if err := cursor.All(ctx, &records); err != nil {
		return nil, err
	}
	return records, nil
}

func (s *Store) UpsertAuthCacheEntry(ctx context.Context, entry store.AuthCacheEntry) error {
	client, err := s.connect(ctx)
	if err != nil {
		return err
	}
	defer s.disconnect(ctx, client)
	collection := client.Database(s.database).Collection(collectionAuthCache)
	_, err = collection.UpdateOne(ctx,
		bson.M{"id_tag": entry.IdTag},
		bson.M{"$set": entry},
		options.Update().SetUpsert(true))
	return err
}

func (s *Store) GetAuthCacheEntry(ctx context.Context, idTag string) (*store.AuthCacheEntry, error) {
	client, err := s.connect(ctx)
	if err != nil {
		return nil, err
	}
	defer s.disconnect(ctx, client)
	collection := client.Database(s.database).Collection(collectionAuthCache)
	var e store.AuthCacheEntry
	err = collection.FindOne(ctx, bson.M{"id_tag": idTag}).Decode(&e)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (s *Store) ClearAuthCache(ctx context.Context) error {
	client, err := s.connect(ctx)
	if err != nil {
		return err
	}
	defer s.disconnect(ctx, client)
	collection := client.Database(s.database).Collection(collectionAuthCache)
	_, err = collection.DeleteMany(ctx, bson.M{})
	return err
}

func (s *Store) InsertLocalListEntries(ctx context.Context, version int, entries []store.AuthCacheEntry, full bool) error {
	client, err := s.connect(ctx)
	if err != nil {
		return err
	}
	defer s.disconnect(ctx, client)
	db := client.Database(s.database)
	if full {
		if _, err := db.Collection(collectionLocalList).DeleteMany(ctx, bson.M{}); err != nil {
			return err
		}
	}
	if len(entries) > 0 {
		docs := make([]interface{}, len(entries))
		for i, e := range entries {
			docs[i] = e
		}
		if _, err := db.Collection(collectionLocalList).InsertMany(ctx, docs); err != nil {
			return err
		}
	}
	_, err = db.Collection(collectionLocalListMeta).UpdateOne(ctx,
		bson.M{"_id": "version"},
		bson.M{"$set": bson.M{"version": version}},
		options.Update().SetUpsert(true))
	return err
}

func (s *Store) ClearLocalList(ctx context.Context) error {
	client, err := s.connect(ctx)
	if err != nil {
		return err
	}
	defer s.disconnect(ctx, client)
	_, err = client.Database(s.database).Collection(collectionLocalList).DeleteMany(ctx, bson.M{})
	return err
}

func (s *Store) GetLocalListVersion(ctx context.Context) (int, error) {
	client, err := s.connect(ctx)
	if err != nil {
		return 0, err
	}
	defer s.disconnect(ctx, client)
	var doc struct {
		Version int `bson:"version"`
	}
	err = client.Database(s.database).Collection(collectionLocalListMeta).
		FindOne(ctx, bson.M{"_id": "version"}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return doc.Version, nil
}

func (s *Store) GetLocalListEntry(ctx context.Context, idTag string) (*store.AuthCacheEntry, error) {
	client, err := s.connect(ctx)
	if err != nil {
		return nil, err
	}
	defer s.disconnect(ctx, client)
	collection := client.Database(s.database).Collection(collectionLocalList)
	var e store.AuthCacheEntry
	err = collection.FindOne(ctx, bson.M{"id_tag": idTag}).Decode(&e)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (s *Store) UpsertConnectorAvailability(ctx context.Context, a store.ConnectorAvailability) error {
	client, err := s.connect(ctx)
	if err != nil {
		return err
	}
	defer s.disconnect(ctx, client)
	collection := client.Database(s.database).Collection(collectionAvailability)
	_, err = collection.UpdateOne(ctx,
		bson.M{"connector_id": a.ConnectorId},
		bson.M{"$set": a},
		options.Update().SetUpsert(true))
	return err
}

func (s *Store) GetConnectorAvailability(ctx context.Context, connectorId int) (*store.ConnectorAvailability, error) {
	client, err := s.connect(ctx)
	if err != nil {
		return nil, err
	}
	defer s.disconnect(ctx, client)
	collection := client.Database(s.database).Collection(collectionAvailability)
	var a store.ConnectorAvailability
	err = collection.FindOne(ctx, bson.M{"connector_id": connectorId}).Decode(&a)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *Store) ListConnectorAvailability(ctx context.Context) ([]store.ConnectorAvailability, error) {
	client, err := s.connect(ctx)
	if err != nil {
		return nil, err
	}
	defer s.disconnect(ctx, client)
	collection := client.Database(s.database).Collection(collectionAvailability)
	cursor, err := collection.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	var records []store.ConnectorAvailability
	if err := cursor.All(ctx, &records); err != nil {
		return nil, err
	}
	return records, nil
}

func (s *Store) InsertChargingProfile(ctx context.Context, r store.ChargingProfileRecord) error {
	client, err := s.connect(ctx)
	if err != nil {
		return err
	}
	defer s.disconnect(ctx, client)
	collection := client.Database(s.database).Collection(collectionProfiles)
	_, err = collection.UpdateOne(ctx,
		bson.M{"profile.chargingprofileid": r.Profile.ChargingProfileId},
		bson.M{"$set": r},
		options.Update().SetUpsert(true))
	return err
}

func (s *Store) DeleteChargingProfile(ctx context.Context, profileId int) error {
	client, err := s.connect(ctx)
	if err != nil {
		return err
	}
	defer s.disconnect(ctx, client)
	collection := client.Database(s.database).Collection(collectionProfiles)
	_, err = collection.DeleteOne(ctx, bson.M{"profile.chargingprofileid": profileId})
	return err
}

func (s *Store) ListChargingProfiles(ctx context.Context) ([]store.ChargingProfileRecord, error) {
	client, err := s.connect(ctx)
	if err != nil {
		return nil, err
	}
	defer s.disconnect(ctx, client)
	collection := client.Database(s.database).Collection(collectionProfiles)
	cursor, err := collection.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	var records []store.ChargingProfileRecord
	if err := cursor.All(ctx, &records); err != nil {
		return nil, err
	}
	return records, nil
}

func (s *Store) GetConnectorForProfile(ctx context.Context, profileId int) (int, error) {
	client, err := s.connect(ctx)
	if err != nil {
		return 0, err
	}
	defer s.disconnect(ctx, client)
	collection := client.Database(s.database).Collection(collectionProfiles)
	var r store.ChargingProfileRecord
	err = collection.FindOne(ctx, bson.M{"profile.chargingprofileid": profileId}).Decode(&r)
	if err == mongo.ErrNoDocuments {
		return 0, fmt.Errorf("no profile with id %d", profileId)
	}
	if err != nil {
		return 0, err
	}
	return r.ConnectorId, nil
}
