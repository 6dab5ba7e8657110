package internal

import (
	"context"
	"fmt"
	"log"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"vismapay/config"
	"vismapay/entity"
	"vismapay/services"
)

const (
	collectionLog            = "payment_log"
	collectionPaymentOrders  = "payment_orders"
	collectionPaymentResults = "payment_results"
	collectionCardTokens     = "card_tokens"
)

type MongoDB struct {
	clientOptions    *options.ClientOptions
	database         string
	logRecordsNumber int64
}

func NewMongoClient(conf *config.Config) (*MongoDB, error) {
	if !conf.Mongo.Enabled {
		return nil, nil
	}
	connectionUri := fmt.Sprintf("mongodb://%s:%s", conf.Mongo.Host, conf.Mongo.Port)
	clientOptions := options.Client().ApplyURI(connectionUri)
	if conf.Mongo.User != "" {
		clientOptions.SetAuth(options.Credential{
			Username:   conf.Mongo.User,
			Password:   conf.Mongo.Password,
			AuthSource: conf.Mongo.Database,
		})
	}
	client := &MongoDB{
		clientOptions:    clientOptions,
		database:         conf.Mongo.Database,
		logRecordsNumber: conf.LogRecords,
	}
	return client, nil
}

func (m *MongoDB) connect(ctx context.Context) (*mongo.Client, error) {
	connection, err := mongo.Connect(ctx, m.clientOptions)
	if err != nil {
		return nil, err
	}
	return connection, nil
}

func (m *MongoDB) disconnect(ctx context.Context, connection *mongo.Client) {
	err := connection.Disconnect(ctx)
	if err != nil {
		log.Println("mongodb disconnect error", err)
	}
}

func (m *MongoDB) WriteLogMessage(data services.Data) error {
	ctx := context.Background()
	connection, err := m.connect(ctx)
	if err != nil {
		return err
	}
	defer m.disconnect(ctx, connection)
	collection := connection.Database(m.database).Collection(collectionLog)
	if _, err = collection.InsertOne(ctx, data); err != nil {
		return err
	}
	if m.logRecordsNumber > 0 {
		m.pruneLog(ctx, collection)
	}
	return nil
}

// pruneLog removes the oldest log entries above the configured record cap.
// Prune failures never fail the write.
func (m *MongoDB) pruneLog(ctx context.Context, collection *mongo.Collection) {
	count, err := collection.CountDocuments(ctx, bson.D{})
	if err != nil || count <= m.logRecordsNumber {
		return
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "_id", Value: 1}}).
		SetLimit(count - m.logRecordsNumber).
		SetProjection(bson.D{{Key: "_id", Value: 1}})
	cursor, err := collection.Find(ctx, bson.D{}, opts)
	if err != nil {
		return
	}
	var oldest []bson.M
	if err = cursor.All(ctx, &oldest); err != nil {
		return
	}
	ids := make([]interface{}, 0, len(oldest))
	for _, document := range oldest {
		ids = append(ids, document["_id"])
	}
	if len(ids) == 0 {
		return
	}
	if _, err = collection.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": ids}}); err != nil {
		log.Println("mongodb prune log error", err)
	}
}

func (m *MongoDB) SavePaymentOrder(ctx context.Context, order *entity.PaymentOrder) error {
	connection, err := m.connect(ctx)
	if err != nil {
		return err
	}
	defer m.disconnect(ctx, connection)

	filter := bson.D{{Key: "order_number", Value: order.OrderNumber}}
	set := bson.M{"$set": order}
	collection := connection.Database(m.database).Collection(collectionPaymentOrders)
	_, err = collection.UpdateOne(ctx, filter, set, options.Update().SetUpsert(true))
	if err != nil {
		return err
	}
	return nil
}

func (m *MongoDB) GetPaymentOrder(ctx context.Context, orderNumber string) (*entity.PaymentOrder, error) {
	connection, err := m.connect(ctx)
	if err != nil {
		return nil, err
	}
	defer m.disconnect(ctx, connection)

	collection := connection.Database(m.database).Collection(collectionPaymentOrders)
	filter := bson.D{{Key: "order_number", Value: orderNumber}}
	var order entity.PaymentOrder
	if err = collection.FindOne(ctx, filter).Decode(&order); err != nil {
		return nil, err
	}
	return &order, nil
}

func (m *MongoDB) SavePaymentResult(ctx context.Context, result *entity.ReturnParams) error {
	connection, err := m.connect(ctx)
	if err != nil {
		return err
	}
	defer m.disconnect(ctx, connection)

	collection := connection.Database(m.database).Collection(collectionPaymentResults)
	_, err = collection.InsertOne(ctx, result)
	return err
}

func (m *MongoDB) SaveCardToken(ctx context.Context, card *entity.SavedCard) error {
	connection, err := m.connect(ctx)
	if err != nil {
		return err
	}
	defer m.disconnect(ctx, connection)

	filter := bson.D{{Key: "card_token", Value: card.CardToken}}
	set := bson.M{"$set": card}
	collection := connection.Database(m.database).Collection(collectionCardTokens)
	_, err = collection.UpdateOne(ctx, filter, set, options.Update().SetUpsert(true))
	return err
}

func (m *MongoDB) DeleteCardToken(ctx context.Context, cardToken string) error {
	connection, err := m.connect(ctx)
	if err != nil {
		return err
	}
	defer m.disconnect(ctx, connection)

	filter := bson.D{{Key: "card_token", Value: cardToken}}
	collection := connection.Database(m.database).Collection(collectionCardTokens)
	_, err = collection.DeleteOne(ctx, filter)
	return err
}
