// config/db.go
package config

import (
	"context"
	"log"
	"os"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ConnectDB establishes connection to MongoDB
func ConnectDB() *mongo.Client {
	mongoURI := os.Getenv("MONGO_URI")
	if mongoURI == "" {
		mongoURI = os.Getenv("MONGODB_URI")
	}

	if mongoURI == "" {
		env := os.Getenv("ENV")
		if env == "development" || env == "dev" {
			mongoURI = "mongodb://localhost:27017"
		} else {
			log.Fatal("MONGO_URI or MONGODB_URI environment variable is required for production")
		}
	}

	log.Printf("Connecting to MongoDB at: %s", maskMongoURI(mongoURI))

	clientOptions := options.Client().ApplyURI(mongoURI)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		log.Fatal("MongoDB connection error:", err)
	}

	err = client.Ping(ctx, nil)
	if err != nil {
		log.Fatal("MongoDB ping error:", err)
	}

	log.Println("Connected to MongoDB")

	setupCollections(client)

	return client
}

// GetDatabase returns the application database handle.
func GetDatabase(client *mongo.Client) *mongo.Database {
	dbName := os.Getenv("DB_NAME")
	if dbName == "" {
		dbName = "pawsit"
	}
	return client.Database(dbName)
}

// setupCollections ensures all necessary collections and indexes exist
func setupCollections(client *mongo.Client) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db := GetDatabase(client)

	for _, collName := range []string{"requests", "profiles"} {
		db.CreateCollection(ctx, collName)
	}

	// Listing queries sort by schedule; keep the index aligned with them.
	requestColl := db.Collection("requests")
	ownerIndexModel := mongo.IndexModel{
		Keys: bson.D{{Key: "ownerUserId", Value: 1}, {Key: "start", Value: 1}, {Key: "end", Value: 1}},
	}
	if _, err := requestColl.Indexes().CreateOne(ctx, ownerIndexModel); err != nil {
		log.Printf("Error creating owner index: %v", err)
	}
	sitterIndexModel := mongo.IndexModel{
		Keys: bson.D{{Key: "sitterUserId", Value: 1}},
	}
	if _, err := requestColl.Indexes().CreateOne(ctx, sitterIndexModel); err != nil {
		log.Printf("Error creating sitter index: %v", err)
	}

	profileColl := db.Collection("profiles")
	userIndexModel := mongo.IndexModel{
		Keys:    bson.D{{Key: "userId", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	if _, err := profileColl.Indexes().CreateOne(ctx, userIndexModel); err != nil {
		log.Printf("Error creating profile userId index: %v", err)
	}

	log.Println("Database collections and indexes setup complete")
}

// maskMongoURI masks the password in MongoDB URI for logging
func maskMongoURI(uri string) string {
	if idx := strings.Index(uri, "@"); idx > 0 {
		if colonIdx := strings.LastIndex(uri[:idx], ":"); colonIdx > 0 {
			return uri[:colonIdx+1] + "***" + uri[idx:]
		}
	}
	return uri
}
