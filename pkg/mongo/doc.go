// Package mongo connects to MongoDB with the official v2 driver.
//
// The authorization audit trail is its main consumer:
//
//	db, err := mongo.NewWithDatabase(ctx, cfg, "")
//	if err != nil {
//		return err
//	}
//	defer db.Client().Disconnect(context.Background())
//
//	trail := audit.NewMongoStorageFromDB(db)
//
// An empty database name falls back to Config.Database.
package mongo
