package ingest

import (
	"context"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"coursesync/db"
)

// SQLStoreOpener returns an OpenStoreFunc connecting to target, with gorm's
// statement log routed through log.
func SQLStoreOpener(target *db.Target, log *zap.SugaredLogger, echo bool) OpenStoreFunc {
	return func(ctx context.Context) (db.Store, error) {
		log.Infow("connecting to store", "target", target.String())
		dbConn, err := db.Open(ctx, target, &gorm.Config{
			Logger: db.NewGormLogger(log, echo),
		})
		if err != nil {
			return nil, err
		}
		return db.NewSQLStore(dbConn).WithLogger(log), nil
	}
}
