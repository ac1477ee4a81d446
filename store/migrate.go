package store

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
)

// MigrateLegacyAddresses renames the old "street" address field to "address1"
// on historical orders. Run once at startup; it matches nothing after all
// documents are migrated, so repeated runs are harmless.
func (s *Orders) MigrateLegacyAddresses(ctx context.Context) (int64, error) {
	var migrated int64
	for _, prefix := range []string{"shipping_address", "billing_address"} {
		res, err := s.c.UpdateMany(ctx,
			bson.M{prefix + ".street": bson.M{"$exists": true}},
			bson.M{"$rename": bson.M{prefix + ".street": prefix + ".address1"}},
		)
		if err != nil {
			return migrated, err
		}
		migrated += res.ModifiedCount
	}
	return migrated, nil
}
