package snapshot

import (
	"fmt"

	"go.etcd.io/bbolt"
)

// SchemaVersion is the current version of the snapshot database
const SchemaVersion = "1"

var (
	schemaVersionBucket = []byte("schema-version")
	schemaVersionKey    = []byte("dhcpadmin-schema-version")
)

type migrationFunc func(*bbolt.Tx) error

var migrations = map[string]migrationFunc{
	"0": v0ToV1,
}

func migrateDatabase(db *bbolt.DB) error {
	return db.Update(func(tx *bbolt.Tx) error {
		versionBucket, err := tx.CreateBucketIfNotExists(schemaVersionBucket)
		if err != nil {
			return err
		}

		version := string(versionBucket.Get(schemaVersionKey))
		if version == "" {
			version = "0"
		}

		for version != SchemaVersion {
			migrator, ok := migrations[version]
			if !ok {
				return fmt.Errorf("cannot migrate snapshot database from %q", version)
			}

			if err := migrator(tx); err != nil {
				return err
			}

			version = string(versionBucket.Get(schemaVersionKey))
		}

		return nil
	})
}

// v0ToV1 initializes a fresh database
func v0ToV1(tx *bbolt.Tx) error {
	if _, err := tx.CreateBucketIfNotExists(snapshotsBucketKey); err != nil {
		return err
	}

	return tx.Bucket(schemaVersionBucket).Put(schemaVersionKey, []byte("1"))
}
