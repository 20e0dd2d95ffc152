// Package snapshot persists scope configuration graphs in a bbolt
// database. A snapshot can later be restored onto a live scope through
// the replication engine.
package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/apex/log"
	"github.com/nextdhcp/dhcpadmin/core/address"
	"github.com/nextdhcp/dhcpadmin/core/replication"
	"go.etcd.io/bbolt"
)

var snapshotsBucketKey = []byte("snapshots")

type (
	// Store keeps the latest snapshot of every scope per server
	Store struct {
		db   *bbolt.DB
		path string
	}

	// Info describes a stored snapshot without its graph
	Info struct {
		Server string     `json:"server"`
		Subnet address.IP `json:"subnet"`
		Name   string     `json:"name"`
		Taken  time.Time  `json:"taken"`
	}

	entry struct {
		Taken int64                   `json:"taken"`
		Graph *replication.ScopeGraph `json:"graph"`
	}
)

// Open opens or creates the snapshot database at path
func Open(path string) (*Store, error) {
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening snapshot database %s: %w", path, err)
	}

	return newStore(db, path)
}

func newStore(db *bbolt.DB, path string) (*Store, error) {
	if err := migrateDatabase(db); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db, path: path}, nil
}

// Path returns the path of the database file
func (s *Store) Path() string {
	return s.path
}

// Close closes the database
func (s *Store) Close() error {
	return s.db.Close()
}

// Save stores g as the latest snapshot of its subnet on server
func (s *Store) Save(ctx context.Context, server string, g *replication.ScopeGraph) (*Info, error) {
	if server == "" {
		return nil, fmt.Errorf("snapshot: server name must not be empty")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	taken := time.Now().UTC().Truncate(time.Second)
	blob, err := json.Marshal(entry{Taken: taken.Unix(), Graph: g})
	if err != nil {
		return nil, err
	}

	err = s.db.Update(func(tx *bbolt.Tx) error {
		bucket, err := serverBucket(tx, server, true)
		if err != nil {
			return err
		}
		return bucket.Put(subnetKey(g.SubnetAddress), blob)
	})
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"server": server,
		"subnet": g.SubnetAddress.String(),
	}).Debugf("snapshot stored in %s", s.path)

	return &Info{Server: server, Subnet: g.SubnetAddress, Name: g.Name, Taken: taken}, nil
}

// Load returns the latest snapshot of subnet taken from server
func (s *Store) Load(ctx context.Context, server string, subnet address.IP) (*replication.ScopeGraph, *Info, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	var e entry
	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket, err := serverBucket(tx, server, false)
		if err != nil {
			return err
		}
		if bucket == nil {
			return &ErrNotFound{Server: server, Subnet: subnet}
		}

		blob := bucket.Get(subnetKey(subnet))
		if blob == nil {
			return &ErrNotFound{Server: server, Subnet: subnet}
		}

		return json.Unmarshal(blob, &e)
	})
	if err != nil {
		return nil, nil, err
	}

	if e.Graph == nil || e.Graph.SubnetAddress != subnet {
		return nil, nil, fmt.Errorf("database inconsistency detected. snapshot for %s on %s holds another subnet", subnet, server)
	}

	return e.Graph, &Info{
		Server: server,
		Subnet: subnet,
		Name:   e.Graph.Name,
		Taken:  time.Unix(e.Taken, 0).UTC(),
	}, nil
}

// Delete removes the snapshot of subnet taken from server
func (s *Store) Delete(ctx context.Context, server string, subnet address.IP) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket, err := serverBucket(tx, server, false)
		if err != nil {
			return err
		}
		if bucket == nil || bucket.Get(subnetKey(subnet)) == nil {
			return &ErrNotFound{Server: server, Subnet: subnet}
		}
		return bucket.Delete(subnetKey(subnet))
	})
}

// List returns all snapshots of server ordered by subnet. If server is
// empty the snapshots of all servers are returned.
func (s *Store) List(ctx context.Context, server string) ([]Info, error) {
	var list []Info

	err := s.db.View(func(tx *bbolt.Tx) error {
		root := tx.Bucket(snapshotsBucketKey)
		if root == nil {
			return nil
		}

		return root.ForEach(func(name, v []byte) error {
			if v != nil || (server != "" && string(name) != server) {
				return nil
			}

			return root.Bucket(name).ForEach(func(key, blob []byte) error {
				var e entry
				if err := json.Unmarshal(blob, &e); err != nil {
					return fmt.Errorf("snapshot %s/%x: %w", name, key, err)
				}
				if e.Graph == nil {
					return nil
				}
				list = append(list, Info{
					Server: string(name),
					Subnet: e.Graph.SubnetAddress,
					Name:   e.Graph.Name,
					Taken:  time.Unix(e.Taken, 0).UTC(),
				})
				return nil
			})
		})
	})

	sort.SliceStable(list, func(i, j int) bool {
		if list[i].Server != list[j].Server {
			return list[i].Server < list[j].Server
		}
		return list[i].Subnet < list[j].Subnet
	})

	return list, err
}

func serverBucket(tx *bbolt.Tx, server string, create bool) (*bbolt.Bucket, error) {
	if !create {
		root := tx.Bucket(snapshotsBucketKey)
		if root == nil {
			return nil, nil
		}
		return root.Bucket([]byte(server)), nil
	}

	root, err := tx.CreateBucketIfNotExists(snapshotsBucketKey)
	if err != nil {
		return nil, err
	}
	return root.CreateBucketIfNotExists([]byte(server))
}

// subnetKey encodes ip big-endian so cursors iterate in address order
func subnetKey(ip address.IP) []byte {
	b := ip.Bytes()
	return b[:]
}
