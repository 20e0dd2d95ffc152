package snapshot

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/nextdhcp/dhcpadmin/core/address"
	"github.com/nextdhcp/dhcpadmin/core/hwaddr"
	"github.com/nextdhcp/dhcpadmin/core/option"
	"github.com/nextdhcp/dhcpadmin/core/protocol"
	"github.com/nextdhcp/dhcpadmin/core/replication"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.etcd.io/bbolt"
)

func openStore(t *testing.T) *Store {
	path := filepath.Join(t.TempDir(), "snapshots.db")
	s, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func graph(subnet string) *replication.ScopeGraph {
	base := address.MustParseIP(subnet)
	g := &replication.ScopeGraph{
		SubnetAddress: base,
		Mask:          address.MaskFromBits(24),
		Name:          "office " + subnet,
		Comment:       "first floor",
		IPRange:       address.Range{Type: address.ScopeDhcpOnly, Start: base + 10, End: base + 200},
		Exclusions:    []address.Range{{Type: address.Excluded, Start: base + 50, End: base + 60}},
		Options: option.Index([]option.Value{
			{OptionID: 3, Elements: option.Elements{option.IPAddress(base + 1)}},
			{OptionID: 15, Elements: option.Elements{option.String("example.com")}},
		}),
		Reservations: map[address.IP]replication.Reservation{
			base + 20: {
				Address:            base + 20,
				HardwareAddress:    hwaddr.MustParse("00:11:22:33:44:55"),
				AllowedClientTypes: protocol.ClientDHCP,
				Options: option.Index([]option.Value{
					{OptionID: 51, Elements: option.Elements{option.SignedDWord(-1)}},
				}),
			},
		},
	}
	return g
}

func TestSaveLoad(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)

	g := graph("10.0.0.0")
	info, err := s.Save(ctx, "dhcp1", g)
	require.NoError(t, err)
	assert.Equal(t, "dhcp1", info.Server)
	assert.Equal(t, g.SubnetAddress, info.Subnet)
	assert.False(t, info.Taken.IsZero())

	loaded, loadedInfo, err := s.Load(ctx, "dhcp1", g.SubnetAddress)
	require.NoError(t, err)
	assert.Equal(t, *info, *loadedInfo)
	assert.Equal(t, g, loaded)

	// the round trip must not produce any replication step
	ops, err := replication.Plan(g, loaded)
	require.NoError(t, err)
	assert.Empty(t, ops)
}

func TestSave_replaces(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)

	g := graph("10.0.0.0")
	_, err := s.Save(ctx, "dhcp1", g)
	require.NoError(t, err)

	g.Name = "renamed"
	_, err = s.Save(ctx, "dhcp1", g)
	require.NoError(t, err)

	loaded, _, err := s.Load(ctx, "dhcp1", g.SubnetAddress)
	require.NoError(t, err)
	assert.Equal(t, "renamed", loaded.Name)

	list, err := s.List(ctx, "dhcp1")
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestSave_emptyServer(t *testing.T) {
	s := openStore(t)
	_, err := s.Save(context.Background(), "", graph("10.0.0.0"))
	assert.Error(t, err)
}

func TestLoad_notFound(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)

	_, _, err := s.Load(ctx, "dhcp1", address.MustParseIP("10.0.0.0"))
	assert.True(t, IsNotFound(err))

	_, err = s.Save(ctx, "dhcp1", graph("10.0.0.0"))
	require.NoError(t, err)

	_, _, err = s.Load(ctx, "dhcp1", address.MustParseIP("10.0.1.0"))
	assert.True(t, IsNotFound(err))

	_, _, err = s.Load(ctx, "dhcp2", address.MustParseIP("10.0.0.0"))
	assert.True(t, IsNotFound(err))
	assert.EqualError(t, err, `no snapshot of 10.0.0.0 on "dhcp2"`)
}

func TestList(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)

	for _, subnet := range []string{"10.0.2.0", "10.0.1.0", "192.168.0.0"} {
		_, err := s.Save(ctx, "dhcp1", graph(subnet))
		require.NoError(t, err)
	}
	_, err := s.Save(ctx, "dhcp2", graph("10.0.3.0"))
	require.NoError(t, err)

	list, err := s.List(ctx, "dhcp1")
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, address.MustParseIP("10.0.1.0"), list[0].Subnet)
	assert.Equal(t, address.MustParseIP("10.0.2.0"), list[1].Subnet)
	assert.Equal(t, address.MustParseIP("192.168.0.0"), list[2].Subnet)
	assert.Equal(t, "office 10.0.1.0", list[0].Name)

	all, err := s.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, "dhcp2", all[3].Server)

	none, err := s.List(ctx, "dhcp3")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)

	g := graph("10.0.0.0")
	_, err := s.Save(ctx, "dhcp1", g)
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, "dhcp1", g.SubnetAddress))
	assert.True(t, IsNotFound(s.Delete(ctx, "dhcp1", g.SubnetAddress)))

	_, _, err = s.Load(ctx, "dhcp1", g.SubnetAddress)
	assert.True(t, IsNotFound(err))
}

func TestReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "snapshots.db")

	s, err := Open(path)
	require.NoError(t, err)
	_, err = s.Save(ctx, "dhcp1", graph("10.0.0.0"))
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()

	assert.Equal(t, path, s.Path())
	_, _, err = s.Load(ctx, "dhcp1", address.MustParseIP("10.0.0.0"))
	assert.NoError(t, err)
}

func TestMigration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshots.db")

	db, err := bbolt.Open(path, 0o600, nil)
	require.NoError(t, err)
	require.NoError(t, migrateDatabase(db))

	err = db.View(func(tx *bbolt.Tx) error {
		assert.NotNil(t, tx.Bucket(snapshotsBucketKey))
		assert.Equal(t, SchemaVersion, string(tx.Bucket(schemaVersionBucket).Get(schemaVersionKey)))
		return nil
	})
	require.NoError(t, err)

	require.NoError(t, db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(schemaVersionBucket).Put(schemaVersionKey, []byte("99"))
	}))
	assert.Error(t, migrateDatabase(db))
	require.NoError(t, db.Close())

	_, err = os.Stat(path)
	require.NoError(t, err)
	_, err = Open(path)
	assert.Error(t, err, "unknown schema versions must be rejected")
}
