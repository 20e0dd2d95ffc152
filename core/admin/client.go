package admin

import (
	"context"
	"time"

	"github.com/nextdhcp/dhcpadmin/core/address"
	"github.com/nextdhcp/dhcpadmin/core/hwaddr"
	"github.com/nextdhcp/dhcpadmin/core/protocol"
)

// Client is a lease of a DHCP server
type Client struct {
	server *Server
	record ClientRecord
}

// ClientSpec describes a client lease to create
type ClientSpec struct {
	Address         address.IP
	HardwareAddress hwaddr.Address
	Name            string
	Comment         string

	// LeaseExpires defaults to NoExpiry
	LeaseExpires time.Time
}

// CreateClient creates a client lease in scope
func CreateClient(ctx context.Context, scope *Scope, spec ClientSpec) (*Client, error) {
	server := scope.server
	if err := server.require("client creation", minClientInfo); err != nil {
		return nil, err
	}

	if !scope.record.IPRange.Contains(spec.Address) {
		return nil, outOfRange("address", spec.Address, "the address is not within the range of scope "+scope.record.IPRange.String())
	}

	expires := spec.LeaseExpires
	if expires.IsZero() {
		expires = NoExpiry
	}

	rec := ClientRecord{
		Address:         spec.Address,
		SubnetMask:      scope.record.Mask,
		HardwareAddress: spec.HardwareAddress,
		Name:            spec.Name,
		Comment:         spec.Comment,
		LeaseExpiresUTC: expires,
		OwnerHost:       protocol.HostInfo{Address: server.address},
	}
	info, err := rec.toWire()
	if err != nil {
		return nil, err
	}

	var status protocol.Status
	op := "CreateClientInfo"
	if server.IsCompatible(minClientInfoVQ) {
		op = "CreateClientInfoVQ"
		status, err = server.proto.CreateClientInfoVQ(ctx, protocol.ClientInfoVQ{
			ClientInfo:    info,
			ClientType:    protocol.ClientDHCP,
			AddressState:  uint8(AddressActive),
			Status:        uint32(NoQuarantine),
			ProbationEnds: protocol.DateTimeFrom(NoExpiry),
		})
	} else {
		status, err = server.proto.CreateClientInfo(ctx, info)
	}
	if err := protocol.Check(op, status, err); err != nil {
		return nil, err
	}

	// the server derives state the create call does not echo
	client, err := server.Client(ctx, spec.Address)
	if err != nil {
		return nil, err
	}
	if client == nil {
		return nil, &protocol.Error{Op: "GetClientInfo", Status: protocol.JetError}
	}

	scope.l.Debugf("created client %s", client.record)
	return client, nil
}

// Record returns the current snapshot of the client
func (c *Client) Record() ClientRecord { return c.record }

// Address returns the leased address
func (c *Client) Address() address.IP { return c.record.Address }

// HardwareAddress returns the hardware address of the client
func (c *Client) HardwareAddress() hwaddr.Address { return c.record.HardwareAddress }

// Name returns the name of the client
func (c *Client) Name() string { return c.record.Name }

// Comment returns the comment of the client
func (c *Client) Comment() string { return c.record.Comment }

func (c *Client) String() string {
	return c.record.String()
}

// setInfo sends the whole record and replaces the snapshot on success
func (c *Client) setInfo(ctx context.Context, rec ClientRecord) error {
	info, err := rec.toWire()
	if err != nil {
		return err
	}

	status, err := c.server.proto.SetClientInfo(ctx, info)
	if err := protocol.Check("SetClientInfo", status, err); err != nil {
		return err
	}

	c.record = rec
	return nil
}

// SetName changes the name of the client
func (c *Client) SetName(ctx context.Context, name string) error {
	if name == c.record.Name {
		return nil
	}
	rec := c.record
	rec.Name = name
	return c.setInfo(ctx, rec)
}

// SetComment changes the comment of the client
func (c *Client) SetComment(ctx context.Context, comment string) error {
	if comment == c.record.Comment {
		return nil
	}
	rec := c.record
	rec.Comment = comment
	return c.setInfo(ctx, rec)
}

// SetHardwareAddress changes the hardware address of the client
func (c *Client) SetHardwareAddress(ctx context.Context, hw hwaddr.Address) error {
	if hw.Equal(c.record.HardwareAddress) {
		return nil
	}
	if !hw.Valid() {
		return invalid("hardware address", hw.String()+" exceeds the maximum length")
	}
	rec := c.record
	rec.HardwareAddress = hw
	return c.setInfo(ctx, rec)
}

// Delete removes the client lease
func (c *Client) Delete(ctx context.Context) error {
	status, err := c.server.proto.DeleteClientInfo(ctx, c.record.Address)
	if err := protocol.Check("DeleteClientInfo", status, err); err != nil {
		return err
	}
	c.server.l.Debugf("deleted client %s", c.record.Address)
	return nil
}

// Refresh reloads the client from the server. It returns a
// *protocol.Error if the client no longer exists.
func (c *Client) Refresh(ctx context.Context) error {
	rec, err := c.server.clientRecord(ctx, c.record.Address)
	if err != nil {
		return err
	}
	if rec == nil {
		return &protocol.Error{Op: "GetClientInfo", Status: protocol.JetError}
	}
	c.record = *rec
	return nil
}

// Scope returns the scope the client belongs to
func (c *Client) Scope(ctx context.Context) (*Scope, error) {
	return c.server.Scope(ctx, c.record.SubnetMask.Network(c.record.Address))
}

// ConvertToReservation reserves the address of the client for its
// hardware address
func (c *Client) ConvertToReservation(ctx context.Context) (*Reservation, error) {
	scope, err := c.Scope(ctx)
	if err != nil {
		return nil, err
	}
	return scope.AddReservation(ctx, c.record.Address, c.record.HardwareAddress, protocol.ClientBoth)
}
