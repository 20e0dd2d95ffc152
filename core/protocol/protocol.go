// Package protocol defines the management protocol spoken with DHCP
// servers. Every call reports the raw status of the server together with
// a transport error. Use Check to turn both into a single error.
package protocol

import (
	"context"

	"github.com/nextdhcp/dhcpadmin/core/address"
)

// Paged enumerations take a resume handle that is updated by every call
// and a preferred maximum number of bytes to return. A status of
// MoreData means more items are available, Success marks the last page
// and NoMoreItems an already exhausted enumeration.

// Protocol is the management protocol of a single DHCP server
type Protocol interface {
	// GetVersion returns the major and minor version of the server
	GetVersion(ctx context.Context) (major, minor uint32, status Status, err error)

	GetSubnetInfo(ctx context.Context, subnet address.IP) (*SubnetInfo, Status, error)
	GetSubnetInfoVQ(ctx context.Context, subnet address.IP) (*SubnetInfoVQ, Status, error)
	SetSubnetInfo(ctx context.Context, subnet address.IP, info SubnetInfo) (Status, error)
	SetSubnetInfoVQ(ctx context.Context, subnet address.IP, info SubnetInfoVQ) (Status, error)
	CreateSubnet(ctx context.Context, subnet address.IP, info SubnetInfo) (Status, error)
	DeleteSubnet(ctx context.Context, subnet address.IP, force ForceFlag) (Status, error)
	EnumSubnets(ctx context.Context, resume *ResumeHandle, preferredMaximum uint32) ([]address.IP, Status, error)

	EnumSubnetElements(ctx context.Context, subnet address.IP, elementType ElementType, resume *ResumeHandle, preferredMaximum uint32) ([]SubnetElement, Status, error)
	EnumSubnetElementsV5(ctx context.Context, subnet address.IP, elementType ElementType, resume *ResumeHandle, preferredMaximum uint32) ([]SubnetElementV5, Status, error)
	AddSubnetElement(ctx context.Context, subnet address.IP, element SubnetElement) (Status, error)
	AddSubnetElementV5(ctx context.Context, subnet address.IP, element SubnetElementV5) (Status, error)
	RemoveSubnetElement(ctx context.Context, subnet address.IP, element SubnetElement, force ForceFlag) (Status, error)

	GetSubnetDelayOffer(ctx context.Context, subnet address.IP) (uint16, Status, error)
	SetSubnetDelayOffer(ctx context.Context, subnet address.IP, milliseconds uint16) (Status, error)

	GetClientInfo(ctx context.Context, ip address.IP) (*ClientInfo, Status, error)
	GetClientInfoVQ(ctx context.Context, ip address.IP) (*ClientInfoVQ, Status, error)
	SetClientInfo(ctx context.Context, info ClientInfo) (Status, error)
	CreateClientInfo(ctx context.Context, info ClientInfo) (Status, error)
	CreateClientInfoVQ(ctx context.Context, info ClientInfoVQ) (Status, error)
	DeleteClientInfo(ctx context.Context, ip address.IP) (Status, error)
	// EnumSubnetClients enumerates the clients of subnet. A subnet of 0
	// enumerates all clients of the server.
	EnumSubnetClients(ctx context.Context, subnet address.IP, resume *ResumeHandle, preferredMaximum uint32) ([]ClientInfo, Status, error)
	EnumSubnetClientsVQ(ctx context.Context, subnet address.IP, resume *ResumeHandle, preferredMaximum uint32) ([]ClientInfoVQ, Status, error)

	GetOptionValue(ctx context.Context, optionID uint32, scope OptionScope) (*OptionValue, Status, error)
	SetOptionValue(ctx context.Context, scope OptionScope, value OptionValue) (Status, error)
	RemoveOptionValue(ctx context.Context, optionID uint32, scope OptionScope) (Status, error)
	EnumOptionValues(ctx context.Context, scope OptionScope, resume *ResumeHandle, preferredMaximum uint32) ([]OptionValue, Status, error)

	GetMibInfoV5(ctx context.Context) (*MibInfoV5, Status, error)
	GetMibInfoV6(ctx context.Context) (*MibInfoV6, Status, error)

	EnumFailoverRelationships(ctx context.Context, resume *ResumeHandle, preferredMaximum uint32) ([]FailoverRelationship, Status, error)
	GetFailoverRelationship(ctx context.Context, name string) (*FailoverRelationship, Status, error)
	GetSubnetFailoverRelationship(ctx context.Context, subnet address.IP) (*FailoverRelationship, Status, error)

	// Close releases any resources held by the connection
	Close() error
}

// Directory lists the DHCP servers known to a directory service
type Directory interface {
	EnumServers(ctx context.Context) ([]ServerEntry, Status, error)
}
