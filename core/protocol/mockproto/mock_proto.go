package mockproto

import (
	"context"

	"github.com/nextdhcp/dhcpadmin/core/address"
	"github.com/nextdhcp/dhcpadmin/core/protocol"
	"github.com/stretchr/testify/mock"
)

// MockProtocol is used to simplify testing code that requires a
// protocol.Protocol. Enumerations receive the resume handle pointer as
// their last but one argument.
type MockProtocol struct {
	mock.Mock
}

func status(args mock.Arguments, i int) protocol.Status {
	return args.Get(i).(protocol.Status)
}

func ptr[T any](args mock.Arguments, i int) *T {
	v, _ := args.Get(i).(*T)
	return v
}

func list[T any](args mock.Arguments, i int) []T {
	v, _ := args.Get(i).([]T)
	return v
}

// GetVersion implements the protocol.Protocol interface
func (m *MockProtocol) GetVersion(context.Context) (uint32, uint32, protocol.Status, error) {
	args := m.Called()
	return args.Get(0).(uint32), args.Get(1).(uint32), status(args, 2), args.Error(3)
}

// GetSubnetInfo implements the protocol.Protocol interface
func (m *MockProtocol) GetSubnetInfo(_ context.Context, subnet address.IP) (*protocol.SubnetInfo, protocol.Status, error) {
	args := m.Called(subnet)
	return ptr[protocol.SubnetInfo](args, 0), status(args, 1), args.Error(2)
}

// GetSubnetInfoVQ implements the protocol.Protocol interface
func (m *MockProtocol) GetSubnetInfoVQ(_ context.Context, subnet address.IP) (*protocol.SubnetInfoVQ, protocol.Status, error) {
	args := m.Called(subnet)
	return ptr[protocol.SubnetInfoVQ](args, 0), status(args, 1), args.Error(2)
}

// SetSubnetInfo implements the protocol.Protocol interface
func (m *MockProtocol) SetSubnetInfo(_ context.Context, subnet address.IP, info protocol.SubnetInfo) (protocol.Status, error) {
	args := m.Called(subnet, info)
	return status(args, 0), args.Error(1)
}

// SetSubnetInfoVQ implements the protocol.Protocol interface
func (m *MockProtocol) SetSubnetInfoVQ(_ context.Context, subnet address.IP, info protocol.SubnetInfoVQ) (protocol.Status, error) {
	args := m.Called(subnet, info)
	return status(args, 0), args.Error(1)
}

// CreateSubnet implements the protocol.Protocol interface
func (m *MockProtocol) CreateSubnet(_ context.Context, subnet address.IP, info protocol.SubnetInfo) (protocol.Status, error) {
	args := m.Called(subnet, info)
	return status(args, 0), args.Error(1)
}

// DeleteSubnet implements the protocol.Protocol interface
func (m *MockProtocol) DeleteSubnet(_ context.Context, subnet address.IP, force protocol.ForceFlag) (protocol.Status, error) {
	args := m.Called(subnet, force)
	return status(args, 0), args.Error(1)
}

// EnumSubnets implements the protocol.Protocol interface
func (m *MockProtocol) EnumSubnets(_ context.Context, resume *protocol.ResumeHandle, max uint32) ([]address.IP, protocol.Status, error) {
	args := m.Called(resume, max)
	return list[address.IP](args, 0), status(args, 1), args.Error(2)
}

// EnumSubnetElements implements the protocol.Protocol interface
func (m *MockProtocol) EnumSubnetElements(_ context.Context, subnet address.IP, et protocol.ElementType, resume *protocol.ResumeHandle, max uint32) ([]protocol.SubnetElement, protocol.Status, error) {
	args := m.Called(subnet, et, resume, max)
	return list[protocol.SubnetElement](args, 0), status(args, 1), args.Error(2)
}

// EnumSubnetElementsV5 implements the protocol.Protocol interface
func (m *MockProtocol) EnumSubnetElementsV5(_ context.Context, subnet address.IP, et protocol.ElementType, resume *protocol.ResumeHandle, max uint32) ([]protocol.SubnetElementV5, protocol.Status, error) {
	args := m.Called(subnet, et, resume, max)
	return list[protocol.SubnetElementV5](args, 0), status(args, 1), args.Error(2)
}

// AddSubnetElement implements the protocol.Protocol interface
func (m *MockProtocol) AddSubnetElement(_ context.Context, subnet address.IP, elem protocol.SubnetElement) (protocol.Status, error) {
	args := m.Called(subnet, elem)
	return status(args, 0), args.Error(1)
}

// AddSubnetElementV5 implements the protocol.Protocol interface
func (m *MockProtocol) AddSubnetElementV5(_ context.Context, subnet address.IP, elem protocol.SubnetElementV5) (protocol.Status, error) {
	args := m.Called(subnet, elem)
	return status(args, 0), args.Error(1)
}

// RemoveSubnetElement implements the protocol.Protocol interface
func (m *MockProtocol) RemoveSubnetElement(_ context.Context, subnet address.IP, elem protocol.SubnetElement, force protocol.ForceFlag) (protocol.Status, error) {
	args := m.Called(subnet, elem, force)
	return status(args, 0), args.Error(1)
}

// GetSubnetDelayOffer implements the protocol.Protocol interface
func (m *MockProtocol) GetSubnetDelayOffer(_ context.Context, subnet address.IP) (uint16, protocol.Status, error) {
	args := m.Called(subnet)
	return args.Get(0).(uint16), status(args, 1), args.Error(2)
}

// SetSubnetDelayOffer implements the protocol.Protocol interface
func (m *MockProtocol) SetSubnetDelayOffer(_ context.Context, subnet address.IP, ms uint16) (protocol.Status, error) {
	args := m.Called(subnet, ms)
	return status(args, 0), args.Error(1)
}

// GetClientInfo implements the protocol.Protocol interface
func (m *MockProtocol) GetClientInfo(_ context.Context, ip address.IP) (*protocol.ClientInfo, protocol.Status, error) {
	args := m.Called(ip)
	return ptr[protocol.ClientInfo](args, 0), status(args, 1), args.Error(2)
}

// GetClientInfoVQ implements the protocol.Protocol interface
func (m *MockProtocol) GetClientInfoVQ(_ context.Context, ip address.IP) (*protocol.ClientInfoVQ, protocol.Status, error) {
	args := m.Called(ip)
	return ptr[protocol.ClientInfoVQ](args, 0), status(args, 1), args.Error(2)
}

// SetClientInfo implements the protocol.Protocol interface
func (m *MockProtocol) SetClientInfo(_ context.Context, info protocol.ClientInfo) (protocol.Status, error) {
	args := m.Called(info)
	return status(args, 0), args.Error(1)
}

// CreateClientInfo implements the protocol.Protocol interface
func (m *MockProtocol) CreateClientInfo(_ context.Context, info protocol.ClientInfo) (protocol.Status, error) {
	args := m.Called(info)
	return status(args, 0), args.Error(1)
}

// CreateClientInfoVQ implements the protocol.Protocol interface
func (m *MockProtocol) CreateClientInfoVQ(_ context.Context, info protocol.ClientInfoVQ) (protocol.Status, error) {
	args := m.Called(info)
	return status(args, 0), args.Error(1)
}

// DeleteClientInfo implements the protocol.Protocol interface
func (m *MockProtocol) DeleteClientInfo(_ context.Context, ip address.IP) (protocol.Status, error) {
	args := m.Called(ip)
	return status(args, 0), args.Error(1)
}

// EnumSubnetClients implements the protocol.Protocol interface
func (m *MockProtocol) EnumSubnetClients(_ context.Context, subnet address.IP, resume *protocol.ResumeHandle, max uint32) ([]protocol.ClientInfo, protocol.Status, error) {
	args := m.Called(subnet, resume, max)
	return list[protocol.ClientInfo](args, 0), status(args, 1), args.Error(2)
}

// EnumSubnetClientsVQ implements the protocol.Protocol interface
func (m *MockProtocol) EnumSubnetClientsVQ(_ context.Context, subnet address.IP, resume *protocol.ResumeHandle, max uint32) ([]protocol.ClientInfoVQ, protocol.Status, error) {
	args := m.Called(subnet, resume, max)
	return list[protocol.ClientInfoVQ](args, 0), status(args, 1), args.Error(2)
}

// GetOptionValue implements the protocol.Protocol interface
func (m *MockProtocol) GetOptionValue(_ context.Context, id uint32, scope protocol.OptionScope) (*protocol.OptionValue, protocol.Status, error) {
	args := m.Called(id, scope)
	return ptr[protocol.OptionValue](args, 0), status(args, 1), args.Error(2)
}

// SetOptionValue implements the protocol.Protocol interface
func (m *MockProtocol) SetOptionValue(_ context.Context, scope protocol.OptionScope, value protocol.OptionValue) (protocol.Status, error) {
	args := m.Called(scope, value)
	return status(args, 0), args.Error(1)
}

// RemoveOptionValue implements the protocol.Protocol interface
func (m *MockProtocol) RemoveOptionValue(_ context.Context, id uint32, scope protocol.OptionScope) (protocol.Status, error) {
	args := m.Called(id, scope)
	return status(args, 0), args.Error(1)
}

// EnumOptionValues implements the protocol.Protocol interface
func (m *MockProtocol) EnumOptionValues(_ context.Context, scope protocol.OptionScope, resume *protocol.ResumeHandle, max uint32) ([]protocol.OptionValue, protocol.Status, error) {
	args := m.Called(scope, resume, max)
	return list[protocol.OptionValue](args, 0), status(args, 1), args.Error(2)
}

// GetMibInfoV5 implements the protocol.Protocol interface
func (m *MockProtocol) GetMibInfoV5(context.Context) (*protocol.MibInfoV5, protocol.Status, error) {
	args := m.Called()
	return ptr[protocol.MibInfoV5](args, 0), status(args, 1), args.Error(2)
}

// GetMibInfoV6 implements the protocol.Protocol interface
func (m *MockProtocol) GetMibInfoV6(context.Context) (*protocol.MibInfoV6, protocol.Status, error) {
	args := m.Called()
	return ptr[protocol.MibInfoV6](args, 0), status(args, 1), args.Error(2)
}

// EnumFailoverRelationships implements the protocol.Protocol interface
func (m *MockProtocol) EnumFailoverRelationships(_ context.Context, resume *protocol.ResumeHandle, max uint32) ([]protocol.FailoverRelationship, protocol.Status, error) {
	args := m.Called(resume, max)
	return list[protocol.FailoverRelationship](args, 0), status(args, 1), args.Error(2)
}

// GetFailoverRelationship implements the protocol.Protocol interface
func (m *MockProtocol) GetFailoverRelationship(_ context.Context, name string) (*protocol.FailoverRelationship, protocol.Status, error) {
	args := m.Called(name)
	return ptr[protocol.FailoverRelationship](args, 0), status(args, 1), args.Error(2)
}

// GetSubnetFailoverRelationship implements the protocol.Protocol interface
func (m *MockProtocol) GetSubnetFailoverRelationship(_ context.Context, subnet address.IP) (*protocol.FailoverRelationship, protocol.Status, error) {
	args := m.Called(subnet)
	return ptr[protocol.FailoverRelationship](args, 0), status(args, 1), args.Error(2)
}

// Close implements the protocol.Protocol interface
func (m *MockProtocol) Close() error {
	return m.Called().Error(0)
}

// compile time check
var _ protocol.Protocol = &MockProtocol{}
