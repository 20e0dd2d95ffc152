package protocol

import (
	"errors"
	"fmt"
)

// Status is the raw result code of a management protocol call
type Status uint32

// Status codes reported by DHCP servers
const (
	Success               Status = 0
	FileNotFound          Status = 2
	NotSupported          Status = 50
	InvalidParameter      Status = 87
	MoreData              Status = 234
	NoMoreItems           Status = 259
	EndpointNotRegistered Status = 1753

	SubnetExists       Status = 20004
	SubnetNotPresent   Status = 20005
	ElementCantRemove  Status = 20007
	OptionNotPresent   Status = 20010
	JetError           Status = 20013
	ClientExists       Status = 20014
	NotReservedClient  Status = 20018
	ReservedClient     Status = 20019
	IPRangeExists      Status = 20021
	ReservedIPExists   Status = 20022
	InvalidRange       Status = 20023
	InvalidDelay       Status = 20092

	FailoverRelationshipExists       Status = 20114
	FailoverRelationshipDoesNotExist Status = 20115
	FailoverScopeNotInRelationship   Status = 20116
)

var statusNames = map[Status]string{
	Success:                          "SUCCESS",
	FileNotFound:                     "ERROR_FILE_NOT_FOUND",
	NotSupported:                     "ERROR_NOT_SUPPORTED",
	InvalidParameter:                 "ERROR_INVALID_PARAMETER",
	MoreData:                         "ERROR_MORE_DATA",
	NoMoreItems:                      "ERROR_NO_MORE_ITEMS",
	EndpointNotRegistered:            "EPT_S_NOT_REGISTERED",
	SubnetExists:                     "ERROR_DHCP_SUBNET_EXISTS",
	SubnetNotPresent:                 "ERROR_DHCP_SUBNET_NOT_PRESENT",
	ElementCantRemove:                "ERROR_DHCP_ELEMENT_CANT_REMOVE",
	OptionNotPresent:                 "ERROR_DHCP_OPTION_NOT_PRESENT",
	JetError:                         "ERROR_DHCP_JET_ERROR",
	ClientExists:                     "ERROR_DHCP_CLIENT_EXISTS",
	NotReservedClient:                "ERROR_DHCP_NOT_RESERVED_CLIENT",
	ReservedClient:                   "ERROR_DHCP_RESERVED_CLIENT",
	IPRangeExists:                    "ERROR_DHCP_IPRANGE_EXITS",
	ReservedIPExists:                 "ERROR_DHCP_RESERVEDIP_EXITS",
	InvalidRange:                     "ERROR_DHCP_INVALID_RANGE",
	InvalidDelay:                     "ERROR_DHCP_INVALID_DELAY",
	FailoverRelationshipExists:       "ERROR_DHCP_FO_RELATIONSHIP_EXISTS",
	FailoverRelationshipDoesNotExist: "ERROR_DHCP_FO_RELATIONSHIP_DOES_NOT_EXIST",
	FailoverScopeNotInRelationship:   "ERROR_DHCP_FO_SCOPE_NOT_IN_RELATIONSHIP",
}

func (s Status) String() string {
	if n, ok := statusNames[s]; ok {
		return n
	}
	return fmt.Sprintf("status %d", uint32(s))
}

// Error is returned when a management protocol operation completes
// with a status that the caller does not handle
type Error struct {
	// Op is the name of the operation that failed
	Op string

	// Status is the raw status reported by the server
	Status Status
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s failed: %s (%d)", e.Op, e.Status, uint32(e.Status))
}

// Check converts the result of a protocol call into an error. Transport
// errors are returned as they are, any status but Success is returned
// as an *Error.
func Check(op string, status Status, err error) error {
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if status != Success {
		return &Error{Op: op, Status: status}
	}

	return nil
}

// IsStatus returns true if err is an *Error carrying status
func IsStatus(err error, status Status) bool {
	var pe *Error
	if !errors.As(err, &pe) {
		return false
	}
	return pe.Status == status
}

// IsProtocolError returns true if err is an *Error
func IsProtocolError(err error) bool {
	var pe *Error
	return errors.As(err, &pe)
}
