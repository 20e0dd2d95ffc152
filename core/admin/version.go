package admin

import "fmt"

// Version is a server version with the major number in the upper and
// the minor number in the lower 16 bits. Versions are ordered.
type Version uint32

// NewVersion returns the version major.minor
func NewVersion(major, minor uint32) Version {
	return Version(major<<16 | minor&0xFFFF)
}

// Well known server versions
const (
	Version2000   Version = 5 << 16
	Version2003   Version = 5<<16 | 2
	Version2008   Version = 6 << 16
	Version2008R2 Version = 6<<16 | 1
	Version2012   Version = 6<<16 | 2
)

// Minimum versions of the extended wire formats
const (
	minSubnetInfoVQ   = Version2008R2
	minClientInfoVQ   = Version2008R2
	minClientInfo     = Version2000
	minEnumElementsV5 = Version2008
	minAddElementV5   = Version2003
	minMibInfo        = Version2008
	minFailover       = Version2012
)

// Major returns the major version number
func (v Version) Major() uint32 {
	return uint32(v) >> 16
}

// Minor returns the minor version number
func (v Version) Minor() uint32 {
	return uint32(v) & 0xFFFF
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d", v.Major(), v.Minor())
}

// IsCompatible reports whether the server version is greater than or
// equal to v
func (s *Server) IsCompatible(v Version) bool {
	return s.version >= v
}

// require fails with an *UnsupportedError if the server is older than min
func (s *Server) require(feature string, min Version) error {
	if !s.IsCompatible(min) {
		return &UnsupportedError{Feature: feature, Version: s.version}
	}
	return nil
}
