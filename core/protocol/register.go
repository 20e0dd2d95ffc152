package protocol

import (
	"errors"
	"sort"
	"sync"
)

// Factory opens a management protocol connection for the server at
// address. args holds additional driver arguments.
type Factory func(address string, args map[string][]string) (Protocol, error)

var (
	// ErrDriverRegistered is returned by Register if the name is already taken
	ErrDriverRegistered = errors.New("protocol driver already registered")

	// ErrUnknownDriver is returned by Open for unregistered drivers
	ErrUnknownDriver = errors.New("unknown driver")
)

var (
	factoriesLock      sync.RWMutex
	registeredFactorys = map[string]Factory{}
)

// Register registeres a new protocol driver
func Register(name string, factory Factory) error {
	factoriesLock.Lock()
	defer factoriesLock.Unlock()

	if _, ok := registeredFactorys[name]; ok {
		return ErrDriverRegistered
	}

	registeredFactorys[name] = factory
	return nil
}

// MustRegister registeres a new protocol driver and panics on error
func MustRegister(name string, factory Factory) {
	if err := Register(name, factory); err != nil {
		panic(err)
	}
}

// Open opens a connection to address using the driver name
func Open(name string, address string, args map[string][]string) (Protocol, error) {
	factoriesLock.RLock()
	factory, ok := registeredFactorys[name]
	factoriesLock.RUnlock()

	if !ok {
		return nil, ErrUnknownDriver
	}

	return factory(address, args)
}

// Drivers returns the names of all registered drivers
func Drivers() []string {
	factoriesLock.RLock()
	defer factoriesLock.RUnlock()

	names := make([]string, 0, len(registeredFactorys))
	for n := range registeredFactorys {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
