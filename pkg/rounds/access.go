package rounds

import (
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// Role identifies a privilege class.
type Role uint8

const (
	// RoleDefaultAdmin wires collaborators and toggles test mode.
	RoleDefaultAdmin Role = iota
	// RoleOperator manages stages, the pre-minted count, and the supply cap.
	RoleOperator
)

// AccessControl tracks role membership. Roles are sets of addresses,
// not singletons.
type AccessControl struct {
	members map[Role]map[common.Address]bool

	mu sync.RWMutex
}

// NewAccessControl creates an access control layer with the given initial
// admin and operator.
func NewAccessControl(admin, operator common.Address) *AccessControl {
	ac := &AccessControl{
		members: make(map[Role]map[common.Address]bool),
	}
	ac.members[RoleDefaultAdmin] = map[common.Address]bool{admin: true}
	ac.members[RoleOperator] = map[common.Address]bool{operator: true}
	return ac
}

// Grant adds an address to a role. Only a default admin may grant.
func (ac *AccessControl) Grant(caller common.Address, role Role, addr common.Address) error {
	ac.mu.Lock()
	defer ac.mu.Unlock()

	if !ac.members[RoleDefaultAdmin][caller] {
		return ErrUnauthorized
	}

	if ac.members[role] == nil {
		ac.members[role] = make(map[common.Address]bool)
	}
	ac.members[role][addr] = true
	return nil
}

// Revoke removes an address from a role. Only a default admin may revoke.
func (ac *AccessControl) Revoke(caller common.Address, role Role, addr common.Address) error {
	ac.mu.Lock()
	defer ac.mu.Unlock()

	if !ac.members[RoleDefaultAdmin][caller] {
		return ErrUnauthorized
	}

	delete(ac.members[role], addr)
	return nil
}

// HasRole returns true if the address holds the role.
func (ac *AccessControl) HasRole(role Role, addr common.Address) bool {
	ac.mu.RLock()
	defer ac.mu.RUnlock()

	return ac.members[role][addr]
}

// Require returns ErrUnauthorized unless the address holds the role.
func (ac *AccessControl) Require(role Role, addr common.Address) error {
	if !ac.HasRole(role, addr) {
		return ErrUnauthorized
	}
	return nil
}

// Members returns all addresses holding the role.
func (ac *AccessControl) Members(role Role) []common.Address {
	ac.mu.RLock()
	defer ac.mu.RUnlock()

	addrs := make([]common.Address, 0, len(ac.members[role]))
	for addr := range ac.members[role] {
		addrs = append(addrs, addr)
	}
	return addrs
}
