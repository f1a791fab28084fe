// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// Entity names a resource guarded by the permission gate.
type Entity string

const (
	EntityUser     Entity = "User"
	EntityProduct  Entity = "Product"
	EntityCategory Entity = "Category"
	EntityRole     Entity = "Role"
	EntityAny      Entity = "ANY"
)

// Entities lists every valid Entity value.
var Entities = []Entity{EntityUser, EntityProduct, EntityCategory, EntityRole, EntityAny}

// Valid returns true for a known entity.
func (e Entity) Valid() bool {
	for _, v := range Entities {
		if e == v {
			return true
		}
	}
	return false
}

// Permission is an action on an entity.
type Permission string

const (
	PermRead   Permission = "Read"
	PermCreate Permission = "Create"
	PermUpdate Permission = "Update"
	PermDelete Permission = "Delete"
	PermAll    Permission = "ALL"
)

// AllPermissions lists every valid Permission value.
var AllPermissions = []Permission{PermRead, PermCreate, PermUpdate, PermDelete, PermAll}

// Valid returns true for a known permission.
func (p Permission) Valid() bool {
	for _, v := range AllPermissions {
		if p == v {
			return true
		}
	}
	return false
}

// Permissions maps entities to the actions a role may perform on them.
// Stored as JSONB on the roles table.
type Permissions map[Entity][]Permission

// Value implements driver.Valuer.
func (p Permissions) Value() (driver.Value, error) {
	if p == nil {
		return "{}", nil
	}
	b, err := json.Marshal(map[Entity][]Permission(p))
	if err != nil {
		return nil, fmt.Errorf("marshal permissions: %w", err)
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (p *Permissions) Scan(src any) error {
	var b []byte
	switch v := src.(type) {
	case nil:
		*p = Permissions{}
		return nil
	case []byte:
		b = v
	case string:
		b = []byte(v)
	default:
		return fmt.Errorf("scan permissions: unsupported type %T", src)
	}

	out := Permissions{}
	if err := json.Unmarshal(b, &out); err != nil {
		return fmt.Errorf("scan permissions: %w", err)
	}
	*p = out
	return nil
}

// Validate returns an error naming the first unknown entity or permission.
func (p Permissions) Validate() error {
	for e, perms := range p {
		if !e.Valid() {
			return fmt.Errorf("unknown entity %q", e)
		}
		for _, perm := range perms {
			if !perm.Valid() {
				return fmt.Errorf("unknown permission %q for %s", perm, e)
			}
		}
	}
	return nil
}

// Merge returns the union of p and other.
func (p Permissions) Merge(other Permissions) Permissions {
	out := Permissions{}
	for _, src := range []Permissions{p, other} {
		for e, perms := range src {
			for _, perm := range perms {
				if !containsPerm(out[e], perm) {
					out[e] = append(out[e], perm)
				}
			}
		}
	}
	return out
}

// Allows reports whether p grants every one of required on entity.
// Grants on ANY apply to every entity, and ALL grants every action.
// An entity with no grants at all is always refused.
func (p Permissions) Allows(entity Entity, required ...Permission) bool {
	granted := append(append([]Permission{}, p[entity]...), p[EntityAny]...)
	if len(granted) == 0 {
		return false
	}
	if containsPerm(granted, PermAll) {
		return true
	}
	for _, r := range required {
		if !containsPerm(granted, r) {
			return false
		}
	}
	return true
}

func containsPerm(perms []Permission, p Permission) bool {
	for _, v := range perms {
		if v == p {
			return true
		}
	}
	return false
}

// Role is a named set of permissions assigned to users.
type Role struct {
	ID          uuid.UUID   `json:"id"`
	Name        string      `json:"name"`
	Permissions Permissions `json:"permissions"`
}

// AdminRoleName is the role created by the seed and createsuperuser.
const AdminRoleName = "Admin"

// AdminPermissions grants everything on every entity.
func AdminPermissions() Permissions {
	return Permissions{EntityAny: {PermAll}}
}
