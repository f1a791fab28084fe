// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"maps"
	"time"

	"github.com/google/uuid"
)

// Category is a row of the self-referencing categories table.
// A nil ParentID marks a root category.
type Category struct {
	ID        uuid.UUID  `json:"id"`
	Name      string     `json:"name"`
	ParentID  *uuid.UUID `json:"parent_id"`
	Metadata  Metadata   `json:"metadata"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// IsRoot returns true if the category has no parent.
func (c *Category) IsRoot() bool {
	return c.ParentID == nil
}

// CategoryNode is the cached view of a category: the row's public fields
// plus its direct children, each carrying their own children.
type CategoryNode struct {
	ID            uuid.UUID      `json:"id"`
	Name          string         `json:"name"`
	ParentID      *uuid.UUID     `json:"parent_id"`
	Metadata      Metadata       `json:"metadata"`
	SubCategories []CategoryNode `json:"sub_categories"`
}

// NewCategoryNode returns a childless node for the given row.
func NewCategoryNode(c Category) CategoryNode {
	return CategoryNode{
		ID:            c.ID,
		Name:          c.Name,
		ParentID:      c.ParentID,
		Metadata:      c.Metadata,
		SubCategories: []CategoryNode{},
	}
}

// IsRoot returns true if the node has no parent.
func (n *CategoryNode) IsRoot() bool {
	return n.ParentID == nil
}

// Contains reports whether id is n itself or any node in its subtree.
func (n *CategoryNode) Contains(id uuid.UUID) bool {
	if n.ID == id {
		return true
	}
	for i := range n.SubCategories {
		if n.SubCategories[i].Contains(id) {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of n and its subtree.
func (n CategoryNode) Clone() CategoryNode {
	out := n
	if n.ParentID != nil {
		parent := *n.ParentID
		out.ParentID = &parent
	}
	out.Metadata = maps.Clone(n.Metadata)
	if n.SubCategories != nil {
		out.SubCategories = make([]CategoryNode, len(n.SubCategories))
		for i := range n.SubCategories {
			out.SubCategories[i] = n.SubCategories[i].Clone()
		}
	}
	return out
}
