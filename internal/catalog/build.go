// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package catalog

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"shopper/internal/models"
)

// Accessor reads raw category rows. It is implemented by
// store.CategoryStore.
type Accessor interface {
	CountAndMaxUpdatedAt(ctx context.Context) (int, time.Time, error)
	ListAll(ctx context.Context) ([]models.Category, error)
	ChildrenOf(ctx context.Context, parentID uuid.UUID) ([]models.Category, error)
}

// tree is one fully assembled snapshot of the category hierarchy.
type tree struct {
	nodes map[uuid.UUID]models.CategoryNode
	// order holds node ids in depth-first pre-order, roots in ListAll order.
	order []uuid.UUID
	// omitted lists rows that no root reaches.
	omitted []uuid.UUID
}

type builder struct {
	acc     Accessor
	visited map[uuid.UUID]struct{}
	t       *tree
}

// buildTree reads every row and assembles the subtree of each root by
// walking ChildrenOf depth first. Rows whose parent chain never reaches a
// root (dangling parent_id, or a cycle) are not part of any subtree and
// are reported in omitted instead.
func buildTree(ctx context.Context, acc Accessor) (*tree, error) {
	rows, err := acc.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}

	b := &builder{
		acc:     acc,
		visited: make(map[uuid.UUID]struct{}, len(rows)),
		t:       &tree{nodes: make(map[uuid.UUID]models.CategoryNode, len(rows))},
	}
	for _, row := range rows {
		if !row.IsRoot() {
			continue
		}
		if _, err := b.visit(ctx, row); err != nil {
			return nil, err
		}
	}

	for _, row := range rows {
		if _, ok := b.visited[row.ID]; !ok {
			b.t.omitted = append(b.t.omitted, row.ID)
		}
	}
	return b.t, nil
}

func (b *builder) visit(ctx context.Context, c models.Category) (models.CategoryNode, error) {
	b.visited[c.ID] = struct{}{}
	b.t.order = append(b.t.order, c.ID)

	node := models.NewCategoryNode(c)
	children, err := b.acc.ChildrenOf(ctx, c.ID)
	if err != nil {
		return node, fmt.Errorf("children of %s: %w", c.ID, err)
	}
	for _, child := range children {
		if _, seen := b.visited[child.ID]; seen {
			continue
		}
		sub, err := b.visit(ctx, child)
		if err != nil {
			return node, err
		}
		node.SubCategories = append(node.SubCategories, sub)
	}

	b.t.nodes[c.ID] = node
	return node, nil
}

// list returns deep copies of the nodes in pre-order.
func (t *tree) list() []models.CategoryNode {
	out := make([]models.CategoryNode, 0, len(t.order))
	for _, id := range t.order {
		out = append(out, t.nodes[id].Clone())
	}
	return out
}

// get returns a deep copy of the node with the given id, or nil.
func (t *tree) get(id uuid.UUID) *models.CategoryNode {
	n, ok := t.nodes[id]
	if !ok {
		return nil
	}
	n = n.Clone()
	return &n
}

// TreeSource assembles the category tree from the accessor on every call.
// Wrapped in a PassThrough it is the uncached category provider.
type TreeSource struct {
	acc Accessor
}

// NewTreeSource returns a TreeSource reading from acc.
func NewTreeSource(acc Accessor) *TreeSource {
	return &TreeSource{acc: acc}
}

// FindByID builds the tree and returns the node with the given id.
func (s *TreeSource) FindByID(ctx context.Context, id uuid.UUID) (*models.CategoryNode, error) {
	t, err := buildTree(ctx, s.acc)
	if err != nil {
		return nil, err
	}
	return t.get(id), nil
}

// List builds the tree and returns every reachable node in pre-order.
func (s *TreeSource) List(ctx context.Context) ([]models.CategoryNode, error) {
	t, err := buildTree(ctx, s.acc)
	if err != nil {
		return nil, err
	}
	return t.list(), nil
}
