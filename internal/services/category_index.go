package services

import (
	"gorm.io/gorm"

	apperrors "wallet/internal/errors"
	"wallet/internal/models"
)

// categoryIndex is an in-memory snapshot of the forest. Parents are looked up
// by id and children through a secondary index keyed by parent id, with the
// empty key holding the roots.
type categoryIndex struct {
	byID     map[string]models.Category
	children map[string][]string
}

func loadCategoryIndex(db *gorm.DB) (*categoryIndex, error) {
	categories, err := allCategories(db)
	if err != nil {
		return nil, err
	}

	idx := &categoryIndex{
		byID:     make(map[string]models.Category, len(categories)),
		children: make(map[string][]string),
	}
	// allCategories is ordered by name, so child lists come out ordered too.
	for _, c := range categories {
		idx.byID[c.ID] = c
		parent := ""
		if c.ParentID != nil {
			parent = *c.ParentID
		}
		idx.children[parent] = append(idx.children[parent], c.ID)
	}
	return idx, nil
}

func (idx *categoryIndex) has(id string) bool {
	_, ok := idx.byID[id]
	return ok
}

// ancestors returns the ids above id, nearest parent first. The walk is capped
// at the number of known categories; running past it means the stored edges
// already contain a cycle.
func (idx *categoryIndex) ancestors(id string) ([]string, error) {
	var chain []string
	cur := idx.byID[id].ParentID
	for cur != nil {
		if len(chain) >= len(idx.byID) {
			return nil, apperrors.WithMessage(apperrors.ErrCategoryCycle, "category hierarchy contains a cycle")
		}
		chain = append(chain, *cur)
		parent, ok := idx.byID[*cur]
		if !ok {
			break
		}
		cur = parent.ParentID
	}
	return chain, nil
}

// isDescendant reports whether nodeID sits strictly below ancestorID.
func (idx *categoryIndex) isDescendant(ancestorID, nodeID string) (bool, error) {
	chain, err := idx.ancestors(nodeID)
	if err != nil {
		return false, err
	}
	for _, id := range chain {
		if id == ancestorID {
			return true, nil
		}
	}
	return false, nil
}

// validateReparent checks that id may be moved under candidateParentID
// without creating a cycle. A nil candidate always passes.
func (idx *categoryIndex) validateReparent(id string, candidateParentID *string) error {
	if candidateParentID == nil {
		return nil
	}
	parentID := *candidateParentID
	if parentID == id {
		return apperrors.ErrSelfParentCategory
	}
	if !idx.has(parentID) {
		return apperrors.ErrParentCategoryNotFound
	}
	below, err := idx.isDescendant(id, parentID)
	if err != nil {
		return err
	}
	if below {
		return apperrors.ErrCategoryCycle
	}
	return nil
}

// descendants returns id and everything below it in depth-first pre-order.
func (idx *categoryIndex) descendants(id string) []models.Category {
	var out []models.Category
	visited := make(map[string]bool, len(idx.byID))
	stack := []string{id}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited[cur] {
			continue
		}
		visited[cur] = true
		out = append(out, idx.byID[cur])

		kids := idx.children[cur]
		for i := len(kids) - 1; i >= 0; i-- {
			stack = append(stack, kids[i])
		}
	}
	return out
}

// pathToRoot returns the categories from the root down to id, inclusive.
func (idx *categoryIndex) pathToRoot(id string) ([]models.Category, error) {
	chain, err := idx.ancestors(id)
	if err != nil {
		return nil, err
	}
	path := make([]models.Category, 0, len(chain)+1)
	for i := len(chain) - 1; i >= 0; i-- {
		if c, ok := idx.byID[chain[i]]; ok {
			path = append(path, c)
		}
	}
	return append(path, idx.byID[id]), nil
}
