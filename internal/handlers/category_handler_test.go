package handlers

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"

	apperrors "wallet/internal/errors"
	"wallet/internal/models"
	"wallet/internal/pagination"
	"wallet/internal/services"
)

// --- mock category service ---

type mockCategoryService struct {
	createCategoryFn   func(input services.CategoryInput) (*models.Category, error)
	getCategoryByIDFn  func(id string) (*models.Category, error)
	listCategoriesFn   func(page pagination.PageRequest) (*pagination.PageResponse[models.Category], error)
	rootCategoriesFn   func() ([]models.Category, error)
	subcategoriesFn    func(parentID string) ([]models.Category, error)
	searchCategoriesFn func(query string) ([]models.Category, error)
	updateCategoryFn   func(id string, input services.CategoryInput) (*models.Category, error)
	reparentFn         func(id string, newParentID *string) (*models.Category, error)
	isValidParentFn    func(id, parentID string) (bool, error)
	deleteCategoryFn   func(id string) error
	descendantsFn      func(id string) ([]models.Category, error)
	pathToRootFn       func(id string) ([]models.Category, error)
}

func (m *mockCategoryService) CreateCategory(input services.CategoryInput) (*models.Category, error) {
	if m.createCategoryFn != nil {
		return m.createCategoryFn(input)
	}
	return &models.Category{}, nil
}

func (m *mockCategoryService) GetCategoryByID(id string) (*models.Category, error) {
	if m.getCategoryByIDFn != nil {
		return m.getCategoryByIDFn(id)
	}
	return &models.Category{Base: models.Base{ID: id}}, nil
}

func (m *mockCategoryService) ListCategories(page pagination.PageRequest) (*pagination.PageResponse[models.Category], error) {
	if m.listCategoriesFn != nil {
		return m.listCategoriesFn(page)
	}
	resp := pagination.NewPageResponse([]models.Category{}, 1, 20, 0)
	return &resp, nil
}

func (m *mockCategoryService) RootCategories() ([]models.Category, error) {
	if m.rootCategoriesFn != nil {
		return m.rootCategoriesFn()
	}
	return nil, nil
}

func (m *mockCategoryService) Subcategories(parentID string) ([]models.Category, error) {
	if m.subcategoriesFn != nil {
		return m.subcategoriesFn(parentID)
	}
	return nil, nil
}

func (m *mockCategoryService) SearchCategories(query string) ([]models.Category, error) {
	if m.searchCategoriesFn != nil {
		return m.searchCategoriesFn(query)
	}
	return nil, nil
}

func (m *mockCategoryService) UpdateCategory(id string, input services.CategoryInput) (*models.Category, error) {
	if m.updateCategoryFn != nil {
		return m.updateCategoryFn(id, input)
	}
	return &models.Category{Base: models.Base{ID: id}}, nil
}

func (m *mockCategoryService) Reparent(id string, newParentID *string) (*models.Category, error) {
	if m.reparentFn != nil {
		return m.reparentFn(id, newParentID)
	}
	return &models.Category{Base: models.Base{ID: id}, ParentID: newParentID}, nil
}

func (m *mockCategoryService) ValidateReparent(_ string, _ *string) error {
	return nil
}

func (m *mockCategoryService) IsValidParent(id, parentID string) (bool, error) {
	if m.isValidParentFn != nil {
		return m.isValidParentFn(id, parentID)
	}
	return true, nil
}

func (m *mockCategoryService) DeleteCategory(id string) error {
	if m.deleteCategoryFn != nil {
		return m.deleteCategoryFn(id)
	}
	return nil
}

func (m *mockCategoryService) Descendants(id string) ([]models.Category, error) {
	if m.descendantsFn != nil {
		return m.descendantsFn(id)
	}
	return nil, nil
}

func (m *mockCategoryService) PathToRoot(id string) ([]models.Category, error) {
	if m.pathToRootFn != nil {
		return m.pathToRootFn(id)
	}
	return nil, nil
}

func (m *mockCategoryService) IsDescendant(_, _ string) (bool, error) {
	return false, nil
}

var _ services.CategoryServicer = (*mockCategoryService)(nil)

func setupCategoryRouter(handler *CategoryHandler) *gin.Engine {
	r := gin.New()
	(&Handlers{Categories: handler}).RegisterRoutes(r)
	return r
}

func TestCategoryHandler_CreateCategory(t *testing.T) {
	t.Run("returns 201 on success", func(t *testing.T) {
		audit := &mockAuditService{}
		svc := &mockCategoryService{
			createCategoryFn: func(input services.CategoryInput) (*models.Category, error) {
				return &models.Category{
					Base:     models.Base{ID: testID},
					Name:     input.Name,
					Color:    input.Color,
					ParentID: input.ParentID,
				}, nil
			},
		}
		r := setupCategoryRouter(NewCategoryHandler(svc, audit))

		rec := doRequest(r, "POST", "/categories",
			`{"name":"Groceries","color":"#00FF00","parent_id":"`+testParentID+`"}`)

		assertStatus(t, rec, http.StatusCreated)
		category := parseJSON(t, rec)["category"].(map[string]interface{})
		if category["name"] != "Groceries" {
			t.Errorf("expected Groceries, got %v", category["name"])
		}
		if category["parent_id"] != testParentID {
			t.Errorf("expected parent %s, got %v", testParentID, category["parent_id"])
		}
		if got := audit.actions(); len(got) != 1 || got[0] != "CREATE_CATEGORY" {
			t.Errorf("expected one CREATE_CATEGORY audit entry, got %v", got)
		}
	})

	t.Run("returns 400 on missing name", func(t *testing.T) {
		r := setupCategoryRouter(NewCategoryHandler(&mockCategoryService{}, &mockAuditService{}))

		rec := doRequest(r, "POST", "/categories", `{"color":"#00FF00"}`)

		assertStatus(t, rec, http.StatusBadRequest)
		assertErrorCode(t, parseJSON(t, rec), "INVALID_INPUT")
	})

	t.Run("returns 400 on bad color", func(t *testing.T) {
		r := setupCategoryRouter(NewCategoryHandler(&mockCategoryService{}, &mockAuditService{}))

		rec := doRequest(r, "POST", "/categories", `{"name":"Food","color":"green"}`)

		assertStatus(t, rec, http.StatusBadRequest)
	})

	t.Run("returns 400 on malformed parent id", func(t *testing.T) {
		r := setupCategoryRouter(NewCategoryHandler(&mockCategoryService{}, &mockAuditService{}))

		rec := doRequest(r, "POST", "/categories", `{"name":"Food","parent_id":"42"}`)

		assertStatus(t, rec, http.StatusBadRequest)
	})

	t.Run("returns 409 on duplicate sibling", func(t *testing.T) {
		svc := &mockCategoryService{
			createCategoryFn: func(services.CategoryInput) (*models.Category, error) {
				return nil, apperrors.ErrDuplicateCategoryName
			},
		}
		r := setupCategoryRouter(NewCategoryHandler(svc, &mockAuditService{}))

		rec := doRequest(r, "POST", "/categories", `{"name":"food"}`)

		assertStatus(t, rec, http.StatusConflict)
		assertErrorCode(t, parseJSON(t, rec), "DUPLICATE_CATEGORY_NAME")
	})
}

func TestCategoryHandler_Lists(t *testing.T) {
	food := models.Category{Base: models.Base{ID: testID}, Name: "Food"}

	t.Run("paginated list", func(t *testing.T) {
		svc := &mockCategoryService{
			listCategoriesFn: func(page pagination.PageRequest) (*pagination.PageResponse[models.Category], error) {
				if page.Page != 2 || page.PageSize != 5 {
					t.Errorf("expected page 2 size 5, got %+v", page)
				}
				resp := pagination.NewPageResponse([]models.Category{food}, 2, 5, 6)
				return &resp, nil
			},
		}
		r := setupCategoryRouter(NewCategoryHandler(svc, &mockAuditService{}))

		rec := doRequest(r, "GET", "/categories?page=2&page_size=5", "")

		assertStatus(t, rec, http.StatusOK)
		result := parseJSON(t, rec)
		if result["total_items"].(float64) != 6 {
			t.Errorf("expected total 6, got %v", result["total_items"])
		}
	})

	t.Run("page_size above limit", func(t *testing.T) {
		r := setupCategoryRouter(NewCategoryHandler(&mockCategoryService{}, &mockAuditService{}))

		rec := doRequest(r, "GET", "/categories?page_size=500", "")

		assertStatus(t, rec, http.StatusBadRequest)
	})

	t.Run("roots render an empty array", func(t *testing.T) {
		r := setupCategoryRouter(NewCategoryHandler(&mockCategoryService{}, &mockAuditService{}))

		rec := doRequest(r, "GET", "/categories/root", "")

		assertStatus(t, rec, http.StatusOK)
		if rec.Body.String() != `{"categories":[]}` {
			t.Errorf("expected an empty array, got %s", rec.Body.String())
		}
	})

	t.Run("search passes the query", func(t *testing.T) {
		var got string
		svc := &mockCategoryService{
			searchCategoriesFn: func(query string) ([]models.Category, error) {
				got = query
				return []models.Category{food}, nil
			},
		}
		r := setupCategoryRouter(NewCategoryHandler(svc, &mockAuditService{}))

		rec := doRequest(r, "GET", "/categories/search?query=fo", "")

		assertStatus(t, rec, http.StatusOK)
		if got != "fo" {
			t.Errorf("expected query fo, got %q", got)
		}
	})

	t.Run("hierarchy and path", func(t *testing.T) {
		svc := &mockCategoryService{
			descendantsFn: func(string) ([]models.Category, error) { return []models.Category{food, food}, nil },
			pathToRootFn:  func(string) ([]models.Category, error) { return []models.Category{food}, nil },
		}
		r := setupCategoryRouter(NewCategoryHandler(svc, &mockAuditService{}))

		rec := doRequest(r, "GET", "/categories/"+testID+"/hierarchy", "")
		assertStatus(t, rec, http.StatusOK)
		if n := len(parseJSON(t, rec)["categories"].([]interface{})); n != 2 {
			t.Errorf("expected 2 categories, got %d", n)
		}

		rec = doRequest(r, "GET", "/categories/"+testID+"/path", "")
		assertStatus(t, rec, http.StatusOK)
	})

	t.Run("children of unknown category", func(t *testing.T) {
		svc := &mockCategoryService{
			subcategoriesFn: func(string) ([]models.Category, error) { return nil, apperrors.ErrCategoryNotFound },
		}
		r := setupCategoryRouter(NewCategoryHandler(svc, &mockAuditService{}))

		rec := doRequest(r, "GET", "/categories/"+testID+"/children", "")

		assertStatus(t, rec, http.StatusNotFound)
		assertErrorCode(t, parseJSON(t, rec), "CATEGORY_NOT_FOUND")
	})
}

func TestCategoryHandler_GetCategoryByID(t *testing.T) {
	t.Run("returns 400 on invalid ID", func(t *testing.T) {
		r := setupCategoryRouter(NewCategoryHandler(&mockCategoryService{}, &mockAuditService{}))

		rec := doRequest(r, "GET", "/categories/abc", "")

		assertStatus(t, rec, http.StatusBadRequest)
		assertErrorCode(t, parseJSON(t, rec), "INVALID_INPUT")
	})

	t.Run("returns 404 when missing", func(t *testing.T) {
		svc := &mockCategoryService{
			getCategoryByIDFn: func(string) (*models.Category, error) { return nil, apperrors.ErrCategoryNotFound },
		}
		r := setupCategoryRouter(NewCategoryHandler(svc, &mockAuditService{}))

		rec := doRequest(r, "GET", "/categories/"+testID, "")

		assertStatus(t, rec, http.StatusNotFound)
	})
}

func TestCategoryHandler_Reparent(t *testing.T) {
	t.Run("moves under parent", func(t *testing.T) {
		var gotParent *string
		svc := &mockCategoryService{
			reparentFn: func(id string, parentID *string) (*models.Category, error) {
				gotParent = parentID
				return &models.Category{Base: models.Base{ID: id}, ParentID: parentID}, nil
			},
		}
		r := setupCategoryRouter(NewCategoryHandler(svc, &mockAuditService{}))

		rec := doRequest(r, "PUT", "/categories/"+testID+"/parent", `{"parent_id":"`+testParentID+`"}`)

		assertStatus(t, rec, http.StatusOK)
		if gotParent == nil || *gotParent != testParentID {
			t.Errorf("expected parent %s, got %v", testParentID, gotParent)
		}
	})

	t.Run("null parent moves to root", func(t *testing.T) {
		called := false
		svc := &mockCategoryService{
			reparentFn: func(id string, parentID *string) (*models.Category, error) {
				called = true
				if parentID != nil {
					t.Errorf("expected nil parent, got %s", *parentID)
				}
				return &models.Category{Base: models.Base{ID: id}}, nil
			},
		}
		r := setupCategoryRouter(NewCategoryHandler(svc, &mockAuditService{}))

		rec := doRequest(r, "PUT", "/categories/"+testID+"/parent", `{"parent_id":null}`)

		assertStatus(t, rec, http.StatusOK)
		if !called {
			t.Error("expected the service to be called")
		}
	})

	t.Run("returns 409 on cycle", func(t *testing.T) {
		svc := &mockCategoryService{
			reparentFn: func(string, *string) (*models.Category, error) { return nil, apperrors.ErrCategoryCycle },
		}
		r := setupCategoryRouter(NewCategoryHandler(svc, &mockAuditService{}))

		rec := doRequest(r, "PUT", "/categories/"+testID+"/parent", `{"parent_id":"`+testParentID+`"}`)

		assertStatus(t, rec, http.StatusConflict)
		assertErrorCode(t, parseJSON(t, rec), "CATEGORY_CYCLE")
	})

	t.Run("validate parent", func(t *testing.T) {
		svc := &mockCategoryService{
			isValidParentFn: func(id, parentID string) (bool, error) { return false, nil },
		}
		r := setupCategoryRouter(NewCategoryHandler(svc, &mockAuditService{}))

		rec := doRequest(r, "GET", "/categories/"+testID+"/validate-parent/"+testParentID, "")

		assertStatus(t, rec, http.StatusOK)
		if parseJSON(t, rec)["valid"] != false {
			t.Errorf("expected valid=false, got %s", rec.Body.String())
		}
	})
}

func TestCategoryHandler_UpdateCategory(t *testing.T) {
	var got services.CategoryInput
	svc := &mockCategoryService{
		updateCategoryFn: func(id string, input services.CategoryInput) (*models.Category, error) {
			got = input
			return &models.Category{Base: models.Base{ID: id}, Name: input.Name}, nil
		},
	}
	r := setupCategoryRouter(NewCategoryHandler(svc, &mockAuditService{}))

	rec := doRequest(r, "PUT", "/categories/"+testID, `{"name":"Dining","icon":"fork"}`)

	assertStatus(t, rec, http.StatusOK)
	if got.Name != "Dining" || got.Icon != "fork" || got.ParentID != nil {
		t.Errorf("unexpected input passed to service: %+v", got)
	}
}

func TestCategoryHandler_DeleteCategory(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"success", nil, http.StatusOK, ""},
		{"has children", apperrors.ErrCategoryHasChildren, http.StatusConflict, "CATEGORY_HAS_CHILDREN"},
		{"in use", apperrors.ErrCategoryInUse, http.StatusConflict, "CATEGORY_IN_USE"},
		{"has budgets", apperrors.ErrCategoryHasBudgets, http.StatusConflict, "CATEGORY_HAS_BUDGETS"},
		{"not found", apperrors.ErrCategoryNotFound, http.StatusNotFound, "CATEGORY_NOT_FOUND"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			audit := &mockAuditService{}
			svc := &mockCategoryService{deleteCategoryFn: func(string) error { return tc.err }}
			r := setupCategoryRouter(NewCategoryHandler(svc, audit))

			rec := doRequest(r, "DELETE", "/categories/"+testID, "")

			assertStatus(t, rec, tc.status)
			if tc.code != "" {
				assertErrorCode(t, parseJSON(t, rec), tc.code)
				if len(audit.actions()) != 0 {
					t.Error("failed deletes must not be audited")
				}
			}
		})
	}
}
