package services

import (
	"testing"

	"wallet/internal/models"
	"wallet/internal/testutil"
)

func TestAuditService_Log(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewAuditService(db)

	svc.Log("CREATE_BUDGET", "budget", "0190a7c2-1111-7000-8000-000000000001", "10.0.0.1",
		map[string]any{"budget_limit": "100"})
	svc.Log("DELETE_BUDGET", "budget", "0190a7c2-1111-7000-8000-000000000001", "10.0.0.1", nil)

	var logs []models.AuditLog
	if err := db.Order("action").Find(&logs).Error; err != nil {
		t.Fatalf("failed to read audit logs: %v", err)
	}
	if len(logs) != 2 {
		t.Fatalf("expected 2 audit logs, got %d", len(logs))
	}
	if logs[0].Action != "CREATE_BUDGET" || logs[0].Changes != `{"budget_limit":"100"}` {
		t.Errorf("unexpected first entry: %+v", logs[0])
	}
	if logs[1].Changes != "" {
		t.Errorf("expected no changes for delete, got %q", logs[1].Changes)
	}
}

func TestAuditService_LogSurvivesStoreFailure(t *testing.T) {
	db := testutil.SetupTestDB(t)
	testutil.TeardownTestDB(t, db)

	// Must not panic or return anything once the store is gone.
	NewAuditService(db).Log("CREATE_CATEGORY", "category", "x", "", map[string]any{"name": "Food"})
}
