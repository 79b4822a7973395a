package services

import (
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	apperrors "wallet/internal/errors"
	"wallet/internal/logger"
	"wallet/internal/models"
)

// aggregationService recomputes budget spent amounts from the journal.
type aggregationService struct {
	locks   *keyedMutex
	metrics MetricsRecorder
	log     *zap.SugaredLogger
}

// NewAggregationService creates a new Aggregator. A nil metrics recorder
// disables metrics.
func NewAggregationService(metrics MetricsRecorder) Aggregator {
	if metrics == nil {
		metrics = noopMetrics{}
	}
	return &aggregationService{
		locks:   newKeyedMutex(),
		metrics: metrics,
		log:     logger.Named("aggregation"),
	}
}

// LockCategories implements Aggregator.
func (s *aggregationService) LockCategories(categoryIDs ...string) func() {
	return s.locks.Lock(categoryIDs...)
}

// Recompute implements Aggregator. Only expenses whose category equals the
// budget's category exactly are counted; subcategories are not rolled up.
func (s *aggregationService) Recompute(tx *gorm.DB, budget *models.Budget, trigger string) (err error) {
	start := time.Now()
	defer func() { s.metrics.RecordRecompute(trigger, time.Since(start), err) }()

	expense := models.TransactionTypeExpense
	transactions, err := transactionsInRange(tx, budget.CategoryID, budget.StartDate, budget.EndDate, &expense)
	if err != nil {
		return err
	}

	spent := decimal.Zero
	for _, t := range transactions {
		spent = spent.Add(t.Amount)
	}

	if err := tx.Model(&models.Budget{}).Where("id = ?", budget.ID).Update("spent_amount", spent).Error; err != nil {
		s.log.Errorw("failed to persist spent amount", "budget_id", budget.ID, "error", err)
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	budget.SpentAmount = spent

	s.log.Debugw("budget recomputed",
		"budget_id", budget.ID,
		"category_id", budget.CategoryID,
		"trigger", trigger,
		"transactions", len(transactions),
		"spent", spent.String(),
	)
	return nil
}

// RecomputeAffected implements Aggregator.
func (s *aggregationService) RecomputeAffected(tx *gorm.DB, trigger string, impacts ...Impact) ([]models.Budget, error) {
	seen := make(map[string]struct{})
	var touched []models.Budget

	for _, impact := range impacts {
		if impact.CategoryID == "" {
			continue
		}
		budgets, err := budgetsContaining(tx, impact.CategoryID, impact.Date)
		if err != nil {
			return nil, err
		}
		for i := range budgets {
			if _, done := seen[budgets[i].ID]; done {
				continue
			}
			seen[budgets[i].ID] = struct{}{}
			if err := s.Recompute(tx, &budgets[i], trigger); err != nil {
				return nil, err
			}
			touched = append(touched, budgets[i])
		}
	}
	return touched, nil
}
