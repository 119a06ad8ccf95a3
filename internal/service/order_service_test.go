package service

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/revendahub/revendahub/internal/constants"
	"github.com/revendahub/revendahub/internal/models"
	"github.com/revendahub/revendahub/internal/repository"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func setupOrderServiceTest(t *testing.T) (*OrderService, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:order_service_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.Order{}, &models.WebhookEndpoint{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	svc := NewOrderService(repository.NewOrderRepository(db), nil)
	return svc, db
}

func seedOrder(t *testing.T, db *gorm.DB, order models.Order) models.Order {
	t.Helper()
	if order.Total.Decimal.IsZero() {
		order.Total = models.NewMoneyFromDecimal(decimal.NewFromInt(100))
	}
	if err := db.Create(&order).Error; err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	return order
}

func TestUpdateStatusAllowedTransition(t *testing.T) {
	svc, db := setupOrderServiceTest(t)
	order := seedOrder(t, db, models.Order{OrderNo: "RVD-1", Status: constants.OrderStatusPending})

	updated, err := svc.UpdateStatus(order.ID, constants.OrderStatusPaid)
	if err != nil {
		t.Fatalf("UpdateStatus failed: %v", err)
	}
	if updated.Status != constants.OrderStatusPaid {
		t.Fatalf("status = %q", updated.Status)
	}

	var reloaded models.Order
	if err := db.First(&reloaded, order.ID).Error; err != nil {
		t.Fatalf("reload order failed: %v", err)
	}
	if reloaded.Status != constants.OrderStatusPaid {
		t.Fatalf("persisted status = %q", reloaded.Status)
	}
	if reloaded.PaidAt == nil {
		t.Fatalf("paid_at should be stamped")
	}
}

func TestUpdateStatusRejectsInvalidTransition(t *testing.T) {
	svc, db := setupOrderServiceTest(t)
	order := seedOrder(t, db, models.Order{OrderNo: "RVD-2", Status: constants.OrderStatusPending})

	_, err := svc.UpdateStatus(order.ID, constants.OrderStatusDelivered)
	if !errors.Is(err, ErrOrderStatusInvalid) {
		t.Fatalf("expected ErrOrderStatusInvalid, got %v", err)
	}
}

func TestUpdateStatusRefundOnlyFromPaid(t *testing.T) {
	svc, db := setupOrderServiceTest(t)
	pending := seedOrder(t, db, models.Order{OrderNo: "RVD-3", Status: constants.OrderStatusPending})
	paid := seedOrder(t, db, models.Order{OrderNo: "RVD-4", Status: constants.OrderStatusPaid})

	if _, err := svc.UpdateStatus(pending.ID, constants.OrderStatusRefunded); !errors.Is(err, ErrOrderStatusInvalid) {
		t.Fatalf("refund from pending must fail, got %v", err)
	}
	if _, err := svc.UpdateStatus(paid.ID, constants.OrderStatusRefunded); err != nil {
		t.Fatalf("refund from paid failed: %v", err)
	}
}

func TestCleanupDuplicatesKeepsConfirmedTransaction(t *testing.T) {
	svc, db := setupOrderServiceTest(t)

	seedOrder(t, db, models.Order{OrderNo: "RVD-DUP", Status: constants.OrderStatusPending})
	confirmed := seedOrder(t, db, models.Order{OrderNo: "RVD-DUP", Status: constants.OrderStatusPaid, TransactionID: "tid-1"})
	seedOrder(t, db, models.Order{OrderNo: "RVD-DUP", Status: constants.OrderStatusPending})

	result, err := svc.CleanupDuplicates("RVD-DUP")
	if err != nil {
		t.Fatalf("CleanupDuplicates failed: %v", err)
	}
	if result.KeptID != confirmed.ID {
		t.Fatalf("kept id = %d, want the confirmed order %d", result.KeptID, confirmed.ID)
	}
	if result.Deleted != 2 {
		t.Fatalf("deleted = %d, want 2", result.Deleted)
	}

	var remaining []models.Order
	if err := db.Where("order_no = ?", "RVD-DUP").Find(&remaining).Error; err != nil {
		t.Fatalf("list remaining failed: %v", err)
	}
	if len(remaining) != 1 || remaining[0].ID != confirmed.ID {
		t.Fatalf("expected only the confirmed order to remain, got %d rows", len(remaining))
	}
}

func TestCleanupDuplicatesKeepsOldestWithoutTransaction(t *testing.T) {
	svc, db := setupOrderServiceTest(t)

	oldest := seedOrder(t, db, models.Order{OrderNo: "RVD-DUP2", Status: constants.OrderStatusPending})
	seedOrder(t, db, models.Order{OrderNo: "RVD-DUP2", Status: constants.OrderStatusPending})

	result, err := svc.CleanupDuplicates("RVD-DUP2")
	if err != nil {
		t.Fatalf("CleanupDuplicates failed: %v", err)
	}
	if result.KeptID != oldest.ID || result.Deleted != 1 {
		t.Fatalf("kept=%d deleted=%d, want oldest kept and 1 deleted", result.KeptID, result.Deleted)
	}
}

func TestCleanupDuplicatesNeverDropsTransactionRows(t *testing.T) {
	svc, db := setupOrderServiceTest(t)

	seedOrder(t, db, models.Order{OrderNo: "RVD-DUP3", Status: constants.OrderStatusPaid, TransactionID: "tid-a"})
	seedOrder(t, db, models.Order{OrderNo: "RVD-DUP3", Status: constants.OrderStatusPaid, TransactionID: "tid-b"})

	result, err := svc.CleanupDuplicates("RVD-DUP3")
	if err != nil {
		t.Fatalf("CleanupDuplicates failed: %v", err)
	}
	if result.Deleted != 0 {
		t.Fatalf("rows with transaction ids must survive, deleted=%d", result.Deleted)
	}

	var remaining []models.Order
	if err := db.Where("order_no = ?", "RVD-DUP3").Find(&remaining).Error; err != nil {
		t.Fatalf("list remaining failed: %v", err)
	}
	if len(remaining) != 2 {
		t.Fatalf("expected both rows to remain, got %d", len(remaining))
	}
}
