package services

import (
	"testing"
	"time"

	"KantinPos/app/models"
)

func TestGetDailyReport(t *testing.T) {
	db := newTestDB(t)

	food := models.Category{Name: "Makanan", Type: "food", IsActive: true}
	drink := models.Category{Name: "Minuman", Type: "drink", IsActive: true}
	if err := db.Create(&food).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := db.Create(&drink).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}

	nasi := models.Product{Name: "Nasi Goreng", Price: 15000, CostPrice: 9000, CategoryID: food.ID, Stock: 10, IsActive: true}
	teh := models.Product{Name: "Es Teh", Price: 5000, CostPrice: 1500, CategoryID: drink.ID, Stock: 10, IsActive: true}
	if err := db.Create(&nasi).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := db.Create(&teh).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}

	txs := []models.Transaction{
		{
			TransactionNumber: "TRX-1", Subtotal: 35000, Total: 35000,
			PaymentMethod: "cash", PaymentAmount: 35000, Status: "completed", EmployeeID: 1,
			Items: []models.TransactionItem{
				{ProductID: nasi.ID, ProductName: "Nasi Goreng", Quantity: 2, Price: 15000, Subtotal: 30000},
				{ProductID: teh.ID, ProductName: "Es Teh", Quantity: 1, Price: 5000, Subtotal: 5000},
			},
		},
		{
			TransactionNumber: "TRX-2", Subtotal: 15000, PromotionDiscount: 1500, Total: 13500,
			PaymentMethod: "qris", PaymentAmount: 13500, Status: "completed", EmployeeID: 1,
			Items: []models.TransactionItem{
				{ProductID: nasi.ID, ProductName: "Nasi Goreng", Quantity: 1, Price: 15000, Subtotal: 15000},
			},
		},
		{
			// Refunded sale must not count.
			TransactionNumber: "TRX-3", Subtotal: 5000, Total: 5000,
			PaymentMethod: "cash", PaymentAmount: 5000, Status: "refunded", EmployeeID: 1,
			Items: []models.TransactionItem{
				{ProductID: teh.ID, ProductName: "Es Teh", Quantity: 1, Price: 5000, Subtotal: 5000},
			},
		},
	}
	for i := range txs {
		if err := db.Create(&txs[i]).Error; err != nil {
			t.Fatalf("seed transaction: %v", err)
		}
	}

	svc := &ReportsService{db: db}
	report, err := svc.GetDailyReport(time.Now(), "Budi")
	if err != nil {
		t.Fatalf("GetDailyReport() error = %v", err)
	}

	if report.TotalTransactions != 2 {
		t.Errorf("TotalTransactions = %d, want 2", report.TotalTransactions)
	}
	if report.TotalRevenue != 48500 {
		t.Errorf("TotalRevenue = %v, want 48500", report.TotalRevenue)
	}
	if report.CashAmount != 35000 || report.CashCount != 1 {
		t.Errorf("cash = %v/%d, want 35000/1", report.CashAmount, report.CashCount)
	}
	if report.QRISAmount != 13500 || report.QRISCount != 1 {
		t.Errorf("qris = %v/%d, want 13500/1", report.QRISAmount, report.QRISCount)
	}
	if report.PromotionDiscount != 1500 || report.TransactionsWithPromo != 1 {
		t.Errorf("promo = %v/%d, want 1500/1", report.PromotionDiscount, report.TransactionsWithPromo)
	}

	if len(report.TopProducts) == 0 {
		t.Fatal("TopProducts is empty")
	}
	if report.TopProducts[0].Name != "Nasi Goreng" {
		t.Errorf("top product = %q, want Nasi Goreng", report.TopProducts[0].Name)
	}
	if report.TopProducts[0].Quantity != 3 {
		t.Errorf("top product quantity = %d, want 3", report.TopProducts[0].Quantity)
	}

	// Food: 3x nasi = 45000, drink: 1x teh = 5000.
	if report.FoodRevenue != 45000 || report.FoodCount != 3 {
		t.Errorf("food = %v/%d, want 45000/3", report.FoodRevenue, report.FoodCount)
	}
	if report.DrinkRevenue != 5000 || report.DrinkCount != 1 {
		t.Errorf("drink = %v/%d, want 5000/1", report.DrinkRevenue, report.DrinkCount)
	}

	// Cost: 3x9000 + 1x1500 = 28500. Profit: 48500 - 28500 = 20000.
	if report.Profit == nil {
		t.Fatal("Profit not computed")
	}
	if *report.Profit != 20000 {
		t.Errorf("Profit = %v, want 20000", *report.Profit)
	}
}

func TestGetProductSalesReport(t *testing.T) {
	db := newTestDB(t)

	food := models.Category{Name: "Makanan", Type: "food", IsActive: true}
	if err := db.Create(&food).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}
	nasi := models.Product{Name: "Nasi Goreng", Price: 15000, CategoryID: food.ID, IsActive: true}
	if err := db.Create(&nasi).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}

	tx := models.Transaction{
		TransactionNumber: "TRX-10", Subtotal: 30000, Total: 30000,
		PaymentMethod: "cash", PaymentAmount: 30000, Status: "completed", EmployeeID: 1,
		Items: []models.TransactionItem{
			{ProductID: nasi.ID, ProductName: "Nasi Goreng", Quantity: 2, Price: 15000, Subtotal: 30000},
		},
	}
	if err := db.Create(&tx).Error; err != nil {
		t.Fatalf("seed transaction: %v", err)
	}

	svc := &ReportsService{db: db}
	start := time.Now().Add(-time.Hour)
	end := time.Now().Add(time.Hour)

	report, err := svc.GetProductSalesReport(start, end, "Budi")
	if err != nil {
		t.Fatalf("GetProductSalesReport() error = %v", err)
	}

	if len(report.Products) != 1 {
		t.Fatalf("got %d products, want 1", len(report.Products))
	}
	if report.Products[0].TotalQuantity != 2 || report.Products[0].TotalRevenue != 30000 {
		t.Errorf("product row = %+v, want 2 pcs / 30000", report.Products[0])
	}
	if report.TotalItems != 2 || report.TotalRevenue != 30000 {
		t.Errorf("totals = %d/%v, want 2/30000", report.TotalItems, report.TotalRevenue)
	}
	if report.CashCount != 1 || report.CashTotal != 30000 {
		t.Errorf("cash = %d/%v, want 1/30000", report.CashCount, report.CashTotal)
	}
	if report.TotalTransactions != 1 {
		t.Errorf("TotalTransactions = %d, want 1", report.TotalTransactions)
	}
}

func TestGetShiftSummary(t *testing.T) {
	db := newTestDB(t)

	txs := []models.Transaction{
		{TransactionNumber: "TRX-20", Total: 10000, PaymentMethod: "cash", Status: "completed", EmployeeID: 7},
		{TransactionNumber: "TRX-21", Total: 20000, PaymentMethod: "qris", Status: "completed", EmployeeID: 7},
		{TransactionNumber: "TRX-22", Total: 99000, PaymentMethod: "cash", Status: "completed", EmployeeID: 8},
	}
	for i := range txs {
		if err := db.Create(&txs[i]).Error; err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	svc := &ReportsService{db: db}
	count, total, err := svc.GetShiftSummary(7, time.Now().Add(-time.Hour))
	if err != nil {
		t.Fatalf("GetShiftSummary() error = %v", err)
	}
	if count != 2 || total != 30000 {
		t.Errorf("shift summary = %d/%v, want 2/30000", count, total)
	}
}
