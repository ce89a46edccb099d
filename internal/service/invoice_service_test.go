package service

import (
	"errors"
	"sync"
	"testing"

	"github.com/petcare-next/internal/constants"
	"github.com/petcare-next/internal/models"

	"github.com/shopspring/decimal"
)

func composeTwoExams(t *testing.T, f *engineFixture) (*models.Invoice, *models.BranchPromotion, []*models.ServiceInstance) {
	t.Helper()
	customer := f.createCustomer(t, constants.MembershipTierBasic)
	promotion := f.createPromotion(t, testBranchID, 10, constants.AudienceAll, constants.ServiceTypeMedicalExam)
	discounted := f.createInstance(t, customer.ID, testBranchID, constants.ServiceTypeMedicalExam, 200000, insideWindow)
	fullPrice := f.createInstance(t, customer.ID, testBranchID, constants.ServiceTypeMedicalExam, 220000, beforeWindow)

	invoice, err := f.invoices.Compose(ComposeInvoiceInput{
		CustomerID:         customer.ID,
		BranchID:           testBranchID,
		ServiceInstanceIDs: []uint{discounted.ID, fullPrice.ID},
		PaymentMethod:      constants.PaymentMethodCash,
	})
	if err != nil {
		t.Fatalf("compose invoice failed: %v", err)
	}
	return invoice, promotion, []*models.ServiceInstance{discounted, fullPrice}
}

func TestComposeGrossTaxBase(t *testing.T) {
	f := setupEngineTest(t, constants.TaxBaseGross)
	invoice, promotion, instances := composeTwoExams(t, f)

	assertMoney(t, "subtotal", invoice.Subtotal, 420000)
	assertMoney(t, "discount", invoice.DiscountAmount, 20000)
	assertMoney(t, "tax", invoice.Tax, 42000)
	assertMoney(t, "total", invoice.TotalAmount, 442000)
	if invoice.Status != constants.InvoiceStatusPending {
		t.Fatalf("status want pending got %s", invoice.Status)
	}
	if invoice.TaxBase != constants.TaxBaseGross {
		t.Fatalf("tax base want gross got %s", invoice.TaxBase)
	}
	if len(invoice.AppliedPromotionIDs) != 1 || invoice.AppliedPromotionIDs[0] != promotion.ID {
		t.Fatalf("applied promotions want [%d] got %v", promotion.ID, invoice.AppliedPromotionIDs)
	}
	if len(invoice.ServiceInstances) != len(instances) {
		t.Fatalf("service instances want %d got %d", len(instances), len(invoice.ServiceInstances))
	}
	for _, instance := range invoice.ServiceInstances {
		if instance.InvoiceID == nil || *instance.InvoiceID != invoice.ID {
			t.Fatalf("instance %d not linked to invoice %d", instance.ID, invoice.ID)
		}
	}
	// 442000 / 100000
	if invoice.LoyaltyPointsEarned != 4 {
		t.Fatalf("projected points want 4 got %d", invoice.LoyaltyPointsEarned)
	}
	if len(invoice.InvoiceNo) != len("PC")+14+6 {
		t.Fatalf("unexpected invoice no: %s", invoice.InvoiceNo)
	}
}

func TestComposeNetTaxBase(t *testing.T) {
	f := setupEngineTest(t, constants.TaxBaseNet)
	invoice, _, _ := composeTwoExams(t, f)

	assertMoney(t, "subtotal", invoice.Subtotal, 420000)
	assertMoney(t, "discount", invoice.DiscountAmount, 20000)
	assertMoney(t, "tax", invoice.Tax, 40000)
	assertMoney(t, "total", invoice.TotalAmount, 440000)
}

func TestComposeTotalIdentity(t *testing.T) {
	f := setupEngineTest(t, constants.TaxBaseGross)
	customer := f.createCustomer(t, constants.MembershipTierVIP)
	f.createPromotion(t, testBranchID, 15, constants.AudienceVIPPlus, constants.ServiceTypeSingleVaccine)
	first := f.createInstance(t, customer.ID, testBranchID, constants.ServiceTypeSingleVaccine, 33333, insideWindow)
	second := f.createInstance(t, customer.ID, testBranchID, constants.ServiceTypeSingleVaccine, 77777, insideWindow)

	invoice, err := f.invoices.Compose(ComposeInvoiceInput{
		CustomerID:         customer.ID,
		BranchID:           testBranchID,
		ServiceInstanceIDs: []uint{first.ID, second.ID},
		PaymentMethod:      "E-Wallet",
	})
	if err != nil {
		t.Fatalf("compose invoice failed: %v", err)
	}
	expected := invoice.Subtotal.Decimal.Sub(invoice.DiscountAmount.Decimal).Add(invoice.Tax.Decimal)
	if !invoice.TotalAmount.Decimal.Equal(expected) {
		t.Fatalf("total want %s got %s", expected.StringFixed(2), invoice.TotalAmount.String())
	}
	if invoice.PaymentMethod != constants.PaymentMethodEWallet {
		t.Fatalf("payment method want e_wallet got %s", invoice.PaymentMethod)
	}
}

func TestComposeRejectsAlreadyInvoicedService(t *testing.T) {
	f := setupEngineTest(t, constants.TaxBaseGross)
	customer := f.createCustomer(t, constants.MembershipTierBasic)
	billed := f.createInstance(t, customer.ID, testBranchID, constants.ServiceTypeMedicalExam, 200000, insideWindow)
	fresh := f.createInstance(t, customer.ID, testBranchID, constants.ServiceTypeMedicalExam, 200000, insideWindow)

	if _, err := f.invoices.Compose(ComposeInvoiceInput{
		CustomerID:         customer.ID,
		BranchID:           testBranchID,
		ServiceInstanceIDs: []uint{billed.ID},
		PaymentMethod:      constants.PaymentMethodCard,
	}); err != nil {
		t.Fatalf("first compose failed: %v", err)
	}
	_, err := f.invoices.Compose(ComposeInvoiceInput{
		CustomerID:         customer.ID,
		BranchID:           testBranchID,
		ServiceInstanceIDs: []uint{fresh.ID, billed.ID},
		PaymentMethod:      constants.PaymentMethodCard,
	})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("second compose want conflict got %v", err)
	}
	reloaded, err := f.instanceRepo.GetByID(fresh.ID)
	if err != nil {
		t.Fatalf("reload instance failed: %v", err)
	}
	if reloaded.IsInvoiced() {
		t.Fatalf("fresh instance should stay unbilled after rejected compose")
	}
	var count int64
	if err := f.db.Model(&models.Invoice{}).Count(&count).Error; err != nil {
		t.Fatalf("count invoices failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("invoice count want 1 got %d", count)
	}
}

func TestComposeValidation(t *testing.T) {
	f := setupEngineTest(t, constants.TaxBaseGross)
	customer := f.createCustomer(t, constants.MembershipTierBasic)
	other := f.createCustomer(t, constants.MembershipTierBasic)
	own := f.createInstance(t, customer.ID, testBranchID, constants.ServiceTypeMedicalExam, 200000, insideWindow)
	foreign := f.createInstance(t, other.ID, testBranchID, constants.ServiceTypeMedicalExam, 200000, insideWindow)
	elsewhere := f.createInstance(t, customer.ID, otherBranchID, constants.ServiceTypeMedicalExam, 200000, insideWindow)

	cases := []struct {
		name  string
		input ComposeInvoiceInput
		want  error
	}{
		{
			name:  "empty",
			input: ComposeInvoiceInput{CustomerID: customer.ID, BranchID: testBranchID, PaymentMethod: "cash"},
			want:  ErrInvoiceEmpty,
		},
		{
			name:  "other customer",
			input: ComposeInvoiceInput{CustomerID: customer.ID, BranchID: testBranchID, ServiceInstanceIDs: []uint{own.ID, foreign.ID}, PaymentMethod: "cash"},
			want:  ErrInvoiceOwnerMismatch,
		},
		{
			name:  "other branch",
			input: ComposeInvoiceInput{CustomerID: customer.ID, BranchID: testBranchID, ServiceInstanceIDs: []uint{own.ID, elsewhere.ID}, PaymentMethod: "cash"},
			want:  ErrInvoiceOwnerMismatch,
		},
		{
			name:  "duplicate",
			input: ComposeInvoiceInput{CustomerID: customer.ID, BranchID: testBranchID, ServiceInstanceIDs: []uint{own.ID, own.ID}, PaymentMethod: "cash"},
			want:  ErrInvoiceDuplicateItem,
		},
		{
			name:  "payment method",
			input: ComposeInvoiceInput{CustomerID: customer.ID, BranchID: testBranchID, ServiceInstanceIDs: []uint{own.ID}, PaymentMethod: "cheque"},
			want:  ErrPaymentMethodInvalid,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.invoices.Compose(tc.input)
			if !errors.Is(err, tc.want) {
				t.Fatalf("want %v got %v", tc.want, err)
			}
			if !errors.Is(err, ErrValidation) {
				t.Fatalf("want validation category got %v", err)
			}
		})
	}

	_, err := f.invoices.Compose(ComposeInvoiceInput{
		CustomerID:         customer.ID,
		BranchID:           testBranchID,
		ServiceInstanceIDs: []uint{own.ID, 9999},
		PaymentMethod:      "cash",
	})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing instance want not found got %v", err)
	}
}

func TestComposeConcurrentSingleWinner(t *testing.T) {
	f := setupEngineTest(t, constants.TaxBaseGross)
	customer := f.createCustomer(t, constants.MembershipTierBasic)
	instance := f.createInstance(t, customer.ID, testBranchID, constants.ServiceTypeMedicalExam, 200000, insideWindow)

	const workers = 6
	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			_, errs[idx] = f.invoices.Compose(ComposeInvoiceInput{
				CustomerID:         customer.ID,
				BranchID:           testBranchID,
				ServiceInstanceIDs: []uint{instance.ID},
				PaymentMethod:      constants.PaymentMethodCash,
			})
		}(i)
	}
	wg.Wait()

	success := 0
	for _, err := range errs {
		switch {
		case err == nil:
			success++
		case errors.Is(err, ErrConflict):
		default:
			t.Fatalf("unexpected compose error: %v", err)
		}
	}
	if success != 1 {
		t.Fatalf("successful compose want 1 got %d", success)
	}
	var count int64
	if err := f.db.Model(&models.Invoice{}).Count(&count).Error; err != nil {
		t.Fatalf("count invoices failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("invoice count want 1 got %d", count)
	}
}

func TestComposeWithProductLines(t *testing.T) {
	f := setupEngineTest(t, constants.TaxBaseGross)
	customer := f.createCustomer(t, constants.MembershipTierLoyal)
	promotion := f.createPromotion(t, testBranchID, 10, constants.AudienceLoyalPlus, constants.ServiceTypePurchase)
	food := f.createProduct(t, "FOOD-1", 50000, 10)

	invoice, err := f.invoices.Compose(ComposeInvoiceInput{
		CustomerID: customer.ID,
		BranchID:   testBranchID,
		ProductLines: []ProductLineInput{
			{ProductID: food.ID, Quantity: 1},
			{ProductID: food.ID, Quantity: 1},
		},
		PaymentMethod: constants.PaymentMethodTransfer,
	})
	if err != nil {
		t.Fatalf("compose with products failed: %v", err)
	}
	if len(invoice.ProductLines) != 1 {
		t.Fatalf("product lines want 1 got %d", len(invoice.ProductLines))
	}
	line := invoice.ProductLines[0]
	if line.Quantity != 2 {
		t.Fatalf("merged quantity want 2 got %d", line.Quantity)
	}
	assertMoney(t, "line subtotal", line.Subtotal, 100000)
	assertMoney(t, "line discount", line.DiscountAmount, 10000)
	if line.PromotionID == nil || *line.PromotionID != promotion.ID {
		t.Fatalf("line promotion want %d got %v", promotion.ID, line.PromotionID)
	}
	assertMoney(t, "subtotal", invoice.Subtotal, 100000)
	assertMoney(t, "discount", invoice.DiscountAmount, 10000)
	assertMoney(t, "tax", invoice.Tax, 10000)
	assertMoney(t, "total", invoice.TotalAmount, 100000)

	_, err = f.invoices.Compose(ComposeInvoiceInput{
		CustomerID:    customer.ID,
		BranchID:      testBranchID,
		ProductLines:  []ProductLineInput{{ProductID: food.ID, Quantity: 11}},
		PaymentMethod: constants.PaymentMethodCash,
	})
	if !errors.Is(err, ErrProductStockShort) {
		t.Fatalf("over stock want ErrProductStockShort got %v", err)
	}
	_, err = f.invoices.Compose(ComposeInvoiceInput{
		CustomerID:    customer.ID,
		BranchID:      testBranchID,
		ProductLines:  []ProductLineInput{{ProductID: food.ID, Quantity: 0}},
		PaymentMethod: constants.PaymentMethodCash,
	})
	if !errors.Is(err, ErrProductQuantityInvalid) {
		t.Fatalf("zero quantity want ErrProductQuantityInvalid got %v", err)
	}
	reloaded, err := f.productRepo.GetByID(food.ID)
	if err != nil {
		t.Fatalf("reload product failed: %v", err)
	}
	if reloaded.StockQuantity != 10 {
		t.Fatalf("stock should stay untouched, got %d", reloaded.StockQuantity)
	}
}

func TestAppendItemsRecomputesTotals(t *testing.T) {
	f := setupEngineTest(t, constants.TaxBaseGross)
	customer := f.createCustomer(t, constants.MembershipTierBasic)
	first := f.createInstance(t, customer.ID, testBranchID, constants.ServiceTypeMedicalExam, 200000, beforeWindow)
	second := f.createInstance(t, customer.ID, testBranchID, constants.ServiceTypeMedicalExam, 100000, beforeWindow)

	invoice, err := f.invoices.Compose(ComposeInvoiceInput{
		CustomerID:         customer.ID,
		BranchID:           testBranchID,
		ServiceInstanceIDs: []uint{first.ID},
		PaymentMethod:      constants.PaymentMethodCash,
	})
	if err != nil {
		t.Fatalf("compose failed: %v", err)
	}
	updated, err := f.invoices.AppendItems(invoice.ID, AppendInvoiceItemsInput{ServiceInstanceIDs: []uint{second.ID}})
	if err != nil {
		t.Fatalf("append failed: %v", err)
	}
	assertMoney(t, "subtotal", updated.Subtotal, 300000)
	assertMoney(t, "tax", updated.Tax, 30000)
	assertMoney(t, "total", updated.TotalAmount, 330000)
	if len(updated.ServiceInstances) != 2 {
		t.Fatalf("service instances want 2 got %d", len(updated.ServiceInstances))
	}

	if _, err := f.invoices.MarkPaid(invoice.ID, ""); err != nil {
		t.Fatalf("mark paid failed: %v", err)
	}
	third := f.createInstance(t, customer.ID, testBranchID, constants.ServiceTypeMedicalExam, 100000, beforeWindow)
	_, err = f.invoices.AppendItems(invoice.ID, AppendInvoiceItemsInput{ServiceInstanceIDs: []uint{third.ID}})
	if !errors.Is(err, ErrInvalidState) {
		t.Fatalf("append to paid invoice want invalid state got %v", err)
	}
}

func TestRecomputeTotalsRejectsSettledInvoice(t *testing.T) {
	f := setupEngineTest(t, constants.TaxBaseGross)
	invoice, _, _ := composeTwoExams(t, f)

	if _, err := f.invoices.RecomputeTotals(invoice.ID); err != nil {
		t.Fatalf("recompute pending invoice failed: %v", err)
	}
	if _, err := f.invoices.MarkPaid(invoice.ID, constants.PaymentMethodCard); err != nil {
		t.Fatalf("mark paid failed: %v", err)
	}
	if _, err := f.invoices.RecomputeTotals(invoice.ID); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("recompute paid invoice want invalid state got %v", err)
	}
	if _, err := f.invoices.Cancel(invoice.ID); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("cancel paid invoice want invalid state got %v", err)
	}
	if _, err := f.invoices.MarkPaid(invoice.ID, ""); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("pay twice want invalid state got %v", err)
	}
	if _, err := f.invoices.RecomputeTotals(9999); !errors.Is(err, ErrNotFound) {
		t.Fatalf("recompute missing invoice want not found got %v", err)
	}
}

func TestCancelKeepsServicesBilled(t *testing.T) {
	f := setupEngineTest(t, constants.TaxBaseGross)
	invoice, _, instances := composeTwoExams(t, f)

	cancelled, err := f.invoices.Cancel(invoice.ID)
	if err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if cancelled.Status != constants.InvoiceStatusCancelled || cancelled.CancelledAt == nil {
		t.Fatalf("cancelled invoice has status %s cancelled_at %v", cancelled.Status, cancelled.CancelledAt)
	}
	_, err = f.invoices.Compose(ComposeInvoiceInput{
		CustomerID:         invoice.CustomerID,
		BranchID:           invoice.BranchID,
		ServiceInstanceIDs: []uint{instances[0].ID},
		PaymentMethod:      constants.PaymentMethodCash,
	})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("re-billing cancelled service want conflict got %v", err)
	}
}

func TestMarkPaidUpdatesLoyalty(t *testing.T) {
	f := setupEngineTest(t, constants.TaxBaseGross)
	invoice, _, _ := composeTwoExams(t, f)

	paid, err := f.invoices.MarkPaid(invoice.ID, "")
	if err != nil {
		t.Fatalf("mark paid failed: %v", err)
	}
	if paid.Status != constants.InvoiceStatusPaid || paid.PaidAt == nil {
		t.Fatalf("paid invoice has status %s paid_at %v", paid.Status, paid.PaidAt)
	}
	if paid.LoyaltyPointsEarned != 4 {
		t.Fatalf("points earned want 4 got %d", paid.LoyaltyPointsEarned)
	}
	customer, err := f.customerRepo.GetByID(invoice.CustomerID)
	if err != nil {
		t.Fatalf("reload customer failed: %v", err)
	}
	assertMoney(t, "lifetime paid", customer.LifetimePaidTotal, 442000)
	if customer.LoyaltyPoints != 4 {
		t.Fatalf("loyalty points want 4 got %d", customer.LoyaltyPoints)
	}

	// 442000 + 60000 跨过 500000
	extra := f.createInstance(t, customer.ID, testBranchID, constants.ServiceTypeMedicalExam, 60000, beforeWindow)
	second, err := f.invoices.Compose(ComposeInvoiceInput{
		CustomerID:         customer.ID,
		BranchID:           testBranchID,
		ServiceInstanceIDs: []uint{extra.ID},
		PaymentMethod:      constants.PaymentMethodCash,
	})
	if err != nil {
		t.Fatalf("compose second invoice failed: %v", err)
	}
	assertMoney(t, "second total", second.TotalAmount, 66000)
	if second.LoyaltyPointsEarned != 1 {
		t.Fatalf("second invoice points want 1 got %d", second.LoyaltyPointsEarned)
	}
}

func TestUpdateCostsRecomputesPendingInvoice(t *testing.T) {
	f := setupEngineTest(t, constants.TaxBaseGross)
	customer := f.createCustomer(t, constants.MembershipTierBasic)
	instance := f.createInstance(t, customer.ID, testBranchID, constants.ServiceTypeSingleVaccine, 100000, beforeWindow)
	invoice, err := f.invoices.Compose(ComposeInvoiceInput{
		CustomerID:         customer.ID,
		BranchID:           testBranchID,
		ServiceInstanceIDs: []uint{instance.ID},
		PaymentMethod:      constants.PaymentMethodCash,
	})
	if err != nil {
		t.Fatalf("compose failed: %v", err)
	}
	assertMoney(t, "initial total", invoice.TotalAmount, 110000)

	cost := decimal.NewFromInt(50000)
	if _, err := f.instances.UpdateCosts(instance.ID, UpdateServiceCostsInput{VaccineCost: &cost}); err != nil {
		t.Fatalf("update costs failed: %v", err)
	}
	reloaded, err := f.invoices.GetInvoice(invoice.ID)
	if err != nil {
		t.Fatalf("reload invoice failed: %v", err)
	}
	assertMoney(t, "subtotal", reloaded.Subtotal, 150000)
	assertMoney(t, "total", reloaded.TotalAmount, 165000)

	if _, err := f.invoices.MarkPaid(invoice.ID, ""); err != nil {
		t.Fatalf("mark paid failed: %v", err)
	}
	_, err = f.instances.UpdateCosts(instance.ID, UpdateServiceCostsInput{VaccineCost: &cost})
	if !errors.Is(err, ErrServiceInstanceLocked) || !errors.Is(err, ErrInvalidState) {
		t.Fatalf("update costs on paid invoice want locked got %v", err)
	}
}

func TestPromotionChangeRecomputesPendingInvoices(t *testing.T) {
	f := setupEngineTest(t, constants.TaxBaseGross)
	invoice, promotion, _ := composeTwoExams(t, f)

	_, err := f.promotions.Update(promotion.ID, BranchPromotionInput{
		BranchID:     testBranchID,
		Description:  "exam week",
		Audience:     "All",
		ServiceTypes: []string{"medical_exam"},
		DiscountRate: 15,
		StartsAt:     promotionStart,
		EndsAt:       promotionEnd,
	})
	if err != nil {
		t.Fatalf("update promotion failed: %v", err)
	}
	reloaded, err := f.invoices.GetInvoice(invoice.ID)
	if err != nil {
		t.Fatalf("reload invoice failed: %v", err)
	}
	assertMoney(t, "discount", reloaded.DiscountAmount, 30000)
	assertMoney(t, "total", reloaded.TotalAmount, 432000)

	if err := f.promotions.Delete(promotion.ID); err != nil {
		t.Fatalf("delete promotion failed: %v", err)
	}
	reloaded, err = f.invoices.GetInvoice(invoice.ID)
	if err != nil {
		t.Fatalf("reload invoice failed: %v", err)
	}
	assertMoney(t, "discount after delete", reloaded.DiscountAmount, 0)
	if len(reloaded.AppliedPromotionIDs) != 0 {
		t.Fatalf("applied promotions want empty got %v", reloaded.AppliedPromotionIDs)
	}
}

func TestGetCustomerInvoiceHidesOtherCustomers(t *testing.T) {
	f := setupEngineTest(t, constants.TaxBaseGross)
	invoice, _, _ := composeTwoExams(t, f)

	if _, err := f.invoices.GetCustomerInvoice(invoice.ID, invoice.CustomerID); err != nil {
		t.Fatalf("owner lookup failed: %v", err)
	}
	if _, err := f.invoices.GetCustomerInvoice(invoice.ID, invoice.CustomerID+100); !errors.Is(err, ErrNotFound) {
		t.Fatalf("foreign lookup want not found got %v", err)
	}
}

func TestMergeProductLineInputs(t *testing.T) {
	merged, err := mergeProductLineInputs([]ProductLineInput{
		{ProductID: 1, Quantity: 1},
		{ProductID: 2, Quantity: 3},
		{ProductID: 1, Quantity: 2},
	})
	if err != nil {
		t.Fatalf("merge error: %v", err)
	}
	if len(merged) != 2 || merged[0].Quantity != 3 || merged[1].Quantity != 3 {
		t.Fatalf("unexpected merged lines: %+v", merged)
	}
	if _, err := mergeProductLineInputs([]ProductLineInput{{ProductID: 1, Quantity: -1}}); !errors.Is(err, ErrProductQuantityInvalid) {
		t.Fatalf("negative quantity want ErrProductQuantityInvalid got %v", err)
	}
}

func TestNormalizePaymentMethod(t *testing.T) {
	cases := map[string]string{
		"cash":     constants.PaymentMethodCash,
		" CARD ":   constants.PaymentMethodCard,
		"Transfer": constants.PaymentMethodTransfer,
		"e-wallet": constants.PaymentMethodEWallet,
		"ewallet":  constants.PaymentMethodEWallet,
	}
	for raw, want := range cases {
		got, err := normalizePaymentMethod(raw)
		if err != nil || got != want {
			t.Fatalf("normalizePaymentMethod(%q) want %s got %s (%v)", raw, want, got, err)
		}
	}
	if _, err := normalizePaymentMethod("bitcoin"); !errors.Is(err, ErrValidation) {
		t.Fatalf("unknown method want validation got %v", err)
	}
}

func TestAppendItemsInterleavedKeepsEveryItem(t *testing.T) {
	f := setupEngineTest(t, constants.TaxBaseGross)
	customer := f.createCustomer(t, constants.MembershipTierBasic)
	first := f.createInstance(t, customer.ID, testBranchID, constants.ServiceTypeMedicalExam, 200000, beforeWindow)
	second := f.createInstance(t, customer.ID, testBranchID, constants.ServiceTypeMedicalExam, 200000, beforeWindow)
	third := f.createInstance(t, customer.ID, testBranchID, constants.ServiceTypeMedicalExam, 200000, beforeWindow)

	invoice, err := f.invoices.Compose(ComposeInvoiceInput{
		CustomerID:         customer.ID,
		BranchID:           testBranchID,
		ServiceInstanceIDs: []uint{first.ID},
		PaymentMethod:      constants.PaymentMethodCash,
	})
	if err != nil {
		t.Fatalf("compose failed: %v", err)
	}

	repo := &interleavingInstanceRepo{GormServiceInstanceRepository: f.instanceRepo}
	repo.afterListByIDs = func() {
		if _, err := f.invoices.AppendItems(invoice.ID, AppendInvoiceItemsInput{ServiceInstanceIDs: []uint{third.ID}}); err != nil {
			t.Errorf("interleaved append failed: %v", err)
		}
	}
	updated, err := f.invoiceServiceWith(repo).AppendItems(invoice.ID, AppendInvoiceItemsInput{ServiceInstanceIDs: []uint{second.ID}})
	if err != nil {
		t.Fatalf("append failed: %v", err)
	}
	if len(updated.ServiceInstances) != 3 {
		t.Fatalf("linked services want 3 got %d", len(updated.ServiceInstances))
	}
	assertMoney(t, "subtotal", updated.Subtotal, 600000)
	assertMoney(t, "tax", updated.Tax, 60000)
	assertMoney(t, "total", updated.TotalAmount, 660000)
}

func TestComposeAggregatesRatingCommittedBeforeLink(t *testing.T) {
	f := setupEngineTest(t, constants.TaxBaseGross)
	customer := f.createCustomer(t, constants.MembershipTierBasic)
	instance := f.createInstance(t, customer.ID, testBranchID, constants.ServiceTypeMedicalExam, 200000, beforeWindow)

	repo := &interleavingInstanceRepo{GormServiceInstanceRepository: f.instanceRepo}
	repo.afterListByIDs = func() {
		if _, err := f.ratings.RateServiceInstance(RateServiceInput{
			ServiceInstanceID: instance.ID,
			CustomerID:        customer.ID,
			Quality:           5,
			Attitude:          4,
			Satisfaction:      2,
			Comment:           "rated at the counter",
		}); err != nil {
			t.Errorf("interleaved rating failed: %v", err)
		}
	}
	invoice, err := f.invoiceServiceWith(repo).Compose(ComposeInvoiceInput{
		CustomerID:         customer.ID,
		BranchID:           testBranchID,
		ServiceInstanceIDs: []uint{instance.ID},
		PaymentMethod:      constants.PaymentMethodCash,
	})
	if err != nil {
		t.Fatalf("compose failed: %v", err)
	}
	if invoice.StaffAttitudeRating == nil || *invoice.StaffAttitudeRating != 4 {
		t.Fatalf("attitude want 4 got %s", intValue(invoice.StaffAttitudeRating))
	}
	if invoice.OverallSatisfaction == nil || *invoice.OverallSatisfaction != 2 {
		t.Fatalf("satisfaction want 2 got %s", intValue(invoice.OverallSatisfaction))
	}
}

func TestUpdateCostsRechecksInvoiceStatusInTransaction(t *testing.T) {
	f := setupEngineTest(t, constants.TaxBaseGross)
	customer := f.createCustomer(t, constants.MembershipTierBasic)
	instance := f.createInstance(t, customer.ID, testBranchID, constants.ServiceTypeSingleVaccine, 100000, beforeWindow)
	invoice, err := f.invoices.Compose(ComposeInvoiceInput{
		CustomerID:         customer.ID,
		BranchID:           testBranchID,
		ServiceInstanceIDs: []uint{instance.ID},
		PaymentMethod:      constants.PaymentMethodCash,
	})
	if err != nil {
		t.Fatalf("compose failed: %v", err)
	}

	repo := &interleavingInstanceRepo{GormServiceInstanceRepository: f.instanceRepo}
	repo.afterGetByID = func() {
		if _, err := f.invoices.MarkPaid(invoice.ID, ""); err != nil {
			t.Errorf("interleaved payment failed: %v", err)
		}
	}
	instances := NewServiceInstanceService(repo, f.invoiceRepo, f.customerRepo, f.catalog, f.invoices, f.clock)
	cost := decimal.NewFromInt(50000)
	_, err = instances.UpdateCosts(instance.ID, UpdateServiceCostsInput{VaccineCost: &cost})
	if !errors.Is(err, ErrServiceInstanceLocked) {
		t.Fatalf("update costs after payment want locked got %v", err)
	}

	reloaded, err := f.instanceRepo.GetByID(instance.ID)
	if err != nil {
		t.Fatalf("reload instance failed: %v", err)
	}
	assertMoney(t, "vaccine cost", reloaded.VaccineCost, 0)
	paid, err := f.invoices.GetInvoice(invoice.ID)
	if err != nil {
		t.Fatalf("reload invoice failed: %v", err)
	}
	if paid.Status != constants.InvoiceStatusPaid {
		t.Fatalf("status want paid got %s", paid.Status)
	}
	assertMoney(t, "total", paid.TotalAmount, 110000)
}

func TestUpdateCostsRollsBackWhenRecomputeFails(t *testing.T) {
	f := setupEngineTest(t, constants.TaxBaseGross)
	customer := f.createCustomer(t, constants.MembershipTierBasic)
	vaccine := f.createInstance(t, customer.ID, testBranchID, constants.ServiceTypeSingleVaccine, 100000, beforeWindow)
	exam := f.createInstance(t, customer.ID, testBranchID, constants.ServiceTypeMedicalExam, 200000, beforeWindow)
	invoice, err := f.invoices.Compose(ComposeInvoiceInput{
		CustomerID:         customer.ID,
		BranchID:           testBranchID,
		ServiceInstanceIDs: []uint{vaccine.ID, exam.ID},
		PaymentMethod:      constants.PaymentMethodCash,
	})
	if err != nil {
		t.Fatalf("compose failed: %v", err)
	}
	// 另一条明细的价格被破坏后，重算必然失败
	if err := f.db.Model(&models.ServiceInstance{}).Where("id = ?", exam.ID).
		Update("base_price", models.NewMoneyFromInt(-1)).Error; err != nil {
		t.Fatalf("corrupt exam price failed: %v", err)
	}

	cost := decimal.NewFromInt(50000)
	_, err = f.instances.UpdateCosts(vaccine.ID, UpdateServiceCostsInput{VaccineCost: &cost})
	if !errors.Is(err, ErrPriceInvalid) {
		t.Fatalf("update costs want price invalid got %v", err)
	}
	reloaded, err := f.instanceRepo.GetByID(vaccine.ID)
	if err != nil {
		t.Fatalf("reload instance failed: %v", err)
	}
	assertMoney(t, "vaccine cost", reloaded.VaccineCost, 0)
	unchanged, err := f.invoices.GetInvoice(invoice.ID)
	if err != nil {
		t.Fatalf("reload invoice failed: %v", err)
	}
	assertMoney(t, "total", unchanged.TotalAmount, 330000)
}

func TestMarkPaidConcurrentlyCountsEachPointOnce(t *testing.T) {
	f := setupEngineTest(t, constants.TaxBaseGross)
	customer := f.createCustomer(t, constants.MembershipTierBasic)
	invoiceIDs := make([]uint, 0, 2)
	for i := 0; i < 2; i++ {
		instance := f.createInstance(t, customer.ID, testBranchID, constants.ServiceTypeMedicalExam, 50000, beforeWindow)
		invoice, err := f.invoices.Compose(ComposeInvoiceInput{
			CustomerID:         customer.ID,
			BranchID:           testBranchID,
			ServiceInstanceIDs: []uint{instance.ID},
			PaymentMethod:      constants.PaymentMethodCash,
		})
		if err != nil {
			t.Fatalf("compose failed: %v", err)
		}
		assertMoney(t, "total", invoice.TotalAmount, 55000)
		invoiceIDs = append(invoiceIDs, invoice.ID)
	}

	var wg sync.WaitGroup
	errs := make([]error, len(invoiceIDs))
	for i, id := range invoiceIDs {
		wg.Add(1)
		go func(idx int, invoiceID uint) {
			defer wg.Done()
			_, errs[idx] = f.invoices.MarkPaid(invoiceID, "")
		}(i, id)
	}
	wg.Wait()

	var earned int64
	for i, id := range invoiceIDs {
		if errs[i] != nil {
			t.Fatalf("mark paid %d failed: %v", id, errs[i])
		}
		paid, err := f.invoices.GetInvoice(id)
		if err != nil {
			t.Fatalf("reload invoice failed: %v", err)
		}
		earned += paid.LoyaltyPointsEarned
	}
	// 55000 + 55000 只跨过一次 100000
	if earned != 1 {
		t.Fatalf("points earned across invoices want 1 got %d", earned)
	}
	reloaded, err := f.customerRepo.GetByID(customer.ID)
	if err != nil {
		t.Fatalf("reload customer failed: %v", err)
	}
	if reloaded.LoyaltyPoints != 1 {
		t.Fatalf("customer points want 1 got %d", reloaded.LoyaltyPoints)
	}
}

func TestPromotionReferencedByPaidInvoiceIsFrozen(t *testing.T) {
	f := setupEngineTest(t, constants.TaxBaseGross)
	invoice, promotion, _ := composeTwoExams(t, f)
	if _, err := f.invoices.MarkPaid(invoice.ID, ""); err != nil {
		t.Fatalf("mark paid failed: %v", err)
	}

	input := BranchPromotionInput{
		BranchID:     otherBranchID,
		Description:  "moved",
		Audience:     "All",
		ServiceTypes: []string{"medical_exam"},
		DiscountRate: 5,
		StartsAt:     promotionStart,
		EndsAt:       promotionEnd,
	}
	if _, err := f.promotions.Update(promotion.ID, input); !errors.Is(err, ErrPromotionInUse) || !errors.Is(err, ErrConflict) {
		t.Fatalf("update referenced promotion want in use got %v", err)
	}
	if err := f.promotions.Delete(promotion.ID); !errors.Is(err, ErrPromotionInUse) {
		t.Fatalf("delete referenced promotion want in use got %v", err)
	}
	stored, err := f.promotions.Get(promotion.ID)
	if err != nil {
		t.Fatalf("reload promotion failed: %v", err)
	}
	if stored.BranchID != testBranchID || stored.DiscountRate != 10 {
		t.Fatalf("promotion changed to branch=%d rate=%d", stored.BranchID, stored.DiscountRate)
	}

	// 描述与结束时间不影响已结算的折扣
	input.BranchID = testBranchID
	input.DiscountRate = 10
	input.Description = "exam week, extended"
	input.EndsAt = promotionEnd.AddDate(0, 0, 7)
	updated, err := f.promotions.Update(promotion.ID, input)
	if err != nil {
		t.Fatalf("update description and end failed: %v", err)
	}
	if updated.Description != "exam week, extended" || !updated.EndsAt.Equal(input.EndsAt) {
		t.Fatalf("unexpected promotion after update: %+v", updated)
	}
}
