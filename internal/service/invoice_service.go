package service

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"sort"
	"strings"
	"time"

	"github.com/petcare-next/internal/constants"
	"github.com/petcare-next/internal/logger"
	"github.com/petcare-next/internal/models"
	"github.com/petcare-next/internal/pkg/clock"
	"github.com/petcare-next/internal/queue"
	"github.com/petcare-next/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const defaultInvoiceNoPrefix = "PC"

// InvoiceOptions 开单参数（税率与计税基数在开单时写入账单快照）
type InvoiceOptions struct {
	TaxRate         decimal.Decimal
	TaxBase         string
	InvoiceNoPrefix string
}

// InvoiceService 账单服务
type InvoiceService struct {
	invoiceRepo  repository.InvoiceRepository
	instanceRepo repository.ServiceInstanceRepository
	customerRepo repository.CustomerRepository
	productRepo  repository.ProductRepository
	pricing      *PricingService
	resolver     *PromotionService
	loyalty      *LoyaltyService
	queueClient  *queue.Client
	clock        clock.Clock
	options      InvoiceOptions
}

// NewInvoiceService 创建账单服务
func NewInvoiceService(
	invoiceRepo repository.InvoiceRepository,
	instanceRepo repository.ServiceInstanceRepository,
	customerRepo repository.CustomerRepository,
	productRepo repository.ProductRepository,
	pricing *PricingService,
	resolver *PromotionService,
	loyalty *LoyaltyService,
	queueClient *queue.Client,
	clk clock.Clock,
	options InvoiceOptions,
) *InvoiceService {
	if clk == nil {
		clk = clock.NewRealClock()
	}
	if options.TaxBase != constants.TaxBaseNet {
		options.TaxBase = constants.TaxBaseGross
	}
	if options.TaxRate.IsNegative() {
		options.TaxRate = decimal.Zero
	}
	if strings.TrimSpace(options.InvoiceNoPrefix) == "" {
		options.InvoiceNoPrefix = defaultInvoiceNoPrefix
	}
	return &InvoiceService{
		invoiceRepo:  invoiceRepo,
		instanceRepo: instanceRepo,
		customerRepo: customerRepo,
		productRepo:  productRepo,
		pricing:      pricing,
		resolver:     resolver,
		loyalty:      loyalty,
		queueClient:  queueClient,
		clock:        clk,
		options:      options,
	}
}

// ProductLineInput 商品行输入
type ProductLineInput struct {
	ProductID uint `json:"product_id"`
	Quantity  int  `json:"quantity"`
}

// ComposeInvoiceInput 开单输入
type ComposeInvoiceInput struct {
	CustomerID         uint
	BranchID           uint
	ServiceInstanceIDs []uint
	ProductLines       []ProductLineInput
	PaymentMethod      string
}

// AppendInvoiceItemsInput 追加账单明细输入
type AppendInvoiceItemsInput struct {
	ServiceInstanceIDs []uint
	ProductLines       []ProductLineInput
}

// invoiceTotals 账单金额汇总，各项均已保留两位小数
type invoiceTotals struct {
	Subtotal     decimal.Decimal
	Discount     decimal.Decimal
	Tax          decimal.Decimal
	Total        decimal.Decimal
	PromotionIDs []uint
}

func (t invoiceTotals) columns(points int64) map[string]interface{} {
	return map[string]interface{}{
		"subtotal":              models.NewMoneyFromDecimal(t.Subtotal),
		"discount_amount":       models.NewMoneyFromDecimal(t.Discount),
		"tax":                   models.NewMoneyFromDecimal(t.Tax),
		"total_amount":          models.NewMoneyFromDecimal(t.Total),
		"loyalty_points_earned": points,
		"applied_promotion_ids": models.UintArray(t.PromotionIDs),
	}
}

// Compose 将同一客户同一分店的未开单服务与商品合并为待支付账单
func (s *InvoiceService) Compose(input ComposeInvoiceInput) (*models.Invoice, error) {
	paymentMethod, err := normalizePaymentMethod(input.PaymentMethod)
	if err != nil {
		return nil, err
	}
	if input.CustomerID == 0 || input.BranchID == 0 {
		return nil, ErrInvoiceOwnerMismatch
	}
	instanceIDs, err := normalizeInstanceIDs(input.ServiceInstanceIDs)
	if err != nil {
		return nil, err
	}
	lineInputs, err := mergeProductLineInputs(input.ProductLines)
	if err != nil {
		return nil, err
	}
	if len(instanceIDs) == 0 && len(lineInputs) == 0 {
		return nil, ErrInvoiceEmpty
	}

	customer, err := s.loadCustomer(input.CustomerID)
	if err != nil {
		return nil, err
	}
	if err := s.checkBillableInstances(instanceIDs, input.CustomerID, input.BranchID); err != nil {
		return nil, err
	}
	lines, err := s.buildProductLines(lineInputs, input.BranchID, customer.MembershipTier)
	if err != nil {
		return nil, err
	}

	invoice := &models.Invoice{
		InvoiceNo:           generateInvoiceNo(s.options.InvoiceNoPrefix),
		CustomerID:          input.CustomerID,
		BranchID:            input.BranchID,
		Status:              constants.InvoiceStatusPending,
		PaymentMethod:       paymentMethod,
		Subtotal:            models.ZeroMoney(),
		DiscountAmount:      models.ZeroMoney(),
		Tax:                 models.ZeroMoney(),
		TotalAmount:         models.ZeroMoney(),
		TaxRate:             s.options.TaxRate,
		TaxBase:             s.options.TaxBase,
		AppliedPromotionIDs: models.UintArray{},
	}

	var totals invoiceTotals
	err = models.DB.Transaction(func(tx *gorm.DB) error {
		invoiceRepo := s.invoiceRepo.WithTx(tx)

		if err := invoiceRepo.Create(invoice); err != nil {
			return err
		}
		if err := linkInstances(s.instanceRepo.WithTx(tx), instanceIDs, invoice.ID); err != nil {
			return err
		}
		for i := range lines {
			lines[i].InvoiceID = invoice.ID
		}
		if err := invoiceRepo.CreateProductLines(lines); err != nil {
			return err
		}
		settled, err := s.settlePendingTx(tx, invoice)
		if err != nil {
			return err
		}
		totals = settled
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Infow("invoice_composed",
		"invoice_id", invoice.ID,
		"invoice_no", invoice.InvoiceNo,
		"customer_id", invoice.CustomerID,
		"branch_id", invoice.BranchID,
		"service_count", len(instanceIDs),
		"product_line_count", len(lines),
		"subtotal", totals.Subtotal.StringFixed(2),
		"discount", totals.Discount.StringFixed(2),
		"tax", totals.Tax.StringFixed(2),
		"total", totals.Total.StringFixed(2),
	)
	return s.GetInvoice(invoice.ID)
}

// AppendItems 向待支付账单追加服务或商品并重算金额
func (s *InvoiceService) AppendItems(invoiceID uint, input AppendInvoiceItemsInput) (*models.Invoice, error) {
	instanceIDs, err := normalizeInstanceIDs(input.ServiceInstanceIDs)
	if err != nil {
		return nil, err
	}
	lineInputs, err := mergeProductLineInputs(input.ProductLines)
	if err != nil {
		return nil, err
	}
	if len(instanceIDs) == 0 && len(lineInputs) == 0 {
		return nil, ErrInvoiceEmpty
	}

	invoice, err := s.GetInvoice(invoiceID)
	if err != nil {
		return nil, err
	}
	if invoice.Status != constants.InvoiceStatusPending {
		return nil, ErrInvoiceStatusInvalid
	}
	customer, err := s.loadCustomer(invoice.CustomerID)
	if err != nil {
		return nil, err
	}
	if err := s.checkBillableInstances(instanceIDs, invoice.CustomerID, invoice.BranchID); err != nil {
		return nil, err
	}
	lines, err := s.buildProductLines(lineInputs, invoice.BranchID, customer.MembershipTier)
	if err != nil {
		return nil, err
	}

	var totals invoiceTotals
	err = models.DB.Transaction(func(tx *gorm.DB) error {
		invoiceRepo := s.invoiceRepo.WithTx(tx)

		locked, err := lockPendingInvoice(invoiceRepo, invoiceID)
		if err != nil {
			return err
		}
		if err := linkInstances(s.instanceRepo.WithTx(tx), instanceIDs, locked.ID); err != nil {
			return err
		}
		for i := range lines {
			lines[i].InvoiceID = locked.ID
		}
		if err := invoiceRepo.CreateProductLines(lines); err != nil {
			return err
		}
		totals, err = s.settlePendingTx(tx, locked)
		return err
	})
	if err != nil {
		return nil, err
	}

	logger.Infow("invoice_items_appended",
		"invoice_id", invoiceID,
		"service_count", len(instanceIDs),
		"product_line_count", len(lines),
		"total", totals.Total.StringFixed(2),
	)
	return s.GetInvoice(invoiceID)
}

// RecomputeTotals 按当前服务记录与活动重算待支付账单；商品行价格保持开单快照
func (s *InvoiceService) RecomputeTotals(invoiceID uint) (*models.Invoice, error) {
	var previous decimal.Decimal
	var totals invoiceTotals
	err := models.DB.Transaction(func(tx *gorm.DB) error {
		locked, err := lockPendingInvoice(s.invoiceRepo.WithTx(tx), invoiceID)
		if err != nil {
			return err
		}
		previous = locked.TotalAmount.Decimal
		totals, err = s.settlePendingTx(tx, locked)
		return err
	})
	if err != nil {
		return nil, err
	}

	if !previous.Equal(totals.Total) {
		logger.Infow("invoice_totals_recomputed",
			"invoice_id", invoiceID,
			"previous_total", previous.StringFixed(2),
			"total", totals.Total.StringFixed(2),
		)
	}
	return s.GetInvoice(invoiceID)
}

// RecomputeTotalsTx 在调用方事务内锁定并重算待支付账单
func (s *InvoiceService) RecomputeTotalsTx(tx *gorm.DB, invoiceID uint) error {
	locked, err := lockPendingInvoice(s.invoiceRepo.WithTx(tx), invoiceID)
	if err != nil {
		return err
	}
	_, err = s.settlePendingTx(tx, locked)
	return err
}

// settlePendingTx 调用方需已锁定账单。金额与评分汇总均由库中已关联的明细重新得出，
// 不依赖事务外读取的快照
func (s *InvoiceService) settlePendingTx(tx *gorm.DB, invoice *models.Invoice) (invoiceTotals, error) {
	invoiceRepo := s.invoiceRepo.WithTx(tx)
	instanceRepo := s.instanceRepo.WithTx(tx)

	customer, err := s.customerRepo.WithTx(tx).GetByID(invoice.CustomerID)
	if err != nil {
		return invoiceTotals{}, err
	}
	if customer == nil {
		return invoiceTotals{}, ErrCustomerNotFound
	}
	instances, err := instanceRepo.ListByInvoice(invoice.ID)
	if err != nil {
		return invoiceTotals{}, err
	}
	lines, err := invoiceRepo.ListProductLines(invoice.ID)
	if err != nil {
		return invoiceTotals{}, err
	}
	totals, err := computeTotals(s.pricing.withTx(tx), instances, lines, customer.MembershipTier, invoice.TaxRate, invoice.TaxBase)
	if err != nil {
		return invoiceTotals{}, err
	}
	points, err := s.loyalty.ProjectEarnedPoints(invoiceRepo, invoice.CustomerID, totals.Total)
	if err != nil {
		return invoiceTotals{}, err
	}
	updated, err := invoiceRepo.UpdatePendingTotals(invoice.ID, totals.columns(points))
	if err != nil {
		return invoiceTotals{}, err
	}
	if !updated {
		return invoiceTotals{}, ErrInvoiceStatusConflict
	}
	if _, _, err := recomputeInvoiceRatings(instanceRepo, invoiceRepo, invoice.ID); err != nil {
		return invoiceTotals{}, err
	}
	return totals, nil
}

// MarkPaid 确认收款，积分增量在此刻冻结
func (s *InvoiceService) MarkPaid(invoiceID uint, paymentMethod string) (*models.Invoice, error) {
	invoice, err := s.GetInvoice(invoiceID)
	if err != nil {
		return nil, err
	}
	if !canTransitInvoice(invoice.Status, constants.InvoiceStatusPaid) {
		return nil, ErrInvoiceStatusInvalid
	}
	method := invoice.PaymentMethod
	if strings.TrimSpace(paymentMethod) != "" {
		method, err = normalizePaymentMethod(paymentMethod)
		if err != nil {
			return nil, err
		}
	}

	var points int64
	var total decimal.Decimal
	err = models.DB.Transaction(func(tx *gorm.DB) error {
		invoiceRepo := s.invoiceRepo.WithTx(tx)

		// 先锁客户再锁账单，同一客户的并发收款按顺序累计积分
		customer, err := s.customerRepo.WithTx(tx).GetByIDForUpdate(invoice.CustomerID)
		if err != nil {
			return err
		}
		if customer == nil {
			return ErrCustomerNotFound
		}
		locked, err := invoiceRepo.GetByIDForUpdate(invoiceID)
		if err != nil {
			return err
		}
		if locked == nil {
			return ErrInvoiceNotFound
		}
		if !canTransitInvoice(locked.Status, constants.InvoiceStatusPaid) {
			return ErrInvoiceStatusInvalid
		}
		total = locked.TotalAmount.Decimal
		points, err = s.loyalty.ProjectEarnedPoints(invoiceRepo, locked.CustomerID, total)
		if err != nil {
			return err
		}
		updated, err := invoiceRepo.TransitionStatus(locked.ID, constants.InvoiceStatusPending, constants.InvoiceStatusPaid, map[string]interface{}{
			"paid_at":               s.clock.Now(),
			"payment_method":        method,
			"loyalty_points_earned": points,
		})
		if err != nil {
			return err
		}
		if !updated {
			return ErrInvoiceStatusConflict
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Infow("invoice_paid",
		"invoice_id", invoiceID,
		"customer_id", invoice.CustomerID,
		"payment_method", method,
		"total", total.StringFixed(2),
		"loyalty_points_earned", points,
	)
	s.scheduleLoyaltyRecompute(invoice.CustomerID, "invoice_paid")
	return s.GetInvoice(invoiceID)
}

// Cancel 取消待支付账单；服务与账单的关联保留，不会再次计费
func (s *InvoiceService) Cancel(invoiceID uint) (*models.Invoice, error) {
	invoice, err := s.invoiceRepo.GetByID(invoiceID)
	if err != nil {
		return nil, err
	}
	if invoice == nil {
		return nil, ErrInvoiceNotFound
	}
	if !canTransitInvoice(invoice.Status, constants.InvoiceStatusCancelled) {
		return nil, ErrInvoiceStatusInvalid
	}
	updated, err := s.invoiceRepo.TransitionStatus(invoice.ID, constants.InvoiceStatusPending, constants.InvoiceStatusCancelled, map[string]interface{}{
		"cancelled_at": s.clock.Now(),
	})
	if err != nil {
		return nil, err
	}
	if !updated {
		return nil, ErrInvoiceStatusInvalid
	}
	logger.Infow("invoice_cancelled", "invoice_id", invoice.ID, "customer_id", invoice.CustomerID)
	return s.GetInvoice(invoice.ID)
}

// GetInvoice 获取账单详情
func (s *InvoiceService) GetInvoice(invoiceID uint) (*models.Invoice, error) {
	invoice, err := s.invoiceRepo.GetByID(invoiceID)
	if err != nil {
		return nil, err
	}
	if invoice == nil {
		return nil, ErrInvoiceNotFound
	}
	return invoice, nil
}

// GetCustomerInvoice 获取客户本人的账单，他人账单视为不存在
func (s *InvoiceService) GetCustomerInvoice(invoiceID, customerID uint) (*models.Invoice, error) {
	invoice, err := s.GetInvoice(invoiceID)
	if err != nil {
		return nil, err
	}
	if invoice.CustomerID != customerID {
		return nil, ErrInvoiceNotFound
	}
	return invoice, nil
}

// ListInvoices 分页查询账单
func (s *InvoiceService) ListInvoices(filter repository.InvoiceListFilter) ([]models.Invoice, int64, error) {
	return s.invoiceRepo.List(filter)
}

func (s *InvoiceService) scheduleLoyaltyRecompute(customerID uint, reason string) {
	if s.queueClient != nil && s.queueClient.Enabled() {
		err := s.queueClient.EnqueueLoyaltyRecompute(queue.LoyaltyRecomputePayload{
			CustomerID: customerID,
			Reason:     reason,
		})
		if err == nil {
			return
		}
		logger.Warnw("invoice_enqueue_loyalty_recompute_failed", "customer_id", customerID, "error", err)
	}
	if _, err := s.loyalty.RecomputeCustomerLoyalty(customerID); err != nil {
		logger.Errorw("invoice_loyalty_recompute_failed", "customer_id", customerID, "error", err)
	}
}

func (s *InvoiceService) loadCustomer(customerID uint) (*models.Customer, error) {
	customer, err := s.customerRepo.GetByID(customerID)
	if err != nil {
		return nil, err
	}
	if customer == nil {
		return nil, ErrCustomerNotFound
	}
	return customer, nil
}

// checkBillableInstances 预检服务记录存在、归属一致且尚未开单；
// 事务内由 linkInstances 的条件更新兜底
func (s *InvoiceService) checkBillableInstances(ids []uint, customerID, branchID uint) error {
	if len(ids) == 0 {
		return nil
	}
	instances, err := s.instanceRepo.ListByIDs(ids)
	if err != nil {
		return err
	}
	if len(instances) != len(ids) {
		return ErrServiceInstanceNotFound
	}
	for _, instance := range instances {
		if instance.CustomerID != customerID || instance.BranchID != branchID {
			return ErrInvoiceOwnerMismatch
		}
		if instance.IsInvoiced() {
			return ErrServiceInstanceBilled
		}
	}
	return nil
}

// buildProductLines 按商品单价与 purchase 类型活动生成商品行
func (s *InvoiceService) buildProductLines(inputs []ProductLineInput, branchID uint, tier string) ([]models.InvoiceProductLine, error) {
	if len(inputs) == 0 {
		return nil, nil
	}
	ids := make([]uint, 0, len(inputs))
	for _, input := range inputs {
		ids = append(ids, input.ProductID)
	}
	products, err := s.productRepo.ListByIDs(ids)
	if err != nil {
		return nil, err
	}
	productMap := make(map[uint]models.Product, len(products))
	for _, product := range products {
		productMap[product.ID] = product
	}

	resolution, err := s.resolver.Resolve(branchID, constants.ServiceTypePurchase, tier, s.clock.Now())
	if err != nil {
		return nil, err
	}

	lines := make([]models.InvoiceProductLine, 0, len(inputs))
	for _, input := range inputs {
		product, ok := productMap[input.ProductID]
		if !ok {
			return nil, ErrProductNotFound
		}
		if !product.IsActive {
			return nil, ErrProductUnavailable
		}
		if input.Quantity > product.StockQuantity {
			return nil, ErrProductStockShort
		}
		if product.Price.IsNegative() {
			return nil, ErrPriceInvalid
		}
		subtotal := product.Price.Decimal.Mul(decimal.NewFromInt(int64(input.Quantity)))
		charge := ComputeCharge(subtotal, resolution.Rate)
		var promotionID *uint
		if charge.Discount.IsPositive() {
			promotionID = resolution.PromotionID()
		}
		lines = append(lines, models.InvoiceProductLine{
			ProductID:      product.ID,
			ProductName:    product.Name,
			Quantity:       input.Quantity,
			UnitPrice:      product.Price,
			Subtotal:       models.NewMoneyFromDecimal(charge.Subtotal),
			DiscountAmount: models.NewMoneyFromDecimal(charge.Discount),
			TotalAmount:    models.NewMoneyFromDecimal(charge.Total),
			PromotionID:    promotionID,
		})
	}
	return lines, nil
}

// computeTotals subtotal 与 discount 为各项之和，tax = 计税基数 × 税率，total = subtotal − discount + tax
func computeTotals(pricing *PricingService, instances []models.ServiceInstance, lines []models.InvoiceProductLine, tier string, taxRate decimal.Decimal, taxBase string) (invoiceTotals, error) {
	subtotal := decimal.Zero
	discount := decimal.Zero
	promotionSet := make(map[uint]struct{})

	for i := range instances {
		charge, err := pricing.Charge(&instances[i], tier)
		if err != nil {
			return invoiceTotals{}, err
		}
		subtotal = subtotal.Add(charge.Subtotal)
		discount = discount.Add(charge.Discount)
		if charge.PromotionID != nil {
			promotionSet[*charge.PromotionID] = struct{}{}
		}
	}
	for _, line := range lines {
		subtotal = subtotal.Add(line.Subtotal.Decimal)
		discount = discount.Add(line.DiscountAmount.Decimal)
		if line.PromotionID != nil {
			promotionSet[*line.PromotionID] = struct{}{}
		}
	}

	taxable := subtotal
	if taxBase == constants.TaxBaseNet {
		taxable = subtotal.Sub(discount)
	}
	tax := normalizeAmount(taxable.Mul(taxRate))

	promotionIDs := make([]uint, 0, len(promotionSet))
	for id := range promotionSet {
		promotionIDs = append(promotionIDs, id)
	}
	sort.Slice(promotionIDs, func(i, j int) bool { return promotionIDs[i] < promotionIDs[j] })

	return invoiceTotals{
		Subtotal:     subtotal,
		Discount:     discount,
		Tax:          tax,
		Total:        subtotal.Sub(discount).Add(tax),
		PromotionIDs: promotionIDs,
	}, nil
}

// lockPendingInvoice 加锁读取账单并确认仍为待支付
func lockPendingInvoice(invoiceRepo repository.InvoiceRepository, invoiceID uint) (*models.Invoice, error) {
	invoice, err := invoiceRepo.GetByIDForUpdate(invoiceID)
	if err != nil {
		return nil, err
	}
	if invoice == nil {
		return nil, ErrInvoiceNotFound
	}
	if invoice.Status != constants.InvoiceStatusPending {
		return nil, ErrInvoiceStatusInvalid
	}
	return invoice, nil
}

// linkInstances 条件更新关联账单，任一服务已被其他账单占用则整体失败
func linkInstances(instanceRepo repository.ServiceInstanceRepository, ids []uint, invoiceID uint) error {
	if len(ids) == 0 {
		return nil
	}
	affected, err := instanceRepo.LinkToInvoice(ids, invoiceID)
	if err != nil {
		return err
	}
	if affected != int64(len(ids)) {
		return ErrServiceInstanceBilled
	}
	return nil
}

// normalizeInstanceIDs 服务ID不允许为 0 或重复
func normalizeInstanceIDs(ids []uint) ([]uint, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	seen := make(map[uint]struct{}, len(ids))
	result := make([]uint, 0, len(ids))
	for _, id := range ids {
		if id == 0 {
			return nil, ErrServiceInstanceInvalid
		}
		if _, ok := seen[id]; ok {
			return nil, ErrInvoiceDuplicateItem
		}
		seen[id] = struct{}{}
		result = append(result, id)
	}
	return result, nil
}

// mergeProductLineInputs 合并同一商品的多行输入
func mergeProductLineInputs(inputs []ProductLineInput) ([]ProductLineInput, error) {
	if len(inputs) == 0 {
		return nil, nil
	}
	merged := make([]ProductLineInput, 0, len(inputs))
	indexMap := make(map[uint]int, len(inputs))
	for _, input := range inputs {
		if input.ProductID == 0 {
			return nil, ErrProductNotFound
		}
		if input.Quantity <= 0 {
			return nil, ErrProductQuantityInvalid
		}
		if idx, ok := indexMap[input.ProductID]; ok {
			merged[idx].Quantity += input.Quantity
			continue
		}
		indexMap[input.ProductID] = len(merged)
		merged = append(merged, input)
	}
	return merged, nil
}

func generateInvoiceNo(prefix string) string {
	now := time.Now().Format("20060102150405")
	return fmt.Sprintf("%s%s%s", prefix, now, randNumeric(6))
}

func randNumeric(length int) string {
	var b strings.Builder
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			b.WriteString("0")
			continue
		}
		b.WriteString(fmt.Sprintf("%d", n.Int64()))
	}
	return b.String()
}
