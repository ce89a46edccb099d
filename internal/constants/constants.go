package constants

// ServiceTypeCode 服务类型编码（封闭枚举）
type ServiceTypeCode string

// 服务类型常量
const (
	ServiceTypePurchase       ServiceTypeCode = "purchase"
	ServiceTypeSingleVaccine  ServiceTypeCode = "single_vaccine"
	ServiceTypeVaccinePackage ServiceTypeCode = "vaccine_package"
	ServiceTypeMedicalExam    ServiceTypeCode = "medical_exam"
)

// AllServiceTypes 全部服务类型，顺序固定
var AllServiceTypes = []ServiceTypeCode{
	ServiceTypePurchase,
	ServiceTypeSingleVaccine,
	ServiceTypeVaccinePackage,
	ServiceTypeMedicalExam,
}

// Valid 判断服务类型是否在枚举内
func (c ServiceTypeCode) Valid() bool {
	switch c {
	case ServiceTypePurchase, ServiceTypeSingleVaccine, ServiceTypeVaccinePackage, ServiceTypeMedicalExam:
		return true
	default:
		return false
	}
}

// String 返回编码字符串
func (c ServiceTypeCode) String() string {
	return string(c)
}

// 会员等级常量
const (
	MembershipTierBasic = "basic"
	MembershipTierLoyal = "loyal"
	MembershipTierVIP   = "vip"
)

// 活动受众常量
const (
	AudienceAll       = "all"
	AudienceLoyalPlus = "loyal_plus"
	AudienceVIPPlus   = "vip_plus"
)

// 账单状态常量
const (
	InvoiceStatusPending   = "pending"
	InvoiceStatusPaid      = "paid"
	InvoiceStatusCancelled = "cancelled"
)

// 支付方式常量
const (
	PaymentMethodCash     = "cash"
	PaymentMethodCard     = "card"
	PaymentMethodTransfer = "transfer"
	PaymentMethodEWallet  = "e_wallet"
)

// 计税基数常量
const (
	TaxBaseGross = "gross" // 折前小计
	TaxBaseNet   = "net"   // 折后小计
)

// 账号角色常量
const (
	RoleCustomer     = "customer"
	RoleAdmin        = "admin"
	RoleVeterinarian = "veterinarian"
	RoleReceptionist = "receptionist"
	RoleSales        = "sales"
)

// 队列名称常量
const (
	QueueDefault  = "default"
	QueueCritical = "critical"
)

// 异步任务类型常量
const (
	TaskLoyaltyRecompute       = "loyalty:recompute"
	TaskInvoiceRecomputeTotals = "invoice:recompute_totals"
)

// 评分与文本限制
const (
	RatingScoreMin         = 1
	RatingScoreMax         = 5
	RatingCommentMaxLength = 500
	DescriptionMaxLength   = 500
)

// 活动折扣率范围（百分比，闭区间）
const (
	PromotionRateMin = 5
	PromotionRateMax = 15
)
