package service

import (
	"errors"
	"fmt"
)

// 错误分类，具体错误均包装其中之一，调用方可用 errors.Is 按分类匹配。
var (
	ErrValidation   = errors.New("validation failed")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrInvalidState = errors.New("invalid state")
)

// 服务目录
var (
	ErrServiceTypeInvalid     = fmt.Errorf("%w: service type is not enumerated", ErrValidation)
	ErrServiceTypeNotFound    = fmt.Errorf("%w: service type", ErrNotFound)
	ErrPriceInvalid           = fmt.Errorf("%w: price must not be negative", ErrValidation)
	ErrPurchasePriceNonZero   = fmt.Errorf("%w: purchase base price must be zero", ErrValidation)
	ErrVaccineNotFound        = fmt.Errorf("%w: vaccine", ErrNotFound)
	ErrVaccinePackageNotFound = fmt.Errorf("%w: vaccine package", ErrNotFound)
	ErrAddOnNotAllowed        = fmt.Errorf("%w: add-on does not match service type", ErrValidation)
)

// 活动
var (
	ErrPromotionNotFound       = fmt.Errorf("%w: promotion", ErrNotFound)
	ErrPromotionRateInvalid    = fmt.Errorf("%w: discount rate out of range", ErrValidation)
	ErrPromotionWindowInvalid  = fmt.Errorf("%w: promotion ends before it starts", ErrValidation)
	ErrPromotionAudience       = fmt.Errorf("%w: audience is not recognised", ErrValidation)
	ErrPromotionServiceTypes   = fmt.Errorf("%w: promotion needs at least one service type", ErrValidation)
	ErrDescriptionTooLong      = fmt.Errorf("%w: description too long", ErrValidation)
	ErrMembershipTierInvalid   = fmt.Errorf("%w: membership tier is not recognised", ErrValidation)
	ErrPromotionBranchRequired = fmt.Errorf("%w: branch is required", ErrValidation)
	ErrPromotionInUse          = fmt.Errorf("%w: promotion is referenced by a paid invoice", ErrConflict)
)

// 服务记录
var (
	ErrServiceInstanceNotFound = fmt.Errorf("%w: service instance", ErrNotFound)
	ErrServiceInstanceInvalid  = fmt.Errorf("%w: service instance fields missing", ErrValidation)
	ErrServiceInstanceBilled   = fmt.Errorf("%w: service instance already invoiced", ErrConflict)
	ErrServiceInstanceLocked   = fmt.Errorf("%w: service instance belongs to a settled invoice", ErrInvalidState)
)

// 账单
var (
	ErrInvoiceNotFound        = fmt.Errorf("%w: invoice", ErrNotFound)
	ErrInvoiceEmpty           = fmt.Errorf("%w: invoice needs at least one service or product", ErrValidation)
	ErrInvoiceOwnerMismatch   = fmt.Errorf("%w: services must share customer and branch", ErrValidation)
	ErrInvoiceDuplicateItem   = fmt.Errorf("%w: duplicated service instance", ErrValidation)
	ErrPaymentMethodInvalid   = fmt.Errorf("%w: payment method is not supported", ErrValidation)
	ErrInvoiceStatusInvalid   = fmt.Errorf("%w: invoice is already paid or cancelled", ErrInvalidState)
	ErrInvoiceStatusConflict  = fmt.Errorf("%w: invoice status changed concurrently", ErrConflict)
	ErrCustomerNotFound       = fmt.Errorf("%w: customer", ErrNotFound)
	ErrProductNotFound        = fmt.Errorf("%w: product", ErrNotFound)
	ErrProductQuantityInvalid = fmt.Errorf("%w: product quantity must be positive", ErrValidation)
	ErrProductStockShort      = fmt.Errorf("%w: product stock is insufficient", ErrValidation)
	ErrProductUnavailable     = fmt.Errorf("%w: product is not on sale", ErrValidation)
	ErrProductSKUExists       = fmt.Errorf("%w: product sku already exists", ErrConflict)
)

// 评价
var (
	ErrRatingScoreInvalid   = fmt.Errorf("%w: score must be between 1 and 5", ErrValidation)
	ErrRatingCommentInvalid = fmt.Errorf("%w: comment must be 1-500 characters", ErrValidation)
	ErrAlreadyRated         = fmt.Errorf("%w: service already rated", ErrConflict)
	ErrRatingForbidden      = fmt.Errorf("%w: service belongs to another customer", ErrNotFound)
)
