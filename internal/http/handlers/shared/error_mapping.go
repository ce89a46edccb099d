package shared

import (
	"errors"

	"github.com/petcare-next/internal/http/response"
	"github.com/petcare-next/internal/service"

	"github.com/gin-gonic/gin"
)

// MappedHandlerError 定义业务错误到接口错误响应的映射关系。
type MappedHandlerError struct {
	Target error
	Code   int
	Key    string
}

// categoryErrorRules 错误分类兜底，具体错误未命中时按分类返回。
var categoryErrorRules = []MappedHandlerError{
	{Target: service.ErrValidation, Code: response.CodeBadRequest, Key: "error.bad_request"},
	{Target: service.ErrNotFound, Code: response.CodeNotFound, Key: "error.not_found"},
	{Target: service.ErrConflict, Code: response.CodeConflict, Key: "error.conflict"},
	{Target: service.ErrInvalidState, Code: response.CodeUnprocessable, Key: "error.invalid_state"},
}

// CatalogErrorRules 服务目录相关错误
var CatalogErrorRules = []MappedHandlerError{
	{Target: service.ErrServiceTypeInvalid, Code: response.CodeBadRequest, Key: "error.service_type_invalid"},
	{Target: service.ErrServiceTypeNotFound, Code: response.CodeNotFound, Key: "error.service_type_not_found"},
	{Target: service.ErrPriceInvalid, Code: response.CodeBadRequest, Key: "error.price_invalid"},
	{Target: service.ErrPurchasePriceNonZero, Code: response.CodeBadRequest, Key: "error.purchase_price_non_zero"},
	{Target: service.ErrVaccineNotFound, Code: response.CodeNotFound, Key: "error.vaccine_not_found"},
	{Target: service.ErrVaccinePackageNotFound, Code: response.CodeNotFound, Key: "error.vaccine_package_not_found"},
	{Target: service.ErrAddOnNotAllowed, Code: response.CodeBadRequest, Key: "error.add_on_not_allowed"},
}

// PromotionErrorRules 门店活动相关错误
var PromotionErrorRules = []MappedHandlerError{
	{Target: service.ErrPromotionNotFound, Code: response.CodeNotFound, Key: "error.promotion_not_found"},
	{Target: service.ErrPromotionRateInvalid, Code: response.CodeBadRequest, Key: "error.promotion_rate_invalid"},
	{Target: service.ErrPromotionWindowInvalid, Code: response.CodeBadRequest, Key: "error.promotion_window_invalid"},
	{Target: service.ErrPromotionAudience, Code: response.CodeBadRequest, Key: "error.promotion_audience_invalid"},
	{Target: service.ErrPromotionServiceTypes, Code: response.CodeBadRequest, Key: "error.promotion_service_types"},
	{Target: service.ErrPromotionBranchRequired, Code: response.CodeBadRequest, Key: "error.promotion_branch_required"},
	{Target: service.ErrPromotionInUse, Code: response.CodeConflict, Key: "error.promotion_in_use"},
	{Target: service.ErrDescriptionTooLong, Code: response.CodeBadRequest, Key: "error.description_too_long"},
	{Target: service.ErrMembershipTierInvalid, Code: response.CodeBadRequest, Key: "error.membership_tier_invalid"},
	{Target: service.ErrServiceTypeInvalid, Code: response.CodeBadRequest, Key: "error.service_type_invalid"},
}

// ServiceInstanceErrorRules 服务记录相关错误
var ServiceInstanceErrorRules = []MappedHandlerError{
	{Target: service.ErrServiceInstanceNotFound, Code: response.CodeNotFound, Key: "error.service_instance_not_found"},
	{Target: service.ErrServiceInstanceInvalid, Code: response.CodeBadRequest, Key: "error.service_instance_invalid"},
	{Target: service.ErrServiceInstanceBilled, Code: response.CodeConflict, Key: "error.service_instance_billed"},
	{Target: service.ErrServiceInstanceLocked, Code: response.CodeUnprocessable, Key: "error.service_instance_locked"},
	{Target: service.ErrCustomerNotFound, Code: response.CodeNotFound, Key: "error.customer_not_found"},
}

// InvoiceErrorRules 账单相关错误
var InvoiceErrorRules = []MappedHandlerError{
	{Target: service.ErrInvoiceNotFound, Code: response.CodeNotFound, Key: "error.invoice_not_found"},
	{Target: service.ErrInvoiceEmpty, Code: response.CodeBadRequest, Key: "error.invoice_empty"},
	{Target: service.ErrInvoiceOwnerMismatch, Code: response.CodeBadRequest, Key: "error.invoice_owner_mismatch"},
	{Target: service.ErrInvoiceDuplicateItem, Code: response.CodeBadRequest, Key: "error.invoice_duplicate_item"},
	{Target: service.ErrPaymentMethodInvalid, Code: response.CodeBadRequest, Key: "error.payment_method_invalid"},
	{Target: service.ErrInvoiceStatusInvalid, Code: response.CodeUnprocessable, Key: "error.invoice_status_invalid"},
	{Target: service.ErrInvoiceStatusConflict, Code: response.CodeConflict, Key: "error.invoice_status_conflict"},
	{Target: service.ErrProductNotFound, Code: response.CodeNotFound, Key: "error.product_not_found"},
	{Target: service.ErrProductQuantityInvalid, Code: response.CodeBadRequest, Key: "error.product_quantity_invalid"},
	{Target: service.ErrProductStockShort, Code: response.CodeBadRequest, Key: "error.product_stock_short"},
	{Target: service.ErrProductUnavailable, Code: response.CodeBadRequest, Key: "error.product_unavailable"},
}

// RatingErrorRules 评价相关错误
var RatingErrorRules = []MappedHandlerError{
	{Target: service.ErrRatingScoreInvalid, Code: response.CodeBadRequest, Key: "error.rating_score_invalid"},
	{Target: service.ErrRatingCommentInvalid, Code: response.CodeBadRequest, Key: "error.rating_comment_invalid"},
	{Target: service.ErrAlreadyRated, Code: response.CodeConflict, Key: "error.already_rated"},
	{Target: service.ErrRatingForbidden, Code: response.CodeNotFound, Key: "error.service_instance_not_found"},
	{Target: service.ErrServiceInstanceNotFound, Code: response.CodeNotFound, Key: "error.service_instance_not_found"},
}

// RespondWithMappedError 按规则映射业务错误，未命中具体规则时按错误分类兜底，
// 仍未命中则返回 fallback 并记录原始错误。
func RespondWithMappedError(c *gin.Context, err error, rules []MappedHandlerError, fallbackCode int, fallbackKey string) {
	for _, rule := range rules {
		if errors.Is(err, rule.Target) {
			RespondError(c, rule.Code, rule.Key, nil)
			return
		}
	}
	for _, rule := range categoryErrorRules {
		if errors.Is(err, rule.Target) {
			RequestLog(c).Warnw("handler_error_category_fallback", "error", err)
			RespondError(c, rule.Code, rule.Key, nil)
			return
		}
	}
	RespondError(c, fallbackCode, fallbackKey, err)
}

// ConcatMappedHandlerErrors 合并多组映射规则。
func ConcatMappedHandlerErrors(groups ...[]MappedHandlerError) []MappedHandlerError {
	total := 0
	for _, group := range groups {
		total += len(group)
	}
	result := make([]MappedHandlerError, 0, total)
	for _, group := range groups {
		result = append(result, group...)
	}
	return result
}
