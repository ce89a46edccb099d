package i18n

var catalog = map[string]map[string]string{
	LocaleZhCN: {
		"error.bad_request":            "请求参数错误",
		"error.unauthorized":           "未登录或登录已失效",
		"error.forbidden":              "无权访问该资源",
		"error.not_found":              "资源不存在",
		"error.conflict":               "资源状态冲突",
		"error.invalid_state":          "当前状态不允许该操作",
		"error.internal_error":         "服务器内部错误",
		"error.too_many_requests":      "请求过于频繁，请稍后再试",
		"error.rate_limited":           "操作过于频繁，请 %d 秒后再试",
		"error.rate_limit_unavailable": "限流服务暂不可用",
		"error.token_invalid":          "令牌无效或已过期",
		"error.auth_header_missing":    "缺少认证信息",
		"error.auth_header_invalid":    "认证信息格式错误",
		"error.jwt_secret_missing":     "服务端未配置令牌密钥",
		"error.role_invalid":           "账号角色无效",
		"error.account_id_invalid":     "账号 ID 无效",
		"error.account_id_type":        "账号 ID 类型错误",

		"error.service_type_invalid":       "服务类型不存在",
		"error.service_type_not_found":     "服务类型尚未配置价格",
		"error.price_invalid":              "价格不能为负数",
		"error.purchase_price_non_zero":    "购买类服务的基础价必须为 0",
		"error.vaccine_not_found":          "疫苗不存在",
		"error.vaccine_package_not_found":  "疫苗套餐不存在",
		"error.add_on_not_allowed":         "附加项目与服务类型不匹配",
		"error.promotion_not_found":        "活动不存在",
		"error.promotion_rate_invalid":     "折扣率必须在 5% 到 15% 之间",
		"error.promotion_window_invalid":   "活动结束时间不能早于开始时间",
		"error.promotion_audience_invalid": "活动受众不合法",
		"error.promotion_service_types":    "活动至少需要一个服务类型",
		"error.promotion_branch_required":  "活动必须指定门店",
		"error.promotion_in_use":           "活动已被已支付账单引用，不可修改或删除",
		"error.description_too_long":       "描述不能超过 500 个字符",
		"error.membership_tier_invalid":    "会员等级不合法",
		"error.service_instance_not_found": "服务记录不存在",
		"error.service_instance_invalid":   "服务记录参数缺失",
		"error.service_instance_billed":    "服务已开具账单",
		"error.service_instance_locked":    "服务所属账单已结清，不可修改",
		"error.invoice_not_found":          "账单不存在",
		"error.invoice_empty":              "账单至少需要一项服务或商品",
		"error.invoice_owner_mismatch":     "服务必须属于同一客户与门店",
		"error.invoice_duplicate_item":     "服务记录重复",
		"error.payment_method_invalid":     "不支持的支付方式",
		"error.invoice_status_invalid":     "账单已支付或已取消",
		"error.invoice_status_conflict":    "账单状态已被并发修改",
		"error.customer_not_found":         "客户不存在",
		"error.product_not_found":          "商品不存在",
		"error.product_quantity_invalid":   "商品数量必须大于 0",
		"error.product_stock_short":        "商品库存不足",
		"error.product_unavailable":        "商品未上架",
		"error.product_sku_exists":         "商品编码已存在",
		"error.rating_score_invalid":       "评分必须在 1 到 5 之间",
		"error.rating_comment_invalid":     "评价内容需为 1 到 500 个字符",
		"error.already_rated":              "该服务已评价",

		"error.catalog_fetch_failed":   "获取服务目录失败",
		"error.catalog_update_failed":  "更新服务目录失败",
		"error.promotion_save_failed":  "保存活动失败",
		"error.promotion_fetch_failed": "获取活动失败",
		"error.service_record_failed":  "记录服务失败",
		"error.service_fetch_failed":   "获取服务记录失败",
		"error.quote_failed":           "计费预览失败",
		"error.invoice_save_failed":    "保存账单失败",
		"error.invoice_fetch_failed":   "获取账单失败",
		"error.rating_failed":          "提交评价失败",
		"error.product_fetch_failed":   "获取商品失败",
		"error.product_save_failed":    "保存商品失败",

		"error.authz_role_required":   "角色名称不能为空",
		"error.authz_role_reserved":   "该角色名称为系统保留",
		"error.authz_role_builtin":    "预置角色不可删除",
		"error.authz_action_required": "请求方法不能为空",
		"error.authz_object_scope":    "权限路径必须位于 /customer、/staff 或 /admin 下",
	},
	LocaleEnUS: {
		"error.bad_request":            "Invalid request parameters",
		"error.unauthorized":           "Not signed in or session expired",
		"error.forbidden":              "Access to this resource is denied",
		"error.not_found":              "Resource not found",
		"error.conflict":               "Resource state conflict",
		"error.invalid_state":          "Operation not allowed in the current state",
		"error.internal_error":         "Internal server error",
		"error.too_many_requests":      "Too many requests, please retry later",
		"error.rate_limited":           "Too many attempts, please retry in %d seconds",
		"error.rate_limit_unavailable": "Rate limiter unavailable",
		"error.token_invalid":          "Token is invalid or expired",
		"error.auth_header_missing":    "Authorization header is missing",
		"error.auth_header_invalid":    "Authorization header is malformed",
		"error.jwt_secret_missing":     "Token secret is not configured",
		"error.role_invalid":           "Account role is not recognised",
		"error.account_id_invalid":     "Account id is invalid",
		"error.account_id_type":        "Account id has an unexpected type",

		"error.service_type_invalid":       "Unknown service type",
		"error.service_type_not_found":     "Service type has no configured price",
		"error.price_invalid":              "Price must not be negative",
		"error.purchase_price_non_zero":    "Purchase base price must be zero",
		"error.vaccine_not_found":          "Vaccine not found",
		"error.vaccine_package_not_found":  "Vaccine package not found",
		"error.add_on_not_allowed":         "Add-on does not match the service type",
		"error.promotion_not_found":        "Promotion not found",
		"error.promotion_rate_invalid":     "Discount rate must be between 5% and 15%",
		"error.promotion_window_invalid":   "Promotion must not end before it starts",
		"error.promotion_audience_invalid": "Promotion audience is not recognised",
		"error.promotion_service_types":    "Promotion needs at least one service type",
		"error.promotion_branch_required":  "Promotion branch is required",
		"error.promotion_in_use":           "Promotion is referenced by a paid invoice",
		"error.description_too_long":       "Description must be at most 500 characters",
		"error.membership_tier_invalid":    "Membership tier is not recognised",
		"error.service_instance_not_found": "Service record not found",
		"error.service_instance_invalid":   "Service record fields are missing",
		"error.service_instance_billed":    "Service has already been invoiced",
		"error.service_instance_locked":    "Service belongs to a settled invoice",
		"error.invoice_not_found":          "Invoice not found",
		"error.invoice_empty":              "Invoice needs at least one service or product",
		"error.invoice_owner_mismatch":     "Services must share customer and branch",
		"error.invoice_duplicate_item":     "Duplicated service record",
		"error.payment_method_invalid":     "Payment method is not supported",
		"error.invoice_status_invalid":     "Invoice is already paid or cancelled",
		"error.invoice_status_conflict":    "Invoice status changed concurrently",
		"error.customer_not_found":         "Customer not found",
		"error.product_not_found":          "Product not found",
		"error.product_quantity_invalid":   "Product quantity must be positive",
		"error.product_stock_short":        "Product stock is insufficient",
		"error.product_unavailable":        "Product is not on sale",
		"error.product_sku_exists":         "Product SKU already exists",
		"error.rating_score_invalid":       "Score must be between 1 and 5",
		"error.rating_comment_invalid":     "Comment must be 1-500 characters",
		"error.already_rated":              "Service has already been rated",

		"error.catalog_fetch_failed":   "Failed to load service catalog",
		"error.catalog_update_failed":  "Failed to update service catalog",
		"error.promotion_save_failed":  "Failed to save promotion",
		"error.promotion_fetch_failed": "Failed to load promotions",
		"error.service_record_failed":  "Failed to record service",
		"error.service_fetch_failed":   "Failed to load service records",
		"error.quote_failed":           "Failed to price service",
		"error.invoice_save_failed":    "Failed to save invoice",
		"error.invoice_fetch_failed":   "Failed to load invoices",
		"error.rating_failed":          "Failed to submit rating",
		"error.product_fetch_failed":   "Failed to load products",
		"error.product_save_failed":    "Failed to save product",

		"error.authz_role_required":   "Role name is required",
		"error.authz_role_reserved":   "Role name is reserved",
		"error.authz_role_builtin":    "Builtin roles cannot be deleted",
		"error.authz_action_required": "HTTP method is required",
		"error.authz_object_scope":    "Permission path must be under /customer, /staff or /admin",
	},
}
