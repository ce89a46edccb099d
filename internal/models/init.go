package models

import (
	"github.com/petcare-next/internal/constants"
	"github.com/petcare-next/internal/logger"
)

var defaultServiceTypeNames = map[constants.ServiceTypeCode]string{
	constants.ServiceTypePurchase:       "Product purchase",
	constants.ServiceTypeSingleVaccine:  "Single vaccine",
	constants.ServiceTypeVaccinePackage: "Vaccine package",
	constants.ServiceTypeMedicalExam:    "Medical exam",
}

// InitDefaultServiceTypes 补齐缺失的服务类型行，已存在的不覆盖
func InitDefaultServiceTypes() error {
	for _, code := range constants.AllServiceTypes {
		var count int64
		if err := DB.Model(&ServiceType{}).Where("code = ?", code).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			continue
		}
		row := ServiceType{
			Code:      code,
			Name:      defaultServiceTypeNames[code],
			BasePrice: ZeroMoney(),
		}
		if err := DB.Create(&row).Error; err != nil {
			return err
		}
		logger.Infow("default_service_type_created", "code", code)
	}
	return nil
}
