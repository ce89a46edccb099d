package service

import (
	"strings"
	"unicode/utf8"

	"github.com/petcare-next/internal/constants"
	"github.com/petcare-next/internal/logger"
	"github.com/petcare-next/internal/models"
	"github.com/petcare-next/internal/pkg/clock"
	"github.com/petcare-next/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// RatingService 服务评价与账单评分汇总
type RatingService struct {
	instanceRepo repository.ServiceInstanceRepository
	invoiceRepo  repository.InvoiceRepository
	clock        clock.Clock
}

// NewRatingService 创建评价服务
func NewRatingService(instanceRepo repository.ServiceInstanceRepository, invoiceRepo repository.InvoiceRepository, clk clock.Clock) *RatingService {
	if clk == nil {
		clk = clock.NewRealClock()
	}
	return &RatingService{
		instanceRepo: instanceRepo,
		invoiceRepo:  invoiceRepo,
		clock:        clk,
	}
}

// RateServiceInput 评价输入，CustomerID 为 0 表示前台代录
type RateServiceInput struct {
	ServiceInstanceID uint
	CustomerID        uint
	Quality           int
	Attitude          int
	Satisfaction      int
	Comment           string
}

// RatingResult 评价结果
type RatingResult struct {
	ServiceInstance     *models.ServiceInstance `json:"service_instance"`
	InvoiceID           *uint                   `json:"invoice_id,omitempty"`
	StaffAttitudeRating *int                    `json:"staff_attitude_rating,omitempty"`
	OverallSatisfaction *int                    `json:"overall_satisfaction,omitempty"`
}

// RateServiceInstance 每个服务只能评价一次；已开单的服务同步重算账单汇总
func (s *RatingService) RateServiceInstance(input RateServiceInput) (*RatingResult, error) {
	if input.ServiceInstanceID == 0 {
		return nil, ErrServiceInstanceNotFound
	}
	if err := validateRatingScores(input.Quality, input.Attitude, input.Satisfaction); err != nil {
		return nil, err
	}
	comment, err := normalizeRatingComment(input.Comment)
	if err != nil {
		return nil, err
	}

	result := &RatingResult{}
	err = models.DB.Transaction(func(tx *gorm.DB) error {
		instanceRepo := s.instanceRepo.WithTx(tx)
		invoiceRepo := s.invoiceRepo.WithTx(tx)

		instance, err := instanceRepo.GetByIDForUpdate(input.ServiceInstanceID)
		if err != nil {
			return err
		}
		if instance == nil {
			return ErrServiceInstanceNotFound
		}
		if input.CustomerID != 0 && instance.CustomerID != input.CustomerID {
			return ErrRatingForbidden
		}
		if instance.Rated {
			return ErrAlreadyRated
		}
		if instance.IsInvoiced() {
			// 锁住账单行，使同一账单的并发评价串行汇总
			invoice, err := invoiceRepo.GetByIDForUpdate(*instance.InvoiceID)
			if err != nil {
				return err
			}
			if invoice == nil {
				return ErrInvoiceNotFound
			}
		}

		marked, err := instanceRepo.MarkRated(instance.ID, repository.ServiceRating{
			Quality:      input.Quality,
			Attitude:     input.Attitude,
			Satisfaction: input.Satisfaction,
			Comment:      comment,
		}, s.clock.Now())
		if err != nil {
			return err
		}
		if !marked {
			return ErrAlreadyRated
		}

		if instance.IsInvoiced() {
			attitude, satisfaction, err := recomputeInvoiceRatings(instanceRepo, invoiceRepo, *instance.InvoiceID)
			if err != nil {
				return err
			}
			result.InvoiceID = instance.InvoiceID
			result.StaffAttitudeRating = attitude
			result.OverallSatisfaction = satisfaction
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	instance, err := s.instanceRepo.GetByID(input.ServiceInstanceID)
	if err != nil {
		return nil, err
	}
	result.ServiceInstance = instance
	logger.Infow("service_instance_rated",
		"service_instance_id", input.ServiceInstanceID,
		"customer_id", input.CustomerID,
		"invoice_id", result.InvoiceID,
		"staff_attitude_rating", result.StaffAttitudeRating,
		"overall_satisfaction", result.OverallSatisfaction,
	)
	return result, nil
}

// recomputeInvoiceRatings 按账单下全部已评价服务重算汇总，结果与评价顺序无关
func recomputeInvoiceRatings(instanceRepo repository.ServiceInstanceRepository, invoiceRepo repository.InvoiceRepository, invoiceID uint) (*int, *int, error) {
	rated, err := instanceRepo.ListRatedByInvoice(invoiceID)
	if err != nil {
		return nil, nil, err
	}
	attitudes := make([]int, 0, len(rated))
	satisfactions := make([]int, 0, len(rated))
	for _, instance := range rated {
		if instance.AttitudeRating != nil {
			attitudes = append(attitudes, *instance.AttitudeRating)
		}
		if instance.SatisfactionRating != nil {
			satisfactions = append(satisfactions, *instance.SatisfactionRating)
		}
	}
	attitude := roundedMean(attitudes)
	satisfaction := roundedMean(satisfactions)
	if err := invoiceRepo.UpdateRatingAggregates(invoiceID, attitude, satisfaction); err != nil {
		return nil, nil, err
	}
	return attitude, satisfaction, nil
}

// roundedMean 平均值四舍五入到整数，空集返回 nil
func roundedMean(scores []int) *int {
	if len(scores) == 0 {
		return nil
	}
	sum := decimal.Zero
	for _, score := range scores {
		sum = sum.Add(decimal.NewFromInt(int64(score)))
	}
	mean := sum.Div(decimal.NewFromInt(int64(len(scores)))).Round(0)
	value := int(mean.IntPart())
	return &value
}

func validateRatingScores(scores ...int) error {
	for _, score := range scores {
		if score < constants.RatingScoreMin || score > constants.RatingScoreMax {
			return ErrRatingScoreInvalid
		}
	}
	return nil
}

func normalizeRatingComment(raw string) (string, error) {
	comment := strings.TrimSpace(raw)
	if comment == "" || utf8.RuneCountInString(comment) > constants.RatingCommentMaxLength {
		return "", ErrRatingCommentInvalid
	}
	return comment, nil
}
