package service

import (
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/petcare-next/internal/constants"
	"github.com/petcare-next/internal/models"
)

type ratingScores struct {
	attitude     int
	satisfaction int
}

func composeForRating(t *testing.T, f *engineFixture, count int) (*models.Invoice, []*models.ServiceInstance) {
	t.Helper()
	customer := f.createCustomer(t, constants.MembershipTierBasic)
	instances := make([]*models.ServiceInstance, 0, count)
	ids := make([]uint, 0, count)
	for i := 0; i < count; i++ {
		instance := f.createInstance(t, customer.ID, testBranchID, constants.ServiceTypeMedicalExam, 200000, beforeWindow)
		instances = append(instances, instance)
		ids = append(ids, instance.ID)
	}
	invoice, err := f.invoices.Compose(ComposeInvoiceInput{
		CustomerID:         customer.ID,
		BranchID:           testBranchID,
		ServiceInstanceIDs: ids,
		PaymentMethod:      constants.PaymentMethodCash,
	})
	if err != nil {
		t.Fatalf("compose invoice failed: %v", err)
	}
	return invoice, instances
}

func TestRatingAggregationIsOrderIndependent(t *testing.T) {
	orders := [][]ratingScores{
		{{attitude: 4, satisfaction: 5}, {attitude: 2, satisfaction: 3}},
		{{attitude: 2, satisfaction: 3}, {attitude: 4, satisfaction: 5}},
	}
	for _, order := range orders {
		f := setupEngineTest(t, constants.TaxBaseGross)
		invoice, instances := composeForRating(t, f, 2)
		for i, scores := range order {
			if _, err := f.ratings.RateServiceInstance(RateServiceInput{
				ServiceInstanceID: instances[i].ID,
				CustomerID:        invoice.CustomerID,
				Quality:           5,
				Attitude:          scores.attitude,
				Satisfaction:      scores.satisfaction,
				Comment:           "good visit",
			}); err != nil {
				t.Fatalf("rate instance failed: %v", err)
			}
		}
		reloaded, err := f.invoices.GetInvoice(invoice.ID)
		if err != nil {
			t.Fatalf("reload invoice failed: %v", err)
		}
		if reloaded.StaffAttitudeRating == nil || *reloaded.StaffAttitudeRating != 3 {
			t.Fatalf("attitude want 3 got %s", intValue(reloaded.StaffAttitudeRating))
		}
		if reloaded.OverallSatisfaction == nil || *reloaded.OverallSatisfaction != 4 {
			t.Fatalf("satisfaction want 4 got %s", intValue(reloaded.OverallSatisfaction))
		}
	}
}

func TestConcurrentRatingsOnSameInvoiceAreBothAggregated(t *testing.T) {
	f := setupEngineTest(t, constants.TaxBaseGross)
	invoice, instances := composeForRating(t, f, 2)
	scores := []ratingScores{{attitude: 5, satisfaction: 4}, {attitude: 2, satisfaction: 1}}

	var wg sync.WaitGroup
	errs := make([]error, len(instances))
	for i := range instances {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			_, errs[idx] = f.ratings.RateServiceInstance(RateServiceInput{
				ServiceInstanceID: instances[idx].ID,
				CustomerID:        invoice.CustomerID,
				Quality:           3,
				Attitude:          scores[idx].attitude,
				Satisfaction:      scores[idx].satisfaction,
				Comment:           "same visit",
			})
		}(i)
	}
	wg.Wait()
	for i, err := range errs {
		if err != nil {
			t.Fatalf("rate instance %d failed: %v", instances[i].ID, err)
		}
	}

	reloaded, err := f.invoices.GetInvoice(invoice.ID)
	if err != nil {
		t.Fatalf("reload invoice failed: %v", err)
	}
	// (5+2)/2 与 (4+1)/2 均四舍五入
	if reloaded.StaffAttitudeRating == nil || *reloaded.StaffAttitudeRating != 4 {
		t.Fatalf("attitude want 4 got %s", intValue(reloaded.StaffAttitudeRating))
	}
	if reloaded.OverallSatisfaction == nil || *reloaded.OverallSatisfaction != 3 {
		t.Fatalf("satisfaction want 3 got %s", intValue(reloaded.OverallSatisfaction))
	}
	for _, instance := range reloaded.ServiceInstances {
		if !instance.Rated {
			t.Fatalf("instance %d should be rated", instance.ID)
		}
	}
}

func TestRatingTwiceConflicts(t *testing.T) {
	f := setupEngineTest(t, constants.TaxBaseGross)
	invoice, instances := composeForRating(t, f, 1)
	input := RateServiceInput{
		ServiceInstanceID: instances[0].ID,
		CustomerID:        invoice.CustomerID,
		Quality:           4,
		Attitude:          4,
		Satisfaction:      4,
		Comment:           "fine",
	}
	result, err := f.ratings.RateServiceInstance(input)
	if err != nil {
		t.Fatalf("first rating failed: %v", err)
	}
	if result.OverallSatisfaction == nil || *result.OverallSatisfaction != 4 {
		t.Fatalf("result satisfaction want 4 got %s", intValue(result.OverallSatisfaction))
	}
	if !result.ServiceInstance.Rated || result.ServiceInstance.RatingComment != "fine" {
		t.Fatalf("instance not marked rated: %+v", result.ServiceInstance)
	}

	input.Attitude = 1
	if _, err := f.ratings.RateServiceInstance(input); !errors.Is(err, ErrConflict) {
		t.Fatalf("second rating want conflict got %v", err)
	}
	reloaded, err := f.instanceRepo.GetByID(instances[0].ID)
	if err != nil {
		t.Fatalf("reload instance failed: %v", err)
	}
	if reloaded.AttitudeRating == nil || *reloaded.AttitudeRating != 4 {
		t.Fatalf("attitude should stay 4 got %s", intValue(reloaded.AttitudeRating))
	}
}

func TestRatingValidationLeavesInstanceUntouched(t *testing.T) {
	f := setupEngineTest(t, constants.TaxBaseGross)
	invoice, instances := composeForRating(t, f, 1)
	base := RateServiceInput{
		ServiceInstanceID: instances[0].ID,
		CustomerID:        invoice.CustomerID,
		Quality:           3,
		Attitude:          3,
		Satisfaction:      3,
		Comment:           "ok",
	}
	cases := []struct {
		name   string
		mutate func(*RateServiceInput)
		want   error
	}{
		{name: "quality zero", mutate: func(in *RateServiceInput) { in.Quality = 0 }, want: ErrRatingScoreInvalid},
		{name: "attitude six", mutate: func(in *RateServiceInput) { in.Attitude = 6 }, want: ErrRatingScoreInvalid},
		{name: "satisfaction negative", mutate: func(in *RateServiceInput) { in.Satisfaction = -1 }, want: ErrRatingScoreInvalid},
		{name: "empty comment", mutate: func(in *RateServiceInput) { in.Comment = "" }, want: ErrRatingCommentInvalid},
		{name: "blank comment", mutate: func(in *RateServiceInput) { in.Comment = "   " }, want: ErrRatingCommentInvalid},
		{name: "long comment", mutate: func(in *RateServiceInput) { in.Comment = strings.Repeat("好", 501) }, want: ErrRatingCommentInvalid},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			input := base
			tc.mutate(&input)
			_, err := f.ratings.RateServiceInstance(input)
			if !errors.Is(err, tc.want) || !errors.Is(err, ErrValidation) {
				t.Fatalf("want %v got %v", tc.want, err)
			}
		})
	}
	reloaded, err := f.instanceRepo.GetByID(instances[0].ID)
	if err != nil {
		t.Fatalf("reload instance failed: %v", err)
	}
	if reloaded.Rated {
		t.Fatalf("instance should not be rated after rejected input")
	}

	base.Comment = strings.Repeat("好", 500)
	if _, err := f.ratings.RateServiceInstance(base); err != nil {
		t.Fatalf("500 rune comment should pass: %v", err)
	}
}

func TestRatingOtherCustomerIsNotFound(t *testing.T) {
	f := setupEngineTest(t, constants.TaxBaseGross)
	invoice, instances := composeForRating(t, f, 1)
	_, err := f.ratings.RateServiceInstance(RateServiceInput{
		ServiceInstanceID: instances[0].ID,
		CustomerID:        invoice.CustomerID + 50,
		Quality:           5,
		Attitude:          5,
		Satisfaction:      5,
		Comment:           "not mine",
	})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("foreign rating want not found got %v", err)
	}
}

func TestRatingAfterPaymentIsAllowed(t *testing.T) {
	f := setupEngineTest(t, constants.TaxBaseGross)
	invoice, instances := composeForRating(t, f, 1)
	if _, err := f.invoices.MarkPaid(invoice.ID, ""); err != nil {
		t.Fatalf("mark paid failed: %v", err)
	}
	result, err := f.ratings.RateServiceInstance(RateServiceInput{
		ServiceInstanceID: instances[0].ID,
		Quality:           2,
		Attitude:          5,
		Satisfaction:      1,
		Comment:           "recorded at front desk",
	})
	if err != nil {
		t.Fatalf("rating paid invoice failed: %v", err)
	}
	if result.StaffAttitudeRating == nil || *result.StaffAttitudeRating != 5 {
		t.Fatalf("attitude want 5 got %s", intValue(result.StaffAttitudeRating))
	}
}

func TestRatingBeforeInvoiceIsAggregatedOnCompose(t *testing.T) {
	f := setupEngineTest(t, constants.TaxBaseGross)
	customer := f.createCustomer(t, constants.MembershipTierBasic)
	rated := f.createInstance(t, customer.ID, testBranchID, constants.ServiceTypeMedicalExam, 200000, beforeWindow)
	plain := f.createInstance(t, customer.ID, testBranchID, constants.ServiceTypeMedicalExam, 200000, beforeWindow)

	result, err := f.ratings.RateServiceInstance(RateServiceInput{
		ServiceInstanceID: rated.ID,
		CustomerID:        customer.ID,
		Quality:           4,
		Attitude:          4,
		Satisfaction:      5,
		Comment:           "quick exam",
	})
	if err != nil {
		t.Fatalf("rating unbilled instance failed: %v", err)
	}
	if result.InvoiceID != nil || result.StaffAttitudeRating != nil {
		t.Fatalf("unbilled rating should not aggregate: %+v", result)
	}

	invoice, err := f.invoices.Compose(ComposeInvoiceInput{
		CustomerID:         customer.ID,
		BranchID:           testBranchID,
		ServiceInstanceIDs: []uint{rated.ID, plain.ID},
		PaymentMethod:      constants.PaymentMethodCash,
	})
	if err != nil {
		t.Fatalf("compose failed: %v", err)
	}
	if invoice.StaffAttitudeRating == nil || *invoice.StaffAttitudeRating != 4 {
		t.Fatalf("attitude want 4 got %s", intValue(invoice.StaffAttitudeRating))
	}
	if invoice.OverallSatisfaction == nil || *invoice.OverallSatisfaction != 5 {
		t.Fatalf("satisfaction want 5 got %s", intValue(invoice.OverallSatisfaction))
	}
}

func TestRoundedMean(t *testing.T) {
	cases := []struct {
		scores []int
		want   *int
	}{
		{scores: nil, want: nil},
		{scores: []int{3}, want: intPtr(3)},
		{scores: []int{4, 5}, want: intPtr(5)},
		{scores: []int{1, 2}, want: intPtr(2)},
		{scores: []int{1, 2, 2}, want: intPtr(2)},
		{scores: []int{1, 1, 2}, want: intPtr(1)},
	}
	for _, tc := range cases {
		got := roundedMean(tc.scores)
		if intValue(got) != intValue(tc.want) {
			t.Fatalf("roundedMean(%v) want %s got %s", tc.scores, intValue(tc.want), intValue(got))
		}
	}
}

func intPtr(value int) *int {
	return &value
}
