package service

import (
	"errors"
	"testing"

	"github.com/petcare-next/internal/constants"
	"github.com/petcare-next/internal/models"
	"github.com/petcare-next/internal/repository"
)

func TestRecordServiceSnapshotsPrices(t *testing.T) {
	f := setupEngineTest(t, constants.TaxBaseGross)
	customer := f.createCustomer(t, constants.MembershipTierBasic)
	vaccine := &models.Vaccine{Name: "Rabies", Price: models.NewMoneyFromInt(80000), IsActive: true}
	if err := f.catalogRepo.CreateVaccine(vaccine); err != nil {
		t.Fatalf("create vaccine failed: %v", err)
	}
	pkg := &models.VaccinePackage{Name: "Puppy set", Price: models.NewMoneyFromInt(450000), VaccineIDs: models.UintArray{vaccine.ID}, IsActive: true}
	if err := f.catalogRepo.CreatePackage(pkg); err != nil {
		t.Fatalf("create package failed: %v", err)
	}

	single, err := f.instances.Record(RecordServiceInput{
		CustomerID:  customer.ID,
		BranchID:    testBranchID,
		StaffID:     testStaffID,
		ServiceType: "single-vaccine",
		PerformedAt: insideWindow,
		VaccineID:   &vaccine.ID,
	})
	if err != nil {
		t.Fatalf("record single vaccine failed: %v", err)
	}
	assertMoney(t, "base price", single.BasePrice, 100000)
	assertMoney(t, "vaccine cost", single.VaccineCost, 80000)
	assertMoney(t, "package cost", single.PackageCost, 0)

	bundle, err := f.instances.Record(RecordServiceInput{
		CustomerID:  customer.ID,
		BranchID:    testBranchID,
		StaffID:     testStaffID,
		ServiceType: "vaccine_package",
		PackageID:   &pkg.ID,
	})
	if err != nil {
		t.Fatalf("record package failed: %v", err)
	}
	assertMoney(t, "package cost", bundle.PackageCost, 450000)
	if !bundle.PerformedAt.Equal(testNow) {
		t.Fatalf("performed at want clock now got %v", bundle.PerformedAt)
	}

	purchase, err := f.instances.Record(RecordServiceInput{
		CustomerID:  customer.ID,
		BranchID:    testBranchID,
		StaffID:     testStaffID,
		ServiceType: "purchase",
	})
	if err != nil {
		t.Fatalf("record purchase failed: %v", err)
	}
	assertMoney(t, "purchase base price", purchase.BasePrice, 0)

	unbilled, total, err := f.instances.List(repository.ServiceInstanceListFilter{CustomerID: customer.ID, OnlyUnbilled: true})
	if err != nil {
		t.Fatalf("list instances failed: %v", err)
	}
	if total != 3 || len(unbilled) != 3 {
		t.Fatalf("unbilled instances want 3 got %d", total)
	}
}

func TestRecordServiceRejectsMismatchedAddOns(t *testing.T) {
	f := setupEngineTest(t, constants.TaxBaseGross)
	customer := f.createCustomer(t, constants.MembershipTierBasic)
	vaccine := &models.Vaccine{Name: "Rabies", Price: models.NewMoneyFromInt(80000), IsActive: true}
	if err := f.catalogRepo.CreateVaccine(vaccine); err != nil {
		t.Fatalf("create vaccine failed: %v", err)
	}
	missingID := uint(9999)

	cases := []struct {
		name  string
		input RecordServiceInput
		want  error
	}{
		{
			name:  "exam with vaccine",
			input: RecordServiceInput{ServiceType: "medical_exam", VaccineID: &vaccine.ID},
			want:  ErrAddOnNotAllowed,
		},
		{
			name:  "single vaccine without vaccine",
			input: RecordServiceInput{ServiceType: "single_vaccine"},
			want:  ErrAddOnNotAllowed,
		},
		{
			name:  "package with vaccine",
			input: RecordServiceInput{ServiceType: "vaccine_package", VaccineID: &vaccine.ID},
			want:  ErrAddOnNotAllowed,
		},
		{
			name:  "unknown vaccine",
			input: RecordServiceInput{ServiceType: "single_vaccine", VaccineID: &missingID},
			want:  ErrVaccineNotFound,
		},
		{
			name:  "unknown type",
			input: RecordServiceInput{ServiceType: "grooming"},
			want:  ErrServiceTypeInvalid,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			input := tc.input
			input.CustomerID = customer.ID
			input.BranchID = testBranchID
			input.StaffID = testStaffID
			if _, err := f.instances.Record(input); !errors.Is(err, tc.want) {
				t.Fatalf("want %v got %v", tc.want, err)
			}
		})
	}

	if _, err := f.instances.Record(RecordServiceInput{CustomerID: 12345, BranchID: testBranchID, StaffID: testStaffID, ServiceType: "medical_exam"}); !errors.Is(err, ErrCustomerNotFound) {
		t.Fatalf("unknown customer want ErrCustomerNotFound got %v", err)
	}
}
