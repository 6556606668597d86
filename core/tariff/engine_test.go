package tariff_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"grd-pricing/core/tariff"
	"grd-pricing/internal/errors"
)

// fakeRepo is an in-memory Repository for engine tests.
type fakeRepo struct {
	data map[string]*tariff.ContractTariff
	err  error
}

func (f *fakeRepo) FindByContractID(ctx context.Context, contractID string) (*tariff.ContractTariff, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.data[contractID], nil
}

func datePtr(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func money(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func newEngine(primary, attachment tariff.Repository) *tariff.Engine {
	sources := tariff.NewSources(nil, zap.NewNop())
	sources.Configure(tariff.ConfigureOptions{Primary: primary, Attachment: attachment})
	return tariff.NewEngine(sources, zap.NewNop())
}

// TestResolveFlatContract verifies validity selection on a flat contract with
// multiple time-bounded versions
func TestResolveFlatContract(t *testing.T) {
	repo := &fakeRepo{data: map[string]*tariff.ContractTariff{
		"CH0041": {
			ContractID: "CH0041",
			Scheme:     tariff.FlatPrice,
			Entries: []tariff.PriceEntry{
				{Value: money("150000"), Validity: tariff.Validity{From: datePtr(2023, 1, 1), To: datePtr(2024, 8, 28)}},
				{Value: money("156300"), Validity: tariff.Validity{From: datePtr(2024, 8, 29), To: datePtr(2025, 8, 28)}},
			},
		},
	}}
	engine := newEngine(repo, nil)

	tests := []struct {
		name string
		date time.Time
		want string
	}{
		{"first period", time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC), "150000"},
		{"second period", time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC), "156300"},
		{"period boundary inclusive", time.Date(2024, 8, 28, 0, 0, 0, 0, time.UTC), "150000"},
		{"after all periods falls back to most recent", time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), "156300"},
		{"before all periods falls back to most recent", time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC), "156300"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resolved, err := engine.ResolveBasePrice(context.Background(), tariff.ResolveRequest{
				ContractID:     "CH0041",
				RelativeWeight: 1.2,
				ReferenceDate:  tt.date,
			})
			if err != nil {
				t.Fatalf("ResolveBasePrice: %v", err)
			}
			if !resolved.Value.Equal(money(tt.want)) {
				t.Errorf("value = %s, want %s", resolved.Value, tt.want)
			}
			if resolved.Tier != tariff.TierNone {
				t.Errorf("flat contract resolved with tier %s", resolved.Tier)
			}
		})
	}
}

// TestResolveTieredContract verifies tier selection happens before validity
func TestResolveTieredContract(t *testing.T) {
	repo := &fakeRepo{data: map[string]*tariff.ContractTariff{
		"FNS012": {
			ContractID: "FNS012",
			Scheme:     tariff.TieredByWeight,
			Entries: []tariff.PriceEntry{
				{Tier: tariff.Tier1, Value: money("100000"), Validity: tariff.Validity{From: datePtr(2024, 1, 1)}},
				{Tier: tariff.Tier2, Value: money("150000"), Validity: tariff.Validity{From: datePtr(2024, 1, 1)}},
				{Tier: tariff.Tier3, Value: money("200000"), Validity: tariff.Validity{From: datePtr(2024, 1, 1)}},
			},
		},
	}}
	engine := newEngine(repo, nil)
	refDate := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		weight   float64
		wantTier tariff.TierLabel
		want     string
	}{
		{0.9, tariff.Tier1, "100000"},
		{1.5, tariff.Tier1, "100000"},
		{2.5, tariff.Tier2, "150000"},
		{2.50001, tariff.Tier3, "200000"},
	}

	for _, tt := range tests {
		resolved, err := engine.ResolveBasePrice(context.Background(), tariff.ResolveRequest{
			ContractID:     "FNS012",
			RelativeWeight: tt.weight,
			ReferenceDate:  refDate,
		})
		if err != nil {
			t.Fatalf("weight %v: %v", tt.weight, err)
		}
		if resolved.Tier != tt.wantTier {
			t.Errorf("weight %v: tier = %s, want %s", tt.weight, resolved.Tier, tt.wantTier)
		}
		if !resolved.Value.Equal(money(tt.want)) {
			t.Errorf("weight %v: value = %s, want %s", tt.weight, resolved.Value, tt.want)
		}
		if resolved.TierRange == nil || resolved.TierRange.Label != tt.wantTier {
			t.Errorf("weight %v: missing tier range", tt.weight)
		}
	}
}

// TestResolveTierWithoutEntries verifies TARIFF_NOT_IN_FORCE when the matched
// tier has no rows at all
func TestResolveTierWithoutEntries(t *testing.T) {
	repo := &fakeRepo{data: map[string]*tariff.ContractTariff{
		"FNS012": {
			ContractID: "FNS012",
			Scheme:     tariff.TieredByWeight,
			Entries: []tariff.PriceEntry{
				{Tier: tariff.Tier1, Value: money("100000")},
			},
		},
	}}
	engine := newEngine(repo, nil)

	_, err := engine.ResolveBasePrice(context.Background(), tariff.ResolveRequest{
		ContractID:     "FNS012",
		RelativeWeight: 3.0,
	})
	if !errors.IsCode(err, errors.CodeTariffNotInForce) {
		t.Errorf("error = %v, want code %s", err, errors.CodeTariffNotInForce)
	}
}

// TestResolveInvalidWeight verifies weight validation precedes any lookup
func TestResolveInvalidWeight(t *testing.T) {
	engine := newEngine(&fakeRepo{}, nil)

	for _, w := range []float64{0, -1} {
		_, err := engine.ResolveBasePrice(context.Background(), tariff.ResolveRequest{
			ContractID:     "CH0041",
			RelativeWeight: w,
		})
		if !errors.IsCode(err, errors.CodeInvalidWeight) {
			t.Errorf("weight %v: error = %v, want code %s", w, err, errors.CodeInvalidWeight)
		}
	}
}

// TestResolveUnknownContract verifies CONTRACT_UNAVAILABLE
func TestResolveUnknownContract(t *testing.T) {
	engine := newEngine(&fakeRepo{data: map[string]*tariff.ContractTariff{}}, nil)

	_, err := engine.ResolveBasePrice(context.Background(), tariff.ResolveRequest{
		ContractID:     "NOPE",
		RelativeWeight: 1.0,
	})
	if !errors.IsCode(err, errors.CodeContractUnavailable) {
		t.Errorf("error = %v, want code %s", err, errors.CodeContractUnavailable)
	}
}

// TestResolveIsRepeatable verifies re-resolving the same request yields the
// same answer
func TestResolveIsRepeatable(t *testing.T) {
	repo := &fakeRepo{data: map[string]*tariff.ContractTariff{
		"CH0041": {
			ContractID: "CH0041",
			Scheme:     tariff.FlatPrice,
			Entries:    []tariff.PriceEntry{{Value: money("150000")}},
		},
	}}
	engine := newEngine(repo, nil)
	req := tariff.ResolveRequest{
		ContractID:     "CH0041",
		RelativeWeight: 1.2,
		ReferenceDate:  time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
	}

	first, err := engine.ResolveBasePrice(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 5; i++ {
		again, err := engine.ResolveBasePrice(context.Background(), req)
		if err != nil {
			t.Fatal(err)
		}
		if !again.Value.Equal(first.Value) || again.Source != first.Source {
			t.Fatalf("resolution not repeatable: %+v vs %+v", again, first)
		}
	}
}
