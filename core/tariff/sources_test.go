package tariff_test

import (
	"context"
	"sync"
	"testing"

	"go.uber.org/zap"

	"grd-pricing/core/tariff"
	"grd-pricing/internal/errors"
)

func contractFixture(id, price string) *tariff.ContractTariff {
	return &tariff.ContractTariff{
		ContractID: id,
		Scheme:     tariff.FlatPrice,
		Entries:    []tariff.PriceEntry{{Value: money(price)}},
	}
}

// TestSourcesUnavailable verifies the no-sources condition
func TestSourcesUnavailable(t *testing.T) {
	sources := tariff.NewSources(nil, zap.NewNop())

	_, _, err := sources.Resolve(context.Background(), "CH0041", tariff.PreferAuto)
	if !errors.IsCode(err, errors.CodeTariffSourceUnavailable) {
		t.Errorf("error = %v, want code %s", err, errors.CodeTariffSourceUnavailable)
	}
}

// TestSourcesPrecedence verifies primary wins over attachment under auto
func TestSourcesPrecedence(t *testing.T) {
	primary := &fakeRepo{data: map[string]*tariff.ContractTariff{
		"CH0041": contractFixture("CH0041", "111"),
	}}
	attachment := &fakeRepo{data: map[string]*tariff.ContractTariff{
		"CH0041": contractFixture("CH0041", "222"),
		"FNS012": contractFixture("FNS012", "333"),
	}}

	sources := tariff.NewSources(nil, zap.NewNop())
	sources.Configure(tariff.ConfigureOptions{Primary: primary, Attachment: attachment})

	data, kind, err := sources.Resolve(context.Background(), "CH0041", tariff.PreferAuto)
	if err != nil {
		t.Fatal(err)
	}
	if kind != tariff.SourcePrimary || !data.Entries[0].Value.Equal(money("111")) {
		t.Errorf("auto resolved from %s with %s, want primary/111", kind, data.Entries[0].Value)
	}

	// Contract only the attachment knows falls through
	data, kind, err = sources.Resolve(context.Background(), "FNS012", tariff.PreferAuto)
	if err != nil {
		t.Fatal(err)
	}
	if kind != tariff.SourceAttachment || !data.Entries[0].Value.Equal(money("333")) {
		t.Errorf("fallthrough resolved from %s, want attachment", kind)
	}
}

// TestSourcesPreferenceRestriction verifies primary-only and attachment-only
func TestSourcesPreferenceRestriction(t *testing.T) {
	primary := &fakeRepo{data: map[string]*tariff.ContractTariff{
		"CH0041": contractFixture("CH0041", "111"),
	}}
	attachment := &fakeRepo{data: map[string]*tariff.ContractTariff{
		"FNS012": contractFixture("FNS012", "333"),
	}}

	sources := tariff.NewSources(nil, zap.NewNop())
	sources.Configure(tariff.ConfigureOptions{Primary: primary, Attachment: attachment})

	if _, _, err := sources.Resolve(context.Background(), "FNS012", tariff.PreferPrimaryOnly); !errors.IsCode(err, errors.CodeContractUnavailable) {
		t.Errorf("primary-only for attachment contract: error = %v, want %s", err, errors.CodeContractUnavailable)
	}
	if _, _, err := sources.Resolve(context.Background(), "CH0041", tariff.PreferAttachmentOnly); !errors.IsCode(err, errors.CodeContractUnavailable) {
		t.Errorf("attachment-only for primary contract: error = %v, want %s", err, errors.CodeContractUnavailable)
	}
}

// TestSourcesClearPrimary verifies ClearPrimary disables the primary handle
func TestSourcesClearPrimary(t *testing.T) {
	primary := &fakeRepo{data: map[string]*tariff.ContractTariff{
		"CH0041": contractFixture("CH0041", "111"),
	}}
	attachment := &fakeRepo{data: map[string]*tariff.ContractTariff{
		"CH0041": contractFixture("CH0041", "222"),
	}}

	sources := tariff.NewSources(nil, zap.NewNop())
	sources.Configure(tariff.ConfigureOptions{Primary: primary, Attachment: attachment})
	sources.Configure(tariff.ConfigureOptions{ClearPrimary: true})

	_, kind, err := sources.Resolve(context.Background(), "CH0041", tariff.PreferAuto)
	if err != nil {
		t.Fatal(err)
	}
	if kind != tariff.SourceAttachment {
		t.Errorf("resolved from %s after ClearPrimary, want attachment", kind)
	}
}

// TestSourcesReset verifies Reset returns to the unconfigured state
func TestSourcesReset(t *testing.T) {
	primary := &fakeRepo{data: map[string]*tariff.ContractTariff{
		"CH0041": contractFixture("CH0041", "111"),
	}}

	sources := tariff.NewSources(nil, zap.NewNop())
	sources.Configure(tariff.ConfigureOptions{Primary: primary})
	sources.Reset()

	_, _, err := sources.Resolve(context.Background(), "CH0041", tariff.PreferAuto)
	if !errors.IsCode(err, errors.CodeTariffSourceUnavailable) {
		t.Errorf("error after Reset = %v, want code %s", err, errors.CodeTariffSourceUnavailable)
	}
}

// TestSourcesConcurrentReconfigure verifies resolutions racing with
// reconfiguration always observe a coherent source pair
func TestSourcesConcurrentReconfigure(t *testing.T) {
	a := &fakeRepo{data: map[string]*tariff.ContractTariff{
		"CH0041": contractFixture("CH0041", "111"),
	}}
	b := &fakeRepo{data: map[string]*tariff.ContractTariff{
		"CH0041": contractFixture("CH0041", "222"),
	}}

	sources := tariff.NewSources(nil, zap.NewNop())
	sources.Configure(tariff.ConfigureOptions{Primary: a})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				if i%2 == 0 {
					repo := a
					if j%2 == 0 {
						repo = b
					}
					sources.Configure(tariff.ConfigureOptions{Primary: repo})
					continue
				}
				data, _, err := sources.Resolve(context.Background(), "CH0041", tariff.PreferAuto)
				if err != nil {
					t.Errorf("resolve during reconfigure: %v", err)
					return
				}
				v := data.Entries[0].Value
				if !v.Equal(money("111")) && !v.Equal(money("222")) {
					t.Errorf("incoherent resolution: %s", v)
					return
				}
			}
		}(i)
	}
	wg.Wait()
}
