package tariff

import "context"

// Repository looks up all known tariff entries for a contract, regardless of
// backing store. Implementations return (nil, nil) when the contract is
// unknown; errors are reserved for infrastructure failures.
type Repository interface {
	FindByContractID(ctx context.Context, contractID string) (*ContractTariff, error)
}

// Filenamer is implemented by repositories backed by a file, for breakdown
// snapshots.
type Filenamer interface {
	Filename() string
}

// EmptySource is the stub repository used when no attachment file exists.
// It never finds anything and counts as "not configured" for arbitration.
type EmptySource struct{}

// FindByContractID always reports the contract as unknown.
func (EmptySource) FindByContractID(ctx context.Context, contractID string) (*ContractTariff, error) {
	return nil, nil
}

// Filename returns the empty string.
func (EmptySource) Filename() string { return "" }
