package models

// All returns every persistence model, parents first, for AutoMigrate in tests.
// Production schemas come from the SQL migrations.
func All() []any {
	return []any{
		&AccountModel{},
		&ZoneModel{},
		&DonationModel{},
		&VoucherModel{},
	}
}
