// Package models contains GORM persistence models that map to database tables.
// They are kept apart from the domain entities so the domain layer stays free of
// ORM tags.
//
// Structure:
//   - base.go: BaseModel and AggregateModel with the optimistic lock version
//   - account.go, zone.go, donation.go, voucher.go: ledger tables and their mappers
//   - registry.go: model list for AutoMigrate in tests
package models
