// Package models contains GORM-specific persistence models that map to database tables.
// These models are separate from domain entities to keep the domain layer free
// from ORM concerns.
//
// Key Principles:
// 1. Domain entities carry no GORM tags
// 2. Persistence models contain all GORM annotations and table mappings
// 3. FromDomain / ToDomain convert between the two
// 4. Repositories use persistence models for database operations
//
// Structure:
// - base.go: shared column sets (CompanyScoped, TenantKey, Timestamps)
// - workspace.go: companies, spaces, employees
// - events.go: conflicts, alerts, user activities
// - series.go: energy/space readings and model predictions
package models
