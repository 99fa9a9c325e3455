// Package repository contains data access logic separated from HTTP
// handlers.  This file defines sentinel error values reused across the
// repositories.  Uniqueness violations are detected from the store's unique
// indexes (MySQL error 1062) rather than pre-checked in application code, so
// two concurrent writers cannot both pass a stale check.
package repository

import "errors"

// ErrEmailExists is returned when an insert collides with the unique email
// index.  The service layer maps it to its duplicate-registration error.
var ErrEmailExists = errors.New("email already exists")

// ErrSKUExists is returned when a product insert or update collides with the
// unique SKU index.  The index is unconditional: soft-deleted products keep
// their SKU reserved.
var ErrSKUExists = errors.New("sku already exists")

// ErrUserNotFound is returned when no matching user row exists.
var ErrUserNotFound = errors.New("user not found")

// ErrProductNotFound is returned when a product does not exist or has been
// soft-deleted.  Soft-deleted rows are invisible to every read path.
var ErrProductNotFound = errors.New("product not found")
