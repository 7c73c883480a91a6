// Package repository implements MySQL persistence for tours, reviews,
// bookings and users. Sentinel errors defined here let handlers map failure
// scenarios onto the application error taxonomy without inspecting driver
// errors.
package repository

import "errors"

// ErrNotFound is returned when a row does not exist (or is hidden by the
// active/secret base scope).
var ErrNotFound = errors.New("not found")

// ErrEmailExists is returned when a user insert or update violates the
// unique email constraint.
var ErrEmailExists = errors.New("email already exists")

// ErrDuplicateReview is returned when a user reviews the same tour twice.
var ErrDuplicateReview = errors.New("user already reviewed this tour")

// ErrNameExists is returned when a tour insert violates the unique name
// constraint.
var ErrNameExists = errors.New("tour name already exists")
