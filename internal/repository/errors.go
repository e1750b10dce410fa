// Package repository implements the MySQL-backed stores. Sentinel errors
// defined here let handlers distinguish failure scenarios without inspecting
// driver errors; handlers translate them into HTTP status codes.
package repository

import "errors"

// ErrEmailExists is returned when a registration collides with an existing
// email. Handlers translate this into HTTP 400.
var ErrEmailExists = errors.New("email already exists")

// ErrUserNotFound is returned when a user lookup by id or email matches no
// row.
var ErrUserNotFound = errors.New("user not found")

// ErrTokenNotFound is returned when a refresh or reset token lookup matches
// no row.
var ErrTokenNotFound = errors.New("token not found")

// ErrRefreshExpired is returned by VerifyNotExpired after the expired row has
// been deleted; the client must perform a full login again.
var ErrRefreshExpired = errors.New("refresh token expired")

// ErrAlreadyTracking is returned when a user submits a tracking request for a
// product number they already track.
var ErrAlreadyTracking = errors.New("already tracking this product")

// ErrNotOwner is returned when a user attempts to delete a tracking request
// that belongs to someone else. Handlers translate this into HTTP 403.
var ErrNotOwner = errors.New("not the owner of this request")

// ErrRequestNotFound is returned when a tracking request lookup matches no
// row.
var ErrRequestNotFound = errors.New("tracking request not found")
