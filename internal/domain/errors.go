package domain

import "errors"

var (
	ErrNotFound              = errors.New("not found")
	ErrStorageUnavailable    = errors.New("storage unavailable")
	ErrEmailTaken            = errors.New("email already registered for this role")
	ErrBusinessNameTaken     = errors.New("business name already registered")
	ErrInvalidUser           = errors.New("user must be either a client or a gym")
	ErrInvalidQuota          = errors.New("quota amount must be greater than zero")
	ErrInvalidTransition     = errors.New("payment status can only move from pendiente to completado")
	ErrPaymentFlagNotUpdated = errors.New("payment recorded but client payment flag was not updated")
	ErrNoGym                 = errors.New("client is not associated with a gym")
	ErrClassFull             = errors.New("class has reached its maximum capacity")
	ErrClassInactive         = errors.New("class is not active")
	ErrInvalidSchedule       = errors.New("invalid class schedule")
	ErrClassExists           = errors.New("class id already used in this gym")
	ErrInvalidCredentials    = errors.New("invalid email or password")
	ErrSlotNotOffered        = errors.New("class does not run at the requested time")
)
