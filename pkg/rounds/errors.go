package rounds

import "errors"

// Configuration errors.
var (
	ErrUnknownStage    = errors.New("unknown stage")
	ErrInvalidCap      = errors.New("invalid stage supply cap")
	ErrInvalidTime     = errors.New("stage start time after end time")
	ErrInvalidAmount   = errors.New("mint amount must be positive")
	ErrNoTokenContract = errors.New("token contract not wired")
)

// Capacity errors.
var (
	ErrExceedStageSupply     = errors.New("exceed stage supply")
	ErrExceedPerAddressLimit = errors.New("exceed per-address limit")
	ErrExceedMaxSupply       = errors.New("exceed max supply")
)

// Timing and eligibility errors.
var (
	ErrNotActive   = errors.New("stage not active")
	ErrNotEligible = errors.New("not eligible to mint")
)

// Payment errors.
var (
	ErrInsufficientPayment = errors.New("insufficient payment")
	ErrExcessPayment       = errors.New("excess payment")
)

// Access errors.
var (
	ErrUnauthorized = errors.New("caller missing required role")
)
