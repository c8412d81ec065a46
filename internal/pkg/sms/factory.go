package sms

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

const (
	// DriverSNS selects Amazon SNS.
	DriverSNS = "sns"
	// DriverLog selects the log-only provider.
	DriverLog = "log"
)

// ErrUnknownDriver indicates an unsupported SMS driver.
var ErrUnknownDriver = errors.New("sms: unknown driver")

// FactoryOptions groups configuration for SMS drivers.
type FactoryOptions struct {
	// SNS configures the Amazon SNS backend.
	SNS SNSOptions
	// RevealBody makes the log driver print message bodies.
	RevealBody bool
}

// NewFromDriver constructs an SMS implementation by driver name.
func NewFromDriver(ctx context.Context, driver string, opts FactoryOptions) (SMS, error) {
	switch strings.ToLower(driver) {
	case DriverSNS:
		return NewSNS(ctx, opts.SNS)
	case DriverLog, "":
		return NewLog(opts.RevealBody), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownDriver, driver)
	}
}
