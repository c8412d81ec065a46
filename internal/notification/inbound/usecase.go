package inbound

import (
	"context"

	"github.com/shandysiswandi/otpgate/internal/notification/usecase"
)

type uc interface {
	DeliverSMS(ctx context.Context, in usecase.DeliverSMSInput) error
}
