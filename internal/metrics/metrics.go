package metrics

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel/attribute"

	"github.com/Freelancing-tuhin/Hobi-app-server/pkg/telemetry"
)

var (
	// Booking counters
	BookingsCreated  *telemetry.Counter
	BookingsSettled  *telemetry.Counter
	BookingsFailed   *telemetry.Counter
	BookingsRefunded *telemetry.Counter
	BookingsSoldOut  *telemetry.Counter

	// Wallet counters
	WalletCredits        *telemetry.Counter
	WithdrawalsRequested *telemetry.Counter
	WithdrawalsCompleted *telemetry.Counter
	WithdrawalsRejected  *telemetry.Counter

	// Histograms
	SettlementDuration *telemetry.Histogram
	BookingAmount      *telemetry.Histogram
	PlatformFeeTaken   *telemetry.Histogram

	// Gauges
	PendingBookings *telemetry.UpDownCounter

	initOnce sync.Once
	initErr  error
)

// Init initializes all application metrics
func Init() error {
	initOnce.Do(func() {
		initErr = initMetrics()
	})
	return initErr
}

func initMetrics() error {
	var err error

	BookingsCreated, err = telemetry.NewCounter(telemetry.MetricOpts{
		Name:        "booking_created_total",
		Description: "Total number of bookings opened",
		Unit:        "1",
	})
	if err != nil {
		return err
	}

	BookingsSettled, err = telemetry.NewCounter(telemetry.MetricOpts{
		Name:        "booking_settled_total",
		Description: "Total number of bookings settled",
		Unit:        "1",
	})
	if err != nil {
		return err
	}

	BookingsFailed, err = telemetry.NewCounter(telemetry.MetricOpts{
		Name:        "booking_failed_total",
		Description: "Total number of booking payments that failed",
		Unit:        "1",
	})
	if err != nil {
		return err
	}

	BookingsRefunded, err = telemetry.NewCounter(telemetry.MetricOpts{
		Name:        "booking_refunded_total",
		Description: "Total number of bookings refunded",
		Unit:        "1",
	})
	if err != nil {
		return err
	}

	BookingsSoldOut, err = telemetry.NewCounter(telemetry.MetricOpts{
		Name:        "booking_sold_out_total",
		Description: "Total number of settlements rejected by the capacity cap",
		Unit:        "1",
	})
	if err != nil {
		return err
	}

	WalletCredits, err = telemetry.NewCounter(telemetry.MetricOpts{
		Name:        "wallet_credited_total",
		Description: "Total number of wallet credits",
		Unit:        "1",
	})
	if err != nil {
		return err
	}

	WithdrawalsRequested, err = telemetry.NewCounter(telemetry.MetricOpts{
		Name:        "withdrawal_requested_total",
		Description: "Total number of withdrawal requests",
		Unit:        "1",
	})
	if err != nil {
		return err
	}

	WithdrawalsCompleted, err = telemetry.NewCounter(telemetry.MetricOpts{
		Name:        "withdrawal_completed_total",
		Description: "Total number of completed withdrawals",
		Unit:        "1",
	})
	if err != nil {
		return err
	}

	WithdrawalsRejected, err = telemetry.NewCounter(telemetry.MetricOpts{
		Name:        "withdrawal_rejected_total",
		Description: "Total number of rejected withdrawals",
		Unit:        "1",
	})
	if err != nil {
		return err
	}

	SettlementDuration, err = telemetry.NewHistogram(telemetry.MetricOpts{
		Name:        "booking_settlement_duration_seconds",
		Description: "Duration of booking settlement",
		Unit:        "s",
	})
	if err != nil {
		return err
	}

	BookingAmount, err = telemetry.NewHistogram(telemetry.MetricOpts{
		Name:        "booking_amount",
		Description: "Booking amounts distribution",
		Unit:        "INR",
	})
	if err != nil {
		return err
	}

	PlatformFeeTaken, err = telemetry.NewHistogram(telemetry.MetricOpts{
		Name:        "booking_platform_fee",
		Description: "Platform fee distribution",
		Unit:        "INR",
	})
	if err != nil {
		return err
	}

	PendingBookings, err = telemetry.NewUpDownCounter(telemetry.MetricOpts{
		Name:        "booking_pending",
		Description: "Current number of bookings awaiting payment",
		Unit:        "1",
	})
	if err != nil {
		return err
	}

	return nil
}

// RecordBookingCreated records a booking creation
func RecordBookingCreated(ctx context.Context, eventID string, amount float64) {
	if BookingsCreated != nil {
		BookingsCreated.Inc(ctx, attribute.String("event_id", eventID))
	}
	if BookingAmount != nil {
		BookingAmount.Record(ctx, amount)
	}
	if PendingBookings != nil {
		PendingBookings.Inc(ctx)
	}
}

// RecordBookingSettled records a successful settlement
func RecordBookingSettled(ctx context.Context, eventID string, platformFee, durationSeconds float64) {
	if BookingsSettled != nil {
		BookingsSettled.Inc(ctx, attribute.String("event_id", eventID))
	}
	if PlatformFeeTaken != nil {
		PlatformFeeTaken.Record(ctx, platformFee)
	}
	if SettlementDuration != nil {
		SettlementDuration.Record(ctx, durationSeconds)
	}
	if PendingBookings != nil {
		PendingBookings.Dec(ctx)
	}
}

// RecordBookingFailed records a payment failure
func RecordBookingFailed(ctx context.Context, eventID, reason string) {
	if BookingsFailed != nil {
		BookingsFailed.Inc(ctx,
			attribute.String("event_id", eventID),
			attribute.String("reason", reason),
		)
	}
	if PendingBookings != nil {
		PendingBookings.Dec(ctx)
	}
}

// RecordBookingRefunded records a refund
func RecordBookingRefunded(ctx context.Context, eventID string) {
	if BookingsRefunded != nil {
		BookingsRefunded.Inc(ctx, attribute.String("event_id", eventID))
	}
}

// RecordSoldOut records a settlement rejected by the capacity cap
func RecordSoldOut(ctx context.Context, eventID, ticketID string) {
	if BookingsSoldOut != nil {
		BookingsSoldOut.Inc(ctx,
			attribute.String("event_id", eventID),
			attribute.String("ticket_id", ticketID),
		)
	}
}

// RecordWalletCredited records a wallet credit
func RecordWalletCredited(ctx context.Context, amount float64) {
	if WalletCredits != nil {
		WalletCredits.Inc(ctx)
	}
}

// RecordWithdrawalRequested records a withdrawal request
func RecordWithdrawalRequested(ctx context.Context, amount float64) {
	if WithdrawalsRequested != nil {
		WithdrawalsRequested.Inc(ctx)
	}
}

// RecordWithdrawalCompleted records a completed withdrawal
func RecordWithdrawalCompleted(ctx context.Context) {
	if WithdrawalsCompleted != nil {
		WithdrawalsCompleted.Inc(ctx)
	}
}

// RecordWithdrawalRejected records a rejected withdrawal
func RecordWithdrawalRejected(ctx context.Context) {
	if WithdrawalsRejected != nil {
		WithdrawalsRejected.Inc(ctx)
	}
}
