package domain

const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

// Conversion statuses.
const (
	ConversionPending  = "PENDING"
	ConversionApproved = "APPROVED"
	ConversionRejected = "REJECTED"
	ConversionPaid     = "PAID"
)

// Conversion sources.
const (
	ConversionSourceCheckout = "CHECKOUT"
	ConversionSourceForced   = "FORCED"
)

// Payout statuses.
const (
	PayoutPending   = "PENDING"
	PayoutCompleted = "COMPLETED"
	PayoutRejected  = "REJECTED"
)

const (
	InvoiceStatusPending = "PENDING"
	InvoiceStatusPaid    = "PAID"
	DefaultCurrency      = "USD"
)

const (
	NotificationConversionStatus = "AFFILIATE_CONVERSION_STATUS"
	NotificationConversionNew    = "AFFILIATE_CONVERSION_NEW"
	NotificationPayoutCreated    = "AFFILIATE_PAYOUT_CREATED"
	NotificationPayoutStatus     = "AFFILIATE_PAYOUT_STATUS"
)

// Websocket event types on the referrer feed.
const (
	EventClickRecorded           = "click.recorded"
	EventConversionCreated       = "conversion.created"
	EventConversionStatusChanged = "conversion.status_changed"
	EventPayoutUpdated           = "payout.updated"
)

// Fallbacks when affiliate_settings cannot be read.
const (
	FallbackCommissionRate     = 10.0
	FallbackCookieDurationDays = 30
	FallbackMinPayoutCents     = 5000
)

const SecondsPerDay = 86400

var ConversionStatuses = []string{ConversionPending, ConversionApproved, ConversionRejected, ConversionPaid}

var PayoutStatuses = []string{PayoutPending, PayoutCompleted, PayoutRejected}

func IsConversionStatus(s string) bool { return contains(ConversionStatuses, s) }

func IsPayoutStatus(s string) bool { return contains(PayoutStatuses, s) }

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
