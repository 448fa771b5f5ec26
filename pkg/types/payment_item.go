package types

type PaymentProvider string

const (
	PaymentProviderStripe PaymentProvider = "stripe"
	PaymentProviderClerk  PaymentProvider = "clerk"
)

// AccessType names the grounds on which a user may open a course.
type AccessType string

const (
	AccessTypeSubscription AccessType = "subscription"
	AccessTypeCourse       AccessType = "course"
)

// CheckoutKind distinguishes one-off course checkouts from Pro plan checkouts.
type CheckoutKind string

const (
	CheckoutKindCourse CheckoutKind = "course"
	CheckoutKindPlan   CheckoutKind = "plan"
)

// RateLimitKeyPrefix returns the limiter key prefix for a checkout kind.
func (k CheckoutKind) RateLimitKeyPrefix() string {
	if k == CheckoutKindPlan {
		return "pro-plan-rate-limit"
	}
	return "checkout-rate-limit"
}
