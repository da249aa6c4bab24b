package ida

import "time"

// ServiceType identifies which telecom service a source resource measures.
type ServiceType string

const (
	ServiceSCM  ServiceType = "SCM"  // fixed broadband
	ServiceSMP  ServiceType = "SMP"  // mobile
	ServiceSTFC ServiceType = "STFC" // fixed telephony
)

// Fact is one canonical observation of the performance index: a single
// indicator value for one economic group, one service, one reference month.
// Month is always the first day of the month at midnight UTC. ResourceID
// records which source file the observation came from and participates in
// the store's idempotency key.
type Fact struct {
	Month       time.Time
	Group       EconomicGroup
	Service     string
	Value       float64
	ServiceType ServiceType
	ResourceID  string
}
