package enums

// RequestStatus enumerates the well-known service request statuses. The
// status column is deliberately free-form text: callers may write any value
// and no transition whitelist is enforced, matching the legacy workflow.
type RequestStatus string

const (
	RequestStatusNew         RequestStatus = "New Request"
	RequestStatusReviewing   RequestStatus = "Reviewing"
	RequestStatusNegotiation RequestStatus = "Negotiation"
	RequestStatusDeal        RequestStatus = "Deal"
	RequestStatusRejected    RequestStatus = "Rejected"
	RequestStatusCompleted   RequestStatus = "Completed"
)

// KnownRequestStatuses lists the statuses the dashboard aggregates over.
var KnownRequestStatuses = []RequestStatus{
	RequestStatusNew,
	RequestStatusReviewing,
	RequestStatusNegotiation,
	RequestStatusDeal,
	RequestStatusRejected,
	RequestStatusCompleted,
}

// InProcessRequestStatuses are the statuses counted as "in process" on the
// dashboard.
var InProcessRequestStatuses = []RequestStatus{
	RequestStatusNew,
	RequestStatusReviewing,
	RequestStatusNegotiation,
}

// Proposer identifies which side of a negotiation produced a round or message.
type Proposer string

const (
	ProposerAdmin  Proposer = "Admin"
	ProposerClient Proposer = "Client"
)
