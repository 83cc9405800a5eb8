package booking

import (
	"time"

	"github.com/google/uuid"
)

// CancelReviewStatus tracks a cancellation request independently of the
// booking status.
type CancelReviewStatus string

const (
	CancelReviewNone     CancelReviewStatus = "NONE"
	CancelReviewPending  CancelReviewStatus = "PENDING"
	CancelReviewApproved CancelReviewStatus = "APPROVED"
	CancelReviewRejected CancelReviewStatus = "REJECTED"
)

// A client may re-request after a rejection; support may approve at any
// point before approval.
var reviewTransitions = map[CancelReviewStatus][]CancelReviewStatus{
	CancelReviewNone:     {CancelReviewPending, CancelReviewApproved},
	CancelReviewPending:  {CancelReviewPending, CancelReviewApproved, CancelReviewRejected},
	CancelReviewRejected: {CancelReviewPending, CancelReviewApproved},
	CancelReviewApproved: {},
}

func (s CancelReviewStatus) IsValid() bool {
	_, ok := reviewTransitions[s]
	return ok
}

func (s CancelReviewStatus) CanTransitionTo(target CancelReviewStatus) bool {
	for _, t := range reviewTransitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

// CancelRequest is the cancellation review sub-record of a booking.
type CancelRequest struct {
	RequestedAt *time.Time         `json:"requestedAt,omitempty"`
	Status      CancelReviewStatus `json:"status"`
	ReviewedAt  *time.Time         `json:"reviewedAt,omitempty"`
	ReviewedBy  *uuid.UUID         `json:"reviewedBy,omitempty"`
}

// NoCancelRequest is the initial sub-record.
func NoCancelRequest() CancelRequest {
	return CancelRequest{Status: CancelReviewNone}
}

// IsPending reports whether a cancellation awaits review.
func (r CancelRequest) IsPending() bool {
	return r.Status == CancelReviewPending
}
