// internal/domain/models/donation.go
package models

import (
	"encoding/json"

	"go.mongodb.org/mongo-driver/bson"
)

// Donation request statuses. The field is an open string; these are the
// values the service itself writes or filters on.
const (
	DonationPending    = "pending"
	DonationInProgress = "inprogress"
	DonationDone       = "done"
	DonationCanceled   = "canceled"
)

// Document is a free-form record as stored. Donation requests, donor info,
// blogs and contact messages carry whatever fields the client sends; the
// service only reads or writes the keys named below.
type Document = bson.M

// Known donation request keys.
const (
	KeyRequesterEmail = "requesterEmail"
	KeyDonationStatus = "donationStatus"
	KeyCreatedAt      = "createdAt"
)

// Known donor info keys.
const (
	KeyDonorEmail = "donorEmail"
	KeyDonationID = "donationId"
)

// RequestWithDonor is a donation request joined with the donor info that
// references it. Donor is nil when no donor has committed yet.
type RequestWithDonor struct {
	Request Document
	Donor   Document
}

// MarshalJSON renders the request's own fields with the donor under
// donorDetails, null when absent.
func (r RequestWithDonor) MarshalJSON() ([]byte, error) {
	out := make(map[string]interface{}, len(r.Request)+1)
	for k, v := range r.Request {
		out[k] = v
	}
	// A nil Document encodes as null.
	out["donorDetails"] = r.Donor
	return json.Marshal(out)
}

// DonorHistory summarizes one donor's commitments.
type DonorHistory struct {
	DonorEmail       string      `bson:"_id" json:"_id"`
	TotalDonations   int64       `bson:"totalDonations" json:"totalDonations"`
	LastDonationDate interface{} `bson:"lastDonationDate" json:"lastDonationDate"`
}

// PublicStats is the unauthenticated landing-page summary.
type PublicStats struct {
	TotalDonors       int64 `json:"totalDonors"`
	ActiveDonors      int64 `json:"activeDonors"`
	TotalRequests     int64 `json:"totalRequests"`
	CompletedRequests int64 `json:"completedRequests"`
}
