// Package service implements the application services between the HTTP
// layer and storage. Services enforce group membership and translate
// storage errors; all calculation happens in the ledger package.
package service

import "errors"

var (
	// ErrPermissionDenied indicates the acting user is not a member of the
	// group the operation targets.
	ErrPermissionDenied = errors.New("user is not a member of this group")

	// ErrPaymentExceedsTotal indicates a payment would push the sum of a
	// receipt's payments past its total.
	ErrPaymentExceedsTotal = errors.New("payment exceeds remaining receipt amount")
)

// isMember reports whether userID appears in memberIDs.
func isMember(userID string, memberIDs []string) bool {
	for _, id := range memberIDs {
		if id == userID {
			return true
		}
	}
	return false
}
