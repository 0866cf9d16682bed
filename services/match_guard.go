package services

import (
	"battle-room-system/models"

	"golang.org/x/crypto/bcrypt"
)

// isParticipant reports whether identity holds one of the match's seats.
func isParticipant(m *models.Match, identity string) bool {
	return m.SlotOf(identity) != ""
}

// secretMatches compares the supplied room password with the stored hash.
// Public rooms accept anything. Comparison is exact: no trimming, no case folding.
// bcrypt ignores input past 72 bytes, so longer secrets can never match.
func secretMatches(m *models.Match, supplied string) bool {
	if m.Visibility != models.VisibilityPrivate {
		return true
	}
	if m.SecretHash == "" || supplied == "" || len(supplied) > maxSecretLength {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(m.SecretHash), []byte(supplied)) == nil
}
