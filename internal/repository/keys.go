package repository

import "strings"

// Persisted key layout. Scoped families end in ':' and are followed by ids.
const (
	keyCurrentUser = "currentUser"
	keySession     = "session"
	keyUsers       = "usersDB"
	keyTheme       = "theme"
	keyStopwatch   = "stopwatchState"

	prefixGymClasses  = "gymClasses:"
	prefixUserClasses = "userClasses:"
	prefixEnrollments = "enrollments:"
	prefixGymQuota    = "gymQuota:"
	prefixGymPayments = "gymPayments:"
)

func gymClassesKey(gymID string) string   { return prefixGymClasses + gymID }
func userClassesKey(userID string) string { return prefixUserClasses + userID }
func gymQuotaKey(gymID string) string     { return prefixGymQuota + gymID }
func gymPaymentsKey(gymID string) string  { return prefixGymPayments + gymID }

func enrollmentsKey(gymID, clientID string) string {
	return prefixEnrollments + gymID + ":" + clientID
}

// parseEnrollmentsKey splits "enrollments:{gymId}:{clientId}"
func parseEnrollmentsKey(key string) (gymID, clientID string, ok bool) {
	rest, found := strings.CutPrefix(key, prefixEnrollments)
	if !found {
		return "", "", false
	}
	gymID, clientID, ok = strings.Cut(rest, ":")
	if !ok || gymID == "" || clientID == "" {
		return "", "", false
	}
	return gymID, clientID, true
}
