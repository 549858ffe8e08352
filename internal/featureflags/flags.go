package featureflags

import (
	"os"
	"strings"
)

// Enabled reports whether the named flag is switched on through the
// environment: FLAG_<NAME>=1/true/yes/on, case-insensitive. Flags gate
// optional behavior such as anonymous guest bookings ("guest_bookings")
// without a redeploy.
func Enabled(name string) bool {
	switch strings.ToLower(os.Getenv("FLAG_" + strings.ToUpper(name))) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}
