package testhelpers

import (
	"encoding/base64"
	"fmt"
)

// GenerateTestJWT creates a test JWT token for use when verification is
// disabled. The token has a valid structure but no signature (alg: none).
// Extra claims let row-policy tests bind predicate values by claim name.
func GenerateTestJWT(sub, role string, extra map[string]string) string {
	header := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"none","typ":"JWT"}`))

	payload := fmt.Sprintf(`{"sub":"%s"`, sub)
	if role != "" {
		payload += fmt.Sprintf(`,"role":"%s"`, role)
	}
	for name, value := range extra {
		payload += fmt.Sprintf(`,"%s":"%s"`, name, value)
	}
	payload += "}"

	encodedPayload := base64.RawURLEncoding.EncodeToString([]byte(payload))
	return fmt.Sprintf("%s.%s.", header, encodedPayload)
}

// GenerateTestJWTWithBearer returns the token with a "Bearer " prefix for the
// Authorization header.
func GenerateTestJWTWithBearer(sub, role string, extra map[string]string) string {
	return "Bearer " + GenerateTestJWT(sub, role, extra)
}
