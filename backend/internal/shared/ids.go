package shared

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// GenerateStudentID returns "STU" + epoch milliseconds + a 0-999 suffix.
// Collisions are possible but unlikely at human submission rates; the
// studentId field is indexed as unique so a collision surfaces as a conflict.
func GenerateStudentID(now time.Time) string {
	return fmt.Sprintf("STU%d%d", now.UnixMilli(), randomInt(1000))
}

// FacultyCode formats the sequential faculty identifier, e.g. FAC001
func FacultyCode(seq int64) string {
	return fmt.Sprintf("FAC%03d", seq)
}

// DepartmentCode formats the sequential department identifier, e.g. DEPT0001
func DepartmentCode(seq int64) string {
	return fmt.Sprintf("DEPT%04d", seq)
}

// GenerateOTP returns a 6-digit numeric one-time password
func GenerateOTP() string {
	return fmt.Sprintf("%06d", randomInt(1000000))
}

// ParseObjectID reports whether ref is a 24-hex ObjectID and returns it
func ParseObjectID(ref string) (primitive.ObjectID, bool) {
	ref = strings.TrimSpace(ref)
	if len(ref) != 24 {
		return primitive.NilObjectID, false
	}
	id, err := primitive.ObjectIDFromHex(ref)
	if err != nil {
		return primitive.NilObjectID, false
	}
	return id, true
}

// NormalizeEmail trims and lowercases an address
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func randomInt(max int64) int64 {
	n, err := rand.Int(rand.Reader, big.NewInt(max))
	if err != nil {
		return time.Now().UnixNano() % max
	}
	return n.Int64()
}
