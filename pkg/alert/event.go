// Package alert maps discrete business alert events onto downstream ecosystem
// actions through a declarative rule table. Dispatching never fails the
// caller: action failures are logged per event and dispatch continues.
package alert

// Type identifies a business alert condition detected elsewhere in the system.
type Type string

const (
	TypeLowWellness             Type = "low_wellness"
	TypeHighSpending            Type = "high_spending"
	TypeFrequentAdvanceRequests Type = "frequent_advance_requests"
	TypeWellnessImprovement     Type = "wellness_improvement"
	TypeTierUpgrade             Type = "tier_upgrade"
)

// KnownTypes lists every alert type the dispatcher understands.
var KnownTypes = []Type{
	TypeLowWellness,
	TypeHighSpending,
	TypeFrequentAdvanceRequests,
	TypeWellnessImprovement,
	TypeTierUpgrade,
}

// KnownType reports whether t is a recognized alert type.
func KnownType(t Type) bool {
	for _, known := range KnownTypes {
		if t == known {
			return true
		}
	}
	return false
}

// Payload carries the alert-type-specific event data.
type Payload map[string]interface{}

// Float retrieves a numeric payload value with a default. Integers are
// widened because decoded JSON and YAML deliver numbers inconsistently.
func (p Payload) Float(key string, defaultValue float64) float64 {
	if val, ok := p[key]; ok {
		switch v := val.(type) {
		case float64:
			return v
		case float32:
			return float64(v)
		case int:
			return float64(v)
		case int64:
			return float64(v)
		}
	}
	return defaultValue
}

// Int retrieves an integer payload value with a default.
func (p Payload) Int(key string, defaultValue int) int {
	if val, ok := p[key]; ok {
		switch v := val.(type) {
		case int:
			return v
		case int64:
			return int(v)
		case float64:
			return int(v)
		}
	}
	return defaultValue
}

// String retrieves a string payload value with a default.
func (p Payload) String(key, defaultValue string) string {
	if val, ok := p[key]; ok {
		if str, ok := val.(string); ok {
			return str
		}
	}
	return defaultValue
}

// Event is a transient alert handed to the dispatcher. Events are consumed
// once and never stored beyond the action log.
type Event struct {
	SubjectID string  `json:"subjectId"`
	Type      Type    `json:"alertType"`
	Payload   Payload `json:"payload,omitempty"`
}
