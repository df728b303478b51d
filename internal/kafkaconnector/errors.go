package kafkaconnector

import (
	"fmt"
	"strings"
)

// ValidationErrors accumulates every problem found while compiling a
// connector instead of failing on the first one, mirroring the
// ErrorBag accumulation idiom.
type ValidationErrors struct {
	messages []string
}

func (v *ValidationErrors) Add(format string, args ...any) {
	v.messages = append(v.messages, fmt.Sprintf(format, args...))
}

func (v *ValidationErrors) CheckMutuallyExclusive(aKey string, a *string, bKey string, b *string) {
	if a != nil && b != nil {
		v.Add("%s and %s are mutually exclusive", aKey, bKey)
	}
}

func (v *ValidationErrors) CheckAllowed(key string, value *string, allowed []string) {
	if value == nil {
		return
	}
	for _, a := range allowed {
		if a == *value {
			return
		}
	}
	v.Add("%s: %q is not one of %v", key, *value, allowed)
}

func (v *ValidationErrors) AddAll(msgs []string) {
	v.messages = append(v.messages, msgs...)
}

func (v *ValidationErrors) HasErrors() bool { return len(v.messages) > 0 }

func (v *ValidationErrors) Error() string {
	return strings.Join(v.messages, "; ")
}

// Finish returns nil if no errors were accumulated, else the bag itself
// as an error.
func (v *ValidationErrors) Finish() error {
	if v.HasErrors() {
		return v
	}
	return nil
}
