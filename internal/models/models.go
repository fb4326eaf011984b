package models

// User represents a basic user in the system.
type User struct {
	ID    int
	Name  string
	Email string
}

// Config represents application configuration.
type Config struct {
	Environment string
	Debug       bool
	APIKey      string
}

// Injectable is a struct that demonstrates dependency injection through
// the container's "di" struct tags.
type Injectable struct {
	UserService   interface{} `di:"userService"`
	EmailService  interface{} `di:"emailService"`
	ConfigService interface{} `di:"configService"`
}

// Contract is the passive domain value the interception demos operate on:
// a plain struct with a mutable field, standing in for spec.md §8's
// worked scenarios (one_advice, chained, bundle flattening, ...).
type Contract struct {
	X float64
}

// Clone returns a new Contract carrying the same value, so advices that
// hand back a fresh result (e.g. a caching advice) never alias the
// original's storage.
func (c *Contract) Clone() *Contract {
	return &Contract{X: c.X}
}
