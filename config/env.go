package config

import (
	"os"
)

// Environment represents the current runtime environment
type Environment string

const (
	Development Environment = "development"
	Test        Environment = "test"
	CI          Environment = "ci"
	Production  Environment = "production"
)

// GetEnvironment determines the current environment
func GetEnvironment() Environment {
	// CI environment is automatically detected
	if os.Getenv("CI") == "true" {
		return CI
	}

	// Other environments are set via ENV variable
	switch env := os.Getenv("ENV"); env {
	case "production":
		return Production
	case "test":
		return Test
	default:
		return Development
	}
}

// IsDevelopment returns true for the development environment
func (e Environment) IsDevelopment() bool {
	return e == Development
}

// IsTest returns true for the test environment
func (e Environment) IsTest() bool {
	return e == Test
}

// IsCI returns true for the CI environment
func (e Environment) IsCI() bool {
	return e == CI
}

// IsProduction returns true for the production environment
func (e Environment) IsProduction() bool {
	return e == Production
}
