package service

import (
	"errors"
	"strings"
)

var (
	ErrRecipeNotFound      = errors.New("recipe not found")
	ErrInvalidPreferences  = errors.New("invalid preferences")
	ErrReviewNotFound      = errors.New("review item not found")
	ErrReviewResolved      = errors.New("review item already resolved")
	ErrInvalidReviewAction = errors.New("review action must be accept or reject")
	ErrInvalidToken        = errors.New("invalid token")
	ErrTokenExpired        = errors.New("token has expired")
	ErrInvalidRating       = errors.New("rating must be between 1 and 5")
	ErrEmptySearch         = errors.New("search query is empty")
)

// PreferencesError lists every problem with a preferences request together with the values
// that would have been accepted. It matches ErrInvalidPreferences.
type PreferencesError struct {
	Problems     []string
	Restrictions []string
	Allergens    []string
	FoodFlags    []string
}

func (e *PreferencesError) Error() string {
	return ErrInvalidPreferences.Error() + ": " + strings.Join(e.Problems, "; ")
}

func (e *PreferencesError) Is(target error) bool {
	return target == ErrInvalidPreferences
}
