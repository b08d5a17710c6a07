package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pageza/nutrimatch/backend/internal/models"
	"github.com/pageza/nutrimatch/backend/internal/nutrition"
	"github.com/pageza/nutrimatch/backend/internal/recommend"
	"github.com/pageza/nutrimatch/backend/internal/types"
)

// PreferenceService handles user preference profiles
type PreferenceService struct {
	db           *gorm.DB
	restrictions nutrition.Restrictions

	// locks serializes replaces per user
	locks sync.Map
}

// Ensure PreferenceService implements IPreferenceService
var _ IPreferenceService = (*PreferenceService)(nil)

// NewPreferenceService creates a new PreferenceService. restrictions is the table profile
// restrictions are checked against; nil means the default table.
func NewPreferenceService(db *gorm.DB, restrictions nutrition.Restrictions) *PreferenceService {
	if restrictions == nil {
		restrictions = nutrition.DefaultRestrictions()
	}
	return &PreferenceService{db: db, restrictions: restrictions}
}

// GetProfile retrieves a user's preference profile
func (s *PreferenceService) GetProfile(ctx context.Context, userID uuid.UUID) (*models.PreferenceProfile, error) {
	var profile models.PreferenceProfile
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&profile).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, recommend.ErrProfileNotFound
		}
		return nil, err
	}
	return &profile, nil
}

func (s *PreferenceService) lock(userID uuid.UUID) func() {
	v, _ := s.locks.LoadOrStore(userID, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// ReplaceProfile validates req and stores it as the user's whole profile. Concurrent replaces
// for one user are applied one at a time; the last one wins.
func (s *PreferenceService) ReplaceProfile(ctx context.Context, userID uuid.UUID, req *types.PreferencesRequest) (*models.PreferenceProfile, error) {
	profile, err := s.buildProfile(userID, req)
	if err != nil {
		return nil, err
	}

	unlock := s.lock(userID)
	defer unlock()

	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"updated_at",
			"dietary_restrictions",
			"allergies",
			"favorite_cuisines",
			"food_flag_opt_outs",
			"calorie_target",
			"protein_target",
		}),
	}).Create(profile).Error
	if err != nil {
		return nil, fmt.Errorf("save preferences: %w", err)
	}
	return s.GetProfile(ctx, userID)
}

// buildProfile normalizes req against the static tables. Allergies are stored expanded into
// the allergen vocabulary.
func (s *PreferenceService) buildProfile(userID uuid.UUID, req *types.PreferencesRequest) (*models.PreferenceProfile, error) {
	if req == nil {
		req = &types.PreferencesRequest{}
	}
	var problems []string

	restrictions := make(map[string]struct{})
	for _, raw := range req.DietaryRestrictions {
		name := restrictionKey(raw)
		if name == "" {
			continue
		}
		if !s.restrictions.Known(name) {
			problems = append(problems, fmt.Sprintf("unknown dietary restriction %q", raw))
			continue
		}
		restrictions[name] = struct{}{}
	}

	allergies, unknown := nutrition.ExpandAllergies(req.Allergies)
	for _, a := range unknown {
		problems = append(problems, fmt.Sprintf("unknown allergy %q", a))
	}

	optOuts := make(map[string]struct{})
	for _, raw := range req.FoodFlagOptOuts {
		flag := strings.ToLower(strings.TrimSpace(raw))
		if flag == "" {
			continue
		}
		if !nutrition.IsFlag(flag) {
			problems = append(problems, fmt.Sprintf("unknown food flag %q", raw))
			continue
		}
		optOuts[flag] = struct{}{}
	}

	cuisines := make(map[string]struct{})
	for _, raw := range req.FavoriteCuisines {
		if c := strings.ToLower(strings.TrimSpace(raw)); c != "" {
			cuisines[c] = struct{}{}
		}
	}

	for name, target := range map[string]*float64{"calorie_target": req.CalorieTarget, "protein_target": req.ProteinTarget} {
		if target != nil && (*target <= 0 || math.IsNaN(*target) || math.IsInf(*target, 0)) {
			problems = append(problems, name+" must be a positive number")
		}
	}

	if len(problems) > 0 {
		sort.Strings(problems)
		return nil, &PreferencesError{
			Problems:     problems,
			Restrictions: s.restrictions.Names(),
			Allergens:    nutrition.Vocabulary(),
			FoodFlags:    nutrition.Flags(),
		}
	}

	return &models.PreferenceProfile{
		UserID:              userID,
		DietaryRestrictions: nutrition.SortedSet(restrictions),
		Allergies:           nutrition.SortedSet(allergies),
		FavoriteCuisines:    nutrition.SortedSet(cuisines),
		FoodFlagOptOuts:     nutrition.SortedSet(optOuts),
		CalorieTarget:       req.CalorieTarget,
		ProteinTarget:       req.ProteinTarget,
	}, nil
}

func restrictionKey(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = strings.NewReplacer("-", "_", " ", "_").Replace(s)
	return s
}
