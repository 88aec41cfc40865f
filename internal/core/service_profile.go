package core

import (
	"context"

	"bizcore/pkg/apperr"
)

const (
	componentProfile    = "user_profile"
	componentOnboarding = "onboarding"
)

// ProfileInput carries caller-supplied fields for saving the singleton
// owner profile.
type ProfileInput struct {
	FirstName      string
	LastName       string
	Email          string
	Phone          string
	CompanyName    string
	CompanyRole    string
	Preferences    Preferences
	ProfilePicture *string
}

// ProfilePatch carries partial fields for profile update.
type ProfilePatch struct {
	FirstName      *string
	LastName       *string
	Email          *string
	Phone          *string
	CompanyName    *string
	CompanyRole    *string
	Preferences    *Preferences
	ProfilePicture **string
}

// GetProfile returns the installation's owner profile; the boolean is false
// when onboarding has not yet created one.
func (s *Service) GetProfile() (UserProfile, bool) { return s.store.GetProfile() }

func validateProfileInput(input ProfileInput) error {
	if blank(input.FirstName) {
		return apperr.NewRequired("first_name")
	}
	if blank(input.Email) {
		return apperr.NewRequired("email")
	}
	if !validEmail(input.Email) {
		return apperr.NewValidation("email", "email address format is invalid")
	}
	return nil
}

// SaveProfile validates and stores the owner profile. The profile is a
// singleton: saving over an existing one keeps its id and creation time.
func (s *Service) SaveProfile(ctx context.Context, input ProfileInput) (UserProfile, error) {
	ctx, finish := s.begin(ctx, "profile.save")
	var saved UserProfile
	err := func() error {
		if err := validateProfileInput(input); err != nil {
			return err
		}
		profile := UserProfile{
			FirstName:      input.FirstName,
			LastName:       input.LastName,
			Email:          input.Email,
			Phone:          input.Phone,
			CompanyName:    input.CompanyName,
			CompanyRole:    input.CompanyRole,
			Preferences:    input.Preferences,
			ProfilePicture: input.ProfilePicture,
		}
		return s.commit(ctx, "profile.save", func(tx Transaction) error {
			saved = tx.SetProfile(profile)
			return nil
		})
	}()
	finish(err)
	if err != nil {
		return UserProfile{}, err
	}
	s.log.TrackDataOperation(componentProfile, "save", string(EntityUserProfile), saved.ID)
	return saved, nil
}

// UpdateProfile merges patch fields over the stored profile. A patched
// email is re-validated for format.
func (s *Service) UpdateProfile(ctx context.Context, patch ProfilePatch) (UserProfile, error) {
	ctx, finish := s.begin(ctx, "profile.update")
	var updated UserProfile
	err := func() error {
		if patch.Email != nil && !validEmail(*patch.Email) {
			return apperr.NewValidation("email", "email address format is invalid")
		}
		return s.commit(ctx, "profile.update", func(tx Transaction) error {
			existing, ok := tx.Snapshot().Profile()
			if !ok {
				return apperr.NewNotFound(string(EntityUserProfile), "")
			}
			merged := existing
			if patch.FirstName != nil {
				merged.FirstName = *patch.FirstName
			}
			if patch.LastName != nil {
				merged.LastName = *patch.LastName
			}
			if patch.Email != nil {
				merged.Email = *patch.Email
			}
			if patch.Phone != nil {
				merged.Phone = *patch.Phone
			}
			if patch.CompanyName != nil {
				merged.CompanyName = *patch.CompanyName
			}
			if patch.CompanyRole != nil {
				merged.CompanyRole = *patch.CompanyRole
			}
			if patch.Preferences != nil {
				merged.Preferences = *patch.Preferences
			}
			if patch.ProfilePicture != nil {
				merged.ProfilePicture = *patch.ProfilePicture
			}
			updated = tx.SetProfile(merged)
			return nil
		})
	}()
	finish(err)
	if err != nil {
		return UserProfile{}, err
	}
	s.log.TrackDataOperation(componentProfile, "update", string(EntityUserProfile), updated.ID)
	return updated, nil
}

// ClearProfile removes the stored profile. Clearing an absent profile is a
// no-op, matching the store contract.
func (s *Service) ClearProfile(ctx context.Context) error {
	ctx, finish := s.begin(ctx, "profile.clear")
	err := s.commit(ctx, "profile.clear", func(tx Transaction) error {
		tx.ClearProfile()
		return nil
	})
	finish(err)
	if err != nil {
		return err
	}
	s.log.TrackDataOperation(componentProfile, "clear", string(EntityUserProfile), "")
	return nil
}

// GetOnboarding returns the stored onboarding answers; the boolean is false
// when onboarding has not completed.
func (s *Service) GetOnboarding() (OnboardingData, bool) { return s.store.GetOnboarding() }

// SetOnboarding validates and stores the onboarding answers verbatim.
func (s *Service) SetOnboarding(ctx context.Context, data OnboardingData) error {
	ctx, finish := s.begin(ctx, "onboarding.set")
	err := func() error {
		if blank(data.BusinessName) {
			return apperr.NewRequired("business_name")
		}
		return s.commit(ctx, "onboarding.set", func(tx Transaction) error {
			tx.SetOnboarding(data)
			return nil
		})
	}()
	finish(err)
	if err != nil {
		return err
	}
	s.log.TrackDataOperation(componentOnboarding, "set", string(EntityOnboarding), "")
	return nil
}

// ClearOnboarding removes the stored onboarding answers so the first-run
// flow can restart.
func (s *Service) ClearOnboarding(ctx context.Context) error {
	ctx, finish := s.begin(ctx, "onboarding.clear")
	err := s.commit(ctx, "onboarding.clear", func(tx Transaction) error {
		tx.ClearOnboarding()
		return nil
	})
	finish(err)
	if err != nil {
		return err
	}
	s.log.TrackDataOperation(componentOnboarding, "clear", string(EntityOnboarding), "")
	return nil
}
