package core

import (
	"context"
	"fmt"

	"bizcore/internal/diaglog"
	"bizcore/pkg/apperr"
	"bizcore/pkg/domain"
)

const componentContacts = "contacts"

// ContactInput carries caller-supplied fields for contact creation. ID and
// timestamps are always store-assigned.
type ContactInput struct {
	Name             string
	Email            string
	Phone            string
	Company          string
	RelationshipType RelationshipType
	ProjectIDs       []string
}

// ContactPatch carries partial fields for contact update; nil means "leave
// unchanged".
type ContactPatch struct {
	Name             *string
	Email            *string
	Phone            *string
	Company          *string
	RelationshipType *RelationshipType
	ProjectIDs       *[]string
}

// ListContacts returns every contact in insertion order.
func (s *Service) ListContacts() []Contact { return s.store.ListContacts() }

// GetContact returns the contact with the given id. Absence is not an
// error: the boolean is false.
func (s *Service) GetContact(id string) (Contact, bool) { return s.store.GetContact(id) }

// ContactsByType returns contacts with the given relationship category.
func (s *Service) ContactsByType(rt RelationshipType) []Contact {
	var out []Contact
	for _, c := range s.store.ListContacts() {
		if c.RelationshipType == rt {
			out = append(out, c)
		}
	}
	return out
}

// SearchContacts performs case-insensitive substring matching over name,
// email and company. An empty query matches everything.
func (s *Service) SearchContacts(query string) []Contact {
	if blank(query) {
		return s.store.ListContacts()
	}
	var out []Contact
	for _, c := range s.store.ListContacts() {
		if containsFold(c.Name, query) || containsFold(c.Email, query) || containsFold(c.Company, query) {
			out = append(out, c)
		}
	}
	return out
}

func validateContactInput(input ContactInput) error {
	if blank(input.Name) {
		return apperr.NewRequired("name")
	}
	if blank(input.Email) {
		return apperr.NewRequired("email")
	}
	if !validEmail(input.Email) {
		return apperr.NewValidation("email", "email address format is invalid")
	}
	if input.RelationshipType != "" && !input.RelationshipType.Valid() {
		return apperr.NewValidation("relationship_type",
			fmt.Sprintf("unknown relationship type %q", input.RelationshipType))
	}
	return nil
}

// CreateContact validates input, rejects duplicate emails
// (case-insensitively, against the full collection) and persists a new
// contact with store-assigned id and timestamps.
func (s *Service) CreateContact(ctx context.Context, input ContactInput) (Contact, error) {
	ctx, finish := s.begin(ctx, "contacts.create")
	var created Contact
	err := func() error {
		if err := validateContactInput(input); err != nil {
			return err
		}
		contact := Contact{
			Name:             input.Name,
			Email:            input.Email,
			Phone:            input.Phone,
			Company:          input.Company,
			RelationshipType: input.RelationshipType,
			ProjectIDs:       append([]string{}, input.ProjectIDs...),
		}
		if contact.RelationshipType == "" {
			contact.RelationshipType = domain.RelationshipOther
		}
		return s.commit(ctx, "contacts.create", func(tx Transaction) error {
			for _, existing := range tx.Snapshot().ListContacts() {
				if equalFold(existing.Email, contact.Email) {
					return apperr.NewDuplicate("email",
						fmt.Sprintf("a contact with email %q already exists", existing.Email))
				}
			}
			created = tx.SaveContact(contact)
			return nil
		})
	}()
	finish(err)
	if err != nil {
		return Contact{}, err
	}
	s.log.TrackDataOperation(componentContacts, "create", string(EntityContact), created.ID)
	return created, nil
}

// UpdateContact merges patch fields over the stored contact, preserving id
// and CreatedAt and refreshing UpdatedAt. A patched email is re-validated
// for format only; uniqueness is not re-checked against other contacts
// (long-standing behavior that callers depend on).
func (s *Service) UpdateContact(ctx context.Context, id string, patch ContactPatch) (Contact, error) {
	ctx, finish := s.begin(ctx, "contacts.update")
	var updated Contact
	err := func() error {
		if patch.Email != nil && !validEmail(*patch.Email) {
			return apperr.NewValidation("email", "email address format is invalid")
		}
		return s.commit(ctx, "contacts.update", func(tx Transaction) error {
			existing, ok := tx.FindContact(id)
			if !ok {
				return apperr.NewNotFound(string(EntityContact), id)
			}
			merged := existing
			if patch.Name != nil {
				merged.Name = *patch.Name
			}
			if patch.Email != nil {
				merged.Email = *patch.Email
			}
			if patch.Phone != nil {
				merged.Phone = *patch.Phone
			}
			if patch.Company != nil {
				merged.Company = *patch.Company
			}
			if patch.RelationshipType != nil {
				if !patch.RelationshipType.Valid() {
					return apperr.NewValidation("relationship_type",
						fmt.Sprintf("unknown relationship type %q", *patch.RelationshipType))
				}
				merged.RelationshipType = *patch.RelationshipType
			}
			if patch.ProjectIDs != nil {
				merged.ProjectIDs = append([]string(nil), (*patch.ProjectIDs)...)
			}
			tx.UpdateContact(merged)
			updated, _ = tx.FindContact(id)
			return nil
		})
	}()
	finish(err)
	if err != nil {
		return Contact{}, err
	}
	s.log.TrackDataOperation(componentContacts, "update", string(EntityContact), id)
	return updated, nil
}

// DeleteContact removes the contact, failing with a not-found error when
// absent. The deleted display name is logged for audit readability.
func (s *Service) DeleteContact(ctx context.Context, id string) error {
	ctx, finish := s.begin(ctx, "contacts.delete")
	var name string
	err := s.commit(ctx, "contacts.delete", func(tx Transaction) error {
		existing, ok := tx.FindContact(id)
		if !ok {
			return apperr.NewNotFound(string(EntityContact), id)
		}
		name = existing.Name
		tx.RemoveContact(id)
		return nil
	})
	finish(err)
	if err != nil {
		return err
	}
	s.log.Info(componentContacts, "delete", fmt.Sprintf("deleted contact %q", name),
		diaglog.DataOperation("delete", string(EntityContact), id))
	return nil
}
