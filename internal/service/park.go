// Package service contains the business logic layer of the application.
//
//	Handler (HTTP layer)     → parses requests, writes responses
//	Service (business layer) → validates, enforces rules, orchestrates
//	Repository (data layer)  → reads/writes the store
//
// Services take repository interfaces, never concrete stores, and return
// apperror kinds. They know nothing about HTTP, so the cobra commands in
// cmd/parks can call them too.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sakif/parks/internal/apperror"
	"github.com/sakif/parks/internal/form"
	"github.com/sakif/parks/internal/model"
	"github.com/sakif/parks/internal/notify"
	"github.com/sakif/parks/internal/repository"
)

// SuggestionFailedMessage is shown when an edit suggestion could not be mailed.
const SuggestionFailedMessage = "Sorry, we could not send your suggestion. Please try again later."

// ParkService handles business logic for parks.
type ParkService struct {
	repo      repository.ParkRepository
	validator *form.Validator
	notifier  notify.Notifier
	logger    *slog.Logger
}

func NewParkService(repo repository.ParkRepository, validator *form.Validator, notifier notify.Notifier, logger *slog.Logger) *ParkService {
	return &ParkService{
		repo:      repo,
		validator: validator,
		notifier:  notifier,
		logger:    logger,
	}
}

// List returns every park ordered by name.
func (s *ParkService) List(ctx context.Context) ([]model.Park, error) {
	parks, err := s.repo.ListParks(ctx)
	if err != nil {
		s.logger.Error("failed to list parks", slog.String("error", err.Error()))
		return nil, fmt.Errorf("listing parks: %w", err)
	}
	return parks, nil
}

// Get returns apperror.ErrNotFound if the park doesn't exist.
func (s *ParkService) Get(ctx context.Context, id int64) (*model.Park, error) {
	return s.repo.GetPark(ctx, id)
}

// Create validates and saves a new park. A duplicate name is
// apperror.ErrConflict whether the pre-check or the store catches it.
func (s *ParkService) Create(ctx context.Context, in form.ParkInput) (*model.Park, error) {
	if err := s.validator.Validate(in); err != nil {
		return nil, err
	}
	if err := s.checkNameFree(ctx, in.Name, 0); err != nil {
		return nil, err
	}

	park := in.Park(0)
	if err := s.repo.CreatePark(ctx, &park); err != nil {
		if errors.Is(err, apperror.ErrConflict) {
			return nil, err
		}
		s.logger.Error("failed to create park",
			slog.String("name", park.Name),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating park: %w", err)
	}

	s.logger.Info("park created",
		slog.Int64("id", park.ID),
		slog.String("name", park.Name),
	)
	return &park, nil
}

// Update is the authenticated edit: it overwrites the stored park with in.
// It never notifies anyone. A missing park is reported before any
// validation error.
func (s *ParkService) Update(ctx context.Context, id int64, in form.ParkInput) (*model.Park, error) {
	if _, err := s.repo.GetPark(ctx, id); err != nil {
		return nil, err
	}
	if err := s.validator.Validate(in); err != nil {
		return nil, err
	}
	if err := s.checkNameFree(ctx, in.Name, id); err != nil {
		return nil, err
	}

	return s.save(ctx, in.Park(id))
}

// SuggestEdit is the anonymous edit: it mails the difference between the
// stored park and in to the maintainer and never writes to the store.
//
// The returned changes are empty when in matches the stored park; nothing
// is sent in that case.
func (s *ParkService) SuggestEdit(ctx context.Context, id int64, in form.ParkInput) ([]model.Change, error) {
	park, err := s.repo.GetPark(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.validator.Validate(in); err != nil {
		return nil, err
	}

	changes := park.Diff(in.Park(id))
	if len(changes) == 0 {
		return nil, nil
	}

	if err := s.notifier.Notify(ctx, notify.SuggestionMessage(*park, changes)); err != nil {
		s.logger.Error("failed to send edit suggestion",
			slog.Int64("id", id),
			slog.String("error", err.Error()),
		)
		return nil, apperror.Unavailable(SuggestionFailedMessage, err)
	}

	s.logger.Info("edit suggestion sent",
		slog.Int64("id", id),
		slog.Int("changes", len(changes)),
	)
	return changes, nil
}

// Delete removes a park and returns its name for the confirmation message.
// Returns apperror.ErrNotFound if the park doesn't exist.
func (s *ParkService) Delete(ctx context.Context, id int64) (string, error) {
	park, err := s.repo.GetPark(ctx, id)
	if err != nil {
		return "", err
	}
	if err := s.repo.DeletePark(ctx, id); err != nil {
		return "", err
	}

	s.logger.Info("park deleted", slog.Int64("id", id), slog.String("name", park.Name))
	return park.Name, nil
}

func (s *ParkService) save(ctx context.Context, park model.Park) (*model.Park, error) {
	if err := s.repo.UpdatePark(ctx, &park); err != nil {
		if errors.Is(err, apperror.ErrConflict) || errors.Is(err, apperror.ErrNotFound) {
			return nil, err
		}
		s.logger.Error("failed to update park",
			slog.Int64("id", park.ID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("updating park: %w", err)
	}

	s.logger.Info("park updated",
		slog.Int64("id", park.ID),
		slog.String("name", park.Name),
	)
	return &park, nil
}

// checkNameFree returns ErrConflict if a park other than selfID already
// uses name.
func (s *ParkService) checkNameFree(ctx context.Context, name string, selfID int64) error {
	existing, err := s.repo.GetParkByName(ctx, name)
	switch {
	case errors.Is(err, apperror.ErrNotFound):
		return nil
	case err != nil:
		return fmt.Errorf("checking park name: %w", err)
	case existing.ID != selfID:
		return apperror.Conflict("park", "name", name)
	}
	return nil
}
