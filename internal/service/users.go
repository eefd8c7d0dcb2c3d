package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"innkeeper/internal/docstore"
	"innkeeper/internal/domain"
	"innkeeper/internal/models"

	"github.com/rs/zerolog"
)

// UserService manages guest profiles.
type UserService struct {
	store  docstore.Store
	audit  domain.AuditSink
	logger *zerolog.Logger
}

func NewUserService(store docstore.Store, audit domain.AuditSink, logger *zerolog.Logger) *UserService {
	return &UserService{store: store, audit: audit, logger: logger}
}

func (s *UserService) GetUser(ctx context.Context, userID string) (*models.User, error) {
	raw, err := s.store.Get(ctx, models.CollectionUsers, userID)
	if errors.Is(err, docstore.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user %s: %w", userID, err)
	}
	var u models.User
	if err := docstore.Decode(raw, &u); err != nil {
		return nil, fmt.Errorf("decode user %s: %w", userID, err)
	}
	return &u, nil
}

func (s *UserService) ListUsers(ctx context.Context) ([]models.User, error) {
	raws, err := s.store.List(ctx, models.CollectionUsers)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	users, err := docstore.DecodeAll[models.User](raws)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	sort.Slice(users, func(i, j int) bool {
		ni, nj := users[i].DisplayName(), users[j].DisplayName()
		if ni != nj {
			return ni < nj
		}
		return users[i].ID < users[j].ID
	})
	return users, nil
}

// UpdateUser merges profile fields. A "dob" field is normalized to
// RFC 3339 so every client version reads it back the same way; an
// unparseable date is dropped rather than stored broken.
func (s *UserService) UpdateUser(ctx context.Context, userID string, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	if raw, ok := fields["dob"]; ok {
		if normalized, ok := normalizeDOB(raw); ok {
			fields["dob"] = normalized
		} else {
			delete(fields, "dob")
			if s.logger != nil {
				s.logger.Warn().Str("user_id", userID).Msg("dropping unparseable dob on update")
			}
		}
	}

	err := s.store.Update(ctx, models.CollectionUsers, userID, fields)
	if errors.Is(err, docstore.ErrNotFound) {
		return ErrUserNotFound
	}
	if err != nil {
		return fmt.Errorf("update user %s: %w", userID, err)
	}

	s.record(ctx, "user.update", models.CollectionUsers, userID, "")
	return nil
}

func (s *UserService) DeleteUser(ctx context.Context, userID string) error {
	if err := s.store.Delete(ctx, models.CollectionUsers, userID); err != nil {
		return fmt.Errorf("delete user %s: %w", userID, err)
	}

	s.record(ctx, "user.delete", models.CollectionUsers, userID, "")
	return nil
}

// normalizeDOB accepts time.Time, RFC 3339 strings, and plain
// "2006-01-02" dates.
func normalizeDOB(raw any) (string, bool) {
	switch v := raw.(type) {
	case time.Time:
		return v.UTC().Format(time.RFC3339), true
	case *time.Time:
		if v == nil {
			return "", false
		}
		return v.UTC().Format(time.RFC3339), true
	case string:
		for _, layout := range []string{time.RFC3339, "2006-01-02"} {
			if t, err := time.Parse(layout, v); err == nil {
				return t.UTC().Format(time.RFC3339), true
			}
		}
		return "", false
	default:
		return "", false
	}
}

func (s *UserService) record(ctx context.Context, action, entity, entityID, detail string) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Record(ctx, action, entity, entityID, detail); err != nil && s.logger != nil {
		s.logger.Warn().Err(err).Str("action", action).Msg("audit record failed")
	}
}
