package memory

import (
	"context"
	"sync"
	"time"

	"github.com/shashiranjanraj/parcelhub/app/models"
	"github.com/shashiranjanraj/parcelhub/app/repositories"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ─── Parcels ──────────────────────────────────────────────────────────────────

type ParcelStore struct {
	faults
	mu   sync.RWMutex
	docs []models.Parcel
}

func (s *ParcelStore) Insert(_ context.Context, p *models.Parcel) (primitive.ObjectID, error) {
	if err := s.fault("insert"); err != nil {
		return primitive.NilObjectID, err
	}
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	cp := *p
	cp.Fields = copyFields(p.Fields)

	s.mu.Lock()
	s.docs = append(s.docs, cp)
	s.mu.Unlock()
	return p.ID, nil
}

func (s *ParcelStore) List(_ context.Context, owner string) ([]models.Parcel, error) {
	if err := s.fault("list"); err != nil {
		return nil, err
	}
	s.mu.RLock()
	out := []models.Parcel{}
	for _, p := range s.docs {
		if owner == "" || p.CreatedBy == owner {
			p.Fields = copyFields(p.Fields)
			out = append(out, p)
		}
	}
	s.mu.RUnlock()

	sortStable(out, func(a, b models.Parcel) bool { return a.CreationDate.After(b.CreationDate) })
	return out, nil
}

func (s *ParcelStore) FindByID(_ context.Context, id primitive.ObjectID) (models.Parcel, error) {
	if err := s.fault("find"); err != nil {
		return models.Parcel{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.docs {
		if p.ID == id {
			p.Fields = copyFields(p.Fields)
			return p, nil
		}
	}
	return models.Parcel{}, repositories.ErrNotFound
}

func (s *ParcelStore) Delete(_ context.Context, id primitive.ObjectID) (int64, error) {
	if err := s.fault("delete"); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, p := range s.docs {
		if p.ID == id {
			s.docs = append(s.docs[:i], s.docs[i+1:]...)
			return 1, nil
		}
	}
	return 0, nil
}

func (s *ParcelStore) SetPaymentStatus(_ context.Context, id primitive.ObjectID, status models.PaymentStatus) (repositories.UpdateResult, error) {
	if err := s.fault("set_payment_status"); err != nil {
		return repositories.UpdateResult{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.docs {
		if s.docs[i].ID != id {
			continue
		}
		if s.docs[i].PaymentStatus == status {
			return repositories.UpdateResult{Matched: 1}, nil
		}
		s.docs[i].PaymentStatus = status
		return repositories.UpdateResult{Matched: 1, Modified: 1}, nil
	}
	return repositories.UpdateResult{}, nil
}

// ─── Payments ─────────────────────────────────────────────────────────────────

type PaymentStore struct {
	faults
	mu   sync.RWMutex
	docs []models.Payment
}

func (s *PaymentStore) Insert(_ context.Context, p *models.Payment) (primitive.ObjectID, error) {
	if err := s.fault("insert"); err != nil {
		return primitive.NilObjectID, err
	}
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	s.mu.Lock()
	s.docs = append(s.docs, *p)
	s.mu.Unlock()
	return p.ID, nil
}

func (s *PaymentStore) List(_ context.Context, email string) ([]models.Payment, error) {
	if err := s.fault("list"); err != nil {
		return nil, err
	}
	s.mu.RLock()
	out := []models.Payment{}
	for _, p := range s.docs {
		if email == "" || p.Email == email {
			out = append(out, p)
		}
	}
	s.mu.RUnlock()

	sortStable(out, func(a, b models.Payment) bool { return a.PaymentTime.After(b.PaymentTime) })
	return out, nil
}

// ─── Tracking ─────────────────────────────────────────────────────────────────

type TrackingStore struct {
	faults
	mu   sync.RWMutex
	docs []models.TrackingEvent
}

func (s *TrackingStore) Insert(_ context.Context, e *models.TrackingEvent) (primitive.ObjectID, error) {
	if err := s.fault("insert"); err != nil {
		return primitive.NilObjectID, err
	}
	if e.ID.IsZero() {
		e.ID = primitive.NewObjectID()
	}
	s.mu.Lock()
	s.docs = append(s.docs, *e)
	s.mu.Unlock()
	return e.ID, nil
}

func (s *TrackingStore) ListByTrackingID(_ context.Context, trackingID string) ([]models.TrackingEvent, error) {
	if err := s.fault("list"); err != nil {
		return nil, err
	}
	s.mu.RLock()
	out := []models.TrackingEvent{}
	for _, e := range s.docs {
		if e.TrackingID == trackingID {
			out = append(out, e)
		}
	}
	s.mu.RUnlock()

	sortStable(out, func(a, b models.TrackingEvent) bool { return a.Timestamp.Before(b.Timestamp) })
	return out, nil
}

// ─── Users ────────────────────────────────────────────────────────────────────

type UserStore struct {
	faults
	mu   sync.RWMutex
	docs []models.User
}

func (s *UserStore) Insert(_ context.Context, u *models.User) (primitive.ObjectID, error) {
	if err := s.fault("insert"); err != nil {
		return primitive.NilObjectID, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.docs {
		if existing.Email == u.Email {
			return primitive.NilObjectID, repositories.ErrDuplicate
		}
	}
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	s.docs = append(s.docs, *u)
	return u.ID, nil
}

func (s *UserStore) FindByEmail(_ context.Context, email string) (models.User, error) {
	if err := s.fault("find"); err != nil {
		return models.User{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.docs {
		if u.Email == email {
			return u, nil
		}
	}
	return models.User{}, repositories.ErrNotFound
}

func (s *UserStore) TouchLogin(_ context.Context, email string, at time.Time) error {
	if err := s.fault("touch_login"); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.docs {
		if s.docs[i].Email == email {
			s.docs[i].LastLogIn = at
			return nil
		}
	}
	return repositories.ErrNotFound
}

func (s *UserStore) Search(_ context.Context, emailPart string, limit int) ([]models.UserSummary, error) {
	if err := s.fault("search"); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []models.UserSummary{}
	for _, u := range s.docs {
		if limit > 0 && len(out) == limit {
			break
		}
		if containsFold(u.Email, emailPart) {
			out = append(out, u.Summary())
		}
	}
	return out, nil
}

func (s *UserStore) SetRole(_ context.Context, email string, from, to, previous models.Role) (repositories.UpdateResult, error) {
	if err := s.fault("set_role"); err != nil {
		return repositories.UpdateResult{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.docs {
		u := &s.docs[i]
		if u.Email != email || u.Role != from {
			continue
		}
		if u.Role == to && u.PreviousRole == previous {
			return repositories.UpdateResult{Matched: 1}, nil
		}
		u.Role = to
		u.PreviousRole = previous
		return repositories.UpdateResult{Matched: 1, Modified: 1}, nil
	}
	return repositories.UpdateResult{}, nil
}

// ─── Riders ───────────────────────────────────────────────────────────────────

type RiderStore struct {
	faults
	mu   sync.RWMutex
	docs []models.Rider
}

func (s *RiderStore) Insert(_ context.Context, r *models.Rider) (primitive.ObjectID, error) {
	if err := s.fault("insert"); err != nil {
		return primitive.NilObjectID, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.docs {
		if existing.Email == r.Email {
			return primitive.NilObjectID, repositories.ErrDuplicate
		}
	}
	if r.ID.IsZero() {
		r.ID = primitive.NewObjectID()
	}
	cp := *r
	cp.Fields = copyFields(r.Fields)
	s.docs = append(s.docs, cp)
	return r.ID, nil
}

func (s *RiderStore) FindByID(_ context.Context, id primitive.ObjectID) (models.Rider, error) {
	if err := s.fault("find"); err != nil {
		return models.Rider{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.docs {
		if r.ID == id {
			r.Fields = copyFields(r.Fields)
			return r, nil
		}
	}
	return models.Rider{}, repositories.ErrNotFound
}

func (s *RiderStore) ExistsByEmail(_ context.Context, email string) (bool, error) {
	if err := s.fault("exists"); err != nil {
		return false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.docs {
		if r.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (s *RiderStore) List(_ context.Context, statuses []models.RiderStatus, nameLike string) ([]models.Rider, error) {
	if err := s.fault("list"); err != nil {
		return nil, err
	}
	s.mu.RLock()
	out := []models.Rider{}
	for _, r := range s.docs {
		if !hasStatus(statuses, r.Status) {
			continue
		}
		if nameLike != "" && !containsFold(r.Name, nameLike) {
			continue
		}
		r.Fields = copyFields(r.Fields)
		out = append(out, r)
	}
	s.mu.RUnlock()

	sortStable(out, func(a, b models.Rider) bool { return a.AppliedAt.After(b.AppliedAt) })
	return out, nil
}

func (s *RiderStore) SetStatus(_ context.Context, id primitive.ObjectID, status models.RiderStatus) (repositories.UpdateResult, error) {
	if err := s.fault("set_status"); err != nil {
		return repositories.UpdateResult{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.docs {
		if s.docs[i].ID != id {
			continue
		}
		if s.docs[i].Status == status {
			return repositories.UpdateResult{Matched: 1}, nil
		}
		s.docs[i].Status = status
		return repositories.UpdateResult{Matched: 1, Modified: 1}, nil
	}
	return repositories.UpdateResult{}, nil
}

// ─── Cascades ─────────────────────────────────────────────────────────────────

type CascadeStore struct {
	faults
	mu   sync.RWMutex
	docs []models.Cascade
}

func (s *CascadeStore) Insert(_ context.Context, c *models.Cascade) (primitive.ObjectID, error) {
	if err := s.fault("insert"); err != nil {
		return primitive.NilObjectID, err
	}
	if c.ID.IsZero() {
		c.ID = primitive.NewObjectID()
	}
	s.mu.Lock()
	s.docs = append(s.docs, *c)
	s.mu.Unlock()
	return c.ID, nil
}

func (s *CascadeStore) SetState(_ context.Context, id primitive.ObjectID, state models.CascadeState, detail string, at time.Time) error {
	if err := s.fault("set_state"); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.docs {
		if s.docs[i].ID == id {
			s.docs[i].State = state
			s.docs[i].UpdatedAt = at
			if detail != "" {
				s.docs[i].Detail = detail
			}
			return nil
		}
	}
	return repositories.ErrNotFound
}

func (s *CascadeStore) List(_ context.Context, state models.CascadeState, limit int) ([]models.Cascade, error) {
	if err := s.fault("list"); err != nil {
		return nil, err
	}
	s.mu.RLock()
	out := []models.Cascade{}
	for _, c := range s.docs {
		if state == "" || c.State == state {
			out = append(out, c)
		}
	}
	s.mu.RUnlock()

	sortStable(out, func(a, b models.Cascade) bool { return a.CreatedAt.After(b.CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
