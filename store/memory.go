package store

import (
	"context"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/equipe-visionarios/imoveis-api/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// memoryDB keeps users and properties in process memory. It backs the API when
// no MongoDB URI is configured and is used by tests.
type memoryDB struct {
	mu         sync.Mutex
	users      map[primitive.ObjectID]models.User
	properties map[primitive.ObjectID]models.Property
	now        func() time.Time
}

type MemoryProperties struct{ db *memoryDB }

type MemoryUsers struct{ db *memoryDB }

func NewMemory() (*MemoryProperties, *MemoryUsers) {
	db := &memoryDB{
		users:      map[primitive.ObjectID]models.User{},
		properties: map[primitive.ObjectID]models.Property{},
		now:        time.Now,
	}
	return &MemoryProperties{db: db}, &MemoryUsers{db: db}
}

func copyProperty(p models.Property) models.Property {
	images := make([]models.Image, len(p.Images))
	copy(images, p.Images)
	p.Images = images
	if p.Location != nil {
		loc := *p.Location
		p.Location = &loc
	}
	p.Owner = nil
	return p
}

// withOwner must be called with the lock held.
func (db *memoryDB) withOwner(p models.Property) models.Property {
	out := copyProperty(p)
	if u, ok := db.users[p.CreatedBy]; ok {
		out.Owner = &models.Owner{ID: u.ID, Name: u.Name, Email: u.Email}
	}
	return out
}

// byCreation orders properties by creation time, then id, so listings are stable.
func byCreation(props []models.Property) {
	sort.Slice(props, func(i, j int) bool {
		if props[i].CreatedAt.Equal(props[j].CreatedAt) {
			return props[i].ID.Hex() < props[j].ID.Hex()
		}
		return props[i].CreatedAt.Before(props[j].CreatedAt)
	})
}

func (s *MemoryProperties) Insert(_ context.Context, p *models.Property) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	s.db.properties[p.ID] = copyProperty(*p)
	return nil
}

func (s *MemoryProperties) FindByID(_ context.Context, id primitive.ObjectID) (*models.Property, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	p, ok := s.db.properties[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	out := s.db.withOwner(p)
	return &out, nil
}

func (s *MemoryProperties) Find(_ context.Context, f models.PropertyFilter) ([]models.Property, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	out := []models.Property{}
	for _, p := range s.db.properties {
		if f.Matches(&p) {
			out = append(out, s.db.withOwner(p))
		}
	}
	byCreation(out)
	return out, nil
}

func (s *MemoryProperties) Update(_ context.Context, id primitive.ObjectID, owner *primitive.ObjectID, u models.PropertyUpdate, images []models.Image) (*models.Property, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	p, ok := s.db.properties[id]
	if !ok || (owner != nil && p.CreatedBy != *owner) {
		return nil, models.ErrNotFound
	}

	p = copyProperty(p)
	u.Apply(&p)
	p.Images = append(p.Images, images...)
	p.UpdatedAt = s.db.now()
	s.db.properties[id] = p

	out := copyProperty(p)
	return &out, nil
}

func (s *MemoryProperties) PullImage(_ context.Context, id primitive.ObjectID, owner *primitive.ObjectID, img models.Image) (*models.Property, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	p, ok := s.db.properties[id]
	if !ok || (owner != nil && p.CreatedBy != *owner) || !p.HasImageURL(img.URL) {
		return nil, models.ErrNotFound
	}

	kept := make([]models.Image, 0, len(p.Images))
	for _, existing := range p.Images {
		if existing.URL != img.URL {
			kept = append(kept, existing)
		}
	}
	p = copyProperty(p)
	p.Images = kept
	p.UpdatedAt = s.db.now()
	s.db.properties[id] = p

	out := copyProperty(p)
	return &out, nil
}

func (s *MemoryProperties) Delete(_ context.Context, id primitive.ObjectID, owner *primitive.ObjectID) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	p, ok := s.db.properties[id]
	if !ok || (owner != nil && p.CreatedBy != *owner) {
		return models.ErrNotFound
	}
	delete(s.db.properties, id)
	return nil
}

func (s *MemoryProperties) SampleImages(_ context.Context, n int) ([]models.ImageSample, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	samples := []models.ImageSample{}
	for _, p := range s.db.properties {
		if len(p.Images) == 0 {
			continue
		}
		samples = append(samples, models.ImageSample{ID: p.ID, Title: p.Title, Img: p.Images[0].URL})
	}
	rand.Shuffle(len(samples), func(i, j int) { samples[i], samples[j] = samples[j], samples[i] })
	if len(samples) > n {
		samples = samples[:n]
	}
	return samples, nil
}

func (s *MemoryUsers) Insert(_ context.Context, u *models.User) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	for _, existing := range s.db.users {
		if existing.Email == u.Email {
			return models.ErrEmailTaken
		}
	}
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	s.db.users[u.ID] = *u
	return nil
}

func (s *MemoryUsers) FindByEmail(_ context.Context, email string) (*models.User, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	for _, u := range s.db.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, models.ErrNotFound
}

func (s *MemoryUsers) FindByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	u, ok := s.db.users[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return &u, nil
}

func (s *MemoryUsers) List(_ context.Context) ([]models.User, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	users := make([]models.User, 0, len(s.db.users))
	for _, u := range s.db.users {
		u.Password = ""
		u.ResetPasswordToken = ""
		u.ResetPasswordExpire = nil
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID.Hex() < users[j].ID.Hex() })
	return users, nil
}

func (s *MemoryUsers) Save(_ context.Context, u *models.User) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	if _, ok := s.db.users[u.ID]; !ok {
		return models.ErrNotFound
	}
	for id, existing := range s.db.users {
		if id != u.ID && existing.Email == u.Email {
			return models.ErrEmailTaken
		}
	}
	s.db.users[u.ID] = *u
	return nil
}

func (s *MemoryUsers) SetResetToken(_ context.Context, id primitive.ObjectID, tokenHash string, expire time.Time) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	u, ok := s.db.users[id]
	if !ok {
		return models.ErrNotFound
	}
	u.ResetPasswordToken = tokenHash
	u.ResetPasswordExpire = &expire
	s.db.users[id] = u
	return nil
}

func (s *MemoryUsers) ClearResetToken(_ context.Context, id primitive.ObjectID) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	u, ok := s.db.users[id]
	if !ok {
		return models.ErrNotFound
	}
	u.ResetPasswordToken = ""
	u.ResetPasswordExpire = nil
	s.db.users[id] = u
	return nil
}

func (s *MemoryUsers) ConsumeResetToken(_ context.Context, tokenHash string, now time.Time, passwordHash string) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	for id, u := range s.db.users {
		if u.ResetPasswordToken == "" || u.ResetPasswordToken != tokenHash {
			continue
		}
		if u.ResetPasswordExpire == nil || !u.ResetPasswordExpire.After(now) {
			u.ResetPasswordToken = ""
			u.ResetPasswordExpire = nil
			s.db.users[id] = u
			return models.ErrResetTokenInvalid
		}
		u.Password = passwordHash
		u.ResetPasswordToken = ""
		u.ResetPasswordExpire = nil
		u.UpdatedAt = now
		s.db.users[id] = u
		return nil
	}
	return models.ErrResetTokenInvalid
}
