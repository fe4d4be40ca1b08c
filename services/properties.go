package services

import (
	"context"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/equipe-visionarios/imoveis-api/imagestore"
	"github.com/equipe-visionarios/imoveis-api/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	MaxImagesPerRequest = 10
	randomImagesCount   = 5
	cleanupTimeout      = time.Minute
	invalidateTimeout   = 3 * time.Second
)

type PropertyStore interface {
	Insert(ctx context.Context, p *models.Property) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Property, error)
	Find(ctx context.Context, f models.PropertyFilter) ([]models.Property, error)
	Update(ctx context.Context, id primitive.ObjectID, owner *primitive.ObjectID, u models.PropertyUpdate, images []models.Image) (*models.Property, error)
	PullImage(ctx context.Context, id primitive.ObjectID, owner *primitive.ObjectID, img models.Image) (*models.Property, error)
	Delete(ctx context.Context, id primitive.ObjectID, owner *primitive.ObjectID) error
	SampleImages(ctx context.Context, n int) ([]models.ImageSample, error)
}

type Geocoder interface {
	Geocode(ctx context.Context, address string) (models.Location, error)
}

type ImageStore interface {
	Upload(ctx context.Context, name string, r io.Reader) (models.Image, error)
	Delete(ctx context.Context, publicID string) error
}

// ListingCache stores listing results per generation. Generation must be read
// before the store is queried so that a result computed before a mutation is
// written under a generation nobody reads anymore.
type ListingCache interface {
	Generation(ctx context.Context) (int64, bool)
	Get(ctx context.Context, gen int64, f models.PropertyFilter) ([]models.Property, bool)
	Set(ctx context.Context, gen int64, f models.PropertyFilter, props []models.Property)
	ListingInvalidator
}

type ListingInvalidator interface {
	Invalidate(ctx context.Context)
}

// ImageFile is one uploaded file waiting to be sent to the image store.
type ImageFile struct {
	Name string
	Body io.Reader
}

type PropertyService struct {
	Store    PropertyStore
	Geocoder Geocoder
	Images   ImageStore
	Cache    ListingCache

	// AllowAdminEdit lets admins update properties and their images.
	AllowAdminEdit bool
	Now            func() time.Time
}

func (s *PropertyService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *PropertyService) Create(ctx context.Context, caller models.Identity, in models.PropertyInput, files []ImageFile) (*models.Property, error) {
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	if len(files) > MaxImagesPerRequest {
		return nil, tooManyImages()
	}

	loc, err := s.Geocoder.Geocode(ctx, in.Address)
	if err != nil {
		return nil, fmt.Errorf("geocode %q: %w", in.Address, err)
	}

	uploaded, err := s.upload(ctx, files)
	if err != nil {
		return nil, err
	}

	p := in.NewProperty(caller.UserID, s.now())
	p.Location = &loc
	p.Images = appendNew(p.Images, uploaded)

	if err := s.Store.Insert(ctx, p); err != nil {
		logOrphans(uploaded)
		return nil, fmt.Errorf("create property: %w", err)
	}
	s.invalidate()
	return p, nil
}

// List returns the properties matching every supplied criterion.
func (s *PropertyService) List(ctx context.Context, f models.PropertyFilter) ([]models.Property, error) {
	var gen int64
	cached := false
	if s.Cache != nil {
		gen, cached = s.Cache.Generation(ctx)
	}
	if cached {
		if props, ok := s.Cache.Get(ctx, gen, f); ok {
			return props, nil
		}
	}

	props, err := s.Store.Find(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list properties: %w", err)
	}
	if cached {
		s.Cache.Set(ctx, gen, f, props)
	}
	return props, nil
}

func (s *PropertyService) Get(ctx context.Context, id primitive.ObjectID) (*models.Property, error) {
	return s.Store.FindByID(ctx, id)
}

// Update applies the supplied fields and appends newly uploaded images in one
// write. Omitted fields keep their stored values.
func (s *PropertyService) Update(ctx context.Context, caller models.Identity, id primitive.ObjectID, u models.PropertyUpdate, files []ImageFile) (*models.Property, error) {
	current, owner, err := s.authorize(ctx, caller, id, s.AllowAdminEdit)
	if err != nil {
		return nil, err
	}
	if err := validateStruct(u); err != nil {
		return nil, err
	}
	if len(files) > MaxImagesPerRequest {
		return nil, tooManyImages()
	}

	u.Location = nil
	if u.Address != nil && *u.Address != current.Address {
		loc, err := s.Geocoder.Geocode(ctx, *u.Address)
		if err != nil {
			return nil, fmt.Errorf("geocode %q: %w", *u.Address, err)
		}
		u.Location = &loc
	}

	uploaded, err := s.upload(ctx, files)
	if err != nil {
		return nil, err
	}
	added := appendNew(nil, uploaded)
	fresh := added[:0]
	for _, img := range added {
		if !current.HasImageURL(img.URL) {
			fresh = append(fresh, img)
		}
	}

	if u.Empty() && len(fresh) == 0 {
		return current, nil
	}

	updated, err := s.Store.Update(ctx, id, owner, u, fresh)
	if err != nil {
		logOrphans(uploaded)
		return nil, fmt.Errorf("update property %s: %w", id.Hex(), err)
	}
	updated.Owner = current.Owner
	s.invalidate()
	return updated, nil
}

func (s *PropertyService) RemoveImageByURL(ctx context.Context, caller models.Identity, id primitive.ObjectID, imageURL string) (*models.Property, error) {
	return s.removeImage(ctx, caller, id, func(img models.Image) bool { return img.URL == imageURL })
}

func (s *PropertyService) RemoveImageByPublicID(ctx context.Context, caller models.Identity, id primitive.ObjectID, publicID string) (*models.Property, error) {
	return s.removeImage(ctx, caller, id, func(img models.Image) bool { return imagestore.PublicIDOf(img) == publicID })
}

// removeImage drops the first entry accepted by match. Deleting the stored
// object is best-effort; the record is updated either way.
func (s *PropertyService) removeImage(ctx context.Context, caller models.Identity, id primitive.ObjectID, match func(models.Image) bool) (*models.Property, error) {
	current, owner, err := s.authorize(ctx, caller, id, s.AllowAdminEdit)
	if err != nil {
		return nil, err
	}

	var target *models.Image
	for i := range current.Images {
		if match(current.Images[i]) {
			target = &current.Images[i]
			break
		}
	}
	if target == nil {
		return nil, fmt.Errorf("image on property %s: %w", id.Hex(), models.ErrNotFound)
	}

	if publicID := imagestore.PublicIDOf(*target); publicID != "" {
		if err := s.Images.Delete(ctx, publicID); err != nil {
			log.Printf("Failed to delete image %s from store, removing reference anyway: %v", publicID, err)
		}
	}

	updated, err := s.Store.PullImage(ctx, id, owner, *target)
	if err != nil {
		return nil, fmt.Errorf("remove image from property %s: %w", id.Hex(), err)
	}
	updated.Owner = current.Owner
	s.invalidate()
	return updated, nil
}

// Delete removes the record; its stored images are removed in the background.
func (s *PropertyService) Delete(ctx context.Context, caller models.Identity, id primitive.ObjectID) error {
	current, owner, err := s.authorize(ctx, caller, id, true)
	if err != nil {
		return err
	}
	if err := s.Store.Delete(ctx, id, owner); err != nil {
		return fmt.Errorf("delete property %s: %w", id.Hex(), err)
	}
	s.invalidate()

	images := current.Images
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), cleanupTimeout)
		defer cancel()
		for _, img := range images {
			publicID := imagestore.PublicIDOf(img)
			if publicID == "" {
				continue
			}
			if err := s.Images.Delete(ctx, publicID); err != nil {
				log.Printf("Failed to delete image %s of removed property %s: %v", publicID, id.Hex(), err)
			}
		}
	}()
	return nil
}

func (s *PropertyService) RandomImages(ctx context.Context) ([]models.ImageSample, error) {
	samples, err := s.Store.SampleImages(ctx, randomImagesCount)
	if err != nil {
		return nil, fmt.Errorf("random images: %w", err)
	}
	return samples, nil
}

// authorize loads the property and returns the owner guard for the write.
// A nil guard means the caller acts as admin.
func (s *PropertyService) authorize(ctx context.Context, caller models.Identity, id primitive.ObjectID, adminAllowed bool) (*models.Property, *primitive.ObjectID, error) {
	current, err := s.Store.FindByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if current.CreatedBy == caller.UserID {
		owner := caller.UserID
		return current, &owner, nil
	}
	if adminAllowed && caller.IsAdmin() {
		return current, nil, nil
	}
	return nil, nil, fmt.Errorf("property %s: %w", id.Hex(), models.ErrForbidden)
}

func (s *PropertyService) upload(ctx context.Context, files []ImageFile) ([]models.Image, error) {
	uploaded := make([]models.Image, 0, len(files))
	for _, f := range files {
		img, err := s.Images.Upload(ctx, f.Name, f.Body)
		if err != nil {
			logOrphans(uploaded)
			return nil, fmt.Errorf("upload %s: %w", f.Name, err)
		}
		uploaded = append(uploaded, img)
	}
	return uploaded, nil
}

func (s *PropertyService) invalidate() {
	invalidateListings(s.Cache)
}

// invalidateListings runs before the mutation is reported, so the next read
// never sees the previous listing.
func invalidateListings(c ListingInvalidator) {
	if c == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), invalidateTimeout)
	defer cancel()
	c.Invalidate(ctx)
}

// appendNew appends the images whose URL is not in dst yet.
func appendNew(dst, images []models.Image) []models.Image {
	seen := make(map[string]bool, len(dst)+len(images))
	for _, img := range dst {
		seen[img.URL] = true
	}
	for _, img := range images {
		if seen[img.URL] {
			continue
		}
		seen[img.URL] = true
		dst = append(dst, img)
	}
	return dst
}

func logOrphans(images []models.Image) {
	for _, img := range images {
		log.Printf("Orphaned image left in store: %s (%s)", img.PublicID, img.URL)
	}
}

func tooManyImages() error {
	return models.NewValidationError(map[string]string{
		"images": fmt.Sprintf("máximo de %d imagens por envio", MaxImagesPerRequest),
	})
}
