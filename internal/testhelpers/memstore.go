package testhelpers

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgconn"
	"github.com/poofware/listings-service/internal/models"
	"github.com/poofware/listings-service/internal/repositories"
)

// MemStore is an in-memory stand-in for Postgres. It implements every
// repository interface plus repositories.UnitOfWork, enforces the same
// foreign-key and type-match rules as the schema, and restores a snapshot when
// a unit of work fails. Operations can be made to fail with FailOn.
type MemStore struct {
	mu       sync.Mutex
	txMu     sync.Mutex
	state    memState
	failures map[string]error
	ticks    int
	// imageSeq behaves like BIGSERIAL: rollbacks never rewind it.
	imageSeq int64
}

type memState struct {
	users      map[uuid.UUID]models.User
	properties map[uuid.UUID]models.Property
	details    map[models.PropertyType]map[uuid.UUID]models.PropertyDetail
	images     []models.PropertyImage
}

var memEpoch = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

func NewMemStore() *MemStore {
	s := &MemStore{failures: map[string]error{}, imageSeq: 1}
	s.state = memState{
		users:      map[uuid.UUID]models.User{},
		properties: map[uuid.UUID]models.Property{},
		details:    map[models.PropertyType]map[uuid.UUID]models.PropertyDetail{},
	}
	for _, t := range models.AllPropertyTypes {
		s.state.details[t] = map[uuid.UUID]models.PropertyDetail{}
	}
	return s
}

func (st memState) clone() memState {
	out := memState{
		users:      make(map[uuid.UUID]models.User, len(st.users)),
		properties: make(map[uuid.UUID]models.Property, len(st.properties)),
		details:    make(map[models.PropertyType]map[uuid.UUID]models.PropertyDetail, len(st.details)),
		images:     append([]models.PropertyImage(nil), st.images...),
	}
	for k, v := range st.users {
		out.users[k] = v
	}
	for k, v := range st.properties {
		out.properties[k] = v
	}
	for t, m := range st.details {
		cp := make(map[uuid.UUID]models.PropertyDetail, len(m))
		for k, v := range m {
			cp[k] = cloneDetail(v)
		}
		out.details[t] = cp
	}
	return out
}

func cloneDetail(d models.PropertyDetail) models.PropertyDetail {
	switch v := d.(type) {
	case *models.ApartmentDetail:
		c := *v
		return &c
	case *models.BungalowDetail:
		c := *v
		return &c
	case *models.CommercialDetail:
		c := *v
		return &c
	case *models.LandDetail:
		c := *v
		return &c
	}
	return d
}

// FailOn makes op (e.g. "Details.Insert", "Images.InsertMany",
// "UnitOfWork.Commit") return err until ClearFailures is called.
func (s *MemStore) FailOn(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[op] = err
}

func (s *MemStore) ClearFailures() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = map[string]error{}
}

// caller holds s.mu
func (s *MemStore) fail(op string) error {
	return s.failures[op]
}

// caller holds s.mu
func (s *MemStore) tick() time.Time {
	s.ticks++
	return memEpoch.Add(time.Duration(s.ticks) * time.Minute)
}

/* ------------------------------------------------------------------
   Unit of work
------------------------------------------------------------------ */

func (s *MemStore) Repos() repositories.Repos {
	return repositories.Repos{
		Properties: &memProperties{s},
		Details:    &memDetails{s},
		Images:     &memImages{s},
		Listings:   &memListings{s},
		Users:      &memUsers{s},
	}
}

func (s *MemStore) Do(ctx context.Context, fn func(repositories.Repos) error) (err error) {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.Lock()
	if err := s.fail("UnitOfWork.Begin"); err != nil {
		s.mu.Unlock()
		return err
	}
	snapshot := s.state.clone()
	s.mu.Unlock()

	rollback := func() {
		s.mu.Lock()
		s.state = snapshot
		s.mu.Unlock()
	}
	defer func() {
		if p := recover(); p != nil {
			rollback()
			panic(p)
		}
	}()

	if err = ctx.Err(); err == nil {
		err = fn(s.Repos())
	}
	if err == nil {
		s.mu.Lock()
		err = s.fail("UnitOfWork.Commit")
		s.mu.Unlock()
	}
	if err != nil {
		rollback()
	}
	return err
}

/* ------------------------------------------------------------------
   Fixture and inspection helpers
------------------------------------------------------------------ */

// AddUser stores a user with the given role and returns it.
func (s *MemStore) AddUser(role models.RoleName) models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := models.User{
		ID:    uuid.New(),
		Name:  string(role) + " user",
		Email: strings.ToLower(string(role)) + "-" + uuid.NewString()[:8] + "@example.com",
		Role:  role,
	}
	s.state.users[u.ID] = u
	return u
}

// SetRole changes a stored user's role the way the user service would.
func (s *MemStore) SetRole(id uuid.UUID, role models.RoleName) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.state.users[id]; ok {
		u.Role = role
		s.state.users[id] = u
	}
}

// RowCounts reports rows held for id in properties, all detail tables and
// property_images.
func (s *MemStore) RowCounts(id uuid.UUID) (properties, details, images int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.state.properties[id]; ok {
		properties = 1
	}
	for _, m := range s.state.details {
		if _, ok := m[id]; ok {
			details++
		}
	}
	for _, img := range s.state.images {
		if img.PropertyID == id {
			images++
		}
	}
	return
}

func (s *MemStore) PropertyCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.state.properties)
}

func (s *MemStore) ImageCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.state.images)
}

// ForceDetail writes d bypassing the type-match rule, to simulate legacy data.
func (s *MemStore) ForceDetail(d models.PropertyDetail) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.details[d.PropertyType()][d.GetPropertyID()] = cloneDetail(d)
}

// DropDetail deletes the detail row of type t for id, bypassing cascades.
func (s *MemStore) DropDetail(id uuid.UUID, t models.PropertyType) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.state.details[t], id)
}

func fkViolation(msg string) error {
	return &pgconn.PgError{Code: "23503", Message: msg}
}

func uniqueViolation(msg string) error {
	return &pgconn.PgError{Code: "23505", Message: msg}
}

/* ------------------------------------------------------------------
   Properties
------------------------------------------------------------------ */

type memProperties struct{ s *MemStore }

func (r *memProperties) Create(ctx context.Context, p *models.Property) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("Properties.Create"); err != nil {
		return err
	}
	if _, ok := s.state.users[p.OwnerID]; !ok {
		return fkViolation("properties_owner_id_fkey")
	}
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if _, ok := s.state.properties[p.ID]; ok {
		return uniqueViolation("properties_pkey")
	}
	now := s.tick()
	p.CreatedAt, p.UpdatedAt, p.RowVersion = now, now, 1
	s.state.properties[p.ID] = *p
	return nil
}

func (r *memProperties) GetByID(ctx context.Context, id uuid.UUID) (*models.Property, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("Properties.GetByID"); err != nil {
		return nil, err
	}
	p, ok := s.state.properties[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (r *memProperties) UpdateIfVersion(ctx context.Context, p *models.Property, expected int64) (pgconn.CommandTag, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("Properties.UpdateIfVersion"); err != nil {
		return nil, err
	}
	cur, ok := s.state.properties[p.ID]
	if !ok || cur.RowVersion != expected {
		return pgconn.CommandTag("UPDATE 0"), nil
	}
	next := *p
	next.RowVersion = expected + 1
	next.UpdatedAt = s.tick()
	s.state.properties[p.ID] = next
	return pgconn.CommandTag("UPDATE 1"), nil
}

func (r *memProperties) UpdateWithRetry(ctx context.Context, id uuid.UUID, mutate func(*models.Property) error) error {
	return repositories.RetryVersionedUpdate(ctx, 3, id, r.GetByID, r.UpdateIfVersion, mutate)
}

func (r *memProperties) Delete(ctx context.Context, id uuid.UUID) (int64, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("Properties.Delete"); err != nil {
		return 0, err
	}
	if _, ok := s.state.properties[id]; !ok {
		return 0, nil
	}
	delete(s.state.properties, id)
	// ON DELETE CASCADE
	for _, m := range s.state.details {
		delete(m, id)
	}
	kept := s.state.images[:0]
	for _, img := range s.state.images {
		if img.PropertyID != id {
			kept = append(kept, img)
		}
	}
	s.state.images = kept
	return 1, nil
}

/* ------------------------------------------------------------------
   Details
------------------------------------------------------------------ */

type memDetails struct{ s *MemStore }

func (r *memDetails) Insert(ctx context.Context, d models.PropertyDetail) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("Details.Insert"); err != nil {
		return err
	}
	if d == nil {
		return fmt.Errorf("nil property detail")
	}
	parent, ok := s.state.properties[d.GetPropertyID()]
	if !ok || parent.Type != d.PropertyType() {
		return fkViolation("detail_property_type_fkey")
	}
	table := s.state.details[d.PropertyType()]
	if _, dup := table[d.GetPropertyID()]; dup {
		return uniqueViolation("detail_pkey")
	}
	table[d.GetPropertyID()] = cloneDetail(d)
	return nil
}

func (r *memDetails) Get(ctx context.Context, id uuid.UUID, t models.PropertyType) (models.PropertyDetail, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("Details.Get"); err != nil {
		return nil, err
	}
	table, ok := s.state.details[t]
	if !ok {
		return nil, fmt.Errorf("no detail table for property type %q", t)
	}
	d, ok := table[id]
	if !ok {
		return nil, nil
	}
	return cloneDetail(d), nil
}

func (r *memDetails) DeleteAll(ctx context.Context, id uuid.UUID) (int64, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("Details.DeleteAll"); err != nil {
		return 0, err
	}
	var n int64
	for _, m := range s.state.details {
		if _, ok := m[id]; ok {
			delete(m, id)
			n++
		}
	}
	return n, nil
}

func (r *memDetails) CountRows(ctx context.Context, id uuid.UUID) (map[models.PropertyType]int, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("Details.CountRows"); err != nil {
		return nil, err
	}
	out := make(map[models.PropertyType]int, len(models.AllPropertyTypes))
	for _, t := range models.AllPropertyTypes {
		if _, ok := s.state.details[t][id]; ok {
			out[t] = 1
		} else {
			out[t] = 0
		}
	}
	return out, nil
}

/* ------------------------------------------------------------------
   Images
------------------------------------------------------------------ */

type memImages struct{ s *MemStore }

func (r *memImages) InsertMany(ctx context.Context, propertyID uuid.UUID, urls []string) ([]models.PropertyImage, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("Images.InsertMany"); err != nil {
		return nil, err
	}
	if _, ok := s.state.properties[propertyID]; !ok {
		return nil, fkViolation("property_images_property_id_fkey")
	}
	out := make([]models.PropertyImage, 0, len(urls))
	for _, u := range urls {
		img := models.PropertyImage{
			ID:         s.imageSeq,
			PropertyID: propertyID,
			ImageURL:   u,
			CreatedAt:  s.tick(),
		}
		s.imageSeq++
		s.state.images = append(s.state.images, img)
		out = append(out, img)
	}
	return out, nil
}

// caller holds s.mu
func (s *MemStore) imagesOf(propertyID uuid.UUID) []models.PropertyImage {
	out := []models.PropertyImage{}
	for _, img := range s.state.images {
		if img.PropertyID == propertyID {
			out = append(out, img)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// caller holds s.mu
func (s *MemStore) representative(propertyID uuid.UUID) *string {
	imgs := s.imagesOf(propertyID)
	if len(imgs) == 0 {
		return nil
	}
	u := imgs[0].ImageURL
	return &u
}

func (r *memImages) ListByProperty(ctx context.Context, propertyID uuid.UUID) ([]models.PropertyImage, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("Images.ListByProperty"); err != nil {
		return nil, err
	}
	return s.imagesOf(propertyID), nil
}

func (r *memImages) Representative(ctx context.Context, propertyID uuid.UUID) (*string, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("Images.Representative"); err != nil {
		return nil, err
	}
	return s.representative(propertyID), nil
}

func (r *memImages) DeleteByProperty(ctx context.Context, propertyID uuid.UUID) ([]string, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("Images.DeleteByProperty"); err != nil {
		return nil, err
	}
	var urls []string
	kept := s.state.images[:0]
	for _, img := range s.state.images {
		if img.PropertyID == propertyID {
			urls = append(urls, img.ImageURL)
			continue
		}
		kept = append(kept, img)
	}
	s.state.images = kept
	return urls, nil
}

func (r *memImages) ExistingURLs(ctx context.Context, urls []string) (map[string]bool, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("Images.ExistingURLs"); err != nil {
		return nil, err
	}
	want := make(map[string]bool, len(urls))
	for _, u := range urls {
		want[u] = true
	}
	out := map[string]bool{}
	for _, img := range s.state.images {
		if want[img.ImageURL] {
			out[img.ImageURL] = true
		}
	}
	return out, nil
}

/* ------------------------------------------------------------------
   Listings
------------------------------------------------------------------ */

type memListings struct{ s *MemStore }

// caller holds s.mu
func (s *MemStore) sortedProperties() []models.Property {
	out := make([]models.Property, 0, len(s.state.properties))
	for _, p := range s.state.properties {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out
}

func (r *memListings) ListProperties(ctx context.Context, f models.ListingFilter) ([]models.PropertySummary, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("Listings.ListProperties"); err != nil {
		return nil, err
	}
	if f.Type != nil && !f.Type.Valid() {
		return nil, fmt.Errorf("no detail table for property type %q", *f.Type)
	}

	out := []models.PropertySummary{}
	for _, p := range s.sortedProperties() {
		if f.Status != nil && p.Status != *f.Status {
			continue
		}
		if f.Search != nil && *f.Search != "" {
			needle := strings.ToLower(*f.Search)
			if !strings.Contains(strings.ToLower(p.Title), needle) &&
				!strings.Contains(strings.ToLower(p.Address), needle) {
				continue
			}
		}
		if f.Type != nil {
			if _, ok := s.state.details[*f.Type][p.ID]; !ok {
				continue
			}
		}
		if f.PriceMin != nil && p.Price < *f.PriceMin {
			continue
		}
		if f.PriceMax != nil && p.Price > *f.PriceMax {
			continue
		}
		if f.OwnerID != nil && p.OwnerID != *f.OwnerID {
			continue
		}
		out = append(out, models.PropertySummary{Property: p, ImageURL: s.representative(p.ID)})
	}
	return out, nil
}

func (r *memListings) ListByType(ctx context.Context, t models.PropertyType) ([]models.TypedListing, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("Listings.ListByType"); err != nil {
		return nil, err
	}
	table, ok := s.state.details[t]
	if !ok {
		return nil, fmt.Errorf("no detail table for property type %q", t)
	}

	out := []models.TypedListing{}
	for _, p := range s.sortedProperties() {
		d, ok := table[p.ID]
		if !ok {
			continue
		}
		out = append(out, models.TypedListing{
			Property: p,
			Detail:   cloneDetail(d),
			ImageURL: s.representative(p.ID),
		})
	}
	return out, nil
}

/* ------------------------------------------------------------------
   Users
------------------------------------------------------------------ */

type memUsers struct{ s *MemStore }

func (r *memUsers) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("Users.GetByID"); err != nil {
		return nil, err
	}
	u, ok := s.state.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (r *memUsers) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("Users.Exists"); err != nil {
		return false, err
	}
	_, ok := s.state.users[id]
	return ok, nil
}

func (r *memUsers) Create(ctx context.Context, u *models.User) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("Users.Create"); err != nil {
		return err
	}
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if _, ok := s.state.users[u.ID]; !ok {
		s.state.users[u.ID] = *u
	}
	return nil
}
