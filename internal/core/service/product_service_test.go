package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/backoffice/admin-api/internal/core/domain"
	"github.com/backoffice/admin-api/internal/core/ports"
	"github.com/backoffice/admin-api/internal/pkg/clock"
)

// ---------------------------------------------------------------------------
// Stubs
// ---------------------------------------------------------------------------

type stubProductRepo struct {
	byID      map[int64]*domain.Product
	nextID    int64
	createErr error
	updateErr error
}

func newStubProductRepo() *stubProductRepo {
	return &stubProductRepo{byID: make(map[int64]*domain.Product)}
}

func (r *stubProductRepo) Create(_ context.Context, p *domain.Product) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.nextID++
	p.ID = r.nextID
	clone := *p
	r.byID[p.ID] = &clone
	return nil
}

func (r *stubProductRepo) FindByID(_ context.Context, id int64) (*domain.Product, error) {
	p, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrProductNotFound
	}
	clone := *p
	return &clone, nil
}

func (r *stubProductRepo) List(_ context.Context) ([]*domain.Product, error) {
	var out []*domain.Product
	for _, p := range r.byID {
		clone := *p
		out = append(out, &clone)
	}
	return out, nil
}

func (r *stubProductRepo) Update(_ context.Context, p *domain.Product) error {
	if r.updateErr != nil {
		return r.updateErr
	}
	if _, ok := r.byID[p.ID]; !ok {
		return domain.ErrProductNotFound
	}
	clone := *p
	r.byID[p.ID] = &clone
	return nil
}

func (r *stubProductRepo) Delete(_ context.Context, id int64) (*domain.Product, error) {
	p, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrProductNotFound
	}
	delete(r.byID, id)
	return p, nil
}

type stubImageStore struct {
	objects map[string][]byte
	putErr  error
	deleted []string
}

func newStubImageStore() *stubImageStore {
	return &stubImageStore{objects: make(map[string][]byte)}
}

func (s *stubImageStore) Put(_ context.Context, key string, data []byte, _ string) (string, error) {
	if s.putErr != nil {
		return "", s.putErr
	}
	s.objects[key] = data
	return "https://cdn.example.com/" + key, nil
}

func (s *stubImageStore) Delete(_ context.Context, key string) error {
	delete(s.objects, key)
	s.deleted = append(s.deleted, key)
	return nil
}

type stubJanitor struct {
	queued []string
}

func (j *stubJanitor) Enqueue(key string) { j.queued = append(j.queued, key) }

type productFixture struct {
	repo    *stubProductRepo
	images  *stubImageStore
	janitor *stubJanitor
	svc     *ProductService
}

func newProductFixture() *productFixture {
	f := &productFixture{repo: newStubProductRepo(), images: newStubImageStore(), janitor: &stubJanitor{}}
	f.svc = NewProductService(f.repo, f.images, f.janitor, clock.NewManual(fixedNow), zerolog.Nop())
	return f
}

var (
	validInput = ports.ProductInput{Name: "Lamp", Description: "Desk lamp", Price: 19.5, Stock: 3}
	pngImage   = ports.ImageInput{FileName: "lamp.PNG", ContentType: "image/png", Data: []byte("\x89PNG....")}
)

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

func TestProductService_Create(t *testing.T) {
	f := newProductFixture()

	p, err := f.svc.CreateProduct(context.Background(), validInput, pngImage)
	if err != nil {
		t.Fatalf("CreateProduct: %v", err)
	}
	if p.ID != 1 || p.Name != "Lamp" || p.Price != 19.5 {
		t.Fatalf("unexpected product: %+v", p)
	}
	if !strings.HasPrefix(p.ImageKey, "products/") || !strings.HasSuffix(p.ImageKey, ".png") {
		t.Fatalf("unexpected image key %q", p.ImageKey)
	}
	if p.ImageURL != "https://cdn.example.com/"+p.ImageKey {
		t.Fatalf("unexpected image url %q", p.ImageURL)
	}
	if _, ok := f.images.objects[p.ImageKey]; !ok {
		t.Fatalf("image not uploaded")
	}
}

func TestProductService_Create_Validation(t *testing.T) {
	f := newProductFixture()

	cases := []ports.ProductInput{
		{Name: "", Price: 1},
		{Name: "Lamp", Price: 0},
		{Name: "Lamp", Price: 1, Stock: -1},
	}
	for _, in := range cases {
		if _, err := f.svc.CreateProduct(context.Background(), in, pngImage); !errors.Is(err, domain.ErrInvalidProduct) {
			t.Fatalf("expected ErrInvalidProduct for %+v, got %v", in, err)
		}
	}
	if _, err := f.svc.CreateProduct(context.Background(), validInput, ports.ImageInput{}); !errors.Is(err, domain.ErrInvalidImage) {
		t.Fatalf("expected ErrInvalidImage, got %v", err)
	}
	if len(f.images.objects) != 0 {
		t.Fatalf("nothing should be uploaded on validation failure")
	}
}

func TestProductService_Create_RepoFailureRemovesImage(t *testing.T) {
	f := newProductFixture()
	f.repo.createErr = errors.New("write conflict")

	if _, err := f.svc.CreateProduct(context.Background(), validInput, pngImage); err == nil {
		t.Fatalf("expected error")
	}
	if len(f.images.objects) != 0 || len(f.images.deleted) != 1 {
		t.Fatalf("expected uploaded image to be removed, objects=%v deleted=%v", f.images.objects, f.images.deleted)
	}
}

func TestProductService_ImageKeyIgnoresClientFileName(t *testing.T) {
	cases := map[string]struct {
		image ports.ImageInput
		ext   string
	}{
		"html name, png body": {ports.ImageInput{FileName: "x.html", ContentType: "image/png", Data: []byte("png")}, ".png"},
		"jpeg with params":    {ports.ImageInput{FileName: "shot.php", ContentType: "image/jpeg; charset=binary", Data: []byte("jpg")}, ".jpg"},
		"no name":             {ports.ImageInput{ContentType: "image/gif", Data: []byte("gif")}, ".gif"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			f := newProductFixture()
			p, err := f.svc.CreateProduct(context.Background(), validInput, tc.image)
			if err != nil {
				t.Fatalf("CreateProduct: %v", err)
			}
			if !strings.HasSuffix(p.ImageKey, tc.ext) {
				t.Fatalf("expected key ending in %s, got %q", tc.ext, p.ImageKey)
			}
		})
	}
}

func TestProductService_Update(t *testing.T) {
	f := newProductFixture()
	created, _ := f.svc.CreateProduct(context.Background(), validInput, pngImage)

	in := validInput
	in.Price = 25
	updated, err := f.svc.UpdateProduct(context.Background(), created.ID, in, ports.ImageInput{
		FileName: "lamp2", ContentType: "image/gif", Data: []byte("GIF89a"),
	})
	if err != nil {
		t.Fatalf("UpdateProduct: %v", err)
	}
	if updated.Price != 25 || updated.ImageKey == created.ImageKey {
		t.Fatalf("unexpected product: %+v", updated)
	}
	if !strings.HasSuffix(updated.ImageKey, ".gif") {
		t.Fatalf("expected extension from content type, got %q", updated.ImageKey)
	}
	if len(f.janitor.queued) != 1 || f.janitor.queued[0] != created.ImageKey {
		t.Fatalf("expected old image queued for cleanup, got %v", f.janitor.queued)
	}
	if !updated.CreatedAt.Equal(created.CreatedAt) {
		t.Fatalf("created_at must be preserved")
	}
}

func TestProductService_Update_NotFound(t *testing.T) {
	f := newProductFixture()

	_, err := f.svc.UpdateProduct(context.Background(), 42, validInput, pngImage)
	if !errors.Is(err, domain.ErrProductNotFound) {
		t.Fatalf("expected ErrProductNotFound, got %v", err)
	}
	if len(f.images.objects) != 0 {
		t.Fatalf("nothing should be uploaded for a missing product")
	}
}

func TestProductService_Update_RepoFailureKeepsOldImage(t *testing.T) {
	f := newProductFixture()
	created, _ := f.svc.CreateProduct(context.Background(), validInput, pngImage)
	f.repo.updateErr = errors.New("timeout")

	if _, err := f.svc.UpdateProduct(context.Background(), created.ID, validInput, pngImage); err == nil {
		t.Fatalf("expected error")
	}
	if len(f.janitor.queued) != 0 {
		t.Fatalf("old image must not be queued when the update failed")
	}
	if _, ok := f.images.objects[created.ImageKey]; !ok {
		t.Fatalf("old image must remain")
	}
}

func TestProductService_Delete(t *testing.T) {
	f := newProductFixture()
	created, _ := f.svc.CreateProduct(context.Background(), validInput, pngImage)

	deleted, err := f.svc.DeleteProduct(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("DeleteProduct: %v", err)
	}
	if deleted.ID != created.ID {
		t.Fatalf("unexpected deleted product %+v", deleted)
	}
	if len(f.janitor.queued) != 1 || f.janitor.queued[0] != created.ImageKey {
		t.Fatalf("expected image queued for cleanup, got %v", f.janitor.queued)
	}
	if _, err := f.svc.DeleteProduct(context.Background(), created.ID); !errors.Is(err, domain.ErrProductNotFound) {
		t.Fatalf("expected ErrProductNotFound on second delete, got %v", err)
	}
}

func TestProductService_List_Empty(t *testing.T) {
	f := newProductFixture()

	products, err := f.svc.ListProducts(context.Background())
	if err != nil {
		t.Fatalf("ListProducts: %v", err)
	}
	if products == nil || len(products) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", products)
	}
}
