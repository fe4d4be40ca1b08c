package controllers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/equipe-visionarios/imoveis-api/models"
	"github.com/equipe-visionarios/imoveis-api/services"
	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	maxJSONBody      = 1 << 20
	maxMultipartBody = 50 << 20
	maxMemory        = 10 << 20
)

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	dec := json.NewDecoder(r.Body)

	if err := dec.Decode(dst); err != nil {
		return invalidBody(err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return invalidBody(errors.New("multiple json values"))
	}
	return nil
}

func invalidBody(err error) error {
	return fmt.Errorf("%w: invalid request body: %v", models.ErrValidation, err)
}

func isMultipart(r *http.Request) bool {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mt == "multipart/form-data"
}

func parseMultipart(w http.ResponseWriter, r *http.Request) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxMultipartBody)
	if err := r.ParseMultipartForm(maxMemory); err != nil {
		return invalidBody(err)
	}
	return nil
}

// openFiles opens the uploaded parts of field. The returned closer releases them.
func openFiles(r *http.Request, field string, limit int) ([]services.ImageFile, func(), error) {
	var headers []*multipart.FileHeader
	if r.MultipartForm != nil {
		headers = r.MultipartForm.File[field]
	}
	if len(headers) > limit {
		return nil, func() {}, models.NewValidationError(map[string]string{
			field: fmt.Sprintf("máximo de %d arquivos", limit),
		})
	}

	opened := make([]multipart.File, 0, len(headers))
	closeAll := func() {
		for _, f := range opened {
			_ = f.Close()
		}
	}

	files := make([]services.ImageFile, 0, len(headers))
	for _, h := range headers {
		f, err := h.Open()
		if err != nil {
			closeAll()
			return nil, func() {}, fmt.Errorf("open upload %s: %w", h.Filename, err)
		}
		opened = append(opened, f)
		files = append(files, services.ImageFile{Name: h.Filename, Body: f})
	}
	return files, closeAll, nil
}

func pathID(r *http.Request) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w: invalid id", models.ErrNotFound)
	}
	return id, nil
}

// formFields collects typed values from a multipart form. Parse errors are
// gathered per field.
type formFields struct {
	values url.Values
	errs   map[string]string
}

func newFormFields(values url.Values) *formFields {
	return &formFields{values: values, errs: map[string]string{}}
}

func (f *formFields) has(key string) bool {
	_, ok := f.values[key]
	return ok
}

func (f *formFields) str(key string) *string {
	if !f.has(key) {
		return nil
	}
	v := strings.TrimSpace(f.values.Get(key))
	return &v
}

// text is str with blank values treated as absent.
func (f *formFields) text(key string) *string {
	v := f.str(key)
	if v == nil || *v == "" {
		return nil
	}
	return v
}

func (f *formFields) integer(keys ...string) *int {
	for _, key := range keys {
		if !f.has(key) || strings.TrimSpace(f.values.Get(key)) == "" {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(f.values.Get(key)))
		if err != nil {
			f.errs[keys[0]] = "deve ser um número inteiro"
			return nil
		}
		return &n
	}
	return nil
}

func (f *formFields) number(key string) *float64 {
	if !f.has(key) || strings.TrimSpace(f.values.Get(key)) == "" {
		return nil
	}
	n, err := strconv.ParseFloat(strings.TrimSpace(f.values.Get(key)), 64)
	if err != nil {
		f.errs[key] = "deve ser um número"
		return nil
	}
	return &n
}

func (f *formFields) err() error {
	if len(f.errs) == 0 {
		return nil
	}
	return models.NewValidationError(f.errs)
}

func propertyInputFromForm(values url.Values) (models.PropertyInput, error) {
	f := newFormFields(values)
	in := models.PropertyInput{
		Bedrooms:     f.integer("bedrooms"),
		Garage:       f.integer("garage", "parking"),
		Price:        f.number("price"),
		CountInStock: f.integer("countInStock"),
	}
	for key, dst := range map[string]*string{
		"title": &in.Title, "description": &in.Description, "address": &in.Address,
		"region": &in.Region, "builder": &in.Builder, "status": &in.Status,
	} {
		if v := f.str(key); v != nil {
			*dst = *v
		}
	}
	return in, f.err()
}

// propertyUpdateFromForm keeps the stored value of every blank field.
func propertyUpdateFromForm(values url.Values) (models.PropertyUpdate, error) {
	f := newFormFields(values)
	u := models.PropertyUpdate{
		Title:        f.text("title"),
		Description:  f.text("description"),
		Address:      f.text("address"),
		Region:       f.text("region"),
		Bedrooms:     f.integer("bedrooms"),
		Garage:       f.integer("garage", "parking"),
		Price:        f.number("price"),
		CountInStock: f.integer("countInStock"),
		Builder:      f.text("builder"),
		Status:       f.text("status"),
	}
	return u, f.err()
}
