package handlers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/codershubham350/discover-places-backend/internal/adapters/storage"
	"github.com/codershubham350/discover-places-backend/internal/api/middleware"
	"github.com/codershubham350/discover-places-backend/internal/application/services"
	"github.com/codershubham350/discover-places-backend/internal/domain/entities"
	apperrors "github.com/codershubham350/discover-places-backend/pkg/errors"
)

// Mocks

type mockPlaceService struct {
	mock.Mock
}

func (m *mockPlaceService) GetPlaceByID(ctx context.Context, id string) (*entities.Place, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Place), args.Error(1)
}

func (m *mockPlaceService) GetPlacesByUserID(ctx context.Context, userID string) ([]*entities.Place, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Place), args.Error(1)
}

func (m *mockPlaceService) CreatePlace(ctx context.Context, input services.CreatePlaceInput) (*entities.Place, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Place), args.Error(1)
}

func (m *mockPlaceService) UpdatePlace(ctx context.Context, placeID, callerID string, input services.UpdatePlaceInput) (*entities.Place, error) {
	args := m.Called(ctx, placeID, callerID, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Place), args.Error(1)
}

func (m *mockPlaceService) DeletePlace(ctx context.Context, placeID, callerID string) error {
	return m.Called(ctx, placeID, callerID).Error(0)
}

type mockUserService struct {
	mock.Mock
}

func (m *mockUserService) ListUsers(ctx context.Context) ([]*entities.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.User), args.Error(1)
}

func (m *mockUserService) Signup(ctx context.Context, input services.SignupInput) (*services.AuthResult, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.AuthResult), args.Error(1)
}

func (m *mockUserService) Login(ctx context.Context, email, password string) (*services.AuthResult, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.AuthResult), args.Error(1)
}

// Helpers

func newUploader(t *testing.T) (*ImageUploader, string) {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "images")
	store, err := storage.NewLocalStorage(dir)
	require.NoError(t, err)
	return NewImageUploader(store, 1<<20), dir
}

var imageContent = map[string]string{
	"image/png":  "\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR fake image",
	"image/jpeg": "\xff\xd8\xff\xe0\x00\x10JFIF\x00 fake image",
}

func multipartBody(t *testing.T, fields map[string]string, contentType string) (*bytes.Buffer, string) {
	t.Helper()
	content, ok := imageContent[contentType]
	if !ok {
		content = imageContent["image/png"]
	}
	return multipartBodyWith(t, fields, contentType, content)
}

func multipartBodyWith(t *testing.T, fields map[string]string, contentType, content string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if contentType != "" {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="image"; filename="photo.png"`)
		h.Set("Content-Type", contentType)
		part, err := mw.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return body, mw.FormDataContentType()
}

func placeForm() map[string]string {
	return map[string]string{
		"title":       "Empire State Building",
		"description": "One of the most famous sky scrapers in the world!",
		"address":     "20 W 34th St, New York, NY 10001",
	}
}

func authedRequest(method, target string, body *bytes.Buffer, contentType, userID string) *http.Request {
	var req *http.Request
	if body == nil {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, body)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if userID != "" {
		req = req.WithContext(middleware.WithUserID(req.Context(), userID))
	}
	return req
}

func countFiles(t *testing.T, dir string) int {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	return len(entries)
}

// Tests

func TestPlaceHandler_Create(t *testing.T) {
	t.Run("stores image and returns 201", func(t *testing.T) {
		service := new(mockPlaceService)
		uploader, dir := newUploader(t)
		handler := NewPlaceHandler(service, uploader)

		service.On("CreatePlace", mock.Anything, mock.MatchedBy(func(in services.CreatePlaceInput) bool {
			return in.CreatorID == "u1" && in.Title == "Empire State Building" && strings.HasSuffix(in.Image, ".png")
		})).Return(&entities.Place{ID: "p1", Title: "Empire State Building", CreatorID: "u1"}, nil)

		body, ct := multipartBody(t, placeForm(), "image/png")
		rec := httptest.NewRecorder()
		Handle(handler.Create).ServeHTTP(rec, authedRequest(http.MethodPost, "/api/places", body, ct, "u1"))

		assert.Equal(t, http.StatusCreated, rec.Code)
		assert.Contains(t, rec.Body.String(), `"creator":"u1"`)
		assert.Equal(t, 1, countFiles(t, dir))
	})

	t.Run("failed create removes the staged image", func(t *testing.T) {
		service := new(mockPlaceService)
		uploader, dir := newUploader(t)
		handler := NewPlaceHandler(service, uploader)

		service.On("CreatePlace", mock.Anything, mock.Anything).
			Return(nil, apperrors.NewValidationError("Invalid input passed, please check your data."))

		body, ct := multipartBody(t, placeForm(), "image/png")
		rec := httptest.NewRecorder()
		Handle(handler.Create).ServeHTTP(rec, authedRequest(http.MethodPost, "/api/places", body, ct, "u1"))

		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.JSONEq(t, `{"message":"Invalid input passed, please check your data."}`, rec.Body.String())
		assert.Equal(t, 0, countFiles(t, dir))
	})

	t.Run("unsupported image type", func(t *testing.T) {
		service := new(mockPlaceService)
		uploader, dir := newUploader(t)
		handler := NewPlaceHandler(service, uploader)

		body, ct := multipartBody(t, placeForm(), "image/gif")
		rec := httptest.NewRecorder()
		Handle(handler.Create).ServeHTTP(rec, authedRequest(http.MethodPost, "/api/places", body, ct, "u1"))

		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Equal(t, 0, countFiles(t, dir))
		service.AssertNotCalled(t, "CreatePlace", mock.Anything, mock.Anything)
	})

	t.Run("non-image content declared as png", func(t *testing.T) {
		service := new(mockPlaceService)
		uploader, dir := newUploader(t)
		handler := NewPlaceHandler(service, uploader)

		body, ct := multipartBodyWith(t, placeForm(), "image/png", "<html><body>not an image</body></html>")
		rec := httptest.NewRecorder()
		Handle(handler.Create).ServeHTTP(rec, authedRequest(http.MethodPost, "/api/places", body, ct, "u1"))

		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.JSONEq(t, `{"message":"Invalid mime type!"}`, rec.Body.String())
		assert.Equal(t, 0, countFiles(t, dir))
		service.AssertNotCalled(t, "CreatePlace", mock.Anything, mock.Anything)
	})

	t.Run("missing image", func(t *testing.T) {
		service := new(mockPlaceService)
		uploader, _ := newUploader(t)
		handler := NewPlaceHandler(service, uploader)

		body, ct := multipartBody(t, placeForm(), "")
		rec := httptest.NewRecorder()
		Handle(handler.Create).ServeHTTP(rec, authedRequest(http.MethodPost, "/api/places", body, ct, "u1"))

		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})

	t.Run("no authenticated user", func(t *testing.T) {
		uploader, _ := newUploader(t)
		handler := NewPlaceHandler(new(mockPlaceService), uploader)

		body, ct := multipartBody(t, placeForm(), "image/png")
		rec := httptest.NewRecorder()
		Handle(handler.Create).ServeHTTP(rec, authedRequest(http.MethodPost, "/api/places", body, ct, ""))

		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}

func TestPlaceHandler_GetByID(t *testing.T) {
	service := new(mockPlaceService)
	handler := NewPlaceHandler(service, nil)
	mux := http.NewServeMux()
	mux.Handle("GET /api/places/{pid}", Handle(handler.GetByID))

	service.On("GetPlaceByID", mock.Anything, "p1").Return(&entities.Place{
		ID:        "p1",
		Title:     "Empire State Building",
		Location:  entities.Location{Lat: 40.7484405, Lng: -73.9878584},
		CreatorID: "u1",
	}, nil)
	service.On("GetPlaceByID", mock.Anything, "missing").
		Return(nil, apperrors.NewNotFoundError("Could not find a place for the provided id."))

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/places/p1", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"location":{"lat":40.7484405,"lng":-73.9878584}`)

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/places/missing", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"message":"Could not find a place for the provided id."}`, rec.Body.String())
}

func TestPlaceHandler_ListByUser_Empty(t *testing.T) {
	service := new(mockPlaceService)
	handler := NewPlaceHandler(service, nil)
	mux := http.NewServeMux()
	mux.Handle("GET /api/places/user/{uid}", Handle(handler.ListByUser))

	service.On("GetPlacesByUserID", mock.Anything, "u1").Return([]*entities.Place{}, nil)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/places/user/u1", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"places":[]}`, rec.Body.String())
}

func TestPlaceHandler_Update(t *testing.T) {
	service := new(mockPlaceService)
	handler := NewPlaceHandler(service, nil)
	mux := http.NewServeMux()
	mux.Handle("PATCH /api/places/{pid}", Handle(handler.Update))

	input := services.UpdatePlaceInput{Title: "New title", Description: "New description"}
	service.On("UpdatePlace", mock.Anything, "p1", "u2", input).
		Return(nil, apperrors.NewForbiddenError("You are not allowed to update this place"))

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, authedRequest(http.MethodPatch, "/api/places/p1",
		bytes.NewBufferString(`{"title":"New title","description":"New description"}`), "application/json", "u2"))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"message":"You are not allowed to update this place"}`, rec.Body.String())

	// A malformed body from a non-owner still gets the ownership answer.
	service.On("UpdatePlace", mock.Anything, "p1", "u2", services.UpdatePlaceInput{}).
		Return(nil, apperrors.NewForbiddenError("You are not allowed to update this place"))
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, authedRequest(http.MethodPatch, "/api/places/p1",
		bytes.NewBufferString(`{"title":`), "application/json", "u2"))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	service.On("UpdatePlace", mock.Anything, "p1", "u1", services.UpdatePlaceInput{}).
		Return(nil, apperrors.NewValidationError("Invalid input passed, please check your data."))
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, authedRequest(http.MethodPatch, "/api/places/p1",
		bytes.NewBufferString(`{"title":`), "application/json", "u1"))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestPlaceHandler_Delete(t *testing.T) {
	service := new(mockPlaceService)
	handler := NewPlaceHandler(service, nil)
	mux := http.NewServeMux()
	mux.Handle("DELETE /api/places/{pid}", Handle(handler.Delete))

	service.On("DeletePlace", mock.Anything, "p1", "u1").Return(nil)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, authedRequest(http.MethodDelete, "/api/places/p1", nil, "", "u1"))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"Deleted place."}`, rec.Body.String())
}

func TestUserHandler_Signup(t *testing.T) {
	service := new(mockUserService)
	uploader, dir := newUploader(t)
	handler := NewUserHandler(service, uploader)

	service.On("Signup", mock.Anything, mock.MatchedBy(func(in services.SignupInput) bool {
		return in.Email == "max@example.com" && in.Image != ""
	})).Return(&services.AuthResult{UserID: "u1", Email: "max@example.com", Token: "tok"}, nil)

	body, ct := multipartBody(t, map[string]string{"name": "Max", "email": "max@example.com", "password": "supersecret"}, "image/jpeg")
	rec := httptest.NewRecorder()
	Handle(handler.Signup).ServeHTTP(rec, authedRequest(http.MethodPost, "/api/users/signup", body, ct, ""))

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"userId":"u1","email":"max@example.com","token":"tok"}`, rec.Body.String())
	assert.Equal(t, 1, countFiles(t, dir))
}

func TestUserHandler_Signup_ConflictRemovesImage(t *testing.T) {
	service := new(mockUserService)
	uploader, dir := newUploader(t)
	handler := NewUserHandler(service, uploader)

	service.On("Signup", mock.Anything, mock.Anything).
		Return(nil, apperrors.NewConflictError("User exists already, please login instead."))

	body, ct := multipartBody(t, map[string]string{"name": "Max", "email": "max@example.com", "password": "supersecret"}, "image/png")
	rec := httptest.NewRecorder()
	Handle(handler.Signup).ServeHTTP(rec, authedRequest(http.MethodPost, "/api/users/signup", body, ct, ""))

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, 0, countFiles(t, dir))
}

func TestUserHandler_Login(t *testing.T) {
	service := new(mockUserService)
	handler := NewUserHandler(service, nil)

	service.On("Login", mock.Anything, "max@example.com", "wrong").
		Return(nil, apperrors.NewUnauthorizedError("Invalid credentials, could not log you in."))

	rec := httptest.NewRecorder()
	Handle(handler.Login).ServeHTTP(rec, authedRequest(http.MethodPost, "/api/users/login",
		bytes.NewBufferString(`{"email":"max@example.com","password":"wrong"}`), "application/json", ""))

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.JSONEq(t, `{"message":"Invalid credentials, could not log you in."}`, rec.Body.String())
}

func TestHandle_UnknownErrorIs500(t *testing.T) {
	rec := httptest.NewRecorder()
	Handle(func(w http.ResponseWriter, r *http.Request) error {
		return errors.New("boom")
	}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"message":"An unknown error occurred!"}`, rec.Body.String())
}

func TestHandle_DoesNotRewriteStartedResponse(t *testing.T) {
	rec := httptest.NewRecorder()
	Handle(func(w http.ResponseWriter, r *http.Request) error {
		respondWithJSON(w, http.StatusOK, map[string]string{"status": "partial"})
		return fmt.Errorf("late failure")
	}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"partial"}`, rec.Body.String())
}

func TestNotFound(t *testing.T) {
	rec := httptest.NewRecorder()
	Handle(NotFound).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/unknown", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"message":"Could not find this route."}`, rec.Body.String())
}
