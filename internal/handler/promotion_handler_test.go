package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/elise-dlc/evalio-api/internal/dto"
	"github.com/elise-dlc/evalio-api/internal/middleware"
	"github.com/elise-dlc/evalio-api/internal/service"
	"github.com/elise-dlc/evalio-api/internal/utils"
)

type stubPromotionService struct {
	promotions map[uint]dto.PromotionResponse
	nextID     uint
}

func newStubPromotionService() *stubPromotionService {
	return &stubPromotionService{promotions: make(map[uint]dto.PromotionResponse), nextID: 1}
}

func (s *stubPromotionService) Create(ctx context.Context, payload dto.PromotionCreateRequest) (dto.PromotionResponse, error) {
	promotion := dto.PromotionResponse{ID: s.nextID, Name: payload.Name, Year: payload.Year}
	s.nextID++
	s.promotions[promotion.ID] = promotion
	return promotion, nil
}

func (s *stubPromotionService) Update(ctx context.Context, id uint, payload dto.PromotionUpdateRequest) (dto.PromotionResponse, error) {
	promotion, ok := s.promotions[id]
	if !ok {
		return dto.PromotionResponse{}, service.ErrPromotionNotFound
	}
	if payload.Name != nil {
		promotion.Name = *payload.Name
	}
	s.promotions[id] = promotion
	return promotion, nil
}

func (s *stubPromotionService) List(ctx context.Context, page dto.PageRequest) (dto.PromotionListResponse, error) {
	response := dto.PromotionListResponse{}
	for _, promotion := range s.promotions {
		response.Items = append(response.Items, promotion)
	}
	response.Pagination = dto.NewPaginationMeta(page.Page, page.Limit, int64(len(s.promotions)))
	return response, nil
}

func (s *stubPromotionService) Get(ctx context.Context, id uint) (dto.PromotionResponse, error) {
	promotion, ok := s.promotions[id]
	if !ok {
		return dto.PromotionResponse{}, service.ErrPromotionNotFound
	}
	return promotion, nil
}

func (s *stubPromotionService) Delete(ctx context.Context, id uint) error {
	if _, ok := s.promotions[id]; !ok {
		return service.ErrPromotionNotFound
	}
	delete(s.promotions, id)
	return nil
}

func newPromotionApp() (*fiber.App, *stubPromotionService) {
	stub := newStubPromotionService()
	app := fiber.New()
	NewPromotionHandler(stub, zerolog.Nop()).Register(app.Group("/promotions"), nil)
	return app, stub
}

// newPromotionAppAs registers the routes behind the admin guard with the
// given role already authenticated.
func newPromotionAppAs(role string) (*fiber.App, *stubPromotionService) {
	stub := newStubPromotionService()
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("user_role", role)
		return c.Next()
	})
	adminOnly := middleware.RequireRole(middleware.RoleAdmin)
	NewPromotionHandler(stub, zerolog.Nop()).Register(app.Group("/promotions"), adminOnly)
	return app, stub
}

func performJSON(t *testing.T, app *fiber.App, method, target string, payload any) *http.Response {
	t.Helper()

	var body bytes.Buffer
	if payload != nil {
		require.NoError(t, json.NewEncoder(&body).Encode(payload))
	}
	request := httptest.NewRequest(method, target, &body)
	request.Header.Set("Content-Type", fiber.MIMEApplicationJSON)

	response, err := app.Test(request, -1)
	require.NoError(t, err)
	return response
}

func decodeEnvelope(t *testing.T, response *http.Response) utils.APIResponse {
	t.Helper()

	var envelope utils.APIResponse
	require.NoError(t, json.NewDecoder(response.Body).Decode(&envelope))
	return envelope
}

func TestPromotionHandlerCreate(t *testing.T) {
	app, stub := newPromotionApp()

	response := performJSON(t, app, fiber.MethodPost, "/promotions", dto.PromotionCreateRequest{Name: "BUT2 Info", Year: "2025"})
	require.Equal(t, fiber.StatusCreated, response.StatusCode)

	envelope := decodeEnvelope(t, response)
	require.True(t, envelope.Success)
	require.Len(t, stub.promotions, 1)
}

func TestPromotionHandlerGetNotFound(t *testing.T) {
	app, _ := newPromotionApp()

	response := performJSON(t, app, fiber.MethodGet, "/promotions/42", nil)
	require.Equal(t, fiber.StatusNotFound, response.StatusCode)

	envelope := decodeEnvelope(t, response)
	require.False(t, envelope.Success)
	require.Equal(t, "promotion not found", envelope.Message)
}

func TestPromotionHandlerBadID(t *testing.T) {
	app, _ := newPromotionApp()

	response := performJSON(t, app, fiber.MethodGet, "/promotions/not-a-number", nil)
	require.Equal(t, fiber.StatusBadRequest, response.StatusCode)
}

func TestPromotionHandlerDelete(t *testing.T) {
	app, stub := newPromotionApp()

	created := performJSON(t, app, fiber.MethodPost, "/promotions", dto.PromotionCreateRequest{Name: "BUT1 Info", Year: "2025"})
	require.Equal(t, fiber.StatusCreated, created.StatusCode)

	response := performJSON(t, app, fiber.MethodDelete, "/promotions/1", nil)
	require.Equal(t, fiber.StatusOK, response.StatusCode)
	require.Empty(t, stub.promotions)
}

func TestPromotionHandlerMutationsAdminOnly(t *testing.T) {
	app, stub := newPromotionAppAs(middleware.RoleProfessor)

	response := performJSON(t, app, fiber.MethodPost, "/promotions", dto.PromotionCreateRequest{Name: "BUT2 Info", Year: "2025"})
	require.Equal(t, fiber.StatusForbidden, response.StatusCode)
	require.Empty(t, stub.promotions)

	response = performJSON(t, app, fiber.MethodDelete, "/promotions/1", nil)
	require.Equal(t, fiber.StatusForbidden, response.StatusCode)

	// Reads stay open to any authenticated role.
	response = performJSON(t, app, fiber.MethodGet, "/promotions", nil)
	require.Equal(t, fiber.StatusOK, response.StatusCode)
}

func TestPromotionHandlerAdminCanMutate(t *testing.T) {
	app, stub := newPromotionAppAs(middleware.RoleAdmin)

	response := performJSON(t, app, fiber.MethodPost, "/promotions", dto.PromotionCreateRequest{Name: "BUT2 Info", Year: "2025"})
	require.Equal(t, fiber.StatusCreated, response.StatusCode)
	require.Len(t, stub.promotions, 1)
}
