package handler

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
)

// orPassthrough substitutes a no-op for a nil route guard so handlers can
// be registered without one in tests.
func orPassthrough(guard fiber.Handler) fiber.Handler {
	if guard != nil {
		return guard
	}
	return func(c *fiber.Ctx) error { return c.Next() }
}

func parseUintParam(c *fiber.Ctx, name string) (uint, error) {
	value := c.Params(name)
	parsed, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return 0, errors.New("invalid identifier")
	}
	return uint(parsed), nil
}

// parseUintQuery reads an optional numeric query parameter; absent or empty
// values yield nil.
func parseUintQuery(c *fiber.Ctx, name string) (*uint, error) {
	value := c.Query(name)
	if value == "" {
		return nil, nil
	}
	parsed, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return nil, errors.New("invalid " + name + " filter")
	}
	id := uint(parsed)
	return &id, nil
}
