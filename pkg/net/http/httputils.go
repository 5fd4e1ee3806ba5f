package http

import (
	"net/http"
	"strconv"
	"strings"

	cn "github.com/GrimoireLabs/grimoire/pkg/constant"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// QueryHeader holds the normalized pagination and filter parameters of list endpoints.
type QueryHeader struct {
	Limit     int
	Cursor    string
	SortOrder string
	Status    string
}

// MaxPaginationLimit bounds the page size of any list endpoint.
const MaxPaginationLimit = 100

// ValidateParameters validates and returns the struct of default query parameters.
func ValidateParameters(params map[string]string) *QueryHeader {
	limit := 10
	cursor := ""
	sortOrder := strings.ToUpper(string(cn.Desc))
	status := ""

	for key, value := range params {
		switch {
		case strings.Contains(key, "limit"):
			limit, _ = strconv.Atoi(value)
		case strings.Contains(key, "cursor"):
			cursor = value
		case strings.Contains(key, "sort_order"):
			sortOrder = strings.ToUpper(value)
		case strings.Contains(key, "status"):
			status = value
		}
	}

	if limit <= 0 || limit > MaxPaginationLimit {
		limit = 10
	}

	if sortOrder != "ASC" && sortOrder != "DESC" {
		sortOrder = "DESC"
	}

	return &QueryHeader{
		Limit:     limit,
		Cursor:    cursor,
		SortOrder: sortOrder,
		Status:    status,
	}
}

// IPAddrFromRemoteAddr removes port information from string.
func IPAddrFromRemoteAddr(s string) string {
	idx := strings.LastIndex(s, ":")
	if idx == -1 {
		return s
	}

	return s[:idx]
}

// GetRemoteAddress returns IP address of the client making the request.
// It checks for X-Real-Ip or X-Forwarded-For headers which is used by Proxies.
func GetRemoteAddress(r *http.Request) string {
	realIP := r.Header.Get(headerRealIP)
	forwardedFor := r.Header.Get(headerForwardedFor)

	if realIP == "" && forwardedFor == "" {
		return IPAddrFromRemoteAddr(r.RemoteAddr)
	}

	if forwardedFor != "" {
		parts := strings.Split(forwardedFor, ",")
		for i, p := range parts {
			parts[i] = strings.TrimSpace(p)
		}

		return parts[0]
	}

	return realIP
}

// RequestIDFromLocals returns the correlation id set by WithCorrelationID, if any.
func RequestIDFromLocals(c *fiber.Ctx) string {
	if v, ok := c.Locals("request_id").(string); ok {
		return v
	}

	return ""
}

// LocalUUID returns a path parameter previously parsed by ParseUUIDPathParameters.
func LocalUUID(c *fiber.Ctx, param string) uuid.UUID {
	if v, ok := c.Locals(param).(uuid.UUID); ok {
		return v
	}

	return uuid.Nil
}

// GetBooleanParam reads a boolean query parameter, defaulting to false.
func GetBooleanParam(c *fiber.Ctx, param string) bool {
	v, err := strconv.ParseBool(c.Query(param))
	if err != nil {
		return false
	}

	return v
}

// ParseUUIDPathParameters parses every path parameter as a UUID and stores the parsed
// values in locals. Invalid values produce a BAD_REQUEST envelope.
func ParseUUIDPathParameters(c *fiber.Ctx) error {
	params := c.AllParams()

	var invalidUUIDs []string

	for param, value := range params {
		parsedUUID, err := uuid.Parse(value)
		if err != nil {
			invalidUUIDs = append(invalidUUIDs, param)
			continue
		}

		c.Locals(param, parsedUUID)
	}

	if len(invalidUUIDs) > 0 {
		return BadRequest(c, cn.ErrBadRequest.Error(), "Invalid UUID path parameter(s): "+strings.Join(invalidUUIDs, ", "), nil)
	}

	return c.Next()
}
