package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/temcen/reelmatch/internal/validation"
)

const (
	ContextValidatedBody = "validatedBody"
	maxBodyBytes         = 1 << 20
)

// ValidationMiddleware checks request bodies against the embedded JSON
// schemas and common query/path parameters against their ranges.
type ValidationMiddleware struct {
	validator *validation.SchemaValidator
}

func NewValidationMiddleware(validator *validation.SchemaValidator) *ValidationMiddleware {
	return &ValidationMiddleware{
		validator: validator,
	}
}

func (vm *ValidationMiddleware) ValidateInteraction() gin.HandlerFunc {
	return vm.validateRequestBody(validation.SchemaInteraction)
}

func (vm *ValidationMiddleware) ValidateAnalyze() gin.HandlerFunc {
	return vm.validateRequestBody(validation.SchemaAnalyze)
}

func (vm *ValidationMiddleware) ValidateMedia() gin.HandlerFunc {
	return vm.validateRequestBody(validation.SchemaMedia)
}

func (vm *ValidationMiddleware) ValidateAuthToken() gin.HandlerFunc {
	return vm.validateRequestBody(validation.SchemaAuthToken)
}

func (vm *ValidationMiddleware) validateRequestBody(schemaName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodGet || c.Request.Method == http.MethodDelete {
			c.Next()
			return
		}

		bodyBytes, err := io.ReadAll(io.LimitReader(c.Request.Body, maxBodyBytes+1))
		if err != nil {
			vm.sendValidationError(c, "BODY_READ_ERROR", "Failed to read request body", map[string]interface{}{
				"error": err.Error(),
			})
			return
		}
		if len(bodyBytes) > maxBodyBytes {
			vm.sendValidationError(c, "BODY_TOO_LARGE", "Request body exceeds 1MB", nil)
			return
		}

		// Restore request body for downstream handlers
		c.Request.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))

		if len(bodyBytes) == 0 {
			vm.sendValidationError(c, "EMPTY_BODY", "Request body is required", nil)
			return
		}

		var jsonData interface{}
		if err := json.Unmarshal(bodyBytes, &jsonData); err != nil {
			vm.sendValidationError(c, "INVALID_JSON", "Request body must be valid JSON", map[string]interface{}{
				"parseError": err.Error(),
			})
			return
		}

		result := vm.validator.ValidateJSONString(schemaName, string(bodyBytes))
		if !result.Valid {
			apiError := result.ToAPIError()
			if errorObj, ok := apiError["error"].(map[string]interface{}); ok {
				vm.decorate(c, errorObj)
			}
			c.AbortWithStatusJSON(http.StatusBadRequest, apiError)
			return
		}

		c.Set(ContextValidatedBody, jsonData)
		c.Next()
	}
}

// ValidateQueryParams checks count, genres and the media id path/query
// parameters used by the recommendation routes.
func (vm *ValidationMiddleware) ValidateQueryParams() gin.HandlerFunc {
	return func(c *gin.Context) {
		errors := make([]validation.ValidationError, 0)

		if count := c.Query("count"); count != "" {
			if !isIntInRange(count, 1, 100) {
				errors = append(errors, validation.ValidationError{
					Field:   "count",
					Message: "Count must be an integer between 1 and 100",
					Code:    "INVALID_QUERY_PARAM",
					Value:   count,
				})
			}
		}

		if genres := c.Query("genres"); genres != "" {
			if _, err := ParseIntList(genres); err != nil {
				errors = append(errors, validation.ValidationError{
					Field:   "genres",
					Message: "Genres must be a comma-separated list of integers",
					Code:    "INVALID_QUERY_PARAM",
					Value:   genres,
				})
			}
		}

		for _, name := range []string{"a", "b"} {
			if value := c.Query(name); value != "" && !isPositiveInt(value) {
				errors = append(errors, validation.ValidationError{
					Field:   name,
					Message: "Media ids must be positive integers",
					Code:    "INVALID_QUERY_PARAM",
					Value:   value,
				})
			}
		}

		if mediaID := c.Param("mediaId"); mediaID != "" && !isPositiveInt(mediaID) {
			errors = append(errors, validation.ValidationError{
				Field:   "mediaId",
				Message: "Media ID must be a positive integer",
				Code:    "INVALID_PATH_PARAM",
				Value:   mediaID,
			})
		}

		if userID := c.Param("userId"); len(userID) > maxUserIDLength {
			errors = append(errors, validation.ValidationError{
				Field:   "userId",
				Message: "User ID must be at most 128 characters",
				Code:    "INVALID_PATH_PARAM",
			})
		}

		if len(errors) > 0 {
			vm.sendValidationErrors(c, errors)
			return
		}

		c.Next()
	}
}

// ValidateHeaders requires a JSON Content-Type on requests with a body.
func (vm *ValidationMiddleware) ValidateHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodPost && c.Request.Method != http.MethodPut && c.Request.Method != http.MethodPatch {
			c.Next()
			return
		}

		contentType := c.GetHeader("Content-Type")
		switch {
		case contentType == "":
			vm.sendValidationErrors(c, []validation.ValidationError{{
				Field:   "Content-Type",
				Message: "Content-Type header is required",
				Code:    "MISSING_HEADER",
			}})
		case !strings.Contains(contentType, "application/json"):
			vm.sendValidationErrors(c, []validation.ValidationError{{
				Field:   "Content-Type",
				Message: "Content-Type must be application/json",
				Code:    "INVALID_HEADER",
				Value:   contentType,
			}})
		default:
			c.Next()
		}
	}
}

// ParseIntList parses "1,2, 3" into []int{1, 2, 3}. Empty input yields nil.
func ParseIntList(raw string) ([]int, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	parts := strings.Split(raw, ",")
	values := make([]int, 0, len(parts))
	for _, part := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return values, nil
}

func isIntInRange(value string, min, max int) bool {
	num, err := strconv.Atoi(value)
	if err != nil {
		return false
	}
	return num >= min && num <= max
}

func isPositiveInt(value string) bool {
	num, err := strconv.Atoi(value)
	return err == nil && num > 0
}

func (vm *ValidationMiddleware) decorate(c *gin.Context, errorObj map[string]interface{}) {
	errorObj["timestamp"] = time.Now().UTC().Format(time.RFC3339)
	errorObj["requestId"] = c.GetString(ContextRequestID)
	errorObj["path"] = c.Request.URL.Path
	errorObj["method"] = c.Request.Method
}

func (vm *ValidationMiddleware) sendValidationError(c *gin.Context, code, message string, details map[string]interface{}) {
	errorObj := map[string]interface{}{
		"code":    code,
		"message": message,
	}
	if details != nil {
		errorObj["details"] = details
	}
	vm.decorate(c, errorObj)

	c.AbortWithStatusJSON(http.StatusBadRequest, map[string]interface{}{"error": errorObj})
}

func (vm *ValidationMiddleware) sendValidationErrors(c *gin.Context, errors []validation.ValidationError) {
	result := &validation.ValidationResult{Valid: false, Errors: errors}
	apiError := result.ToAPIError()
	if errorObj, ok := apiError["error"].(map[string]interface{}); ok {
		vm.decorate(c, errorObj)
	}

	c.AbortWithStatusJSON(http.StatusBadRequest, apiError)
}
