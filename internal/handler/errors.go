package handler

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/prperemyshlev/grocery-store/internal/apperror"
	"github.com/prperemyshlev/grocery-store/internal/dto"
	"github.com/prperemyshlev/grocery-store/internal/utils"
	"go.uber.org/zap"
)

// respondError writes err as a JSON error body. Internal details are logged, never returned.
func respondError(c *gin.Context, logger *zap.Logger, err error) {
	status := apperror.HTTPStatus(err)
	if apperror.KindOf(err) == apperror.KindInternal {
		logger.Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
	}

	resp := dto.ErrorResponse{Error: apperror.PublicMessage(err)}
	if appErr, ok := apperror.As(err); ok {
		resp.Details = appErr.Fields
	}

	c.AbortWithStatusJSON(status, resp)
}

// bindJSON decodes the body into dst and maps failures to a validation error.
func bindJSON(c *gin.Context, dst any) error {
	if err := c.ShouldBindJSON(dst); err != nil {
		return bindingError(err)
	}
	return nil
}

func bindingError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperror.Validation("invalid request body")
	}

	fields := make([]apperror.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, apperror.FieldError{
			Field:   fieldPath(fe),
			Message: fieldMessage(fe),
		})
	}
	return apperror.Validation("validation failed", fields...)
}

// fieldPath drops the struct name: "CreateOrderRequest.shipping.city" -> "shipping.city".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return fe.Field()
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "uuid":
		return "must be a valid id"
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", strings.ReplaceAll(fe.Param(), " ", ", "))
	case "personname":
		return "must contain only letters and spaces, at least 2 characters"
	case "password":
		return fmt.Sprintf("must be at least 8 characters long, include a number and fit in %d bytes", utils.MaxPasswordBytes)
	case "phone":
		return "must be a Peruvian mobile number, e.g. +51 912345678"
	case "notblank":
		return "must not be blank"
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}

// pathID reads a UUID path parameter.
func pathID(c *gin.Context, name string) (string, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return "", apperror.Validation("invalid id", apperror.FieldError{Field: name, Message: "must be a valid id"})
	}
	return id.String(), nil
}
