package handler

import (
	"errors"
	"net/http"
	"reflect"
	"strconv"

	"sipndash/internal/apierror"
	"sipndash/internal/model"
	"sipndash/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var validate = validator.New()

func init() {
	// Register decimal.Decimal as a numeric type so that validator tags like
	// min=0, gt=0, required work without panicking ("Bad field type decimal.Decimal").
	validate.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if v, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := v.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
}

// bindAndValidate binds JSON body and runs go-playground/validator tags.
// Returns false and writes the error response if validation fails;
// the caller should return immediately without writing another response.
func bindAndValidate(c *gin.Context, req interface{}) bool {
	return bind(c, req, http.StatusUnprocessableEntity)
}

// bindAndValidateStrict is bindAndValidate for public endpoints that report
// every rejected field as 400.
func bindAndValidateStrict(c *gin.Context, req interface{}) bool {
	return bind(c, req, http.StatusBadRequest)
}

func bind(c *gin.Context, req interface{}, validationStatus int) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid JSON: "+err.Error()))
		return false
	}
	if err := validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			c.JSON(validationStatus, apierror.New(err.Error()))
			return false
		}
		fields := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			fields[fe.Field()] = fe.Tag()
		}
		c.JSON(validationStatus, apierror.NewValidation(fields))
		return false
	}
	return true
}

// respondError maps a service error onto its HTTP status. Anything untyped is
// handed to the ErrorHandler middleware, which logs it and answers 500.
func respondError(c *gin.Context, err error) {
	var (
		nf   *service.NotFoundError
		ve   *service.ValidationError
		ce   *service.ConflictError
		pe   *service.PaymentError
		auth *service.AuthError
	)
	switch {
	case errors.As(err, &nf):
		c.JSON(http.StatusNotFound, apierror.New(nf.Error()))
	case errors.As(err, &ve):
		c.JSON(http.StatusBadRequest, apierror.New(ve.Error()))
	case errors.As(err, &ce):
		c.JSON(http.StatusConflict, apierror.New(ce.Error()))
	case errors.As(err, &pe):
		c.JSON(http.StatusBadRequest, apierror.New(pe.Error()))
	case errors.As(err, &auth):
		c.JSON(http.StatusUnauthorized, apierror.New(auth.Error()))
	default:
		_ = c.Error(err)
	}
}

// pathID parses the :id path parameter, answering 400 when it is not a uuid.
func pathID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid id"))
		return uuid.Nil, false
	}
	return id, true
}

// catalogParam resolves :catalog, answering 404 for an unknown catalog.
func catalogParam(c *gin.Context) (model.Catalog, bool) {
	cat, ok := model.ParseCatalog(c.Param("catalog"))
	if !ok {
		c.JSON(http.StatusNotFound, apierror.New("unknown catalog "+c.Param("catalog")))
		return "", false
	}
	return cat, true
}

// pageParams reads ?page= and ?limit=, leaving zero for the service to default.
func pageParams(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.Query("page"))
	limit, _ := strconv.Atoi(c.Query("limit"))
	return page, limit
}
