package observation

import (
	"errors"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/atlas4d/gateway/internal/domain"
)

// NewObservation is the ingestion payload.
type NewObservation struct {
	Lat        *float64       `json:"lat" validate:"required,latitude"`
	Lon        *float64       `json:"lon" validate:"required,longitude"`
	SourceType string         `json:"source_type" validate:"max=64"`
	SpeedMS    *float64       `json:"speed_ms" validate:"omitempty,gte=0"`
	HeadingDeg *float64       `json:"heading_deg" validate:"omitempty,gte=0,lte=360"`
	Metadata   map[string]any `json:"metadata"`
	Timestamp  *time.Time     `json:"timestamp"`
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return validate
}

// Validate checks the payload and reports the first offending field as
// domain.ErrInvalidObservation.
func (in *NewObservation) Validate() error {
	err := getValidator().Struct(in)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return domain.NewObservationError(fe.Field(), reason(fe))
	}
	return domain.NewObservationError("body", "is invalid")
}

func reason(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "latitude":
		return "must be between -90 and 90"
	case "longitude":
		return "must be between -180 and 180"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "gte":
		return "must be >= " + fe.Param()
	case "lte":
		return "must be <= " + fe.Param()
	default:
		return "failed " + fe.Tag() + " check"
	}
}
