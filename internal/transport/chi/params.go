package chi

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"

	"github.com/atlas4d/gateway/internal/domain"
	anomalyuc "github.com/atlas4d/gateway/internal/usecase/anomaly"
	observationuc "github.com/atlas4d/gateway/internal/usecase/observation"
)

// queryParam binds one optional form-style query parameter into dest.
type queryParam struct {
	name string
	dest any
}

func bindQuery(r *http.Request, params ...queryParam) error {
	q := r.URL.Query()
	for _, p := range params {
		if err := runtime.BindQueryParameter("form", true, false, p.name, q, p.dest); err != nil {
			return domain.NewFilterError(p.name, "is malformed")
		}
	}
	return nil
}

func listObservationsParams(r *http.Request) (observationuc.ListParams, error) {
	var p observationuc.ListParams
	err := bindQuery(r,
		queryParam{"lat", &p.Lat},
		queryParam{"lon", &p.Lon},
		queryParam{"radius_km", &p.RadiusKm},
		queryParam{"hours", &p.Hours},
		queryParam{"limit", &p.Limit},
	)
	return p, err
}

func featureParams(r *http.Request) (observationuc.FeatureParams, error) {
	var p observationuc.FeatureParams
	err := bindQuery(r,
		queryParam{"hours", &p.Hours},
		queryParam{"limit", &p.Limit},
	)
	return p, err
}

func listAnomaliesParams(r *http.Request) (anomalyuc.ListParams, error) {
	var p anomalyuc.ListParams
	err := bindQuery(r,
		queryParam{"hours", &p.Hours},
		queryParam{"severity_min", &p.MinSeverity},
		queryParam{"limit", &p.Limit},
	)
	return p, err
}

func observationID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		return 0, domain.NewFilterError("id", "must be an integer")
	}
	return id, nil
}
