package routes

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"travana-server/services"

	"github.com/kataras/iris/v12"
)

// Every booking-engine failure must surface with its own machine-readable
// code so clients can tell the reasons apart.
func TestRespondBookingErrorCodes(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"listing not found", services.ErrListingNotFound, http.StatusNotFound, "not_found"},
		{"reservation not found", services.ErrReservationNotFound, http.StatusNotFound, "not_found"},
		{"invalid range", services.ErrInvalidRange, http.StatusBadRequest, "invalid_range"},
		{"overlap", &services.OverlapError{Start: time.Now(), End: time.Now()}, http.StatusConflict, "overlap_conflict"},
		{"unavailable date", &services.UnavailableDateError{Date: time.Now()}, http.StatusConflict, "unavailable_date"},
		{"capacity exceeded", services.ErrCapacityExceeded, http.StatusBadRequest, "capacity_exceeded"},
		{"missing user", services.ErrMissingUser, http.StatusBadRequest, "missing_user"},
		{"active reservations", services.ErrActiveReservations, http.StatusConflict, "active_reservations"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			app := iris.New()
			app.Get("/boom", func(ctx iris.Context) {
				respondBookingError(ctx, tc.err)
			})
			if err := app.Build(); err != nil {
				t.Fatal(err)
			}

			req := httptest.NewRequest(http.MethodGet, "/boom", nil)
			resp := httptest.NewRecorder()
			app.ServeHTTP(resp, req)

			if resp.Code != tc.status {
				t.Fatalf("expected status %d, got %d", tc.status, resp.Code)
			}
			if !strings.Contains(resp.Body.String(), `"`+tc.code+`"`) {
				t.Fatalf("expected body to carry code %q, got %s", tc.code, resp.Body.String())
			}
		})
	}
}
