package registrations

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"github.com/iyann1255/daftaren/entity"
	"github.com/iyann1255/daftaren/impl/core"
	"github.com/iyann1255/daftaren/lib/api/cont"
	"github.com/iyann1255/daftaren/lib/api/response"
	"github.com/iyann1255/daftaren/lib/sl"
)

type Core interface {
	PendingPayments(ctx context.Context) ([]*entity.PendingPayment, error)
	Status(ctx context.Context, userId int64) (*entity.User, error)
	ExportCSV(ctx context.Context) ([]byte, error)
}

// Pending lists payments waiting for a decision, oldest first.
func Pending(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := log.With(
			sl.Module("http.handlers.registrations"),
			slog.String("request_id", middleware.GetReqID(r.Context())),
			slog.String("client", cont.GetClient(r.Context())),
		)

		if handler == nil {
			logger.Error("registration service not available")
			render.Status(r, http.StatusServiceUnavailable)
			render.JSON(w, r, response.Error("Registration service not available"))
			return
		}

		list, err := handler.PendingPayments(r.Context())
		if err != nil {
			logger.Error("list pending", sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error(fmt.Sprintf("Request failed: %v", err)))
			return
		}
		logger.With(slog.Int("count", len(list))).Debug("pending payments listed")

		render.JSON(w, r, response.Ok(list))
	}
}

// User returns the stored record of one participant.
func User(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userId := chi.URLParam(r, "id")
		logger := log.With(
			sl.Module("http.handlers.registrations"),
			slog.String("request_id", middleware.GetReqID(r.Context())),
			slog.String("user_id", userId),
			slog.String("client", cont.GetClient(r.Context())),
		)

		if handler == nil {
			logger.Error("registration service not available")
			render.Status(r, http.StatusServiceUnavailable)
			render.JSON(w, r, response.Error("Registration service not available"))
			return
		}

		id, err := strconv.ParseInt(userId, 10, 64)
		if err != nil {
			logger.Warn("invalid user id")
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("Invalid user id"))
			return
		}

		user, err := handler.Status(r.Context(), id)
		if errors.Is(err, core.ErrNotRegistered) {
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, response.Error("User not registered"))
			return
		}
		if err != nil {
			logger.Error("get user", sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error(fmt.Sprintf("Request failed: %v", err)))
			return
		}

		render.JSON(w, r, response.Ok(user))
	}
}

// Export streams approved participants as CSV.
func Export(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := log.With(
			sl.Module("http.handlers.registrations"),
			slog.String("request_id", middleware.GetReqID(r.Context())),
			slog.String("client", cont.GetClient(r.Context())),
		)

		if handler == nil {
			logger.Error("registration service not available")
			render.Status(r, http.StatusServiceUnavailable)
			render.JSON(w, r, response.Error("Registration service not available"))
			return
		}

		data, err := handler.ExportCSV(r.Context())
		if err != nil {
			logger.Error("export", sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error(fmt.Sprintf("Export failed: %v", err)))
			return
		}

		name := fmt.Sprintf("peserta_approved_%s.csv", time.Now().UTC().Format("20060102_1504"))
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
		w.Header().Set("Content-Length", strconv.Itoa(len(data)))
		w.WriteHeader(http.StatusOK)
		if _, err = w.Write(data); err != nil {
			logger.Warn("writing export", sl.Err(err))
		}
	}
}
