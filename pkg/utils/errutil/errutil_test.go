package errutil_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/riskmatrix/pkg/utils/errutil"
	"github.com/secmon-lab/riskmatrix/pkg/utils/logging"
)

func TestHandle(t *testing.T) {
	t.Run("nil error is passed through", func(t *testing.T) {
		gt.NoError(t, errutil.Handle(context.Background(), nil, "noop"))
	})

	t.Run("goerr values are logged", func(t *testing.T) {
		var buf bytes.Buffer
		ctx := logging.With(context.Background(), slog.New(slog.NewJSONHandler(&buf, nil)))

		orig := goerr.New("storage unavailable", goerr.V("key", "risks"))
		err := errutil.Handle(ctx, orig, "failed to persist")

		gt.Error(t, err).Is(orig)
		gt.String(t, buf.String()).Contains("failed to persist")
		gt.String(t, buf.String()).Contains("storage unavailable")
		gt.String(t, buf.String()).Contains("risks")
	})

	t.Run("plain errors are logged", func(t *testing.T) {
		var buf bytes.Buffer
		ctx := logging.With(context.Background(), slog.New(slog.NewJSONHandler(&buf, nil)))

		err := errutil.Handle(ctx, errors.New("boom"), "plain")
		gt.Value(t, err).NotNil()
		gt.String(t, buf.String()).Contains("boom")
	})
}

func TestHandleHTTP(t *testing.T) {
	var buf bytes.Buffer
	ctx := logging.With(context.Background(), slog.New(slog.NewJSONHandler(&buf, nil)))

	rec := httptest.NewRecorder()
	errutil.HandleHTTP(ctx, rec, goerr.New("risk not found"), http.StatusNotFound)

	gt.Value(t, rec.Code).Equal(http.StatusNotFound)
	gt.String(t, rec.Body.String()).Contains("risk not found")
	gt.String(t, buf.String()).Contains(`"status":404`)
}
