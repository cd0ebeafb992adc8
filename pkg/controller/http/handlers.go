package http

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/riskmatrix/pkg/domain/model"
	"github.com/secmon-lab/riskmatrix/pkg/domain/types"
	"github.com/secmon-lab/riskmatrix/pkg/service/report"
	"github.com/secmon-lab/riskmatrix/pkg/usecase"
	"github.com/secmon-lab/riskmatrix/pkg/utils/errutil"
	"github.com/secmon-lab/riskmatrix/pkg/utils/logging"
	"github.com/secmon-lab/riskmatrix/pkg/utils/safe"
)

const maxRequestBody = 4 << 20

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		errutil.HandleHTTP(r.Context(), w, goerr.Wrap(err, "failed to marshal response"), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	safe.Write(r.Context(), w, data)
}

func decodeBody(r *http.Request, w http.ResponseWriter, v any) error {
	body := http.MaxBytesReader(w, r.Body, maxRequestBody)
	decoder := json.NewDecoder(body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(v); err != nil {
		return goerr.Wrap(err, "invalid request body")
	}
	return nil
}

func listRisksHandler(w http.ResponseWriter, r *http.Request) {
	risks := usecase.StoreFrom(r.Context()).Risks()

	resp := make([]riskResponse, len(risks))
	for i, risk := range risks {
		resp[i] = toRiskResponse(risk)
	}
	writeJSON(w, r, http.StatusOK, resp)
}

func replaceRisksHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRequestBody))
	if err != nil {
		errutil.HandleHTTP(ctx, w, goerr.Wrap(err, "failed to read request body"), http.StatusBadRequest)
		return
	}

	risks, skipped, err := usecase.DecodeRisks(data)
	if err != nil {
		errutil.HandleHTTP(ctx, w, err, http.StatusBadRequest)
		return
	}
	if len(skipped) > 0 {
		logging.From(ctx).Warn("Skipped invalid risks in request", "ids", skipped)
	}

	store := usecase.StoreFrom(ctx)
	store.ReplaceAll(ctx, risks)

	writeJSON(w, r, http.StatusOK, map[string]any{
		"imported": len(risks),
		"skipped":  len(skipped),
	})
}

func clearRisksHandler(w http.ResponseWriter, r *http.Request) {
	usecase.StoreFrom(r.Context()).ClearAll(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

func deleteRiskHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := model.RiskID(chi.URLParam(r, "id"))

	if !usecase.StoreFrom(ctx).DeleteRisk(ctx, id) {
		errutil.HandleHTTP(ctx, w, goerr.Wrap(usecase.ErrRiskNotFound, "cannot delete risk", goerr.V(usecase.RiskIDKey, id)), http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func beginEditHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := model.RiskID(chi.URLParam(r, "id"))
	store := usecase.StoreFrom(ctx)

	if !store.BeginEdit(ctx, id) {
		errutil.HandleHTTP(ctx, w, goerr.Wrap(usecase.ErrRiskNotFound, "cannot edit risk", goerr.V(usecase.RiskIDKey, id)), http.StatusNotFound)
		return
	}

	st := store.State()
	writeJSON(w, r, http.StatusOK, toDraftResponse(st.Draft, st.IsEditing))
}

func getDraftHandler(w http.ResponseWriter, r *http.Request) {
	st := usecase.StoreFrom(r.Context()).State()
	writeJSON(w, r, http.StatusOK, toDraftResponse(st.Draft, st.IsEditing))
}

func patchDraftHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req draftPatchRequest
	if err := decodeBody(r, w, &req); err != nil {
		errutil.HandleHTTP(ctx, w, err, http.StatusBadRequest)
		return
	}

	store := usecase.StoreFrom(ctx)
	store.SetDraftFields(ctx, req.toPatch())

	st := store.State()
	writeJSON(w, r, http.StatusOK, toDraftResponse(st.Draft, st.IsEditing))
}

func commitDraftHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	// Status comes from the outcome so it reflects the state the commit saw
	out := usecase.StoreFrom(ctx).Dispatch(ctx, usecase.Commit{})
	if out.Committed == nil {
		switch out.Rejection {
		case usecase.RejectionBlankDescription:
			errutil.HandleHTTP(ctx, w, goerr.Wrap(usecase.ErrBlankDescription, "cannot commit draft"), http.StatusUnprocessableEntity)
		case usecase.RejectionRiskNotFound:
			errutil.HandleHTTP(ctx, w, goerr.Wrap(usecase.ErrRiskNotFound, "edited risk no longer exists"), http.StatusNotFound)
		default:
			errutil.HandleHTTP(ctx, w, goerr.Wrap(usecase.ErrIDExhausted, "cannot commit draft",
				goerr.V("rejection", out.Rejection)), http.StatusInternalServerError)
		}
		return
	}

	status := http.StatusCreated
	if out.WasEditing {
		status = http.StatusOK
	}
	writeJSON(w, r, status, toRiskResponse(*out.Committed))
}

func cancelDraftHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	store := usecase.StoreFrom(ctx)
	store.CancelEdit(ctx)

	st := store.State()
	writeJSON(w, r, http.StatusOK, toDraftResponse(st.Draft, st.IsEditing))
}

func statisticsHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, usecase.StoreFrom(r.Context()).Statistics())
}

func matrixHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, toMatrixResponse(usecase.StoreFrom(r.Context()).Matrix()))
}

func levelsHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, levelsResponse{
		Probability: types.ProbabilityLevels(),
		Impact:      types.ImpactLevels(),
	})
}

func exportHandler(opts []report.Option) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		format := report.FormatMarkdown
		if q := r.URL.Query().Get("format"); q != "" {
			parsed, err := report.ParseFormat(q)
			if err != nil {
				errutil.HandleHTTP(ctx, w, err, http.StatusBadRequest)
				return
			}
			format = parsed
		}

		formatter, err := report.New(format, opts...)
		if err != nil {
			errutil.HandleHTTP(ctx, w, err, http.StatusBadRequest)
			return
		}

		data, err := usecase.StoreFrom(ctx).Export(formatter)
		if err != nil {
			errutil.HandleHTTP(ctx, w, err, http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", format.ContentType())
		w.Header().Set("Content-Disposition", `attachment; filename="`+report.FileName(format, time.Now())+`"`)
		w.WriteHeader(http.StatusOK)
		safe.Write(ctx, w, data)
	}
}
