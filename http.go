package ledgergo

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/bwmarrin/snowflake"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	actorHeader     = "X-Actor"
	defaultPageSize = 20
)

func NewHTTPHandler(svc Service, log *zerolog.Logger) http.Handler {
	hndlr := &httpHandler{
		Svc: svc,
		Log: log,
	}
	mux := chi.NewMux()
	mux.NotFound(HTTPNotFound)
	mux.Route("/accounts", func(r chi.Router) {
		r.Post("/current", hndlr.OpenCurrentAccount)
		r.Post("/saving", hndlr.OpenSavingAccount)
		r.Route("/{acctID:[0-9]+}", func(rr chi.Router) {
			rr.Get("/", hndlr.GetAccount)
			rr.Post("/debit", hndlr.Debit)
			rr.Post("/credit", hndlr.Credit)
			rr.Get("/operations", hndlr.History)
			rr.Get("/statement", hndlr.Statement)
		})
	})
	mux.Post("/transfers", hndlr.Transfer)

	return mux
}

type httpHandler struct {
	Svc Service
	Log *zerolog.Logger
}

func (h *httpHandler) OpenCurrentAccount(w http.ResponseWriter, r *http.Request) {
	buf, err := io.ReadAll(r.Body)
	defer r.Body.Close()
	if err != nil {
		h.Log.Err(err).Str("method", "openCurrent").Msg("error reading HTTP request")
		WriteHTTPError(w, ErrInternalServer)
		return
	}
	var req OpenCurrentReq
	if err = json.Unmarshal(buf, &req); err != nil {
		h.Log.Err(err).Str("method", "openCurrent").Msg("error unmarshalling JSON")
		WriteHTTPError(w, ErrBadRequest{Fields: map[string]string{"request body": "malformed JSON"}})
		return
	}
	req.Actor = r.Header.Get(actorHeader)
	acct, err := h.Svc.OpenCurrentAccount(req)
	if err != nil {
		WriteHTTPError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err = json.NewEncoder(w).Encode(acct); err != nil {
		h.Log.Err(err).Str("method", "openCurrent").Msg("error encoding response")
	}
}

func (h *httpHandler) OpenSavingAccount(w http.ResponseWriter, r *http.Request) {
	buf, err := io.ReadAll(r.Body)
	defer r.Body.Close()
	if err != nil {
		h.Log.Err(err).Str("method", "openSaving").Msg("error reading HTTP request")
		WriteHTTPError(w, ErrInternalServer)
		return
	}
	var req OpenSavingReq
	if err = json.Unmarshal(buf, &req); err != nil {
		h.Log.Err(err).Str("method", "openSaving").Msg("error unmarshalling JSON")
		WriteHTTPError(w, ErrBadRequest{Fields: map[string]string{"request body": "malformed JSON"}})
		return
	}
	req.Actor = r.Header.Get(actorHeader)
	acct, err := h.Svc.OpenSavingAccount(req)
	if err != nil {
		WriteHTTPError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err = json.NewEncoder(w).Encode(acct); err != nil {
		h.Log.Err(err).Str("method", "openSaving").Msg("error encoding response")
	}
}

func (h *httpHandler) GetAccount(w http.ResponseWriter, r *http.Request) {
	acctID, err := snowflake.ParseString(chi.URLParam(r, "acctID"))
	if err != nil {
		h.Log.Err(err).Str("method", "getAccount").Msg("error parsing account ID")
		WriteHTTPError(w, ErrBadRequest{Fields: map[string]string{"acctID": "invalid format"}})
		return
	}
	acct, err := h.Svc.GetAccount(acctID)
	if err != nil {
		WriteHTTPError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err = json.NewEncoder(w).Encode(acct); err != nil {
		WriteHTTPError(w, err)
	}
}

func (h *httpHandler) Debit(w http.ResponseWriter, r *http.Request) {
	h.charge(w, r, "debit", h.Svc.Debit)
}

func (h *httpHandler) Credit(w http.ResponseWriter, r *http.Request) {
	h.charge(w, r, "credit", h.Svc.Credit)
}

func (h *httpHandler) charge(w http.ResponseWriter, r *http.Request, method string, call func(ChargeReq) (*Operation, error)) {
	buf, err := io.ReadAll(r.Body)
	defer r.Body.Close()
	if err != nil {
		h.Log.Err(err).Str("method", method).Msg("error reading HTTP request")
		WriteHTTPError(w, ErrInternalServer)
		return
	}
	var req ChargeReq
	if err = json.Unmarshal(buf, &req); err != nil {
		h.Log.Err(err).Str("method", method).Msg("error unmarshalling JSON")
		WriteHTTPError(w, ErrBadRequest{Fields: map[string]string{"request body": "malformed JSON"}})
		return
	}
	acctID, err := snowflake.ParseString(chi.URLParam(r, "acctID"))
	if err != nil {
		h.Log.Err(err).Str("method", method).Msg("error parsing account ID")
		WriteHTTPError(w, ErrBadRequest{Fields: map[string]string{"acctID": "invalid format"}})
		return
	}
	req.AcctID = acctID
	req.Actor = r.Header.Get(actorHeader)
	op, err := call(req)
	if err != nil {
		WriteHTTPError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err = json.NewEncoder(w).Encode(op); err != nil {
		WriteHTTPError(w, err)
	}
}

func (h *httpHandler) Transfer(w http.ResponseWriter, r *http.Request) {
	buf, err := io.ReadAll(r.Body)
	defer r.Body.Close()
	if err != nil {
		h.Log.Err(err).Str("method", "transfer").Msg("error reading HTTP request")
		WriteHTTPError(w, ErrInternalServer)
		return
	}
	var req TransferReq
	if err = json.Unmarshal(buf, &req); err != nil {
		h.Log.Err(err).Str("method", "transfer").Msg("error unmarshalling JSON")
		WriteHTTPError(w, ErrBadRequest{Fields: map[string]string{"request body": "malformed JSON"}})
		return
	}
	req.Actor = r.Header.Get(actorHeader)
	rcpt, err := h.Svc.Transfer(req)
	if err != nil {
		WriteHTTPError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err = json.NewEncoder(w).Encode(rcpt); err != nil {
		WriteHTTPError(w, err)
	}
}

func (h *httpHandler) History(w http.ResponseWriter, r *http.Request) {
	acctID, err := snowflake.ParseString(chi.URLParam(r, "acctID"))
	if err != nil {
		h.Log.Err(err).Str("method", "history").Msg("error parsing account ID")
		WriteHTTPError(w, ErrBadRequest{Fields: map[string]string{"acctID": "invalid format"}})
		return
	}
	req := HistoryReq{
		AcctID: acctID,
		Size:   defaultPageSize,
	}
	if p := r.URL.Query().Get("page"); p != "" {
		if req.Page, err = strconv.Atoi(p); err != nil {
			WriteHTTPError(w, ErrBadRequest{Fields: map[string]string{"page": "invalid format"}})
			return
		}
	}
	if s := r.URL.Query().Get("size"); s != "" {
		if req.Size, err = strconv.Atoi(s); err != nil {
			WriteHTTPError(w, ErrBadRequest{Fields: map[string]string{"size": "invalid format"}})
			return
		}
	}
	page, err := h.Svc.History(req)
	if err != nil {
		WriteHTTPError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err = json.NewEncoder(w).Encode(page); err != nil {
		WriteHTTPError(w, err)
	}
}

func (h *httpHandler) Statement(w http.ResponseWriter, r *http.Request) {
	acctID, err := snowflake.ParseString(chi.URLParam(r, "acctID"))
	if err != nil {
		h.Log.Err(err).Str("method", "statement").Msg("error parsing account ID")
		WriteHTTPError(w, ErrBadRequest{Fields: map[string]string{"acctID": "invalid format"}})
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	if err = h.Svc.Statement(w, acctID); err != nil {
		WriteHTTPError(w, err)
	}
}

func WriteHTTPError(w http.ResponseWriter, err error) {
	var ne error
	defer func() {
		if ne != nil {
			log.Error().
				Err(ne).
				Msg("error response encoding failed")
		}
	}()

	w.Header().Set("Content-Type", "application/json")
	erracct := &ErrAccountNotFound{}
	errcust := &ErrCustomerNotFound{}
	errfunds := &ErrInsufficientFunds{}
	erramt := &ErrInvalidAmount{}
	errbr := &ErrBadRequest{}
	switch {
	case errors.As(err, erracct):
		w.WriteHeader(http.StatusNotFound)
		ne = json.NewEncoder(w).Encode(erracct)
	case errors.As(err, errcust):
		w.WriteHeader(http.StatusNotFound)
		ne = json.NewEncoder(w).Encode(errcust)
	case errors.As(err, errfunds):
		w.WriteHeader(http.StatusUnprocessableEntity)
		ne = json.NewEncoder(w).Encode(errfunds)
	case errors.As(err, erramt):
		w.WriteHeader(http.StatusBadRequest)
		ne = json.NewEncoder(w).Encode(erramt)
	case errors.As(err, errbr):
		w.WriteHeader(http.StatusBadRequest)
		ne = json.NewEncoder(w).Encode(errbr)
	case errors.Is(err, ErrTooManyRequests):
		w.WriteHeader(http.StatusServiceUnavailable)
		ne = json.NewEncoder(w).Encode(map[string]string{"message": err.Error()})
	default:
		w.WriteHeader(http.StatusInternalServerError)
		ne = json.NewEncoder(w).Encode(map[string]string{"message": "server error"})
	}
}

func HTTPNotFound(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusNotFound)
	resp := map[string]string{
		"path": r.URL.Path,
	}
	json.NewEncoder(w).Encode(resp)
}
