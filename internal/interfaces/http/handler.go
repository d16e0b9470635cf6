package httpinterface

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"github.com/tdex-network/xpubd/internal/core/application"
	"github.com/tdex-network/xpubd/internal/core/domain"
	"github.com/tdex-network/xpubd/pkg/stats"
	"github.com/tdex-network/xpubd/pkg/wallet"
)

var services = []string{
	"GET /info",
	"POST /login",
	"POST /logout",
	"GET /account",
	"POST /derive_address/{first}/{second}",
	"POST /create_psbt",
	"POST /finalize_psbt",
}

type handler struct {
	opts ServiceOpts
}

func (h *handler) info(w http.ResponseWriter, r *http.Request) {
	svcs := services
	if h.opts.Metrics != nil {
		svcs = append(svcs[:len(svcs):len(svcs)], "GET /metrics")
	}
	writeJSON(w, http.StatusOK, infoResponse{
		Name:            "xpubd",
		PaymentProfile:  h.opts.PaymentProfile.String(),
		IdentityProfile: h.opts.IdentityProfile.String(),
		MaxChildren:     domain.MaxDerivedChildren,
		Services:        svcs,
	})
}

func (h *handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeBody(w, r, &req); err != nil {
		h.fail(w, err, h.observeLogin)
		return
	}
	claimedKey, err := hex.DecodeString(req.Xpub)
	if err != nil {
		h.fail(w, wallet.ErrInvalidKeyEncoding, h.observeLogin)
		return
	}

	// A fresh session is issued at every login.
	id := uuid.New().String()
	account, err := h.opts.AuthSvc.Login(r.Context(), id, application.Credentials{
		Witness:      req.Witness,
		ClaimedKey:   claimedKey,
		ClaimedNonce: req.Nonce,
	})
	if err != nil {
		h.fail(w, err, h.observeLogin)
		return
	}

	info, err := h.opts.AccountSvc.GetAccount(r.Context(), id)
	if err != nil {
		h.fail(w, err, h.observeLogin)
		return
	}

	if oldID, ok := sessionID(r); ok && oldID != id {
		if err := h.opts.AuthSvc.Logout(r.Context(), oldID); err != nil {
			log.WithError(err).Debug("failed to clear previous session")
		}
	}

	h.observeLogin(stats.ResultSuccess)
	log.Debugf("account %s logged in", account.MasterKey)
	setSessionCookie(w, id, h.opts.SessionTTL)
	writeJSON(w, http.StatusOK, toAccountResponse(info))
}

func (h *handler) logout(w http.ResponseWriter, r *http.Request) {
	if id, ok := sessionID(r); ok {
		if err := h.opts.AuthSvc.Logout(r.Context(), id); err != nil {
			h.fail(w, err, nil)
			return
		}
	}
	clearSessionCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) account(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(r)
	if !ok {
		h.fail(w, application.ErrUnauthorized, nil)
		return
	}

	info, err := h.opts.AccountSvc.GetAccount(r.Context(), id)
	if err != nil {
		h.fail(w, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, toAccountResponse(info))
}

func (h *handler) deriveAddress(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(r)
	if !ok {
		h.fail(w, application.ErrUnauthorized, h.observeDerivation)
		return
	}

	path := make(wallet.DerivationPath, 0, 2)
	for _, name := range []string{"first", "second"} {
		index, err := strconv.ParseUint(r.PathValue(name), 10, 32)
		if err != nil {
			h.fail(w, fmt.Errorf(
				"%w: %s index must be an unsigned 32 bit integer",
				ErrMalformedRequest, name,
			), h.observeDerivation)
			return
		}
		path = append(path, uint32(index))
	}

	derived, err := h.opts.AccountSvc.DeriveAddress(r.Context(), id, path)
	if err != nil {
		h.fail(w, err, h.observeDerivation)
		return
	}

	h.observeDerivation(stats.ResultSuccess)
	writeJSON(w, http.StatusOK, deriveAddressResponse{
		Address: derived.Address.String(),
		Child:   derived.Child,
		Account: toAccountResponse(&derived.Account),
	})
}

func (h *handler) createPsbt(w http.ResponseWriter, r *http.Request) {
	observe := h.observeTemplate("create")

	id, ok := sessionID(r)
	if !ok {
		h.fail(w, application.ErrUnauthorized, observe)
		return
	}

	var req createPsbtRequest
	if err := decodeBody(w, r, &req); err != nil {
		h.fail(w, err, observe)
		return
	}

	psbt, err := h.opts.TransactionSvc.CreateTemplate(
		r.Context(), id, req.toTemplateRequest(),
	)
	if err != nil {
		h.fail(w, err, observe)
		return
	}

	observe(stats.ResultSuccess)
	writeJSON(w, http.StatusOK, createPsbtResponse{psbt})
}

func (h *handler) finalizePsbt(w http.ResponseWriter, r *http.Request) {
	observe := h.observeTemplate("finalize")

	id, ok := sessionID(r)
	if !ok {
		h.fail(w, application.ErrUnauthorized, observe)
		return
	}

	var req finalizePsbtRequest
	if err := decodeBody(w, r, &req); err != nil {
		h.fail(w, err, observe)
		return
	}

	finalized, err := h.opts.TransactionSvc.FinalizeTemplate(
		r.Context(), id, application.FinalizeTemplateRequest{
			Psbt:       req.Psbt,
			Signatures: req.Signatures,
		},
	)
	if err != nil {
		h.fail(w, err, observe)
		return
	}

	observe(stats.ResultSuccess)
	writeJSON(w, http.StatusOK, finalizePsbtResponse{
		Psbt: finalized.Psbt,
		Tx:   finalized.TxHex,
	})
}

// fail replies with the status and message matching err and reports the
// outcome to observe, if defined.
func (h *handler) fail(w http.ResponseWriter, err error, observe func(string)) {
	status, msg := httpError(err)
	if status >= http.StatusInternalServerError {
		log.WithError(err).Warn("request failed")
	} else {
		log.WithError(err).Debug("request rejected")
	}

	if observe != nil {
		result := stats.ResultRejected
		if status >= http.StatusInternalServerError {
			result = stats.ResultFailure
		}
		observe(result)
	}

	writeJSON(w, status, errorResponse{msg})
}

func (h *handler) observeLogin(result string) {
	if h.opts.Metrics != nil {
		h.opts.Metrics.ObserveLogin(result)
	}
}

func (h *handler) observeDerivation(result string) {
	if h.opts.Metrics != nil {
		h.opts.Metrics.ObserveDerivation(result)
	}
}

func (h *handler) observeTemplate(operation string) func(string) {
	return func(result string) {
		if h.opts.Metrics != nil {
			h.opts.Metrics.ObserveTemplate(operation, result)
		}
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %s", ErrMalformedRequest, err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.WithError(err).Warn("failed to encode response")
	}
}
