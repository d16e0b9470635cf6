package httpinterface

import (
	"errors"
	"net/http"

	"github.com/tdex-network/xpubd/internal/core/application"
	"github.com/tdex-network/xpubd/internal/core/domain"
	"github.com/tdex-network/xpubd/pkg/wallet"
)

// ErrMalformedRequest is returned for request bodies or path params that
// can't be decoded.
var ErrMalformedRequest = errors.New("malformed request")

var (
	unauthorizedErrors = []error{
		application.ErrUnauthorized,
		application.ErrBadSignature,
		domain.ErrNonceMismatch,
		domain.ErrNonceExhausted,
	}
	badRequestErrors = []error{
		ErrMalformedRequest,
		wallet.ErrInvalidKeyEncoding,
		wallet.ErrNullDerivationPath,
		wallet.ErrHardenedIndexRejected,
		wallet.ErrPointAtInfinity,
		wallet.ErrMaxDepthExceeded,
		wallet.ErrEmptyInputs,
		wallet.ErrNullDestination,
		wallet.ErrZeroOutputAmount,
		wallet.ErrInvalidInputTxid,
		wallet.ErrInvalidSignaturesLength,
		wallet.ErrInvalidSchnorrSignature,
		wallet.ErrNotTaprootOutput,
		wallet.ErrInvalidKeyPathSignature,
		application.ErrInvalidAmount,
		application.ErrInvalidDestination,
		application.ErrChangeKeyNotDerived,
		application.ErrInvalidWitnessUtxo,
		application.ErrInvalidPsbt,
		application.ErrInvalidSignatureEncoding,
	}
)

// httpError returns the status code and the message to reply with for the
// given error. Authentication failures share a single message.
func httpError(err error) (int, string) {
	if errors.Is(err, application.ErrServiceUnavailable) {
		return http.StatusServiceUnavailable, application.ErrServiceUnavailable.Error()
	}
	if errors.Is(err, domain.ErrCapacityExceeded) {
		return http.StatusInsufficientStorage, domain.ErrCapacityExceeded.Error()
	}
	for _, e := range unauthorizedErrors {
		if errors.Is(err, e) {
			return http.StatusUnauthorized, application.ErrUnauthorized.Error()
		}
	}
	for _, e := range badRequestErrors {
		if errors.Is(err, e) {
			return http.StatusBadRequest, err.Error()
		}
	}
	return http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError)
}
