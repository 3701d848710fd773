package prediction

import (
	"errors"
	"strings"
)

// ErrPredictionFailed wraps every failure of the external call.
// Callers check with errors.Is(err, ErrPredictionFailed).
var ErrPredictionFailed = errors.New("no se pudo obtener la predicción")

// Phrases the providers use for a missing, wrong or unauthorized key.
var authFailurePhrases = []string{
	"Requested entity was not found.",
	"API key not valid",
}

// UserMessage converts a prediction error into the text shown to the user.
// Authentication failures get a hint naming the environment variable that
// holds the key.
func UserMessage(err error, keyEnv string) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	if msg == "" {
		msg = "Ha ocurrido un error inesperado al predecir el precio."
	}
	if IsAuthFailure(err) {
		msg += " Por favor, asegúrate de que tu clave API (" + keyEnv + ") esté configurada correctamente en el entorno de despliegue."
	}
	return msg
}

// IsAuthFailure reports whether the error text matches a known key problem.
func IsAuthFailure(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	for _, p := range authFailurePhrases {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}
