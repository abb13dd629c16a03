package handlers

import (
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/filmchain/track-shorts/internal/apperror"
	"github.com/filmchain/track-shorts/internal/utils"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// writeError logs server-side failures and writes the error envelope.
func writeError(w http.ResponseWriter, logger *zap.Logger, status int, err error) {
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", zap.Int("status", status), zap.Error(err))
	}
	utils.WriteError(w, status, err)
}

// decodeAndValidate reads the JSON body into dst and runs its validate tags.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) error {
	if err := utils.ReadJSON(w, r, dst); err != nil {
		return err
	}

	if err := validate.Struct(dst); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok && len(verrs) > 0 {
			fe := verrs[0]
			return apperror.Validation(fmt.Sprintf("field %s failed on the %s rule", fe.Field(), fe.Tag()))
		}
		return apperror.Validation(err.Error())
	}
	return nil
}
