package utils

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/go-playground/validator/v10"
)

// evmAddress validates a 0x-prefixed hex ledger-chain address.
func evmAddress(fl validator.FieldLevel) bool {
	return common.IsHexAddress(fl.Field().String())
}

// RegisterBindingValidations installs custom validations on an external
// validator engine (gin's binding engine).
func RegisterBindingValidations(v *validator.Validate) error {
	return v.RegisterValidation("evmaddress", evmAddress)
}
