// Package validator provides custom validation functions for Gin's binding engine.
package validator

import (
	"regexp"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// tickerSymbolRegex matches exchange symbols like AAPL, BRK-B or RDS.A.
var tickerSymbolRegex = regexp.MustCompile(`^[A-Z0-9]{1,10}([.-][A-Z0-9]{1,4})?$`)

// validCurrencies contains the ISO 4217 currency codes seen on equity listings.
var validCurrencies = map[string]bool{
	"AUD": true, "BRL": true, "CAD": true, "CHF": true, "CNY": true,
	"DKK": true, "EUR": true, "GBP": true, "HKD": true, "IDR": true,
	"ILS": true, "INR": true, "JPY": true, "KRW": true, "MXN": true,
	"MYR": true, "NOK": true, "NZD": true, "PLN": true, "SEK": true,
	"SGD": true, "THB": true, "TRY": true, "TWD": true, "USD": true,
	"ZAR": true,
}

// Register registers all custom validators with the Gin binding engine.
func Register() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("iso4217", validateISO4217)
		_ = v.RegisterValidation("ticker_symbol", validateTickerSymbol)
		_ = v.RegisterValidation("return_type", validateReturnType)
		_ = v.RegisterValidation("period", validatePeriod)
		_ = v.RegisterValidation("mean_method", validateMeanMethod)
	}
}

func validateISO4217(fl validator.FieldLevel) bool {
	return validCurrencies[fl.Field().String()]
}

func validateTickerSymbol(fl validator.FieldLevel) bool {
	return tickerSymbolRegex.MatchString(fl.Field().String())
}

func validateReturnType(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "", "simple", "log":
		return true
	}
	return false
}

func validatePeriod(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "", "daily", "weekly", "monthly":
		return true
	}
	return false
}

func validateMeanMethod(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "", "arithmetic", "geometric":
		return true
	}
	return false
}
