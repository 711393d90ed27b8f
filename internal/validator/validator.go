// Package validator provides custom validation functions for Gin's binding engine.
package validator

import (
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// supportedCountries are the markets the service covers.
var supportedCountries = map[string]bool{
	"KOR": true,
	"USA": true,
}

// supportedExchanges are the listing venues the data pipeline feeds.
var supportedExchanges = map[string]bool{
	"KOSPI":  true,
	"KOSDAQ": true,
	"NYSE":   true,
	"NASDAQ": true,
}

// Register registers all custom validators with the Gin binding engine.
func Register() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("market_country", validateMarketCountry)
		_ = v.RegisterValidation("exchange_code", validateExchangeCode)
		_ = v.RegisterValidation("asset_class", validateAssetClass)
	}
}

func validateMarketCountry(fl validator.FieldLevel) bool {
	return supportedCountries[fl.Field().String()]
}

func validateExchangeCode(fl validator.FieldLevel) bool {
	return supportedExchanges[fl.Field().String()]
}

func validateAssetClass(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "equity", "bond":
		return true
	}
	return false
}
