package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"

	"github.com/jonathan/deal-poster/internal/paapi"
)

var validate = validator.New()

// VendorEnv is the signed pipeline input.
type VendorEnv struct {
	ASIN       string `envconfig:"ASIN" validate:"required,len=10,alphanum"`
	Note       string `envconfig:"NOTE"`
	AccessKey  string `envconfig:"AMAZON_ACCESS_KEY"`
	SecretKey  string `envconfig:"AMAZON_SECRET_KEY"`
	PartnerTag string `envconfig:"AMAZON_ASSOCIATE_TAG"`
	SecretID   string `envconfig:"AMAZON_SECRET_ID"`
}

var vendorNames = map[string]string{
	"ASIN":       "ASIN",
	"AccessKey":  "AMAZON_ACCESS_KEY",
	"SecretKey":  "AMAZON_SECRET_KEY",
	"PartnerTag": "AMAZON_ASSOCIATE_TAG",
}

// LoadVendorEnv reads and validates VendorEnv. The ASIN is trimmed and
// upper-cased before validation.
func LoadVendorEnv() (*VendorEnv, error) {
	var env VendorEnv
	if err := envconfig.Process("", &env); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}
	env.ASIN = strings.ToUpper(strings.TrimSpace(env.ASIN))
	env.Note = strings.TrimSpace(env.Note)
	env.AccessKey = strings.TrimSpace(env.AccessKey)
	env.SecretKey = strings.TrimSpace(env.SecretKey)
	env.PartnerTag = strings.TrimSpace(env.PartnerTag)

	if err := validate.Struct(&env); err != nil {
		return nil, fromValidator(err, vendorNames)
	}
	return &env, nil
}

// Credentials returns the vendor credentials carried by env.
func (e *VendorEnv) Credentials() paapi.Credentials {
	return paapi.Credentials{AccessKey: e.AccessKey, SecretKey: e.SecretKey, PartnerTag: e.PartnerTag}
}

type requiredCredentials struct {
	AccessKey  string `validate:"required"`
	SecretKey  string `validate:"required"`
	PartnerTag string `validate:"required"`
}

// ValidateCredentials fails with a ValidationError naming the first missing value.
func ValidateCredentials(c paapi.Credentials) error {
	rc := requiredCredentials{AccessKey: c.AccessKey, SecretKey: c.SecretKey, PartnerTag: c.PartnerTag}
	if err := validate.Struct(&rc); err != nil {
		return fromValidator(err, vendorNames)
	}
	return nil
}

// TelegramEnv holds optional channel credentials.
type TelegramEnv struct {
	Token     string `envconfig:"TELEGRAM_BOT_TOKEN"`
	ChannelID string `envconfig:"TELEGRAM_CHANNEL_ID"`
}

// LoadTelegramEnv reads TelegramEnv; both values may be empty.
func LoadTelegramEnv() (TelegramEnv, error) {
	var env TelegramEnv
	if err := envconfig.Process("", &env); err != nil {
		return env, fmt.Errorf("failed to read environment: %w", err)
	}
	env.Token = strings.TrimSpace(env.Token)
	env.ChannelID = strings.TrimSpace(env.ChannelID)
	return env, nil
}

// ManualEnv is the hand-entered post input.
type ManualEnv struct {
	Title       string `envconfig:"TITLE" validate:"required"`
	URL         string `envconfig:"URL" validate:"required,http_url"`
	ImageURL    string `envconfig:"IMAGE_URL" validate:"omitempty,http_url"`
	Price       string `envconfig:"PRICE"`
	DiscountPct string `envconfig:"DISCOUNT_PCT" validate:"omitempty,number"`
	Note        string `envconfig:"NOTE"`
	PartnerTag  string `envconfig:"AMAZON_ASSOCIATE_TAG"`
}

var manualNames = map[string]string{
	"Title":       "TITLE",
	"URL":         "URL",
	"ImageURL":    "IMAGE_URL",
	"DiscountPct": "DISCOUNT_PCT",
}

// LoadManualEnv reads and validates ManualEnv.
func LoadManualEnv() (*ManualEnv, error) {
	var env ManualEnv
	if err := envconfig.Process("", &env); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}
	env.Title = strings.TrimSpace(env.Title)
	env.URL = strings.TrimSpace(env.URL)
	env.ImageURL = strings.TrimSpace(env.ImageURL)
	env.Price = strings.TrimSpace(env.Price)
	env.DiscountPct = strings.TrimSpace(env.DiscountPct)
	env.Note = strings.TrimSpace(env.Note)
	env.PartnerTag = strings.TrimSpace(env.PartnerTag)

	if err := validate.Struct(&env); err != nil {
		return nil, fromValidator(err, manualNames)
	}
	return &env, nil
}

// Discount returns the parsed DISCOUNT_PCT, nil when unset.
func (e *ManualEnv) Discount() *int {
	if e.DiscountPct == "" {
		return nil
	}
	n, err := strconv.Atoi(e.DiscountPct)
	if err != nil {
		return nil
	}
	return &n
}
