// Package paapi signs and sends Product Advertising API GetItems requests.
package paapi

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

const (
	// Algorithm is the request-signing scheme name.
	Algorithm = "AWS4-HMAC-SHA256"
	// Service is the credential-scope service name.
	Service = "ProductAdvertisingAPI"
	// GetItemsPath is the fixed endpoint path for item lookups.
	GetItemsPath = "/paapi5/getitems"
	// GetItemsTarget is the x-amz-target value for item lookups.
	GetItemsTarget = "com.amazon.paapi5.v1.ProductAdvertisingAPIv1.GetItems"

	contentEncoding = "amz-1.0"
	contentType     = "application/json; charset=utf-8"
	signedHeaders   = "content-encoding;content-type;host;x-amz-date;x-amz-target"
	amzDateFormat   = "20060102T150405Z"
	dateStampFormat = "20060102"
)

// Resources lists the item fields requested from GetItems, in wire order.
var Resources = []string{
	"Images.Primary.Large",
	"ItemInfo.Title",
	"Offers.Listings.Price",
	"Offers.Listings.SavingBasis",
	"Offers.Listings.Savings",
}

// Credentials holds the vendor account secrets.
type Credentials struct {
	AccessKey  string
	SecretKey  string
	PartnerTag string
}

// SigningContext is the per-request signing state.
type SigningContext struct {
	Credentials
	Region    string
	Host      string
	Timestamp string // YYYYMMDDTHHMMSSZ
	DateStamp string // YYYYMMDD
}

// NewSigningContext derives the request timestamps from now in UTC.
func NewSigningContext(creds Credentials, region, host string, now time.Time) SigningContext {
	utc := now.UTC()
	return SigningContext{
		Credentials: creds,
		Region:      region,
		Host:        host,
		Timestamp:   utc.Format(amzDateFormat),
		DateStamp:   utc.Format(dateStampFormat),
	}
}

type getItemsPayload struct {
	ItemIds     []string `json:"ItemIds"`
	PartnerTag  string   `json:"PartnerTag"`
	PartnerType string   `json:"PartnerType"`
	Marketplace string   `json:"Marketplace"`
	Resources   []string `json:"Resources"`
}

// BuildPayload returns the compact GetItems JSON body.
func BuildPayload(asin, partnerTag, marketplace string) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	err := enc.Encode(getItemsPayload{
		ItemIds:     []string{asin},
		PartnerTag:  partnerTag,
		PartnerType: "Associates",
		Marketplace: marketplace,
		Resources:   Resources,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode GetItems payload: %w", err)
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// CredentialScope returns dateStamp/region/service/aws4_request.
func (s SigningContext) CredentialScope() string {
	return strings.Join([]string{s.DateStamp, s.Region, Service, "aws4_request"}, "/")
}

func (s SigningContext) canonicalHeaders() string {
	var sb strings.Builder
	sb.WriteString("content-encoding:" + contentEncoding + "\n")
	sb.WriteString("content-type:" + contentType + "\n")
	sb.WriteString("host:" + s.Host + "\n")
	sb.WriteString("x-amz-date:" + s.Timestamp + "\n")
	sb.WriteString("x-amz-target:" + GetItemsTarget + "\n")
	return sb.String()
}

// CanonicalRequest assembles the exact byte sequence whose hash is signed.
func (s SigningContext) CanonicalRequest(payload []byte) string {
	return strings.Join([]string{
		"POST",
		GetItemsPath,
		"",
		s.canonicalHeaders(),
		signedHeaders,
		sha256Hex(payload),
	}, "\n")
}

// StringToSign wraps the canonical request digest with algorithm, time and scope.
func (s SigningContext) StringToSign(canonicalRequest string) string {
	return strings.Join([]string{
		Algorithm,
		s.Timestamp,
		s.CredentialScope(),
		sha256Hex([]byte(canonicalRequest)),
	}, "\n")
}

// SigningKey derives the scoped key through the HMAC chain.
func (s SigningContext) SigningKey() []byte {
	kDate := hmacSHA256([]byte("AWS4"+s.SecretKey), s.DateStamp)
	kRegion := hmacSHA256(kDate, s.Region)
	kService := hmacSHA256(kRegion, Service)
	return hmacSHA256(kService, "aws4_request")
}

// Signature returns the hex HMAC of the string to sign.
func (s SigningContext) Signature(payload []byte) string {
	sts := s.StringToSign(s.CanonicalRequest(payload))
	return hex.EncodeToString(hmacSHA256(s.SigningKey(), sts))
}

// Authorization returns the full Authorization header value for payload.
func (s SigningContext) Authorization(payload []byte) string {
	return fmt.Sprintf("%s Credential=%s/%s, SignedHeaders=%s, Signature=%s",
		Algorithm, s.AccessKey, s.CredentialScope(), signedHeaders, s.Signature(payload))
}

// Headers returns every header sent with the signed request.
func (s SigningContext) Headers(payload []byte) map[string]string {
	return map[string]string{
		"Content-Encoding": contentEncoding,
		"Content-Type":     contentType,
		"Host":             s.Host,
		"X-Amz-Date":       s.Timestamp,
		"X-Amz-Target":     GetItemsTarget,
		"Authorization":    s.Authorization(payload),
	}
}

func hmacSHA256(key []byte, data string) []byte {
	h := hmac.New(sha256.New, key)
	h.Write([]byte(data))
	return h.Sum(nil)
}

func sha256Hex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
