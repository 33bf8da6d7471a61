package domain

import (
	"strings"
	"time"
)

type OrderStatus string

const (
	OrderPending OrderStatus = "pending"
	OrderPaid    OrderStatus = "paid"
)

// IsPaid reports whether a provider status string means the order was paid.
// Providers disagree on spelling and casing, so the comparison is loose; any
// other status is stored verbatim without interpretation.
func IsPaid(status string) bool {
	switch strings.ToUpper(status) {
	case "PAID", "APPROVED", "TRANSACTION.PAID":
		return true
	}
	return false
}

type Customer struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Document string `json:"document"`
	Phone    string `json:"phone"`
	Country  string `json:"country"`
	IP       string `json:"ip,omitempty"`
}

type Order struct {
	TransactionID string         `json:"transactionId"`
	Status        OrderStatus    `json:"status"`
	AmountCents   int            `json:"amountCents"`
	FeeCents      int            `json:"feeCents"`
	PaymentMethod string         `json:"paymentMethod"`
	Platform      string         `json:"platform"`
	PixCode       string         `json:"pixCode,omitempty"`
	Customer      Customer       `json:"customer"`
	UsedRealData  bool           `json:"usedRealData"`
	Tracking      TrackingParams `json:"trackingParams"`
	CreatedAt     time.Time      `json:"createdAt"`
	UpdatedAt     time.Time      `json:"updatedAt"`
}

// TrackingParams carries the campaign attribution fields recognized by the
// tracking collaborator. A fixed field set (rather than a free map) makes
// duplicate keys impossible and gives the forwarded payload a stable shape.
type TrackingParams struct {
	Src         string `json:"src,omitempty"`
	Sck         string `json:"sck,omitempty"`
	UtmSource   string `json:"utm_source,omitempty"`
	UtmCampaign string `json:"utm_campaign,omitempty"`
	UtmMedium   string `json:"utm_medium,omitempty"`
	UtmContent  string `json:"utm_content,omitempty"`
	UtmTerm     string `json:"utm_term,omitempty"`
	Xcod        string `json:"xcod,omitempty"`
	Fbclid      string `json:"fbclid,omitempty"`
	Gclid       string `json:"gclid,omitempty"`
	Ttclid      string `json:"ttclid,omitempty"`
}

// TrackingParamsFromMap picks the recognized attribution keys out of a raw
// request map. Non-string and empty values are dropped.
func TrackingParamsFromMap(m map[string]any) TrackingParams {
	get := func(key string) string {
		if v, ok := m[key]; ok {
			if s, ok := v.(string); ok {
				return s
			}
		}
		return ""
	}
	tp := TrackingParams{
		Src:         get("src"),
		Sck:         get("sck"),
		UtmSource:   get("utm_source"),
		UtmCampaign: get("utm_campaign"),
		UtmMedium:   get("utm_medium"),
		UtmContent:  get("utm_content"),
		UtmTerm:     get("utm_term"),
		Xcod:        get("xcod"),
		Fbclid:      get("fbclid"),
		Gclid:       get("gclid"),
		Ttclid:      get("ttclid"),
	}
	if tp.Src == "" {
		tp.Src = tp.UtmSource
	}
	return tp
}

// ToMap returns the non-empty parameters keyed the way the collaborator
// expects them.
func (tp TrackingParams) ToMap() map[string]string {
	out := map[string]string{}
	put := func(k, v string) {
		if v != "" {
			out[k] = v
		}
	}
	put("src", tp.Src)
	put("sck", tp.Sck)
	put("utm_source", tp.UtmSource)
	put("utm_campaign", tp.UtmCampaign)
	put("utm_medium", tp.UtmMedium)
	put("utm_content", tp.UtmContent)
	put("utm_term", tp.UtmTerm)
	put("xcod", tp.Xcod)
	put("fbclid", tp.Fbclid)
	put("gclid", tp.Gclid)
	put("ttclid", tp.Ttclid)
	return out
}

func (tp TrackingParams) IsZero() bool {
	return tp == TrackingParams{}
}
