package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// DefaultCurrency is used when a document header carries no currency code.
const DefaultCurrency = "CNY"

// OrderItem is one table row. Every field is opaque text; the JSON names
// are the keys the processing script reads and writes.
type OrderItem struct {
	ID                  string `json:"id"`
	Date                string `json:"日期"`
	CustomerName        string `json:"客户名"`
	OrderNo             string `json:"订单号"`
	PartNo              string `json:"零件号"`
	PartDescription     string `json:"零件描述"`
	Quantity            string `json:"数量"`
	UnitPrice           string `json:"价格"`
	Amount              string `json:"金额"`
	PlannedDeliveryDate string `json:"计划交货日期"`
	OrderDueDate        string `json:"订单交期"`
}

// PdfInfo holds document header metadata
type PdfInfo struct {
	OrderNo      string `json:"orderNo"`
	SupplierNo   string `json:"supplierNo"`
	SupplierName string `json:"supplierName"`
	CustomerName string `json:"customerName"`
	Currency     string `json:"currency"`
}

// DefaultPdfInfo returns an empty header with the default currency.
func DefaultPdfInfo() PdfInfo {
	return PdfInfo{Currency: DefaultCurrency}
}

// UnmarshalJSON accepts both the lower-camel names and their snake-case
// aliases. A missing or empty currency falls back to DefaultCurrency.
func (p *PdfInfo) UnmarshalJSON(data []byte) error {
	var raw struct {
		OrderNo      *string `json:"orderNo"`
		OrderNoAlt   *string `json:"order_no"`
		SupplierNo   *string `json:"supplierNo"`
		SupplierAlt  *string `json:"supplier_no"`
		SupplierName *string `json:"supplierName"`
		SupplierNAlt *string `json:"supplier_name"`
		CustomerName *string `json:"customerName"`
		CustomerAlt  *string `json:"customer_name"`
		Currency     *string `json:"currency"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*p = PdfInfo{
		OrderNo:      firstOf(raw.OrderNo, raw.OrderNoAlt),
		SupplierNo:   firstOf(raw.SupplierNo, raw.SupplierAlt),
		SupplierName: firstOf(raw.SupplierName, raw.SupplierNAlt),
		CustomerName: firstOf(raw.CustomerName, raw.CustomerAlt),
		Currency:     firstOf(raw.Currency),
	}
	if p.Currency == "" {
		p.Currency = DefaultCurrency
	}
	return nil
}

func firstOf(vals ...*string) string {
	for _, v := range vals {
		if v != nil {
			return *v
		}
	}
	return ""
}

// ParseResult is the outcome of one parse call
type ParseResult struct {
	Items []OrderItem `json:"items"`
	Info  PdfInfo     `json:"info"`
}

// ConversionStatus is the outcome recorded for a bridge call
type ConversionStatus string

const (
	ConversionSucceeded ConversionStatus = "succeeded"
	ConversionFailed    ConversionStatus = "failed"
)

// Conversion is one recorded parse or export invocation.
type Conversion struct {
	ID        uuid.UUID        `json:"id"`
	Command   string           `json:"command"`
	Path      string           `json:"path"`
	ItemCount int              `json:"itemCount"`
	Status    ConversionStatus `json:"status"`
	ErrorKind ErrorKind        `json:"errorKind,omitempty"`
	Error     string           `json:"error,omitempty"`
	Duration  time.Duration    `json:"duration"`
	CreatedAt time.Time        `json:"createdAt"`
}
