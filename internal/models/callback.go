package models

// Result codes from the Daraja STK callback protocol.
const (
	ResultCodeSuccess         = 0
	ResultCodeCancelledByUser = 1032
)

// STKCallbackEnvelope is the body M-Pesa posts to the callback URL.
type STKCallbackEnvelope struct {
	Body struct {
		STKCallback STKCallback `json:"stkCallback"`
	} `json:"Body"`
}

type STKCallback struct {
	MerchantRequestID string            `json:"MerchantRequestID"`
	CheckoutRequestID string            `json:"CheckoutRequestID"`
	ResultCode        *int              `json:"ResultCode"`
	ResultDesc        string            `json:"ResultDesc"`
	CallbackMetadata  *CallbackMetadata `json:"CallbackMetadata,omitempty"`
}

type CallbackMetadata struct {
	Item []CallbackItem `json:"Item"`
}

type CallbackItem struct {
	Name  string      `json:"Name"`
	Value interface{} `json:"Value,omitempty"`
}

// Receipt returns the MpesaReceiptNumber item if the gateway sent one.
func (c *STKCallback) Receipt() string {
	if c.CallbackMetadata == nil {
		return ""
	}
	for _, item := range c.CallbackMetadata.Item {
		if item.Name == "MpesaReceiptNumber" {
			if s, ok := item.Value.(string); ok {
				return s
			}
		}
	}
	return ""
}

// StatusFromResult maps a callback result onto the terminal status it implies.
func StatusFromResult(code int, desc string) TransactionStatus {
	switch code {
	case ResultCodeSuccess:
		return Succeeded()
	case ResultCodeCancelledByUser:
		return Cancelled()
	default:
		return Failed(desc)
	}
}

// CallbackAck is the acknowledgment returned to the gateway.
type CallbackAck struct {
	ResultCode        int    `json:"ResultCode"`
	ResultDesc        string `json:"ResultDesc"`
	CheckoutRequestID string `json:"CheckoutRequestID,omitempty"`
	SavedStatus       string `json:"SavedStatus,omitempty"`
}
