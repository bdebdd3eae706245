package dto

// STKCallbackEnvelope is the body Daraja POSTs to the callback URL once the customer
// answers (or ignores) the STK prompt.
type STKCallbackEnvelope struct {
	Body struct {
		STKCallback STKCallback `json:"stkCallback"`
	} `json:"Body"`
}

type STKCallback struct {
	MerchantRequestID string               `json:"MerchantRequestID"`
	CheckoutRequestID string               `json:"CheckoutRequestID"`
	ResultCode        int                  `json:"ResultCode"`
	ResultDesc        string               `json:"ResultDesc"`
	CallbackMetadata  *STKCallbackMetadata `json:"CallbackMetadata,omitempty"`
}

type STKCallbackMetadata struct {
	Item []STKCallbackItem `json:"Item"`
}

// STKCallbackItem values are numbers or strings depending on Name.
type STKCallbackItem struct {
	Name  string      `json:"Name"`
	Value interface{} `json:"Value,omitempty"`
}

// STKCallbackAck is the acknowledgement Daraja expects back.
type STKCallbackAck struct {
	ResultCode int    `json:"ResultCode"`
	ResultDesc string `json:"ResultDesc"`
}
