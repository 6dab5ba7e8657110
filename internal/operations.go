package internal

// operation describes one remote action: its name (used in parameter
// errors), its fixed relative path and the protocol version field it
// carries. An empty version means the client's general API version. The
// canonical signing-field order for each operation lives next to its
// builder in payments.go; the order is a wire contract and never changes.
type operation struct {
	name    string
	path    string
	version string
}

var (
	opAuthPayment     = operation{name: "CreateCharge", path: "/pbwapi/auth_payment"}
	opChargeCardToken = operation{name: "ChargeCardToken", path: "/pbwapi/charge_card_token"}
	opCheckStatus     = operation{name: "CheckPaymentStatus", path: "/pbwapi/check_payment_status"}
	opCapture         = operation{name: "Capture", path: "/pbwapi/capture"}
	opCancel          = operation{name: "Cancel", path: "/pbwapi/cancel"}
	opGetCardToken    = operation{name: "GetCardToken", path: "/pbwapi/get_card_token"}
	opDeleteCardToken = operation{name: "DeleteCardToken", path: "/pbwapi/delete_card_token"}
	opGetPayment      = operation{name: "GetPayment", path: "/pbwapi/get_payment"}
	opCreateRefund    = operation{name: "CreateRefund", path: "/pbwapi/create_refund"}
	opGetRefund       = operation{name: "GetRefund", path: "/pbwapi/get_refund"}
	opCancelRefund    = operation{name: "CancelRefund", path: "/pbwapi/cancel_refund"}

	// The merchant payment method listing speaks its own protocol version.
	opMerchantMethods = operation{name: "GetMerchantPaymentMethods", path: "/pbwapi/merchant_payment_methods", version: "2"}
)
